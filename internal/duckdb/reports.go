package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/genomenote/rsclass/internal/classify"
	"github.com/genomenote/rsclass/internal/genotype"
	"github.com/genomenote/rsclass/internal/variant"
)

const reportColumns = `sample_id, source, identifier, chromosome, position, alleles,
	classification, variant_type, description, deleted, inserted,
	allele_count, total_count, observed_frequency,
	diseases, significance, submissions, gene_locus, gene_name`

// WriteReport stores the classified calls of one run, keeping their order.
func (s *Store) WriteReport(ctx context.Context, runID string, calls []classify.ClassifiedCall) error {
	now := time.Now().UTC()
	return s.inTx(ctx, func(conn *sql.Conn) error {
		return appendRows(conn, "classified_calls", len(calls), func(i int) []driver.Value {
			c, r := calls[i].Call, calls[i].Row
			return []driver.Value{
				runID, int64(i), c.SampleID, string(c.Source), c.Identifier, c.Chromosome, c.Position, c.Alleles,
				calls[i].Classification, string(r.Type), r.Description, r.Deleted, r.Inserted,
				r.AlleleCount, r.TotalCount, r.ObservedFrequency,
				r.Diseases, r.Significance, r.Submissions, r.GeneLocus, r.GeneName,
				now,
			}
		})
	})
}

// LoadReport returns the classified calls stored for runID in report order.
func (s *Store) LoadReport(ctx context.Context, runID string) ([]classify.ClassifiedCall, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reportColumns+`
		FROM classified_calls WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}
	defer rows.Close()

	var out []classify.ClassifiedCall
	for rows.Next() {
		var cc classify.ClassifiedCall
		var source, typ string
		c, r := &cc.Call, &cc.Row
		if err := rows.Scan(
			&c.SampleID, &source, &c.Identifier, &c.Chromosome, &c.Position, &c.Alleles,
			&cc.Classification, &typ, &r.Description, &r.Deleted, &r.Inserted,
			&r.AlleleCount, &r.TotalCount, &r.ObservedFrequency,
			&r.Diseases, &r.Significance, &r.Submissions, &r.GeneLocus, &r.GeneName,
		); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		c.Source = genotype.Format(source)
		r.Type = variant.Type(typ)
		if cc.Matched() {
			r.Identifier = c.Identifier
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report: %w", err)
	}
	return out, nil
}

// ExportReportParquet writes the calls of runID to a Parquet file at path.
func (s *Store) ExportReportParquet(ctx context.Context, runID, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	query := fmt.Sprintf(`COPY (SELECT %s FROM classified_calls WHERE run_id = %s ORDER BY seq)
		TO %s (FORMAT PARQUET)`, reportColumns, quoteLiteral(runID), quoteLiteral(path))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("export parquet: %w", err)
	}
	return nil
}
