package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/genomenote/rsclass/internal/variant"
)

// KnownIdentifiers returns the subset of ids that have already been resolved,
// including identifiers that produced no rows.
func (s *Store) KnownIdentifiers(ctx context.Context, ids []string) (map[string]bool, error) {
	known := make(map[string]bool)
	for _, chunk := range chunks(ids) {
		in, args := inList(chunk)
		rows, err := s.db.QueryContext(ctx,
			`SELECT identifier FROM resolved_identifiers WHERE identifier IN (`+in+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("query resolved identifiers: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan resolved identifier: %w", err)
			}
			known[id] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate resolved identifiers: %w", err)
		}
	}
	return known, nil
}

// LoadAnnotations returns the persisted rows for ids, grouped by identifier in
// the order ids lists them, each identifier's rows in table order.
func (s *Store) LoadAnnotations(ctx context.Context, ids []string) ([]variant.Row, error) {
	byID := make(map[string][]variant.Row)
	for _, chunk := range chunks(ids) {
		in, args := inList(chunk)
		rows, err := s.db.QueryContext(ctx, `SELECT
			identifier, variant_type, description, deleted, inserted,
			allele_count, total_count, observed_frequency,
			diseases, significance, submissions, gene_locus, gene_name
			FROM annotations
			WHERE identifier IN (`+in+`)
			ORDER BY identifier, row_index`, args...)
		if err != nil {
			return nil, fmt.Errorf("query annotations: %w", err)
		}
		loaded, err := scanRows(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		for _, r := range loaded {
			byID[r.Identifier] = append(byID[r.Identifier], r)
		}
	}

	var out []variant.Row
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, byID[id]...)
	}
	return out, nil
}

func scanRows(rows *sql.Rows) ([]variant.Row, error) {
	var out []variant.Row
	for rows.Next() {
		var r variant.Row
		var typ string
		if err := rows.Scan(
			&r.Identifier, &typ, &r.Description, &r.Deleted, &r.Inserted,
			&r.AlleleCount, &r.TotalCount, &r.ObservedFrequency,
			&r.Diseases, &r.Significance, &r.Submissions, &r.GeneLocus, &r.GeneName,
		); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		r.Type = variant.Type(typ)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations: %w", err)
	}
	return out, nil
}

// AppendAnnotations records ids as resolved and appends their rows in one
// transaction. Existing rows are left untouched. Callers pass only identifiers
// that KnownIdentifiers does not report.
func (s *Store) AppendAnnotations(ctx context.Context, ids []string, rows []variant.Row) error {
	if len(ids) == 0 {
		return nil
	}
	return s.inTx(ctx, func(conn *sql.Conn) error {
		return writeAnnotations(conn, ids, rows)
	})
}

// ReplaceAnnotations drops everything persisted for ids and writes the given
// rows in their place, in one transaction.
func (s *Store) ReplaceAnnotations(ctx context.Context, ids []string, rows []variant.Row) error {
	if len(ids) == 0 {
		return nil
	}
	return s.inTx(ctx, func(conn *sql.Conn) error {
		for _, chunk := range chunks(ids) {
			in, args := inList(chunk)
			if _, err := conn.ExecContext(ctx,
				`DELETE FROM annotations WHERE identifier IN (`+in+`)`, args...); err != nil {
				return fmt.Errorf("delete annotations: %w", err)
			}
			if _, err := conn.ExecContext(ctx,
				`DELETE FROM resolved_identifiers WHERE identifier IN (`+in+`)`, args...); err != nil {
				return fmt.Errorf("delete resolved identifiers: %w", err)
			}
		}
		return writeAnnotations(conn, ids, rows)
	})
}

func writeAnnotations(conn *sql.Conn, ids []string, rows []variant.Row) error {
	counts := make(map[string]int64, len(ids))
	index := make([]int64, len(rows))
	for i, r := range rows {
		index[i] = counts[r.Identifier]
		counts[r.Identifier]++
	}

	now := time.Now().UTC()
	if err := appendRows(conn, "resolved_identifiers", len(ids), func(i int) []driver.Value {
		return []driver.Value{ids[i], counts[ids[i]], now}
	}); err != nil {
		return err
	}

	return appendRows(conn, "annotations", len(rows), func(i int) []driver.Value {
		r := rows[i]
		return []driver.Value{
			r.Identifier, index[i], string(r.Type), r.Description, r.Deleted, r.Inserted,
			r.AlleleCount, r.TotalCount, r.ObservedFrequency,
			r.Diseases, r.Significance, r.Submissions, r.GeneLocus, r.GeneName,
		}
	})
}

// Counts returns the number of resolved identifiers and annotation rows.
func (s *Store) Counts(ctx context.Context) (identifiers, rows int64, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT
		(SELECT count(*) FROM resolved_identifiers),
		(SELECT count(*) FROM annotations)`).Scan(&identifiers, &rows)
	if err != nil {
		return 0, 0, fmt.Errorf("count annotations: %w", err)
	}
	return identifiers, rows, nil
}

// ClearAnnotations removes every persisted annotation and resolved identifier.
func (s *Store) ClearAnnotations(ctx context.Context) error {
	return s.inTx(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, "DELETE FROM annotations"); err != nil {
			return fmt.Errorf("clear annotations: %w", err)
		}
		if _, err := conn.ExecContext(ctx, "DELETE FROM resolved_identifiers"); err != nil {
			return fmt.Errorf("clear resolved identifiers: %w", err)
		}
		return nil
	})
}
