// Package duckdb persists the annotation table and classified reports in DuckDB.
// Annotation rows are append-only; parsed genotype calls are cached as gob files.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for the annotation table and reports.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS resolved_identifiers (
			identifier VARCHAR,
			row_count BIGINT,
			resolved_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS annotations (
			identifier VARCHAR,
			row_index BIGINT,
			variant_type VARCHAR,
			description VARCHAR,
			deleted VARCHAR,
			inserted VARCHAR,
			allele_count BIGINT,
			total_count BIGINT,
			observed_frequency DOUBLE,
			diseases VARCHAR,
			significance VARCHAR,
			submissions BIGINT,
			gene_locus VARCHAR,
			gene_name VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS classified_calls (
			run_id VARCHAR,
			seq BIGINT,
			sample_id VARCHAR,
			source VARCHAR,
			identifier VARCHAR,
			chromosome VARCHAR,
			position BIGINT,
			alleles VARCHAR,
			classification VARCHAR,
			variant_type VARCHAR,
			description VARCHAR,
			deleted VARCHAR,
			inserted VARCHAR,
			allele_count BIGINT,
			total_count BIGINT,
			observed_frequency DOUBLE,
			diseases VARCHAR,
			significance VARCHAR,
			submissions BIGINT,
			gene_locus VARCHAR,
			gene_name VARCHAR,
			created_at TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// inTx runs fn on a dedicated connection inside BEGIN/COMMIT. The transaction
// is rolled back when fn fails.
func (s *Store) inTx(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(conn); err != nil {
		conn.ExecContext(context.Background(), "ROLLBACK")
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		conn.ExecContext(context.Background(), "ROLLBACK")
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// appendRows bulk-inserts rows into table using the Appender API.
func appendRows(conn *sql.Conn, table string, n int, row func(i int) []driver.Value) error {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create %s appender: %w", table, err)
	}

	for i := 0; i < n; i++ {
		if err := appender.AppendRow(row(i)...); err != nil {
			appender.Close()
			return fmt.Errorf("append %s row: %w", table, err)
		}
	}
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush %s appender: %w", table, err)
	}
	return nil
}

// maxInParams bounds the number of placeholders in one IN (...) list.
const maxInParams = 1000

// chunks splits ids into slices of at most maxInParams.
func chunks(ids []string) [][]string {
	var out [][]string
	for len(ids) > maxInParams {
		out = append(out, ids[:maxInParams])
		ids = ids[maxInParams:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// inList returns "?, ?, ..." and the matching arguments for ids.
func inList(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

// quoteLiteral quotes s as a SQL string literal for statements that do not
// accept parameters, such as COPY.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
