package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"
)

// Run describes one archived report.
type Run struct {
	ID        string
	Sample    string
	CreatedAt time.Time
	Header    []string
	Rows      int64
	Inputs    []FileFingerprint
}

// RunWriter collects the rows of one report and archives them on Commit.
// It satisfies output.RowWriter.
type RunWriter struct {
	store  *Store
	run    Run
	header []string
	rows   []string
}

// NewRun starts a run for sample. Inputs are recorded with the run.
func (s *Store) NewRun(sample string, inputs ...FileFingerprint) *RunWriter {
	return &RunWriter{
		store: s,
		run: Run{
			ID:        uuid.NewString(),
			Sample:    sample,
			CreatedAt: time.Now().UTC(),
			Inputs:    inputs,
		},
	}
}

// ID returns the run identifier.
func (w *RunWriter) ID() string {
	return w.run.ID
}

// WriteHeader records the report header.
func (w *RunWriter) WriteHeader(columns []string) error {
	w.header = append([]string(nil), columns...)
	return nil
}

// Write records one report row.
func (w *RunWriter) Write(values []string) error {
	if len(values) != len(w.header) {
		return fmt.Errorf("row has %d values, header has %d columns", len(values), len(w.header))
	}
	w.rows = append(w.rows, strings.Join(values, "\t"))
	return nil
}

// Commit stores the run, its inputs and its rows.
func (w *RunWriter) Commit(ctx context.Context) error {
	s := w.store
	w.run.Header = w.header
	w.run.Rows = int64(len(w.rows))

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO report_runs VALUES (?, ?, ?, ?, ?)`,
		w.run.ID, w.run.Sample, w.run.CreatedAt, strings.Join(w.header, "\t"), w.run.Rows); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, in := range w.run.Inputs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO report_inputs VALUES (?, ?, ?, ?, ?)`,
			w.run.ID, in.Role, in.Path, in.Size, in.ModTime); err != nil {
			return fmt.Errorf("insert run input: %w", err)
		}
	}
	if len(w.rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "report_rows")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i, line := range w.rows {
		if err := appender.AppendRow(w.run.ID, int64(i), line); err != nil {
			return fmt.Errorf("append report row: %w", err)
		}
	}

	return appender.Flush()
}

// Runs lists archived runs, newest first. An empty sample lists all runs.
func (s *Store) Runs(ctx context.Context, sample string) ([]Run, error) {
	query := `SELECT run_id, sample, created_at, header, row_count FROM report_runs`
	var args []any
	if sample != "" {
		query += ` WHERE sample=?`
		args = append(args, sample)
	}
	query += ` ORDER BY created_at DESC, run_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var header string
		if err := rows.Scan(&r.ID, &r.Sample, &r.CreatedAt, &header, &r.Rows); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Header = splitLine(header)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		if runs[i].Inputs, err = s.inputs(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) inputs(ctx context.Context, runID string) ([]FileFingerprint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, path, size, mod_time FROM report_inputs WHERE run_id=? ORDER BY role`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run inputs: %w", err)
	}
	defer rows.Close()

	var out []FileFingerprint
	for rows.Next() {
		var f FileFingerprint
		if err := rows.Scan(&f.Role, &f.Path, &f.Size, &f.ModTime); err != nil {
			return nil, fmt.Errorf("scan run input: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// RunRows returns the rows of a run in report order.
func (s *Store) RunRows(ctx context.Context, runID string) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT line FROM report_rows WHERE run_id=? ORDER BY row_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query report rows: %w", err)
	}
	defer rows.Close()

	return scanLines(rows)
}

// SearchRows returns rows of every run whose text contains term, each
// prefixed with its run id.
func (s *Store) SearchRows(ctx context.Context, term string) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, line FROM report_rows
		WHERE contains(line, ?) ORDER BY run_id, row_index`, term)
	if err != nil {
		return nil, fmt.Errorf("search report rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var runID, line string
		if err := rows.Scan(&runID, &line); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, append([]string{runID}, splitLine(line)...))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return out, nil
}

// DeleteRun removes a run and everything recorded with it.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	for _, table := range []string{"report_rows", "report_inputs", "report_runs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id=?", runID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

func scanLines(rows *sql.Rows) ([][]string, error) {
	var out [][]string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, splitLine(line))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return out, nil
}

func splitLine(line string) []string {
	if line == "" {
		return nil
	}
	return strings.Split(line, "\t")
}
