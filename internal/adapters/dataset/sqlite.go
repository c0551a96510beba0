package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/smear/internal/domain/detector"
	"github.com/okian/smear/pkg/logger"
	"github.com/okian/smear/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// CanDimensionsTable holds the detector can geometry of a dataset.
const CanDimensionsTable = "CanDimensions"

// quoteIdent quotes an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	// A single connection keeps the transaction and its statements together.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	return db, nil
}

type sqliteReader struct {
	db     *sql.DB
	rows   *sql.Rows
	schema Schema
	n      int64
	logger logger.Logger
}

func openSQLiteReader(ctx context.Context, path string, o options) (*sqliteReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	r := &sqliteReader{db: db, logger: o.logger}
	if err := r.init(ctx, path, o.table); err != nil {
		_ = r.Close()
		return nil, err
	}
	o.logger.Debug(ctx, "opened sqlite dataset",
		logger.String("path", path),
		logger.String("table", o.table),
		logger.Int64("records", r.n),
	)
	return r, nil
}

func (r *sqliteReader) init(ctx context.Context, path, table string) error {
	info, err := r.db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?)", table)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	for info.Next() {
		var c Column
		if err := info.Scan(&c.Name, &c.Type); err != nil {
			_ = info.Close()
			return fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
		}
		r.schema = append(r.schema, c)
	}
	if err := errors.Join(info.Err(), info.Close()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	if len(r.schema) == 0 {
		return fmt.Errorf("%w: %s has no table %q", ErrOpen, path, table)
	}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&r.n); err != nil {
		return fmt.Errorf("%w: count %s: %v", ErrOpen, table, err)
	}

	cols := make([]string, len(r.schema))
	for i, c := range r.schema {
		cols[i] = quoteIdent(c.Name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(cols, ", "), quoteIdent(table))
	r.rows, err = r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: select %s: %v", ErrOpen, table, err)
	}
	return nil
}

func (r *sqliteReader) Schema() Schema { return r.schema }

func (r *sqliteReader) Len() int64 { return r.n }

func (r *sqliteReader) Read(_ context.Context) ([]any, error) {
	if r.rows == nil {
		return nil, ErrClosed
	}
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	vals := make([]any, len(r.schema))
	ptrs := make([]any, len(vals))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	metrics.RecordDatasetRecord(string(FormatSQLite), "read")
	return vals, nil
}

func (r *sqliteReader) Close() error {
	var errs []error
	if r.rows != nil {
		errs = append(errs, r.rows.Close())
		r.rows = nil
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	return errors.Join(errs...)
}

type sqliteWriter struct {
	path   string
	db     *sql.DB
	tx     *sql.Tx
	insert *sql.Stmt
	width  int
	done   bool
	logger logger.Logger
}

func createSQLiteWriter(ctx context.Context, path string, schema Schema, o options) (*sqliteWriter, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	w := &sqliteWriter{path: path, db: db, width: len(schema), logger: o.logger}
	if err := w.init(ctx, o.table, schema); err != nil {
		_ = w.Abort()
		return nil, err
	}
	return w, nil
}

func (w *sqliteWriter) init(ctx context.Context, table string, schema Schema) error {
	defs := make([]string, len(schema))
	cols := make([]string, len(schema))
	marks := make([]string, len(schema))
	for i, c := range schema {
		cols[i] = quoteIdent(c.Name)
		defs[i] = strings.TrimSpace(cols[i] + " " + c.Type)
		marks[i] = "?"
	}

	var err error
	w.tx, err = w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrOpen, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := w.tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrOpen, table, err)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	w.insert, err = w.tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", ErrOpen, err)
	}
	return nil
}

func (w *sqliteWriter) Write(ctx context.Context, row []any) error {
	if w.insert == nil {
		return ErrClosed
	}
	if len(row) != w.width {
		return fmt.Errorf("%w: row has %d values, table has %d columns", ErrInvalidValue, len(row), w.width)
	}
	if _, err := w.insert.ExecContext(ctx, row...); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	metrics.RecordDatasetRecord(string(FormatSQLite), "write")
	return nil
}

func (w *sqliteWriter) Close() error {
	if w.tx == nil {
		return ErrClosed
	}
	err := errors.Join(w.insert.Close(), w.tx.Commit())
	w.insert, w.tx = nil, nil
	if cerr := w.db.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	w.db = nil
	if err != nil {
		return fmt.Errorf("commit %s: %w", w.path, err)
	}
	w.done = true
	w.logger.Debug(context.Background(), "committed sqlite dataset", logger.String("path", w.path))
	return nil
}

func (w *sqliteWriter) Abort() error {
	if w.done {
		return nil
	}
	var errs []error
	if w.insert != nil {
		errs = append(errs, w.insert.Close())
		w.insert = nil
	}
	if w.tx != nil {
		errs = append(errs, w.tx.Rollback())
		w.tx = nil
	}
	if w.db != nil {
		errs = append(errs, w.db.Close())
		w.db = nil
	}
	if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// WriteCanDimensions stores the can geometry in the CanDimensions table of
// the SQLite dataset at path, replacing any previous value. The file is
// created when missing.
func WriteCanDimensions(ctx context.Context, path string, can detector.CanDimensions) error {
	if f, err := FormatOf(path); err != nil || f != FormatSQLite {
		return fmt.Errorf("%w: can dimensions need a sqlite dataset, got %q", ErrUnsupportedFormat, path)
	}
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrOpen, err)
	}
	table := quoteIdent(CanDimensionsTable)
	stmts := []struct {
		query string
		args  []any
	}{
		{"CREATE TABLE IF NOT EXISTS " + table + " (zmin REAL, zmax REAL, radius REAL)", nil},
		{"DELETE FROM " + table, nil},
		{"INSERT INTO " + table + " (zmin, zmax, radius) VALUES (?, ?, ?)", []any{can.ZMin, can.ZMax, can.Radius}},
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write can dimensions: %w", err)
		}
	}
	return tx.Commit()
}

// ReadCanDimensions loads the can geometry written by WriteCanDimensions.
func ReadCanDimensions(ctx context.Context, path string) (detector.CanDimensions, error) {
	var can detector.CanDimensions
	if _, err := os.Stat(path); err != nil {
		return can, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	db, err := openSQLite(path)
	if err != nil {
		return can, err
	}
	defer func() { _ = db.Close() }()

	row := db.QueryRowContext(ctx, "SELECT zmin, zmax, radius FROM "+quoteIdent(CanDimensionsTable)+" LIMIT 1")
	if err := row.Scan(&can.ZMin, &can.ZMax, &can.Radius); err != nil {
		return can, fmt.Errorf("%w: can dimensions: %v", ErrMissingField, err)
	}
	return can, nil
}
