package dataset

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/okian/smear/pkg/metrics"
)

// MemoryReader serves records held in memory.
type MemoryReader struct {
	schema Schema
	rows   [][]any
	pos    int
}

// NewMemoryReader returns a reader over rows, each matching schema.
func NewMemoryReader(schema Schema, rows [][]any) (*MemoryReader, error) {
	if err := schema.check(); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != len(schema) {
			return nil, fmt.Errorf("%w: row %d has %d values, schema has %d columns", ErrInvalidValue, i, len(row), len(schema))
		}
	}
	return &MemoryReader{schema: schema, rows: rows}, nil
}

func (r *MemoryReader) Schema() Schema { return r.schema }

func (r *MemoryReader) Len() int64 { return int64(len(r.rows)) }

func (r *MemoryReader) Read(_ context.Context) ([]any, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := make([]any, len(r.rows[r.pos]))
	copy(row, r.rows[r.pos])
	r.pos++
	metrics.RecordDatasetRecord(string(FormatMemory), "read")
	return row, nil
}

func (r *MemoryReader) Close() error { return nil }

// MemoryWriter collects records in memory.
type MemoryWriter struct {
	mu        sync.Mutex
	schema    Schema
	rows      [][]any
	committed bool
	aborted   bool
}

// NewMemoryWriter returns an empty writer for schema.
func NewMemoryWriter(schema Schema) *MemoryWriter {
	return &MemoryWriter{schema: schema}
}

func (w *MemoryWriter) Write(_ context.Context, row []any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.committed || w.aborted {
		return ErrClosed
	}
	if len(row) != len(w.schema) {
		return fmt.Errorf("%w: row has %d values, schema has %d columns", ErrInvalidValue, len(row), len(w.schema))
	}
	w.rows = append(w.rows, row)
	metrics.RecordDatasetRecord(string(FormatMemory), "write")
	return nil
}

func (w *MemoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.aborted {
		return ErrClosed
	}
	w.committed = true
	return nil
}

func (w *MemoryWriter) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.committed {
		w.aborted = true
		w.rows = nil
	}
	return nil
}

// Schema returns the writer's schema.
func (w *MemoryWriter) Schema() Schema { return w.schema }

// Rows returns the records written so far.
func (w *MemoryWriter) Rows() [][]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Committed reports whether Close succeeded.
func (w *MemoryWriter) Committed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.committed
}
