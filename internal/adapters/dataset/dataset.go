// Package dataset reads and writes columnar event datasets. A dataset is a
// named table of records; the format follows the file extension: SQLite for
// .db, .sqlite and .sqlite3, MessagePack for .msgpack and .mpk.
package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/okian/smear/pkg/logger"
)

// DefaultTable is the table read from and written to when none is set.
const DefaultTable = "sel"

// Format identifies an on-disk encoding.
type Format string

// Supported formats.
const (
	FormatSQLite  Format = "sqlite"
	FormatMsgpack Format = "msgpack"
	FormatMemory  Format = "memory"
)

// FormatOf returns the format selected by the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// RowReader yields raw records in dataset order.
type RowReader interface {
	Schema() Schema
	// Len returns the number of records in the table.
	Len() int64
	// Read returns the next record, or io.EOF after the last one.
	Read(ctx context.Context) ([]any, error)
	Close() error
}

// RowWriter stores raw records. Close commits them; Abort discards
// everything written so far.
type RowWriter interface {
	Write(ctx context.Context, row []any) error
	Close() error
	Abort() error
}

type options struct {
	table  string
	logger logger.Logger
}

// Option applies a configuration option to a reader or writer.
type Option func(*options)

// WithTable sets the table name.
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{table: DefaultTable}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.GetOrNop().Named("dataset")
	}
	return o
}

// OpenReader opens the dataset at path for reading.
func OpenReader(ctx context.Context, path string, opts ...Option) (RowReader, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	switch f {
	case FormatSQLite:
		return openSQLiteReader(ctx, path, o)
	default:
		return openMsgpackReader(path, o)
	}
}

// CreateWriter creates, or truncates, the dataset at path with schema.
func CreateWriter(ctx context.Context, path string, schema Schema, opts ...Option) (RowWriter, error) {
	if err := schema.check(); err != nil {
		return nil, err
	}
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	switch f {
	case FormatSQLite:
		return createSQLiteWriter(ctx, path, schema, o)
	default:
		return createMsgpackWriter(path, schema, o)
	}
}
