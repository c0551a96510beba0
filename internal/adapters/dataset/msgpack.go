package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/okian/smear/pkg/logger"
	"github.com/okian/smear/pkg/metrics"
)

// msgpackMagic tags the header of a MessagePack dataset.
const msgpackMagic = "smear-dataset"

const msgpackVersion = 1

// header opens a MessagePack dataset. One array per record follows it.
type header struct {
	Format  string `msgpack:"format"`
	Version int    `msgpack:"version"`
	Table   string `msgpack:"table"`
	Columns Schema `msgpack:"columns"`
}

type msgpackReader struct {
	f      *os.File
	dec    *msgpack.Decoder
	schema Schema
	n      int64
}

func openMsgpackReader(path string, o options) (*msgpackReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	r := &msgpackReader{f: f}
	if err := r.count(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: rewind %s: %v", ErrOpen, path, err)
	}
	r.dec = msgpack.NewDecoder(bufio.NewReader(f))
	if _, err := readHeader(r.dec); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	o.logger.Debug(context.Background(), "opened msgpack dataset",
		logger.String("path", path),
		logger.Int64("records", r.n),
	)
	return r, nil
}

func readHeader(dec *msgpack.Decoder) (header, error) {
	var h header
	if err := dec.Decode(&h); err != nil {
		return h, fmt.Errorf("%w: read header: %v", ErrOpen, err)
	}
	if h.Format != msgpackMagic {
		return h, fmt.Errorf("%w: not a smear dataset", ErrUnsupportedFormat)
	}
	if h.Version != msgpackVersion {
		return h, fmt.Errorf("%w: dataset version %d", ErrUnsupportedFormat, h.Version)
	}
	if err := h.Columns.check(); err != nil {
		return h, err
	}
	return h, nil
}

// count reads the header and skips every record to size the dataset.
func (r *msgpackReader) count() error {
	dec := msgpack.NewDecoder(bufio.NewReader(r.f))
	h, err := readHeader(dec)
	if err != nil {
		return err
	}
	r.schema = h.Columns
	for {
		err := dec.Skip()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrOpen, r.n, err)
		}
		r.n++
	}
}

func (r *msgpackReader) Schema() Schema { return r.schema }

func (r *msgpackReader) Len() int64 { return r.n }

func (r *msgpackReader) Read(_ context.Context) ([]any, error) {
	if r.dec == nil {
		return nil, ErrClosed
	}
	n, err := r.dec.DecodeArrayLen()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if n != len(r.schema) {
		return nil, fmt.Errorf("%w: record has %d values, schema has %d columns", ErrInvalidValue, n, len(r.schema))
	}
	row := make([]any, n)
	for i := range row {
		if row[i], err = r.dec.DecodeInterfaceLoose(); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.schema[i].Name, err)
		}
	}
	metrics.RecordDatasetRecord(string(FormatMsgpack), "read")
	return row, nil
}

func (r *msgpackReader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f, r.dec = nil, nil
	return err
}

type msgpackWriter struct {
	path  string
	f     *os.File
	buf   *bufio.Writer
	enc   *msgpack.Encoder
	width int
	done  bool
}

func createMsgpackWriter(path string, schema Schema, o options) (*msgpackWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	buf := bufio.NewWriter(f)
	w := &msgpackWriter{path: path, f: f, buf: buf, enc: msgpack.NewEncoder(buf), width: len(schema)}
	h := header{Format: msgpackMagic, Version: msgpackVersion, Table: o.table, Columns: schema}
	if err := w.enc.Encode(&h); err != nil {
		_ = w.Abort()
		return nil, fmt.Errorf("%w: write header: %v", ErrOpen, err)
	}
	return w, nil
}

func (w *msgpackWriter) Write(_ context.Context, row []any) error {
	if w.enc == nil {
		return ErrClosed
	}
	if len(row) != w.width {
		return fmt.Errorf("%w: row has %d values, schema has %d columns", ErrInvalidValue, len(row), w.width)
	}
	if err := w.enc.EncodeArrayLen(len(row)); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	for _, v := range row {
		if err := w.enc.Encode(v); err != nil {
			return fmt.Errorf("encode value: %w", err)
		}
	}
	metrics.RecordDatasetRecord(string(FormatMsgpack), "write")
	return nil
}

func (w *msgpackWriter) Close() error {
	if w.enc == nil {
		return ErrClosed
	}
	w.enc = nil
	if err := errors.Join(w.buf.Flush(), w.f.Sync(), w.f.Close()); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	w.done = true
	return nil
}

func (w *msgpackWriter) Abort() error {
	if w.done {
		return nil
	}
	w.enc = nil
	_ = w.f.Close()
	if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
