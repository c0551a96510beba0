package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/okian/smear/internal/domain/model"
)

// Source maps raw records to events using the configured true-value fields.
type Source struct {
	r         RowReader
	fields    Fields
	energy    int
	cosZenith int
	read      int64
}

// NewSource wraps r. It fails when a true-value column is missing or when
// the input already carries smeared columns.
func NewSource(r RowReader, fields Fields) (*Source, error) {
	schema := r.Schema()
	for _, name := range []string{EnergySmeared, CosZenithSmeared} {
		if schema.Index(name) >= 0 {
			return nil, fmt.Errorf("%w: input already has %q", ErrDuplicateColumn, name)
		}
	}
	s := &Source{r: r, fields: fields, energy: schema.Index(fields.Energy), cosZenith: schema.Index(fields.CosZenith)}
	if s.energy < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingField, fields.Energy)
	}
	if s.cosZenith < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingField, fields.CosZenith)
	}
	return s, nil
}

// OpenSource opens the dataset at path and maps it with fields.
func OpenSource(ctx context.Context, path string, fields Fields, opts ...Option) (*Source, error) {
	r, err := OpenReader(ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	s, err := NewSource(r, fields)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return s, nil
}

// Schema returns the input schema.
func (s *Source) Schema() Schema { return s.r.Schema() }

// Fields returns the true-value column names in use.
func (s *Source) Fields() Fields { return s.fields }

// Len returns the number of events.
func (s *Source) Len() int64 { return s.r.Len() }

// Next returns the next event, or io.EOF after the last one.
func (s *Source) Next(ctx context.Context) (model.Event, error) {
	row, err := s.r.Read(ctx)
	if err != nil {
		return model.Event{}, err
	}
	energy, err := toFloat(row[s.energy])
	if err != nil {
		return model.Event{}, fmt.Errorf("record %d %s: %w", s.read, s.fields.Energy, err)
	}
	cos, err := toFloat(row[s.cosZenith])
	if err != nil {
		return model.Event{}, fmt.Errorf("record %d %s: %w", s.read, s.fields.CosZenith, err)
	}
	s.read++
	return model.Event{EnergyTrue: energy, CosZenithTrue: cos, Raw: row}, nil
}

// Close releases the underlying reader.
func (s *Source) Close() error { return s.r.Close() }

// Sink writes events as the input record followed by the smeared columns.
type Sink struct {
	w     RowWriter
	width int
}

// NewSink wraps w, which must have been created with input.WithSmeared().
func NewSink(w RowWriter, input Schema) *Sink {
	return &Sink{w: w, width: len(input)}
}

// CreateSink creates the output dataset at path for records of input.
func CreateSink(ctx context.Context, path string, input Schema, opts ...Option) (*Sink, error) {
	w, err := CreateWriter(ctx, path, input.WithSmeared(), opts...)
	if err != nil {
		return nil, err
	}
	return NewSink(w, input), nil
}

// Append writes one smeared event.
func (s *Sink) Append(ctx context.Context, e model.Event) error {
	if len(e.Raw) != s.width {
		return fmt.Errorf("%w: record has %d columns, schema has %d", ErrInvalidValue, len(e.Raw), s.width)
	}
	row := make([]any, 0, s.width+2)
	row = append(row, e.Raw...)
	row = append(row, e.EnergySmeared, e.CosZenithSmeared)
	return s.w.Write(ctx, row)
}

// Close commits the output.
func (s *Sink) Close() error { return s.w.Close() }

// Abort discards the output.
func (s *Sink) Abort() error { return s.w.Abort() }

// toFloat converts a decoded column value to float64.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case string:
		return parseFloat(x)
	case []byte:
		return parseFloat(string(x))
	case nil:
		return 0, fmt.Errorf("%w: null", ErrInvalidValue)
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidValue, v)
	}
}

// parseFloat accepts numeric text, as SQLite columns without affinity may
// hold it.
func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
	}
	return f, nil
}
