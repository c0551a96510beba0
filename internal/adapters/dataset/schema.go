package dataset

import (
	"fmt"
	"strings"
)

// Smeared output columns appended to the input schema.
const (
	EnergySmeared    = "energy_smeared"
	CosZenithSmeared = "cos_zenith_smeared"
)

// Column types. SQLite declared types are carried through unchanged; these
// are the ones the adapters emit themselves.
const (
	TypeReal    = "REAL"
	TypeInteger = "INTEGER"
	TypeText    = "TEXT"
)

// Column describes one field of a record.
type Column struct {
	Name string `msgpack:"name"`
	Type string `msgpack:"type"`
}

// Schema is the ordered column list of a dataset.
type Schema []Column

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// check rejects empty or repeated column names.
func (s Schema) check() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: schema has no columns", ErrMissingField)
	}
	seen := make(map[string]struct{}, len(s))
	for _, c := range s {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: empty column name", ErrMissingField)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// WithSmeared returns a clone of s extended by the smeared columns.
func (s Schema) WithSmeared() Schema {
	out := make(Schema, 0, len(s)+2)
	out = append(out, s...)
	return append(out,
		Column{Name: EnergySmeared, Type: TypeReal},
		Column{Name: CosZenithSmeared, Type: TypeReal},
	)
}
