package record

import (
	"errors"
	"fmt"
)

// Delimiter separates fields on a line.
const Delimiter = ','

// Quote wraps a field value that contains the delimiter.
const Quote = '"'

// ErrMalformedRecord is matched by every *MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

// Record is one row of a table keyed by column name.
type Record map[string]string

// RecordSet is the ordered table backing one remote file.
type RecordSet []Record

// Schema fixes the column order of a table. Column order is positional and versioned:
// reordering columns changes how existing files decode.
type Schema struct {
	Columns []string `json:"columns"`
	// MinColumns is the fewest fields a row may carry before it is rejected.
	// Zero means every column is required.
	MinColumns int `json:"min_columns,omitempty"`
}

// NewSchema returns a schema that requires every column on each row.
func NewSchema(columns ...string) Schema {
	return Schema{Columns: columns}
}

func (s Schema) minColumns() int {
	if s.MinColumns <= 0 || s.MinColumns > len(s.Columns) {
		return len(s.Columns)
	}
	return s.MinColumns
}

// Has reports whether name is one of the schema's columns.
func (s Schema) Has(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Values returns r's fields in column order. Missing fields are empty.
func (s Schema) Values(r Record) []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = r[c]
	}
	return out
}

// Unknown returns the keys of r that are not schema columns.
func (s Schema) Unknown(r Record) []string {
	var out []string
	for k := range r {
		if !s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// MalformedRecordError describes a row that was skipped during decoding.
type MalformedRecordError struct {
	Line    int `json:"line"`
	Columns int `json:"columns"`
	Want    int `json:"want"`
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("line %d: %d columns, want at least %d", e.Line, e.Columns, e.Want)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// Clone returns a copy of r that can be modified independently.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
