// Package table models the tabular shape of disclosure data: ordered
// records of field name to value, grouped into tables with a fixed
// column set. Field order is significant for presentation and for the
// on-disk JSON layout, so records remember insertion order instead of
// relying on map iteration.
package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Record is an ordered mapping from field name to scalar value.
// Optional fields may be absent entirely, absence is not the same as
// an empty string.
type Record struct {
	fields []string
	values map[string]string
}

func NewRecord() Record {
	return Record{values: map[string]string{}}
}

// FromPairs builds a record from alternating field/value arguments.
func FromPairs(pairs ...string) Record {
	if len(pairs)%2 != 0 {
		panic("table.FromPairs requires an even number of arguments")
	}
	r := NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

func (r *Record) Set(field, value string) {
	if r.values == nil {
		r.values = map[string]string{}
	}
	if _, exists := r.values[field]; !exists {
		r.fields = append(r.fields, field)
	}
	r.values[field] = value
}

func (r Record) Get(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Fields returns field names in insertion order. The returned slice
// must not be mutated.
func (r Record) Fields() []string {
	return r.fields
}

func (r Record) Len() int {
	return len(r.fields)
}

// Equal reports full-record identity: the same set of present fields
// with the same values. A record that gained, lost, or changed any
// field is a different record.
func (r Record) Equal(other Record) bool {
	if len(r.fields) != len(other.fields) {
		return false
	}
	for f, v := range r.values {
		ov, ok := other.values[f]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

func (r Record) Clone() Record {
	out := NewRecord()
	for _, f := range r.fields {
		out.Set(f, r.values[f])
	}
	return out
}

// Key renders the record into a canonical string usable as a set
// member for full-record identity comparisons. Field order does not
// affect the key.
func (r Record) Key() string {
	sorted := slices.Clone(r.fields)
	slices.Sort(sorted)

	var buf bytes.Buffer
	for _, f := range sorted {
		fj, _ := json.Marshal(f)
		vj, _ := json.Marshal(r.values[f])
		buf.Write(fj)
		buf.WriteByte('=')
		buf.Write(vj)
		buf.WriteByte(';')
	}
	return buf.String()
}

// MarshalJSON writes the record as a JSON object with fields in
// insertion order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		fj, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		vj, err := json.Marshal(r.values[f])
		if err != nil {
			return nil, err
		}
		buf.Write(fj)
		buf.WriteByte(':')
		buf.Write(vj)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving the field order of the
// document.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	*r = NewRecord()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", keyTok)
		}

		var value any
		err = dec.Decode(&value)
		if err != nil {
			return err
		}
		switch v := value.(type) {
		case nil:
			// absent optional field, keep it absent
		case string:
			r.Set(key, v)
		case json.Number:
			r.Set(key, v.String())
		case float64:
			r.Set(key, fmt.Sprintf("%v", v))
		default:
			return fmt.Errorf("field %q holds a non-scalar value", key)
		}
	}

	_, err = dec.Token()
	return err
}

// Table is an ordered sequence of records sharing one column set.
type Table struct {
	Columns []string
	Records []Record
}

func NewTable(columns ...string) Table {
	return Table{Columns: columns}
}

func (t *Table) Append(r Record) {
	t.Records = append(t.Records, r)
}

func (t Table) Len() int {
	return len(t.Records)
}

// SameColumns reports whether two tables carry the same column set,
// ignoring order.
func (t Table) SameColumns(other Table) bool {
	if len(t.Columns) != len(other.Columns) {
		return false
	}
	a := slices.Clone(t.Columns)
	b := slices.Clone(other.Columns)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// Contains reports whether any record in the table is identical to r.
func (t Table) Contains(r Record) bool {
	for _, rec := range t.Records {
		if rec.Equal(r) {
			return true
		}
	}
	return false
}
