// Package recordstore turns a flat, header-prefixed table into a durable
// collection of keyed records. Each table is read and written as a whole;
// Table serializes every read-modify-write cycle so concurrent mutations of
// the same table never lose updates.
package recordstore

import (
	"errors"
	"fmt"
	"strings"
)

// Record is one row of a table: field name to text value.
type Record map[string]string

// Clone returns a copy that shares no state with r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Schema names a table and fixes the ordered field list written as its
// header. Key lists the fields that identify a record; a compound key is
// allowed.
type Schema struct {
	Name   string
	Fields []string
	Key    []string
}

// Validate reports structural problems with the schema.
func (s Schema) Validate() error {
	if s.Name == "" {
		return errors.New("schema name is empty")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %s: no fields", s.Name)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f == "" {
			return fmt.Errorf("schema %s: empty field name", s.Name)
		}
		if seen[f] {
			return fmt.Errorf("schema %s: duplicate field %q", s.Name, f)
		}
		seen[f] = true
	}
	if len(s.Key) == 0 {
		return fmt.Errorf("schema %s: no key fields", s.Name)
	}
	for _, k := range s.Key {
		if !seen[k] {
			return fmt.Errorf("schema %s: key field %q is not a schema field", s.Name, k)
		}
	}
	return nil
}

// KeyOf returns the record's key values in Key order.
func (s Schema) KeyOf(r Record) []string {
	out := make([]string, len(s.Key))
	for i, k := range s.Key {
		out[i] = r[k]
	}
	return out
}

// Matches reports whether r carries exactly the given key values.
func (s Schema) Matches(r Record, key []string) bool {
	if len(key) != len(s.Key) {
		return false
	}
	for i, k := range s.Key {
		if r[k] != key[i] {
			return false
		}
	}
	return true
}

// Row renders r as a row in schema field order. Missing fields are empty.
func (s Schema) Row(r Record) []string {
	row := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		row[i] = r[f]
	}
	return row
}

// Normalize fills every schema field absent from r with the empty string.
// Fields outside the schema are kept.
func (s Schema) Normalize(r Record) Record {
	for _, f := range s.Fields {
		if _, ok := r[f]; !ok {
			r[f] = ""
		}
	}
	return r
}

// ErrMalformedRecord is matched by every MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError describes a stored row that cannot be mapped onto the
// table header.
type MalformedRecordError struct {
	Table  string
	Line   int
	Want   int
	Got    int
	Detail string
}

func (e *MalformedRecordError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: line %d: malformed record", e.Table, e.Line)
	if e.Want > 0 {
		fmt.Fprintf(&sb, ": want %d columns, got %d", e.Want, e.Got)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// MalformedPolicy decides what a backend does with malformed rows.
type MalformedPolicy string

const (
	// RejectMalformed fails the whole read on the first malformed row.
	RejectMalformed MalformedPolicy = "reject"
	// SkipMalformed drops malformed rows and logs a warning for each.
	SkipMalformed MalformedPolicy = "skip"
)

// ParseMalformedPolicy maps a config value to a policy. Empty means reject.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RejectMalformed:
		return RejectMalformed, nil
	case SkipMalformed:
		return SkipMalformed, nil
	default:
		return "", fmt.Errorf("unknown malformed record policy %q", s)
	}
}

func cloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
