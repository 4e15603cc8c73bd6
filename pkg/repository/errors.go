package repository

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports a request that names missing or invalid fields.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if msg == "" {
		msg = "validation failed"
	}
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	return msg
}

// MissingFields returns a ValidationError naming every empty value in
// fields, checked in names order, or nil when none is empty.
func MissingFields(names []string, fields map[string]string) error {
	var missing []string
	for _, n := range names {
		if strings.TrimSpace(fields[n]) == "" {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing, Reason: "missing required fields"}
}

// Invalid returns a ValidationError for a single field.
func Invalid(field, reason string) error {
	return &ValidationError{Fields: []string{field}, Reason: reason}
}
