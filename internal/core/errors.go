package core

import (
	"errors"
	"fmt"
)

// ErrUnknownKey is wrapped by the ConfigurationError returned for a
// mapping key with no entry.
var ErrUnknownKey = errors.New("unknown mapping key")

// ConfigurationError reports an unusable mapping or configuration, such as
// an unknown mapping key.
type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (key %q)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InputError reports a missing, unreadable or malformed source file.
type InputError struct {
	Path   string
	Line   int // 0 when not tied to a line
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	msg := "input error: " + e.Path
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error { return e.Err }

// SchemaError reports a target table that is absent or has an unusable
// column set.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: table %q: %s", e.Table, e.Reason)
}

// CastError reports a non-date value that cannot be converted to its
// column's expected representation.
type CastError struct {
	Table  string
	Column string
	Row    int // 1-based data row
	Value  string
	From   Kind
	To     Kind
	Err    error
}

func (e *CastError) Error() string {
	msg := fmt.Sprintf("error casting %q to %s: row %d value %q (from %s)", e.Column, e.To, e.Row, e.Value, e.From)
	if e.Table != "" {
		msg = fmt.Sprintf("table %q: %s", e.Table, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CastError) Unwrap() error { return e.Err }

// PartialDataWarning records a column the table declares but the source
// file lacks. The column is filled with missing markers and the load
// continues.
type PartialDataWarning struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Rows   int    `json:"rows"`
}

func (w PartialDataWarning) String() string {
	return fmt.Sprintf("%q missing in CSV for table %q; filled %d rows with NULL", w.Column, w.Table, w.Rows)
}
