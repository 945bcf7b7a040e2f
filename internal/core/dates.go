package core

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// CleanDate normalizes one date-like value to a canonical YYYY-MM-DD string.
//
// Any input is accepted: it is rendered as text, stripped of non-breaking
// spaces and surrounding whitespace, and parsed with ParseDate. Values that
// cannot be parsed, including blanks and nil, yield the missing marker.
// CleanDate never fails and is idempotent, since its output is itself an
// accepted layout.
func CleanDate(v any) pgtype.Text {
	t, ok := ParseDate(textOf(v))
	if !ok {
		return pgtype.Text{}
	}
	return pgtype.Text{String: t.Format(CanonicalDateLayout), Valid: true}
}

// CleanDateColumn applies CleanDate to every value and returns the number
// of non-blank values that could not be parsed.
func CleanDateColumn(values []any) ([]any, int) {
	out := make([]any, len(values))
	unparsed := 0
	for i, v := range values {
		cleaned := CleanDate(v)
		if !cleaned.Valid && NormalizeText(textOf(v)) != "" {
			unparsed++
		}
		out[i] = cleaned
	}
	return out, unparsed
}
