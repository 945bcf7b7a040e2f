package core

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Text bounds for inferred columns.
const (
	MaxTextLength     = 1000
	DefaultTextLength = 255
)

// InferOptions bounds inferred text columns.
type InferOptions struct {
	MaxTextLength int // Ceiling for Text(n); values above MaxTextLength are clamped to it
}

func (o InferOptions) maxText() int {
	if o.MaxTextLength <= 0 || o.MaxTextLength > MaxTextLength {
		return MaxTextLength
	}
	return o.MaxTextLength
}

// InferColumnType derives a column type from observed values. Missing and
// blank values are ignored. The first kind every remaining value satisfies
// wins, in the order Integer, Float, Boolean, DateTime; anything else is
// Text sized to the longest value, clamped to [1, MaxTextLength]. A column
// with no values is Text(DefaultTextLength).
func InferColumnType(values []any, opts InferOptions) ColumnType {
	var texts []string
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		s := NormalizeText(textOf(v))
		if s == "" {
			continue
		}
		texts = append(texts, s)
	}

	if len(texts) == 0 {
		return TextType(DefaultTextLength)
	}

	switch {
	case all(texts, isIntegerLiteral):
		return ColumnType{Kind: KindInteger, Declared: SQLBigInt}
	case all(texts, isFloatLiteral):
		return ColumnType{Kind: KindFloat, Declared: SQLDouble}
	case all(texts, isBooleanLiteral):
		return ColumnType{Kind: KindBoolean, Declared: SQLBoolean}
	case all(texts, isDateLiteral):
		return ColumnType{Kind: KindDateTime, Declared: SQLDateTime}
	}

	maxLen := 0
	for _, s := range texts {
		if n := utf8.RuneCountInString(s); n > maxLen {
			maxLen = n
		}
	}
	return TextType(clamp(maxLen, 1, opts.maxText()))
}

// InferSchema derives a table schema from every column of ds, keeping the
// dataset's column order.
func InferSchema(table string, ds *Dataset, opts InferOptions) TableSchema {
	schema := TableSchema{Table: table, Columns: make([]ColumnDef, len(ds.Columns))}
	for i, c := range ds.Columns {
		schema.Columns[i] = ColumnDef{Name: c.Name, Type: InferColumnType(c.Values, opts)}
	}
	return schema
}

func all(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func isIntegerLiteral(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isFloatLiteral accepts decimal and scientific notation but not the
// special values strconv understands, such as "NaN" and "Inf".
func isFloatLiteral(s string) bool {
	if !numericRegex.MatchString(s) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isBooleanLiteral(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	}
	return false
}

func isDateLiteral(s string) bool {
	_, ok := ParseDate(s)
	return ok
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
