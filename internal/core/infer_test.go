package core

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func texts(values ...string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = ToPgText(v)
	}
	return out
}

// columnNamed returns the column called name or fails the test.
func columnNamed(t *testing.T, ds *Dataset, name string) *Column {
	t.Helper()
	for i := range ds.Columns {
		if ds.Columns[i].Name == name {
			return &ds.Columns[i]
		}
	}
	t.Fatalf("no column %q in %v", name, ds.Names())
	return nil
}

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   ColumnType
	}{
		{"integers", texts("1", "2", "-3"), ColumnType{Kind: KindInteger, Declared: SQLBigInt}},
		{"integers with blanks", texts("1", "", "3"), ColumnType{Kind: KindInteger, Declared: SQLBigInt}},
		{"floats", texts("1.5", "2", "3e2"), ColumnType{Kind: KindFloat, Declared: SQLDouble}},
		{"booleans", texts("true", "False", "TRUE"), ColumnType{Kind: KindBoolean, Declared: SQLBoolean}},
		{"dates", texts("01/05/2023", "2023-05-02"), ColumnType{Kind: KindDateTime, Declared: SQLDateTime}},
		{"text sized to longest", texts("Alice", "Bob"), TextType(5)},
		{"multibyte length in runes", texts("Zoë", "Ål"), TextType(3)},
		{"yes/no is text", texts("yes", "no"), TextType(3)},
		{"currency is text", texts("$1", "$2"), TextType(2)},
		{"NaN is text", texts("NaN", "1.0"), TextType(3)},
		{"empty column", texts("", ""), TextType(DefaultTextLength)},
		{"no rows", nil, TextType(DefaultTextLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferColumnType(tt.values, InferOptions{})
			if got != tt.want {
				t.Errorf("InferColumnType() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInferColumnType_TextBounds(t *testing.T) {
	long := strings.Repeat("x", 5000)

	tests := []struct {
		name   string
		values []any
		opts   InferOptions
		want   int
	}{
		{"clamped to ceiling", texts(long), InferOptions{}, MaxTextLength},
		{"configured ceiling", texts(long), InferOptions{MaxTextLength: 200}, 200},
		{"ceiling cannot exceed maximum", texts(long), InferOptions{MaxTextLength: 4000}, MaxTextLength},
		{"single char", texts("a"), InferOptions{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferColumnType(tt.values, tt.opts)
			if got.Kind != KindText {
				t.Fatalf("Kind = %v, want text", got.Kind)
			}
			if got.Length != tt.want {
				t.Errorf("Length = %d, want %d", got.Length, tt.want)
			}
			if got.Length < 1 || got.Length > MaxTextLength {
				t.Errorf("Length %d outside [1, %d]", got.Length, MaxTextLength)
			}
		})
	}
}

func TestInferSchema(t *testing.T) {
	ds := &Dataset{Columns: []Column{
		{Name: "id", Values: texts("1", "2")},
		{Name: "name", Values: texts("Alice", "Bob")},
		{Name: "joined", Values: texts("01/05/2023", "2023-05-02")},
		{Name: "notes", Values: []any{pgtype.Text{}, pgtype.Text{}}},
	}}

	schema := InferSchema("people", ds, InferOptions{})

	if schema.Table != "people" {
		t.Errorf("Table = %q, want people", schema.Table)
	}
	want := []struct {
		name string
		kind Kind
	}{
		{"id", KindInteger},
		{"name", KindText},
		{"joined", KindDateTime},
		{"notes", KindText},
	}
	if len(schema.Columns) != len(want) {
		t.Fatalf("got %d columns, want %d", len(schema.Columns), len(want))
	}
	for i, w := range want {
		c := schema.Columns[i]
		if c.Name != w.name || c.Type.Kind != w.kind {
			t.Errorf("column %d = %s %v, want %s %v", i, c.Name, c.Type.Kind, w.name, w.kind)
		}
	}
	if got := schema.Columns[3].Type.Length; got != DefaultTextLength {
		t.Errorf("empty column length = %d, want %d", got, DefaultTextLength)
	}
}
