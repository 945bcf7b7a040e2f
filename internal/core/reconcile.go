package core

import (
	"fmt"
	"strings"
)

// ReconcileResult is a dataset cast into a table's declared column set.
type ReconcileResult struct {
	Dataset  *Dataset
	Warnings []PartialDataWarning // Declared columns the source lacked
	Dropped  []string             // Source columns the table does not declare
	// UnparsedDates counts non-blank date values that became missing, by column.
	UnparsedDates map[string]int
}

// Reconcile casts ds into schema. The output has exactly the schema's
// columns in the schema's order:
//
//   - a column present in ds is cast to the declared type; any failure aborts
//     with a *CastError;
//   - a declared column absent from ds is filled with missing markers and
//     reported as a PartialDataWarning;
//   - columns of ds the schema does not declare are dropped.
//
// Names match exactly first and case-insensitively second.
func Reconcile(ds *Dataset, schema TableSchema) (*ReconcileResult, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", schema.Table, err)
	}

	rows := ds.Rows()
	res := &ReconcileResult{
		Dataset:       &Dataset{Columns: make([]Column, 0, len(schema.Columns))},
		UnparsedDates: make(map[string]int),
	}
	used := make(map[int]bool, len(ds.Columns))

	for _, def := range schema.Columns {
		idx := matchColumn(ds, def.Name, used)
		if idx < 0 {
			res.Dataset.Columns = append(res.Dataset.Columns, MissingColumn(def.Name, def.Type, rows))
			res.Warnings = append(res.Warnings, PartialDataWarning{Table: schema.Table, Column: def.Name, Rows: rows})
			continue
		}
		used[idx] = true

		src := ds.Columns[idx]
		src.Name = def.Name
		cast, unparsed, err := castColumn(src, def.Type)
		if err != nil {
			if ce, ok := err.(*CastError); ok {
				ce.Table = schema.Table
			}
			return nil, err
		}
		if unparsed > 0 {
			res.UnparsedDates[def.Name] = unparsed
		}
		res.Dataset.Columns = append(res.Dataset.Columns, cast)
	}

	for i, c := range ds.Columns {
		if !used[i] {
			res.Dropped = append(res.Dropped, c.Name)
		}
	}

	return res, nil
}

// matchColumn returns the index of the unused dataset column named name,
// or -1.
func matchColumn(ds *Dataset, name string, used map[int]bool) int {
	for i, c := range ds.Columns {
		if !used[i] && c.Name == name {
			return i
		}
	}
	for i, c := range ds.Columns {
		if !used[i] && strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// castColumn converts every value of col to the representation of t and
// returns the number of non-blank dates that became missing. DateTime
// columns go through CleanDate and cannot fail. Blank and missing values
// become the missing marker of t. Any other value that does not convert
// aborts with a *CastError naming the first offending row.
func castColumn(col Column, t ColumnType) (Column, int, error) {
	out := Column{Name: col.Name, Type: t, Values: make([]any, len(col.Values))}

	if t.Kind == KindDateTime {
		values, unparsed := CleanDateColumn(col.Values)
		out.Values = values
		return out, unparsed, nil
	}

	for i, v := range col.Values {
		s := textOf(v)
		var (
			cast any
			ok   = true
		)
		switch t.Kind {
		case KindInteger:
			cast, ok = ToPgInt8(s)
		case KindFloat:
			cast, ok = ToPgFloat8(s)
		case KindBoolean:
			cast, ok = ToPgBool(s)
		default:
			cast = ToPgText(s)
		}
		if !ok {
			return Column{}, 0, &CastError{
				Column: col.Name,
				Row:    i + 1,
				Value:  s,
				From:   col.Type.Kind,
				To:     t.Kind,
			}
		}
		out.Values[i] = cast
	}
	return out, 0, nil
}
