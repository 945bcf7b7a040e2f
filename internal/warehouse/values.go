package warehouse

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/csvload/internal/core"
)

// sqlValue converts a reconciled cell into a database/sql argument: nil,
// int64, float64, bool, string or time.Time.
func sqlValue(v any, t core.ColumnType, datesAsText bool) (any, error) {
	if core.IsMissing(v) {
		return nil, nil
	}

	switch x := v.(type) {
	case pgtype.Int8:
		return x.Int64, nil
	case pgtype.Float8:
		return x.Float64, nil
	case pgtype.Bool:
		return x.Bool, nil
	case pgtype.Text:
		if t.Kind == core.KindDateTime && !datesAsText {
			ts, err := time.Parse(core.CanonicalDateLayout, x.String)
			if err != nil {
				return nil, fmt.Errorf("date value %q: %w", x.String, err)
			}
			return ts, nil
		}
		return x.String, nil
	}
	return v, nil
}

// pgxValue converts a reconciled cell for COPY. DECIMAL columns carry
// text and are encoded as numerics.
func pgxValue(v any, t core.ColumnType) (any, error) {
	if t.Declared == core.SQLDecimal {
		var n pgtype.Numeric
		if core.IsMissing(v) {
			return n, nil
		}
		s, ok := v.(pgtype.Text)
		if !ok {
			return nil, fmt.Errorf("decimal value has type %T", v)
		}
		if err := n.Scan(s.String); err != nil {
			return nil, fmt.Errorf("decimal value %q: %w", s.String, err)
		}
		return n, nil
	}
	return sqlValue(v, t, false)
}

// datasetRows converts ds into row-major arguments using conv.
func datasetRows(ds *core.Dataset, conv func(any, core.ColumnType) (any, error)) ([][]any, error) {
	n := ds.Rows()
	rows := make([][]any, n)
	for i := 0; i < n; i++ {
		row := ds.Row(i)
		for j, v := range row {
			c := ds.Columns[j]
			cell, err := conv(v, c.Type)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", c.Name, i+1, err)
			}
			row[j] = cell
		}
		rows[i] = row
	}
	return rows, nil
}
