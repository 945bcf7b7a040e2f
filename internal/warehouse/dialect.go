package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvload/internal/core"
)

// dialect captures what differs between database/sql backends: identifier
// quoting, bind placeholders, parameter limits, DDL types and the catalog
// queries.
type dialect struct {
	name   string // reported by Catalog.Dialect
	driver string // database/sql driver name

	quote       func(string) string
	placeholder func(n int) string // n is 1-based

	maxParams int // bind parameters per statement
	maxRows   int // rows per VALUES list; 0 means no limit

	typeName func(core.ColumnType) string

	// datesAsText keeps DateTime cells as YYYY-MM-DD strings instead of
	// time.Time.
	datesAsText bool

	// hasTableSQL takes the table name and returns a count.
	hasTableSQL string

	// columnsSQL takes the table name and returns (name, declared type)
	// in declared order.
	columnsSQL string

	truncate func(ctx context.Context, db *sql.DB, d dialect, table string) error
}

func questionPlaceholder(int) string { return "?" }

func dollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

func atPlaceholder(n int) string { return "@p" + strconv.Itoa(n) }

func doubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// textLength is the VARCHAR length for t.
func textLength(t core.ColumnType) int {
	if t.Length > 0 {
		return t.Length
	}
	return core.DefaultTextLength
}

// batchRows returns how many rows of ncols columns fit one INSERT.
func (d dialect) batchRows(ncols, batchSize int) int {
	n := batchSize
	if d.maxRows > 0 && n > d.maxRows {
		n = d.maxRows
	}
	if d.maxParams > 0 && ncols > 0 && n*ncols > d.maxParams {
		n = d.maxParams / ncols
	}
	if n < 1 {
		n = 1
	}
	return n
}

// buildCreateSQL renders CREATE TABLE for schema with every column
// nullable.
func buildCreateSQL(d dialect, schema core.TableSchema) string {
	parts := make([]string, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		parts = append(parts, fmt.Sprintf("%s %s", d.quote(c.Name), d.typeName(c.Type)))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.quote(schema.Table), strings.Join(parts, ",\n  "))
}

// buildInsertSQL renders a multi-row INSERT and its flattened arguments.
func buildInsertSQL(d dialect, table string, columns []string, rows [][]any) (string, []any) {
	colList := make([]string, len(columns))
	for i, c := range columns {
		colList[i] = d.quote(c)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.quote(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	n := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.placeholder(n))
			n++
		}
		b.WriteByte(')')
		args = append(args, row...)
	}

	return b.String(), args
}
