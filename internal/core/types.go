package core

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Kind is the in-memory value representation of a column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindDateTime
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindBoolean:  "boolean",
	KindDateTime: "datetime",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ColumnType describes a column either inferred from data or reflected from
// a table's catalog entry.
type ColumnType struct {
	Kind     Kind
	Length   int     // Text bound; 0 when unbounded or not text
	Declared SQLType // Catalog type tag; SQLUnknown when not reflected
}

// TextType returns a bounded text column type.
func TextType(length int) ColumnType {
	return ColumnType{Kind: KindText, Length: length, Declared: SQLVarchar}
}

func (t ColumnType) String() string {
	if t.Kind == KindText && t.Length > 0 {
		return fmt.Sprintf("text(%d)", t.Length)
	}
	return t.Kind.String()
}

// Column is a named, ordered sequence of cell values.
type Column struct {
	Name   string
	Type   ColumnType
	Values []any
}

// Len returns the number of cells in the column.
func (c Column) Len() int { return len(c.Values) }

// Dataset is an in-memory table of named columns.
// All columns share the same row count.
type Dataset struct {
	Columns []Column
}

// Rows returns the row count, taken from the first column.
func (d *Dataset) Rows() int {
	if d == nil || len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Row returns the values of row i across all columns.
func (d *Dataset) Row(i int) []any {
	row := make([]any, len(d.Columns))
	for j, c := range d.Columns {
		row[j] = c.Values[i]
	}
	return row
}

// Validate checks that every column has the same number of rows.
func (d *Dataset) Validate() error {
	n := d.Rows()
	for _, c := range d.Columns {
		if c.Len() != n {
			return fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), n)
		}
	}
	return nil
}

// ColumnDef is a single column of a table schema.
type ColumnDef struct {
	Name string
	Type ColumnType
}

// TableSchema is the ordered column set of a table.
type TableSchema struct {
	Table   string
	Columns []ColumnDef
}

// Names returns the column names in declared order.
func (s TableSchema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks that the schema has at least one column and unique,
// non-empty column names.
func (s TableSchema) Validate() error {
	if len(s.Columns) == 0 {
		return &SchemaError{Table: s.Table, Reason: "no columns"}
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return &SchemaError{Table: s.Table, Reason: "empty column name"}
		}
		if seen[c.Name] {
			return &SchemaError{Table: s.Table, Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seen[c.Name] = true
	}
	return nil
}

// Catalog is the database surface a load needs. Implementations live in
// internal/warehouse, one per dialect. A Catalog holds one connection
// lifetime and is released with Close.
type Catalog interface {
	// Dialect names the backend, e.g. "mysql" or "postgresql".
	Dialect() string

	HasTable(ctx context.Context, table string) (bool, error)

	// Columns lists the table's columns in declared order.
	Columns(ctx context.Context, table string) (TableSchema, error)

	CreateTable(ctx context.Context, schema TableSchema) error

	// Truncate removes all rows while preserving the schema. Referential
	// integrity checks are disabled for the duration of the statement and
	// re-enabled afterwards.
	Truncate(ctx context.Context, table string) error

	// Append inserts every row of ds, whose columns must match the table.
	Append(ctx context.Context, table string, ds *Dataset) (int64, error)

	Close() error
}

// Opener acquires a Catalog for one load.
type Opener func(ctx context.Context) (Catalog, error)

// LoadPhase indicates the current stage of a load.
type LoadPhase string

const (
	PhaseStarting    LoadPhase = "starting"
	PhaseReading     LoadPhase = "reading"
	PhaseCreating    LoadPhase = "creating"
	PhaseTruncating  LoadPhase = "truncating"
	PhaseReconciling LoadPhase = "reconciling"
	PhaseInserting   LoadPhase = "inserting"
	PhaseComplete    LoadPhase = "complete"
	PhaseFailed      LoadPhase = "failed"
)

// LoadRequest identifies one file-to-table load.
type LoadRequest struct {
	Key         string // Mapping key, for logging
	FileName    string
	TableName   string
	WipeAndLoad bool
}

// LoadResult contains the outcome of a load.
type LoadResult struct {
	RunID        string               `json:"runId"`
	Key          string               `json:"key,omitempty"`
	Table        string               `json:"table"`
	FileName     string               `json:"fileName"`
	Encoding     string               `json:"encoding"`
	Phase        LoadPhase            `json:"phase"`
	Created      bool                 `json:"created"`
	Truncated    bool                 `json:"truncated"`
	RowsRead     int                  `json:"rowsRead"`
	InvalidBytes int64                `json:"invalidBytes,omitempty"` // Read as '?' under the fallback encoding
	Inserted     int64                `json:"inserted"`
	Warnings     []PartialDataWarning `json:"warnings,omitempty"`
	Dropped      []string             `json:"droppedColumns,omitempty"`
	Duration     time.Duration        `json:"duration"`
	Error        string               `json:"error,omitempty"`
}

// IsMissing reports whether v is the missing marker: nil or a nullable
// wrapper whose value is NULL.
func IsMissing(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case pgtype.Text:
		return !t.Valid
	case pgtype.Int8:
		return !t.Valid
	case pgtype.Float8:
		return !t.Valid
	case pgtype.Bool:
		return !t.Valid
	case pgtype.Date:
		return !t.Valid
	case pgtype.Timestamp:
		return !t.Valid
	case driver.Valuer:
		dv, err := t.Value()
		return err != nil || dv == nil
	default:
		return false
	}
}

// Missing returns the missing marker for a column of kind k.
func Missing(k Kind) any {
	switch k {
	case KindInteger:
		return pgtype.Int8{}
	case KindFloat:
		return pgtype.Float8{}
	case KindBoolean:
		return pgtype.Bool{}
	default:
		return pgtype.Text{}
	}
}

// MissingColumn builds a column of n missing markers.
func MissingColumn(name string, t ColumnType, n int) Column {
	values := make([]any, n)
	for i := range values {
		values[i] = Missing(t.Kind)
	}
	return Column{Name: name, Type: t, Values: values}
}
