package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func declared(name, sqlType string) ColumnDef {
	return ColumnDef{Name: name, Type: DeclaredColumnType(sqlType)}
}

func TestReconcile_MissingColumnFilled(t *testing.T) {
	ds := &Dataset{Columns: []Column{
		{Name: "id", Values: texts("1", "2")},
		{Name: "name", Values: texts("Alice", "Bob")},
	}}
	schema := TableSchema{Table: "people", Columns: []ColumnDef{
		declared("id", "INTEGER"),
		declared("name", "VARCHAR(50)"),
		declared("region", "VARCHAR(20)"),
	}}

	res, err := Reconcile(ds, schema)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if got := res.Dataset.Names(); !reflect.DeepEqual(got, []string{"id", "name", "region"}) {
		t.Errorf("columns = %v, want [id name region]", got)
	}
	if err := res.Dataset.Validate(); err != nil {
		t.Errorf("output dataset invalid: %v", err)
	}

	region := columnNamed(t, res.Dataset, "region")
	if region.Len() != 2 {
		t.Fatalf("region has %d rows, want 2", region.Len())
	}
	for i, v := range region.Values {
		if !IsMissing(v) {
			t.Errorf("region[%d] = %v, want missing", i, v)
		}
	}

	id := columnNamed(t, res.Dataset, "id")
	if got := id.Values[1]; got != (pgtype.Int8{Int64: 2, Valid: true}) {
		t.Errorf("id[1] = %#v, want Int8(2)", got)
	}
	name := columnNamed(t, res.Dataset, "name")
	if got := name.Values[0]; got != (pgtype.Text{String: "Alice", Valid: true}) {
		t.Errorf("name[0] = %#v, want Text(Alice)", got)
	}

	want := []PartialDataWarning{{Table: "people", Column: "region", Rows: 2}}
	if !reflect.DeepEqual(res.Warnings, want) {
		t.Errorf("Warnings = %+v, want %+v", res.Warnings, want)
	}
}

func TestReconcile_OrderAndDroppedColumns(t *testing.T) {
	ds := &Dataset{Columns: []Column{
		{Name: "extra", Values: texts("x", "y")},
		{Name: "Name", Values: texts("Alice", "Bob")},
		{Name: "id", Values: texts("1", "2")},
	}}
	schema := TableSchema{Table: "people", Columns: []ColumnDef{
		declared("id", "bigint"),
		declared("name", "text"),
	}}

	res, err := Reconcile(ds, schema)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if got := res.Dataset.Names(); !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Errorf("columns = %v, want [id name]", got)
	}
	if !reflect.DeepEqual(res.Dropped, []string{"extra"}) {
		t.Errorf("Dropped = %v, want [extra]", res.Dropped)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
}

func TestReconcile_CastError(t *testing.T) {
	ds := &Dataset{Columns: []Column{
		{Name: "id", Values: texts("1", "two")},
	}}
	schema := TableSchema{Table: "people", Columns: []ColumnDef{declared("id", "int(11)")}}

	_, err := Reconcile(ds, schema)

	var ce *CastError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CastError, got %v", err)
	}
	if ce.Table != "people" || ce.Column != "id" || ce.Row != 2 || ce.Value != "two" {
		t.Errorf("CastError = %+v", ce)
	}
	if ce.From != KindText || ce.To != KindInteger {
		t.Errorf("CastError kinds = %v -> %v, want text -> integer", ce.From, ce.To)
	}
}

func TestReconcile_IntegerOverflowIsCastError(t *testing.T) {
	for _, value := range []string{"9223372036854775808", "-9223372036854775809", "9223372036854775807.0"} {
		t.Run(value, func(t *testing.T) {
			ds := &Dataset{Columns: []Column{
				{Name: "id", Values: texts("1", value)},
			}}
			schema := TableSchema{Table: "people", Columns: []ColumnDef{declared("id", "bigint")}}

			_, err := Reconcile(ds, schema)

			var ce *CastError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CastError, got %v", err)
			}
			if ce.Row != 2 || ce.Value != value || ce.To != KindInteger {
				t.Errorf("CastError = %+v", ce)
			}
		})
	}
}

func TestReconcile_DatesNeverFail(t *testing.T) {
	ds := &Dataset{Columns: []Column{
		{Name: "joined", Values: texts("01/05/2023", "garbage", "")},
	}}
	schema := TableSchema{Table: "people", Columns: []ColumnDef{declared("joined", "DATE")}}

	res, err := Reconcile(ds, schema)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	joined := columnNamed(t, res.Dataset, "joined")
	if got := joined.Values[0]; got != (pgtype.Text{String: "2023-01-05", Valid: true}) {
		t.Errorf("joined[0] = %#v, want 2023-01-05", got)
	}
	if !IsMissing(joined.Values[1]) || !IsMissing(joined.Values[2]) {
		t.Errorf("unparseable and blank dates should be missing")
	}
	if res.UnparsedDates["joined"] != 1 {
		t.Errorf("UnparsedDates = %v, want joined=1", res.UnparsedDates)
	}
}

func TestReconcile_BlankNumericIsNull(t *testing.T) {
	ds := &Dataset{Columns: []Column{
		{Name: "amount", Values: texts("1.5", "")},
		{Name: "active", Values: texts("", "yes")},
	}}
	schema := TableSchema{Table: "t", Columns: []ColumnDef{
		declared("amount", "double precision"),
		declared("active", "tinyint(1)"),
	}}

	res, err := Reconcile(ds, schema)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	amount := columnNamed(t, res.Dataset, "amount")
	if amount.Values[0] != (pgtype.Float8{Float64: 1.5, Valid: true}) || !IsMissing(amount.Values[1]) {
		t.Errorf("amount = %#v", amount.Values)
	}
	active := columnNamed(t, res.Dataset, "active")
	if !IsMissing(active.Values[0]) || active.Values[1] != (pgtype.Bool{Bool: true, Valid: true}) {
		t.Errorf("active = %#v", active.Values)
	}
}

func TestReconcile_InvalidSchema(t *testing.T) {
	ds := &Dataset{Columns: []Column{{Name: "id", Values: texts("1")}}}

	_, err := Reconcile(ds, TableSchema{Table: "empty"})

	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
}

func TestParseSQLType(t *testing.T) {
	tests := []struct {
		declared   string
		wantType   SQLType
		wantLength int
		wantKind   Kind
	}{
		{"VARCHAR(255)", SQLVarchar, 255, KindText},
		{"character varying(20)", SQLVarchar, 20, KindText},
		{"nvarchar(max)", SQLVarchar, 0, KindText},
		{"char(2)", SQLChar, 2, KindText},
		{"TEXT", SQLText, 0, KindText},
		{"int(11) unsigned", SQLInteger, 0, KindInteger},
		{"INTEGER", SQLInteger, 0, KindInteger},
		{"bigint", SQLBigInt, 0, KindInteger},
		{"smallint", SQLSmallInt, 0, KindInteger},
		{"tinyint(1)", SQLBoolean, 0, KindBoolean},
		{"tinyint(4)", SQLSmallInt, 0, KindInteger},
		{"bit", SQLBoolean, 0, KindBoolean},
		{"bit(8)", SQLUnknown, 0, KindText},
		{"FLOAT", SQLFloat, 0, KindFloat},
		{"double precision", SQLDouble, 0, KindFloat},
		{"real", SQLReal, 0, KindFloat},
		{"decimal(10,2)", SQLDecimal, 0, KindText},
		{"BOOLEAN", SQLBoolean, 0, KindBoolean},
		{"DATE", SQLDate, 0, KindDateTime},
		{"datetime", SQLDateTime, 0, KindDateTime},
		{"datetime2(7)", SQLDateTime, 0, KindDateTime},
		{"timestamp(6) without time zone", SQLTimestamp, 0, KindDateTime},
		{"json", SQLUnknown, 0, KindText},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			gotType, gotLength := ParseSQLType(tt.declared)
			if gotType != tt.wantType || gotLength != tt.wantLength {
				t.Errorf("ParseSQLType(%q) = %v, %d; want %v, %d", tt.declared, gotType, gotLength, tt.wantType, tt.wantLength)
			}
			if got := DeclaredColumnType(tt.declared).Kind; got != tt.wantKind {
				t.Errorf("DeclaredColumnType(%q).Kind = %v, want %v", tt.declared, got, tt.wantKind)
			}
		})
	}
}
