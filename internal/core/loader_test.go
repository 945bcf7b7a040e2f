package core

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

// memCatalog is an in-memory Catalog recording the calls a load makes.
type memCatalog struct {
	schemas map[string]TableSchema
	rows    map[string][][]any
	calls   []string
	closed  bool
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		schemas: make(map[string]TableSchema),
		rows:    make(map[string][][]any),
	}
}

func (m *memCatalog) Dialect() string { return "memory" }

func (m *memCatalog) HasTable(_ context.Context, table string) (bool, error) {
	_, ok := m.schemas[table]
	return ok, nil
}

func (m *memCatalog) Columns(_ context.Context, table string) (TableSchema, error) {
	m.calls = append(m.calls, "columns")
	return m.schemas[table], nil
}

func (m *memCatalog) CreateTable(_ context.Context, schema TableSchema) error {
	m.calls = append(m.calls, "create")
	m.schemas[schema.Table] = schema
	return nil
}

func (m *memCatalog) Truncate(_ context.Context, table string) error {
	m.calls = append(m.calls, "truncate")
	m.rows[table] = nil
	return nil
}

func (m *memCatalog) Append(_ context.Context, table string, ds *Dataset) (int64, error) {
	m.calls = append(m.calls, "append")
	for i := 0; i < ds.Rows(); i++ {
		m.rows[table] = append(m.rows[table], ds.Row(i))
	}
	return int64(ds.Rows()), nil
}

func (m *memCatalog) Close() error {
	m.closed = true
	return nil
}

func (m *memCatalog) opener() Opener {
	return func(context.Context) (Catalog, error) { return m, nil }
}

func TestLoader_CreatesTable(t *testing.T) {
	path := writeFile(t, "people.csv", []byte("id,name,joined\n1,Alice,01/05/2023\n2,Bob,2023-05-02\n"))
	cat := newMemCatalog()

	res, err := NewLoader(cat.opener(), LoaderOptions{}).Load(context.Background(), LoadRequest{
		Key: "people", FileName: path, TableName: "people",
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !res.Created || res.Truncated || res.Inserted != 2 || res.Phase != PhaseComplete {
		t.Errorf("result = %+v", res)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if !cat.closed {
		t.Error("catalog was not closed")
	}

	schema := cat.schemas["people"]
	kinds := []Kind{KindInteger, KindText, KindDateTime}
	for i, k := range kinds {
		if schema.Columns[i].Type.Kind != k {
			t.Errorf("column %s kind = %v, want %v", schema.Columns[i].Name, schema.Columns[i].Type.Kind, k)
		}
	}

	want := [][]any{
		{pgtype.Int8{Int64: 1, Valid: true}, pgtype.Text{String: "Alice", Valid: true}, pgtype.Text{String: "2023-01-05", Valid: true}},
		{pgtype.Int8{Int64: 2, Valid: true}, pgtype.Text{String: "Bob", Valid: true}, pgtype.Text{String: "2023-05-02", Valid: true}},
	}
	if !reflect.DeepEqual(cat.rows["people"], want) {
		t.Errorf("rows = %v, want %v", cat.rows["people"], want)
	}
}

func TestLoader_ExistingTable(t *testing.T) {
	tests := []struct {
		name      string
		wipe      bool
		wantCalls []string
		wantRows  int
	}{
		{"append", false, []string{"columns", "append"}, 3},
		{"wipe and load", true, []string{"truncate", "columns", "append"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "people.csv", []byte("id,name\n1,Alice\n2,Bob\n"))
			cat := newMemCatalog()
			cat.schemas["people"] = TableSchema{Table: "people", Columns: []ColumnDef{
				{Name: "id", Type: DeclaredColumnType("INTEGER")},
				{Name: "name", Type: DeclaredColumnType("VARCHAR(50)")},
				{Name: "region", Type: DeclaredColumnType("VARCHAR(20)")},
			}}
			cat.rows["people"] = [][]any{{pgtype.Int8{Int64: 9, Valid: true}, pgtype.Text{String: "Old", Valid: true}, pgtype.Text{}}}

			res, err := NewLoader(cat.opener(), LoaderOptions{}).Load(context.Background(), LoadRequest{
				FileName: path, TableName: "people", WipeAndLoad: tt.wipe,
			})
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if !reflect.DeepEqual(cat.calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", cat.calls, tt.wantCalls)
			}
			if got := len(cat.rows["people"]); got != tt.wantRows {
				t.Errorf("rows = %d, want %d", got, tt.wantRows)
			}
			if res.Truncated != tt.wipe || res.Created {
				t.Errorf("result = %+v", res)
			}
			if len(res.Warnings) != 1 || res.Warnings[0].Column != "region" {
				t.Errorf("Warnings = %+v, want region", res.Warnings)
			}
		})
	}
}

func TestLoader_Failures(t *testing.T) {
	t.Run("missing file fails before opening the database", func(t *testing.T) {
		opened := false
		open := func(context.Context) (Catalog, error) {
			opened = true
			return newMemCatalog(), nil
		}

		res, err := NewLoader(open, LoaderOptions{}).Load(context.Background(), LoadRequest{
			FileName: filepath.Join(t.TempDir(), "missing.csv"), TableName: "t",
		})

		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("expected *InputError, got %v", err)
		}
		if opened {
			t.Error("database opened for a missing file")
		}
		if res.Phase != PhaseFailed || res.Error == "" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("cast error aborts before insert", func(t *testing.T) {
		path := writeFile(t, "bad.csv", []byte("id\n1\nx\n"))
		cat := newMemCatalog()
		cat.schemas["t"] = TableSchema{Table: "t", Columns: []ColumnDef{{Name: "id", Type: DeclaredColumnType("int")}}}

		_, err := NewLoader(cat.opener(), LoaderOptions{}).Load(context.Background(), LoadRequest{
			FileName: path, TableName: "t",
		})

		var ce *CastError
		if !errors.As(err, &ce) {
			t.Fatalf("expected *CastError, got %v", err)
		}
		for _, c := range cat.calls {
			if c == "append" {
				t.Error("append called after cast error")
			}
		}
		if !cat.closed {
			t.Error("catalog was not closed")
		}
	})

	t.Run("open error", func(t *testing.T) {
		path := writeFile(t, "ok.csv", []byte("id\n1\n"))
		open := func(context.Context) (Catalog, error) { return nil, errors.New("connection refused") }

		_, err := NewLoader(open, LoaderOptions{}).Load(context.Background(), LoadRequest{
			FileName: path, TableName: "t",
		})
		if got := MapError(err).Code; got != "DB004" {
			t.Errorf("MapError code = %q, want DB004 (err %v)", got, err)
		}
	})

	t.Run("missing table name", func(t *testing.T) {
		_, err := NewLoader(newMemCatalog().opener(), LoaderOptions{}).Load(context.Background(), LoadRequest{FileName: "x.csv"})
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Fatalf("expected *ConfigurationError, got %v", err)
		}
	})
}
