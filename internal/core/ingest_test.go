package core

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestReadDataset(t *testing.T) {
	path := writeFile(t, "people.csv", []byte("id,name,joined\n1,Alice,01/05/2023\n2,Bob,2023-05-02\n"))

	in, err := ReadDataset(context.Background(), path, IngestOptions{})
	if err != nil {
		t.Fatalf("ReadDataset failed: %v", err)
	}

	ds := in.Dataset
	if got := ds.Names(); !reflect.DeepEqual(got, []string{"id", "name", "joined"}) {
		t.Errorf("Names = %v", got)
	}
	if ds.Rows() != 2 {
		t.Errorf("Rows = %d, want 2", ds.Rows())
	}
	if got := ds.Row(1); !reflect.DeepEqual(got, []any{
		pgtype.Text{String: "2", Valid: true},
		pgtype.Text{String: "Bob", Valid: true},
		pgtype.Text{String: "2023-05-02", Valid: true},
	}) {
		t.Errorf("Row(1) = %v", got)
	}
	if in.Encoding.Name != "UTF-8" {
		t.Errorf("Encoding = %q, want UTF-8", in.Encoding.Name)
	}
	if in.BytesRead == 0 {
		t.Error("BytesRead should be > 0")
	}
}

func TestReadDataset_NormalizesNBSP(t *testing.T) {
	path := writeFile(t, "cities.csv", []byte("id,city\n1,  \u00a0New York\u00a0 \n"))

	in, err := ReadDataset(context.Background(), path, IngestOptions{})
	if err != nil {
		t.Fatalf("ReadDataset failed: %v", err)
	}

	city := columnNamed(t, in.Dataset, "city")
	if got := city.Values[0]; got != (pgtype.Text{String: "New York", Valid: true}) {
		t.Errorf("city = %#v, want New York", got)
	}
}

func TestReadDataset_Latin1(t *testing.T) {
	text := "id,name\n"
	for i := 0; i < 30; i++ {
		text += "1,Le café était fermé et le propriétaire était très âgé\n"
	}
	data, err := charmap.Windows1252.NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := writeFile(t, "latin1.csv", data)

	in, err := ReadDataset(context.Background(), path, IngestOptions{})
	if err != nil {
		t.Fatalf("ReadDataset failed: %v", err)
	}

	name := columnNamed(t, in.Dataset, "name")
	want := "Le café était fermé et le propriétaire était très âgé"
	if got := name.Values[0].(pgtype.Text).String; got != want {
		t.Errorf("name = %q, want %q", got, want)
	}
}

func TestReadDataset_InvalidBytesAfterSample(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,name\n")
	for b.Len() < 12000 {
		b.WriteString("1,plain ascii text\n")
	}
	data := append([]byte(b.String()), []byte("2,Caf\xe9\n")...)
	path := writeFile(t, "mixed.csv", data)

	_, err := ReadDataset(context.Background(), path, IngestOptions{})

	var ie *InputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InputError, got %v", err)
	}
	if !strings.Contains(ie.Reason, "not valid UTF-8") {
		t.Errorf("Reason = %q, want mention of invalid UTF-8", ie.Reason)
	}
	if got := MapError(err).Code; got != "IN002" {
		t.Errorf("MapError code = %s, want IN002", got)
	}
}

func TestReadDataset_CleanFileHasNoInvalidBytes(t *testing.T) {
	path := writeFile(t, "clean.csv", []byte("id,name\n1,Caf\u00e9\n"))

	in, err := ReadDataset(context.Background(), path, IngestOptions{})
	if err != nil {
		t.Fatalf("ReadDataset failed: %v", err)
	}
	if in.InvalidBytes != 0 {
		t.Errorf("InvalidBytes = %d, want 0", in.InvalidBytes)
	}
}

func TestReadDataset_ShapeHandling(t *testing.T) {
	t.Run("short rows padded and blank lines skipped", func(t *testing.T) {
		path := writeFile(t, "short.csv", []byte("a,b,c\n1,2\n\n   \n4,5,6\n"))

		in, err := ReadDataset(context.Background(), path, IngestOptions{})
		if err != nil {
			t.Fatalf("ReadDataset failed: %v", err)
		}
		if in.Dataset.Rows() != 2 {
			t.Fatalf("Rows = %d, want 2", in.Dataset.Rows())
		}
		c := columnNamed(t, in.Dataset, "c")
		if !IsMissing(c.Values[0]) {
			t.Errorf("c[0] = %v, want missing", c.Values[0])
		}
	})

	t.Run("long row is an input error", func(t *testing.T) {
		path := writeFile(t, "long.csv", []byte("a,b\n1,2\n1,2,3\n"))

		_, err := ReadDataset(context.Background(), path, IngestOptions{})
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("expected *InputError, got %v", err)
		}
		if ie.Line != 3 {
			t.Errorf("Line = %d, want 3", ie.Line)
		}
	})

	t.Run("semicolon delimiter", func(t *testing.T) {
		path := writeFile(t, "semi.csv", []byte("a;b\n1;2\n"))

		in, err := ReadDataset(context.Background(), path, IngestOptions{Delimiter: ';'})
		if err != nil {
			t.Fatalf("ReadDataset failed: %v", err)
		}
		if got := in.Dataset.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Errorf("Names = %v", got)
		}
	})
}

func TestReadDataset_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadDataset(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), IngestOptions{})
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("expected *InputError, got %v", err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("error should wrap fs.ErrNotExist: %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, "empty.csv", nil)
		_, err := ReadDataset(context.Background(), path, IngestOptions{})
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("expected *InputError, got %v", err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		_, err := ReadDataset(context.Background(), t.TempDir(), IngestOptions{})
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("expected *InputError, got %v", err)
		}
	})
}

func TestHeaderNames(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{"unchanged", []string{"id", "name"}, []string{"id", "name"}},
		{"trimmed", []string{" id ", "\u00a0name"}, []string{"id", "name"}},
		{"bom stripped", []string{"\ufeffid", "name"}, []string{"id", "name"}},
		{"blank named by index", []string{"id", "", "x"}, []string{"id", "Unnamed: 1", "x"}},
		{"duplicates suffixed", []string{"id", "id", "id"}, []string{"id", "id.1", "id.2"}},
		{"suffix collision", []string{"a", "a.1", "a"}, []string{"a", "a.1", "a.2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeaderNames(tt.header); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HeaderNames(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
