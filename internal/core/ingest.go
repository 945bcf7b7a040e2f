package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/csvload/internal/logging"
)

// IngestOptions controls how a source file is sampled and parsed.
type IngestOptions struct {
	SampleBytes      int    // Leading bytes used for encoding detection
	FallbackEncoding string // Used when detection is indeterminate
	Delimiter        rune
}

// DefaultIngestOptions returns the options used when none are configured.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		SampleBytes:      DefaultSampleBytes,
		FallbackEncoding: DefaultFallbackEncoding,
		Delimiter:        ',',
	}
}

func (o IngestOptions) withDefaults() IngestOptions {
	def := DefaultIngestOptions()
	if o.SampleBytes <= 0 {
		o.SampleBytes = def.SampleBytes
	}
	if strings.TrimSpace(o.FallbackEncoding) == "" {
		o.FallbackEncoding = def.FallbackEncoding
	}
	if o.Delimiter == 0 {
		o.Delimiter = def.Delimiter
	}
	return o
}

// Ingested is a parsed source file.
type Ingested struct {
	Dataset   *Dataset
	Encoding  DetectedEncoding
	BytesRead int64

	// InvalidBytes counts bytes that were not valid in the chosen encoding
	// and were read as '?'. Only a fallback encoding tolerates them.
	InvalidBytes int64
}

// ctxCheckInterval is how many rows are parsed between cancellation checks.
const ctxCheckInterval = 10000

// ReadDataset reads the CSV file at path into a Dataset of text cells.
//
// The header row supplies column names. Every cell is normalized with
// NormalizeText; empty cells become the missing marker. A row shorter than
// the header is padded with missing markers and a longer one is an
// InputError. A missing file fails before any bytes are read.
//
// Bytes past the sample that are invalid in a confidently detected
// encoding fail the read with an InputError. Under the fallback encoding
// they are replaced with '?', logged and counted in InvalidBytes.
func ReadDataset(ctx context.Context, path string, opts IngestOptions) (*Ingested, error) {
	opts = opts.withDefaults()
	logger := logging.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &InputError{Path: path, Reason: "file not found", Err: err}
		}
		return nil, &InputError{Path: path, Reason: "cannot stat file", Err: err}
	}
	if info.IsDir() {
		return nil, &InputError{Path: path, Reason: "is a directory"}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Reason: "cannot open file", Err: err}
	}
	defer f.Close()

	sample := make([]byte, opts.SampleBytes)
	n, err := io.ReadFull(f, sample)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, &InputError{Path: path, Reason: "cannot read file", Err: err}
	}
	if n == 0 {
		return nil, &InputError{Path: path, Reason: "empty file"}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, &InputError{Path: path, Reason: "cannot rewind file", Err: err}
	}

	enc := DetectEncoding(sample[:n], opts.FallbackEncoding)
	if enc.Fallback {
		logger.Warn("encoding detection indeterminate, using fallback",
			"file", path,
			"encoding", enc.Name,
		)
	} else {
		logger.Info("detected encoding",
			"file", path,
			"encoding", enc.Name,
			"confidence", enc.Confidence,
		)
	}

	src, counter := NewSourceReader(f, enc)
	ds, err := parseCSV(ctx, src, path, opts.Delimiter)
	if err != nil {
		return nil, err
	}

	if src.Replaced > 0 {
		if !enc.Fallback {
			return nil, &InputError{
				Path:   path,
				Reason: fmt.Sprintf("%d bytes after the %d-byte detection sample are not valid %s", src.Replaced, opts.SampleBytes, enc.Name),
			}
		}
		logger.Warn("invalid bytes replaced with '?'",
			"file", path,
			"encoding", enc.Name,
			"bytes", src.Replaced,
		)
	}

	return &Ingested{
		Dataset:      ds,
		Encoding:     enc,
		BytesRead:    counter.BytesRead,
		InvalidBytes: src.Replaced,
	}, nil
}

// parseCSV reads header and rows from r.
func parseCSV(ctx context.Context, r io.Reader, path string, delimiter rune) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &InputError{Path: path, Reason: "empty file"}
	}
	if err != nil {
		return nil, csvInputError(path, err)
	}

	names := HeaderNames(header)
	ds := &Dataset{Columns: make([]Column, len(names))}
	for i, name := range names {
		ds.Columns[i] = Column{Name: name, Type: ColumnType{Kind: KindText}}
	}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvInputError(path, err)
		}

		if isBlankRecord(record) {
			continue
		}
		if len(record) > len(names) {
			line, _ := reader.FieldPos(0)
			return nil, &InputError{
				Path:   path,
				Line:   line,
				Reason: fmt.Sprintf("expected %d fields, saw %d", len(names), len(record)),
			}
		}

		for i := range ds.Columns {
			if i < len(record) {
				ds.Columns[i].Values = append(ds.Columns[i].Values, ToPgText(record[i]))
			} else {
				ds.Columns[i].Values = append(ds.Columns[i].Values, Missing(KindText))
			}
		}

		rows++
		if rows%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	return ds, nil
}

func csvInputError(path string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &InputError{Path: path, Line: pe.Line, Reason: "invalid csv", Err: pe.Err}
	}
	return &InputError{Path: path, Reason: "cannot read file", Err: err}
}

// isBlankRecord reports whether a record holds nothing but whitespace.
// encoding/csv already drops empty lines; this also drops lines of spaces.
func isBlankRecord(record []string) bool {
	return len(record) == 1 && NormalizeText(record[0]) == ""
}

// HeaderNames cleans a header row into unique column names. Blank names
// become "Unnamed: <index>" and repeats get a ".<n>" suffix, so "id,id"
// reads as "id,id.1".
func HeaderNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))

	for i, raw := range header {
		name := NormalizeText(strings.TrimPrefix(raw, "\ufeff"))
		if name == "" || !utf8.ValidString(name) {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		base := name
		for taken[name] {
			seen[base]++
			name = fmt.Sprintf("%s.%d", base, seen[base])
		}
		taken[name] = true
		names[i] = name
	}
	return names
}
