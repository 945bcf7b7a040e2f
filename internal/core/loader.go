package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvload/internal/logging"
)

// DefaultLoadTimeout is the maximum duration for one load.
const DefaultLoadTimeout = 10 * time.Minute

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	Ingest  IngestOptions
	Infer   InferOptions
	Timeout time.Duration // 0 uses DefaultLoadTimeout
}

// Loader runs file-to-table loads. Each call to Load opens its own Catalog
// and closes it before returning.
type Loader struct {
	open Opener
	opts LoaderOptions
}

// NewLoader creates a Loader that acquires catalogs from open.
func NewLoader(open Opener, opts LoaderOptions) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultLoadTimeout
	}
	return &Loader{open: open, opts: opts}
}

// Load reads req.FileName and writes its rows into req.TableName.
//
// When the table does not exist it is created from the inferred schema.
// When it exists and req.WipeAndLoad is set, its rows are removed first;
// otherwise rows are appended. In every case the data is reconciled with
// the table's columns before insert.
//
// The returned LoadResult is non-nil even on failure and records the phase
// the load reached. Nothing is rolled back: a failure after CreateTable
// leaves the new table empty.
func (l *Loader) Load(ctx context.Context, req LoadRequest) (*LoadResult, error) {
	start := time.Now()
	result := &LoadResult{
		RunID:    uuid.New().String(),
		Key:      req.Key,
		Table:    req.TableName,
		FileName: req.FileName,
		Phase:    PhaseStarting,
	}

	ctx = logging.ContextWithRunID(ctx, result.RunID)
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	logger := logging.WithFields(ctx, "table", req.TableName, "file", req.FileName)
	logger.Info("load started", "key", req.Key, "wipe_and_load", req.WipeAndLoad)

	err := l.run(ctx, req, result)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		logger.Error("load failed",
			"phase", result.Phase,
			"error", err,
			"duration_ms", result.Duration.Milliseconds(),
		)
		result.Phase = PhaseFailed
		return result, err
	}

	result.Phase = PhaseComplete
	logger.Info("load completed",
		"created", result.Created,
		"truncated", result.Truncated,
		"rows_read", result.RowsRead,
		"inserted", result.Inserted,
		"warnings", len(result.Warnings),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (l *Loader) run(ctx context.Context, req LoadRequest, result *LoadResult) error {
	if strings.TrimSpace(req.TableName) == "" {
		return &ConfigurationError{Key: req.Key, Reason: "table_name is required"}
	}
	if strings.TrimSpace(req.FileName) == "" {
		return &ConfigurationError{Key: req.Key, Reason: "file_name is required"}
	}

	logger := logging.WithFields(ctx, "table", req.TableName)

	result.Phase = PhaseReading
	in, err := ReadDataset(ctx, req.FileName, l.opts.Ingest)
	if err != nil {
		return err
	}
	result.Encoding = in.Encoding.Name
	result.RowsRead = in.Dataset.Rows()
	result.InvalidBytes = in.InvalidBytes

	catalog, err := l.open(ctx)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if cerr := catalog.Close(); cerr != nil {
			logger.Warn("close database", "error", cerr)
		}
	}()

	exists, err := catalog.HasTable(ctx, req.TableName)
	if err != nil {
		return fmt.Errorf("check table %s: %w", req.TableName, err)
	}

	var schema TableSchema
	switch {
	case !exists:
		result.Phase = PhaseCreating
		schema = InferSchema(req.TableName, in.Dataset, l.opts.Infer)
		logger.Info("creating table", "columns", describeSchema(schema))
		if err := catalog.CreateTable(ctx, schema); err != nil {
			return fmt.Errorf("create table %s: %w", req.TableName, err)
		}
		result.Created = true

	default:
		if req.WipeAndLoad {
			result.Phase = PhaseTruncating
			logger.Info("truncating table")
			if err := catalog.Truncate(ctx, req.TableName); err != nil {
				return fmt.Errorf("truncate table %s: %w", req.TableName, err)
			}
			result.Truncated = true
		}
		schema, err = catalog.Columns(ctx, req.TableName)
		if err != nil {
			return fmt.Errorf("read columns of %s: %w", req.TableName, err)
		}
		if len(schema.Columns) == 0 {
			return &SchemaError{Table: req.TableName, Reason: "table has no columns"}
		}
	}

	result.Phase = PhaseReconciling
	rec, err := Reconcile(in.Dataset, schema)
	if err != nil {
		return err
	}
	for _, w := range rec.Warnings {
		logger.Warn("column missing in source, filling with NULL", "column", w.Column, "rows", w.Rows)
	}
	for col, n := range rec.UnparsedDates {
		logger.Warn("unparseable dates stored as NULL", "column", col, "count", n)
	}
	if len(rec.Dropped) > 0 {
		logger.Debug("dropping columns not in table", "columns", rec.Dropped)
	}
	result.Warnings = rec.Warnings
	result.Dropped = rec.Dropped

	result.Phase = PhaseInserting
	inserted, err := catalog.Append(ctx, req.TableName, rec.Dataset)
	result.Inserted = inserted
	if err != nil {
		return fmt.Errorf("insert into %s: %w", req.TableName, err)
	}
	return nil
}

func describeSchema(s TableSchema) string {
	parts := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		parts[i] = c.Name + " " + c.Type.String()
	}
	return strings.Join(parts, ", ")
}
