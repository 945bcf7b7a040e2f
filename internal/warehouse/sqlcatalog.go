package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/logging"
)

// sqlCatalog is the database/sql implementation of core.Catalog shared by
// the mysql, pq, sqlite and mssql backends.
type sqlCatalog struct {
	db        *sql.DB
	d         dialect
	batchSize int
}

func openSQL(ctx context.Context, d dialect, dsn string, opts Options) (*sqlCatalog, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}
	return &sqlCatalog{db: db, d: d, batchSize: opts.BatchSize}, nil
}

func (c *sqlCatalog) Dialect() string { return c.d.name }

func (c *sqlCatalog) HasTable(ctx context.Context, table string) (bool, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, c.d.hasTableSQL, table).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *sqlCatalog) Columns(ctx context.Context, table string) (core.TableSchema, error) {
	rows, err := c.db.QueryContext(ctx, c.d.columnsSQL, table)
	if err != nil {
		return core.TableSchema{}, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	schema := core.TableSchema{Table: table}
	for rows.Next() {
		var name, declared string
		if err := rows.Scan(&name, &declared); err != nil {
			return core.TableSchema{}, fmt.Errorf("scan column: %w", err)
		}
		schema.Columns = append(schema.Columns, core.ColumnDef{
			Name: name,
			Type: core.DeclaredColumnType(declared),
		})
	}
	return schema, rows.Err()
}

func (c *sqlCatalog) CreateTable(ctx context.Context, schema core.TableSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, buildCreateSQL(c.d, schema))
	return err
}

func (c *sqlCatalog) Truncate(ctx context.Context, table string) error {
	return c.d.truncate(ctx, c.db, c.d, table)
}

// Append inserts ds in batches inside one transaction, so a failed load
// leaves the table as it was.
func (c *sqlCatalog) Append(ctx context.Context, table string, ds *core.Dataset) (int64, error) {
	if ds.Rows() == 0 {
		return 0, nil
	}
	if err := ds.Validate(); err != nil {
		return 0, err
	}

	rows, err := datasetRows(ds, func(v any, t core.ColumnType) (any, error) {
		return sqlValue(v, t, c.d.datesAsText)
	})
	if err != nil {
		return 0, err
	}
	columns := ds.Names()
	step := c.d.batchRows(len(columns), c.batchSize)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	logger := logging.WithFields(ctx, "table", table, "dialect", c.d.name)

	var inserted int64
	for start := 0; start < len(rows); start += step {
		end := min(start+step, len(rows))
		query, args := buildInsertSQL(c.d, table, columns, rows[start:end])
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert rows %d-%d: %w", start+1, end, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		} else {
			inserted += int64(end - start)
		}
		logger.Debug("inserted batch", "from", start+1, "to", end)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (c *sqlCatalog) Close() error {
	return c.db.Close()
}
