package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/logging"
)

func init() {
	register(KindPgx, openPgx)
}

// pgxDialect shares the Postgres catalog queries and DDL types; only
// quoting comes from pgx.
var pgxDialect = func() dialect {
	d := postgresDialect
	d.quote = func(id string) string { return pgx.Identifier{id}.Sanitize() }
	return d
}()

// pgxCatalog implements core.Catalog over a pgx pool and appends with
// COPY FROM.
type pgxCatalog struct {
	pool *pgxpool.Pool
}

func openPgx(ctx context.Context, cfg config.DatabaseConfig, opts Options) (core.Catalog, error) {
	poolCfg, err := pgxpool.ParseConfig(postgresDSN(cfg))
	if err != nil {
		return nil, &core.ConfigurationError{Reason: "parse postgres connection string", Err: err}
	}
	poolCfg.MaxConns = int32(opts.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgresql: %w", err)
	}
	return &pgxCatalog{pool: pool}, nil
}

func (c *pgxCatalog) Dialect() string { return pgxDialect.name }

func (c *pgxCatalog) HasTable(ctx context.Context, table string) (bool, error) {
	var n int
	if err := c.pool.QueryRow(ctx, pgxDialect.hasTableSQL, table).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *pgxCatalog) Columns(ctx context.Context, table string) (core.TableSchema, error) {
	rows, err := c.pool.Query(ctx, pgxDialect.columnsSQL, table)
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

func (c *pgxCatalog) CreateTable(ctx context.Context, schema core.TableSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	_, err := c.pool.Exec(ctx, buildCreateSQL(pgxDialect, schema))
	return err
}

func (c *pgxCatalog) Truncate(ctx context.Context, table string) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, postgresReplicaRole); err != nil {
		return fmt.Errorf("disable foreign key checks: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM "+pgxDialect.quote(table)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Append streams ds with COPY FROM in one transaction.
func (c *pgxCatalog) Append(ctx context.Context, table string, ds *core.Dataset) (int64, error) {
	if ds.Rows() == 0 {
		return 0, nil
	}
	if err := ds.Validate(); err != nil {
		return 0, err
	}

	rows, err := datasetRows(ds, pgxValue)
	if err != nil {
		return 0, err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, ds.Names(), pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	logging.WithFields(ctx, "table", table).Debug("copied rows", "rows", n)
	return n, nil
}

func (c *pgxCatalog) Close() error {
	c.pool.Close()
	return nil
}
