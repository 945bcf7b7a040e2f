package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
)

func init() {
	register(KindMSSQL, func(ctx context.Context, cfg config.DatabaseConfig, opts Options) (core.Catalog, error) {
		return openSQL(ctx, mssqlDialect, mssqlDSN(cfg), opts)
	})
}

var mssqlDialect = dialect{
	name:        "mssql",
	driver:      "sqlserver",
	quote:       bracket,
	placeholder: atPlaceholder,
	maxParams:   2000,
	maxRows:     1000,
	typeName:    mssqlType,
	hasTableSQL: `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1`,
	columnsSQL: `SELECT COLUMN_NAME,
		CASE WHEN CHARACTER_MAXIMUM_LENGTH IS NULL OR CHARACTER_MAXIMUM_LENGTH < 0 THEN DATA_TYPE
		     ELSE DATA_TYPE + '(' + CAST(CHARACTER_MAXIMUM_LENGTH AS varchar(10)) + ')' END
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1
		ORDER BY ORDINAL_POSITION`,
	truncate: mssqlTruncate,
}

func bracket(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func mssqlType(t core.ColumnType) string {
	switch t.Kind {
	case core.KindInteger:
		return "BIGINT"
	case core.KindFloat:
		return "FLOAT"
	case core.KindBoolean:
		return "BIT"
	case core.KindDateTime:
		return "DATETIME2"
	default:
		return fmt.Sprintf("NVARCHAR(%d)", textLength(t))
	}
}

type foreignKey struct {
	schema, table, name string
}

// mssqlTruncate disables the enabled foreign keys that reference table,
// deletes its rows and re-enables them without revalidation, all in one
// transaction.
func mssqlTruncate(ctx context.Context, db *sql.DB, d dialect, table string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT OBJECT_SCHEMA_NAME(fk.parent_object_id), OBJECT_NAME(fk.parent_object_id), fk.name
		FROM sys.foreign_keys fk
		WHERE fk.referenced_object_id = OBJECT_ID(@p1) AND fk.is_disabled = 0`, table)
	if err != nil {
		return fmt.Errorf("list referencing foreign keys: %w", err)
	}
	var fks []foreignKey
	for rows.Next() {
		var fk foreignKey
		if err := rows.Scan(&fk.schema, &fk.table, &fk.name); err != nil {
			rows.Close()
			return err
		}
		fks = append(fks, fk)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fk := range fks {
		stmt := fmt.Sprintf("ALTER TABLE %s.%s NOCHECK CONSTRAINT %s", d.quote(fk.schema), d.quote(fk.table), d.quote(fk.name))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("disable foreign key %s: %w", fk.name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+d.quote(table)); err != nil {
		return err
	}

	for _, fk := range fks {
		stmt := fmt.Sprintf("ALTER TABLE %s.%s CHECK CONSTRAINT %s", d.quote(fk.schema), d.quote(fk.table), d.quote(fk.name))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("re-enable foreign key %s: %w", fk.name, err)
		}
	}

	return tx.Commit()
}
