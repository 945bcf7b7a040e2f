package warehouse

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
)

func init() {
	register(KindMySQL, func(ctx context.Context, cfg config.DatabaseConfig, opts Options) (core.Catalog, error) {
		return openSQL(ctx, mysqlDialect, mysqlDSN(cfg), opts)
	})
}

var mysqlDialect = dialect{
	name:        "mysql",
	driver:      "mysql",
	quote:       backtick,
	placeholder: questionPlaceholder,
	maxParams:   65535,
	typeName:    mysqlType,
	hasTableSQL: `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`,
	columnsSQL: `SELECT column_name, column_type FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`,
	truncate: mysqlTruncate,
}

func backtick(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

func mysqlType(t core.ColumnType) string {
	switch t.Kind {
	case core.KindInteger:
		return "BIGINT"
	case core.KindFloat:
		return "DOUBLE"
	case core.KindBoolean:
		return "BOOLEAN"
	case core.KindDateTime:
		return "DATETIME"
	default:
		return fmt.Sprintf("VARCHAR(%d)", textLength(t))
	}
}

// mysqlTruncate runs TRUNCATE with FOREIGN_KEY_CHECKS off. The setting is
// per session, so every statement runs on one pinned connection. If the
// checks cannot be switched back on, the connection is discarded rather
// than returned to the pool.
func mysqlTruncate(ctx context.Context, db *sql.DB, d dialect, table string) (err error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err != nil {
		return fmt.Errorf("disable foreign key checks: %w", err)
	}
	defer func() {
		_, rerr := conn.ExecContext(context.WithoutCancel(ctx), "SET FOREIGN_KEY_CHECKS = 1")
		if rerr != nil {
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
			if err == nil {
				err = fmt.Errorf("re-enable foreign key checks: %w", rerr)
			}
		}
	}()

	_, err = conn.ExecContext(ctx, "TRUNCATE TABLE "+d.quote(table))
	return err
}
