package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
)

func init() {
	register(KindSQLite, func(ctx context.Context, cfg config.DatabaseConfig, opts Options) (core.Catalog, error) {
		// One writer at a time; PRAGMA foreign_keys is per connection.
		opts.MaxConns = 1
		return openSQL(ctx, sqliteDialect, sqliteDSN(cfg), opts)
	})
}

// SQLite stores DATETIME with text affinity, so dates stay YYYY-MM-DD.
var sqliteDialect = dialect{
	name:        "sqlite",
	driver:      "sqlite",
	quote:       doubleQuote,
	placeholder: questionPlaceholder,
	maxParams:   32766,
	typeName:    sqliteType,
	datesAsText: true,
	hasTableSQL: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE`,
	columnsSQL:  `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`,
	truncate:    sqliteTruncate,
}

func sqliteType(t core.ColumnType) string {
	switch t.Kind {
	case core.KindInteger:
		return "INTEGER"
	case core.KindFloat:
		return "REAL"
	case core.KindBoolean:
		return "BOOLEAN"
	case core.KindDateTime:
		return "DATETIME"
	default:
		return fmt.Sprintf("VARCHAR(%d)", textLength(t))
	}
}

// sqliteTruncate deletes every row with foreign key enforcement off. The
// pragma is a no-op inside a transaction, so it runs on a pinned
// connection in autocommit mode.
func sqliteTruncate(ctx context.Context, db *sql.DB, d dialect, table string) (err error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign key checks: %w", err)
	}
	defer func() {
		if _, rerr := conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); rerr != nil && err == nil {
			err = fmt.Errorf("re-enable foreign key checks: %w", rerr)
		}
	}()

	_, err = conn.ExecContext(ctx, "DELETE FROM "+d.quote(table))
	return err
}
