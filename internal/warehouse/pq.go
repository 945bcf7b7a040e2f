package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
)

func init() {
	register(KindPq, func(ctx context.Context, cfg config.DatabaseConfig, opts Options) (core.Catalog, error) {
		return openSQL(ctx, postgresDialect, postgresDSN(cfg), opts)
	})
}

// postgresDialect serves lib/pq; the pgx backend reuses its queries and
// DDL types.
var postgresDialect = dialect{
	name:        "postgresql",
	driver:      "postgres",
	quote:       pq.QuoteIdentifier,
	placeholder: dollarPlaceholder,
	maxParams:   65535,
	typeName:    postgresType,
	hasTableSQL: `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1`,
	columnsSQL: `SELECT column_name,
		CASE WHEN character_maximum_length IS NULL THEN data_type
		     ELSE data_type || '(' || character_maximum_length || ')' END
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`,
	truncate: postgresTruncate,
}

func postgresType(t core.ColumnType) string {
	switch t.Kind {
	case core.KindInteger:
		return "BIGINT"
	case core.KindFloat:
		return "DOUBLE PRECISION"
	case core.KindBoolean:
		return "BOOLEAN"
	case core.KindDateTime:
		return "TIMESTAMP"
	default:
		return fmt.Sprintf("VARCHAR(%d)", textLength(t))
	}
}

// Postgres has no session switch for foreign key checks. Replica mode
// skips the constraint triggers for the transaction; TRUNCATE ignores it,
// so rows are removed with DELETE.
const postgresReplicaRole = "SET LOCAL session_replication_role = replica"

func postgresTruncate(ctx context.Context, db *sql.DB, d dialect, table string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, postgresReplicaRole); err != nil {
		return fmt.Errorf("disable foreign key checks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+d.quote(table)); err != nil {
		return err
	}
	return tx.Commit()
}
