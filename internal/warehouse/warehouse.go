// Package warehouse implements core.Catalog for each supported database.
//
// Backends register a factory under a kind. Open resolves the kind from
// DB_DIALECT and DB_DRIVER:
//
//	mysql, mariadb            -> mysql   (go-sql-driver/mysql)
//	postgresql + pq/psycopg2  -> pq      (lib/pq)
//	postgresql + anything else -> pgx    (pgx/v5 pool, COPY for appends)
//	sqlite                    -> sqlite  (modernc.org/sqlite)
//	mssql, sqlserver          -> mssql   (microsoft/go-mssqldb)
package warehouse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
)

// Backend kinds.
const (
	KindMySQL  = "mysql"
	KindPgx    = "pgx"
	KindPq     = "pq"
	KindSQLite = "sqlite"
	KindMSSQL  = "mssql"
)

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 1000

// Options tunes a backend.
type Options struct {
	// BatchSize caps rows per INSERT; backends lower it further to stay
	// under their bind parameter limit.
	BatchSize int

	// MaxConns caps open connections.
	MaxConns int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxConns <= 0 {
		o.MaxConns = 4
	}
	return o
}

type factory func(ctx context.Context, cfg config.DatabaseConfig, opts Options) (core.Catalog, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// register makes a backend available under kind. Registering a kind twice
// panics.
func register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("warehouse: register called with empty kind")
	}
	if f == nil {
		panic("warehouse: register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("warehouse: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// pqDrivers are DB_DRIVER values served by lib/pq rather than pgx.
var pqDrivers = map[string]bool{
	"pq":       true,
	"lib/pq":   true,
	"psycopg2": true,
	"pg8000":   true,
}

// KindFor resolves the backend kind for cfg.
func KindFor(cfg config.DatabaseConfig) (string, error) {
	switch cfg.CanonicalDialect() {
	case config.DialectMySQL:
		return KindMySQL, nil
	case config.DialectPostgres:
		if pqDrivers[strings.ToLower(cfg.Driver)] {
			return KindPq, nil
		}
		return KindPgx, nil
	case config.DialectSQLite:
		return KindSQLite, nil
	case config.DialectMSSQL:
		return KindMSSQL, nil
	}
	return "", &core.ConfigurationError{Reason: fmt.Sprintf("unsupported DB_DIALECT %q", cfg.Dialect)}
}

// Open connects to the database described by cfg and verifies the
// connection.
func Open(ctx context.Context, cfg config.DatabaseConfig, opts Options) (core.Catalog, error) {
	kind, err := KindFor(cfg)
	if err != nil {
		return nil, err
	}

	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, &core.ConfigurationError{Reason: fmt.Sprintf("no backend registered for %q", kind)}
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	return f(ctx, cfg, opts.withDefaults())
}

// NewOpener returns a core.Opener that opens a fresh catalog for every
// load.
func NewOpener(cfg config.DatabaseConfig, opts Options) core.Opener {
	return func(ctx context.Context) (core.Catalog, error) {
		return Open(ctx, cfg, opts)
	}
}
