package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonical dialect names.
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
	DialectMSSQL    = "mssql"
)

var dialectAliases = map[string]string{
	"mysql":      DialectMySQL,
	"mariadb":    DialectMySQL,
	"postgresql": DialectPostgres,
	"postgres":   DialectPostgres,
	"sqlite":     DialectSQLite,
	"sqlite3":    DialectSQLite,
	"mssql":      DialectMSSQL,
	"sqlserver":  DialectMSSQL,
}

// CanonicalDialect folds DB_DIALECT aliases into one of the Dialect*
// constants. It returns "" for an unknown dialect.
func (c *DatabaseConfig) CanonicalDialect() string {
	return dialectAliases[strings.ToLower(strings.TrimSpace(c.Dialect))]
}

// ConnectionString renders <dialect>+<driver>://<user>:<password>@<host>:<port>/<database>.
// The driver segment is omitted when DB_DRIVER is empty.
func (c *DatabaseConfig) ConnectionString() string {
	return c.connectionString(c.Password)
}

// Redacted is ConnectionString with the password masked, for logs.
func (c *DatabaseConfig) Redacted() string {
	if c.Password == "" {
		return c.connectionString("")
	}
	return c.connectionString("xxxxx")
}

func (c *DatabaseConfig) connectionString(password string) string {
	scheme := c.Dialect
	if c.Driver != "" {
		scheme += "+" + c.Driver
	}

	userinfo := url.UserPassword(c.User, password).String()
	return fmt.Sprintf("%s://%s@%s:%d/%s", scheme, userinfo, c.Host, c.Port, c.Name)
}

// DelimiterRune returns the configured delimiter as a rune.
func (c *IngestConfig) DelimiterRune() rune {
	switch c.Delimiter {
	case "", ",":
		return ','
	case `\t`, "tab":
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}
