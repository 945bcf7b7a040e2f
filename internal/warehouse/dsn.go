package warehouse

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/JonMunkholm/csvload/internal/config"
)

// DSN renders the native connection string for the backend serving cfg.
// It is distinct from config.DatabaseConfig.ConnectionString, which keeps
// the dialect+driver URL form.
func DSN(cfg config.DatabaseConfig) (string, error) {
	kind, err := KindFor(cfg)
	if err != nil {
		return "", err
	}

	switch kind {
	case KindMySQL:
		return mysqlDSN(cfg), nil
	case KindPgx, KindPq:
		return postgresDSN(cfg), nil
	case KindSQLite:
		return sqliteDSN(cfg), nil
	case KindMSSQL:
		return mssqlDSN(cfg), nil
	}
	return "", fmt.Errorf("no DSN format for %q", kind)
}

func hostPort(cfg config.DatabaseConfig) string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = hostPort(cfg)
	mc.DBName = cfg.Name
	mc.Timeout = cfg.ConnectTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// postgresDSN is a URL understood by both pgx and lib/pq.
func postgresDSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   hostPort(cfg),
		Path:   "/" + cfg.Name,
	}
	if secs := int(cfg.ConnectTimeout.Seconds()); secs > 0 {
		q := url.Values{}
		q.Set("connect_timeout", strconv.Itoa(secs))
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// sqliteDSN treats DB_NAME as a file path, or ":memory:". Foreign keys are
// enforced on every connection so Truncate has something to toggle.
func sqliteDSN(cfg config.DatabaseConfig) string {
	name := cfg.Name
	if name == "" {
		name = ":memory:"
	}
	sep := "?"
	if strings.Contains(name, "?") {
		sep = "&"
	}
	return name + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func mssqlDSN(cfg config.DatabaseConfig) string {
	q := url.Values{}
	q.Set("database", cfg.Name)
	if secs := int(cfg.ConnectTimeout.Seconds()); secs > 0 {
		q.Set("connection timeout", strconv.Itoa(secs))
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     hostPort(cfg),
		RawQuery: q.Encode(),
	}
	return u.String()
}
