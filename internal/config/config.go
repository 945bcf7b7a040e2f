// Package config provides centralized configuration management for csvload.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
//
// A local .env file is read by the command entry point before Load runs;
// variables already present in the environment take precedence.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Mapping  MappingConfig
	Ingest   IngestConfig
	Load     LoadConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`

	// Host is the database server host (default: localhost)
	Host string `env:"DB_HOST" default:"localhost"`

	// Port is the database server port (default: 3306)
	Port int `env:"DB_PORT" default:"3306"`

	// Name is the database name, or the file path for sqlite
	Name string `env:"DB_NAME" envAlt:"DB_DATABASE"`

	// Dialect selects the backend: mysql, mariadb, postgresql, sqlite or mssql
	Dialect string `env:"DB_DIALECT" required:"true"`

	// Driver names the client driver, e.g. pymysql, psycopg2, pgx, pq.
	// Empty picks the dialect's default driver.
	Driver string `env:"DB_DRIVER"`

	// MaxConns caps open connections per load (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// ConnectTimeout bounds connection establishment (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// MappingConfig locates the mapping file.
type MappingConfig struct {
	// File is the JSON or YAML mapping path (default: resources/mappings/mapping.json)
	File string `env:"MAPPING_FILE" default:"resources/mappings/mapping.json"`
}

// IngestConfig holds source file parsing settings.
type IngestConfig struct {
	// SampleBytes is the leading sample size for encoding detection (default: 10000)
	SampleBytes int `env:"INGEST_SAMPLE_BYTES" default:"10000"`

	// FallbackEncoding is used when detection is indeterminate (default: UTF-8)
	FallbackEncoding string `env:"INGEST_FALLBACK_ENCODING" default:"UTF-8"`

	// Delimiter is the single-character field separator (default: ,)
	Delimiter string `env:"INGEST_DELIMITER" default:","`

	// MaxTextLength is the ceiling for inferred VARCHAR lengths (default: 1000)
	MaxTextLength int `env:"INGEST_MAX_TEXT_LENGTH" default:"1000"`
}

// LoadConfig holds load execution settings.
type LoadConfig struct {
	// BatchSize is the number of rows per INSERT statement (default: 1000)
	BatchSize int `env:"LOAD_BATCH_SIZE" default:"1000"`

	// Timeout is the maximum duration of one load (default: 10m)
	Timeout time.Duration `env:"LOAD_TIMEOUT" default:"10m"`

	// MaxConcurrent is the maximum number of parallel HTTP-triggered loads (default: 2)
	MaxConcurrent int `env:"LOAD_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long an HTTP-triggered load waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"LOAD_MAX_WAIT_TIME" default:"30s"`
}

// ServerConfig holds settings for the HTTP trigger (csvload serve).
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout must cover a whole load (default: 15m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"15m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// TrustedProxies lists CIDRs whose X-Real-IP and X-Forwarded-For
	// headers are honored (comma-separated)
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`

	// RequireAPIKey rejects requests without a valid X-API-Key header (default: false)
	RequireAPIKey bool `env:"SERVER_REQUIRE_API_KEY" default:"false"`

	// APIKeys lists the accepted keys (comma-separated)
	APIKeys []string `env:"SERVER_API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
