// Package config provides centralized configuration management for the application.
// Settings come from environment variables (optionally seeded from a .env file),
// fall back to defaults, and are validated on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Session  SessionConfig
	Preview  PreviewConfig
	Chart    ChartConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Database DatabaseConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `envconfig:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request, body included (default: 60s)
	ReadTimeout time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is the maximum duration for writing a response (default: 120s)
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"90s"`
}

// UploadConfig holds file upload and parsing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed size of one file in bytes (default: 200MB)
	MaxFileSize int64 `envconfig:"UPLOAD_MAX_FILE_SIZE" default:"209715200"`

	// MaxFiles is the maximum number of files accepted in one upload request (default: 10)
	MaxFiles int `envconfig:"UPLOAD_MAX_FILES" default:"10"`

	// MaxConcurrent is the maximum number of upload requests parsed at once (default: 5)
	MaxConcurrent int `envconfig:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `envconfig:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// ParseWorkers is how many files of one request are parsed in parallel (default: 4)
	ParseWorkers int `envconfig:"UPLOAD_PARSE_WORKERS" default:"4"`

	// Timeout is the maximum duration for a single upload request (default: 2m)
	Timeout time.Duration `envconfig:"UPLOAD_TIMEOUT" default:"2m"`
}

// SessionConfig holds settings for the in-memory workspaces.
type SessionConfig struct {
	// TTL is how long an idle session is kept before it is discarded (default: 2h)
	TTL time.Duration `envconfig:"SESSION_TTL" default:"2h"`

	// JanitorInterval is how often expired sessions are swept (default: 5m)
	JanitorInterval time.Duration `envconfig:"SESSION_JANITOR_INTERVAL" default:"5m"`

	// MaxFiles caps how many files one session may hold (default: 20)
	MaxFiles int `envconfig:"SESSION_MAX_FILES" default:"20"`

	// CookieSecure marks the session cookie Secure; enable behind TLS
	CookieSecure bool `envconfig:"SESSION_COOKIE_SECURE" default:"false"`
}

// PreviewConfig holds dataset preview settings.
type PreviewConfig struct {
	// Rows is the number of leading rows shown per file (default: 5)
	Rows int `envconfig:"PREVIEW_ROWS" default:"5"`
}

// ChartConfig holds chart rendering settings.
type ChartConfig struct {
	// MaxRows caps how many rows are plotted (default: 200)
	MaxRows int `envconfig:"CHART_MAX_ROWS" default:"200"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `envconfig:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// UploadLimit is requests per minute for upload endpoints (default: 20)
	UploadLimit int `envconfig:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `envconfig:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the /api routes with an X-API-Key header (default: false)
	RequireAPIKey bool `envconfig:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `envconfig:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// DatabaseConfig holds the optional activity log database.
// Leaving URL empty keeps the activity log in the application log only.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. DB_URL is accepted as well.
	URL string `envconfig:"DATABASE_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `envconfig:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `envconfig:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether an activity database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
