package config

import (
	"fmt"
	"time"

	"github.com/rezkam/hearth/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Database        DatabaseConfig
	HTTP            HTTPConfig
	Auth            AuthConfig
	Reminders       ReminderConfig
	Locale          LocaleConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"HEARTH_SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"HEARTH_HTTP_HOST"`
	Port              string        `env:"HEARTH_HTTP_PORT" default:"8080"`
	ReadTimeout       time.Duration `env:"HEARTH_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"HEARTH_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"HEARTH_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"HEARTH_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"HEARTH_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"HEARTH_HTTP_MAX_BODY_BYTES"`

	// Per-household request rate (zero = middleware defaults)
	RateLimitRPS   float64 `env:"HEARTH_HTTP_RATE_LIMIT_RPS"`
	RateLimitBurst int     `env:"HEARTH_HTTP_RATE_LIMIT_BURST"`

	// TLS configuration for HTTPS
	TLSEnabled  bool   `env:"HEARTH_TLS_ENABLED"`
	TLSCertFile string `env:"HEARTH_TLS_CERT_FILE"`
	TLSKeyFile  string `env:"HEARTH_TLS_KEY_FILE"`
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	if c.TLSEnabled && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		return fmt.Errorf("HEARTH_TLS_CERT_FILE and HEARTH_TLS_KEY_FILE are required when TLS is enabled")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	return nil
}

// AuthConfig holds authenticator configuration.
type AuthConfig struct {
	OperationTimeout time.Duration `env:"HEARTH_AUTH_OPERATION_TIMEOUT"`
	UpdateQueueSize  int           `env:"HEARTH_AUTH_UPDATE_QUEUE_SIZE"`
}

// ReminderConfig holds reminder service configuration.
type ReminderConfig struct {
	DefaultPageSize int    `env:"HEARTH_DEFAULT_PAGE_SIZE"`
	MaxPageSize     int    `env:"HEARTH_MAX_PAGE_SIZE"`
	CalendarDomain  string `env:"HEARTH_CALENDAR_UID_DOMAIN"`
}

// Validate validates the page size bounds.
func (c *ReminderConfig) Validate() error {
	if c.MaxPageSize > 0 && c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("HEARTH_MAX_PAGE_SIZE (%d) must be >= HEARTH_DEFAULT_PAGE_SIZE (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	return nil
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}
