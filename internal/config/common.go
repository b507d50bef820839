package config

import (
	"fmt"
	"time"

	"github.com/rezkam/hearth/internal/domain"
)

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled  bool   `env:"HEARTH_OTEL_ENABLED"`
	ServiceName  string `env:"OTEL_SERVICE_NAME"`
	OTLPProtocol string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" default:"http/protobuf"`
}

// LocaleConfig holds the application timezone, used for reminders whose
// household has none.
type LocaleConfig struct {
	Timezone string `env:"HEARTH_TIMEZONE" default:"UTC"`
}

// Validate checks that the timezone is a known IANA zone.
func (c *LocaleConfig) Validate() error {
	if _, err := domain.LoadTimezone(c.Timezone); err != nil {
		return fmt.Errorf("HEARTH_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the configured zone. Call after Validate.
func (c *LocaleConfig) Location() *time.Location {
	loc, err := domain.LoadTimezone(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// APIKeyConfig holds the API key format.
type APIKeyConfig struct {
	KeyType string `env:"HEARTH_API_KEY_TYPE" default:"sk"`
}
