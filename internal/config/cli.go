package config

import (
	"fmt"

	"github.com/rezkam/hearth/internal/env"
)

// CLIConfig holds configuration for hearthctl.
type CLIConfig struct {
	Database DatabaseConfig
	APIKey   APIKeyConfig
	Locale   LocaleConfig
}

// LoadCLIConfig loads and validates hearthctl configuration from environment.
func LoadCLIConfig() (*CLIConfig, error) {
	cfg := &CLIConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load cli config: %w", err)
	}

	return cfg, nil
}
