package config

import (
	"fmt"
	"time"

	"github.com/rezkam/hearth/internal/env"
)

// WorkerConfig holds all configuration for the worker binary.
type WorkerConfig struct {
	Database         DatabaseConfig
	Scheduler        SchedulerConfig
	Sender           SenderConfig
	Notify           NotifyConfig
	Feed             FeedConfig
	Locale           LocaleConfig
	Observability    ObservabilityConfig
	OperationTimeout time.Duration `env:"HEARTH_WORKER_OPERATION_TIMEOUT" default:"30s"`
	ShutdownTimeout  time.Duration `env:"HEARTH_SHUTDOWN_TIMEOUT" default:"30s"`
}

// SchedulerConfig holds dispatch tick configuration.
type SchedulerConfig struct {
	Spec       string `env:"HEARTH_SCHEDULE_SPEC" default:"@every 30s"`
	BatchSize  int    `env:"HEARTH_SCHEDULE_BATCH_SIZE"`
	MaxBatches int    `env:"HEARTH_SCHEDULE_MAX_BATCHES"`
}

// SenderConfig holds delivery tick configuration.
type SenderConfig struct {
	Spec          string        `env:"HEARTH_SEND_SPEC" default:"@every 10s"`
	WorkerID      string        `env:"HEARTH_WORKER_ID"` // Generated when empty
	Concurrency   int           `env:"HEARTH_SEND_CONCURRENCY"`
	BatchSize     int           `env:"HEARTH_SEND_BATCH_SIZE"`
	LeaseDuration time.Duration `env:"HEARTH_SEND_LEASE"`
	NotifyTimeout time.Duration `env:"HEARTH_SEND_TIMEOUT"`
	MaxRetries    int           `env:"HEARTH_SEND_MAX_RETRIES"`
	RetryBase     time.Duration `env:"HEARTH_SEND_RETRY_BASE"`
	RetryMax      time.Duration `env:"HEARTH_SEND_RETRY_MAX"`
}

// NotifyConfig selects the notifier.
type NotifyConfig struct {
	Kind           string        `env:"HEARTH_NOTIFY" default:"log"` // log, webhook
	WebhookURL     string        `env:"HEARTH_WEBHOOK_URL"`
	WebhookToken   string        `env:"HEARTH_WEBHOOK_TOKEN"`
	WebhookTimeout time.Duration `env:"HEARTH_WEBHOOK_TIMEOUT"`
}

// Validate validates the notifier selection.
func (c *NotifyConfig) Validate() error {
	switch c.Kind {
	case "log":
	case "webhook":
		if c.WebhookURL == "" {
			return fmt.Errorf("HEARTH_WEBHOOK_URL is required when HEARTH_NOTIFY is 'webhook'")
		}
	default:
		return fmt.Errorf("unknown HEARTH_NOTIFY: %q", c.Kind)
	}
	return nil
}

// FeedConfig holds calendar feed publishing configuration.
type FeedConfig struct {
	Enabled   bool   `env:"HEARTH_FEED_ENABLED"`
	Spec      string `env:"HEARTH_FEED_SPEC" default:"@every 15m"`
	UIDDomain string `env:"HEARTH_CALENDAR_UID_DOMAIN"`
	Blob      BlobConfig
}

// LoadWorkerConfig loads and validates worker configuration from environment.
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg := &WorkerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load worker config: %w", err)
	}

	return cfg, nil
}
