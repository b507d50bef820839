package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rezkam/hearth/internal/application/feed"
	"github.com/rezkam/hearth/internal/application/worker"
	"github.com/rezkam/hearth/internal/calendar"
	"github.com/rezkam/hearth/internal/config"
	"github.com/rezkam/hearth/internal/infrastructure/blob"
	"github.com/rezkam/hearth/internal/infrastructure/blob/fs"
	"github.com/rezkam/hearth/internal/infrastructure/blob/gcs"
	"github.com/rezkam/hearth/internal/infrastructure/notify"
	"github.com/rezkam/hearth/internal/infrastructure/observability"
	"github.com/rezkam/hearth/internal/infrastructure/persistence/postgres"
	"go.opentelemetry.io/otel"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	protocol, err := observability.ParseProtocol(cfg.Observability.OTLPProtocol)
	if err != nil {
		return err
	}
	telemetry, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: serviceName(cfg.Observability.ServiceName),
		Protocol:    protocol,
	})
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush telemetry: %v\n", err)
		}
	}()

	store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		SkipMigrations:  !cfg.Database.AutoMigrate,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	metrics, err := worker.NewMetrics(otel.Meter("github.com/rezkam/hearth/worker"))
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	notifier, err := newNotifier(cfg.Notify)
	if err != nil {
		return err
	}

	scheduler := worker.NewScheduler(store, schedulerConfig(cfg), worker.WithSchedulerMetrics(metrics))
	sender := worker.NewSender(store, notifier, senderConfig(cfg.Sender), worker.WithSenderMetrics(metrics))

	tasks := []worker.Task{
		{
			Name: "schedule",
			Spec: cfg.Scheduler.Spec,
			Run: func(ctx context.Context) error {
				_, err := scheduler.RunScheduleOnce(ctx)
				return err
			},
		},
		{
			Name: "send",
			Spec: cfg.Sender.Spec,
			Run: func(ctx context.Context) error {
				_, err := sender.RunSendOnce(ctx)
				return err
			},
		},
	}

	if cfg.Feed.Enabled {
		feedStore, err := newBlobStore(ctx, cfg.Feed.Blob)
		if err != nil {
			return err
		}
		if c, ok := feedStore.(io.Closer); ok {
			defer c.Close()
		}
		publisher := feed.NewPublisher(store, feedStore, calendar.Options{
			UIDDomain:       cfg.Feed.UIDDomain,
			DefaultLocation: cfg.Locale.Location(),
		})
		tasks = append(tasks, worker.Task{
			Name: "feed",
			Spec: cfg.Feed.Spec,
			Run: func(ctx context.Context) error {
				res, err := publisher.PublishAll(ctx)
				if err != nil {
					return err
				}
				slog.InfoContext(ctx, "Published calendar feeds",
					"published", res.Published,
					"pruned", res.Pruned,
					"failed", res.Failed)
				return nil
			},
		})
	}

	runner, err := worker.NewRunner(tasks, worker.WithOperationTimeout(cfg.OperationTimeout))
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "starting hearth worker",
		"notifier", cfg.Notify.Kind,
		"feed", cfg.Feed.Enabled)
	return runner.Start(ctx)
}

func serviceName(name string) string {
	if name == "" {
		return observability.DefaultServiceName + "-worker"
	}
	return name
}

func schedulerConfig(cfg *config.WorkerConfig) worker.SchedulerConfig {
	sc := worker.DefaultSchedulerConfig()
	if cfg.Scheduler.BatchSize > 0 {
		sc.BatchSize = cfg.Scheduler.BatchSize
	}
	if cfg.Scheduler.MaxBatches > 0 {
		sc.MaxBatches = cfg.Scheduler.MaxBatches
	}
	sc.Location = cfg.Locale.Location()
	return sc
}

func senderConfig(cfg config.SenderConfig) worker.SenderConfig {
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = generateWorkerID()
	}
	sc := worker.DefaultSenderConfig(workerID)
	if cfg.Concurrency > 0 {
		sc.Concurrency = cfg.Concurrency
	}
	if cfg.BatchSize > 0 {
		sc.BatchSize = cfg.BatchSize
	}
	if cfg.LeaseDuration > 0 {
		sc.LeaseDuration = cfg.LeaseDuration
	}
	if cfg.NotifyTimeout > 0 {
		sc.NotifyTimeout = cfg.NotifyTimeout
	}
	if cfg.MaxRetries > 0 {
		sc.RetryConfig.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryBase > 0 {
		sc.RetryConfig.BaseDelay = cfg.RetryBase
	}
	if cfg.RetryMax > 0 {
		sc.RetryConfig.MaxDelay = cfg.RetryMax
	}
	return sc
}

// generateWorkerID returns hostname-pid-uuid so lease owners are traceable.
func generateWorkerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8])
}

func newNotifier(cfg config.NotifyConfig) (worker.Notifier, error) {
	switch cfg.Kind {
	case "webhook":
		return notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     cfg.WebhookURL,
			Token:   cfg.WebhookToken,
			Timeout: cfg.WebhookTimeout,
		})
	default:
		return notify.NewLogNotifier(nil), nil
	}
}

func newBlobStore(ctx context.Context, cfg config.BlobConfig) (blob.Store, error) {
	switch cfg.Backend {
	case "gcs":
		s, err := gcs.NewStore(ctx, cfg.GCSBucket, gcs.WithCacheControl("no-cache, max-age=0"))
		if err != nil {
			return nil, fmt.Errorf("failed to open GCS bucket: %w", err)
		}
		return s, nil
	default:
		s, err := fs.NewStore(cfg.FSDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open feed directory: %w", err)
		}
		return s, nil
	}
}
