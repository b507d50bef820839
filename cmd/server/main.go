package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/rezkam/hearth/internal/application/auth"
	"github.com/rezkam/hearth/internal/application/reminder"
	"github.com/rezkam/hearth/internal/calendar"
	"github.com/rezkam/hearth/internal/config"
	httpserver "github.com/rezkam/hearth/internal/infrastructure/http"
	"github.com/rezkam/hearth/internal/infrastructure/http/handler"
	mw "github.com/rezkam/hearth/internal/infrastructure/http/middleware"
	"github.com/rezkam/hearth/internal/infrastructure/observability"
	"github.com/rezkam/hearth/internal/infrastructure/persistence/postgres"
)

func main() {
	if err := run(); err != nil {
		// slog might not be initialized if config fails
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	// Root context for all normal operations; cancelled on SIGTERM/SIGINT.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	protocol, err := observability.ParseProtocol(cfg.Observability.OTLPProtocol)
	if err != nil {
		return err
	}
	telemetry, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		Protocol:    protocol,
	})
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}

	slog.InfoContext(ctx, "starting hearth server", "timezone", cfg.Locale.Timezone)

	store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		SkipMigrations:  !cfg.Database.AutoMigrate,
	})
	if err != nil {
		_ = telemetry.Shutdown(context.Background())
		return fmt.Errorf("failed to create store: %w", err)
	}
	slog.InfoContext(ctx, "storage initialized", "dsn", maskPassword(cfg.Database.DSN))

	loc := cfg.Locale.Location()
	svc := reminder.NewService(store, reminder.Config{
		DefaultPageSize: cfg.Reminders.DefaultPageSize,
		MaxPageSize:     cfg.Reminders.MaxPageSize,
		Location:        loc,
		Calendar: calendar.Options{
			UIDDomain:       cfg.Reminders.CalendarDomain,
			DefaultLocation: loc,
		},
	})

	authenticator := auth.NewAuthenticator(ctx, store, auth.Config{
		OperationTimeout: cfg.Auth.OperationTimeout,
		UpdateQueueSize:  cfg.Auth.UpdateQueueSize,
	})
	cleanup := newCleanup(context.Background(), authenticator, store, telemetry)
	defer cleanup()

	apiHandler, err := handler.NewOpenAPIRouter(svc)
	if err != nil {
		return err
	}

	server := httpserver.NewAPIServer(apiHandler, authenticator, serverConfig(cfg))

	errResult := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errResult <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(shutdownCtx, "HTTP server shutdown timed out", "error", err)
		}
		return nil
	case err := <-errResult:
		return err
	}
}

func serverConfig(cfg *config.ServerConfig) httpserver.ServerConfig {
	sc := httpserver.ServerConfig{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
		RateLimit: mw.RateLimitConfig{
			RequestsPerSecond: cfg.HTTP.RateLimitRPS,
			Burst:             cfg.HTTP.RateLimitBurst,
		},
	}
	if cfg.HTTP.TLSEnabled {
		sc.TLSCertFile = cfg.HTTP.TLSCertFile
		sc.TLSKeyFile = cfg.HTTP.TLSKeyFile
	}
	return sc
}

// maskPassword masks the password in a connection string for logging.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		// If parsing fails, fall back to full redaction to be safe
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
