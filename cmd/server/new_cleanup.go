package main

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// shutdownTimeout bounds each cleanup step.
const shutdownTimeout = 5 * time.Second

// shutdowner abstracts the authenticator and telemetry providers so tests can
// verify cleanup behavior without constructing real infrastructure.
type shutdowner interface {
	Shutdown(context.Context) error
}

// newCleanup constructs the shutdown hook: drain authenticator state, close
// the shared store, then flush telemetry so earlier failures are still exported.
func newCleanup(ctx context.Context, authenticator shutdowner, store io.Closer, telemetry shutdowner) func() {
	return func() {
		if authenticator != nil {
			stepCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			if err := authenticator.Shutdown(stepCtx); err != nil {
				slog.Error("failed to shut down authenticator", slog.String("error", err.Error()))
			}
			cancel()
		}

		if store != nil {
			if err := store.Close(); err != nil {
				slog.Error("failed to close store", slog.String("error", err.Error()))
			}
		}

		if telemetry != nil {
			stepCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			if err := telemetry.Shutdown(stepCtx); err != nil {
				slog.Error("failed to flush telemetry", slog.String("error", err.Error()))
			}
			cancel()
		}
	}
}
