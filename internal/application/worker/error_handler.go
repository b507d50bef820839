package worker

import (
	"context"
	"log/slog"

	"github.com/rezkam/hearth/internal/domain"
)

// ErrorHandler observes delivery failures for telemetry/alerting.
//
// Pattern from River (https://riverqueue.com/docs/error-handling):
// - HandleError for normal errors (can influence retry behavior)
// - HandlePanic for panics (always dead-lettered, no retries)
type ErrorHandler interface {
	// HandleError is called when a notifier returns an error.
	// Return nil to follow normal retry policy.
	// Return &ErrorHandlerResult{SetCancelled: true} to dead-letter immediately.
	HandleError(ctx context.Context, d *domain.Delivery, err error) *ErrorHandlerResult

	// HandlePanic is called when a notifier panics. Includes panic value and stack trace.
	// This is a hook for logging/telemetry only.
	HandlePanic(ctx context.Context, d *domain.Delivery, panicVal any, stackTrace string) *ErrorHandlerResult
}

// ErrorHandlerResult controls delivery behavior after error/panic.
type ErrorHandlerResult struct {
	// SetCancelled permanently fails the delivery, preventing further retries.
	SetCancelled bool
}

// DefaultErrorHandler logs errors and panics with structured logging.
type DefaultErrorHandler struct{}

func (h *DefaultErrorHandler) HandleError(ctx context.Context, d *domain.Delivery, err error) *ErrorHandlerResult {
	slog.ErrorContext(ctx, "Delivery failed",
		slog.String("delivery_id", d.ID),
		slog.String("reminder_id", d.ReminderID),
		slog.Int("attempt", d.Attempts),
		slog.String("error", err.Error()),
		slog.Bool("retryable", IsRetryable(err)),
	)
	return nil
}

func (h *DefaultErrorHandler) HandlePanic(ctx context.Context, d *domain.Delivery, panicVal any, stackTrace string) *ErrorHandlerResult {
	slog.ErrorContext(ctx, "Notifier panicked",
		slog.String("delivery_id", d.ID),
		slog.String("reminder_id", d.ReminderID),
		slog.Any("panic_value", panicVal),
		slog.String("stack_trace", stackTrace),
	)
	return nil
}
