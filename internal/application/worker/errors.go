package worker

import (
	"errors"
	"fmt"
)

// === Retry Classification ===

// RetryableError wraps transient errors that should be retried.
// Only errors wrapped with Transient() will be retried; all other errors
// are treated as permanent and dead-letter the delivery immediately.
//
// Use for: network timeouts, database connection lost, rate limits, 5xx responses.
// Don't use for: rejected payloads, unknown recipients, bad configuration.
type RetryableError struct {
	Err error
}

func (e RetryableError) Error() string { return e.Err.Error() }
func (e RetryableError) Unwrap() error { return e.Err }

// Transient wraps an error to signal it should be retried.
//
// Example:
//
//	if resp.StatusCode >= 500 {
//	    return worker.Transient(fmt.Errorf("webhook returned %d", resp.StatusCode))
//	}
func Transient(err error) error {
	return RetryableError{Err: err}
}

// IsRetryable returns true if the error should be retried.
func IsRetryable(err error) bool {
	var retryable RetryableError
	return errors.As(err, &retryable)
}

// === Panic Handling ===

// PanicError indicates a notifier panicked while sending.
// Deliveries that panic are dead-lettered without retries.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsPanic returns true if the error indicates a panic occurred.
func IsPanic(err error) bool {
	var panicErr PanicError
	return errors.As(err, &panicErr)
}

// === Notifier-Initiated Cancellation ===

// Cancelled tells the sender to drop a delivery for good.
// Return this from a Notifier when the delivery can never succeed
// (e.g. the household removed its webhook).
type Cancelled struct {
	Reason string
}

func (e Cancelled) Error() string {
	return fmt.Sprintf("delivery cancelled: %s", e.Reason)
}

// IsCancelled returns true if the error indicates intentional cancellation.
func IsCancelled(err error) bool {
	var cancelled Cancelled
	return errors.As(err, &cancelled)
}

// Dead-letter reasons recorded on the delivery.
const (
	ReasonPermanent = "permanent"
	ReasonExhausted = "exhausted"
	ReasonPanic     = "panic"
	ReasonCancelled = "cancelled"
	ReasonExpired   = "expired"
)
