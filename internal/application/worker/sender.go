package worker

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rezkam/hearth/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Notifier hands a delivery to the household (push, webhook, log...).
// Wrap errors with Transient() to have the delivery retried; any other error
// dead-letters it. Return Cancelled to drop the delivery on purpose.
type Notifier interface {
	Notify(ctx context.Context, d *domain.Delivery) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, d *domain.Delivery) error

func (f NotifierFunc) Notify(ctx context.Context, d *domain.Delivery) error {
	return f(ctx, d)
}

// RetryConfig configures retry behavior for failed deliveries.
type RetryConfig struct {
	MaxRetries int           // Maximum retry attempts (default: 3)
	BaseDelay  time.Duration // Initial delay between retries (default: 1 minute)
	MaxDelay   time.Duration // Maximum delay cap (default: 1 hour)
}

// DefaultRetryConfig returns default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Minute,
		MaxDelay:   time.Hour,
	}
}

// Delay computes exponential backoff with full jitter for the given attempt (1-based).
// Formula: random(0, min(max_delay, base_delay * 2^(attempt-1)))
func (c RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	backoff := float64(c.BaseDelay) * math.Pow(2, float64(attempt-1))
	if backoff > float64(c.MaxDelay) {
		backoff = float64(c.MaxDelay)
	}

	maxJitter := int64(backoff)
	if maxJitter <= 0 {
		return c.BaseDelay
	}

	jitter, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
	if err != nil {
		return c.BaseDelay
	}
	return time.Duration(jitter.Int64())
}

// SenderConfig configures the delivery sender.
type SenderConfig struct {
	WorkerID      string        // Unique worker identifier (e.g., hostname-pid-uuid)
	Concurrency   int           // Max concurrent notifications (default: 10, must be > 0)
	BatchSize     int           // Deliveries claimed per tick (default: 50)
	LeaseDuration time.Duration // Claim lease; expired leases are reclaimed (default: 5min)
	NotifyTimeout time.Duration // Timeout for a single Notify call (default: 30s)
	ErrorHandler  ErrorHandler  // Custom error/panic handler (default: DefaultErrorHandler)
	RetryConfig   RetryConfig   // Retry policy configuration
}

// DefaultSenderConfig returns default sender configuration.
func DefaultSenderConfig(workerID string) SenderConfig {
	return SenderConfig{
		WorkerID:      workerID,
		Concurrency:   10,
		BatchSize:     50,
		LeaseDuration: 5 * time.Minute,
		NotifyTimeout: 30 * time.Second,
		ErrorHandler:  &DefaultErrorHandler{},
		RetryConfig:   DefaultRetryConfig(),
	}
}

// Sender drains the delivery outbox through a Notifier.
type Sender struct {
	queue    DeliveryQueue
	notifier Notifier
	config   SenderConfig
	metrics  *Metrics
	now      func() time.Time
}

// SenderOption is a functional option for configuring Sender.
type SenderOption func(*Sender)

// WithSenderClock sets the clock used for claims, expiry and backoff.
func WithSenderClock(now func() time.Time) SenderOption {
	return func(s *Sender) {
		s.now = now
	}
}

// WithSenderMetrics sets the instruments the sender records into.
func WithSenderMetrics(m *Metrics) SenderOption {
	return func(s *Sender) {
		s.metrics = m
	}
}

// NewSender creates a new Sender. Zero config fields take their defaults.
func NewSender(queue DeliveryQueue, notifier Notifier, config SenderConfig, opts ...SenderOption) *Sender {
	defaults := DefaultSenderConfig(config.WorkerID)
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.LeaseDuration <= 0 {
		config.LeaseDuration = defaults.LeaseDuration
	}
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = defaults.NotifyTimeout
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = defaults.ErrorHandler
	}
	if config.RetryConfig == (RetryConfig{}) {
		config.RetryConfig = defaults.RetryConfig
	}

	s := &Sender{
		queue:    queue,
		notifier: notifier,
		config:   config,
		metrics:  NoopMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunSendOnce claims one batch of deliveries and sends them concurrently.
// Returns the number of deliveries marked as sent.
func (s *Sender) RunSendOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()

	deliveries, err := s.queue.ClaimDeliveries(ctx, s.config.WorkerID, now, s.config.LeaseDuration, s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to claim deliveries: %w", err)
	}
	if len(deliveries) == 0 {
		return 0, nil
	}

	var sent atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)

	for _, d := range deliveries {
		g.Go(func() error {
			ok, err := s.process(ctx, d)
			if ok {
				sent.Add(1)
			}
			return err
		})
	}

	err = g.Wait()
	return int(sent.Load()), err
}

// process sends one claimed delivery and records the outcome.
// Only storage failures are returned; notifier failures are recorded on the delivery.
func (s *Sender) process(ctx context.Context, d *domain.Delivery) (bool, error) {
	now := s.now().UTC()

	if d.Expired(now) {
		slog.WarnContext(ctx, "Delivery expired before it could be sent",
			"delivery_id", d.ID,
			"reminder_id", d.ReminderID,
			"occurs_at", d.OccursAt,
		)
		return false, s.deadLetter(ctx, d, ReasonExpired, "delivery window passed")
	}

	notifyCtx, cancel := context.WithTimeout(ctx, s.config.NotifyTimeout)
	err := s.executeWithRecovery(notifyCtx, d)
	cancel()

	if err == nil {
		if err := s.queue.CompleteDelivery(ctx, d.ID, s.config.WorkerID, s.now().UTC()); err != nil {
			if errors.Is(err, domain.ErrDeliveryOwnershipLost) {
				slog.WarnContext(ctx, "Lost delivery lease before completion", "delivery_id", d.ID)
				return false, nil
			}
			return false, fmt.Errorf("failed to complete delivery %s: %w", d.ID, err)
		}
		s.metrics.DeliverySent(ctx)
		return true, nil
	}

	return false, s.handleError(ctx, d, err)
}

// executeWithRecovery calls the notifier, converting a panic into PanicError.
func (s *Sender) executeWithRecovery(ctx context.Context, d *domain.Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = PanicError{Value: r, StackTrace: string(debug.Stack())}
		}
	}()
	return s.notifier.Notify(ctx, d)
}

// handleError routes a notifier failure to retry or the dead letter state.
func (s *Sender) handleError(ctx context.Context, d *domain.Delivery, err error) error {
	var panicErr PanicError
	if errors.As(err, &panicErr) {
		s.config.ErrorHandler.HandlePanic(ctx, d, panicErr.Value, panicErr.StackTrace)
		return s.deadLetter(ctx, d, ReasonPanic, err.Error())
	}

	if IsCancelled(err) {
		return s.deadLetter(ctx, d, ReasonCancelled, err.Error())
	}

	if result := s.config.ErrorHandler.HandleError(ctx, d, err); result != nil && result.SetCancelled {
		return s.deadLetter(ctx, d, ReasonCancelled, err.Error())
	}

	if !IsRetryable(err) {
		return s.deadLetter(ctx, d, ReasonPermanent, err.Error())
	}

	// Attempts counts the send just made.
	if d.Attempts > s.config.RetryConfig.MaxRetries {
		return s.deadLetter(ctx, d, ReasonExhausted, err.Error())
	}

	availableAt := s.now().UTC().Add(s.config.RetryConfig.Delay(d.Attempts))
	if rerr := s.queue.RetryDelivery(ctx, d.ID, s.config.WorkerID, err.Error(), availableAt); rerr != nil {
		if errors.Is(rerr, domain.ErrDeliveryOwnershipLost) {
			slog.WarnContext(ctx, "Lost delivery lease before retry", "delivery_id", d.ID)
			return nil
		}
		return fmt.Errorf("failed to schedule retry for delivery %s: %w", d.ID, rerr)
	}

	s.metrics.DeliveryFailed(ctx, "retry")
	slog.InfoContext(ctx, "Delivery scheduled for retry",
		"delivery_id", d.ID,
		"attempt", d.Attempts,
		"available_at", availableAt,
	)
	return nil
}

func (s *Sender) deadLetter(ctx context.Context, d *domain.Delivery, reason, errMsg string) error {
	if err := s.queue.DeadLetterDelivery(ctx, d.ID, s.config.WorkerID, reason, errMsg); err != nil {
		if errors.Is(err, domain.ErrDeliveryOwnershipLost) {
			slog.WarnContext(ctx, "Lost delivery lease before dead-lettering", "delivery_id", d.ID)
			return nil
		}
		return fmt.Errorf("failed to dead-letter delivery %s: %w", d.ID, err)
	}

	s.metrics.DeliveryFailed(ctx, reason)
	slog.WarnContext(ctx, "Delivery dead-lettered",
		"delivery_id", d.ID,
		"reminder_id", d.ReminderID,
		"reason", reason,
		"error", errMsg,
	)
	return nil
}
