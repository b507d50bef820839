package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/recurrence"
)

// SchedulerConfig controls how due reminders are fired.
type SchedulerConfig struct {
	// BatchSize is the number of due reminders locked per transaction.
	BatchSize int

	// MaxBatches bounds the work of a single tick so one tick cannot starve the next.
	MaxBatches int

	// Location is the application timezone used when neither the reminder
	// nor its household names one.
	Location *time.Location
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		BatchSize:  100,
		MaxBatches: 10,
		Location:   time.UTC,
	}
}

// Scheduler fires due reminders into the delivery outbox and advances
// their next_run_at.
type Scheduler struct {
	repo    Repository
	config  SchedulerConfig
	metrics *Metrics
	now     func() time.Time
}

// SchedulerOption is a functional option for configuring Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock sets the clock used to decide what is due.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithSchedulerMetrics sets the instruments the scheduler records into.
func WithSchedulerMetrics(m *Metrics) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// NewScheduler creates a new Scheduler.
func NewScheduler(repo Repository, config SchedulerConfig, opts ...SchedulerOption) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxBatches <= 0 {
		config.MaxBatches = defaults.MaxBatches
	}
	if config.Location == nil {
		config.Location = defaults.Location
	}

	s := &Scheduler{
		repo:    repo,
		config:  config,
		metrics: NoopMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunScheduleOnce executes a single scheduling cycle.
// Batches are fired until fewer than BatchSize reminders are due or MaxBatches is reached.
// Returns the number of reminders fired.
func (s *Scheduler) RunScheduleOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()
	total := 0

	for range s.config.MaxBatches {
		fired, locked, err := s.runBatch(ctx, now)
		total += fired
		if err != nil {
			return total, err
		}
		if locked < s.config.BatchSize {
			break
		}
	}

	if total > 0 {
		slog.InfoContext(ctx, "Fired due reminders", "count", total)
	}
	return total, nil
}

func (s *Scheduler) runBatch(ctx context.Context, now time.Time) (fired, locked int, err error) {
	err = s.repo.AtomicDispatch(ctx, func(ops DispatchOperations) error {
		due, err := ops.LockDueReminders(ctx, now, s.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to lock due reminders: %w", err)
		}
		locked = len(due)

		for i := range due {
			ok, err := s.fire(ctx, ops, &due[i], now)
			if err != nil {
				return err
			}
			if ok {
				fired++
			}
		}
		return nil
	})
	if err != nil {
		return 0, locked, err
	}

	s.metrics.RemindersFired(ctx, fired)
	return fired, locked, nil
}

// fire inserts the delivery of one due reminder and advances it.
// Returns false when the occurrence had already been fired.
func (s *Scheduler) fire(ctx context.Context, ops DispatchOperations, due *DueReminder, now time.Time) (bool, error) {
	r := &due.Reminder
	if r.NextRunAt == nil {
		return false, nil
	}
	occursAt := r.NextRunAt.UTC()

	delivery := &domain.Delivery{
		ID:          uuid.Must(uuid.NewV7()).String(),
		ReminderID:  r.ID,
		HouseholdID: r.HouseholdID,
		OccursAt:    occursAt,
		Title:       r.Title,
		Notes:       r.Notes,
		Category:    r.Category,
		Status:      domain.DeliveryPending,
		AvailableAt: now,
		CreatedAt:   now,
	}
	if r.GracePeriod != nil {
		expires := occursAt.Add(*r.GracePeriod)
		delivery.ExpiresAt = &expires
	}

	inserted, err := ops.InsertDelivery(ctx, delivery)
	if err != nil {
		return false, fmt.Errorf("failed to insert delivery for reminder %s: %w", r.ID, err)
	}
	if !inserted {
		slog.InfoContext(ctx, "Occurrence already fired, advancing", "reminder_id", r.ID, "occurs_at", occursAt)
	}

	// Occurrences missed while the dispatcher was down collapse into the one just fired.
	ref := now
	if occursAt.After(ref) {
		ref = occursAt
	}

	household := &domain.Household{ID: r.HouseholdID, Timezone: due.HouseholdTimezone}
	next, err := recurrence.NextRun(household, r, s.config.Location, ref)
	if err != nil {
		// A schedule that can no longer be evaluated stops the reminder.
		slog.ErrorContext(ctx, "Failed to compute next occurrence, deactivating reminder",
			"reminder_id", r.ID,
			"error", err,
		)
		next = nil
	}

	if err := ops.AdvanceReminder(ctx, r.ID, occursAt, next); err != nil {
		return false, fmt.Errorf("failed to advance reminder %s: %w", r.ID, err)
	}
	if next == nil {
		slog.InfoContext(ctx, "Reminder has no further occurrence, deactivated", "reminder_id", r.ID)
	}

	return inserted, nil
}
