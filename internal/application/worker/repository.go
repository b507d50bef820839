package worker

import (
	"context"
	"time"

	"github.com/rezkam/hearth/internal/domain"
)

// DueReminder is a reminder whose next_run_at has passed, locked for dispatch.
type DueReminder struct {
	Reminder domain.Reminder

	// HouseholdTimezone is the owning household's IANA zone ("" = application default).
	HouseholdTimezone string
}

// DispatchOperations are the steps of one dispatch batch. They run inside a
// single transaction: either every due reminder in the batch is fired and
// advanced, or none is.
type DispatchOperations interface {
	// LockDueReminders returns up to limit active reminders with next_run_at <= now,
	// locked against concurrent dispatchers (rows locked elsewhere are skipped).
	LockDueReminders(ctx context.Context, now time.Time, limit int) ([]DueReminder, error)

	// InsertDelivery adds a pending delivery. Returns false if a delivery for the
	// same reminder and occurrence already exists.
	InsertDelivery(ctx context.Context, d *domain.Delivery) (inserted bool, err error)

	// AdvanceReminder records a fired occurrence and the next run
	// (nil next deactivates the reminder).
	AdvanceReminder(ctx context.Context, reminderID string, firedAt time.Time, next *time.Time) error
}

// Repository defines storage operations for the dispatcher.
type Repository interface {
	// AtomicDispatch runs fn in a transaction.
	AtomicDispatch(ctx context.Context, fn func(ops DispatchOperations) error) error
}

// DeliveryQueue defines the outbox operations of the sender.
// All methods taking a workerID fail with domain.ErrDeliveryOwnershipLost
// when the delivery's lease is held by someone else.
type DeliveryQueue interface {
	// ClaimDeliveries leases up to limit pending deliveries whose available_at <= now
	// (or whose previous lease expired) to workerID, incrementing their attempt count.
	ClaimDeliveries(ctx context.Context, workerID string, now time.Time, lease time.Duration, limit int) ([]*domain.Delivery, error)

	// CompleteDelivery marks a delivery as sent.
	CompleteDelivery(ctx context.Context, id, workerID string, sentAt time.Time) error

	// RetryDelivery returns a delivery to pending, available again at availableAt.
	RetryDelivery(ctx context.Context, id, workerID, errMsg string, availableAt time.Time) error

	// DeadLetterDelivery marks a delivery as dead. reason is one of the Reason* constants.
	DeadLetterDelivery(ctx context.Context, id, workerID, reason, errMsg string) error
}
