package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rezkam/hearth/internal/application/worker"
	"github.com/rezkam/hearth/internal/domain"
)

// === Dispatch Operations ===
// Implements worker.DispatchOperations; only meaningful on a transaction store
// handed out by AtomicDispatch.

// LockDueReminders locks active reminders whose next_run_at has passed.
// Rows locked by another dispatcher are skipped.
func (s *Store) LockDueReminders(ctx context.Context, now time.Time, limit int) ([]worker.DueReminder, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+reminderColumns+`, h.timezone
		FROM reminders r
		JOIN households h ON h.id = r.household_id
		WHERE r.is_active AND r.next_run_at IS NOT NULL AND r.next_run_at <= $1
		ORDER BY r.next_run_at, r.id
		LIMIT $2
		FOR UPDATE OF r SKIP LOCKED`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var due []worker.DueReminder
	for rows.Next() {
		var (
			raw reminderRow
			tz  string
		)
		if err := rows.Scan(append(raw.dest(), &tz)...); err != nil {
			return nil, fmt.Errorf("failed to scan due reminder: %w", err)
		}
		due = append(due, worker.DueReminder{Reminder: raw.toDomain(), HouseholdTimezone: tz})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	return due, nil
}

// InsertDelivery adds a pending delivery; an existing delivery for the same
// occurrence makes it a no-op.
func (s *Store) InsertDelivery(ctx context.Context, d *domain.Delivery) (bool, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return false, err
	}
	rid, err := parseID(d.ReminderID)
	if err != nil {
		return false, err
	}
	hh, err := parseID(d.HouseholdID)
	if err != nil {
		return false, err
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO deliveries (
			id, reminder_id, household_id, occurs_at, title, notes, category,
			status, attempts, available_at, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11)
		ON CONFLICT (reminder_id, occurs_at) DO NOTHING`,
		id, rid, hh, d.OccursAt, d.Title, d.Notes, string(d.Category),
		string(domain.DeliveryPending), d.AvailableAt, timePtrToPgtype(d.ExpiresAt), d.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert delivery: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AdvanceReminder records the fired occurrence and the next run. A nil next
// deactivates the reminder. The version is bumped so stale etags are rejected.
func (s *Store) AdvanceReminder(ctx context.Context, reminderID string, firedAt time.Time, next *time.Time) error {
	rid, err := parseID(reminderID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE reminders SET
			last_fired_at = $2,
			next_run_at = $3,
			is_active = is_active AND $3::timestamptz IS NOT NULL,
			version = version + 1
		WHERE id = $1`,
		rid, firedAt, timePtrToPgtype(next))
	if err != nil {
		return fmt.Errorf("failed to advance reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

// === Delivery Queue ===
// Implements worker.DeliveryQueue.

const deliveryColumns = `id, reminder_id, household_id, occurs_at, title, notes, category,
	status, attempts, available_at, expires_at, claimed_by, lease_until,
	last_error, dead_reason, sent_at, created_at`

func scanDelivery(row pgx.Row) (*domain.Delivery, error) {
	var (
		id, rid, hh      pgtype.UUID
		d                domain.Delivery
		category, status string
		expires, lease   pgtype.Timestamptz
		sentAt           pgtype.Timestamptz
	)
	err := row.Scan(&id, &rid, &hh, &d.OccursAt, &d.Title, &d.Notes, &category,
		&status, &d.Attempts, &d.AvailableAt, &expires, &d.ClaimedBy, &lease,
		&d.LastError, &d.DeadReason, &sentAt, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	d.ID = pgtypeToUUIDString(id)
	d.ReminderID = pgtypeToUUIDString(rid)
	d.HouseholdID = pgtypeToUUIDString(hh)
	d.Category = domain.Category(category)
	d.Status = domain.DeliveryStatus(status)
	d.OccursAt = d.OccursAt.UTC()
	d.AvailableAt = d.AvailableAt.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
	d.ExpiresAt = pgtypeToTimePtr(expires)
	d.LeaseUntil = pgtypeToTimePtr(lease)
	d.SentAt = pgtypeToTimePtr(sentAt)
	return &d, nil
}

// ClaimDeliveries leases pending deliveries (and deliveries whose lease expired)
// to workerID and increments their attempt count.
func (s *Store) ClaimDeliveries(ctx context.Context, workerID string, now time.Time, lease time.Duration, limit int) ([]*domain.Delivery, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE deliveries SET
			status = 'sending',
			claimed_by = $1,
			lease_until = $3,
			attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM deliveries
			WHERE (status = 'pending' AND available_at <= $2)
			   OR (status = 'sending' AND lease_until < $2)
			ORDER BY available_at, id
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+deliveryColumns,
		workerID, now, now.Add(lease), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim deliveries: %w", err)
	}
	defer rows.Close()

	var claimed []*domain.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		claimed = append(claimed, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to claim deliveries: %w", err)
	}
	return claimed, nil
}

// leased runs an update that only applies while workerID holds the delivery's lease.
func (s *Store) leased(ctx context.Context, op, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to %s delivery: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeliveryOwnershipLost
	}
	return nil
}

// CompleteDelivery marks a delivery as sent.
func (s *Store) CompleteDelivery(ctx context.Context, id, workerID string, sentAt time.Time) error {
	did, err := parseID(id)
	if err != nil {
		return err
	}
	return s.leased(ctx, "complete", `
		UPDATE deliveries SET status = 'sent', sent_at = $3, claimed_by = NULL, lease_until = NULL
		WHERE id = $1 AND claimed_by = $2 AND status = 'sending'`,
		did, workerID, sentAt)
}

// RetryDelivery returns a delivery to pending until availableAt.
func (s *Store) RetryDelivery(ctx context.Context, id, workerID, errMsg string, availableAt time.Time) error {
	did, err := parseID(id)
	if err != nil {
		return err
	}
	return s.leased(ctx, "retry", `
		UPDATE deliveries SET status = 'pending', available_at = $4, last_error = $3,
			claimed_by = NULL, lease_until = NULL
		WHERE id = $1 AND claimed_by = $2 AND status = 'sending'`,
		did, workerID, errMsg, availableAt)
}

// DeadLetterDelivery marks a delivery as permanently failed.
func (s *Store) DeadLetterDelivery(ctx context.Context, id, workerID, reason, errMsg string) error {
	did, err := parseID(id)
	if err != nil {
		return err
	}
	return s.leased(ctx, "dead-letter", `
		UPDATE deliveries SET status = 'dead', dead_reason = $3, last_error = $4,
			claimed_by = NULL, lease_until = NULL
		WHERE id = $1 AND claimed_by = $2 AND status = 'sending'`,
		did, workerID, reason, errMsg)
}
