package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rezkam/hearth/internal/domain"
)

// === Reminder Repository Implementation ===
// Implements application/reminder.Repository together with the household methods.

const reminderColumns = `r.id, r.household_id, r.title, r.notes, r.category, r.frequency,
	r.time_of_day, r.start_date, r.end_date, r.days_of_week, r.custom_dates, r.timezone,
	r.grace_period_seconds, r.is_active, r.next_run_at, r.last_fired_at,
	r.created_at, r.updated_at, r.version`

// reminderRow holds the raw column values of a reminders row.
type reminderRow struct {
	id, householdID      pgtype.UUID
	title, notes         string
	category, frequency  string
	timeOfDay            pgtype.Time
	startDate, endDate   pgtype.Date
	daysOfWeek           int16
	customDates          []pgtype.Date
	timezone             *string
	graceSeconds         *int64
	isActive             bool
	nextRunAt, lastFired pgtype.Timestamptz
	createdAt, updatedAt time.Time
	version              int
}

// dest returns scan targets in reminderColumns order.
func (row *reminderRow) dest() []any {
	return []any{
		&row.id, &row.householdID, &row.title, &row.notes, &row.category, &row.frequency,
		&row.timeOfDay, &row.startDate, &row.endDate, &row.daysOfWeek, &row.customDates, &row.timezone,
		&row.graceSeconds, &row.isActive, &row.nextRunAt, &row.lastFired,
		&row.createdAt, &row.updatedAt, &row.version,
	}
}

func (row *reminderRow) toDomain() domain.Reminder {
	return domain.Reminder{
		ID:          pgtypeToUUIDString(row.id),
		HouseholdID: pgtypeToUUIDString(row.householdID),
		Title:       row.title,
		Notes:       row.notes,
		Category:    domain.Category(row.category),
		Frequency:   domain.Frequency(row.frequency),
		TimeOfDay:   pgtypeToTimeOfDay(row.timeOfDay),
		StartDate:   pgtypeToDate(row.startDate),
		EndDate:     pgtypeToDatePtr(row.endDate),
		DaysOfWeek:  domain.WeekdaySet(row.daysOfWeek),
		CustomDates: pgtypeToDates(row.customDates),
		Timezone:    row.timezone,
		GracePeriod: secondsToDuration(row.graceSeconds),
		IsActive:    row.isActive,
		NextRunAt:   pgtypeToTimePtr(row.nextRunAt),
		LastFiredAt: pgtypeToTimePtr(row.lastFired),
		CreatedAt:   row.createdAt.UTC(),
		UpdatedAt:   row.updatedAt.UTC(),
		Version:     row.version,
	}
}

func scanReminder(row pgx.Row) (*domain.Reminder, error) {
	var raw reminderRow
	if err := row.Scan(raw.dest()...); err != nil {
		return nil, err
	}
	r := raw.toDomain()
	return &r, nil
}

func collectReminders(rows pgx.Rows) ([]domain.Reminder, error) {
	defer rows.Close()

	var out []domain.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// reminderIDs parses the household and reminder IDs; malformed IDs are reported
// as a missing reminder.
func reminderIDs(householdID, id string) (pgtype.UUID, pgtype.UUID, error) {
	hh, err := parseID(householdID)
	if err != nil {
		return pgtype.UUID{}, pgtype.UUID{}, fmt.Errorf("%w: %w", domain.ErrReminderNotFound, err)
	}
	rid, err := parseID(id)
	if err != nil {
		return pgtype.UUID{}, pgtype.UUID{}, fmt.Errorf("%w: %w", domain.ErrReminderNotFound, err)
	}
	return hh, rid, nil
}

// CreateReminder persists a new reminder with version 1.
func (s *Store) CreateReminder(ctx context.Context, r *domain.Reminder) (*domain.Reminder, error) {
	id, err := parseID(r.ID)
	if err != nil {
		return nil, err
	}
	hh, err := parseID(r.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrHouseholdNotFound, err)
	}

	created, err := scanReminder(s.db.QueryRow(ctx, `
		INSERT INTO reminders AS r (
			id, household_id, title, notes, category, frequency,
			time_of_day, start_date, end_date, days_of_week, custom_dates, timezone,
			grace_period_seconds, is_active, next_run_at, last_fired_at,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 1)
		RETURNING `+reminderColumns,
		id, hh, r.Title, r.Notes, string(r.Category), string(r.Frequency),
		timeOfDayToPgtype(r.TimeOfDay), dateToPgtype(r.StartDate), datePtrToPgtype(r.EndDate),
		int16(r.DaysOfWeek), datesToPgtype(r.CustomDates), r.Timezone,
		durationToSeconds(r.GracePeriod), r.IsActive, timePtrToPgtype(r.NextRunAt), timePtrToPgtype(r.LastFiredAt),
		r.CreatedAt, r.UpdatedAt,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrHouseholdNotFound
		}
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return created, nil
}

// FindReminderByID returns domain.ErrReminderNotFound if missing or owned by another household.
func (s *Store) FindReminderByID(ctx context.Context, householdID, id string) (*domain.Reminder, error) {
	hh, rid, err := reminderIDs(householdID, id)
	if err != nil {
		return nil, err
	}

	r, err := scanReminder(s.db.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders r WHERE r.id = $1 AND r.household_id = $2`, rid, hh))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return r, nil
}

// ListReminders retrieves a household's reminders, newest first.
func (s *Store) ListReminders(ctx context.Context, params domain.ListRemindersParams) (*domain.PagedReminders, error) {
	hh, err := parseID(params.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrHouseholdNotFound, err)
	}

	var category *string
	if params.Category != nil {
		c := string(*params.Category)
		category = &c
	}

	// NULL filter parameters disable the filter.
	const filter = `r.household_id = $1
		AND ($2::boolean IS NULL OR r.is_active = $2)
		AND ($3::text IS NULL OR r.category = $3)`

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM reminders r WHERE `+filter,
		hh, params.Active, category).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count reminders: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT `+reminderColumns+` FROM reminders r WHERE `+filter+`
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $4 OFFSET $5`,
		hh, params.Active, category, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	items, err := collectReminders(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}

	return &domain.PagedReminders{
		Items:      items,
		TotalCount: total,
		HasMore:    params.Offset+len(items) < total,
	}, nil
}

// UpdateReminder writes every mutable field if the stored version equals expectedVersion.
func (s *Store) UpdateReminder(ctx context.Context, r *domain.Reminder, expectedVersion int) (*domain.Reminder, error) {
	hh, rid, err := reminderIDs(r.HouseholdID, r.ID)
	if err != nil {
		return nil, err
	}

	updated, err := scanReminder(s.db.QueryRow(ctx, `
		UPDATE reminders r SET
			title = $3, notes = $4, category = $5, frequency = $6,
			time_of_day = $7, start_date = $8, end_date = $9, days_of_week = $10,
			custom_dates = $11, timezone = $12, grace_period_seconds = $13,
			is_active = $14, next_run_at = $15, last_fired_at = $16,
			updated_at = $17, version = r.version + 1
		WHERE r.id = $1 AND r.household_id = $2 AND r.version = $18
		RETURNING `+reminderColumns,
		rid, hh, r.Title, r.Notes, string(r.Category), string(r.Frequency),
		timeOfDayToPgtype(r.TimeOfDay), dateToPgtype(r.StartDate), datePtrToPgtype(r.EndDate),
		int16(r.DaysOfWeek), datesToPgtype(r.CustomDates), r.Timezone, durationToSeconds(r.GracePeriod),
		r.IsActive, timePtrToPgtype(r.NextRunAt), timePtrToPgtype(r.LastFiredAt),
		r.UpdatedAt, expectedVersion,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	// Distinguish a missing reminder from a concurrent update.
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reminders WHERE id = $1 AND household_id = $2)`, rid, hh).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check reminder existence: %w", err)
	}
	if !exists {
		return nil, domain.ErrReminderNotFound
	}
	return nil, domain.ErrVersionConflict
}

// DeleteReminder returns domain.ErrReminderNotFound if missing.
func (s *Store) DeleteReminder(ctx context.Context, householdID, id string) error {
	hh, rid, err := reminderIDs(householdID, id)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM reminders WHERE id = $1 AND household_id = $2`, rid, hh)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

// FindActiveReminders returns all active reminders of a household, oldest first.
func (s *Store) FindActiveReminders(ctx context.Context, householdID string) ([]domain.Reminder, error) {
	hh, err := parseID(householdID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrHouseholdNotFound, err)
	}

	rows, err := s.db.Query(ctx, `SELECT `+reminderColumns+` FROM reminders r
		WHERE r.household_id = $1 AND r.is_active
		ORDER BY r.created_at, r.id`, hh)
	if err != nil {
		return nil, fmt.Errorf("failed to list active reminders: %w", err)
	}
	items, err := collectReminders(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list active reminders: %w", err)
	}
	return items, nil
}
