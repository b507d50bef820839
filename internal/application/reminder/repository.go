package reminder

import (
	"context"

	"github.com/rezkam/hearth/internal/domain"
)

// Repository defines storage operations for reminder management.
// Every reminder lookup is scoped to a household: a reminder that exists but
// belongs to another household is reported as domain.ErrReminderNotFound.
type Repository interface {
	// FindHouseholdByID returns domain.ErrHouseholdNotFound if the household doesn't exist.
	FindHouseholdByID(ctx context.Context, id string) (*domain.Household, error)

	// CreateReminder persists a new reminder.
	// Returns the created reminder with version populated by persistence layer.
	CreateReminder(ctx context.Context, r *domain.Reminder) (*domain.Reminder, error)

	// FindReminderByID returns domain.ErrReminderNotFound if missing.
	FindReminderByID(ctx context.Context, householdID, id string) (*domain.Reminder, error)

	// ListReminders retrieves reminders with filtering and pagination.
	ListReminders(ctx context.Context, params domain.ListRemindersParams) (*domain.PagedReminders, error)

	// UpdateReminder writes every mutable field of r if the stored version
	// equals expectedVersion, and returns the reminder with its new version.
	// Returns domain.ErrVersionConflict when the versions differ and
	// domain.ErrReminderNotFound when the reminder is gone.
	UpdateReminder(ctx context.Context, r *domain.Reminder, expectedVersion int) (*domain.Reminder, error)

	// DeleteReminder returns domain.ErrReminderNotFound if missing.
	DeleteReminder(ctx context.Context, householdID, id string) error

	// FindActiveReminders returns all active reminders of a household.
	FindActiveReminders(ctx context.Context, householdID string) ([]domain.Reminder, error)
}
