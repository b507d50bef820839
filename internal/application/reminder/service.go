package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/hearth/internal/calendar"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/recurrence"
)

// Default configuration values.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Config holds configuration for the Service.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int

	// Location is the application timezone used for households without one.
	Location *time.Location

	Calendar calendar.Options
}

// Option configures optional Service behaviour.
type Option func(*Service)

// WithClock replaces the clock used to compute next_run_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service provides business logic for reminder management.
type Service struct {
	repo   Repository
	config Config
	now    func() time.Time
}

// NewService creates a new reminder service.
// Applies application defaults for zero or invalid config values.
func NewService(repo Repository, config Config, opts ...Option) *Service {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultPageSize
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = MaxPageSize
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Calendar.DefaultLocation == nil {
		config.Calendar.DefaultLocation = config.Location
	}

	s := &Service{
		repo:   repo,
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateReminder validates r, computes its first run and persists it.
// A reminder whose schedule has no future occurrence is stored inactive.
func (s *Service) CreateReminder(ctx context.Context, householdID string, r *domain.Reminder) (*domain.Reminder, error) {
	household, err := s.household(ctx, householdID)
	if err != nil {
		return nil, err
	}

	title, err := domain.NewTitle(r.Title)
	if err != nil {
		return nil, err
	}
	r.Title = title.String()
	if r.Category, err = domain.NewCategory(string(r.Category)); err != nil {
		return nil, err
	}
	if r.Frequency, err = domain.NewFrequency(string(r.Frequency)); err != nil {
		return nil, err
	}
	r.CustomDates = domain.SortDates(r.CustomDates)

	if err := r.Validate(); err != nil {
		return nil, err
	}

	idObj, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}

	now := s.now().UTC()
	r.ID = idObj.String()
	r.HouseholdID = household.ID
	r.CreatedAt = now
	r.UpdatedAt = now
	r.LastFiredAt = nil
	r.IsActive = true

	if err := s.schedule(household, r, now); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateReminder(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	slog.InfoContext(ctx, "reminder created",
		"household_id", created.HouseholdID,
		"reminder_id", created.ID,
		"frequency", created.Frequency,
		"active", created.IsActive)

	return created, nil
}

// GetReminder retrieves a reminder of the household.
func (s *Service) GetReminder(ctx context.Context, householdID, id string) (*domain.Reminder, error) {
	if householdID == "" || id == "" {
		return nil, domain.ErrReminderNotFound
	}
	return s.repo.FindReminderByID(ctx, householdID, id)
}

// ListReminders retrieves reminders with filtering and pagination.
func (s *Service) ListReminders(ctx context.Context, params domain.ListRemindersParams) (*domain.PagedReminders, error) {
	if params.HouseholdID == "" {
		return nil, domain.ErrHouseholdNotFound
	}

	// Reject negative offsets to prevent database errors
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.Limit <= 0 {
		params.Limit = s.config.DefaultPageSize
	}
	params.Limit = min(params.Limit, s.config.MaxPageSize)

	result, err := s.repo.ListReminders(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return result, nil
}

// UpdateReminder applies a field-mask update. Changes to any schedule field
// recompute next_run_at from now.
func (s *Service) UpdateReminder(ctx context.Context, params domain.UpdateReminderParams) (*domain.Reminder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	household, err := s.household(ctx, params.HouseholdID)
	if err != nil {
		return nil, err
	}

	current, err := s.GetReminder(ctx, params.HouseholdID, params.ReminderID)
	if err != nil {
		return nil, err
	}
	if err := checkEtag(current, params.Etag); err != nil {
		return nil, err
	}

	updated := *current
	params.Apply(&updated)

	title, err := domain.NewTitle(updated.Title)
	if err != nil {
		return nil, err
	}
	updated.Title = title.String()
	if updated.Frequency, err = domain.NewFrequency(string(updated.Frequency)); err != nil {
		return nil, err
	}
	updated.CustomDates = domain.SortDates(updated.CustomDates)
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updated.UpdatedAt = now
	if params.TouchesSchedule() && updated.IsActive {
		if err := s.schedule(household, &updated, now); err != nil {
			return nil, err
		}
	}

	return s.repo.UpdateReminder(ctx, &updated, current.Version)
}

// DeleteReminder removes a reminder of the household.
func (s *Service) DeleteReminder(ctx context.Context, householdID, id string) error {
	if householdID == "" || id == "" {
		return domain.ErrReminderNotFound
	}
	return s.repo.DeleteReminder(ctx, householdID, id)
}

// PauseReminder stops a reminder from firing until it is resumed.
func (s *Service) PauseReminder(ctx context.Context, householdID, id string, etag *string) (*domain.Reminder, error) {
	current, err := s.GetReminder(ctx, householdID, id)
	if err != nil {
		return nil, err
	}
	if err := checkEtag(current, etag); err != nil {
		return nil, err
	}
	if !current.IsActive {
		return current, nil
	}

	updated := *current
	updated.IsActive = false
	updated.NextRunAt = nil
	updated.UpdatedAt = s.now().UTC()

	return s.repo.UpdateReminder(ctx, &updated, current.Version)
}

// ResumeReminder reactivates a reminder from its next occurrence after now.
// Occurrences missed while paused are not fired.
func (s *Service) ResumeReminder(ctx context.Context, householdID, id string, etag *string) (*domain.Reminder, error) {
	household, err := s.household(ctx, householdID)
	if err != nil {
		return nil, err
	}
	current, err := s.GetReminder(ctx, householdID, id)
	if err != nil {
		return nil, err
	}
	if err := checkEtag(current, etag); err != nil {
		return nil, err
	}

	updated := *current
	now := s.now().UTC()
	updated.IsActive = true
	updated.UpdatedAt = now
	if err := s.schedule(household, &updated, now); err != nil {
		return nil, err
	}
	if !updated.IsActive {
		return nil, domain.ErrNoFutureOccurrence
	}

	return s.repo.UpdateReminder(ctx, &updated, current.Version)
}

// PreviewSchedule returns the next n occurrences of an unsaved schedule.
// When timezone is empty the household zone is used.
func (s *Service) PreviewSchedule(ctx context.Context, householdID string, sched domain.Schedule, timezone string, n int) ([]time.Time, error) {
	if n < 1 || n > recurrence.MaxUpcoming {
		return nil, domain.ErrInvalidPreviewCount
	}

	household, err := s.household(ctx, householdID)
	if err != nil {
		return nil, err
	}

	if err := sched.Validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(timezone) != "" {
		if sched.Location, err = domain.LoadTimezone(timezone); err != nil {
			return nil, err
		}
	} else if sched.Location, err = household.Location(s.config.Location); err != nil {
		return nil, err
	}

	return recurrence.Upcoming(sched, s.now(), n)
}

// HouseholdCalendar renders the household's active reminders as an iCalendar document.
func (s *Service) HouseholdCalendar(ctx context.Context, householdID string) (string, error) {
	household, err := s.household(ctx, householdID)
	if err != nil {
		return "", err
	}

	reminders, err := s.repo.FindActiveReminders(ctx, household.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load reminders: %w", err)
	}

	return calendar.Render(household, reminders, s.now(), s.config.Calendar)
}

func (s *Service) household(ctx context.Context, id string) (*domain.Household, error) {
	if id == "" {
		return nil, domain.ErrHouseholdNotFound
	}
	return s.repo.FindHouseholdByID(ctx, id)
}

// schedule sets next_run_at from now and deactivates the reminder when its
// schedule has nothing left to fire.
func (s *Service) schedule(household *domain.Household, r *domain.Reminder, now time.Time) error {
	next, err := recurrence.NextRun(household, r, s.config.Location, now)
	if err != nil {
		return err
	}
	r.NextRunAt = next
	if next == nil {
		r.IsActive = false
	}
	return nil
}

func checkEtag(r *domain.Reminder, etag *string) error {
	if etag == nil || *etag == "" {
		return nil
	}
	want, err := strconv.Atoi(strings.Trim(*etag, `"`))
	if err != nil || want != r.Version {
		return domain.ErrVersionConflict
	}
	return nil
}
