package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Household is the tenant every reminder and API key belongs to.
type Household struct {
	ID        string
	Name      string
	Timezone  string // IANA zone name; reminders without their own zone use it
	CreatedAt time.Time
}

// Location resolves the household's zone, falling back to def when unset.
func (h *Household) Location(def *time.Location) (*time.Location, error) {
	if h.Timezone == "" {
		return def, nil
	}
	return LoadTimezone(h.Timezone)
}

// Schedule is everything needed to compute the occurrences of a reminder.
type Schedule struct {
	Frequency   Frequency
	TimeOfDay   TimeOfDay
	StartDate   Date
	EndDate     *Date // Inclusive; nil means open-ended
	DaysOfWeek  WeekdaySet
	CustomDates []Date

	// Location the calendar dates and time of day are interpreted in.
	// Nil means UTC.
	Location *time.Location
}

// Validate enforces the cross-field rules of a schedule.
func (s Schedule) Validate() error {
	if _, err := NewFrequency(string(s.Frequency)); err != nil {
		return err
	}
	if err := s.TimeOfDay.Validate(); err != nil {
		return err
	}
	if s.StartDate.IsZero() {
		return ErrStartDateRequired
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return fmt.Errorf("%w: %s < %s", ErrEndBeforeStart, s.EndDate, s.StartDate)
	}

	switch s.Frequency {
	case FrequencyWeekly:
		if s.DaysOfWeek.IsEmpty() {
			return ErrWeekdaysRequired
		}
	case FrequencyCustom:
		if len(s.CustomDates) == 0 {
			return ErrCustomDatesRequired
		}
		if len(s.CustomDates) > MaxCustomDates {
			return ErrTooManyCustomDates
		}
	}
	return nil
}

// MaxCustomDates bounds the selected date set of a custom reminder.
const MaxCustomDates = 366

// MaxNotesLength bounds the free-form notes of a reminder.
const MaxNotesLength = 4000

// Reminder is an aggregate root: a recurring or one-off nudge for a household.
type Reminder struct {
	ID          string
	HouseholdID string

	Title    string
	Notes    string
	Category Category

	// Schedule fields
	Frequency   Frequency
	TimeOfDay   TimeOfDay
	StartDate   Date
	EndDate     *Date
	DaysOfWeek  WeekdaySet
	CustomDates []Date

	// Timezone overrides the household zone when set (IANA name).
	Timezone *string

	// GracePeriod is how late a delivery may still be sent.
	// Deliveries older than occurs_at + GracePeriod are dead-lettered as expired.
	// Nil means no limit.
	GracePeriod *time.Duration

	IsActive    bool
	NextRunAt   *time.Time
	LastFiredAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Optimistic locking version for concurrent update protection
	Version int
}

// Etag returns the entity tag for this reminder.
// The etag is based on the version number and is used for optimistic concurrency control.
func (r *Reminder) Etag() string {
	return fmt.Sprintf("%d", r.Version)
}

// Schedule returns the recurrence input of the reminder. The reminder's own
// timezone wins over def.
func (r *Reminder) Schedule(def *time.Location) (Schedule, error) {
	loc := def
	if r.Timezone != nil && *r.Timezone != "" {
		l, err := LoadTimezone(*r.Timezone)
		if err != nil {
			return Schedule{}, err
		}
		loc = l
	}

	return Schedule{
		Frequency:   r.Frequency,
		TimeOfDay:   r.TimeOfDay,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		DaysOfWeek:  r.DaysOfWeek,
		CustomDates: r.CustomDates,
		Location:    loc,
	}, nil
}

// Validate checks the reminder's fields and the rules of its schedule.
func (r *Reminder) Validate() error {
	if _, err := NewTitle(r.Title); err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if _, err := NewCategory(string(r.Category)); err != nil {
		return err
	}
	if r.GracePeriod != nil && *r.GracePeriod <= 0 {
		return ErrInvalidGracePeriod
	}
	if r.Timezone != nil && *r.Timezone != "" {
		if _, err := LoadTimezone(*r.Timezone); err != nil {
			return err
		}
	}

	return Schedule{
		Frequency:   r.Frequency,
		TimeOfDay:   r.TimeOfDay,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		DaysOfWeek:  r.DaysOfWeek,
		CustomDates: r.CustomDates,
	}.Validate()
}

// Delivery is an outbox row: one fired occurrence of a reminder waiting to be
// (or already) handed to a notifier.
type Delivery struct {
	ID          string
	ReminderID  string
	HouseholdID string
	OccursAt    time.Time
	Title       string
	Notes       string
	Category    Category

	Status      DeliveryStatus
	Attempts    int
	AvailableAt time.Time
	ExpiresAt   *time.Time // Nil means the delivery never expires

	ClaimedBy  *string
	LeaseUntil *time.Time
	LastError  *string
	DeadReason *string
	SentAt     *time.Time

	CreatedAt time.Time
}

// Expired reports whether the delivery is past its send window at now.
func (d *Delivery) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && now.After(*d.ExpiresAt)
}

// UpdateReminderParams contains parameters for updating a reminder with field mask support.
// Uses client-side optimistic concurrency control via etag (AIP-154).
type UpdateReminderParams struct {
	ReminderID  string
	HouseholdID string

	// Etag for optimistic concurrency control.
	// If provided and doesn't match current version, returns ErrVersionConflict.
	Etag *string

	// UpdateMask specifies which fields to update.
	// Only fields in this list will be modified.
	UpdateMask []string

	// Field values (only applied if field is in UpdateMask)
	Title       *string
	Notes       *string
	Category    *Category
	Frequency   *Frequency
	TimeOfDay   *TimeOfDay
	StartDate   *Date
	EndDate     *Date // Nil with "end_date" in the mask clears it
	DaysOfWeek  *WeekdaySet
	CustomDates *[]Date
	Timezone    *string // Nil with "timezone" in the mask clears it
	GracePeriod *time.Duration
}

// Field names for Reminder update masks.
const (
	FieldTitle       = "title"
	FieldNotes       = "notes"
	FieldCategory    = "category"
	FieldFrequency   = "frequency"
	FieldTimeOfDay   = "time_of_day"
	FieldStartDate   = "start_date"
	FieldEndDate     = "end_date"
	FieldDaysOfWeek  = "days_of_week"
	FieldCustomDates = "custom_dates"
	FieldTimezone    = "timezone"
	FieldGracePeriod = "grace_period"
)

// APIKey represents an API key for authentication.
type APIKey struct {
	ID             string
	HouseholdID    string
	KeyType        string // e.g. "sk"
	Service        string // e.g. "hearth"
	Version        string // e.g. "v1"
	ShortToken     string // hex-encoded hash prefix used for lookup
	LongSecretHash string // BLAKE2b-256 hash of the long secret
	Name           string
	IsActive       bool
	CreatedAt      time.Time
	LastUsedAt     *time.Time
	ExpiresAt      *time.Time
}
