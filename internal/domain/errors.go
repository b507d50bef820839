package domain

import "errors"

// Domain errors returned by services and repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrHouseholdNotFound indicates the household does not exist.
	ErrHouseholdNotFound = errors.New("household not found")

	// ErrReminderNotFound indicates the reminder does not exist or belongs to another household.
	ErrReminderNotFound = errors.New("reminder not found")

	// ErrDeliveryNotFound indicates the delivery does not exist.
	ErrDeliveryNotFound = errors.New("delivery not found")

	// ErrDeliveryOwnershipLost indicates the delivery lease was taken over by another worker.
	ErrDeliveryOwnershipLost = errors.New("delivery ownership lost")

	// ErrVersionConflict indicates the etag did not match the stored version.
	ErrVersionConflict = errors.New("version conflict")

	// ErrNoFutureOccurrence indicates a reminder cannot be resumed because its schedule has ended.
	ErrNoFutureOccurrence = errors.New("reminder has no future occurrence")
)

// Validation errors.
var (
	ErrTitleRequired       = errors.New("title is required")
	ErrTitleTooLong        = errors.New("title must be 255 characters or less")
	ErrNameRequired        = errors.New("name is required")
	ErrNotesTooLong        = errors.New("notes must be 4000 characters or less")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidTimeOfDay    = errors.New("invalid time of day")
	ErrInvalidDate         = errors.New("invalid date")
	ErrStartDateRequired   = errors.New("start date is required")
	ErrEndBeforeStart      = errors.New("end date must not precede start date")
	ErrInvalidWeekday      = errors.New("invalid weekday")
	ErrWeekdaysRequired    = errors.New("weekly reminders require at least one weekday")
	ErrCustomDatesRequired = errors.New("custom reminders require at least one date")
	ErrTooManyCustomDates  = errors.New("custom reminders accept at most 366 dates")
	ErrInvalidTimezone     = errors.New("invalid timezone")
	ErrInvalidGracePeriod  = errors.New("grace period must be positive")
	ErrInvalidPreviewCount = errors.New("preview count must be between 1 and 100")
	ErrInvalidPageToken    = errors.New("invalid page token")

	ErrDurationEmpty         = errors.New("duration is empty")
	ErrInvalidDurationFormat = errors.New("invalid duration format")

	ErrEmptyUpdateMask = errors.New("update mask is empty")
	ErrUnknownField    = errors.New("unknown field in update mask")
)

// Authentication errors.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidAPIKeyFormat = errors.New("invalid API key format")
)
