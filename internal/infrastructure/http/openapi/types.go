package openapi

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Schedule is the recurrence part of a reminder.
type Schedule struct {
	Frequency   string                `json:"frequency"`
	TimeOfDay   string                `json:"time_of_day"`
	StartDate   openapi_types.Date    `json:"start_date"`
	EndDate     *openapi_types.Date   `json:"end_date,omitempty"`
	DaysOfWeek  *[]string             `json:"days_of_week,omitempty"`
	CustomDates *[]openapi_types.Date `json:"custom_dates,omitempty"`
	Timezone    *string               `json:"timezone,omitempty"`
}

// CreateReminderRequest defines model for CreateReminderRequest.
type CreateReminderRequest struct {
	Schedule

	Title       string  `json:"title"`
	Notes       *string `json:"notes,omitempty"`
	Category    *string `json:"category,omitempty"`
	GracePeriod *string `json:"grace_period,omitempty"`
}

// ReminderPatch carries the new field values of an update.
type ReminderPatch struct {
	Etag        *string               `json:"etag,omitempty"`
	Title       *string               `json:"title,omitempty"`
	Notes       *string               `json:"notes,omitempty"`
	Category    *string               `json:"category,omitempty"`
	Frequency   *string               `json:"frequency,omitempty"`
	TimeOfDay   *string               `json:"time_of_day,omitempty"`
	StartDate   *openapi_types.Date   `json:"start_date,omitempty"`
	EndDate     *openapi_types.Date   `json:"end_date,omitempty"`
	DaysOfWeek  *[]string             `json:"days_of_week,omitempty"`
	CustomDates *[]openapi_types.Date `json:"custom_dates,omitempty"`
	Timezone    *string               `json:"timezone,omitempty"`
	GracePeriod *string               `json:"grace_period,omitempty"`
}

// UpdateReminderRequest defines model for UpdateReminderRequest.
type UpdateReminderRequest struct {
	Reminder   ReminderPatch `json:"reminder"`
	UpdateMask []string      `json:"update_mask"`
}

// StateChangeRequest is the optional body of pause and resume.
type StateChangeRequest struct {
	Etag *string `json:"etag,omitempty"`
}

// PreviewRequest defines model for PreviewRequest.
type PreviewRequest struct {
	Schedule Schedule `json:"schedule"`
	Count    *int     `json:"count,omitempty"`
}

// PreviewResponse defines model for PreviewResponse.
type PreviewResponse struct {
	Occurrences []time.Time `json:"occurrences"`
}

// Reminder defines model for Reminder.
type Reminder struct {
	Id          openapi_types.UUID   `json:"id"`
	Title       string               `json:"title"`
	Notes       string               `json:"notes"`
	Category    string               `json:"category"`
	Frequency   string               `json:"frequency"`
	TimeOfDay   string               `json:"time_of_day"`
	StartDate   openapi_types.Date   `json:"start_date"`
	EndDate     *openapi_types.Date  `json:"end_date,omitempty"`
	DaysOfWeek  []string             `json:"days_of_week"`
	CustomDates []openapi_types.Date `json:"custom_dates"`
	Timezone    *string              `json:"timezone,omitempty"`
	GracePeriod *string              `json:"grace_period,omitempty"`
	IsActive    bool                 `json:"is_active"`
	NextRunAt   *time.Time           `json:"next_run_at,omitempty"`
	LastFiredAt *time.Time           `json:"last_fired_at,omitempty"`
	Etag        string               `json:"etag"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ReminderResponse wraps a single reminder.
type ReminderResponse struct {
	Reminder *Reminder `json:"reminder,omitempty"`
}

// ListRemindersResponse defines model for ListRemindersResponse.
type ListRemindersResponse struct {
	Reminders     []Reminder `json:"reminders"`
	NextPageToken *string    `json:"next_page_token,omitempty"`
	TotalCount    int        `json:"total_count"`
}

// ListRemindersParams defines parameters for ListReminders.
type ListRemindersParams struct {
	PageSize  *int    `form:"page_size,omitempty" json:"page_size,omitempty"`
	PageToken *string `form:"page_token,omitempty" json:"page_token,omitempty"`
	Active    *bool   `form:"active,omitempty" json:"active,omitempty"`
	Category  *string `form:"category,omitempty" json:"category,omitempty"`
}
