package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime/types"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/infrastructure/http/openapi"
	"github.com/rezkam/hearth/internal/infrastructure/http/response"
)

// DefaultPreviewCount is used when a preview request has no count.
const DefaultPreviewCount = 5

// CreateReminder implements ServerInterface.CreateReminder.
// POST /api/v1/reminders
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	hh, ok := householdID(w, r)
	if !ok {
		return
	}

	var req openapi.CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	sched, err := parseSchedule(req.Schedule)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	grace, err := parseGracePeriod(req.GracePeriod)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	rem := &domain.Reminder{
		Title:       req.Title,
		Category:    domain.CategoryGeneral,
		Frequency:   sched.Frequency,
		TimeOfDay:   sched.TimeOfDay,
		StartDate:   sched.StartDate,
		EndDate:     sched.EndDate,
		DaysOfWeek:  sched.DaysOfWeek,
		CustomDates: sched.CustomDates,
		Timezone:    optionalTimezone(req.Timezone),
		GracePeriod: grace,
	}
	if req.Notes != nil {
		rem.Notes = *req.Notes
	}
	if req.Category != nil {
		rem.Category = domain.Category(*req.Category)
	}

	created, err := h.service.CreateReminder(r.Context(), hh, rem)
	if err != nil {
		slog.WarnContext(r.Context(), "failed to create reminder via HTTP",
			"household_id", hh,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	dto := MapReminderToDTO(created)
	response.Created(w, openapi.ReminderResponse{Reminder: &dto})
}

// ListReminders implements ServerInterface.ListReminders.
// GET /api/v1/reminders
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request, params openapi.ListRemindersParams) {
	hh, ok := householdID(w, r)
	if !ok {
		return
	}

	var token string
	if params.PageToken != nil {
		token = *params.PageToken
	}
	offset, err := parsePageToken(token)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	query := domain.ListRemindersParams{HouseholdID: hh, Offset: offset, Active: params.Active}
	if params.PageSize != nil {
		query.Limit = *params.PageSize
	}
	if params.Category != nil {
		category, err := domain.NewCategory(*params.Category)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		query.Category = &category
	}

	page, err := h.service.ListReminders(r.Context(), query)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	resp := openapi.ListRemindersResponse{
		Reminders:     make([]openapi.Reminder, 0, len(page.Items)),
		NextPageToken: generatePageToken(offset+len(page.Items), page.HasMore),
		TotalCount:    page.TotalCount,
	}
	for i := range page.Items {
		resp.Reminders = append(resp.Reminders, MapReminderToDTO(&page.Items[i]))
	}
	response.OK(w, resp)
}

// GetReminder implements ServerInterface.GetReminder.
// GET /api/v1/reminders/{id}
func (h *ReminderHandler) GetReminder(w http.ResponseWriter, r *http.Request, id types.UUID) {
	hh, ok := householdID(w, r)
	if !ok {
		return
	}

	rem, err := h.service.GetReminder(r.Context(), hh, id.String())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dto := MapReminderToDTO(rem)
	response.OK(w, openapi.ReminderResponse{Reminder: &dto})
}

// UpdateReminder implements ServerInterface.UpdateReminder.
// PATCH /api/v1/reminders/{id}
func (h *ReminderHandler) UpdateReminder(w http.ResponseWriter, r *http.Request, id types.UUID) {
	hh, ok := householdID(w, r)
	if !ok {
		return
	}

	var req openapi.UpdateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	params, err := buildUpdateParams(hh, id.String(), req)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	updated, err := h.service.UpdateReminder(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dto := MapReminderToDTO(updated)
	response.OK(w, openapi.ReminderResponse{Reminder: &dto})
}

// buildUpdateParams copies the masked fields of the patch into update params.
// Fields outside the mask are ignored even when present.
func buildUpdateParams(householdID, id string, req openapi.UpdateReminderRequest) (domain.UpdateReminderParams, error) {
	p := req.Reminder
	params := domain.UpdateReminderParams{
		ReminderID:  id,
		HouseholdID: householdID,
		Etag:        p.Etag,
		UpdateMask:  req.UpdateMask,
	}

	var err error
	for _, field := range req.UpdateMask {
		switch field {
		case domain.FieldTitle:
			params.Title = p.Title
		case domain.FieldNotes:
			params.Notes = p.Notes
		case domain.FieldCategory:
			if p.Category != nil {
				c, err := domain.NewCategory(*p.Category)
				if err != nil {
					return params, err
				}
				params.Category = &c
			}
		case domain.FieldFrequency:
			if p.Frequency != nil {
				f, err := domain.NewFrequency(*p.Frequency)
				if err != nil {
					return params, err
				}
				params.Frequency = &f
			}
		case domain.FieldTimeOfDay:
			if p.TimeOfDay != nil {
				t, err := domain.ParseTimeOfDay(*p.TimeOfDay)
				if err != nil {
					return params, err
				}
				params.TimeOfDay = &t
			}
		case domain.FieldStartDate:
			if p.StartDate != nil {
				d, err := parseDate(*p.StartDate)
				if err != nil {
					return params, err
				}
				params.StartDate = &d
			}
		case domain.FieldEndDate:
			if params.EndDate, err = parseOptionalDate(p.EndDate); err != nil {
				return params, err
			}
		case domain.FieldDaysOfWeek:
			if p.DaysOfWeek != nil {
				set, err := domain.ParseWeekdaySet(*p.DaysOfWeek)
				if err != nil {
					return params, err
				}
				params.DaysOfWeek = &set
			}
		case domain.FieldCustomDates:
			if p.CustomDates != nil {
				dates, err := parseDates(*p.CustomDates)
				if err != nil {
					return params, err
				}
				params.CustomDates = &dates
			}
		case domain.FieldTimezone:
			params.Timezone = optionalTimezone(p.Timezone)
		case domain.FieldGracePeriod:
			if params.GracePeriod, err = parseGracePeriod(p.GracePeriod); err != nil {
				return params, err
			}
		}
	}
	return params, nil
}

// DeleteReminder implements ServerInterface.DeleteReminder.
// DELETE /api/v1/reminders/{id}
func (h *ReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request, id types.UUID) {
	hh, ok := householdID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteReminder(r.Context(), hh, id.String()); err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.NoContent(w)
}

// PauseReminder implements ServerInterface.PauseReminder.
// POST /api/v1/reminders/{id}/pause
func (h *ReminderHandler) PauseReminder(w http.ResponseWriter, r *http.Request, id types.UUID) {
	hh, ok := householdID(w, r)
	if !ok {
		return
	}
	etag, ok := decodeStateChange(w, r)
	if !ok {
		return
	}

	rem, err := h.service.PauseReminder(r.Context(), hh, id.String(), etag)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dto := MapReminderToDTO(rem)
	response.OK(w, openapi.ReminderResponse{Reminder: &dto})
}

// ResumeReminder implements ServerInterface.ResumeReminder.
// POST /api/v1/reminders/{id}/resume
func (h *ReminderHandler) ResumeReminder(w http.ResponseWriter, r *http.Request, id types.UUID) {
	hh, ok := householdID(w, r)
	if !ok {
		return
	}
	etag, ok := decodeStateChange(w, r)
	if !ok {
		return
	}

	rem, err := h.service.ResumeReminder(r.Context(), hh, id.String(), etag)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dto := MapReminderToDTO(rem)
	response.OK(w, openapi.ReminderResponse{Reminder: &dto})
}

// decodeStateChange reads the optional etag of pause and resume. The
// If-Match header is honoured when the body carries none.
func decodeStateChange(w http.ResponseWriter, r *http.Request) (*string, bool) {
	var req openapi.StateChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid JSON")
		return nil, false
	}
	if req.Etag == nil {
		if m := r.Header.Get("If-Match"); m != "" {
			req.Etag = &m
		}
	}
	return req.Etag, true
}

// PreviewReminder implements ServerInterface.PreviewReminder.
// POST /api/v1/reminders/preview
func (h *ReminderHandler) PreviewReminder(w http.ResponseWriter, r *http.Request) {
	hh, ok := householdID(w, r)
	if !ok {
		return
	}

	var req openapi.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	sched, err := parseSchedule(req.Schedule)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	count := DefaultPreviewCount
	if req.Count != nil {
		count = *req.Count
	}
	tz := ""
	if req.Schedule.Timezone != nil {
		tz = *req.Schedule.Timezone
	}

	occurrences, err := h.service.PreviewSchedule(r.Context(), hh, sched, tz, count)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	if occurrences == nil {
		occurrences = []time.Time{}
	}
	response.OK(w, openapi.PreviewResponse{Occurrences: occurrences})
}

// GetCalendar implements ServerInterface.GetCalendar.
// GET /api/v1/calendar.ics
func (h *ReminderHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	hh, ok := householdID(w, r)
	if !ok {
		return
	}

	doc, err := h.service.HouseholdCalendar(r.Context(), hh)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="reminders.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, doc); err != nil {
		slog.ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}
