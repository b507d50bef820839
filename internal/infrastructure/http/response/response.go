// Package response writes JSON success and error bodies for the REST API.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rezkam/hearth/internal/domain"
)

// encodeFailureJSON is written when a response body cannot be marshaled.
const encodeFailureJSON = `{"error":{"code":"INTERNAL_ERROR","message":"failed to encode response","details":[]}}`

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details"` // Always an array, never null
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// writeJSON marshals before writing so a failed encode can still become a 500.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(encodeFailureJSON))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// OK sends a 200 OK response with JSON data.
func OK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

// Created sends a 201 Created response with JSON data.
func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, data)
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: []ErrorField{}},
	})
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error with field details.
func ValidationError(w http.ResponseWriter, field, issue string) {
	ValidationErrors(w, []ErrorField{{Field: field, Issue: issue}})
}

// ValidationErrors sends a 400 validation error with several field details.
func ValidationErrors(w http.ResponseWriter, details []ErrorField) {
	if details == nil {
		details = []ErrorField{}
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{Code: "VALIDATION_ERROR", Message: "validation failed", Details: details},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Unauthorized sends a 401 Unauthorized error.
func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="hearth"`)
	Error(w, "UNAUTHORIZED", message, http.StatusUnauthorized)
}

// Conflict sends a 409 Conflict error.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, "CONFLICT", message, http.StatusConflict)
}

// TooManyRequests sends a 429 error.
func TooManyRequests(w http.ResponseWriter) {
	Error(w, "RATE_LIMITED", "too many requests", http.StatusTooManyRequests)
}

// PayloadTooLarge sends a 413 error.
func PayloadTooLarge(w http.ResponseWriter) {
	Error(w, "PAYLOAD_TOO_LARGE", "request body exceeds size limit", http.StatusRequestEntityTooLarge)
}

// InternalError sends a 500 Internal Server Error.
// The error is logged server-side; the client only gets a generic message.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "internal server error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// fieldErrors maps validation sentinels to the request field they concern.
var fieldErrors = []struct {
	err   error
	field string
}{
	{domain.ErrTitleRequired, "title"},
	{domain.ErrTitleTooLong, "title"},
	{domain.ErrNotesTooLong, "notes"},
	{domain.ErrInvalidCategory, "category"},
	{domain.ErrInvalidFrequency, "frequency"},
	{domain.ErrInvalidTimeOfDay, "time_of_day"},
	{domain.ErrStartDateRequired, "start_date"},
	{domain.ErrEndBeforeStart, "end_date"},
	{domain.ErrInvalidDate, "date"},
	{domain.ErrInvalidWeekday, "days_of_week"},
	{domain.ErrWeekdaysRequired, "days_of_week"},
	{domain.ErrCustomDatesRequired, "custom_dates"},
	{domain.ErrTooManyCustomDates, "custom_dates"},
	{domain.ErrInvalidTimezone, "timezone"},
	{domain.ErrInvalidGracePeriod, "grace_period"},
	{domain.ErrDurationEmpty, "grace_period"},
	{domain.ErrInvalidDurationFormat, "grace_period"},
	{domain.ErrInvalidPreviewCount, "count"},
	{domain.ErrInvalidPageToken, "page_token"},
	{domain.ErrEmptyUpdateMask, "update_mask"},
	{domain.ErrUnknownField, "update_mask"},
	{domain.ErrNameRequired, "name"},
	{domain.ErrInvalidID, "id"},
}

// FromDomainError maps domain errors to HTTP responses.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			ValidationError(w, fe.field, err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrReminderNotFound):
		NotFound(w, "reminder")
	case errors.Is(err, domain.ErrHouseholdNotFound):
		NotFound(w, "household")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")

	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidAPIKeyFormat):
		Unauthorized(w, "invalid or missing API key")

	case errors.Is(err, domain.ErrVersionConflict):
		Conflict(w, "reminder was modified concurrently, reload and retry")
	case errors.Is(err, domain.ErrNoFutureOccurrence):
		Conflict(w, err.Error())

	default:
		InternalError(w, r, err)
	}
}
