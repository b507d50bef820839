package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rezkam/hearth/internal/application/auth"
	"github.com/rezkam/hearth/internal/application/reminder"
	mw "github.com/rezkam/hearth/internal/infrastructure/http/middleware"
	"github.com/rezkam/hearth/internal/infrastructure/http/openapi"
	"github.com/rezkam/hearth/internal/infrastructure/http/response"
)

// BasePath is where the API router is mounted.
const BasePath = "/api/v1"

// ReminderHandler adapts HTTP requests to reminder service calls.
type ReminderHandler struct {
	service *reminder.Service
}

// NewReminderHandler creates a new HTTP API handler.
func NewReminderHandler(service *reminder.Service) *ReminderHandler {
	return &ReminderHandler{service: service}
}

// NewOpenAPIRouter creates the API handler with OpenAPI request validation.
// Both production code and tests use it so routing and validation are identical.
func NewOpenAPIRouter(service *reminder.Service) (http.Handler, error) {
	h := NewReminderHandler(service)

	spec, err := openapi.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	r := chi.NewRouter()
	r.Use(mw.NewValidator(spec, mw.ValidationConfig{BasePath: BasePath, MultiError: true}))

	return openapi.HandlerWithOptions(h, openapi.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: paramError,
	}), nil
}

var _ openapi.ServerInterface = (*ReminderHandler)(nil)

// paramError reports a path or query parameter that does not bind to its type.
func paramError(w http.ResponseWriter, _ *http.Request, err error) {
	var perr *openapi.InvalidParamFormatError
	if errors.As(err, &perr) {
		response.ValidationError(w, perr.ParamName, "invalid format")
		return
	}
	response.BadRequest(w, err.Error())
}

// householdID returns the authenticated household or writes 401.
func householdID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok || p.HouseholdID == "" {
		response.Unauthorized(w, "missing credentials")
		return "", false
	}
	return p.HouseholdID, true
}
