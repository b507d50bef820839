package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
	"github.com/rezkam/hearth/internal/infrastructure/http/response"
)

// ValidationConfig holds configuration for the OpenAPI validation middleware.
type ValidationConfig struct {
	// BasePath is the prefix the API is mounted under, e.g. "/api/v1".
	BasePath string

	// MultiError when true collects all validation errors instead of stopping at first.
	MultiError bool
}

// NewValidator creates OpenAPI request validation middleware.
// Invalid requests get 400 with one detail per offending field.
//
// Authentication is handled by the Auth middleware, so OpenAPI security
// requirements are not checked here.
func NewValidator(spec *openapi3.T, config ValidationConfig) func(http.Handler) http.Handler {
	// Relative server URL: match on path only, never on host.
	spec.Servers = openapi3.Servers{{URL: config.BasePath}}

	opts := &nethttpmiddleware.Options{
		Options: openapi3filter.Options{
			MultiError: config.MultiError,
			AuthenticationFunc: func(_ context.Context, _ *openapi3filter.AuthenticationInput) error {
				return nil
			},
		},
		ErrorHandlerWithOpts:  validationErrorHandler,
		SilenceServersWarning: true,
	}

	return nethttpmiddleware.OapiRequestValidatorWithOptions(spec, opts)
}

func validationErrorHandler(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, opts nethttpmiddleware.ErrorHandlerOpts) {
	details := fieldDetails(err)

	slog.WarnContext(ctx, "request validation failed",
		"path", r.URL.Path,
		"method", r.Method,
		"status", opts.StatusCode,
		"invalid_field_count", len(details),
		"error", err)

	switch opts.StatusCode {
	case http.StatusNotFound:
		response.Error(w, "NOT_FOUND", "no such route", http.StatusNotFound)
	case http.StatusMethodNotAllowed:
		response.Error(w, "METHOD_NOT_ALLOWED", "method not allowed", http.StatusMethodNotAllowed)
	default:
		response.ValidationErrors(w, details)
	}
}

// fieldDetails flattens a kin-openapi validation error into field/issue pairs.
func fieldDetails(err error) []response.ErrorField {
	details := []response.ErrorField{}
	collectDetails(err, "", &details)
	return details
}

func collectDetails(err error, field string, out *[]response.ErrorField) {
	switch e := err.(type) {
	case nil:
		return
	case openapi3.MultiError:
		for _, inner := range e {
			collectDetails(inner, field, out)
		}
		return
	case *openapi3filter.RequestError:
		switch {
		case e.Parameter != nil:
			*out = append(*out, response.ErrorField{Field: e.Parameter.Name, Issue: requestIssue(e)})
		case e.Err != nil:
			collectDetails(e.Err, "body", out)
		default:
			*out = append(*out, response.ErrorField{Field: "body", Issue: requestIssue(e)})
		}
		return
	case *openapi3.SchemaError:
		name := field
		if ptr := e.JSONPointer(); len(ptr) > 0 {
			name = strings.Join(ptr, ".")
		}
		*out = append(*out, response.ErrorField{Field: name, Issue: e.Reason})
		return
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		collectDetails(schemaErr, field, out)
		return
	}
	if field == "" {
		field = "request"
	}
	*out = append(*out, response.ErrorField{Field: field, Issue: firstLine(err.Error())})
}

func requestIssue(e *openapi3filter.RequestError) string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return firstLine(e.Err.Error())
	}
	return "invalid request"
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
