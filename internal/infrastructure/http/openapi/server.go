package openapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// List reminders
	// (GET /reminders)
	ListReminders(w http.ResponseWriter, r *http.Request, params ListRemindersParams)
	// Create a reminder
	// (POST /reminders)
	CreateReminder(w http.ResponseWriter, r *http.Request)
	// Preview the next occurrences of an unsaved schedule
	// (POST /reminders/preview)
	PreviewReminder(w http.ResponseWriter, r *http.Request)
	// Delete a reminder
	// (DELETE /reminders/{id})
	DeleteReminder(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// Get a reminder
	// (GET /reminders/{id})
	GetReminder(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// Update a reminder
	// (PATCH /reminders/{id})
	UpdateReminder(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// Pause a reminder
	// (POST /reminders/{id}/pause)
	PauseReminder(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// Resume a reminder
	// (POST /reminders/{id}/resume)
	ResumeReminder(w http.ResponseWriter, r *http.Request, id openapi_types.UUID)
	// Household iCalendar feed
	// (GET /calendar.ics)
	GetCalendar(w http.ResponseWriter, r *http.Request)
}

// MiddlewareFunc wraps a single operation handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts request parameters to typed arguments.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	var handler http.Handler = h
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) bindID(w http.ResponseWriter, r *http.Request) (openapi_types.UUID, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return id, false
	}
	return id, true
}

// ListReminders operation middleware
func (siw *ServerInterfaceWrapper) ListReminders(w http.ResponseWriter, r *http.Request) {
	var params ListRemindersParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "page_size", query, &params.PageSize); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "page_size", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "page_token", query, &params.PageToken); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "page_token", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "active", query, &params.Active); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "active", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "category", query, &params.Category); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "category", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListReminders(w, r, params)
	})
}

// CreateReminder operation middleware
func (siw *ServerInterfaceWrapper) CreateReminder(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CreateReminder)
}

// PreviewReminder operation middleware
func (siw *ServerInterfaceWrapper) PreviewReminder(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.PreviewReminder)
}

// GetCalendar operation middleware
func (siw *ServerInterfaceWrapper) GetCalendar(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetCalendar)
}

// withID binds the {id} path parameter before calling fn.
func (siw *ServerInterfaceWrapper) withID(fn func(http.ResponseWriter, *http.Request, openapi_types.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := siw.bindID(w, r)
		if !ok {
			return
		}
		siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, id)
		})
	}
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	base := options.BaseURL
	r.Group(func(r chi.Router) {
		r.Get(base+"/reminders", wrapper.ListReminders)
		r.Post(base+"/reminders", wrapper.CreateReminder)
		r.Post(base+"/reminders/preview", wrapper.PreviewReminder)
		r.Get(base+"/reminders/{id}", wrapper.withID(si.GetReminder))
		r.Patch(base+"/reminders/{id}", wrapper.withID(si.UpdateReminder))
		r.Delete(base+"/reminders/{id}", wrapper.withID(si.DeleteReminder))
		r.Post(base+"/reminders/{id}/pause", wrapper.withID(si.PauseReminder))
		r.Post(base+"/reminders/{id}/resume", wrapper.withID(si.ResumeReminder))
		r.Get(base+"/calendar.ics", wrapper.GetCalendar)
	})
	return r
}
