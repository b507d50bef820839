package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rezkam/hearth/internal/application/auth"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/infrastructure/http/response"
)

// Authenticator resolves an API key to the household it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*auth.Principal, error)
}

// Auth is HTTP middleware for API key authentication.
type Auth struct {
	authenticator Authenticator
}

// NewAuth creates a new auth middleware.
func NewAuth(authenticator Authenticator) *Auth {
	return &Auth{authenticator: authenticator}
}

// Validate is a Chi middleware that validates API keys from Authorization header.
// Expects format: "Authorization: Bearer <api-key>". The authenticated
// principal is stored in the request context (see auth.FromContext).
func (a *Auth) Validate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			slog.WarnContext(ctx, "authentication failed: missing Authorization header",
				"path", r.URL.Path,
				"method", r.Method)
			response.Unauthorized(w, "missing Authorization header")
			return
		}

		apiKey, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			slog.WarnContext(ctx, "authentication failed: invalid Authorization header format",
				"path", r.URL.Path,
				"method", r.Method)
			response.Unauthorized(w, "invalid Authorization header format, expected: Bearer <token>")
			return
		}

		principal, err := a.authenticator.Authenticate(ctx, strings.TrimSpace(apiKey))
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				slog.WarnContext(ctx, "authentication failed: invalid or expired API key",
					"path", r.URL.Path,
					"method", r.Method)
			} else {
				slog.ErrorContext(ctx, "authentication failed: unexpected error",
					"path", r.URL.Path,
					"method", r.Method,
					"error", err)
			}
			response.Unauthorized(w, "invalid or expired API key")
			return
		}

		slog.DebugContext(ctx, "authentication successful",
			"path", r.URL.Path,
			"method", r.Method,
			"key_id", principal.KeyID,
			"household_id", principal.HouseholdID)

		next.ServeHTTP(w, r.WithContext(auth.NewContext(ctx, principal)))
	})
}
