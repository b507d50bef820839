package auth

import (
	"context"
	"time"

	"github.com/rezkam/hearth/internal/domain"
)

// Repository defines storage operations for authentication.
type Repository interface {
	// FindByShortToken retrieves an API key by its short token for validation.
	// Returns domain.ErrNotFound if no key has the token.
	FindByShortToken(ctx context.Context, shortToken string) (*domain.APIKey, error)

	// UpdateLastUsed updates the last used timestamp for an API key.
	UpdateLastUsed(ctx context.Context, keyID string, timestamp time.Time) error

	// Create creates a new API key.
	// Returns domain.ErrHouseholdNotFound when the owning household doesn't exist.
	Create(ctx context.Context, key *domain.APIKey) error
}
