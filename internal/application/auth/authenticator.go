package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/infrastructure/keygen"
)

// Default configuration values.
const (
	DefaultOperationTimeout = 5 * time.Second
	DefaultUpdateQueueSize  = 1000
)

// Config holds configuration for the Authenticator.
type Config struct {
	OperationTimeout time.Duration // Timeout for storage operations
	UpdateQueueSize  int           // Buffer size for last_used_at updates
}

// Principal is the authenticated caller of a request.
type Principal struct {
	KeyID       string
	HouseholdID string
}

// lastUsedUpdate holds information for updating an API key's last_used_at timestamp.
type lastUsedUpdate struct {
	keyID     string
	timestamp time.Time
}

// Authenticator validates household API keys.
type Authenticator struct {
	repo             Repository
	appCtx           context.Context // Application context, cancelled on shutdown
	lastUsedUpdates  chan lastUsedUpdate
	shutdownChan     chan struct{}
	shutdownOnce     sync.Once
	wg               sync.WaitGroup
	operationTimeout time.Duration
	now              func() time.Time
}

// Option is a functional option for configuring Authenticator.
type Option func(*Authenticator)

// WithClock sets the clock used for expiry checks and last_used_at.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// NewAuthenticator creates a new authenticator and starts the background worker
// for processing last_used_at updates.
// The ctx parameter should be an application-level context that gets cancelled on shutdown.
// Zero OperationTimeout means no timeout; negative gets the default.
func NewAuthenticator(ctx context.Context, repo Repository, config Config, opts ...Option) *Authenticator {
	if config.OperationTimeout < 0 {
		config.OperationTimeout = DefaultOperationTimeout
	}
	if config.UpdateQueueSize <= 0 {
		config.UpdateQueueSize = DefaultUpdateQueueSize
	}

	a := &Authenticator{
		repo:             repo,
		appCtx:           ctx,
		lastUsedUpdates:  make(chan lastUsedUpdate, config.UpdateQueueSize),
		shutdownChan:     make(chan struct{}),
		operationTimeout: config.OperationTimeout,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.wg.Go(a.processLastUsedUpdates)
	return a
}

func (a *Authenticator) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if a.operationTimeout == 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, a.operationTimeout)
}

// processLastUsedUpdates writes queued last_used_at updates until shutdown,
// then drains what is left.
func (a *Authenticator) processLastUsedUpdates() {
	for {
		select {
		case update := <-a.lastUsedUpdates:
			ctx, cancel := a.withTimeout(a.appCtx)
			if err := a.repo.UpdateLastUsed(ctx, update.keyID, update.timestamp); err != nil {
				slog.WarnContext(ctx, "Failed to update API key last_used_at",
					slog.String("key_id", update.keyID),
					slog.String("error", err.Error()))
			}
			cancel()

		case <-a.shutdownChan:
			for {
				select {
				case update := <-a.lastUsedUpdates:
					// appCtx is already cancelled at this point.
					ctx, cancel := a.withTimeout(context.Background())
					_ = a.repo.UpdateLastUsed(ctx, update.keyID, update.timestamp)
					cancel()
				default:
					return
				}
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it to drain the queue,
// bounded by ctx. Safe to call multiple times.
func (a *Authenticator) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.shutdownOnce.Do(func() {
		close(a.shutdownChan)

		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			shutdownErr = fmt.Errorf("shutdown timeout: %w", ctx.Err())
		}
	})
	return shutdownErr
}

// Authenticate validates an API key and returns the household it belongs to.
// Returns domain.ErrUnauthorized if the key is malformed, unknown, revoked or expired.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (*Principal, error) {
	parts, err := keygen.Parse(apiKey)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	opCtx, cancel := a.withTimeout(ctx)
	defer cancel()

	key, err := a.repo.FindByShortToken(opCtx, parts.ShortToken)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	// Verify the secret using BLAKE2b-256 with constant-time comparison
	providedHash := keygen.HashSecret(parts.Secret)
	var match bool
	subtle.WithDataIndependentTiming(func() {
		match = subtle.ConstantTimeCompare([]byte(key.LongSecretHash), []byte(providedHash)) == 1
	})
	if !match {
		return nil, domain.ErrUnauthorized
	}

	now := a.now().UTC()
	if !key.IsActive || key.HouseholdID == "" {
		return nil, domain.ErrUnauthorized
	}
	if key.ExpiresAt != nil && !key.ExpiresAt.After(now) {
		return nil, domain.ErrUnauthorized
	}

	// Non-blocking: a full queue drops the update.
	select {
	case a.lastUsedUpdates <- lastUsedUpdate{keyID: key.ID, timestamp: now}:
	default:
		slog.WarnContext(ctx, "Dropped last_used_at update due to full queue",
			slog.String("key_id", key.ID))
	}

	return &Principal{KeyID: key.ID, HouseholdID: key.HouseholdID}, nil
}

// CreateKeyParams describes a new API key.
type CreateKeyParams struct {
	HouseholdID string
	Name        string
	KeyType     string // Default keygen.DefaultKeyType
	ExpiresAt   *time.Time
	Now         time.Time
}

// CreateAPIKey creates a new API key for a household and returns the plain key.
// The plain key is never stored and cannot be recovered later.
func CreateAPIKey(ctx context.Context, repo Repository, params CreateKeyParams) (string, *domain.APIKey, error) {
	if params.HouseholdID == "" {
		return "", nil, domain.ErrHouseholdNotFound
	}
	if params.KeyType == "" {
		params.KeyType = keygen.DefaultKeyType
	}
	if params.ExpiresAt != nil && !params.ExpiresAt.After(params.Now) {
		return "", nil, fmt.Errorf("%w: expiry must be in the future", domain.ErrInvalidDate)
	}

	parts, err := keygen.Generate(params.KeyType, keygen.DefaultService, keygen.DefaultVersion)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate API key: %w", err)
	}

	keyID, err := uuid.NewV7()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate key ID: %w", err)
	}

	key := &domain.APIKey{
		ID:             keyID.String(),
		HouseholdID:    params.HouseholdID,
		KeyType:        parts.KeyType,
		Service:        parts.Service,
		Version:        parts.Version,
		ShortToken:     parts.ShortToken,
		LongSecretHash: keygen.HashSecret(parts.Secret),
		Name:           params.Name,
		IsActive:       true,
		CreatedAt:      params.Now.UTC(),
		ExpiresAt:      params.ExpiresAt,
	}
	if err := repo.Create(ctx, key); err != nil {
		return "", nil, fmt.Errorf("failed to create API key: %w", err)
	}

	return parts.FullKey, key, nil
}
