package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rezkam/hearth/internal/domain"
)

// === Auth Repository Implementation ===
// Implements application/auth.Repository interface (3 methods)

// FindByShortToken retrieves an API key by its short token for validation.
func (s *Store) FindByShortToken(ctx context.Context, shortToken string) (*domain.APIKey, error) {
	var (
		id, hh           pgtype.UUID
		key              domain.APIKey
		lastUsed, expiry pgtype.Timestamptz
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, household_id, key_type, service, version, short_token, long_secret_hash,
			name, is_active, created_at, last_used_at, expires_at
		FROM api_keys WHERE short_token = $1`, shortToken).Scan(
		&id, &hh, &key.KeyType, &key.Service, &key.Version, &key.ShortToken, &key.LongSecretHash,
		&key.Name, &key.IsActive, &key.CreatedAt, &lastUsed, &expiry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: API key", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	key.ID = pgtypeToUUIDString(id)
	key.HouseholdID = pgtypeToUUIDString(hh)
	key.CreatedAt = key.CreatedAt.UTC()
	key.LastUsedAt = pgtypeToTimePtr(lastUsed)
	key.ExpiresAt = pgtypeToTimePtr(expiry)
	return &key, nil
}

// UpdateLastUsed moves last_used_at forward; an older timestamp is ignored.
// Returns ErrNotFound if the API key doesn't exist.
func (s *Store) UpdateLastUsed(ctx context.Context, keyID string, timestamp time.Time) error {
	id, err := parseID(keyID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE api_keys SET last_used_at = $2
		WHERE id = $1 AND (last_used_at IS NULL OR last_used_at < $2)`, id, timestamp)
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Either key doesn't exist OR timestamp wasn't later
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM api_keys WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check key existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: API key", domain.ErrNotFound)
	}
	return nil
}

// Create creates a new API key in storage.
func (s *Store) Create(ctx context.Context, key *domain.APIKey) error {
	id, err := parseID(key.ID)
	if err != nil {
		return err
	}
	hh, err := parseID(key.HouseholdID)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrHouseholdNotFound, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO api_keys (
			id, household_id, key_type, service, version, short_token, long_secret_hash,
			name, is_active, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, hh, key.KeyType, key.Service, key.Version, key.ShortToken, key.LongSecretHash,
		key.Name, key.IsActive, key.CreatedAt, timePtrToPgtype(key.ExpiresAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrHouseholdNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("API key short token collision: %w", err)
		}
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}
