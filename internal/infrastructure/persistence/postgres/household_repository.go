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

// === Household Repository Implementation ===

const householdColumns = `id, name, timezone, created_at`

func scanHousehold(row pgx.Row) (*domain.Household, error) {
	var (
		id        pgtype.UUID
		h         domain.Household
		createdAt time.Time
	)
	if err := row.Scan(&id, &h.Name, &h.Timezone, &createdAt); err != nil {
		return nil, err
	}
	h.ID = pgtypeToUUIDString(id)
	h.CreatedAt = createdAt.UTC()
	return &h, nil
}

// CreateHousehold persists a new household.
func (s *Store) CreateHousehold(ctx context.Context, h *domain.Household) error {
	id, err := parseID(h.ID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO households (id, name, timezone, created_at) VALUES ($1, $2, $3, $4)`,
		id, h.Name, h.Timezone, h.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("household %s already exists: %w", h.ID, err)
		}
		return fmt.Errorf("failed to create household: %w", err)
	}
	return nil
}

// FindHouseholdByID returns domain.ErrHouseholdNotFound if the household doesn't exist.
func (s *Store) FindHouseholdByID(ctx context.Context, householdID string) (*domain.Household, error) {
	id, err := parseID(householdID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrHouseholdNotFound, err)
	}

	h, err := scanHousehold(s.db.QueryRow(ctx,
		`SELECT `+householdColumns+` FROM households WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHouseholdNotFound
		}
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	return h, nil
}

// ListHouseholds returns every household ordered by creation.
func (s *Store) ListHouseholds(ctx context.Context) ([]domain.Household, error) {
	rows, err := s.db.Query(ctx, `SELECT `+householdColumns+` FROM households ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list households: %w", err)
	}
	defer rows.Close()

	var out []domain.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan household: %w", err)
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list households: %w", err)
	}
	return out, nil
}

// DeleteHousehold removes a household with its reminders, deliveries and API keys.
func (s *Store) DeleteHousehold(ctx context.Context, householdID string) error {
	id, err := parseID(householdID)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrHouseholdNotFound, err)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM households WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete household: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHouseholdNotFound
	}
	return nil
}
