package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rezkam/hearth/internal/domain"
)

// === pgtype Conversion Helpers ===

// parseID parses a UUID string into pgtype.UUID, wrapping failures in domain.ErrInvalidID.
func parseID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

// pgtypeToUUIDString converts pgtype.UUID to string (empty if invalid).
func pgtypeToUUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// timePtrToPgtype converts *time.Time to pgtype.Timestamptz; nil stores NULL.
func timePtrToPgtype(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// pgtypeToTimePtr converts pgtype.Timestamptz to *time.Time (nil if NULL), in UTC.
func pgtypeToTimePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

// dateToPgtype converts a civil date to pgtype.Date; the zero date stores NULL.
func dateToPgtype(d domain.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func datePtrToPgtype(d *domain.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return dateToPgtype(*d)
}

// pgtypeToDate converts pgtype.Date to a civil date (zero if NULL).
func pgtypeToDate(d pgtype.Date) domain.Date {
	if !d.Valid {
		return domain.Date{}
	}
	return domain.DateOf(d.Time)
}

func pgtypeToDatePtr(d pgtype.Date) *domain.Date {
	if !d.Valid {
		return nil
	}
	date := domain.DateOf(d.Time)
	return &date
}

func datesToPgtype(dates []domain.Date) []pgtype.Date {
	out := make([]pgtype.Date, 0, len(dates))
	for _, d := range domain.SortDates(dates) {
		out = append(out, dateToPgtype(d))
	}
	return out
}

func pgtypeToDates(dates []pgtype.Date) []domain.Date {
	if len(dates) == 0 {
		return nil
	}
	out := make([]domain.Date, 0, len(dates))
	for _, d := range dates {
		if d.Valid {
			out = append(out, pgtypeToDate(d))
		}
	}
	return domain.SortDates(out)
}

// timeOfDayToPgtype converts a wall-clock time to a TIME value.
func timeOfDayToPgtype(t domain.TimeOfDay) pgtype.Time {
	minutes := int64(t.Hour*60 + t.Minute)
	return pgtype.Time{Microseconds: minutes * int64(time.Minute/time.Microsecond), Valid: true}
}

// pgtypeToTimeOfDay converts a TIME value back; seconds are discarded.
func pgtypeToTimeOfDay(t pgtype.Time) domain.TimeOfDay {
	minutes := t.Microseconds / int64(time.Minute/time.Microsecond)
	return domain.TimeOfDay{Hour: int(minutes / 60), Minute: int(minutes % 60)}
}

// durationToSeconds converts an optional duration to whole seconds (nil stores NULL).
func durationToSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	secs := int64(*d / time.Second)
	return &secs
}

func secondsToDuration(secs *int64) *time.Duration {
	if secs == nil {
		return nil
	}
	d := time.Duration(*secs) * time.Second
	return &d
}

// === Error Classification ===

// isUniqueViolation checks if an error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}

// isForeignKeyViolation checks if an error is a PostgreSQL foreign key violation.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.ForeignKeyViolation
	}
	return false
}
