package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/infrastructure/http/openapi"
)

// toUUID returns the zero UUID for IDs that are not UUIDs.
func toUUID(s string) types.UUID {
	u, err := uuid.Parse(s)
	if err != nil {
		return types.UUID{}
	}
	return types.UUID(u)
}

func toDate(d domain.Date) types.Date {
	return types.Date{Time: d.Time()}
}

// Domain → DTO mappers

// MapReminderToDTO converts domain.Reminder to openapi.Reminder.
func MapReminderToDTO(r *domain.Reminder) openapi.Reminder {
	dto := openapi.Reminder{
		Id:          toUUID(r.ID),
		Title:       r.Title,
		Notes:       r.Notes,
		Category:    string(r.Category),
		Frequency:   string(r.Frequency),
		TimeOfDay:   r.TimeOfDay.String(),
		StartDate:   toDate(r.StartDate),
		DaysOfWeek:  r.DaysOfWeek.Names(),
		CustomDates: make([]types.Date, 0, len(r.CustomDates)),
		IsActive:    r.IsActive,
		NextRunAt:   utcPtr(r.NextRunAt),
		LastFiredAt: utcPtr(r.LastFiredAt),
		Etag:        r.Etag(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.EndDate != nil {
		end := toDate(*r.EndDate)
		dto.EndDate = &end
	}
	for _, d := range r.CustomDates {
		dto.CustomDates = append(dto.CustomDates, toDate(d))
	}
	if r.Timezone != nil && *r.Timezone != "" {
		tz := *r.Timezone
		dto.Timezone = &tz
	}
	if r.GracePeriod != nil {
		grace := domain.FormatDurationISO8601(*r.GracePeriod)
		dto.GracePeriod = &grace
	}
	return dto
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// DTO → domain parsers

// parseSchedule converts the wire schedule. Location is left nil; the service
// resolves the timezone.
func parseSchedule(s openapi.Schedule) (domain.Schedule, error) {
	freq, err := domain.NewFrequency(s.Frequency)
	if err != nil {
		return domain.Schedule{}, err
	}
	tod, err := domain.ParseTimeOfDay(s.TimeOfDay)
	if err != nil {
		return domain.Schedule{}, err
	}
	start, err := parseDate(s.StartDate)
	if err != nil {
		return domain.Schedule{}, err
	}
	end, err := parseOptionalDate(s.EndDate)
	if err != nil {
		return domain.Schedule{}, err
	}

	sched := domain.Schedule{
		Frequency: freq,
		TimeOfDay: tod,
		StartDate: start,
		EndDate:   end,
	}
	if s.DaysOfWeek != nil {
		if sched.DaysOfWeek, err = domain.ParseWeekdaySet(*s.DaysOfWeek); err != nil {
			return domain.Schedule{}, err
		}
	}
	if s.CustomDates != nil {
		if sched.CustomDates, err = parseDates(*s.CustomDates); err != nil {
			return domain.Schedule{}, err
		}
	}
	return sched, nil
}

// parseDate maps a missing date to the zero domain.Date so schedule
// validation reports it as required.
func parseDate(d types.Date) (domain.Date, error) {
	if d.IsZero() {
		return domain.Date{}, nil
	}
	y, m, day := d.Date()
	return domain.NewDate(y, m, day)
}

func parseOptionalDate(d *types.Date) (*domain.Date, error) {
	if d == nil {
		return nil, nil
	}
	out, err := parseDate(*d)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func parseDates(in []types.Date) ([]domain.Date, error) {
	out := make([]domain.Date, 0, len(in))
	for _, d := range in {
		date, err := parseDate(d)
		if err != nil {
			return nil, err
		}
		out = append(out, date)
	}
	return out, nil
}

func parseGracePeriod(s *string) (*time.Duration, error) {
	if s == nil {
		return nil, nil
	}
	d, err := domain.NewDuration(*s)
	if err != nil {
		return nil, err
	}
	v := d.Value()
	return &v, nil
}

// optionalTimezone treats an empty or blank zone as unset.
func optionalTimezone(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	tz := strings.TrimSpace(*s)
	return &tz
}
