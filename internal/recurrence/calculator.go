// Package recurrence computes when a reminder fires next.
//
// Every function here is pure: the current instant is always passed in and
// nothing reads the wall clock, so results are reproducible for a given input.
package recurrence

import (
	"fmt"
	"time"

	"github.com/rezkam/hearth/internal/domain"
)

// MaxUpcoming bounds how many occurrences Upcoming will compute in one call.
const MaxUpcoming = 100

// PatternCalculator computes the first occurrence of a schedule strictly after now.
type PatternCalculator interface {
	// Next returns nil when the schedule has no further occurrence.
	// The schedule's time of day must already be validated.
	Next(s domain.Schedule, now time.Time) *time.Time
}

// GetCalculator returns the calculator for the given frequency, or nil if unknown.
func GetCalculator(f domain.Frequency) PatternCalculator {
	switch f {
	case domain.FrequencyOnce:
		return onceCalculator{}
	case domain.FrequencyDaily:
		return dailyCalculator{}
	case domain.FrequencyWeekly:
		return weeklyCalculator{}
	case domain.FrequencyCustom:
		return customCalculator{}
	default:
		return nil
	}
}

// NextOccurrence returns the next instant, strictly after now, at which the
// schedule fires. A nil time with a nil error means there is no further occurrence.
//
// An out-of-range time of day yields domain.ErrInvalidTimeOfDay and an unknown
// frequency yields domain.ErrInvalidFrequency.
func NextOccurrence(s domain.Schedule, now time.Time) (*time.Time, error) {
	if err := s.TimeOfDay.Validate(); err != nil {
		return nil, err
	}

	calc := GetCalculator(s.Frequency)
	if calc == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidFrequency, s.Frequency)
	}

	next := calc.Next(s, now)
	if next == nil {
		return nil, nil
	}

	// Callers get the instant in the schedule's zone so the wall clock reads as configured.
	at := next.In(location(s))
	return &at, nil
}

// Upcoming returns up to n occurrences after now, each computed from the
// previous one. Fewer are returned when the schedule ends.
func Upcoming(s domain.Schedule, now time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > MaxUpcoming {
		n = MaxUpcoming
	}

	out := make([]time.Time, 0, n)
	cursor := now
	for len(out) < n {
		next, err := NextOccurrence(s, cursor)
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		out = append(out, *next)
		cursor = *next
	}
	return out, nil
}

// Between returns the occurrences in (from, to], capped at limit.
func Between(s domain.Schedule, from, to time.Time, limit int) ([]time.Time, error) {
	var out []time.Time
	cursor := from
	for len(out) < limit {
		next, err := NextOccurrence(s, cursor)
		if err != nil {
			return nil, err
		}
		if next == nil || next.After(to) {
			break
		}
		out = append(out, *next)
		cursor = *next
	}
	return out, nil
}

// FirstOccurrence returns the earliest occurrence the schedule will ever produce,
// ignoring any notion of now.
func FirstOccurrence(s domain.Schedule) (*time.Time, error) {
	if s.StartDate.IsZero() {
		return nil, domain.ErrStartDateRequired
	}
	before := s.StartDate.At(domain.TimeOfDay{}, location(s)).Add(-time.Nanosecond)
	return NextOccurrence(s, before)
}

func location(s domain.Schedule) *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// today is now's calendar date in the schedule's zone.
func today(s domain.Schedule, now time.Time) domain.Date {
	return domain.DateOf(now.In(location(s)))
}

// afterEnd reports whether d falls past the schedule's inclusive end date.
func afterEnd(s domain.Schedule, d domain.Date) bool {
	return s.EndDate != nil && d.After(*s.EndDate)
}

// beforeStart reports whether d precedes the start date. A zero start date
// places no lower bound.
func beforeStart(s domain.Schedule, d domain.Date) bool {
	return !s.StartDate.IsZero() && d.Before(s.StartDate)
}

func slot(s domain.Schedule, d domain.Date) time.Time {
	return d.At(s.TimeOfDay, location(s))
}

// NextRun resolves a reminder's zone (its own, then the household's, then def)
// and returns its next occurrence after now, in UTC.
func NextRun(h *domain.Household, r *domain.Reminder, def *time.Location, now time.Time) (*time.Time, error) {
	loc, err := h.Location(def)
	if err != nil {
		return nil, err
	}
	sched, err := r.Schedule(loc)
	if err != nil {
		return nil, err
	}
	next, err := NextOccurrence(sched, now)
	if err != nil || next == nil {
		return nil, err
	}
	utc := next.UTC()
	return &utc, nil
}
