package recurrence

import (
	"errors"
	"time"

	"github.com/rezkam/hearth/internal/domain"
	"github.com/teambition/rrule-go"
)

// ErrNoRule is returned by ToRRule for schedules that are a plain list of
// dates rather than a repeating pattern.
var ErrNoRule = errors.New("schedule has no recurrence rule")

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// ToRRule renders a daily or weekly schedule as an RFC 5545 rule anchored at
// its first occurrence. Once and custom schedules return ErrNoRule, as does a
// weekly schedule with no weekdays or one whose first occurrence falls past
// the end date.
func ToRRule(s domain.Schedule) (*rrule.RRule, error) {
	if err := s.TimeOfDay.Validate(); err != nil {
		return nil, err
	}

	opt := rrule.ROption{}
	switch s.Frequency {
	case domain.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case domain.FrequencyWeekly:
		if s.DaysOfWeek.IsEmpty() {
			return nil, ErrNoRule
		}
		opt.Freq = rrule.WEEKLY
		for _, d := range s.DaysOfWeek.Days() {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
	case domain.FrequencyOnce, domain.FrequencyCustom:
		return nil, ErrNoRule
	default:
		return nil, domain.ErrInvalidFrequency
	}

	first, err := FirstOccurrence(s)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, ErrNoRule
	}
	opt.Dtstart = *first

	if s.EndDate != nil {
		opt.Until = slot(s, *s.EndDate)
	}

	return rrule.NewRRule(opt)
}
