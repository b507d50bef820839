package recurrence

import (
	"testing"
	"time"

	"github.com/rezkam/hearth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func datePtr(t *testing.T, s string) *domain.Date {
	d := date(t, s)
	return &d
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04:05", s)
	require.NoError(t, err)
	return ts
}

func tod(h, m int) domain.TimeOfDay {
	return domain.TimeOfDay{Hour: h, Minute: m}
}

func TestNextOccurrence_Scenarios(t *testing.T) {
	t.Run("daily rolls to tomorrow once today's slot passed", func(t *testing.T) {
		s := domain.Schedule{
			Frequency: domain.FrequencyDaily,
			TimeOfDay: tod(8, 0),
			StartDate: date(t, "2025-12-11"),
		}
		next, err := NextOccurrence(s, at(t, "2025-12-11T10:00:00"))
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, at(t, "2025-12-12T08:00:00"), *next)
	})

	t.Run("weekly picks the following thursday", func(t *testing.T) {
		s := domain.Schedule{
			Frequency:  domain.FrequencyWeekly,
			TimeOfDay:  tod(7, 30),
			StartDate:  date(t, "2025-12-09"),
			DaysOfWeek: domain.NewWeekdaySet(time.Thursday, time.Saturday),
		}
		next, err := NextOccurrence(s, at(t, "2025-12-10T09:00:00"))
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, at(t, "2025-12-11T07:30:00"), *next)
		assert.Equal(t, time.Thursday, next.Weekday())
	})

	t.Run("once in the past has no occurrence", func(t *testing.T) {
		s := domain.Schedule{
			Frequency: domain.FrequencyOnce,
			TimeOfDay: tod(8, 0),
			StartDate: date(t, "2025-12-10"),
		}
		next, err := NextOccurrence(s, at(t, "2025-12-11T12:00:00"))
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("daily rolled past end date has no occurrence", func(t *testing.T) {
		s := domain.Schedule{
			Frequency: domain.FrequencyDaily,
			TimeOfDay: tod(8, 0),
			StartDate: date(t, "2025-12-11"),
			EndDate:   datePtr(t, "2025-12-11"),
		}
		next, err := NextOccurrence(s, at(t, "2025-12-11T10:00:00"))
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("weekly with no weekdays has no occurrence", func(t *testing.T) {
		s := domain.Schedule{
			Frequency: domain.FrequencyWeekly,
			TimeOfDay: tod(8, 0),
			StartDate: date(t, "2025-12-01"),
		}
		for _, now := range []string{"2025-11-01T00:00:00", "2025-12-10T09:00:00", "2030-01-01T23:59:00"} {
			next, err := NextOccurrence(s, at(t, now))
			require.NoError(t, err)
			assert.Nil(t, next, now)
		}
	})
}

func TestNextOccurrence_Once(t *testing.T) {
	s := domain.Schedule{
		Frequency: domain.FrequencyOnce,
		TimeOfDay: tod(8, 0),
		StartDate: date(t, "2025-12-10"),
	}

	t.Run("future slot is returned", func(t *testing.T) {
		next, err := NextOccurrence(s, at(t, "2025-12-10T07:59:00"))
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, at(t, "2025-12-10T08:00:00"), *next)
	})

	t.Run("slot exactly at now is passed", func(t *testing.T) {
		next, err := NextOccurrence(s, at(t, "2025-12-10T08:00:00"))
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("start after end has no occurrence", func(t *testing.T) {
		s := s
		s.EndDate = datePtr(t, "2025-12-09")
		next, err := NextOccurrence(s, at(t, "2025-12-01T00:00:00"))
		require.NoError(t, err)
		assert.Nil(t, next)
	})
}

func TestNextOccurrence_Daily(t *testing.T) {
	s := domain.Schedule{
		Frequency: domain.FrequencyDaily,
		TimeOfDay: tod(8, 0),
		StartDate: date(t, "2025-12-11"),
	}

	t.Run("today's slot still ahead", func(t *testing.T) {
		next, err := NextOccurrence(s, at(t, "2025-12-15T07:00:00"))
		require.NoError(t, err)
		assert.Equal(t, at(t, "2025-12-15T08:00:00"), *next)
	})

	t.Run("now exactly at slot rolls to next day", func(t *testing.T) {
		next, err := NextOccurrence(s, at(t, "2025-12-15T08:00:00"))
		require.NoError(t, err)
		assert.Equal(t, at(t, "2025-12-16T08:00:00"), *next)
	})

	t.Run("before start jumps to start", func(t *testing.T) {
		next, err := NextOccurrence(s, at(t, "2025-11-01T09:00:00"))
		require.NoError(t, err)
		assert.Equal(t, at(t, "2025-12-11T08:00:00"), *next)
	})

	t.Run("last day before end is still returned", func(t *testing.T) {
		s := s
		s.EndDate = datePtr(t, "2025-12-20")
		next, err := NextOccurrence(s, at(t, "2025-12-19T09:00:00"))
		require.NoError(t, err)
		assert.Equal(t, at(t, "2025-12-20T08:00:00"), *next)
	})

	t.Run("start after end has no occurrence", func(t *testing.T) {
		s := s
		s.EndDate = datePtr(t, "2025-12-01")
		next, err := NextOccurrence(s, at(t, "2025-11-01T00:00:00"))
		require.NoError(t, err)
		assert.Nil(t, next)
	})
}

func TestNextOccurrence_Weekly(t *testing.T) {
	thuSat := domain.Schedule{
		Frequency:  domain.FrequencyWeekly,
		TimeOfDay:  tod(7, 30),
		StartDate:  date(t, "2025-12-01"),
		DaysOfWeek: domain.NewWeekdaySet(time.Thursday, time.Saturday),
	}

	t.Run("today selected and slot ahead", func(t *testing.T) {
		next, err := NextOccurrence(thuSat, at(t, "2025-12-11T06:00:00"))
		require.NoError(t, err)
		assert.Equal(t, at(t, "2025-12-11T07:30:00"), *next)
	})

	t.Run("now exactly at slot moves to next selected day", func(t *testing.T) {
		next, err := NextOccurrence(thuSat, at(t, "2025-12-11T07:30:00"))
		require.NoError(t, err)
		assert.Equal(t, at(t, "2025-12-13T07:30:00"), *next)
	})

	t.Run("single weekday already passed today wraps a full week", func(t *testing.T) {
		s := thuSat
		s.DaysOfWeek = domain.NewWeekdaySet(time.Thursday)
		next, err := NextOccurrence(s, at(t, "2025-12-11T08:00:00"))
		require.NoError(t, err)
		assert.Equal(t, at(t, "2025-12-18T07:30:00"), *next)
	})

	t.Run("future start scans from start", func(t *testing.T) {
		s := thuSat
		s.StartDate = date(t, "2026-01-02") // Friday
		next, err := NextOccurrence(s, at(t, "2025-12-11T06:00:00"))
		require.NoError(t, err)
		assert.Equal(t, at(t, "2026-01-03T07:30:00"), *next)
	})

	t.Run("next selected day past end", func(t *testing.T) {
		s := thuSat
		s.EndDate = datePtr(t, "2025-12-12")
		next, err := NextOccurrence(s, at(t, "2025-12-11T08:00:00"))
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("start after end has no occurrence", func(t *testing.T) {
		s := thuSat
		s.StartDate = date(t, "2025-12-20")
		s.EndDate = datePtr(t, "2025-12-10")
		next, err := NextOccurrence(s, at(t, "2025-12-01T00:00:00"))
		require.NoError(t, err)
		assert.Nil(t, next)
	})
}

func TestNextOccurrence_Custom(t *testing.T) {
	s := domain.Schedule{
		Frequency: domain.FrequencyCustom,
		TimeOfDay: tod(18, 0),
		StartDate: date(t, "2025-12-05"),
		CustomDates: []domain.Date{
			date(t, "2025-12-24"),
			date(t, "2025-12-01"), // before start
			date(t, "2025-12-10"),
			date(t, "2025-12-10"),
		},
	}

	t.Run("earliest selected date after now", func(t *testing.T) {
		next, err := NextOccurrence(s, at(t, "2025-11-01T00:00:00"))
		require.NoError(t, err)
		assert.Equal(t, at(t, "2025-12-10T18:00:00"), *next)
	})

	t.Run("same-day slot passed moves to next date", func(t *testing.T) {
		next, err := NextOccurrence(s, at(t, "2025-12-10T18:00:00"))
		require.NoError(t, err)
		assert.Equal(t, at(t, "2025-12-24T18:00:00"), *next)
	})

	t.Run("dates past end are rejected", func(t *testing.T) {
		s := s
		s.EndDate = datePtr(t, "2025-12-20")
		next, err := NextOccurrence(s, at(t, "2025-12-11T00:00:00"))
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("all dates passed", func(t *testing.T) {
		next, err := NextOccurrence(s, at(t, "2026-01-01T00:00:00"))
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("input order is not modified", func(t *testing.T) {
		assert.Equal(t, "2025-12-24", s.CustomDates[0].String())
	})
}

func TestNextOccurrence_Errors(t *testing.T) {
	base := domain.Schedule{
		Frequency: domain.FrequencyDaily,
		TimeOfDay: tod(8, 0),
		StartDate: date(t, "2025-12-01"),
	}
	now := at(t, "2025-12-10T00:00:00")

	for _, bad := range []domain.TimeOfDay{tod(24, 0), tod(-1, 0), tod(8, 60), tod(8, -1)} {
		s := base
		s.TimeOfDay = bad
		next, err := NextOccurrence(s, now)
		assert.ErrorIs(t, err, domain.ErrInvalidTimeOfDay, bad.String())
		assert.Nil(t, next)
	}

	s := base
	s.Frequency = "fortnightly"
	_, err := NextOccurrence(s, now)
	assert.ErrorIs(t, err, domain.ErrInvalidFrequency)
}

func TestNextOccurrence_Timezones(t *testing.T) {
	t.Run("calendar is read in the schedule's zone", func(t *testing.T) {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)

		s := domain.Schedule{
			Frequency: domain.FrequencyDaily,
			TimeOfDay: tod(8, 0),
			StartDate: date(t, "2025-12-01"),
			Location:  tokyo,
		}
		// 23:30 UTC is 08:30 the next day in Tokyo.
		now := time.Date(2025, 12, 10, 23, 30, 0, 0, time.UTC)
		next, err := NextOccurrence(s, now)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, time.Date(2025, 12, 11, 23, 0, 0, 0, time.UTC), next.UTC())
		assert.Equal(t, tokyo, next.Location())
		assert.Equal(t, 8, next.Hour())
	})

	t.Run("wall clock survives a DST change", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)

		s := domain.Schedule{
			Frequency: domain.FrequencyDaily,
			TimeOfDay: tod(8, 0),
			StartDate: date(t, "2025-03-01"),
			Location:  ny,
		}
		// 09:00 EST on the Saturday before clocks spring forward.
		now := time.Date(2025, 3, 8, 14, 0, 0, 0, time.UTC)
		next, err := NextOccurrence(s, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC), next.UTC())
	})

	t.Run("slot inside the spring-forward gap moves ahead one hour", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)

		s := domain.Schedule{
			Frequency: domain.FrequencyDaily,
			TimeOfDay: tod(2, 30),
			StartDate: date(t, "2025-03-01"),
			Location:  ny,
		}
		// 01:00 EST; 02:30 does not exist on this date.
		now := time.Date(2025, 3, 9, 6, 0, 0, 0, time.UTC)
		next, err := NextOccurrence(s, now)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, time.Date(2025, 3, 9, 7, 30, 0, 0, time.UTC), next.UTC())
		assert.Equal(t, 3, next.Hour())
		assert.Equal(t, 30, next.Minute())

		// The following day is back on the 02:30 wall clock.
		next, err = NextOccurrence(s, next.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 10, 6, 30, 0, 0, time.UTC), next.UTC())
	})

	t.Run("nil location means UTC", func(t *testing.T) {
		s := domain.Schedule{
			Frequency: domain.FrequencyOnce,
			TimeOfDay: tod(8, 0),
			StartDate: date(t, "2025-12-10"),
		}
		next, err := NextOccurrence(s, at(t, "2025-12-01T00:00:00"))
		require.NoError(t, err)
		assert.Equal(t, time.UTC, next.Location())
	})
}

// invariantSchedules exercise the properties below across every frequency.
func invariantSchedules(t *testing.T) map[string]domain.Schedule {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	return map[string]domain.Schedule{
		"once": {
			Frequency: domain.FrequencyOnce, TimeOfDay: tod(9, 15),
			StartDate: date(t, "2025-03-20"),
		},
		"daily": {
			Frequency: domain.FrequencyDaily, TimeOfDay: tod(8, 0),
			StartDate: date(t, "2025-03-10"), EndDate: datePtr(t, "2025-04-05"),
		},
		"daily oslo": {
			Frequency: domain.FrequencyDaily, TimeOfDay: tod(23, 45),
			StartDate: date(t, "2025-03-01"), Location: oslo,
		},
		"weekly": {
			Frequency: domain.FrequencyWeekly, TimeOfDay: tod(7, 30),
			StartDate:  date(t, "2025-03-12"),
			DaysOfWeek: domain.NewWeekdaySet(time.Thursday, time.Saturday),
		},
		"weekly single day with end": {
			Frequency: domain.FrequencyWeekly, TimeOfDay: tod(0, 0),
			StartDate: date(t, "2025-03-01"), EndDate: datePtr(t, "2025-03-31"),
			DaysOfWeek: domain.NewWeekdaySet(time.Monday),
			Location:   oslo,
		},
		"custom": {
			Frequency: domain.FrequencyCustom, TimeOfDay: tod(12, 0),
			StartDate: date(t, "2025-03-05"),
			CustomDates: []domain.Date{
				date(t, "2025-03-28"), date(t, "2025-03-02"), date(t, "2025-03-15"),
			},
		},
	}
}

func TestNextOccurrence_Invariants(t *testing.T) {
	start := time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)

	for name, s := range invariantSchedules(t) {
		t.Run(name, func(t *testing.T) {
			loc := location(s)
			for now := start; now.Before(start.AddDate(0, 0, 45)); now = now.Add(5*time.Hour + 17*time.Minute) {
				next, err := NextOccurrence(s, now)
				require.NoError(t, err)

				again, err := NextOccurrence(s, now)
				require.NoError(t, err)
				assert.Equal(t, next, again, "not idempotent at %s", now)

				if next == nil {
					continue
				}
				got := domain.DateOf(next.In(loc))

				assert.True(t, next.After(now), "%s not after %s", next, now)
				assert.False(t, got.Before(s.StartDate), "%s before start", got)
				if s.EndDate != nil {
					assert.False(t, got.After(*s.EndDate), "%s after end", got)
				}
				assert.Equal(t, s.TimeOfDay.Hour, next.In(loc).Hour())
				assert.Equal(t, s.TimeOfDay.Minute, next.In(loc).Minute())

				switch s.Frequency {
				case domain.FrequencyOnce:
					assert.Equal(t, s.StartDate, got)
				case domain.FrequencyWeekly:
					assert.True(t, s.DaysOfWeek.Contains(got.Weekday()))
					from := domain.DateOf(now.In(loc))
					if from.Before(s.StartDate) {
						from = s.StartDate
					}
					assert.False(t, got.After(from.AddDays(7)), "%s more than a week after %s", got, from)
				case domain.FrequencyCustom:
					assert.Contains(t, s.CustomDates, got)
				}
			}
		})
	}
}

func TestUpcoming(t *testing.T) {
	s := domain.Schedule{
		Frequency:  domain.FrequencyWeekly,
		TimeOfDay:  tod(7, 30),
		StartDate:  date(t, "2025-12-09"),
		DaysOfWeek: domain.NewWeekdaySet(time.Thursday, time.Saturday),
	}
	now := at(t, "2025-12-10T09:00:00")

	t.Run("consecutive occurrences", func(t *testing.T) {
		got, err := Upcoming(s, now, 3)
		require.NoError(t, err)
		assert.Equal(t, []time.Time{
			at(t, "2025-12-11T07:30:00"),
			at(t, "2025-12-13T07:30:00"),
			at(t, "2025-12-18T07:30:00"),
		}, got)
	})

	t.Run("stops at end date", func(t *testing.T) {
		s := s
		s.EndDate = datePtr(t, "2025-12-14")
		got, err := Upcoming(s, now, 10)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("non-positive count", func(t *testing.T) {
		got, err := Upcoming(s, now, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("count is capped", func(t *testing.T) {
		got, err := Upcoming(s, now, 1000)
		require.NoError(t, err)
		assert.Len(t, got, MaxUpcoming)
	})

	t.Run("propagates errors", func(t *testing.T) {
		s := s
		s.TimeOfDay = tod(30, 0)
		_, err := Upcoming(s, now, 2)
		assert.ErrorIs(t, err, domain.ErrInvalidTimeOfDay)
	})
}

func TestBetween(t *testing.T) {
	s := domain.Schedule{
		Frequency: domain.FrequencyDaily,
		TimeOfDay: tod(8, 0),
		StartDate: date(t, "2025-12-01"),
	}

	got, err := Between(s, at(t, "2025-12-01T08:00:00"), at(t, "2025-12-04T08:00:00"), 10)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(t, "2025-12-02T08:00:00"),
		at(t, "2025-12-03T08:00:00"),
		at(t, "2025-12-04T08:00:00"),
	}, got)

	got, err = Between(s, at(t, "2025-12-01T00:00:00"), at(t, "2025-12-31T00:00:00"), 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFirstOccurrence(t *testing.T) {
	s := domain.Schedule{
		Frequency:  domain.FrequencyWeekly,
		TimeOfDay:  tod(0, 0),
		StartDate:  date(t, "2025-12-09"), // Tuesday
		DaysOfWeek: domain.NewWeekdaySet(time.Tuesday, time.Friday),
	}
	first, err := FirstOccurrence(s)
	require.NoError(t, err)
	assert.Equal(t, at(t, "2025-12-09T00:00:00"), *first)

	s.StartDate = domain.Date{}
	_, err = FirstOccurrence(s)
	assert.ErrorIs(t, err, domain.ErrStartDateRequired)
}
