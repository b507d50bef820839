package recurrence

import (
	"strings"
	"testing"
	"time"

	"github.com/rezkam/hearth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

func TestToRRule(t *testing.T) {
	t.Run("weekly rule lists the selected days", func(t *testing.T) {
		s := domain.Schedule{
			Frequency:  domain.FrequencyWeekly,
			TimeOfDay:  tod(7, 30),
			StartDate:  date(t, "2025-12-09"),
			EndDate:    datePtr(t, "2026-01-31"),
			DaysOfWeek: domain.NewWeekdaySet(time.Thursday, time.Saturday),
		}
		rule, err := ToRRule(s)
		require.NoError(t, err)

		str := rule.OrigOptions.RRuleString()
		assert.Contains(t, str, "FREQ=WEEKLY")
		assert.Contains(t, str, "BYDAY=TH,SA")
		assert.Contains(t, str, "UNTIL=20260131T073000Z")
		// Anchored on the first real occurrence, not the start date.
		assert.True(t, at(t, "2025-12-11T07:30:00").Equal(rule.OrigOptions.Dtstart))
	})

	t.Run("daily rule", func(t *testing.T) {
		s := domain.Schedule{
			Frequency: domain.FrequencyDaily,
			TimeOfDay: tod(8, 0),
			StartDate: date(t, "2025-12-11"),
		}
		rule, err := ToRRule(s)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(rule.OrigOptions.RRuleString(), "FREQ=DAILY"))
		assert.NotContains(t, rule.OrigOptions.RRuleString(), "UNTIL")
	})

	t.Run("date lists have no rule", func(t *testing.T) {
		for _, f := range []domain.Frequency{domain.FrequencyOnce, domain.FrequencyCustom} {
			_, err := ToRRule(domain.Schedule{Frequency: f, StartDate: date(t, "2025-12-11")})
			assert.ErrorIs(t, err, ErrNoRule, string(f))
		}
	})

	t.Run("weekly without days has no rule", func(t *testing.T) {
		_, err := ToRRule(domain.Schedule{Frequency: domain.FrequencyWeekly, StartDate: date(t, "2025-12-11")})
		assert.ErrorIs(t, err, ErrNoRule)
	})

	t.Run("schedule that ends before it fires has no rule", func(t *testing.T) {
		s := domain.Schedule{
			Frequency:  domain.FrequencyWeekly,
			TimeOfDay:  tod(8, 0),
			StartDate:  date(t, "2025-12-08"), // Monday
			EndDate:    datePtr(t, "2025-12-09"),
			DaysOfWeek: domain.NewWeekdaySet(time.Friday),
		}
		_, err := ToRRule(s)
		assert.ErrorIs(t, err, ErrNoRule)
	})

	t.Run("invalid time of day", func(t *testing.T) {
		_, err := ToRRule(domain.Schedule{Frequency: domain.FrequencyDaily, TimeOfDay: tod(99, 0)})
		assert.ErrorIs(t, err, domain.ErrInvalidTimeOfDay)
	})
}

// TestNextOccurrence_MatchesRRule expands the equivalent RFC 5545 rule with
// rrule-go and checks that both agree on every next occurrence.
func TestNextOccurrence_MatchesRRule(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	schedules := map[string]domain.Schedule{
		"daily open-ended": {
			Frequency: domain.FrequencyDaily, TimeOfDay: tod(8, 0),
			StartDate: date(t, "2025-03-01"), Location: ny,
		},
		"daily bounded": {
			Frequency: domain.FrequencyDaily, TimeOfDay: tod(21, 10),
			StartDate: date(t, "2025-03-05"), EndDate: datePtr(t, "2025-03-20"),
		},
		"weekly thu sat": {
			Frequency: domain.FrequencyWeekly, TimeOfDay: tod(7, 30),
			StartDate:  date(t, "2025-03-04"),
			DaysOfWeek: domain.NewWeekdaySet(time.Thursday, time.Saturday),
			Location:   ny,
		},
		"weekly bounded": {
			Frequency: domain.FrequencyWeekly, TimeOfDay: tod(18, 0),
			StartDate: date(t, "2025-03-01"), EndDate: datePtr(t, "2025-04-10"),
			DaysOfWeek: domain.NewWeekdaySet(time.Sunday, time.Wednesday, time.Friday),
		},
	}

	origin := time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)
	horizon := origin.AddDate(0, 2, 0)

	for name, s := range schedules {
		t.Run(name, func(t *testing.T) {
			rule, err := ToRRule(s)
			require.NoError(t, err)

			for now := origin; now.Before(horizon); now = now.Add(7*time.Hour + 3*time.Minute) {
				want := rule.After(now, false)
				got, err := NextOccurrence(s, now)
				require.NoError(t, err)

				if want.IsZero() {
					assert.Nil(t, got, "rrule has no occurrence after %s", now)
					continue
				}
				require.NotNil(t, got, "missing occurrence after %s", now)
				assert.True(t, want.Equal(*got), "after %s: rrule %s, got %s", now, want, got)
			}

			expanded := rule.Between(origin, horizon, false)
			upcoming, err := Between(s, origin, horizon, len(expanded)+10)
			require.NoError(t, err)
			require.Len(t, upcoming, len(expanded))
			for i := range expanded {
				assert.True(t, expanded[i].Equal(upcoming[i]), "occurrence %d", i)
			}
		})
	}
}

// Pin the weekday table against rrule-go's own constants.
func TestRRuleWeekdays(t *testing.T) {
	assert.Equal(t, rrule.TH, rruleWeekdays[time.Thursday])
	assert.Equal(t, rrule.SU, rruleWeekdays[time.Sunday])
	assert.Len(t, rruleWeekdays, 7)
}
