package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rezkam/hearth/internal/config"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/env"
	"github.com/rezkam/hearth/internal/recurrence"
	"github.com/spf13/cobra"
)

type previewFlags struct {
	frequency string
	timeOfDay string
	start     string
	end       string
	days      []string
	dates     []string
	timezone  string
	from      string
	count     int
}

func newPreviewCmd(a *app) *cobra.Command {
	var f previewFlags

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the next occurrences of a schedule",
		Long: `Print the next occurrences of a schedule without storing it.
No database is needed. Without --timezone, HEARTH_TIMEZONE applies.

Examples:
  hearthctl preview --frequency daily --time 21:30 --start 2025-12-01
  hearthctl preview --frequency weekly --time 08:00 --start 2025-12-01 --days mon,thu -n 10
  hearthctl preview --frequency custom --time 09:00 --start 2025-12-01 --dates 2025-12-24,2025-12-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sched, from, err := f.schedule(a.now())
			if err != nil {
				return err
			}
			if f.count < 1 || f.count > recurrence.MaxUpcoming {
				return domain.ErrInvalidPreviewCount
			}

			occurrences, err := recurrence.Upcoming(sched, from, f.count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(occurrences) == 0 {
				fmt.Fprintln(out, "No upcoming occurrences")
				return nil
			}
			for _, t := range occurrences {
				fmt.Fprintf(out, "%s  %s\n", t.Format(time.RFC3339), t.Weekday().String()[:3])
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.frequency, "frequency", "", "once, daily, weekly or custom (required)")
	fl.StringVar(&f.timeOfDay, "time", "", "time of day as HH:MM (required)")
	fl.StringVar(&f.start, "start", "", "start date as YYYY-MM-DD (required)")
	fl.StringVar(&f.end, "end", "", "inclusive end date as YYYY-MM-DD")
	fl.StringSliceVar(&f.days, "days", nil, "weekdays for weekly schedules")
	fl.StringSliceVar(&f.dates, "dates", nil, "dates for custom schedules")
	fl.StringVar(&f.timezone, "timezone", "", "IANA timezone of the schedule")
	fl.StringVar(&f.from, "from", "", "RFC 3339 instant to preview after, default now")
	fl.IntVarP(&f.count, "count", "n", 5, "number of occurrences")
	return cmd
}

// schedule builds the domain schedule and the instant to start after.
func (f previewFlags) schedule(now time.Time) (domain.Schedule, time.Time, error) {
	var (
		s   domain.Schedule
		err error
	)

	if s.Frequency, err = domain.NewFrequency(f.frequency); err != nil {
		return s, time.Time{}, err
	}
	if s.TimeOfDay, err = domain.ParseTimeOfDay(f.timeOfDay); err != nil {
		return s, time.Time{}, err
	}
	if s.StartDate, err = domain.ParseDate(f.start); err != nil {
		return s, time.Time{}, err
	}
	if f.end != "" {
		end, err := domain.ParseDate(f.end)
		if err != nil {
			return s, time.Time{}, err
		}
		s.EndDate = &end
	}
	if len(f.days) > 0 {
		if s.DaysOfWeek, err = domain.ParseWeekdaySet(f.days); err != nil {
			return s, time.Time{}, err
		}
	}
	for _, raw := range f.dates {
		d, err := domain.ParseDate(strings.TrimSpace(raw))
		if err != nil {
			return s, time.Time{}, err
		}
		s.CustomDates = append(s.CustomDates, d)
	}
	if err := s.Validate(); err != nil {
		return s, time.Time{}, err
	}

	tz := strings.TrimSpace(f.timezone)
	if tz == "" {
		var locale config.LocaleConfig
		if err := env.Load(&locale); err != nil {
			return s, time.Time{}, err
		}
		tz = locale.Timezone
	}
	if s.Location, err = domain.LoadTimezone(tz); err != nil {
		return s, time.Time{}, err
	}

	from := now
	if f.from != "" {
		if from, err = time.Parse(time.RFC3339, f.from); err != nil {
			return s, time.Time{}, fmt.Errorf("--from: %w", err)
		}
	}
	return s, from, nil
}
