package recurrence

import (
	"time"

	"github.com/rezkam/hearth/internal/domain"
)

// onceCalculator fires a single time, on the start date.
type onceCalculator struct{}

func (onceCalculator) Next(s domain.Schedule, now time.Time) *time.Time {
	if s.StartDate.IsZero() || afterEnd(s, s.StartDate) {
		return nil
	}
	t := slot(s, s.StartDate)
	if !t.After(now) {
		return nil
	}
	return &t
}

// dailyCalculator fires every day from the start date.
type dailyCalculator struct{}

func (dailyCalculator) Next(s domain.Schedule, now time.Time) *time.Time {
	day := today(s, now)
	if !slot(s, day).After(now) {
		day = day.AddDays(1)
	}
	if beforeStart(s, day) {
		day = s.StartDate
	}
	if afterEnd(s, day) {
		return nil
	}
	t := slot(s, day)
	return &t
}

// weeklyCalculator fires on each selected weekday.
type weeklyCalculator struct{}

// weeklyScanDays covers today's slot being already past when today is the
// only selected weekday: the same weekday one week later is day 7.
const weeklyScanDays = 7

func (weeklyCalculator) Next(s domain.Schedule, now time.Time) *time.Time {
	if s.DaysOfWeek.IsEmpty() {
		return nil
	}

	from := today(s, now)
	if beforeStart(s, from) {
		from = s.StartDate
	}

	for i := 0; i <= weeklyScanDays; i++ {
		day := from.AddDays(i)
		if !s.DaysOfWeek.Contains(day.Weekday()) {
			continue
		}
		t := slot(s, day)
		if !t.After(now) {
			continue
		}
		if afterEnd(s, day) {
			return nil
		}
		return &t
	}
	return nil
}

// customCalculator fires on an explicit set of dates.
type customCalculator struct{}

func (customCalculator) Next(s domain.Schedule, now time.Time) *time.Time {
	for _, day := range domain.SortDates(s.CustomDates) {
		if beforeStart(s, day) {
			continue
		}
		if afterEnd(s, day) {
			return nil
		}
		t := slot(s, day)
		if t.After(now) {
			return &t
		}
	}
	return nil
}
