// Package calendar renders a household's reminders as an iCalendar (RFC 5545) feed.
package calendar

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/recurrence"
)

const (
	// DefaultProductID identifies the generator in PRODID.
	DefaultProductID = "-//hearth//reminders//EN"

	// DefaultEventDuration is the length given to every reminder event.
	DefaultEventDuration = 15 * time.Minute

	// DefaultMaxDatedEvents caps how many occurrences a custom reminder contributes.
	DefaultMaxDatedEvents = 50

	icsLocalLayout = "20060102T150405"
)

// Options tunes calendar rendering. Zero values fall back to the defaults above.
type Options struct {
	ProductID      string
	UIDDomain      string
	EventDuration  time.Duration
	MaxDatedEvents int

	// DefaultLocation is used for households without a timezone.
	DefaultLocation *time.Location
}

func (o Options) withDefaults() Options {
	if o.ProductID == "" {
		o.ProductID = DefaultProductID
	}
	if o.UIDDomain == "" {
		o.UIDDomain = "hearth"
	}
	if o.EventDuration <= 0 {
		o.EventDuration = DefaultEventDuration
	}
	if o.MaxDatedEvents <= 0 {
		o.MaxDatedEvents = DefaultMaxDatedEvents
	}
	if o.DefaultLocation == nil {
		o.DefaultLocation = time.UTC
	}
	return o
}

// Build renders the active reminders of a household. Daily and weekly
// reminders become one recurring event each; once and custom reminders
// become one event per remaining date after now.
//
// A reminder whose schedule cannot be rendered is logged and skipped.
func Build(h *domain.Household, reminders []domain.Reminder, now time.Time, opts Options) (*ics.Calendar, error) {
	opts = opts.withDefaults()

	loc, err := h.Location(opts.DefaultLocation)
	if err != nil {
		return nil, fmt.Errorf("household %s: %w", h.ID, err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(opts.ProductID)
	cal.SetXWRCalName(h.Name + " reminders")
	cal.SetXWRTimezone(loc.String())

	for i := range reminders {
		r := &reminders[i]
		if !r.IsActive {
			continue
		}
		if err := addReminder(cal, r, loc, now, opts); err != nil {
			slog.Warn("skipping reminder in calendar",
				"household_id", h.ID,
				"reminder_id", r.ID,
				"error", err)
		}
	}

	return cal, nil
}

// Render is Build followed by serialization.
func Render(h *domain.Household, reminders []domain.Reminder, now time.Time, opts Options) (string, error) {
	cal, err := Build(h, reminders, now, opts)
	if err != nil {
		return "", err
	}
	return cal.Serialize(), nil
}

func addReminder(cal *ics.Calendar, r *domain.Reminder, def *time.Location, now time.Time, opts Options) error {
	sched, err := r.Schedule(def)
	if err != nil {
		return err
	}

	switch r.Frequency {
	case domain.FrequencyDaily, domain.FrequencyWeekly:
		rule, err := recurrence.ToRRule(sched)
		if errors.Is(err, recurrence.ErrNoRule) {
			return nil
		}
		if err != nil {
			return err
		}
		ev := newEvent(cal, r, uid(r.ID, "", opts), rule.OrigOptions.Dtstart, now, opts)
		ev.AddProperty(ics.ComponentPropertyRrule, rule.OrigOptions.RRuleString())
		return nil

	case domain.FrequencyOnce, domain.FrequencyCustom:
		dates, err := recurrence.Upcoming(sched, now, opts.MaxDatedEvents)
		if err != nil {
			return err
		}
		for _, at := range dates {
			newEvent(cal, r, uid(r.ID, at.Format("20060102"), opts), at, now, opts)
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidFrequency, r.Frequency)
	}
}

func newEvent(cal *ics.Calendar, r *domain.Reminder, id string, start, now time.Time, opts Options) *ics.VEvent {
	ev := cal.AddEvent(id)
	ev.SetDtStampTime(now.UTC())
	ev.SetModifiedAt(r.UpdatedAt.UTC())
	ev.SetSummary(r.Title)
	if r.Notes != "" {
		ev.SetDescription(r.Notes)
	}
	ev.SetProperty(ics.ComponentPropertyCategories, string(r.Category))
	ev.SetProperty(ics.ComponentPropertySequence, fmt.Sprintf("%d", r.Version))
	setLocalTime(ev, ics.ComponentPropertyDtStart, start)
	setLocalTime(ev, ics.ComponentPropertyDtEnd, start.Add(opts.EventDuration))
	return ev
}

// setLocalTime writes a DATE-TIME in the instant's own zone: UTC as a "Z"
// value, anything else as local time with a TZID parameter.
func setLocalTime(ev *ics.VEvent, prop ics.ComponentProperty, t time.Time) {
	if t.Location() == time.UTC {
		ev.SetProperty(prop, t.Format(icsLocalLayout+"Z"))
		return
	}
	ev.SetProperty(prop, t.Format(icsLocalLayout), &ics.KeyValues{
		Key:   string(ics.ParameterTzid),
		Value: []string{t.Location().String()},
	})
}

func uid(reminderID, suffix string, opts Options) string {
	if suffix == "" {
		return reminderID + "@" + opts.UIDDomain
	}
	return reminderID + "-" + suffix + "@" + opts.UIDDomain
}
