package domain

import "fmt"

// Valid fields for UpdateReminderParams.
var updateReminderValidFields = map[string]struct{}{
	FieldTitle:       {},
	FieldNotes:       {},
	FieldCategory:    {},
	FieldFrequency:   {},
	FieldTimeOfDay:   {},
	FieldStartDate:   {},
	FieldEndDate:     {},
	FieldDaysOfWeek:  {},
	FieldCustomDates: {},
	FieldTimezone:    {},
	FieldGracePeriod: {},
}

// scheduleFields changes to any of these force next_run_at to be recomputed.
var scheduleFields = map[string]struct{}{
	FieldFrequency:   {},
	FieldTimeOfDay:   {},
	FieldStartDate:   {},
	FieldEndDate:     {},
	FieldDaysOfWeek:  {},
	FieldCustomDates: {},
	FieldTimezone:    {},
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateReminderParams) Validate() error {
	if len(p.UpdateMask) == 0 {
		return ErrEmptyUpdateMask
	}

	maskSet := make(map[string]bool, len(p.UpdateMask))

	// Check for unknown fields
	for _, field := range p.UpdateMask {
		if _, ok := updateReminderValidFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		maskSet[field] = true
	}

	// Required field checks (cannot be nil when in mask)
	if maskSet[FieldTitle] && p.Title == nil {
		return ErrTitleRequired
	}
	if maskSet[FieldFrequency] && p.Frequency == nil {
		return ErrInvalidFrequency
	}
	if maskSet[FieldTimeOfDay] && p.TimeOfDay == nil {
		return ErrInvalidTimeOfDay
	}
	if maskSet[FieldStartDate] && p.StartDate == nil {
		return ErrStartDateRequired
	}
	if maskSet[FieldCategory] && p.Category == nil {
		return ErrInvalidCategory
	}

	return nil
}

// Has reports whether field is in the update mask.
func (p UpdateReminderParams) Has(field string) bool {
	for _, f := range p.UpdateMask {
		if f == field {
			return true
		}
	}
	return false
}

// TouchesSchedule reports whether the mask changes any field the next
// occurrence depends on.
func (p UpdateReminderParams) TouchesSchedule() bool {
	for _, f := range p.UpdateMask {
		if _, ok := scheduleFields[f]; ok {
			return true
		}
	}
	return false
}

// Apply copies the masked fields onto r. Params must have been validated.
func (p UpdateReminderParams) Apply(r *Reminder) {
	for _, field := range p.UpdateMask {
		switch field {
		case FieldTitle:
			r.Title = *p.Title
		case FieldNotes:
			r.Notes = ""
			if p.Notes != nil {
				r.Notes = *p.Notes
			}
		case FieldCategory:
			r.Category = *p.Category
		case FieldFrequency:
			r.Frequency = *p.Frequency
		case FieldTimeOfDay:
			r.TimeOfDay = *p.TimeOfDay
		case FieldStartDate:
			r.StartDate = *p.StartDate
		case FieldEndDate:
			r.EndDate = p.EndDate
		case FieldDaysOfWeek:
			r.DaysOfWeek = 0
			if p.DaysOfWeek != nil {
				r.DaysOfWeek = *p.DaysOfWeek
			}
		case FieldCustomDates:
			r.CustomDates = nil
			if p.CustomDates != nil {
				r.CustomDates = *p.CustomDates
			}
		case FieldTimezone:
			r.Timezone = p.Timezone
		case FieldGracePeriod:
			r.GracePeriod = p.GracePeriod
		}
	}
}
