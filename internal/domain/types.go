package domain

// ListRemindersParams contains parameters for listing a household's reminders.
type ListRemindersParams struct {
	HouseholdID string

	// Optional filters (nil = no filter applied)
	Active   *bool
	Category *Category

	// Pagination
	Limit  int
	Offset int
}

// PagedReminders contains reminders matching the query parameters.
type PagedReminders struct {
	Items      []Reminder
	TotalCount int
	HasMore    bool
}
