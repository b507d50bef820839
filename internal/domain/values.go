package domain

// Frequency is the cadence a reminder fires with.
// Value object - immutable string enum.
type Frequency string

const (
	FrequencyOnce   Frequency = "once"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// Category groups reminders by what they are about.
// Value object - immutable string enum.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryMedicine    Category = "medicine"
	CategoryAppointment Category = "appointment"
	CategoryBill        Category = "bill"
	CategoryChore       Category = "chore"
)

// DeliveryStatus is the lifecycle state of an outbox delivery.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySending DeliveryStatus = "sending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryDead    DeliveryStatus = "dead"
)
