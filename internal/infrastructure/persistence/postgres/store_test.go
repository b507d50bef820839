package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/hearth/internal/application/worker"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/hearth/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)

// newTestStore connects to HEARTH_TEST_DB_DSN and empties every table.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("HEARTH_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("HEARTH_TEST_DB_DSN not set, skipping PostgreSQL tests")
	}

	ctx := context.Background()
	store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Pool().Exec(ctx, `TRUNCATE deliveries, reminders, api_keys, households CASCADE`)
	require.NoError(t, err)
	return store
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func createHousehold(t *testing.T, store *postgres.Store, tz string) *domain.Household {
	t.Helper()
	h := &domain.Household{ID: newID(), Name: "Test", Timezone: tz, CreatedAt: testNow}
	require.NoError(t, store.CreateHousehold(context.Background(), h))
	return h
}

func newReminder(householdID string) *domain.Reminder {
	start, _ := domain.NewDate(2025, time.December, 1)
	end, _ := domain.NewDate(2026, time.June, 30)
	c1, _ := domain.NewDate(2026, time.March, 2)
	c2, _ := domain.NewDate(2026, time.January, 15)
	next := time.Date(2025, 12, 11, 8, 0, 0, 0, time.UTC)
	return &domain.Reminder{
		ID:          newID(),
		HouseholdID: householdID,
		Title:       "Vitamins",
		Notes:       "with breakfast",
		Category:    domain.CategoryMedicine,
		Frequency:   domain.FrequencyWeekly,
		TimeOfDay:   domain.TimeOfDay{Hour: 8, Minute: 0},
		StartDate:   start,
		EndDate:     &end,
		DaysOfWeek:  domain.NewWeekdaySet(time.Thursday, time.Saturday),
		CustomDates: []domain.Date{c1, c2},
		Timezone:    ptr.To("Europe/Helsinki"),
		GracePeriod: ptr.To(2 * time.Hour),
		IsActive:    true,
		NextRunAt:   &next,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
}

func TestStore_Households(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	h := createHousehold(t, store, "Europe/Stockholm")

	got, err := store.FindHouseholdByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Name, got.Name)
	assert.Equal(t, "Europe/Stockholm", got.Timezone)
	assert.True(t, got.CreatedAt.Equal(testNow))

	all, err := store.ListHouseholds(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = store.FindHouseholdByID(ctx, newID())
	assert.ErrorIs(t, err, domain.ErrHouseholdNotFound)
	_, err = store.FindHouseholdByID(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrHouseholdNotFound)

	require.NoError(t, store.DeleteHousehold(ctx, h.ID))
	assert.ErrorIs(t, store.DeleteHousehold(ctx, h.ID), domain.ErrHouseholdNotFound)
}

func TestStore_ReminderRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	h := createHousehold(t, store, "")

	r := newReminder(h.ID)
	created, err := store.CreateReminder(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	got, err := store.FindReminderByID(ctx, h.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Title, got.Title)
	assert.Equal(t, r.Notes, got.Notes)
	assert.Equal(t, r.Category, got.Category)
	assert.Equal(t, r.Frequency, got.Frequency)
	assert.Equal(t, r.TimeOfDay, got.TimeOfDay)
	assert.Equal(t, r.StartDate, got.StartDate)
	assert.Equal(t, r.EndDate, got.EndDate)
	assert.Equal(t, r.DaysOfWeek, got.DaysOfWeek)
	assert.Equal(t, domain.SortDates(r.CustomDates), got.CustomDates)
	assert.Equal(t, r.Timezone, got.Timezone)
	assert.Equal(t, r.GracePeriod, got.GracePeriod)
	require.NotNil(t, got.NextRunAt)
	assert.True(t, got.NextRunAt.Equal(*r.NextRunAt))
	assert.Nil(t, got.LastFiredAt)

	// Another household cannot see it.
	other := createHousehold(t, store, "")
	_, err = store.FindReminderByID(ctx, other.ID, r.ID)
	assert.ErrorIs(t, err, domain.ErrReminderNotFound)
}

func TestStore_CreateReminderUnknownHousehold(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateReminder(context.Background(), newReminder(newID()))
	assert.ErrorIs(t, err, domain.ErrHouseholdNotFound)
}

func TestStore_UpdateReminderOptimisticLocking(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	h := createHousehold(t, store, "")
	r := newReminder(h.ID)
	_, err := store.CreateReminder(ctx, r)
	require.NoError(t, err)

	r.Title = "Fish oil"
	r.EndDate = nil
	r.Timezone = nil
	updated, err := store.UpdateReminder(ctx, r, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Fish oil", updated.Title)
	assert.Nil(t, updated.EndDate)
	assert.Nil(t, updated.Timezone)

	_, err = store.UpdateReminder(ctx, r, 1)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	r.ID = newID()
	_, err = store.UpdateReminder(ctx, r, 2)
	assert.ErrorIs(t, err, domain.ErrReminderNotFound)
}

func TestStore_ListRemindersFiltersAndPages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	h := createHousehold(t, store, "")

	for i := range 5 {
		r := newReminder(h.ID)
		r.CreatedAt = testNow.Add(time.Duration(i) * time.Minute)
		if i%2 == 1 {
			r.Category = domain.CategoryChore
			r.IsActive = false
		}
		_, err := store.CreateReminder(ctx, r)
		require.NoError(t, err)
	}

	page, err := store.ListReminders(ctx, domain.ListRemindersParams{HouseholdID: h.ID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalCount)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt), "newest first")

	last, err := store.ListReminders(ctx, domain.ListRemindersParams{HouseholdID: h.ID, Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)
	assert.False(t, last.HasMore)

	active, err := store.ListReminders(ctx, domain.ListRemindersParams{HouseholdID: h.ID, Active: ptr.To(true), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, active.TotalCount)

	chores, err := store.ListReminders(ctx, domain.ListRemindersParams{HouseholdID: h.ID, Category: ptr.To(domain.CategoryChore), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, chores.TotalCount)

	activeOnly, err := store.FindActiveReminders(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, activeOnly, 3)
}

func TestStore_DeleteReminder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	h := createHousehold(t, store, "")
	r := newReminder(h.ID)
	_, err := store.CreateReminder(ctx, r)
	require.NoError(t, err)

	require.NoError(t, store.DeleteReminder(ctx, h.ID, r.ID))
	assert.ErrorIs(t, store.DeleteReminder(ctx, h.ID, r.ID), domain.ErrReminderNotFound)
}

func TestStore_DispatchAndDeliveryLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	h := createHousehold(t, store, "Europe/Helsinki")

	r := newReminder(h.ID)
	due := testNow.Add(-time.Hour)
	r.NextRunAt = &due
	_, err := store.CreateReminder(ctx, r)
	require.NoError(t, err)

	future := newReminder(h.ID)
	_, err = store.CreateReminder(ctx, future)
	require.NoError(t, err)

	next := testNow.Add(24 * time.Hour)
	err = store.AtomicDispatch(ctx, func(ops worker.DispatchOperations) error {
		locked, err := ops.LockDueReminders(ctx, testNow, 10)
		require.NoError(t, err)
		require.Len(t, locked, 1)
		assert.Equal(t, r.ID, locked[0].Reminder.ID)
		assert.Equal(t, "Europe/Helsinki", locked[0].HouseholdTimezone)

		d := &domain.Delivery{
			ID: newID(), ReminderID: r.ID, HouseholdID: h.ID, OccursAt: due,
			Title: r.Title, Category: r.Category, Status: domain.DeliveryPending,
			AvailableAt: testNow, CreatedAt: testNow,
		}
		inserted, err := ops.InsertDelivery(ctx, d)
		require.NoError(t, err)
		assert.True(t, inserted)

		dup := *d
		dup.ID = newID()
		inserted, err = ops.InsertDelivery(ctx, &dup)
		require.NoError(t, err)
		assert.False(t, inserted, "same occurrence fires once")

		return ops.AdvanceReminder(ctx, r.ID, due, &next)
	})
	require.NoError(t, err)

	advanced, err := store.FindReminderByID(ctx, h.ID, r.ID)
	require.NoError(t, err)
	assert.True(t, advanced.NextRunAt.Equal(next))
	assert.True(t, advanced.LastFiredAt.Equal(due))
	assert.Equal(t, 2, advanced.Version)
	assert.True(t, advanced.IsActive)

	// Claim, retry, reclaim, complete.
	claimed, err := store.ClaimDeliveries(ctx, "w-1", testNow, time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	d := claimed[0]
	assert.Equal(t, domain.DeliverySending, d.Status)
	assert.Equal(t, 1, d.Attempts)
	assert.Equal(t, "w-1", *d.ClaimedBy)

	// Another worker cannot touch it.
	assert.ErrorIs(t, store.CompleteDelivery(ctx, d.ID, "w-2", testNow), domain.ErrDeliveryOwnershipLost)

	require.NoError(t, store.RetryDelivery(ctx, d.ID, "w-1", "timeout", testNow.Add(time.Minute)))
	none, err := store.ClaimDeliveries(ctx, "w-1", testNow, time.Minute, 10)
	require.NoError(t, err)
	assert.Empty(t, none, "not available before backoff ends")

	later := testNow.Add(2 * time.Minute)
	claimed, err = store.ClaimDeliveries(ctx, "w-2", later, time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 2, claimed[0].Attempts)
	assert.Equal(t, "timeout", *claimed[0].LastError)

	require.NoError(t, store.CompleteDelivery(ctx, d.ID, "w-2", later))
	assert.ErrorIs(t, store.CompleteDelivery(ctx, d.ID, "w-2", later), domain.ErrDeliveryOwnershipLost)
}

func TestStore_ExpiredLeaseIsReclaimed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	h := createHousehold(t, store, "")
	r := newReminder(h.ID)
	_, err := store.CreateReminder(ctx, r)
	require.NoError(t, err)

	err = store.AtomicDispatch(ctx, func(ops worker.DispatchOperations) error {
		_, err := ops.InsertDelivery(ctx, &domain.Delivery{
			ID: newID(), ReminderID: r.ID, HouseholdID: h.ID, OccursAt: testNow,
			Title: r.Title, Category: r.Category, AvailableAt: testNow, CreatedAt: testNow,
		})
		return err
	})
	require.NoError(t, err)

	first, err := store.ClaimDeliveries(ctx, "w-1", testNow, time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// w-1 crashed; after the lease ends w-2 takes over.
	second, err := store.ClaimDeliveries(ctx, "w-2", testNow.Add(2*time.Minute), time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.ErrorIs(t, store.DeadLetterDelivery(ctx, first[0].ID, "w-1", worker.ReasonPermanent, "late"), domain.ErrDeliveryOwnershipLost)
	require.NoError(t, store.DeadLetterDelivery(ctx, second[0].ID, "w-2", worker.ReasonExhausted, "timeout"))
}

func TestStore_APIKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	h := createHousehold(t, store, "")

	key := &domain.APIKey{
		ID: newID(), HouseholdID: h.ID, KeyType: "sk", Service: "hearth", Version: "v1",
		ShortToken: "a3f5d8c2b4e6", LongSecretHash: "hash", Name: "tablet",
		IsActive: true, CreatedAt: testNow,
	}
	require.NoError(t, store.Create(ctx, key))

	got, err := store.FindByShortToken(ctx, "a3f5d8c2b4e6")
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.HouseholdID)
	assert.Nil(t, got.LastUsedAt)

	require.NoError(t, store.UpdateLastUsed(ctx, key.ID, testNow))
	require.NoError(t, store.UpdateLastUsed(ctx, key.ID, testNow.Add(-time.Hour)), "older timestamps are ignored")
	got, err = store.FindByShortToken(ctx, "a3f5d8c2b4e6")
	require.NoError(t, err)
	assert.True(t, got.LastUsedAt.Equal(testNow))

	assert.ErrorIs(t, store.UpdateLastUsed(ctx, newID(), testNow), domain.ErrNotFound)
	_, err = store.FindByShortToken(ctx, "000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	orphan := *key
	orphan.ID = newID()
	orphan.ShortToken = "b3f5d8c2b4e6"
	orphan.HouseholdID = newID()
	assert.ErrorIs(t, store.Create(ctx, &orphan), domain.ErrHouseholdNotFound)
}
