package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNow is Wednesday 2025-12-10 09:00 UTC.
var testNow = time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)

type advanceCall struct {
	reminderID string
	firedAt    time.Time
	next       *time.Time
}

// mockDispatch implements Repository and DispatchOperations for testing.
type mockDispatch struct {
	batches    [][]DueReminder
	lockErr    error
	duplicates map[string]bool // reminder IDs whose delivery already exists

	lockCalls  int
	deliveries []*domain.Delivery
	advanced   []advanceCall
}

func (m *mockDispatch) AtomicDispatch(_ context.Context, fn func(ops DispatchOperations) error) error {
	return fn(m)
}

func (m *mockDispatch) LockDueReminders(_ context.Context, now time.Time, limit int) ([]DueReminder, error) {
	m.lockCalls++
	if m.lockErr != nil {
		return nil, m.lockErr
	}
	if len(m.batches) == 0 {
		return nil, nil
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	if len(batch) > limit {
		batch = batch[:limit]
	}
	return batch, nil
}

func (m *mockDispatch) InsertDelivery(_ context.Context, d *domain.Delivery) (bool, error) {
	if m.duplicates[d.ReminderID] {
		return false, nil
	}
	m.deliveries = append(m.deliveries, d)
	return true, nil
}

func (m *mockDispatch) AdvanceReminder(_ context.Context, reminderID string, firedAt time.Time, next *time.Time) error {
	m.advanced = append(m.advanced, advanceCall{reminderID: reminderID, firedAt: firedAt, next: next})
	return nil
}

func dailyReminder(id string, runAt time.Time) domain.Reminder {
	start, _ := domain.NewDate(2025, time.December, 1)
	return domain.Reminder{
		ID:          id,
		HouseholdID: "hh-1",
		Title:       "Vitamins",
		Category:    domain.CategoryMedicine,
		Frequency:   domain.FrequencyDaily,
		TimeOfDay:   domain.TimeOfDay{Hour: 8, Minute: 0},
		StartDate:   start,
		IsActive:    true,
		NextRunAt:   &runAt,
	}
}

func newTestScheduler(repo Repository, cfg SchedulerConfig) *Scheduler {
	return NewScheduler(repo, cfg, WithSchedulerClock(func() time.Time { return testNow }))
}

func TestScheduler_FiresDueReminderAndAdvances(t *testing.T) {
	due := time.Date(2025, 12, 10, 8, 0, 0, 0, time.UTC)
	repo := &mockDispatch{batches: [][]DueReminder{{{Reminder: dailyReminder("r-1", due)}}}}

	fired, err := newTestScheduler(repo, SchedulerConfig{}).RunScheduleOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	require.Len(t, repo.deliveries, 1)
	d := repo.deliveries[0]
	assert.Equal(t, "r-1", d.ReminderID)
	assert.Equal(t, "hh-1", d.HouseholdID)
	assert.Equal(t, due, d.OccursAt)
	assert.Equal(t, "Vitamins", d.Title)
	assert.Equal(t, domain.DeliveryPending, d.Status)
	assert.Equal(t, testNow, d.AvailableAt)
	assert.Nil(t, d.ExpiresAt)
	assert.NotEmpty(t, d.ID)

	require.Len(t, repo.advanced, 1)
	assert.Equal(t, due, repo.advanced[0].firedAt)
	require.NotNil(t, repo.advanced[0].next)
	assert.Equal(t, time.Date(2025, 12, 11, 8, 0, 0, 0, time.UTC), *repo.advanced[0].next)
}

func TestScheduler_OnceReminderDeactivates(t *testing.T) {
	due := time.Date(2025, 12, 10, 8, 0, 0, 0, time.UTC)
	r := dailyReminder("r-1", due)
	r.Frequency = domain.FrequencyOnce
	r.StartDate, _ = domain.NewDate(2025, time.December, 10)
	repo := &mockDispatch{batches: [][]DueReminder{{{Reminder: r}}}}

	fired, err := newTestScheduler(repo, SchedulerConfig{}).RunScheduleOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, repo.advanced, 1)
	assert.Nil(t, repo.advanced[0].next)
}

func TestScheduler_MissedOccurrencesCollapse(t *testing.T) {
	// Dispatcher was down for three days.
	due := time.Date(2025, 12, 7, 8, 0, 0, 0, time.UTC)
	repo := &mockDispatch{batches: [][]DueReminder{{{Reminder: dailyReminder("r-1", due)}}}}

	_, err := newTestScheduler(repo, SchedulerConfig{}).RunScheduleOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, repo.deliveries, 1)
	assert.Equal(t, due, repo.deliveries[0].OccursAt)
	require.NotNil(t, repo.advanced[0].next)
	assert.Equal(t, time.Date(2025, 12, 11, 8, 0, 0, 0, time.UTC), *repo.advanced[0].next)
}

func TestScheduler_DuplicateOccurrenceStillAdvances(t *testing.T) {
	due := time.Date(2025, 12, 10, 8, 0, 0, 0, time.UTC)
	repo := &mockDispatch{
		batches:    [][]DueReminder{{{Reminder: dailyReminder("r-1", due)}}},
		duplicates: map[string]bool{"r-1": true},
	}

	fired, err := newTestScheduler(repo, SchedulerConfig{}).RunScheduleOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
	assert.Empty(t, repo.deliveries)
	require.Len(t, repo.advanced, 1)
	assert.NotNil(t, repo.advanced[0].next)
}

func TestScheduler_GracePeriodSetsExpiry(t *testing.T) {
	due := time.Date(2025, 12, 10, 8, 0, 0, 0, time.UTC)
	r := dailyReminder("r-1", due)
	r.GracePeriod = ptr.To(2 * time.Hour)
	repo := &mockDispatch{batches: [][]DueReminder{{{Reminder: r}}}}

	_, err := newTestScheduler(repo, SchedulerConfig{}).RunScheduleOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, repo.deliveries, 1)
	require.NotNil(t, repo.deliveries[0].ExpiresAt)
	assert.Equal(t, due.Add(2*time.Hour), *repo.deliveries[0].ExpiresAt)
}

func TestScheduler_UsesHouseholdTimezone(t *testing.T) {
	// 08:00 in Helsinki is 06:00 UTC in December.
	due := time.Date(2025, 12, 10, 6, 0, 0, 0, time.UTC)
	repo := &mockDispatch{batches: [][]DueReminder{{{
		Reminder:          dailyReminder("r-1", due),
		HouseholdTimezone: "Europe/Helsinki",
	}}}}

	_, err := newTestScheduler(repo, SchedulerConfig{}).RunScheduleOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, repo.advanced[0].next)
	assert.Equal(t, time.Date(2025, 12, 11, 6, 0, 0, 0, time.UTC), *repo.advanced[0].next)
	assert.Equal(t, time.UTC, repo.advanced[0].next.Location())
}

func TestScheduler_BrokenScheduleDeactivates(t *testing.T) {
	due := time.Date(2025, 12, 10, 8, 0, 0, 0, time.UTC)
	r := dailyReminder("r-1", due)
	r.Timezone = ptr.To("Mars/Olympus")
	repo := &mockDispatch{batches: [][]DueReminder{{{Reminder: r}}}}

	fired, err := newTestScheduler(repo, SchedulerConfig{}).RunScheduleOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, repo.advanced, 1)
	assert.Nil(t, repo.advanced[0].next)
}

func TestScheduler_DrainsFullBatches(t *testing.T) {
	due := time.Date(2025, 12, 10, 8, 0, 0, 0, time.UTC)
	repo := &mockDispatch{batches: [][]DueReminder{
		{{Reminder: dailyReminder("r-1", due)}, {Reminder: dailyReminder("r-2", due)}},
		{{Reminder: dailyReminder("r-3", due)}},
		{{Reminder: dailyReminder("r-4", due)}},
	}}

	fired, err := newTestScheduler(repo, SchedulerConfig{BatchSize: 2}).RunScheduleOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, fired)
	assert.Equal(t, 2, repo.lockCalls, "a short batch ends the cycle")
}

func TestScheduler_MaxBatchesBoundsCycle(t *testing.T) {
	due := time.Date(2025, 12, 10, 8, 0, 0, 0, time.UTC)
	repo := &mockDispatch{batches: [][]DueReminder{
		{{Reminder: dailyReminder("r-1", due)}},
		{{Reminder: dailyReminder("r-2", due)}},
		{{Reminder: dailyReminder("r-3", due)}},
	}}

	fired, err := newTestScheduler(repo, SchedulerConfig{BatchSize: 1, MaxBatches: 2}).RunScheduleOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fired)
	assert.Equal(t, 2, repo.lockCalls)
}

func TestScheduler_LockErrorIsReturned(t *testing.T) {
	repo := &mockDispatch{lockErr: errors.New("connection reset")}

	_, err := newTestScheduler(repo, SchedulerConfig{}).RunScheduleOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
