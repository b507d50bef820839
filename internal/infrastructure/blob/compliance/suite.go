// Package compliance holds the behaviour every blob.Store implementation must share.
package compliance

import (
	"context"
	"testing"

	"github.com/rezkam/hearth/internal/infrastructure/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreComplianceTest runs a standard set of tests against a blob.Store implementation.
// setup is a function that returns a fresh (clean) Store for the test.
// cleanup is called after the test to clean up resources (if any).
func RunStoreComplianceTest(t *testing.T, setup func() (blob.Store, func())) {
	t.Run("PutAndGet", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "households/hh-1/reminders.ics", []byte("BEGIN:VCALENDAR"), "text/calendar"))

		data, err := store.Get(ctx, "households/hh-1/reminders.ics")
		require.NoError(t, err)
		assert.Equal(t, "BEGIN:VCALENDAR", string(data))
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "k/v", []byte("one"), "text/plain"))
		require.NoError(t, store.Put(ctx, "k/v", []byte("two"), "text/plain"))

		data, err := store.Get(ctx, "k/v")
		require.NoError(t, err)
		assert.Equal(t, "two", string(data))
	})

	t.Run("GetMissing", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()

		_, err := store.Get(context.Background(), "missing/key")
		assert.ErrorIs(t, err, blob.ErrObjectNotFound)
	})

	t.Run("ListByPrefix", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		for _, k := range []string{"households/b/reminders.ics", "households/a/reminders.ics", "other/x"} {
			require.NoError(t, store.Put(ctx, k, []byte(k), "text/plain"))
		}

		keys, err := store.List(ctx, "households/")
		require.NoError(t, err)
		assert.Equal(t, []string{"households/a/reminders.ics", "households/b/reminders.ics"}, keys)
	})

	t.Run("Delete", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "k/v", []byte("x"), "text/plain"))
		require.NoError(t, store.Delete(ctx, "k/v"))

		_, err := store.Get(ctx, "k/v")
		assert.ErrorIs(t, err, blob.ErrObjectNotFound)

		// Deleting again is a no-op.
		require.NoError(t, store.Delete(ctx, "k/v"))
	})

	t.Run("RejectsInvalidKey", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()

		err := store.Put(context.Background(), "../escape", []byte("x"), "text/plain")
		assert.ErrorIs(t, err, blob.ErrInvalidKey)
	})
}
