package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rezkam/hearth/internal/application/worker"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDelivery() *domain.Delivery {
	return &domain.Delivery{
		ID:          "del-1",
		ReminderID:  "rem-1",
		HouseholdID: "hh-1",
		OccursAt:    time.Date(2025, 12, 11, 8, 0, 0, 0, time.UTC),
		Title:       "Vitamins",
		Category:    domain.CategoryMedicine,
		Attempts:    1,
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, n.Notify(context.Background(), testDelivery()))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "reminder due", line["msg"])
	assert.Equal(t, "del-1", line["delivery_id"])
	assert.Equal(t, "Vitamins", line["title"])
}

func TestNewWebhookNotifier_RequiresURL(t *testing.T) {
	_, err := NewWebhookNotifier(WebhookConfig{URL: "  "})
	assert.Error(t, err)
}

func TestWebhookNotifier_Sends(t *testing.T) {
	var (
		got     WebhookPayload
		headers http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(WebhookConfig{URL: srv.URL, Token: "secret"})
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), testDelivery()))

	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "Bearer secret", headers.Get("Authorization"))
	assert.Equal(t, "del-1", headers.Get("Idempotency-Key"))
	assert.Equal(t, "rem-1", got.ReminderID)
	assert.Equal(t, "medicine", got.Category)
	assert.True(t, got.OccursAt.Equal(time.Date(2025, 12, 11, 8, 0, 0, 0, time.UTC)))
}

func TestWebhookNotifier_Classification(t *testing.T) {
	tests := []struct {
		status    int
		wantErr   bool
		retryable bool
		cancelled bool
	}{
		{status: http.StatusOK},
		{status: http.StatusNoContent},
		{status: http.StatusTooManyRequests, wantErr: true, retryable: true},
		{status: http.StatusInternalServerError, wantErr: true, retryable: true},
		{status: http.StatusServiceUnavailable, wantErr: true, retryable: true},
		{status: http.StatusBadRequest, wantErr: true},
		{status: http.StatusNotFound, wantErr: true},
		{status: http.StatusGone, wantErr: true, cancelled: true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			n, err := NewWebhookNotifier(WebhookConfig{URL: srv.URL})
			require.NoError(t, err)

			err = n.Notify(context.Background(), testDelivery())
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.retryable, worker.IsRetryable(err))
			assert.Equal(t, tt.cancelled, worker.IsCancelled(err))
		})
	}
}

func TestWebhookNotifier_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	n, err := NewWebhookNotifier(WebhookConfig{URL: url, Timeout: time.Second})
	require.NoError(t, err)

	err = n.Notify(context.Background(), testDelivery())
	require.Error(t, err)
	assert.True(t, worker.IsRetryable(err))
}
