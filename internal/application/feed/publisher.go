// Package feed publishes every household's reminder calendar to a blob store,
// where calendar apps can subscribe to it without an API key.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rezkam/hearth/internal/calendar"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/infrastructure/blob"
)

const (
	keyPrefix   = "households/"
	feedName    = "reminders.ics"
	contentType = "text/calendar; charset=utf-8"
)

// Repository defines the reads the publisher needs.
type Repository interface {
	// ListHouseholds returns every household.
	ListHouseholds(ctx context.Context) ([]domain.Household, error)

	// FindActiveReminders returns all active reminders of a household.
	FindActiveReminders(ctx context.Context, householdID string) ([]domain.Reminder, error)
}

// Key returns the blob key of a household's feed.
func Key(householdID string) string {
	return keyPrefix + householdID + "/" + feedName
}

// householdOf extracts the household ID from a feed key; ok is false for foreign keys.
func householdOf(key string) (string, bool) {
	rest, found := strings.CutPrefix(key, keyPrefix)
	if !found {
		return "", false
	}
	id, name, found := strings.Cut(rest, "/")
	if !found || name != feedName || id == "" {
		return "", false
	}
	return id, true
}

// Result summarises one publishing run.
type Result struct {
	Published int
	Pruned    int
	Failed    int
}

// Publisher renders household calendars and writes them to a blob store.
type Publisher struct {
	repo     Repository
	store    blob.Store
	calendar calendar.Options
	now      func() time.Time
}

// Option is a functional option for configuring Publisher.
type Option func(*Publisher)

// WithClock sets the clock used to expand one-off occurrences.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// NewPublisher creates a new Publisher.
func NewPublisher(repo Repository, store blob.Store, opts calendar.Options, options ...Option) *Publisher {
	p := &Publisher{
		repo:     repo,
		store:    store,
		calendar: opts,
		now:      time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Publish renders and writes the feed of one household.
func (p *Publisher) Publish(ctx context.Context, h *domain.Household) error {
	reminders, err := p.repo.FindActiveReminders(ctx, h.ID)
	if err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}

	doc, err := calendar.Render(h, reminders, p.now(), p.calendar)
	if err != nil {
		return fmt.Errorf("failed to render calendar: %w", err)
	}

	if err := p.store.Put(ctx, Key(h.ID), []byte(doc), contentType); err != nil {
		return fmt.Errorf("failed to write feed: %w", err)
	}
	return nil
}

// PublishAll writes the feed of every household and deletes feeds of
// households that no longer exist. A household that fails to publish is
// logged and counted; it does not stop the run.
func (p *Publisher) PublishAll(ctx context.Context) (Result, error) {
	var res Result

	households, err := p.repo.ListHouseholds(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list households: %w", err)
	}

	live := make(map[string]struct{}, len(households))
	for i := range households {
		h := &households[i]
		live[h.ID] = struct{}{}

		if err := p.Publish(ctx, h); err != nil {
			res.Failed++
			slog.ErrorContext(ctx, "Failed to publish household feed", "household_id", h.ID, "error", err)
			continue
		}
		res.Published++
	}

	keys, err := p.store.List(ctx, keyPrefix)
	if err != nil {
		return res, fmt.Errorf("failed to list feeds: %w", err)
	}
	for _, key := range keys {
		id, ok := householdOf(key)
		if !ok {
			continue
		}
		if _, exists := live[id]; exists {
			continue
		}
		if err := p.store.Delete(ctx, key); err != nil {
			slog.ErrorContext(ctx, "Failed to prune stale feed", "key", key, "error", err)
			continue
		}
		res.Pruned++
	}

	slog.InfoContext(ctx, "Published calendar feeds",
		"published", res.Published,
		"pruned", res.Pruned,
		"failed", res.Failed,
	)
	return res, nil
}
