package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cv-navigator/internal/models"
	"cv-navigator/internal/storage"
	"cv-navigator/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSearch struct {
	mu   sync.Mutex
	jobs []models.JobListing
}

func (f *fakeSearch) SearchAllSources(context.Context, models.SearchParams) []models.JobListing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.JobListing(nil), f.jobs...)
}

func (f *fakeSearch) set(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = nil
	for _, id := range ids {
		f.jobs = append(f.jobs, models.JobListing{ID: id, Title: "Job " + id})
	}
}

type notification struct {
	chatID int64
	ids    []string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (f *fakeNotifier) NotifyNewJobs(_ context.Context, sub models.AlertSubscription, jobs []models.JobListing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	n := notification{chatID: sub.ChatID}
	for _, j := range jobs {
		n.ids = append(n.ids, j.ID)
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) notifications() []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notification(nil), f.sent...)
}

type fixture struct {
	store    storage.Store
	subs     *Subscriptions
	search   *fakeSearch
	notifier *fakeNotifier
	alerts   *Alerts
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := memory.New(log)
	t.Cleanup(func() { _ = store.Close() })

	f := fixture{
		store:    store,
		subs:     NewSubscriptions(store),
		search:   &fakeSearch{},
		notifier: &fakeNotifier{},
	}
	f.alerts = NewAlerts(store, f.subs, f.search, f.notifier, opts, log)
	return f
}

func TestRunOnceNotifiesUnseenJobs(t *testing.T) {
	f := newFixture(t, Options{MaxPerRun: 2})
	ctx := context.Background()

	require.NoError(t, f.subs.Put(ctx, models.AlertSubscription{ChatID: 7, Query: "golang"}))

	f.search.set("a", "b", "c")
	f.alerts.RunOnce(ctx)

	f.search.set("a", "b", "c", "d")
	f.alerts.RunOnce(ctx)

	// nothing new
	f.alerts.RunOnce(ctx)

	sent := f.notifier.notifications()
	require.Len(t, sent, 2)
	assert.Equal(t, []string{"a", "b"}, sent[0].ids, "capped per run")
	assert.Equal(t, []string{"c", "d"}, sent[1].ids)
	assert.Equal(t, int64(7), sent[1].chatID)

	sub, ok, err := f.subs.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, sub.LastRunAt.IsZero())
}

func TestFailedNotificationIsRetried(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	require.NoError(t, f.subs.Put(ctx, models.AlertSubscription{ChatID: 1, Query: "rust"}))
	f.search.set("x")

	f.notifier.err = fmt.Errorf("telegram down")
	f.alerts.RunOnce(ctx)
	assert.Empty(t, f.notifier.notifications())

	f.notifier.err = nil
	f.alerts.RunOnce(ctx)
	require.Len(t, f.notifier.notifications(), 1)
}

func TestSubscriptions(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	subs, err := f.subs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	require.NoError(t, f.subs.Put(ctx, models.AlertSubscription{ChatID: 2, Query: "go"}))
	require.NoError(t, f.subs.Put(ctx, models.AlertSubscription{ChatID: 1, Query: "python"}))
	require.NoError(t, f.subs.Put(ctx, models.AlertSubscription{ChatID: 2, Query: "golang"}))

	subs, err = f.subs.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(1), subs[0].ChatID)
	assert.Equal(t, "golang", subs[1].Query)

	require.NoError(t, storage.SetJSON(ctx, f.store, storage.AlertSeenKey(2), []string{"a"}, time.Hour))

	removed, err := f.subs.Remove(ctx, 2)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = f.store.Get(ctx, storage.AlertSeenKey(2))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	removed, err = f.subs.Remove(ctx, 2)
	require.NoError(t, err)
	assert.False(t, removed)

	// a run finishing after unsubscribe must not bring the chat back
	require.NoError(t, f.subs.Touch(ctx, models.AlertSubscription{ChatID: 2, LastRunAt: time.Now()}))
	_, ok, err := f.subs.Get(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStartRunsImmediatelyAndStopWaits(t *testing.T) {
	f := newFixture(t, Options{Schedule: "@every 1h"})
	ctx := context.Background()

	require.NoError(t, f.subs.Put(ctx, models.AlertSubscription{ChatID: 9, Query: "go"}))
	f.search.set("a")

	require.NoError(t, f.alerts.Start(ctx))
	f.alerts.Stop()

	assert.Len(t, f.notifier.notifications(), 1)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	f := newFixture(t, Options{Schedule: "every now and then"})
	assert.Error(t, f.alerts.Start(context.Background()))
}
