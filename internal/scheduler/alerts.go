// Package scheduler runs saved searches on a cron schedule and notifies
// chats about jobs they have not seen yet.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cv-navigator/internal/models"
	"cv-navigator/internal/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// maxSeen bounds the per-chat list of job IDs already delivered.
const maxSeen = 500

type Searcher interface {
	SearchAllSources(ctx context.Context, params models.SearchParams) []models.JobListing
}

type Notifier interface {
	NotifyNewJobs(ctx context.Context, sub models.AlertSubscription, jobs []models.JobListing) error
}

type Options struct {
	// Schedule is a cron spec, e.g. "@every 30m".
	Schedule  string
	MaxPerRun int
}

type Alerts struct {
	cron     *cron.Cron
	subs     *Subscriptions
	store    storage.Store
	search   Searcher
	notifier Notifier
	opts     Options
	logger   *zap.Logger

	running sync.Mutex
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewAlerts(store storage.Store, subs *Subscriptions, search Searcher, notifier Notifier, opts Options, logger *zap.Logger) *Alerts {
	if opts.Schedule == "" {
		opts.Schedule = "@every 30m"
	}
	logger = logger.Named("alerts")

	return &Alerts{
		cron:     cron.New(cron.WithLogger(cronLogger{logger})),
		subs:     subs,
		store:    store,
		search:   search,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the job and runs it once right away without waiting for
// the first tick.
func (a *Alerts) Start(ctx context.Context) error {
	if _, err := a.cron.AddFunc(a.opts.Schedule, func() {
		a.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule alerts %q: %w", a.opts.Schedule, err)
	}

	a.cron.Start()
	a.logger.Info("alert scheduler started", zap.String("schedule", a.opts.Schedule))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.RunOnce(ctx)
	}()

	return nil
}

// Stop waits for a run in progress to finish.
func (a *Alerts) Stop() {
	<-a.cron.Stop().Done()
	a.wg.Wait()
	a.logger.Info("alert scheduler stopped")
}

// RunOnce checks every subscription. Overlapping runs are skipped.
func (a *Alerts) RunOnce(ctx context.Context) {
	if !a.running.TryLock() {
		a.logger.Warn("previous alert run still in progress, skipping")
		return
	}
	defer a.running.Unlock()

	subs, err := a.subs.List(ctx)
	if err != nil {
		a.logger.Error("failed to load subscriptions", zap.Error(err))
		return
	}
	if len(subs) == 0 {
		a.logger.Debug("no subscriptions to check")
		return
	}

	a.logger.Info("checking subscriptions", zap.Int("count", len(subs)))

	for _, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		if err := a.check(ctx, sub); err != nil {
			a.logger.Error("failed to check subscription",
				zap.Int64("chat_id", sub.ChatID),
				zap.String("query", sub.Query),
				zap.Error(err),
			)
		}
	}

	a.logger.Info("finished alert run")
}

func (a *Alerts) check(ctx context.Context, sub models.AlertSubscription) error {
	jobs := a.search.SearchAllSources(ctx, sub.Params())

	seen, err := a.seen(ctx, sub.ChatID)
	if err != nil {
		return err
	}

	seenSet := make(map[string]bool, len(seen))
	for _, id := range seen {
		seenSet[id] = true
	}

	var fresh []models.JobListing
	for _, job := range jobs {
		if !seenSet[job.ID] {
			fresh = append(fresh, job)
		}
	}

	if len(fresh) == 0 {
		a.logger.Debug("no new jobs", zap.Int64("chat_id", sub.ChatID))
		return nil
	}
	if a.opts.MaxPerRun > 0 && len(fresh) > a.opts.MaxPerRun {
		fresh = fresh[:a.opts.MaxPerRun]
	}

	if err := a.notifier.NotifyNewJobs(ctx, sub, fresh); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	for _, job := range fresh {
		seen = append(seen, job.ID)
	}
	if len(seen) > maxSeen {
		seen = seen[len(seen)-maxSeen:]
	}
	if err := storage.SetJSON(ctx, a.store, storage.AlertSeenKey(sub.ChatID), seen, storage.AlertSeenTTL); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}

	sub.LastRunAt = a.now().UTC()
	if err := a.subs.Touch(ctx, sub); err != nil {
		a.logger.Warn("failed to update subscription", zap.Int64("chat_id", sub.ChatID), zap.Error(err))
	}

	a.logger.Info("sent new jobs",
		zap.Int64("chat_id", sub.ChatID),
		zap.Int("count", len(fresh)),
	)
	return nil
}

func (a *Alerts) seen(ctx context.Context, chatID int64) ([]string, error) {
	var ids []string
	err := storage.GetJSON(ctx, a.store, storage.AlertSeenKey(chatID), &ids)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load seen jobs: %w", err)
	}
	return ids, nil
}

// cronLogger sends robfig/cron's own messages to zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
