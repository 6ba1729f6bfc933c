// Package bot is the Telegram surface: search, apply, the application log
// and saved-search alerts.
package bot

import (
	"context"
	"fmt"
	"time"

	"cv-navigator/internal/bot/handlers"
	"cv-navigator/internal/bot/middleware"
	"cv-navigator/internal/bot/utils"
	"cv-navigator/internal/models"
	"cv-navigator/internal/scheduler"
	"cv-navigator/internal/storage"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type Deps struct {
	Search        handlers.Searcher
	Applier       handlers.Applier
	Log           handlers.ApplicationLog
	Store         storage.Store
	Subscriptions *scheduler.Subscriptions
	MaxResults    int
	AlertInterval time.Duration
}

// Bot represents Telegram bot
type Bot struct {
	bot    *tele.Bot
	deps   Deps
	logger *zap.Logger
}

func New(token string, deps Deps, logger *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	bot := &Bot{
		bot:    b,
		deps:   deps,
		logger: logger.Named("bot"),
	}

	bot.setupMiddleware()

	bot.registerHandlers()

	bot.logger.Info("bot initialized successfully", zap.String("username", b.Me.Username))

	return bot, nil
}

func (b *Bot) setupMiddleware() {
	b.bot.Use(middleware.Recovery(b.logger))

	b.bot.Use(middleware.Logger(b.logger))

	// nil when the backend cannot keep counters
	counter, _ := b.deps.Store.(storage.Counter)
	b.bot.Use(middleware.RateLimit(counter, b.logger))
}

func (b *Bot) registerHandlers() {
	ctx := &handlers.Context{
		Search:        b.deps.Search,
		Applier:       b.deps.Applier,
		Log:           b.deps.Log,
		Store:         b.deps.Store,
		Subscriptions: b.deps.Subscriptions,
		MaxResults:    b.deps.MaxResults,
		AlertInterval: b.deps.AlertInterval,
		Logger:        b.logger,
	}

	b.bot.Handle("/start", handlers.HandleStart(ctx))
	b.bot.Handle("/help", handlers.HandleHelp(ctx))
	b.bot.Handle("/search", handlers.HandleSearch(ctx))
	b.bot.Handle("/applications", handlers.HandleApplications(ctx))
	b.bot.Handle("/subscribe", handlers.HandleSubscribe(ctx))
	b.bot.Handle("/unsubscribe", handlers.HandleUnsubscribe(ctx))

	b.bot.Handle(tele.OnText, handlers.HandleText(ctx))

	b.bot.Handle(tele.OnCallback, handlers.HandleCallback(ctx))

	b.logger.Info("handlers registered")
}

// Start polls until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting bot...")

	go b.bot.Start()

	<-ctx.Done()

	b.logger.Info("stopping bot...")
	b.bot.Stop()

	return nil
}

// NotifyNewJobs sends alert results to the subscribed chat. The alert cards
// get their own cached batch so earlier search cards keep working.
func (b *Bot) NotifyNewJobs(ctx context.Context, sub models.AlertSubscription, jobs []models.JobListing) error {
	recipient := &tele.Chat{ID: sub.ChatID}

	token, err := handlers.CacheResults(ctx, b.deps.Store, jobs)
	if err != nil {
		b.logger.Warn("failed to cache alert results",
			zap.Int64("chat_id", sub.ChatID),
			zap.Error(err),
		)
	}

	if _, err := b.bot.Send(recipient, utils.FormatAlertHeader(sub, len(jobs)), tele.ModeMarkdownV2); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}

	return handlers.SendJobCards(b.bot, recipient, token, jobs, b.logger)
}
