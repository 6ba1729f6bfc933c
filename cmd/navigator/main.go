package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cv-navigator/internal/aggregator"
	"cv-navigator/internal/api/jobsources"
	"cv-navigator/internal/bot"
	"cv-navigator/internal/config"
	"cv-navigator/internal/httpapi"
	"cv-navigator/internal/logger"
	"cv-navigator/internal/recorder"
	"cv-navigator/internal/scheduler"
	"cv-navigator/internal/storage"
	"cv-navigator/internal/storage/memory"
	"cv-navigator/internal/storage/postgres"
	"cv-navigator/internal/storage/redis"
	"cv-navigator/internal/storage/sqlite"
	"cv-navigator/internal/tracker"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting CV Navigator",
		zap.String("log_level", cfg.LogLevel),
		zap.String("storage", cfg.StorageDriver),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("failed to open storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer store.Close()

	agg := aggregator.New(buildSources(cfg, log), aggregator.Options{
		SourceTimeout: cfg.SourceTimeout,
		MockFallback:  cfg.MockFallback,
	}, log)
	log.Info("job sources configured", zap.Strings("sources", agg.Sources()))

	tr := tracker.New(store, log)
	backend := recorder.NewSimulatedBackend(cfg.SimulateMinDelay, cfg.SimulateMaxDelay, log)
	rec := recorder.New(tr, backend, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	var wg sync.WaitGroup

	if cfg.TelegramToken != "" {
		startBot(ctx, &wg, cfg, store, agg, tr, rec, log)
	} else {
		log.Info("TELEGRAM_TOKEN not set, bot and alerts disabled")
	}

	apiOpts := httpapi.Options{
		Addr:               cfg.HTTPAddr,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}
	// memory has nothing to ping
	if p, ok := store.(httpapi.Pinger); ok {
		apiOpts.Storage = p
	}
	api := httpapi.New(agg, rec, tr, apiOpts, log)

	log.Info("press Ctrl+C to stop")

	if err := api.Run(ctx); err != nil {
		log.Error("HTTP server stopped with error", zap.Error(err))
		cancel()
	}

	log.Info("shutting down gracefully...")
	wg.Wait()

	log.Info("CV Navigator stopped")
}

func startBot(
	ctx context.Context,
	wg *sync.WaitGroup,
	cfg *config.Config,
	store storage.Store,
	agg *aggregator.Aggregator,
	tr *tracker.Tracker,
	rec *recorder.Recorder,
	log *zap.Logger,
) {
	subs := scheduler.NewSubscriptions(store)

	log.Info("initializing Telegram bot...")
	tgBot, err := bot.New(cfg.TelegramToken, bot.Deps{
		Search:        agg,
		Applier:       rec,
		Log:           tr,
		Store:         store,
		Subscriptions: subs,
		AlertInterval: scheduleInterval(cfg.AlertSchedule),
	}, log)
	if err != nil {
		log.Fatal("failed to create bot", zap.Error(err))
	}

	alerts := scheduler.NewAlerts(store, subs, agg, tgBot, scheduler.Options{
		Schedule:  cfg.AlertSchedule,
		MaxPerRun: cfg.MaxAlertsPerRun,
	}, log)
	if err := alerts.Start(ctx); err != nil {
		log.Fatal("failed to start alerts", zap.Error(err))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tgBot.Start(ctx); err != nil {
			log.Error("bot stopped with error", zap.Error(err))
		}
		alerts.Stop()
	}()
}

func openStore(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		return sqlite.New(cfg.SQLitePath, log)
	case config.DriverPostgres:
		log.Info("connecting to PostgreSQL...")
		return postgres.New(cfg.PostgresDSN, log)
	case config.DriverRedis:
		log.Info("connecting to Redis...")
		return redis.New(redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, log)
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on exit")
		return memory.New(log), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func buildSources(cfg *config.Config, log *zap.Logger) aggregator.Sources {
	client := jobsources.NewClient(cfg.SourceTimeout, log)

	return aggregator.Sources{
		Adzuna: jobsources.NewAdzuna(client, jobsources.AdzunaConfig{
			AppID:   cfg.AdzunaAppID,
			AppKey:  cfg.AdzunaAppKey,
			Country: cfg.AdzunaCountry,
			BaseURL: cfg.AdzunaBaseURL,
		}, log),
		RemoteOK: jobsources.NewRemoteOK(client, cfg.RemoteOKURL, log),
		Reed:     jobsources.NewReed(client, cfg.ReedAPIKey, cfg.ReedBaseURL, log),
		Google: jobsources.NewGoogle(client, jobsources.GoogleConfig{
			APIKey:     cfg.GoogleAPIKey,
			EngineID:   cfg.GoogleCSEID,
			BaseURL:    cfg.GoogleBaseURL,
			MaxResults: cfg.GoogleMaxResults,
		}, log),
		Mock: jobsources.NewMock(),
	}
}

// scheduleInterval reads the period of an "@every" spec. Other specs yield 0.
func scheduleInterval(spec string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(strings.TrimPrefix(spec, "@every")))
	if err != nil {
		return 0
	}
	return d
}
