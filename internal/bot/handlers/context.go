package handlers

import (
	"context"
	"time"

	"cv-navigator/internal/models"
	"cv-navigator/internal/scheduler"
	"cv-navigator/internal/storage"
	"cv-navigator/internal/tracker"

	"go.uber.org/zap"
)

type Searcher interface {
	SearchAllSources(ctx context.Context, params models.SearchParams) []models.JobListing
}

type Applier interface {
	ApplyToJob(ctx context.Context, job models.JobListing) (models.ApplyResult, error)
}

type ApplicationLog interface {
	Applications(ctx context.Context) ([]models.Application, error)
	Stats(ctx context.Context) (tracker.Stats, error)
}

// Context contains deps for all handlers
type Context struct {
	Search        Searcher
	Applier       Applier
	Log           ApplicationLog
	Store         storage.Store
	Subscriptions *scheduler.Subscriptions
	// MaxResults caps the cards sent per search.
	MaxResults    int
	AlertInterval time.Duration
	Logger        *zap.Logger
}
