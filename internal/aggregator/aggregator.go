// Package aggregator fans a search out to every eligible job source and
// merges the answers into one deduplicated, sorted and filtered list.
package aggregator

import (
	"context"
	"errors"
	"strings"
	"time"

	"cv-navigator/internal/api/jobsources"
	"cv-navigator/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sources wires the adapters. Nil entries are never called.
type Sources struct {
	Adzuna   jobsources.Source
	RemoteOK jobsources.Source
	Reed     jobsources.Source
	Google   jobsources.Source
	Mock     jobsources.Source
}

type Options struct {
	SourceTimeout time.Duration
	// MockFallback serves the mock list when every real source is empty.
	MockFallback bool
}

type Aggregator struct {
	sources Sources
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

func New(sources Sources, opts Options, logger *zap.Logger) *Aggregator {
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = 15 * time.Second
	}
	return &Aggregator{
		sources: sources,
		opts:    opts,
		logger:  logger.Named("aggregator"),
		now:     time.Now,
	}
}

// SearchAllSources never fails: a source that errors or times out simply
// contributes nothing.
func (a *Aggregator) SearchAllSources(ctx context.Context, params models.SearchParams) []models.JobListing {
	q := jobsources.QueryFromParams(params)
	calls := a.eligible(params)

	results := make([][]models.JobListing, len(calls))

	var g errgroup.Group
	for i, src := range calls {
		g.Go(func() error {
			results[i] = a.searchOne(ctx, src, q)
			return nil
		})
	}
	_ = g.Wait()

	var merged []models.JobListing
	for _, r := range results {
		merged = append(merged, r...)
	}

	merged = Dedup(merged)

	if len(merged) == 0 && a.opts.MockFallback && a.sources.Mock != nil {
		a.logger.Info("no results from live sources, using mock listings",
			zap.String("query", params.Query),
		)
		merged = a.searchOne(ctx, a.sources.Mock, q)
	}

	SortByPostedDate(merged)
	filtered := Filter(merged, params)

	a.logger.Info("search complete",
		zap.String("query", params.Query),
		zap.String("location", params.Location),
		zap.Int("sources", len(calls)),
		zap.Int("merged", len(merged)),
		zap.Int("returned", len(filtered)),
	)

	return filtered
}

// SearchGoogle runs only the Google adapter and, unlike SearchAllSources,
// reports its configuration error so the caller can ask for a fix.
func (a *Aggregator) SearchGoogle(ctx context.Context, params models.SearchParams) ([]models.JobListing, error) {
	if a.sources.Google == nil {
		return []models.JobListing{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.SourceTimeout)
	defer cancel()

	jobs, err := a.sources.Google.Search(ctx, jobsources.QueryFromParams(params))
	if err != nil {
		return nil, err
	}

	jobs = jobsources.Normalize(jobs, a.now())
	SortByPostedDate(jobs)
	return Filter(jobs, params), nil
}

// SearchMock returns the filtered mock listings.
func (a *Aggregator) SearchMock(ctx context.Context, params models.SearchParams) []models.JobListing {
	if a.sources.Mock == nil {
		return []models.JobListing{}
	}
	jobs := a.searchOne(ctx, a.sources.Mock, jobsources.QueryFromParams(params))
	SortByPostedDate(jobs)
	return Filter(jobs, params)
}

// Sources lists the names of the adapters that can currently be called.
func (a *Aggregator) Sources() []string {
	var names []string
	for _, src := range []jobsources.Source{a.sources.Adzuna, a.sources.RemoteOK, a.sources.Reed, a.sources.Google} {
		if src != nil && ready(src) {
			names = append(names, src.Name())
		}
	}
	if a.opts.MockFallback && a.sources.Mock != nil {
		names = append(names, a.sources.Mock.Name())
	}
	return names
}

// eligible returns the sources to call, in merge order.
func (a *Aggregator) eligible(params models.SearchParams) []jobsources.Source {
	var calls []jobsources.Source

	if a.sources.Adzuna != nil && ready(a.sources.Adzuna) {
		calls = append(calls, a.sources.Adzuna)
	}
	if a.sources.RemoteOK != nil && wantsRemote(params) {
		calls = append(calls, a.sources.RemoteOK)
	}
	if a.sources.Reed != nil && ready(a.sources.Reed) {
		calls = append(calls, a.sources.Reed)
	}
	if a.sources.Google != nil {
		calls = append(calls, a.sources.Google)
	}

	return calls
}

func (a *Aggregator) searchOne(ctx context.Context, src jobsources.Source, q jobsources.Query) []models.JobListing {
	ctx, cancel := context.WithTimeout(ctx, a.opts.SourceTimeout)
	defer cancel()

	start := time.Now()
	jobs, err := src.Search(ctx, q)
	if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ctx.Err()
	}
	if err != nil {
		a.logger.Warn("source failed, skipping",
			zap.String("source", src.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil
	}

	a.logger.Debug("source answered",
		zap.String("source", src.Name()),
		zap.Int("count", len(jobs)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return jobsources.Normalize(jobs, a.now())
}

// RemoteOK only lists remote jobs, so it is asked only when remote work
// is acceptable.
func wantsRemote(p models.SearchParams) bool {
	return p.Location == "" || p.Remote || strings.Contains(strings.ToLower(p.Location), "remote")
}

func ready(src jobsources.Source) bool {
	if c, ok := src.(jobsources.Credentialed); ok && !c.HasCredentials() {
		return false
	}
	if c, ok := src.(interface{ Configured() bool }); ok && !c.Configured() {
		return false
	}
	return true
}
