// Package httpapi exposes search, apply and the application log over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cv-navigator/internal/models"
	"cv-navigator/internal/ratelimit"
	"cv-navigator/internal/storage"
	"cv-navigator/internal/tracker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Searcher interface {
	SearchAllSources(ctx context.Context, params models.SearchParams) []models.JobListing
	SearchGoogle(ctx context.Context, params models.SearchParams) ([]models.JobListing, error)
	SearchMock(ctx context.Context, params models.SearchParams) []models.JobListing
	Sources() []string
}

type Applier interface {
	ApplyToJob(ctx context.Context, job models.JobListing) (models.ApplyResult, error)
	CheckApplicationStatus(ctx context.Context, id string) (models.Application, error)
}

type ApplicationLog interface {
	SaveCV(ctx context.Context, cv models.CV) (models.CV, error)
	CV(ctx context.Context) (models.CV, error)
	ClearCV(ctx context.Context) error
	Applications(ctx context.Context) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (models.Application, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (tracker.Stats, error)
	Watch(ctx context.Context) <-chan storage.Event
}

// Pinger is implemented by storage backends that hold a connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Addr               string
	CORSOrigins        []string
	RateLimitPerMinute int
	// KeepAlive is the SSE comment interval.
	KeepAlive time.Duration
	// Storage, when set, is pinged by /api/health.
	Storage Pinger
}

type Server struct {
	engine   *gin.Engine
	search   Searcher
	applier  Applier
	log      ApplicationLog
	opts     Options
	logger   *zap.Logger
	shutdown chan struct{}
}

func New(search Searcher, applier Applier, log ApplicationLog, opts Options, logger *zap.Logger) *Server {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 25 * time.Second
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:   gin.New(),
		search:   search,
		applier:  applier,
		log:      log,
		opts:     opts,
		logger:   logger.Named("http"),
		shutdown: make(chan struct{}),
	}

	s.engine.Use(recovery(s.logger), requestLogger(s.logger), cors.New(corsConfig(opts.CORSOrigins)))
	if opts.RateLimitPerMinute > 0 {
		s.engine.Use(rateLimit(ratelimit.New(opts.RateLimitPerMinute), s.logger))
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/events", s.events)
		api.GET("/salary/format", s.formatSalary)

		jobs := api.Group("/jobs")
		jobs.GET("/search", s.searchJobs)
		jobs.GET("/google", s.searchGoogle)
		jobs.GET("/mock", s.searchMock)

		apps := api.Group("/applications")
		apps.GET("", s.listApplications)
		apps.DELETE("", s.clearApplications)
		apps.GET("/stats", s.applicationStats)
		apps.POST("/apply", s.apply)
		apps.PATCH("/:id/status", s.updateStatus)
		apps.POST("/:id/refresh", s.refreshStatus)
		apps.DELETE("/:id", s.deleteApplication)

		api.GET("/cv", s.getCV)
		api.PUT("/cv", s.saveCV)
		api.DELETE("/cv", s.deleteCV)
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	// end open event streams so Shutdown does not wait on them
	close(s.shutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	return config
}
