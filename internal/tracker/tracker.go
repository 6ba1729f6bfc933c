// Package tracker owns the stored CV and the application log.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cv-navigator/internal/models"
	"cv-navigator/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoCV              = errors.New("no CV uploaded")
	ErrNotFound          = errors.New("application not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// Stats counts applications per status.
type Stats struct {
	Total    int                              `json:"total"`
	ByStatus map[models.ApplicationStatus]int `json:"byStatus"`
}

// Tracker serializes writes within the process. Two processes sharing a
// store still overwrite each other's log: the last writer wins.
type Tracker struct {
	store  storage.Store
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

func New(store storage.Store, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger.Named("tracker"),
		now:    time.Now,
	}
}

func (t *Tracker) SaveCV(ctx context.Context, cv models.CV) (models.CV, error) {
	cv.Name = strings.TrimSpace(cv.Name)
	cv.Email = strings.TrimSpace(cv.Email)
	cv.Skills = cleanSkills(cv.Skills)
	cv.UpdatedAt = t.now().UTC()

	if err := storage.SetJSON(ctx, t.store, storage.CVKey, cv, 0); err != nil {
		t.logger.Error("failed to save CV", zap.Error(err))
		return models.CV{}, fmt.Errorf("save cv: %w", err)
	}

	t.logger.Info("CV saved",
		zap.String("name", cv.Name),
		zap.Int("skills", len(cv.Skills)),
	)
	return cv, nil
}

func (t *Tracker) CV(ctx context.Context) (models.CV, error) {
	var cv models.CV
	err := storage.GetJSON(ctx, t.store, storage.CVKey, &cv)
	if errors.Is(err, storage.ErrNotFound) {
		return models.CV{}, ErrNoCV
	}
	if err != nil {
		return models.CV{}, fmt.Errorf("load cv: %w", err)
	}
	return cv, nil
}

func (t *Tracker) ClearCV(ctx context.Context) error {
	if err := t.store.Delete(ctx, storage.CVKey); err != nil {
		return fmt.Errorf("clear cv: %w", err)
	}
	return nil
}

// Applications returns the log in insertion order. An empty log is not an
// error.
func (t *Tracker) Applications(ctx context.Context) ([]models.Application, error) {
	apps := []models.Application{}
	err := storage.GetJSON(ctx, t.store, storage.ApplicationsKey, &apps)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.Application{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}
	return apps, nil
}

func (t *Tracker) Get(ctx context.Context, id string) (models.Application, error) {
	apps, err := t.Applications(ctx)
	if err != nil {
		return models.Application{}, err
	}
	if i := indexOf(apps, id); i >= 0 {
		return apps[i], nil
	}
	return models.Application{}, ErrNotFound
}

// Record appends app to the log, filling in the ID, dates and a default status.
func (t *Tracker) Record(ctx context.Context, app models.Application) (models.Application, error) {
	now := t.now().UTC()
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.AppliedDate.IsZero() {
		app.AppliedDate = now
	}
	if app.Status == "" {
		app.Status = models.StatusApplied
	}
	app.UpdatedAt = now

	t.mu.Lock()
	defer t.mu.Unlock()

	apps, err := t.Applications(ctx)
	if err != nil {
		return models.Application{}, err
	}
	if err := t.write(ctx, append(apps, app)); err != nil {
		return models.Application{}, err
	}

	t.logger.Info("application recorded",
		zap.String("id", app.ID),
		zap.String("job_id", app.JobID),
		zap.String("status", string(app.Status)),
	)
	return app, nil
}

// ReplaceAll overwrites the whole log.
func (t *Tracker) ReplaceAll(ctx context.Context, apps []models.Application) error {
	if apps == nil {
		apps = []models.Application{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.write(ctx, apps)
}

// UpdateStatus moves an application along the board. Setting the current
// status again is a no-op.
func (t *Tracker) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (models.Application, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	apps, err := t.Applications(ctx)
	if err != nil {
		return models.Application{}, err
	}

	i := indexOf(apps, id)
	if i < 0 {
		return models.Application{}, ErrNotFound
	}

	from := apps[i].Status
	if from == status {
		return apps[i], nil
	}
	if !IsTransitionAllowed(from, status) {
		return apps[i], fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
	}

	apps[i].Status = status
	apps[i].UpdatedAt = t.now().UTC()
	if err := t.write(ctx, apps); err != nil {
		return models.Application{}, err
	}

	t.logger.Info("application status changed",
		zap.String("id", id),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	return apps[i], nil
}

func (t *Tracker) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	apps, err := t.Applications(ctx)
	if err != nil {
		return err
	}

	i := indexOf(apps, id)
	if i < 0 {
		return ErrNotFound
	}
	return t.write(ctx, append(apps[:i], apps[i+1:]...))
}

// Clear drops the application log. The CV is kept.
func (t *Tracker) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Delete(ctx, storage.ApplicationsKey); err != nil {
		return fmt.Errorf("clear applications: %w", err)
	}
	t.logger.Warn("application log cleared")
	return nil
}

func (t *Tracker) Stats(ctx context.Context) (Stats, error) {
	apps, err := t.Applications(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Total:    len(apps),
		ByStatus: make(map[models.ApplicationStatus]int, len(Statuses())),
	}
	for _, s := range Statuses() {
		stats.ByStatus[s] = 0
	}
	for _, a := range apps {
		stats.ByStatus[a.Status]++
	}
	return stats, nil
}

// Watch delivers changes to the CV and the application log, including
// clears of the whole store. The channel closes when ctx is done.
func (t *Tracker) Watch(ctx context.Context) <-chan storage.Event {
	in := t.store.Subscribe(ctx)
	out := make(chan storage.Event)

	go func() {
		defer close(out)
		for e := range in {
			if !relevant(e) {
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (t *Tracker) write(ctx context.Context, apps []models.Application) error {
	if err := storage.SetJSON(ctx, t.store, storage.ApplicationsKey, apps, 0); err != nil {
		t.logger.Error("failed to write applications",
			zap.Int("count", len(apps)),
			zap.Error(err),
		)
		return fmt.Errorf("write applications: %w", err)
	}
	return nil
}

func relevant(e storage.Event) bool {
	return e.Op == storage.OpClear || e.Key == storage.ApplicationsKey || e.Key == storage.CVKey
}

func indexOf(apps []models.Application, id string) int {
	for i, a := range apps {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
