package recorder

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"cv-navigator/internal/api/jobsources"
	"cv-navigator/internal/models"
	"cv-navigator/internal/storage/memory"
	"cv-navigator/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

type fixture struct {
	tracker  *tracker.Tracker
	recorder *Recorder
	sleeps   *recordedSleep
}

func newFixture(t *testing.T, seed uint64) fixture {
	t.Helper()
	log := zaptest.NewLogger(t)

	store := memory.New(log)
	t.Cleanup(func() { _ = store.Close() })

	tr := tracker.New(store, log)
	sleeps := &recordedSleep{}
	backend := NewSimulatedBackend(1500*time.Millisecond, 3500*time.Millisecond, log,
		WithRand(rand.New(rand.NewPCG(seed, seed+1))),
		WithSleep(sleeps.sleep),
	)

	return fixture{
		tracker:  tr,
		recorder: New(tr, backend, rand.New(rand.NewPCG(seed, seed+2)), log),
		sleeps:   sleeps,
	}
}

func (f fixture) saveCV(t *testing.T, skills ...string) {
	t.Helper()
	_, err := f.tracker.SaveCV(context.Background(), models.CV{Name: "Asha Rao", Skills: skills})
	require.NoError(t, err)
}

func TestApplyWithoutCV(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	res, err := f.recorder.ApplyToJob(ctx, models.JobListing{ID: "mock-1", CanAutoApply: true})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, noCVMessage, res.Message)

	assert.Empty(t, f.sleeps.delays, "no simulated delay without a CV")
	apps, err := f.tracker.Applications(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestApplyGoogleJobsRedirect(t *testing.T) {
	f := newFixture(t, 2)
	f.saveCV(t, "Go")
	ctx := context.Background()

	job := models.JobListing{
		ID:       "g-1",
		Title:    "Data Engineer",
		Company:  "Acme Analytics Pvt Ltd",
		Source:   jobsources.SourceGoogleJobs,
		ApplyURL: "https://careers.example.com/123",
	}

	res, err := f.recorder.ApplyToJob(ctx, job)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ContactName)
	assert.True(t, strings.HasSuffix(res.ContactEmail, "@acmeanalyticspvtltd.com"), res.ContactEmail)
	assert.True(t, strings.HasPrefix(res.ContactLinkedIn, "https://www.linkedin.com/in/"), res.ContactLinkedIn)
	assert.Empty(t, f.sleeps.delays, "redirects are not simulated")

	app, err := f.tracker.Get(ctx, res.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, app.Status)
	assert.False(t, app.AutoApplied)
	assert.Equal(t, res.ContactEmail, app.ContactEmail)
	assert.Equal(t, job.ApplyURL, app.ApplyURL)
}

func TestApplyGoogleJobsWithoutURLIsSimulated(t *testing.T) {
	f := newFixture(t, 3)
	f.saveCV(t, "Go")

	_, err := f.recorder.ApplyToJob(context.Background(), models.JobListing{
		ID:     "g-2",
		Source: jobsources.SourceGoogleJobs,
	})
	require.NoError(t, err)
	assert.Len(t, f.sleeps.delays, 1)
}

func TestApplyAutoApplySkillOverlap(t *testing.T) {
	f := newFixture(t, 4)
	f.saveCV(t, "go", "PostgreSQL")
	ctx := context.Background()

	matching := models.JobListing{ID: "mock-1", Title: "Backend Engineer", Company: "Acme", CanAutoApply: true, Skills: []string{"Go", "Kubernetes"}}
	res, err := f.recorder.ApplyToJob(ctx, matching)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "Matching skills: Go.")
	assert.GreaterOrEqual(t, res.Position, 1)
	assert.LessOrEqual(t, res.Position, maxQueuePosition)

	unrelated := models.JobListing{ID: "mock-2", Title: "Designer", Company: "Pixel", CanAutoApply: true, Skills: []string{"Figma"}}
	res, err = f.recorder.ApplyToJob(ctx, unrelated)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "Consider tailoring your CV")

	apps, err := f.tracker.Applications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	for _, a := range apps {
		assert.Equal(t, models.StatusApplied, a.Status)
		assert.True(t, a.AutoApplied)
	}

	for _, d := range f.sleeps.delays {
		assert.GreaterOrEqual(t, d, 1500*time.Millisecond)
		assert.LessOrEqual(t, d, 3500*time.Millisecond)
	}
}

func TestApplyManualJobFails(t *testing.T) {
	f := newFixture(t, 5)
	f.saveCV(t, "Go")
	ctx := context.Background()

	res, err := f.recorder.ApplyToJob(ctx, models.JobListing{ID: "mock-3", Company: "Initech"})
	require.NoError(t, err)
	assert.False(t, res.Success)

	found := false
	for _, reason := range FailureReasons {
		if strings.Contains(res.Message, reason) {
			found = true
		}
	}
	assert.True(t, found, "message %q carries one of the fixed reasons", res.Message)

	app, err := f.tracker.Get(ctx, res.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, app.Status)
	assert.False(t, app.AutoApplied)
}

func TestApplyCancelled(t *testing.T) {
	f := newFixture(t, 6)
	f.saveCV(t, "Go")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.recorder.ApplyToJob(ctx, models.JobListing{ID: "mock-1", CanAutoApply: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckApplicationStatus(t *testing.T) {
	f := newFixture(t, 7)
	ctx := context.Background()

	app, err := f.tracker.Record(ctx, models.Application{JobID: "mock-1"})
	require.NoError(t, err)

	// whatever the backend reports, the record only ever moves along the board
	prev := app.Status
	for i := 0; i < 20; i++ {
		got, err := f.recorder.CheckApplicationStatus(ctx, app.ID)
		require.NoError(t, err)
		if got.Status != prev {
			assert.True(t, tracker.IsTransitionAllowed(prev, got.Status), "%s -> %s", prev, got.Status)
		}
		prev = got.Status
	}

	failed, err := f.tracker.Record(ctx, models.Application{JobID: "mock-2", Status: models.StatusFailed})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := f.recorder.CheckApplicationStatus(ctx, failed.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusFailed, got.Status)
	}

	_, err = f.recorder.CheckApplicationStatus(ctx, "missing")
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestSyntheticContactFallbackDomain(t *testing.T) {
	c := syntheticContact("   ", newLockedRand(rand.New(rand.NewPCG(1, 1))))
	assert.True(t, strings.HasSuffix(c.Email, "@company.com"), c.Email)
}
