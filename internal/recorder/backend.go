package recorder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"cv-navigator/internal/models"

	"go.uber.org/zap"
)

// Backend submits applications and reports on them.
type Backend interface {
	Submit(ctx context.Context, job models.JobListing, cv models.CV) (Submission, error)
	Status(ctx context.Context, app models.Application) (models.ApplicationStatus, error)
}

type Submission struct {
	Success  bool
	Message  string
	Position int
}

// FailureReasons are the excuses SimulatedBackend picks from. They are
// cosmetic and never describe a real cause.
var FailureReasons = []string{
	"the employer only accepts applications through their own careers portal",
	"the application form asks screening questions that need manual answers",
	"the posting requires a cover letter tailored to the role",
	"the posting is no longer accepting applications",
	"the employer's application system did not respond",
}

// Statuses SimulatedBackend can report for an existing application.
var simulatedStatuses = []models.ApplicationStatus{
	models.StatusApplied,
	models.StatusInReview,
	models.StatusRejected,
	models.StatusInterview,
	models.StatusOffer,
}

const maxQueuePosition = 50

// SimulatedBackend pretends to submit applications. Nothing leaves the
// process: outcomes are derived from the job flags, the CV and a random
// source.
type SimulatedBackend struct {
	minDelay time.Duration
	maxDelay time.Duration
	rng      *lockedRand
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *zap.Logger
}

type SimulatedOption func(*SimulatedBackend)

func WithRand(r *rand.Rand) SimulatedOption {
	return func(b *SimulatedBackend) {
		b.rng = newLockedRand(r)
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) SimulatedOption {
	return func(b *SimulatedBackend) {
		b.sleep = sleep
	}
}

func NewSimulatedBackend(minDelay, maxDelay time.Duration, logger *zap.Logger, opts ...SimulatedOption) *SimulatedBackend {
	b := &SimulatedBackend{
		minDelay: minDelay,
		maxDelay: maxDelay,
		rng:      newLockedRand(nil),
		sleep:    sleepContext,
		logger:   logger.Named("simulated_backend"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *SimulatedBackend) Submit(ctx context.Context, job models.JobListing, cv models.CV) (Submission, error) {
	delay := b.rng.between(b.minDelay, b.maxDelay)
	if err := b.sleep(ctx, delay); err != nil {
		return Submission{}, fmt.Errorf("simulate submission: %w", err)
	}

	if !job.CanAutoApply {
		reason := FailureReasons[b.rng.IntN(len(FailureReasons))]
		b.logger.Debug("simulated rejection",
			zap.String("job_id", job.ID),
			zap.String("reason", reason),
		)
		return Submission{
			Success: false,
			Message: fmt.Sprintf("Could not auto-apply to %s: %s.", job.Company, reason),
		}, nil
	}

	position := 1 + b.rng.IntN(maxQueuePosition)
	matched := overlap(cv.Skills, job.Skills)

	msg := fmt.Sprintf("Successfully applied to %s at %s. Matching skills: %s.",
		job.Title, job.Company, strings.Join(matched, ", "))
	if len(matched) == 0 {
		msg = fmt.Sprintf("Applied to %s at %s, but your CV lists none of the skills this role asks for. Consider tailoring your CV.",
			job.Title, job.Company)
	}

	return Submission{
		Success:  true,
		Message:  msg,
		Position: position,
	}, nil
}

// Status draws a random status. It does not look at app.
func (b *SimulatedBackend) Status(_ context.Context, _ models.Application) (models.ApplicationStatus, error) {
	return simulatedStatuses[b.rng.IntN(len(simulatedStatuses))], nil
}

// overlap returns the job skills found in the CV, in job order.
func overlap(cvSkills, jobSkills []string) []string {
	have := make(map[string]bool, len(cvSkills))
	for _, s := range cvSkills {
		have[strings.ToLower(strings.TrimSpace(s))] = true
	}

	var matched []string
	for _, s := range jobSkills {
		if have[strings.ToLower(strings.TrimSpace(s))] {
			matched = append(matched, s)
		}
	}
	return matched
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
