// Package recorder turns an "apply" click into an entry in the application
// log. Submissions go through a Backend; the only one shipped is a
// simulation.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"cv-navigator/internal/api/jobsources"
	"cv-navigator/internal/models"
	"cv-navigator/internal/tracker"

	"go.uber.org/zap"
)

const noCVMessage = "Please upload your CV before applying to jobs."

// ApplicationLog is the part of the tracker the recorder writes to.
type ApplicationLog interface {
	CV(ctx context.Context) (models.CV, error)
	Record(ctx context.Context, app models.Application) (models.Application, error)
	Get(ctx context.Context, id string) (models.Application, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (models.Application, error)
}

type Recorder struct {
	log     ApplicationLog
	backend Backend
	rng     *lockedRand
	logger  *zap.Logger
}

// New builds a Recorder. rng drives the synthetic contacts; nil seeds one.
func New(log ApplicationLog, backend Backend, rng *rand.Rand, logger *zap.Logger) *Recorder {
	return &Recorder{
		log:     log,
		backend: backend,
		rng:     newLockedRand(rng),
		logger:  logger.Named("recorder"),
	}
}

// ApplyToJob records an application for job. Business outcomes, including a
// missing CV, come back as a result with Success false; the error is reserved
// for storage failures and cancellation.
func (r *Recorder) ApplyToJob(ctx context.Context, job models.JobListing) (models.ApplyResult, error) {
	cv, err := r.log.CV(ctx)
	if errors.Is(err, tracker.ErrNoCV) {
		return models.ApplyResult{Success: false, Message: noCVMessage}, nil
	}
	if err != nil {
		return models.ApplyResult{}, fmt.Errorf("apply to job: %w", err)
	}

	if job.Source == jobsources.SourceGoogleJobs && strings.TrimSpace(job.ApplyURL) != "" {
		return r.redirect(ctx, job)
	}

	sub, err := r.backend.Submit(ctx, job, cv)
	if err != nil {
		r.logger.Warn("submission aborted",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return models.ApplyResult{}, fmt.Errorf("apply to job: %w", err)
	}

	app := applicationFor(job)
	app.AutoApplied = sub.Success
	app.Message = sub.Message
	app.Status = models.StatusApplied
	if !sub.Success {
		app.Status = models.StatusFailed
	}

	app, err = r.log.Record(ctx, app)
	if err != nil {
		return models.ApplyResult{}, fmt.Errorf("apply to job: %w", err)
	}

	r.logger.Info("application submitted",
		zap.String("job_id", job.ID),
		zap.String("source", job.Source),
		zap.Bool("success", sub.Success),
	)

	return models.ApplyResult{
		Success:       sub.Success,
		Message:       sub.Message,
		Position:      sub.Position,
		ApplicationID: app.ID,
	}, nil
}

// redirect handles postings that are applied to on the employer's site. The
// contact attached to the record is made up.
func (r *Recorder) redirect(ctx context.Context, job models.JobListing) (models.ApplyResult, error) {
	contact := syntheticContact(job.Company, r.rng)
	msg := fmt.Sprintf("Continue your application for %s on the %s site.", job.Title, job.Company)

	app := applicationFor(job)
	app.Status = models.StatusApplied
	app.ContactName = contact.Name
	app.ContactEmail = contact.Email
	app.ContactLinkedIn = contact.LinkedIn
	app.Message = msg

	app, err := r.log.Record(ctx, app)
	if err != nil {
		return models.ApplyResult{}, fmt.Errorf("apply to job: %w", err)
	}

	r.logger.Info("application redirected",
		zap.String("job_id", job.ID),
		zap.String("apply_url", job.ApplyURL),
	)

	return models.ApplyResult{
		Success:         true,
		Message:         msg,
		ContactName:     contact.Name,
		ContactEmail:    contact.Email,
		ContactLinkedIn: contact.LinkedIn,
		ApplicationID:   app.ID,
	}, nil
}

// CheckApplicationStatus asks the backend for a status and applies it when
// the board allows the move. Otherwise the record is returned unchanged.
func (r *Recorder) CheckApplicationStatus(ctx context.Context, id string) (models.Application, error) {
	app, err := r.log.Get(ctx, id)
	if err != nil {
		return models.Application{}, err
	}

	status, err := r.backend.Status(ctx, app)
	if err != nil {
		return models.Application{}, fmt.Errorf("check application status: %w", err)
	}

	if !tracker.IsTransitionAllowed(app.Status, status) {
		r.logger.Debug("status unchanged",
			zap.String("id", id),
			zap.String("current", string(app.Status)),
			zap.String("reported", string(status)),
		)
		return app, nil
	}

	return r.log.UpdateStatus(ctx, id, status)
}

func applicationFor(job models.JobListing) models.Application {
	return models.Application{
		JobID:    job.ID,
		JobTitle: job.Title,
		Company:  job.Company,
		Source:   job.Source,
		SourceID: job.SourceID,
		ApplyURL: job.ApplyURL,
	}
}
