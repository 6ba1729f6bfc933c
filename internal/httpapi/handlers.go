package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cv-navigator/internal/api/jobsources"
	"cv-navigator/internal/currency"
	"cv-navigator/internal/models"
	"cv-navigator/internal/tracker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

type jobsResponse struct {
	Jobs  []models.JobListing `json:"jobs"`
	Count int                 `json:"count"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	if s.opts.Storage != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := s.opts.Storage.Ping(ctx); err != nil {
			s.logger.Warn("storage ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"time":   time.Now().UTC(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"sources": s.search.Sources(),
		"time":    time.Now().UTC(),
	})
}

func (s *Server) searchJobs(c *gin.Context) {
	params, ok := bindSearch(c, true)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newJobsResponse(s.search.SearchAllSources(c.Request.Context(), params)))
}

func (s *Server) searchGoogle(c *gin.Context) {
	params, ok := bindSearch(c, true)
	if !ok {
		return
	}

	jobs, err := s.search.SearchGoogle(c.Request.Context(), params)
	if errors.Is(err, jobsources.ErrInvalidSearchEngineID) {
		abortError(c, http.StatusUnprocessableEntity, "invalid_search_engine_id", err.Error())
		return
	}
	if err != nil {
		s.logger.Warn("google search failed", zap.String("query", params.Query), zap.Error(err))
		abortError(c, http.StatusBadGateway, "search_failed", "Google search is unavailable right now.")
		return
	}

	c.JSON(http.StatusOK, newJobsResponse(jobs))
}

func (s *Server) searchMock(c *gin.Context) {
	params, ok := bindSearch(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newJobsResponse(s.search.SearchMock(c.Request.Context(), params)))
}

func (s *Server) apply(c *gin.Context) {
	var job models.JobListing
	if err := c.ShouldBindJSON(&job); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_job", "Invalid JSON format: "+err.Error())
		return
	}
	if strings.TrimSpace(job.ID) == "" {
		abortError(c, http.StatusBadRequest, "invalid_job", "Job id is required.")
		return
	}

	res, err := s.applier.ApplyToJob(c.Request.Context(), job)
	if err != nil {
		s.internalError(c, "apply to job", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) listApplications(c *gin.Context) {
	apps, err := s.log.Applications(c.Request.Context())
	if err != nil {
		s.internalError(c, "list applications", err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (s *Server) applicationStats(c *gin.Context) {
	stats, err := s.log.Stats(c.Request.Context())
	if err != nil {
		s.internalError(c, "application stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_status", "Invalid JSON format: "+err.Error())
		return
	}

	status, err := tracker.ParseStatus(req.Status)
	if err != nil {
		abortError(c, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	app, err := s.log.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if s.applicationError(c, "update status", err) {
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) refreshStatus(c *gin.Context) {
	app, err := s.applier.CheckApplicationStatus(c.Request.Context(), c.Param("id"))
	if s.applicationError(c, "refresh status", err) {
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) deleteApplication(c *gin.Context) {
	err := s.log.Delete(c.Request.Context(), c.Param("id"))
	if s.applicationError(c, "delete application", err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clearApplications(c *gin.Context) {
	if err := s.log.Clear(c.Request.Context()); err != nil {
		s.internalError(c, "clear applications", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getCV(c *gin.Context) {
	cv, err := s.log.CV(c.Request.Context())
	if errors.Is(err, tracker.ErrNoCV) {
		abortError(c, http.StatusNotFound, "no_cv", "No CV uploaded yet.")
		return
	}
	if err != nil {
		s.internalError(c, "get cv", err)
		return
	}
	c.JSON(http.StatusOK, cv)
}

func (s *Server) saveCV(c *gin.Context) {
	var cv models.CV
	if err := c.ShouldBindJSON(&cv); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_cv", "Invalid JSON format: "+err.Error())
		return
	}
	if strings.TrimSpace(cv.Name) == "" && strings.TrimSpace(cv.Text) == "" {
		abortError(c, http.StatusBadRequest, "invalid_cv", "A CV needs at least a name or text.")
		return
	}

	saved, err := s.log.SaveCV(c.Request.Context(), cv)
	if err != nil {
		s.internalError(c, "save cv", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) deleteCV(c *gin.Context) {
	if err := s.log.ClearCV(c.Request.Context()); err != nil {
		s.internalError(c, "delete cv", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// events streams application log changes as Server-Sent Events.
func (s *Server) events(c *gin.Context) {
	ctx := c.Request.Context()
	changes := s.log.Watch(ctx)

	keepAlive := time.NewTicker(s.opts.KeepAlive)
	defer keepAlive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"at": time.Now().UTC()})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-changes:
			if !ok {
				return false
			}
			c.SSEvent("change", e)
			return true
		case <-keepAlive.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		case <-s.shutdown:
			return false
		case <-ctx.Done():
			return false
		}
	})
}

func (s *Server) formatSalary(c *gin.Context) {
	salary := &models.Salary{
		Currency: strings.ToUpper(c.DefaultQuery("currency", currency.INR)),
		Period:   models.SalaryPeriod(strings.ToLower(c.DefaultQuery("period", string(models.PeriodYearly)))),
	}

	for _, bound := range []struct {
		name string
		dst  **float64
	}{
		{"min", &salary.Min},
		{"max", &salary.Max},
	} {
		raw := c.Query(bound.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			abortError(c, http.StatusBadRequest, "invalid_salary", bound.name+" must be a non-negative number")
			return
		}
		*bound.dst = &v
	}

	if salary.Min == nil && salary.Max == nil {
		abortError(c, http.StatusBadRequest, "invalid_salary", "min or max is required")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"formatted": currency.FormatSalaryINR(salary),
		"salary":    currency.ConvertSalaryToINR(salary),
	})
}

func bindSearch(c *gin.Context, needQuery bool) (models.SearchParams, bool) {
	var params models.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_params", err.Error())
		return params, false
	}

	params.Query = strings.TrimSpace(params.Query)
	if needQuery && params.Query == "" {
		abortError(c, http.StatusBadRequest, "missing_query", "query is required")
		return params, false
	}
	if params.SalaryMin < 0 {
		abortError(c, http.StatusBadRequest, "invalid_params", "salaryMin must not be negative")
		return params, false
	}
	if level := params.ExperienceLevel; level != "" && !strings.EqualFold(level, "all") && !models.IsValidExperience(level) {
		abortError(c, http.StatusBadRequest, "invalid_params", "experienceLevel must be entry, mid or senior")
		return params, false
	}

	return params, true
}

func newJobsResponse(jobs []models.JobListing) jobsResponse {
	if jobs == nil {
		jobs = []models.JobListing{}
	}
	return jobsResponse{Jobs: jobs, Count: len(jobs)}
}

// applicationError maps tracker errors to responses. It reports whether a
// response was written.
func (s *Server) applicationError(c *gin.Context, op string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, tracker.ErrNotFound):
		abortError(c, http.StatusNotFound, "not_found", "Application not found.")
	case errors.Is(err, tracker.ErrInvalidTransition):
		abortError(c, http.StatusConflict, "invalid_transition", err.Error())
	default:
		s.internalError(c, op, err)
	}
	return true
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	_ = c.Error(err)
	s.logger.Error("request failed", zap.String("op", op), zap.Error(err))
	abortError(c, http.StatusInternalServerError, "internal_error", "Something went wrong. Please try again.")
}
