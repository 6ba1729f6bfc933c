package jobsources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cv-navigator/internal/extract"
	"cv-navigator/internal/models"

	"go.uber.org/zap"
)

const remoteOKLimit = 20

// RemoteOK reads the public RemoteOK feed. No credentials needed.
type RemoteOK struct {
	client *Client
	url    string
	logger *zap.Logger
}

type remoteOKJob struct {
	ID          flexString `json:"id"`
	Slug        string     `json:"slug"`
	Position    string     `json:"position"`
	Company     string     `json:"company"`
	CompanyLogo string     `json:"company_logo"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Tags        []string   `json:"tags"`
	SalaryMin   float64    `json:"salary_min"`
	SalaryMax   float64    `json:"salary_max"`
	Date        string     `json:"date"`
	URL         string     `json:"url"`
	ApplyURL    string     `json:"apply_url"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

func NewRemoteOK(client *Client, feedURL string, logger *zap.Logger) *RemoteOK {
	return &RemoteOK{
		client: client,
		url:    feedURL,
		logger: logger.Named("remoteok"),
	}
}

func (r *RemoteOK) Name() string { return SourceRemoteOK }

func (r *RemoteOK) Search(ctx context.Context, q Query) ([]models.JobListing, error) {
	data, err := r.client.Get(ctx, r.url, nil, nil)
	if err != nil {
		r.logger.Error("failed to fetch feed", zap.Error(err))
		return nil, nil
	}

	jobs, err := parseRemoteOK(data)
	if err != nil {
		r.logger.Error("failed to parse feed", zap.Error(err))
		return nil, nil
	}

	out := make([]models.JobListing, 0, remoteOKLimit)
	for _, j := range jobs {
		if len(out) == remoteOKLimit {
			break
		}
		haystack := strings.Join([]string{j.Position, j.Company, strings.Join(j.Tags, " "), j.Description}, " ")
		if !extract.MatchKeywords(haystack, q.Keywords, true) {
			continue
		}
		out = append(out, j.toListing())
	}

	r.logger.Debug("search complete",
		zap.Int("raw", len(jobs)),
		zap.Int("returned", len(out)),
		zap.String("query", q.Keywords),
	)

	return out, nil
}

// parseRemoteOK decodes the feed array. Element 0 is legal metadata.
func parseRemoteOK(body []byte) ([]remoteOKJob, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal feed: %w", err)
	}
	if len(raw) <= 1 {
		return nil, nil
	}

	jobs := make([]remoteOKJob, 0, len(raw)-1)
	for _, item := range raw[1:] {
		var j remoteOKJob
		if err := json.Unmarshal(item, &j); err != nil {
			continue
		}
		if j.Position == "" {
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (j remoteOKJob) toListing() models.JobListing {
	description := extract.StripHTML(j.Description)

	applyURL := j.ApplyURL
	if applyURL == "" {
		applyURL = j.URL
	}
	if applyURL == "" && j.Slug != "" {
		applyURL = "https://remoteok.com/remote-jobs/" + j.Slug
	}

	location := j.Location
	if location == "" {
		location = "Remote"
	}

	job := models.JobListing{
		Title:        j.Position,
		Company:      j.Company,
		Location:     location,
		Description:  description,
		Requirements: extract.Requirements(description),
		Skills:       extract.MergeSkills(extract.Skills(j.Position+"\n"+description, extract.MaxSkills), j.Tags, extract.MaxSkills),
		Type:         models.JobTypeRemote,
		PostedDate:   j.Date,
		ApplyURL:     applyURL,
		Source:       SourceRemoteOK,
		SourceID:     string(j.ID),
		CompanyLogo:  j.CompanyLogo,
	}

	if j.SalaryMin > 0 || j.SalaryMax > 0 {
		job.Salary = &models.Salary{
			Min:      positive(j.SalaryMin),
			Max:      positive(j.SalaryMax),
			Currency: "USD",
			Period:   models.PeriodYearly,
		}
	}

	return job
}
