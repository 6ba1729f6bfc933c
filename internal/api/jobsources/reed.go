package jobsources

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cv-navigator/internal/extract"
	"cv-navigator/internal/models"

	"go.uber.org/zap"
)

const (
	reedPageSize   = 25
	reedDateLayout = "02/01/2006"
)

// Reed searches the Reed.co.uk API with HTTP Basic auth (key, empty password).
type Reed struct {
	client  *Client
	apiKey  string
	baseURL string
	logger  *zap.Logger
}

type reedResponse struct {
	Results      []reedResult `json:"results"`
	TotalResults int          `json:"totalResults"`
}

type reedResult struct {
	JobID          int64    `json:"jobId"`
	EmployerName   string   `json:"employerName"`
	JobTitle       string   `json:"jobTitle"`
	LocationName   string   `json:"locationName"`
	MinimumSalary  *float64 `json:"minimumSalary"`
	MaximumSalary  *float64 `json:"maximumSalary"`
	Currency       string   `json:"currency"`
	Date           string   `json:"date"`
	JobDescription string   `json:"jobDescription"`
	JobURL         string   `json:"jobUrl"`
}

func NewReed(client *Client, apiKey, baseURL string, logger *zap.Logger) *Reed {
	return &Reed{
		client:  client,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("reed"),
	}
}

func (r *Reed) Name() string { return SourceReed }

func (r *Reed) HasCredentials() bool { return r.apiKey != "" }

func (r *Reed) Search(ctx context.Context, q Query) ([]models.JobListing, error) {
	if !r.HasCredentials() {
		r.logger.Debug("api key not set, skipping")
		return nil, nil
	}

	params := url.Values{}
	params.Set("keywords", q.Keywords)
	if q.Location != "" {
		params.Set("locationName", q.Location)
	}
	params.Set("resultsToTake", strconv.Itoa(reedPageSize))

	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(r.apiKey+":")))

	data, err := r.client.Get(ctx, r.baseURL+"/search", params, header)
	if err != nil {
		r.logger.Error("failed to search jobs",
			zap.String("keywords", q.Keywords),
			zap.String("location", q.Location),
			zap.Error(err),
		)
		return nil, nil
	}

	var resp reedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		r.logger.Error("failed to parse search response", zap.Error(err))
		return nil, nil
	}

	jobs := make([]models.JobListing, 0, len(resp.Results))
	for _, res := range resp.Results {
		jobs = append(jobs, res.toListing())
	}

	r.logger.Debug("jobs found",
		zap.Int("total", resp.TotalResults),
		zap.Int("returned", len(jobs)),
	)

	return jobs, nil
}

func (res reedResult) toListing() models.JobListing {
	description := extract.StripHTML(res.JobDescription)

	job := models.JobListing{
		Title:        res.JobTitle,
		Company:      res.EmployerName,
		Location:     res.LocationName,
		Description:  description,
		Requirements: extract.Requirements(description),
		Type:         models.MapJobType(""),
		ApplyURL:     res.JobURL,
		Source:       SourceReed,
	}
	if res.JobID != 0 {
		job.SourceID = strconv.FormatInt(res.JobID, 10)
	}
	if t, err := time.Parse(reedDateLayout, res.Date); err == nil {
		job.PostedDate = t.Format(time.RFC3339)
	}

	if res.MinimumSalary != nil || res.MaximumSalary != nil {
		cur := res.Currency
		if cur == "" {
			cur = "GBP"
		}
		job.Salary = &models.Salary{
			Min:      res.MinimumSalary,
			Max:      res.MaximumSalary,
			Currency: cur,
			Period:   models.PeriodYearly,
		}
	}

	if strings.Contains(strings.ToLower(res.JobTitle+" "+description), "contract") {
		job.Type = models.JobTypeContract
	}

	return job
}
