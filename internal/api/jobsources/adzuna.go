package jobsources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"cv-navigator/internal/extract"
	"cv-navigator/internal/models"

	"go.uber.org/zap"
)

const adzunaPageSize = 20

type AdzunaConfig struct {
	AppID   string
	AppKey  string
	Country string
	BaseURL string
}

// Adzuna searches the Adzuna REST API. Without credentials it is never called.
type Adzuna struct {
	client *Client
	cfg    AdzunaConfig
	logger *zap.Logger
}

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	SalaryMin    float64 `json:"salary_min"`
	SalaryMax    float64 `json:"salary_max"`
	RedirectURL  string  `json:"redirect_url"`
	Created      string  `json:"created"`
	ContractTime string  `json:"contract_time"`
	ContractType string  `json:"contract_type"`
	Company      struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	Category struct {
		Label string `json:"label"`
	} `json:"category"`
}

// vendor country → salary currency
var adzunaCurrencies = map[string]string{
	"in": "INR",
	"gb": "GBP",
	"us": "USD",
	"au": "AUD",
	"ca": "CAD",
	"sg": "SGD",
	"de": "EUR",
	"fr": "EUR",
	"nl": "EUR",
	"it": "EUR",
	"es": "EUR",
	"at": "EUR",
	"be": "EUR",
}

func NewAdzuna(client *Client, cfg AdzunaConfig, logger *zap.Logger) *Adzuna {
	if cfg.Country == "" {
		cfg.Country = "in"
	}
	cfg.Country = strings.ToLower(cfg.Country)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Adzuna{
		client: client,
		cfg:    cfg,
		logger: logger.Named("adzuna"),
	}
}

func (a *Adzuna) Name() string { return SourceAdzuna }

func (a *Adzuna) HasCredentials() bool {
	return a.cfg.AppID != "" && a.cfg.AppKey != ""
}

func (a *Adzuna) Search(ctx context.Context, q Query) ([]models.JobListing, error) {
	if !a.HasCredentials() {
		a.logger.Debug("credentials not set, skipping")
		return nil, nil
	}

	params := url.Values{}
	params.Set("app_id", a.cfg.AppID)
	params.Set("app_key", a.cfg.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", q.Keywords)
	if q.Location != "" {
		params.Set("where", q.Location)
	}
	params.Set("content-type", "application/json")

	endpoint := fmt.Sprintf("%s/%s/search/1", a.cfg.BaseURL, a.cfg.Country)

	data, err := a.client.Get(ctx, endpoint, params, nil)
	if err != nil {
		a.logger.Error("failed to search jobs",
			zap.String("what", q.Keywords),
			zap.String("where", q.Location),
			zap.Error(err),
		)
		return nil, nil
	}

	var resp adzunaResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		a.logger.Error("failed to parse search response", zap.Error(err))
		return nil, nil
	}

	jobs := make([]models.JobListing, 0, len(resp.Results))
	for _, r := range resp.Results {
		jobs = append(jobs, a.toListing(r))
	}

	a.logger.Debug("jobs found",
		zap.Int("count", resp.Count),
		zap.Int("returned", len(jobs)),
		zap.String("what", q.Keywords),
	)

	return jobs, nil
}

func (a *Adzuna) toListing(r adzunaResult) models.JobListing {
	description := extract.StripHTML(r.Description)

	job := models.JobListing{
		Title:        extract.StripHTML(r.Title),
		Company:      r.Company.DisplayName,
		Location:     r.Location.DisplayName,
		Description:  description,
		Requirements: extract.Requirements(description),
		Type:         adzunaJobType(r.ContractType, r.ContractTime),
		PostedDate:   r.Created,
		ApplyURL:     r.RedirectURL,
		Source:       SourceAdzuna,
		SourceID:     r.ID,
		Industry:     strings.TrimSpace(strings.TrimSuffix(r.Category.Label, "Jobs")),
	}

	if r.SalaryMin > 0 || r.SalaryMax > 0 {
		cur, ok := adzunaCurrencies[a.cfg.Country]
		if !ok {
			cur = "USD"
		}
		job.Salary = &models.Salary{
			Min:      positive(r.SalaryMin),
			Max:      positive(r.SalaryMax),
			Currency: cur,
			Period:   models.PeriodYearly,
		}
	}

	return job
}

func adzunaJobType(contractType, contractTime string) models.JobType {
	if strings.EqualFold(contractType, "contract") {
		return models.JobTypeContract
	}
	if contractTime != "" {
		return models.MapJobType(contractTime)
	}
	return models.MapJobType(contractType)
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
