package jobsources

import (
	"strings"
	"time"

	"cv-navigator/internal/currency"
	"cv-navigator/internal/extract"
	"cv-navigator/internal/models"
)

const (
	placeholderTitle    = "Untitled position"
	placeholderCompany  = "Unknown company"
	placeholderLocation = "Not specified"
)

// Normalize is the single normalization pass over adapter output. It
// converts salaries to INR, fills placeholders, assigns stable IDs, caps
// skills and requirements and makes every postedDate RFC 3339.
// Listings missing a date are stamped with now.
func Normalize(listings []models.JobListing, now time.Time) []models.JobListing {
	out := make([]models.JobListing, 0, len(listings))
	for _, job := range listings {
		out = append(out, normalizeOne(job, now))
	}
	return out
}

func normalizeOne(job models.JobListing, now time.Time) models.JobListing {
	job.Title = strings.TrimSpace(job.Title)
	job.Company = strings.TrimSpace(job.Company)
	job.Location = strings.TrimSpace(job.Location)

	if job.Title == "" {
		job.Title = placeholderTitle
	}
	if job.Company == "" {
		job.Company = placeholderCompany
	}
	if job.Location == "" {
		job.Location = placeholderLocation
	}
	if job.Type == "" {
		job.Type = models.JobTypeFullTime
	}

	job.Salary = currency.ConvertSalaryToINR(orderSalary(job.Salary))

	if job.ID == "" || job.SourceID != "" {
		job.ID = extract.StableID(job.Source, job.SourceID, job.Title, job.Company, job.ApplyURL)
	}

	text := job.Title + "\n" + job.Description
	if len(job.Skills) == 0 {
		job.Skills = extract.Skills(text, extract.MaxSkills)
	} else {
		job.Skills = extract.MergeSkills(job.Skills, nil, extract.MaxSkills)
	}
	if job.Requirements == nil {
		job.Requirements = []string{}
	}
	if len(job.Requirements) > extract.MaxRequirements {
		job.Requirements = job.Requirements[:extract.MaxRequirements]
	}
	if job.Industry == "" {
		job.Industry = extract.Industry(text)
	}

	if t := job.PostedTime(); t.IsZero() {
		job.PostedDate = now.UTC().Format(time.RFC3339)
	} else {
		job.PostedDate = t.UTC().Format(time.RFC3339)
	}

	return job
}

// orderSalary drops empty salaries and swaps reversed bounds. The input is
// not modified.
func orderSalary(s *models.Salary) *models.Salary {
	if s == nil || (s.Min == nil && s.Max == nil) {
		return nil
	}

	c := *s
	if c.Currency == "" {
		c.Currency = currency.INR
	}
	if c.Period == "" {
		c.Period = models.PeriodYearly
	}
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		c.Min, c.Max = c.Max, c.Min
	}
	return &c
}
