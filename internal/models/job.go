package models

import "time"

type JobType string

const (
	JobTypeFullTime   JobType = "Full-time"
	JobTypePartTime   JobType = "Part-time"
	JobTypeContract   JobType = "Contract"
	JobTypeInternship JobType = "Internship"
	JobTypeRemote     JobType = "Remote"
)

type SalaryPeriod string

const (
	PeriodHourly  SalaryPeriod = "hourly"
	PeriodWeekly  SalaryPeriod = "weekly"
	PeriodMonthly SalaryPeriod = "monthly"
	PeriodYearly  SalaryPeriod = "yearly"
)

// Salary is optional everywhere. Min and Max are in Currency units per Period.
type Salary struct {
	Min      *float64     `json:"min,omitempty"`
	Max      *float64     `json:"max,omitempty"`
	Currency string       `json:"currency"`
	Period   SalaryPeriod `json:"period"`

	// set once the salary has been converted to INR
	OriginalCurrency string   `json:"originalCurrency,omitempty"`
	OriginalMin      *float64 `json:"originalMin,omitempty"`
	OriginalMax      *float64 `json:"originalMax,omitempty"`
}

// JobListing is the normalized job shape every source adapter produces.
type JobListing struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Skills       []string `json:"skills"`
	Salary       *Salary  `json:"salary,omitempty"`
	Type         JobType  `json:"type"`
	PostedDate   string   `json:"postedDate"`
	ApplyURL     string   `json:"applyUrl"`
	Source       string   `json:"source"`
	Benefits     []string `json:"benefits,omitempty"`
	CompanyLogo  string   `json:"companyLogo,omitempty"`
	CompanySize  string   `json:"companySize,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	CanAutoApply bool     `json:"canAutoApply,omitempty"`
	SourceID     string   `json:"sourceId,omitempty"`
}

// PostedTime parses PostedDate. Unparseable dates yield the zero time.
func (j JobListing) PostedTime() time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, j.PostedDate); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SearchParams is what the UI sends to the aggregator.
type SearchParams struct {
	Query           string  `json:"query" form:"query"`
	Location        string  `json:"location,omitempty" form:"location"`
	JobType         string  `json:"jobType,omitempty" form:"jobType"`
	SalaryMin       float64 `json:"salaryMin,omitempty" form:"salaryMin"`
	ExperienceLevel string  `json:"experienceLevel,omitempty" form:"experienceLevel"`
	Remote          bool    `json:"remote,omitempty" form:"remote"`
	DatePosted      string  `json:"datePosted,omitempty" form:"datePosted"`
	Industry        string  `json:"industry,omitempty" form:"industry"`
}
