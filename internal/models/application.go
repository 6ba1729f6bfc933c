package models

import "time"

type ApplicationStatus string

const (
	StatusApplied   ApplicationStatus = "Applied"
	StatusInReview  ApplicationStatus = "In Review"
	StatusRejected  ApplicationStatus = "Rejected"
	StatusInterview ApplicationStatus = "Interview"
	StatusOffer     ApplicationStatus = "Offer"
	StatusFailed    ApplicationStatus = "Failed"
)

// Application is one entry of the local application log.
type Application struct {
	ID              string            `json:"id"`
	JobID           string            `json:"jobId"`
	JobTitle        string            `json:"jobTitle"`
	Company         string            `json:"company"`
	AppliedDate     time.Time         `json:"appliedDate"`
	Status          ApplicationStatus `json:"status"`
	AutoApplied     bool              `json:"autoApplied"`
	ContactName     string            `json:"contactName,omitempty"`
	ContactEmail    string            `json:"contactEmail,omitempty"`
	ContactLinkedIn string            `json:"contactLinkedIn,omitempty"`
	Source          string            `json:"source,omitempty"`
	SourceID        string            `json:"sourceId,omitempty"`
	ApplyURL        string            `json:"applyUrl,omitempty"`
	Message         string            `json:"message,omitempty"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// CV is the stored résumé blob. Parsing it is somebody else's job; Skills is
// whatever the uploader extracted.
type CV struct {
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Skills    []string  `json:"skills"`
	Text      string    `json:"text,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ApplyResult is returned to the caller of an apply attempt.
type ApplyResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	Position        int    `json:"position,omitempty"`
	ContactEmail    string `json:"contactEmail,omitempty"`
	ContactName     string `json:"contactName,omitempty"`
	ContactLinkedIn string `json:"contactLinkedIn,omitempty"`
	ApplicationID   string `json:"applicationId,omitempty"`
}

// Contact is a synthetic recruiter shown next to an application.
type Contact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	LinkedIn string `json:"linkedIn"`
}
