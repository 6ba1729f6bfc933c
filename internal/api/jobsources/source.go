// Package jobsources adapts third-party job APIs to models.JobListing.
//
// Adapters never fail a search because a vendor misbehaved: transport,
// status and decoding errors are logged and turn into an empty result.
// The one exception is ErrInvalidSearchEngineID from the Google adapter,
// which points at a configuration problem the user has to fix.
package jobsources

import (
	"context"
	"errors"

	"cv-navigator/internal/models"
)

const (
	SourceAdzuna     = "Adzuna"
	SourceRemoteOK   = "RemoteOK"
	SourceReed       = "Reed"
	SourceGoogle     = "Google Search"
	SourceGoogleJobs = "Google Jobs"
	SourceMock       = "Mock"
)

var ErrInvalidSearchEngineID = errors.New("invalid search engine ID: check the Google Custom Search engine configuration")

// Query is what an adapter needs from the user's search.
type Query struct {
	Keywords        string
	Location        string
	JobType         string
	Industry        string
	ExperienceLevel string
	DatePosted      string
	Remote          bool
	MaxResults      int
}

func QueryFromParams(p models.SearchParams) Query {
	return Query{
		Keywords:        p.Query,
		Location:        p.Location,
		JobType:         p.JobType,
		Industry:        p.Industry,
		ExperienceLevel: p.ExperienceLevel,
		DatePosted:      p.DatePosted,
		Remote:          p.Remote,
	}
}

type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]models.JobListing, error)
}

// Credentialed sources are skipped by the aggregator until configured.
type Credentialed interface {
	HasCredentials() bool
}
