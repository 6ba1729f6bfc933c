package models

import "time"

// AlertSubscription is a saved search that a chat gets notified about.
type AlertSubscription struct {
	ChatID    int64     `json:"chatId"`
	Query     string    `json:"query"`
	Location  string    `json:"location,omitempty"`
	Remote    bool      `json:"remote,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LastRunAt time.Time `json:"lastRunAt,omitempty"`
}

func (s AlertSubscription) Params() SearchParams {
	return SearchParams{
		Query:    s.Query,
		Location: s.Location,
		Remote:   s.Remote,
	}
}
