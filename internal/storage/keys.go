package storage

import (
	"fmt"
	"time"
)

const (
	CVKey                 = "cv_data"
	ApplicationsKey       = "applications"
	AlertSubscriptionsKey = "alerts:subscriptions"
)

const (
	SearchResultsTTL   = 30 * time.Minute
	RateLimitWindowTTL = 1 * time.Minute
	AlertSeenTTL       = 14 * 24 * time.Hour
)

// SearchResultsKey holds one message batch of job cards, named by the token
// their Apply buttons carry.
func SearchResultsKey(token string) string {
	return "search:" + token
}

func RateLimitKey(userID int64) string {
	return fmt.Sprintf("ratelimit:user:%d", userID)
}

func AlertSeenKey(chatID int64) string {
	return fmt.Sprintf("alerts:seen:%d", chatID)
}
