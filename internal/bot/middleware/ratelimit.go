package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cv-navigator/internal/ratelimit"
	"cv-navigator/internal/storage"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	MaxRequestsPerMinute = 30
)

// RateLimit counts requests per user in a shared store window when counter
// is set, so every bot instance sees the same budget. Without one it falls
// back to an in-process token bucket.
func RateLimit(counter storage.Counter, logger *zap.Logger) tele.MiddlewareFunc {
	local := ratelimit.New(MaxRequestsPerMinute)

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}

			if allow(counter, local, user.ID, logger) {
				return next(c)
			}

			logger.Warn("rate limit exceeded", zap.Int64("user_id", user.ID))

			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: "⚠️ Too many requests"})
			}
			return c.Reply(fmt.Sprintf(
				"⚠️ Too many requests. Please wait a minute.\n"+
					"Limit: %d requests per minute.",
				MaxRequestsPerMinute,
			))
		}
	}
}

func allow(counter storage.Counter, local *ratelimit.Limiter, userID int64, logger *zap.Logger) bool {
	if counter == nil {
		return local.Allow(strconv.FormatInt(userID, 10))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count, err := counter.IncrementWithExpiry(ctx, storage.RateLimitKey(userID), storage.RateLimitWindowTTL)
	if err != nil {
		logger.Error("failed to check rate limit",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return local.Allow(strconv.FormatInt(userID, 10))
	}

	return count <= MaxRequestsPerMinute
}
