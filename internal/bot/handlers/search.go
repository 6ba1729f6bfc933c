package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cv-navigator/internal/bot/utils"
	"cv-navigator/internal/models"
	"cv-navigator/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	defaultMaxResults = 5
	searchTimeout     = time.Minute
	// keeps "apply:<token>:<index>" well under telegram's 64-byte callback limit
	resultsTokenLen = 12
)

// ParseQuery splits "golang developer in Pune" into keywords and location.
// The last " in " wins so that keywords may contain the word.
func ParseQuery(raw string) (query, location string) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)

	if i := strings.LastIndex(lower, " in "); i > 0 {
		return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+len(" in "):])
	}
	return raw, ""
}

// /search command
func HandleSearch(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		userID := c.Sender().ID

		query, location := ParseQuery(c.Message().Payload)
		if query == "" {
			return c.Send("Usage: /search golang in Bengaluru")
		}

		searchMsg, err := c.Bot().Send(c.Recipient(), "🔍 Searching...")
		if err != nil {
			ctx.Logger.Debug("failed to send progress message",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}

		searchCtx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()

		params := models.SearchParams{
			Query:    query,
			Location: location,
			Remote:   strings.EqualFold(location, "remote"),
		}
		jobs := ctx.Search.SearchAllSources(searchCtx, params)

		if searchMsg != nil {
			_ = c.Bot().Delete(searchMsg)
		}

		ctx.Logger.Info("search handled",
			zap.Int64("user_id", userID),
			zap.String("query", query),
			zap.String("location", location),
			zap.Int("results", len(jobs)),
		)

		if len(jobs) == 0 {
			return c.Send(utils.FormatNoJobsMessage(), tele.ModeMarkdownV2)
		}

		limit := ctx.MaxResults
		if limit <= 0 {
			limit = defaultMaxResults
		}
		shown := jobs
		if len(shown) > limit {
			shown = shown[:limit]
		}

		token, err := CacheResults(searchCtx, ctx.Store, shown)
		if err != nil {
			ctx.Logger.Error("failed to cache search results",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}

		if err := c.Send(utils.FormatSearchSummary(query, location, len(jobs), len(shown)), tele.ModeMarkdownV2); err != nil {
			return err
		}

		return SendJobCards(c.Bot(), c.Recipient(), token, shown, ctx.Logger)
	}
}

// CacheResults stores jobs under a new token for the Apply buttons of the
// cards about to be sent. Each batch gets its own token, so a later search or
// alert never changes what an earlier card applies to.
func CacheResults(ctx context.Context, store storage.Store, jobs []models.JobListing) (string, error) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:resultsTokenLen]

	if err := storage.SetJSON(ctx, store, storage.SearchResultsKey(token), jobs, storage.SearchResultsTTL); err != nil {
		return "", fmt.Errorf("cache results: %w", err)
	}
	return token, nil
}

// SendJobCards sends one card per job. Apply buttons refer to the position in
// jobs, which must be what CacheResults stored under token.
func SendJobCards(b *tele.Bot, to tele.Recipient, token string, jobs []models.JobListing, logger *zap.Logger) error {
	var failed int
	for i, job := range jobs {
		message := utils.FormatJob(job, i+1)
		keyboard := utils.JobKeyboard(token, i, job.ApplyURL)

		if _, err := b.Send(to, message, keyboard, tele.ModeMarkdownV2); err != nil {
			logger.Error("failed to send job card",
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
			failed++
			continue
		}

		if i < len(jobs)-1 {
			time.Sleep(300 * time.Millisecond)
		}
	}

	if failed == len(jobs) {
		return errors.New("no job cards delivered")
	}
	return nil
}
