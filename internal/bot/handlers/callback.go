package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"cv-navigator/internal/bot/utils"
	"cv-navigator/internal/models"
	"cv-navigator/internal/storage"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// HandleCallback processes all callback queries from inline buttons
func HandleCallback(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			ctx.Logger.Warn("callback is nil")
			return nil
		}

		// telebot prefixes button data with \f
		data := strings.TrimPrefix(cb.Data, "\f")
		parts := strings.Split(data, ":")

		switch parts[0] {
		case utils.ApplyAction:
			return handleApply(ctx, c, parts)
		default:
			ctx.Logger.Warn("unknown callback action", zap.String("data", data))
			return c.Respond(&tele.CallbackResponse{Text: "❓ Unknown action"})
		}
	}
}

func handleApply(ctx *Context, c tele.Context, parts []string) error {
	userID := c.Sender().ID

	// apply:<token>:<index>
	if len(parts) != 3 || parts[1] == "" {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid button"})
	}
	token := parts[1]
	index, err := strconv.Atoi(parts[2])
	if err != nil || index < 0 {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid button"})
	}

	applyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var jobs []models.JobListing
	err = storage.GetJSON(applyCtx, ctx.Store, storage.SearchResultsKey(token), &jobs)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && index >= len(jobs)) {
		return c.Respond(&tele.CallbackResponse{Text: "⌛ These results expired. Search again.", ShowAlert: true})
	}
	if err != nil {
		ctx.Logger.Error("failed to load cached results",
			zap.Int64("user_id", userID),
			zap.String("token", token),
			zap.Error(err),
		)
		return c.Respond(&tele.CallbackResponse{Text: "😔 Something went wrong"})
	}

	job := jobs[index]
	_ = c.Respond(&tele.CallbackResponse{Text: "⏳ Applying..."})

	res, err := ctx.Applier.ApplyToJob(applyCtx, job)
	if err != nil {
		ctx.Logger.Error("failed to apply",
			zap.Int64("user_id", userID),
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return c.Send("😔 Could not record the application. Please try again later.")
	}

	return c.Send(utils.FormatApplyResult(job, res), tele.ModeMarkdownV2)
}
