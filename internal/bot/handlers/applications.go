package handlers

import (
	"context"
	"time"

	"cv-navigator/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const recentApplications = 10

// /applications command
func HandleApplications(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		apps, err := ctx.Log.Applications(dbCtx)
		if err != nil {
			ctx.Logger.Error("failed to load applications", zap.Error(err))
			return c.Send("😔 Could not load applications")
		}

		stats, err := ctx.Log.Stats(dbCtx)
		if err != nil {
			ctx.Logger.Error("failed to load stats", zap.Error(err))
			return c.Send("😔 Could not load applications")
		}

		return c.Send(utils.FormatApplications(apps, stats, recentApplications), tele.ModeMarkdownV2)
	}
}
