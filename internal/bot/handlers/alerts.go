package handlers

import (
	"context"
	"strings"
	"time"

	"cv-navigator/internal/bot/utils"
	"cv-navigator/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /subscribe command
func HandleSubscribe(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		query, location := ParseQuery(c.Message().Payload)
		if query == "" {
			return c.Send("Usage: /subscribe golang in Bengaluru")
		}

		dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sub := models.AlertSubscription{
			ChatID:    c.Chat().ID,
			Query:     query,
			Location:  location,
			Remote:    strings.EqualFold(location, "remote"),
			CreatedAt: time.Now().UTC(),
		}
		if err := ctx.Subscriptions.Put(dbCtx, sub); err != nil {
			ctx.Logger.Error("failed to save subscription",
				zap.Int64("chat_id", sub.ChatID),
				zap.Error(err),
			)
			return c.Send("😔 Could not save the alert")
		}

		ctx.Logger.Info("alert subscribed",
			zap.Int64("chat_id", sub.ChatID),
			zap.String("query", query),
		)
		return c.Send(utils.FormatSubscribed(sub, ctx.AlertInterval), tele.ModeMarkdownV2)
	}
}

// /unsubscribe command
func HandleUnsubscribe(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		removed, err := ctx.Subscriptions.Remove(dbCtx, c.Chat().ID)
		if err != nil {
			ctx.Logger.Error("failed to remove subscription", zap.Int64("chat_id", c.Chat().ID), zap.Error(err))
			return c.Send("😔 Could not turn alerts off")
		}
		if !removed {
			return c.Send("You have no alerts.")
		}
		return c.Send("🔕 Alerts off.")
	}
}

// HandleAlerts shows the current saved search.
func HandleAlerts(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sub, ok, err := ctx.Subscriptions.Get(dbCtx, c.Chat().ID)
		if err != nil {
			ctx.Logger.Error("failed to load subscription", zap.Int64("chat_id", c.Chat().ID), zap.Error(err))
			return c.Send("😔 Could not load alerts")
		}
		if !ok {
			return c.Send("You have no alerts. Use /subscribe golang in Pune")
		}
		return c.Send(utils.FormatSubscribed(sub, ctx.AlertInterval), tele.ModeMarkdownV2)
	}
}
