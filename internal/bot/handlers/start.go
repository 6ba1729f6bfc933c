package handlers

import (
	"cv-navigator/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /start command
func HandleStart(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx.Logger.Info("user started bot",
			zap.Int64("user_id", c.Sender().ID),
			zap.String("username", c.Sender().Username),
		)

		return c.Send(
			utils.FormatWelcomeMessage(c.Sender().FirstName),
			utils.MainMenuKeyboard(),
			tele.ModeMarkdownV2,
		)
	}
}
