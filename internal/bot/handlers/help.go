package handlers

import (
	"cv-navigator/internal/bot/utils"

	tele "gopkg.in/telebot.v3"
)

// /help command
func HandleHelp(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Send(utils.FormatHelpMessage(), tele.ModeMarkdownV2)
	}
}

// HandleText routes the main menu buttons.
func HandleText(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		switch c.Text() {
		case utils.BtnSearch:
			return c.Send("Send /search followed by keywords, e.g. /search golang in Pune")
		case utils.BtnApplications:
			return HandleApplications(ctx)(c)
		case utils.BtnAlerts:
			return HandleAlerts(ctx)(c)
		case utils.BtnHelp:
			return HandleHelp(ctx)(c)
		}
		return c.Send("I didn't get that. Try /help")
	}
}
