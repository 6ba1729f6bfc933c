package utils

import (
	"strconv"

	tele "gopkg.in/telebot.v3"
)

const (
	BtnSearch       = "🔍 Search"
	BtnApplications = "📋 Applications"
	BtnAlerts       = "🔔 Alerts"
	BtnHelp         = "❓ Help"
)

// ApplyAction prefixes the callback data of Apply buttons:
// "apply:<token>:<index>".
const ApplyAction = "apply"

func MainMenuKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}

	menu.Reply(
		menu.Row(menu.Text(BtnSearch), menu.Text(BtnApplications)),
		menu.Row(menu.Text(BtnAlerts), menu.Text(BtnHelp)),
	)

	return menu
}

// JobKeyboard carries the Apply button for result index (0-based) of the
// batch cached under token, and a link to the posting. Without a token there
// is nothing to apply from, so only the link is shown.
func JobKeyboard(token string, index int, applyURL string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	var buttons []tele.Btn
	if token != "" {
		buttons = append(buttons, menu.Data("✅ Apply", ApplyAction+":"+token+":"+strconv.Itoa(index)))
	}
	if applyURL != "" {
		buttons = append(buttons, menu.URL("🔗 Open", applyURL))
	}

	menu.Inline(menu.Row(buttons...))
	return menu
}
