package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/phrazzld/scry-remind/internal/dialog"
)

// keyboard converts button rows to an inline keyboard, or nil when there are
// no buttons.
func keyboard(rows [][]dialog.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}

	markup := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Label, button.Data))
		}
		markup = append(markup, buttons)
	}
	if len(markup) == 0 {
		return nil
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(markup...)
	return &keyboard
}

func newMessage(reply dialog.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(reply.ChatID, reply.Text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if markup := keyboard(reply.Buttons); markup != nil {
		msg.ReplyMarkup = markup
	}
	return msg
}

// newEdit replaces the text of an answered message. A reply without buttons
// also removes the old keyboard.
func newEdit(messageID int, reply dialog.Reply) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(reply.ChatID, messageID, reply.Text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	edit.ReplyMarkup = keyboard(reply.Buttons)
	return edit
}
