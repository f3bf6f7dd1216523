package telegram

import (
	"context"
	"log/slog"

	"github.com/m3rciful/rentbot/core/logger"
	"github.com/m3rciful/rentbot/core/telegram/helpers"
	"github.com/m3rciful/rentbot/core/telegram/keyboard"
	"github.com/m3rciful/rentbot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

const (
	defaultReplyColumns  = 3
	defaultInlineColumns = 1
)

// render converts one outbound descriptor into a telebot message.
// Choices become an inline keyboard when any of them carries callback data,
// a resizable reply keyboard otherwise.
func render(ctx context.Context, o conversation.Outbound) helpers.Message {
	msg := helpers.Message{To: tele.ChatID(o.RecipientID), Text: o.Text}
	if len(o.Choices) == 0 {
		return msg
	}

	inline := false
	for _, c := range o.Choices {
		if c.Inline() {
			inline = true
			break
		}
	}

	if !inline {
		cols := o.Columns
		if cols <= 0 {
			cols = defaultReplyColumns
		}
		labels := make([]string, 0, len(o.Choices))
		for _, c := range o.Choices {
			labels = append(labels, c.Label)
		}
		msg.Options = &tele.SendOptions{ReplyMarkup: keyboard.ReplyButtonsNPerRow(labels, cols)}
		return msg
	}

	cols := o.Columns
	if cols <= 0 {
		cols = defaultInlineColumns
	}
	btns := make([]keyboard.InlineBtn, 0, len(o.Choices))
	for _, c := range o.Choices {
		unique, payload, ok := encodeCallback(c.Data)
		if !ok {
			logger.Warn(ctx, "tg", "render.skip",
				slog.String("label", c.Label),
				slog.String("cause", "unencodable_callback"),
			)
			continue
		}
		btns = append(btns, keyboard.InlineBtn{Text: c.Label, Unique: unique, Data: payload})
	}
	if len(btns) > 0 {
		msg.Options = &tele.SendOptions{ReplyMarkup: keyboard.InlineButtonsNPerRow(btns, cols)}
	}
	return msg
}
