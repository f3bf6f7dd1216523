// Package keyboard lays out reply and inline keyboards in rows of fixed width.
package keyboard

import (
	"slices"

	tele "gopkg.in/telebot.v4"
)

// InlineBtn is one inline button. Unique selects the callback handler and
// Data travels with it as the payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// ReplyButtonsNPerRow builds a resizable reply keyboard with at most n labels per row.
func ReplyButtonsNPerRow(labels []string, n int) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	m.Reply(rows(labels, n, m.Text)...)
	return m
}

// InlineButtonsNPerRow builds an inline keyboard with at most n buttons per row.
func InlineButtonsNPerRow(btns []InlineBtn, n int) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(rows(btns, n, func(b InlineBtn) tele.Btn {
		return m.Data(b.Text, b.Unique, b.Data)
	})...)
	return m
}

func rows[T any](items []T, n int, build func(T) tele.Btn) []tele.Row {
	out := make([]tele.Row, 0, len(items)/max(n, 1)+1)
	for part := range slices.Chunk(items, max(n, 1)) {
		row := make(tele.Row, len(part))
		for i, it := range part {
			row[i] = build(it)
		}
		out = append(out, row)
	}
	return out
}
