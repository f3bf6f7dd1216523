package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/rentbot/core/telegram"
)

// FSM is a per-user conversation that takes over text once it is in progress.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions sets the handlers for text and documents nobody else claims.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes routes plain text and documents.
// Text of a sender with a conversation in progress goes to fsm; otherwise
// slash aliases, the registry fallback and UnknownText are tried in order.
// Documents never enter the conversation.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		if u := c.Sender(); fsm != nil && u != nil && fsm.InProgress(u.ID) {
			return serve(c, "fsm", fsm.ManagerHandler)
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return serve(c, handlerName("cmd", key), cmd.Handler)
			}
			if fb := reg.TextFallback(); fb != nil {
				return serve(c, "fallback", fb)
			}
		}
		return serve(c, "unknown_text", opts.UnknownText)
	}
	doc := func(c tele.Context) error {
		return serve(c, "unexpected_document", opts.UnknownDocument)
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnDocument, Handler: wrap(doc)},
	}
}
