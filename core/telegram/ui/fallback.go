// Package ui holds the contracts between the routers and the bot's presentation layer.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider supplies the handlers for updates no route claimed:
// free text, unknown callback keys and uploaded documents.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
}
