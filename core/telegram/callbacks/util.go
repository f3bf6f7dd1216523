// Package callbacks decodes the data of inline button presses.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData returns the unique key and payload of cb.
// Telebot resolves Unique only for handlers bound to "\f<unique>"; a catch-all
// OnCallback handler sees the raw "\f<unique>|<payload>" in Data.
func ParseCallbackData(cb *tele.Callback) (key, payload string) {
	switch {
	case cb == nil:
		return "", ""
	case cb.Unique != "":
		return cb.Unique, cb.Data
	}
	key, payload, _ = strings.Cut(strings.TrimPrefix(cb.Data, "\f"), "|")
	return strings.TrimSpace(key), payload
}
