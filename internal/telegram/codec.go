package telegram

import (
	"strings"

	"github.com/m3rciful/rentbot/internal/booking"
	"github.com/m3rciful/rentbot/internal/conversation"
)

// Callback unique keys. Telebot sends them as "\f<unique>|<payload>".
const (
	uniqueSlot    = "slot"
	uniqueApprove = "approve"
	uniqueBack    = "back"
)

// encodeCallback maps a conversation callback token to a telebot unique key and payload.
func encodeCallback(token string) (unique, payload string, ok bool) {
	token = strings.TrimSpace(token)
	switch {
	case token == conversation.TokenBack:
		return uniqueBack, "", true
	case strings.HasPrefix(token, conversation.TokenApprove+" "):
		return uniqueApprove, strings.TrimPrefix(token, conversation.TokenApprove+" "), true
	case booking.IsLabel(token):
		return uniqueSlot, token, true
	}
	return "", "", false
}

// decodeCallback is the inverse of encodeCallback. Unknown keys yield "".
func decodeCallback(unique, payload string) string {
	payload = strings.TrimSpace(payload)
	switch unique {
	case uniqueSlot:
		return payload
	case uniqueApprove:
		return conversation.TokenApprove + " " + payload
	case uniqueBack:
		return conversation.TokenBack
	}
	return ""
}
