package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name         string
		cb           *tele.Callback
		key, payload string
	}{
		{"nil", nil, "", ""},
		{"raw with payload", &tele.Callback{Data: "\fslot|9:00"}, "slot", "9:00"},
		{"raw without payload", &tele.Callback{Data: "\fback"}, "back", ""},
		{"payload keeps separators", &tele.Callback{Data: "\fapprove|approve 9:00|x"}, "approve", "approve 9:00|x"},
		{"resolved by telebot", &tele.Callback{Unique: "slot", Data: "10:30"}, "slot", "10:30"},
		{"no prefix", &tele.Callback{Data: "plain"}, "plain", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tt.cb)
			if key != tt.key || payload != tt.payload {
				t.Fatalf("ParseCallbackData = (%q, %q), want (%q, %q)", key, payload, tt.key, tt.payload)
			}
		})
	}
}
