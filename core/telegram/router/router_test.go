package router

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/rentbot/core/telegram"
	"github.com/m3rciful/rentbot/core/telegram/commands"
)

type fakeFSM struct {
	active  map[int64]bool
	handled int
}

func (f *fakeFSM) InProgress(id int64) bool { return f.active[id] }

func (f *fakeFSM) ManagerHandler(tele.Context) error {
	f.handled++
	return nil
}

func message(userID int64, text string) tele.Context {
	return (&tele.Bot{}).NewContext(tele.Update{
		ID: 1,
		Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID},
			Text:   text,
		},
	})
}

func TestTextRoutesOrder(t *testing.T) {
	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	reg := tg.NewRegistry()
	var aliasHits, fallbackHits, unknownHits int
	_ = reg.RegisterCommand("/start", commands.Command{
		Handler:     func(tele.Context) error { aliasHits++; return nil },
		Description: "start",
		Aliases:     []string{"menu"},
	})

	routes := TextRoutes(fsm, reg, TextOptions{
		UnknownText: func(tele.Context) error { unknownHits++; return nil },
	})
	if len(routes) != 2 || routes[0].Endpoint != tele.OnText || routes[1].Endpoint != tele.OnDocument {
		t.Fatalf("unexpected routes %+v", routes)
	}
	text := routes[0].Handler

	_ = text(message(1, "/menu"))
	_ = text(message(2, "/menu"))
	_ = text(message(2, "hello"))
	if fsm.handled != 1 || aliasHits != 1 || unknownHits != 1 {
		t.Fatalf("fsm=%d alias=%d unknown=%d, want 1/1/1", fsm.handled, aliasHits, unknownHits)
	}

	reg.SetTextFallback(func(tele.Context) error { fallbackHits++; return nil })
	_ = text(message(2, "hello"))
	if fallbackHits != 1 || unknownHits != 1 {
		t.Fatalf("fallback=%d unknown=%d, want 1/1", fallbackHits, unknownHits)
	}
}

func TestTextRoutesWithoutHandlers(t *testing.T) {
	routes := TextRoutes(nil, nil, TextOptions{})
	for _, r := range routes {
		if err := r.Handler(message(3, "x")); err != nil {
			t.Fatalf("handler err = %v", err)
		}
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "slot taken" }
func (codedErr) Code() string  { return "slot conflict" }

func TestErrorCodeAndNames(t *testing.T) {
	if got := errorCode(codedErr{}); got != "SLOT_CONFLICT" {
		t.Fatalf("errorCode = %q", got)
	}
	if got := errorCode(errors.New("x")); got != "UNHANDLED" {
		t.Fatalf("errorCode plain = %q", got)
	}
	tests := map[[2]string]string{
		{"cmd", "/Start"}:    "cmd.start",
		{"callback", ""}:     "callback.unknown",
		{"", "unknown text"}: "unknown_text",
	}
	for in, want := range tests {
		if got := handlerName(in[0], in[1]); got != want {
			t.Fatalf("handlerName(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
