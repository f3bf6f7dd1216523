package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/rentbot/core/telegram/helpers"
	"github.com/m3rciful/rentbot/internal/booking"
	"github.com/m3rciful/rentbot/internal/conversation"
	"github.com/m3rciful/rentbot/internal/storage/memory"

	tele "gopkg.in/telebot.v4"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []sent
}

type sent struct {
	to   string
	text string
	opts []interface{}
}

func (r *recordingSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{to: to.Recipient(), text: what.(string), opts: opts})
	return &tele.Message{}, nil
}

func newAdapter(t *testing.T) (*Adapter, *booking.Registry) {
	t.Helper()
	helpers.SetDispatcher(nil)
	reg := booking.NewRegistry(memory.NewUserStore(), booking.AdminList{IDs: []int64{1}})
	svc, err := booking.NewService(booking.Config{
		Slots:     booking.SlotConfig{Interval: time.Hour, Earliest: "9:00", Latest: "12:00"},
		MaxPerDay: 2,
	}, reg, booking.NewBroadcaster(reg, nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	sched := booking.NewScheduler(svc, time.Hour)
	m := conversation.New(svc, sched, "Rules")
	a := New(m, reg, func(id int64) bool { return id == 1 })
	return a, reg
}

func TestEventFrom(t *testing.T) {
	u := &tele.User{ID: 7, Username: "neo"}

	ev := eventFrom(u, nil, "book")
	if ev.SenderID != 7 || ev.Handle != "@neo" || ev.Text != "book" || ev.IsCallback() {
		t.Fatalf("text event = %+v", ev)
	}

	ev = eventFrom(u, &tele.Callback{Data: "\fapprove|10:00"}, "ignored")
	if ev.Callback != "approve 10:00" || ev.Text != "" {
		t.Fatalf("callback event = %+v", ev)
	}

	ev = eventFrom(u, &tele.Callback{Data: "\fstale|1"}, "")
	if !ev.IsCallback() || !strings.HasPrefix(ev.Callback, "unknown:") {
		t.Fatalf("stale callback event = %+v", ev)
	}

	if ev := eventFrom(nil, nil, "x"); ev.SenderID != 0 {
		t.Fatalf("nil sender event = %+v", ev)
	}
	if ev := eventFrom(&tele.User{ID: 3}, nil, "x"); ev.Handle != "" {
		t.Fatalf("handle = %q, want empty", ev.Handle)
	}
}

func TestDeliverRequiresAttachedBot(t *testing.T) {
	a, _ := newAdapter(t)
	err := a.deliver(context.Background(), []conversation.Outbound{{RecipientID: 1, Text: "x"}})
	if err != ErrNotAttached {
		t.Fatalf("err = %v, want ErrNotAttached", err)
	}
	if err := a.Notify(context.Background(), 1, "x"); err != ErrNotAttached {
		t.Fatalf("Notify err = %v, want ErrNotAttached", err)
	}
}

func TestDeliverKeepsOrderAndMarkup(t *testing.T) {
	a, _ := newAdapter(t)
	s := &recordingSender{}
	a.Attach(s)

	out := []conversation.Outbound{
		{RecipientID: 5, Text: "Available times:", Choices: []conversation.Choice{{Label: "9:00", Data: "9:00"}}, Columns: 2},
		{RecipientID: 5, Text: "Choose available time above", Choices: []conversation.Choice{{Label: "status"}}},
	}
	if err := a.deliver(context.Background(), out); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(s.sent) != 2 {
		t.Fatalf("sent = %d messages, want 2", len(s.sent))
	}
	if s.sent[0].text != "Available times:" || s.sent[1].text != "Choose available time above" {
		t.Fatalf("order = %q, %q", s.sent[0].text, s.sent[1].text)
	}
	opts, ok := s.sent[0].opts[0].(*tele.SendOptions)
	if !ok || len(opts.ReplyMarkup.InlineKeyboard) != 1 {
		t.Fatalf("first message markup = %+v", s.sent[0].opts)
	}
}

func TestNotifyPlainText(t *testing.T) {
	a, _ := newAdapter(t)
	s := &recordingSender{}
	a.Attach(s)
	if err := a.Notify(context.Background(), 9, "@neo booked 10:00"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(s.sent) != 1 || s.sent[0].to != "9" || len(s.sent[0].opts) != 0 {
		t.Fatalf("sent = %+v", s.sent)
	}
}

func TestIsAdminAndInProgress(t *testing.T) {
	a, reg := newAdapter(t)
	if !a.IsAdmin(1) {
		t.Fatal("configured admin id rejected")
	}
	if a.IsAdmin(2) || a.InProgress(2) {
		t.Fatal("unknown user reported as admin or in progress")
	}
	reg.Resolve(context.Background(), 2, "@two")
	if !a.InProgress(2) {
		t.Fatal("resolved session not in progress")
	}
	if a.IsAdmin(2) {
		t.Fatal("plain user reported as admin")
	}
}
