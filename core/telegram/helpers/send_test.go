package helpers

import (
	"context"
	"errors"
	"strconv"
	"testing"

	tele "gopkg.in/telebot.v4"
)

type flakySender struct {
	sent   []string
	failAt map[int]int
	calls  int
}

func (f *flakySender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.calls++
	if n := f.failAt[len(f.sent)]; n > 0 {
		f.failAt[len(f.sent)] = n - 1
		return nil, errors.New("temporary")
	}
	f.sent = append(f.sent, to.Recipient()+":"+what.(string))
	return &tele.Message{}, nil
}

func TestSendSequenceKeepsOrderWithoutDispatcher(t *testing.T) {
	SetDispatcher(nil)
	s := &flakySender{failAt: map[int]int{}}
	msgs := []Message{
		{To: tele.ChatID(1), Text: "a"},
		{To: tele.ChatID(1), Text: "b", Options: &tele.SendOptions{}},
		{To: tele.ChatID(2), Text: "c"},
	}
	if err := SendSequence(context.Background(), s, msgs); err != nil {
		t.Fatalf("SendSequence: %v", err)
	}
	want := []string{"1:a", "1:b", "2:c"}
	if len(s.sent) != len(want) {
		t.Fatalf("sent = %v, want %v", s.sent, want)
	}
	for i := range want {
		if s.sent[i] != want[i] {
			t.Fatalf("sent[%d] = %q, want %q", i, s.sent[i], want[i])
		}
	}
}

func TestSendSequenceStopsAtFirstFailure(t *testing.T) {
	SetDispatcher(nil)
	s := &flakySender{failAt: map[int]int{1: 1}}
	msgs := make([]Message, 3)
	for i := range msgs {
		msgs[i] = Message{To: tele.ChatID(7), Text: strconv.Itoa(i)}
	}
	if err := SendSequence(context.Background(), s, msgs); err == nil {
		t.Fatal("expected error from failing send")
	}
	if len(s.sent) != 1 || s.sent[0] != "7:0" {
		t.Fatalf("sent = %v, want only the first message", s.sent)
	}
}

func TestSendSequenceRejectsNilSender(t *testing.T) {
	if err := SendSequence(context.Background(), nil, []Message{{Text: "x"}}); err == nil {
		t.Fatal("expected error for nil sender")
	}
}
