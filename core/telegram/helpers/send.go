// Package helpers routes outbound messages through the sender dispatcher and
// keeps the per-update logging context.
package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rentbot/core/logger"
	"github.com/m3rciful/rentbot/core/telegram/sender"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs d for the helpers below. nil makes them send inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// Sender is the part of *tele.Bot needed to push messages outside of an update.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Message is one outbound text. Options may be nil.
type Message struct {
	To      tele.Recipient
	Text    string
	Options *tele.SendOptions
}

func (m Message) send(s Sender) error {
	var err error
	if m.Options != nil {
		_, err = s.Send(m.To, m.Text, m.Options)
	} else {
		_, err = s.Send(m.To, m.Text)
	}
	return err
}

// submit queues run on the dispatcher. Without a dispatcher, or when the
// queue cannot take it, run is executed on the calling goroutine.
func submit(ctx context.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	err := d.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("op", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText replies to the current chat with plain text.
func SendText(c tele.Context, text string) error {
	return submit(BuildContext(c), "send.text", "sendMessage", func() error {
		return c.Send(text)
	})
}

// SendSequence delivers msgs in order as a single dispatcher job.
// A retried job resumes from the first message that was not delivered.
func SendSequence(ctx context.Context, s Sender, msgs []Message) error {
	if s == nil {
		return errors.New("telegram sender: nil sender")
	}
	if len(msgs) == 0 {
		return nil
	}
	next := 0
	return submit(ctx, "send.sequence", "sendMessage", func() error {
		for ; next < len(msgs); next++ {
			if err := msgs[next].send(s); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the message the current update refers to, such as the one
// carrying a pressed inline keyboard.
func Delete(c tele.Context) error {
	return submit(BuildContext(c), "delete", "deleteMessage", c.Delete)
}
