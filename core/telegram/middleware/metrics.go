package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const sentKey = "rentbot.sent"

// sentCounter tallies the replies produced while handling one update.
type sentCounter struct {
	messages atomic.Int64
	keyboard atomic.Bool
}

// metricsContext counts replies sent straight through the update context.
type metricsContext struct{ tele.Context }

func (m metricsContext) count(err error, opts []interface{}) error {
	if err == nil {
		RecordSent(m.Context, 1, hasKeyboard(opts))
	}
	return err
}

func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.Send(what, opts...), opts)
}

func (m metricsContext) Reply(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.Reply(what, opts...), opts)
}

func (m metricsContext) Edit(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.Edit(what, opts...), opts)
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// MessageMetricsMiddleware attaches a reply counter to every update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(sentKey, &sentCounter{})
		return next(metricsContext{Context: c})
	}
}

// RecordSent adds n replies to the update's counter. Replies sent outside the
// update context, such as queued sequences, are reported this way.
func RecordSent(c tele.Context, n int, keyboard bool) {
	if c == nil {
		return
	}
	sc, ok := c.Get(sentKey).(*sentCounter)
	if !ok {
		return
	}
	sc.messages.Add(int64(n))
	if keyboard {
		sc.keyboard.Store(true)
	}
}

// GetCounters returns how many replies the update produced and whether any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	sc, ok := c.Get(sentKey).(*sentCounter)
	if !ok {
		return 0, false
	}
	return int(sc.messages.Load()), sc.keyboard.Load()
}
