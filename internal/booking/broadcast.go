package booking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/rentbot/core/logger"
)

// Notifier delivers a plain text message to one chat.
type Notifier interface {
	Notify(ctx context.Context, recipientID int64, text string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, recipientID int64, text string) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, recipientID int64, text string) error {
	return f(ctx, recipientID, text)
}

// Broadcaster fans ledger events out to online admins.
type Broadcaster struct {
	registry *Registry

	mu       sync.RWMutex
	notifier Notifier
}

// NewBroadcaster returns a broadcaster; the notifier may be attached later with SetNotifier.
func NewBroadcaster(reg *Registry, n Notifier) *Broadcaster {
	return &Broadcaster{registry: reg, notifier: n}
}

// SetNotifier replaces the delivery sink.
func (b *Broadcaster) SetNotifier(n Notifier) {
	b.mu.Lock()
	b.notifier = n
	b.mu.Unlock()
}

// NotifyAll sends text to every online admin and returns the number of successful deliveries.
// A failed recipient is logged and skipped.
func (b *Broadcaster) NotifyAll(ctx context.Context, text string) int {
	if b == nil || b.registry == nil {
		return 0
	}
	b.mu.RLock()
	n := b.notifier
	b.mu.RUnlock()
	if n == nil {
		logger.Debug(ctx, componentBooking, "broadcast.skip",
			slog.String("status", "skip"),
			slog.String("cause", "no_notifier"),
		)
		return 0
	}

	delivered := 0
	for _, admin := range b.registry.OnlineAdmins() {
		if err := n.Notify(ctx, admin.ID, text); err != nil {
			logger.Warn(ctx, componentBooking, "broadcast.fail",
				slog.String("status", "fail"),
				slog.Int64("chat_id", admin.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		delivered++
	}
	logger.Debug(ctx, componentBooking, "broadcast.done",
		slog.String("status", "ok"),
		slog.Int("count", delivered),
	)
	return delivered
}
