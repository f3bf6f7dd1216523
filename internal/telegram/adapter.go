// Package telegram binds the conversation machine to telebot: it turns updates
// into conversation events, renders replies as keyboards and pushes admin
// notifications through the shared sender dispatcher.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/rentbot/core/logger"
	tg "github.com/m3rciful/rentbot/core/telegram"
	"github.com/m3rciful/rentbot/core/telegram/callbacks"
	"github.com/m3rciful/rentbot/core/telegram/commands"
	"github.com/m3rciful/rentbot/core/telegram/helpers"
	"github.com/m3rciful/rentbot/core/telegram/middleware"
	"github.com/m3rciful/rentbot/core/telegram/router"
	"github.com/m3rciful/rentbot/core/telegram/ui"
	"github.com/m3rciful/rentbot/internal/booking"
	"github.com/m3rciful/rentbot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

const (
	componentTG = "tg"
	msgSlowDown = "Too many requests! Slow down a bit."
)

// Slash commands registered by the adapter.
const (
	CommandStart  = "/start"
	CommandHelp   = "/help"
	CommandLedger = "/ledger"
)

var (
	_ ui.FallbackProvider = (*Adapter)(nil)
	_ router.FSM          = (*Adapter)(nil)
	_ booking.Notifier    = (*Adapter)(nil)
)

// ErrNotAttached is returned when a message must be pushed before the bot is attached.
var ErrNotAttached = errors.New("telegram: bot not attached")

// Adapter is the telebot side of the conversation machine.
type Adapter struct {
	machine  *conversation.Machine
	registry *booking.Registry
	admins   func(userID int64) bool

	mu     sync.RWMutex
	sender helpers.Sender
}

// New builds an adapter. admins reports configured admin ids; sessions resolved
// as admin by handle are honoured as well.
func New(m *conversation.Machine, reg *booking.Registry, admins func(userID int64) bool) *Adapter {
	return &Adapter{machine: m, registry: reg, admins: admins}
}

// Attach sets the bot used to deliver messages.
func (a *Adapter) Attach(s helpers.Sender) {
	a.mu.Lock()
	a.sender = s
	a.mu.Unlock()
}

func (a *Adapter) currentSender() helpers.Sender {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sender
}

// Register adds the slash commands, callback keys and fallbacks to reg.
func (a *Adapter) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		CommandStart: {
			Handler:     a.handleStart,
			Description: "Restart and show the rules",
		},
		CommandHelp: {
			Handler:     a.handleHelp,
			Description: "List available commands",
		},
		CommandLedger: {
			Handler:     a.handleLedger,
			Description: "Show current bookings",
			AdminOnly:   true,
		},
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return fmt.Errorf("register command %s: %w", name, err)
		}
	}
	for _, key := range []string{uniqueSlot, uniqueApprove, uniqueBack} {
		if err := reg.RegisterCallback(key, a.OnCallback); err != nil {
			return fmt.Errorf("register callback %s: %w", key, err)
		}
	}
	reg.SetCallbackNotFound(a.OnCallback)
	reg.SetTextFallback(a.OnText)
	return nil
}

// IsAdmin reports whether userID is a configured admin or an admin session.
func (a *Adapter) IsAdmin(userID int64) bool {
	if a.admins != nil && a.admins(userID) {
		return true
	}
	if sess, ok := a.registry.Lookup(userID); ok {
		return sess.IsAdmin()
	}
	return false
}

// InProgress reports whether the sender already has a session.
func (a *Adapter) InProgress(userID int64) bool {
	_, ok := a.registry.Lookup(userID)
	return ok
}

// ManagerHandler routes text of a known sender to the machine.
func (a *Adapter) ManagerHandler(c tele.Context) error {
	return a.OnText(c)
}

// UnknownText handles text of a sender without a session.
func (a *Adapter) UnknownText() tele.HandlerFunc { return a.OnText }

// UnknownCallback handles callbacks with unregistered keys.
func (a *Adapter) UnknownCallback() tele.HandlerFunc { return a.OnCallback }

// UnknownDocument answers uploads as an unrecognized request.
func (a *Adapter) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		ev := eventFrom(c.Sender(), nil, "")
		return a.dispatch(c, ev, a.machine.Handle)
	}
}

// OnLimited tells a throttled sender to slow down.
func (a *Adapter) OnLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgSlowDown})
	}
	return helpers.SendText(c, msgSlowDown)
}

// OnText feeds a text message to the machine.
func (a *Adapter) OnText(c tele.Context) error {
	return a.dispatch(c, eventFrom(c.Sender(), nil, c.Text()), a.machine.Handle)
}

// OnCallback feeds an inline choice to the machine and removes the keyboard it came from.
func (a *Adapter) OnCallback(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	if c.Callback().Message != nil {
		if err := helpers.Delete(c); err != nil {
			logger.Debug(helpers.BuildContext(c), componentTG, "callback.delete.fail",
				slog.String("err", err.Error()),
			)
		}
	}
	return a.dispatch(c, eventFrom(c.Sender(), c.Callback(), ""), a.machine.Handle)
}

// RejectAdmin answers a non-admin sender of an admin-only command.
func (a *Adapter) RejectAdmin(c tele.Context) error {
	return a.dispatch(c, eventFrom(c.Sender(), nil, ""), a.machine.Forbidden)
}

func (a *Adapter) handleStart(c tele.Context) error {
	return a.dispatch(c, eventFrom(c.Sender(), nil, ""), a.machine.Restart)
}

func (a *Adapter) handleHelp(c tele.Context) error {
	return a.dispatch(c, eventFrom(c.Sender(), nil, ""), a.machine.Help)
}

func (a *Adapter) handleLedger(c tele.Context) error {
	return a.dispatch(c, eventFrom(c.Sender(), nil, ""), a.machine.LedgerReport)
}

func (a *Adapter) dispatch(c tele.Context, ev conversation.Event, fn func(context.Context, conversation.Event) []conversation.Outbound) error {
	ctx := helpers.BuildContext(c)
	if ev.SenderID == 0 {
		logger.Debug(ctx, componentTG, "update.skip", slog.String("cause", "no_sender"))
		return nil
	}
	out := fn(ctx, ev)
	kb := false
	for _, o := range out {
		kb = kb || len(o.Choices) > 0
	}
	middleware.RecordSent(c, len(out), kb)
	return a.deliver(ctx, out)
}

func (a *Adapter) deliver(ctx context.Context, out []conversation.Outbound) error {
	if len(out) == 0 {
		return nil
	}
	s := a.currentSender()
	if s == nil {
		logger.Error(ctx, componentTG, "deliver.fail",
			slog.String("cause", "not_attached"),
			slog.Int("count", len(out)),
		)
		return ErrNotAttached
	}
	msgs := make([]helpers.Message, 0, len(out))
	for _, o := range out {
		msgs = append(msgs, render(ctx, o))
	}
	return helpers.SendSequence(ctx, s, msgs)
}

// Notify sends a plain text notification to one chat.
func (a *Adapter) Notify(ctx context.Context, recipientID int64, text string) error {
	s := a.currentSender()
	if s == nil {
		return ErrNotAttached
	}
	return helpers.SendSequence(ctx, s, []helpers.Message{{To: tele.ChatID(recipientID), Text: text}})
}

// eventFrom builds a conversation event. Text is ignored for callbacks.
func eventFrom(u *tele.User, cb *tele.Callback, text string) conversation.Event {
	if u == nil {
		return conversation.Event{}
	}
	ev := conversation.Event{
		SenderID: u.ID,
		Handle:   booking.NormalizeHandle(u.Username),
	}
	if cb == nil {
		ev.Text = text
		return ev
	}
	key, payload := callbacks.ParseCallbackData(cb)
	ev.Callback = decodeCallback(key, payload)
	if ev.Callback == "" {
		// Unknown keys still reach the machine as an unrecognized callback.
		ev.Callback = "unknown:" + key
	}
	return ev
}
