package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/rentbot/core/logger"
	"github.com/m3rciful/rentbot/internal/booking"
)

const componentConversation = "conversation"

// Switch is the operational on/off switch of the service.
type Switch interface {
	Launch(ctx context.Context) bool
	Halt(ctx context.Context) bool
	Launched() bool
}

// Machine executes conversation transitions against the booking service.
// Events of one session are handled one at a time; different sessions run concurrently.
type Machine struct {
	registry *booking.Registry
	service  *booking.Service
	sw       Switch
	greeting string
}

// New builds a Machine.
func New(svc *booking.Service, sw Switch, greeting string) *Machine {
	return &Machine{
		registry: svc.Registry(),
		service:  svc,
		sw:       sw,
		greeting: greeting,
	}
}

// Handle processes one inbound event and returns the replies in send order.
// The first event of an unknown identity opens the session with the greeting.
func (m *Machine) Handle(ctx context.Context, ev Event) []Outbound {
	if ev.SenderID == 0 {
		return nil
	}
	sess, created := m.registry.Resolve(ctx, ev.SenderID, ev.Handle)
	d, unlock := sess.Dialog()
	defer unlock()

	if created {
		return []Outbound{m.greet(sess)}
	}
	m.registry.UpdateHandle(ctx, sess, ev.Handle)

	in := Input{
		Text:      ev.Text,
		Callback:  ev.Callback,
		HasHandle: sess.Handle() != "",
		Launched:  m.sw.Launched(),
	}
	tr := Next(*d, sess.Role(), in)
	out, to := m.execute(ctx, sess, tr)

	logger.Debug(ctx, componentConversation, "transition",
		slog.Int64("user_id", sess.ID),
		slog.String("role", string(sess.Role())),
		slog.String("from", string(d.State)),
		slog.String("state", string(to.State)),
		slog.String("action", string(tr.Action)),
	)
	*d = to
	return out
}

// Restart puts the session back to the rules prompt.
func (m *Machine) Restart(ctx context.Context, ev Event) []Outbound {
	if ev.SenderID == 0 {
		return nil
	}
	sess, _ := m.registry.Resolve(ctx, ev.SenderID, ev.Handle)
	d, unlock := sess.Dialog()
	defer unlock()
	m.registry.UpdateHandle(ctx, sess, ev.Handle)
	*d = booking.Dialog{State: booking.StateAwaitingAcceptance}
	return []Outbound{m.greet(sess)}
}

// Help lists the commands available to the sender.
func (m *Machine) Help(ctx context.Context, ev Event) []Outbound {
	if ev.SenderID == 0 {
		return nil
	}
	sess, _ := m.registry.Resolve(ctx, ev.SenderID, ev.Handle)
	return []Outbound{{RecipientID: sess.ID, Text: helpText(sess.Role())}}
}

// LedgerReport renders the committed slots with their owners. Admin only.
func (m *Machine) LedgerReport(ctx context.Context, ev Event) []Outbound {
	if ev.SenderID == 0 {
		return nil
	}
	sess, _ := m.registry.Resolve(ctx, ev.SenderID, ev.Handle)
	if !sess.IsAdmin() {
		return m.Forbidden(ctx, ev)
	}
	return []Outbound{{RecipientID: sess.ID, Text: ledgerText(m.service.Ledger())}}
}

// Forbidden answers an admin-only request from a non-admin sender.
func (m *Machine) Forbidden(ctx context.Context, ev Event) []Outbound {
	if ev.SenderID == 0 {
		return nil
	}
	logger.Warn(ctx, componentConversation, "request.forbidden", slog.Int64("user_id", ev.SenderID))
	return []Outbound{{RecipientID: ev.SenderID, Text: msgForbidden}}
}

func (m *Machine) greet(sess *booking.Session) Outbound {
	return Outbound{RecipientID: sess.ID, Text: m.greeting, Choices: acceptChoices()}
}

func (m *Machine) menu(sess *booking.Session, text string) Outbound {
	return Outbound{RecipientID: sess.ID, Text: text, Choices: menuChoices(sess.Role()), Columns: 3}
}

func (m *Machine) slots(sess *booking.Session) Outbound {
	free := m.service.AvailableSlots()
	if len(free) == 0 {
		return Outbound{RecipientID: sess.ID, Text: msgNoSlots}
	}
	return Outbound{RecipientID: sess.ID, Text: msgAvailableList, Choices: slotChoices(free), Columns: 2}
}

// execute runs the side effect of tr and returns the replies and the dialog to store.
func (m *Machine) execute(ctx context.Context, sess *booking.Session, tr Transition) ([]Outbound, booking.Dialog) {
	to := tr.To
	idle := booking.Dialog{State: booking.StateIdle}
	one := func(o Outbound) []Outbound { return []Outbound{o} }

	switch tr.Action {
	case ActPromptAccept:
		return one(Outbound{RecipientID: sess.ID, Text: msgAcceptRules, Choices: acceptChoices()}), to

	case ActAskHandle:
		logger.Warn(ctx, componentConversation, "onboarding.no_handle", slog.Int64("user_id", sess.ID))
		return one(Outbound{RecipientID: sess.ID, Text: msgAskHandle}), to

	case ActWelcome:
		switch {
		case sess.IsAdmin():
			sess.SetOnline(true)
			return one(m.menu(sess, msgWelcomeAdmin)), to
		case sess.Known():
			return one(m.menu(sess, fmt.Sprintf(msgWelcomeBackF, sess.Handle()))), to
		default:
			return one(m.menu(sess, msgWelcomeNew)), to
		}

	case ActStatus:
		if h := m.service.Holder(); h != nil {
			return one(m.menu(sess, fmt.Sprintf(msgBusyF, h.DisplayName()))), to
		}
		return one(m.menu(sess, msgAvailable)), to

	case ActBook:
		return []Outbound{m.slots(sess), m.menu(sess, msgChooseAbove)}, to

	case ActMyBookings:
		snap := m.service.Snapshot(sess)
		if len(snap.Owned) == 0 {
			return one(m.menu(sess, msgNoBookings)), to
		}
		return one(Outbound{RecipientID: sess.ID, Text: msgYourBookings, Choices: bookingChoices(snap.Owned), Columns: 1}), to

	case ActMenu:
		return one(m.menu(sess, msgMenu)), to

	case ActShowUsers:
		var users []string
		for _, s := range m.registry.All() {
			if !s.IsAdmin() {
				users = append(users, s.DisplayName())
			}
		}
		return one(m.menu(sess, usersText(users))), to

	case ActLaunch:
		if !m.sw.Launch(ctx) {
			return one(m.menu(sess, msgAlreadyLaunch)), to
		}
		return one(m.menu(sess, msgLaunched)), to

	case ActHalt:
		m.sw.Halt(ctx)
		return one(m.menu(sess, msgHalted)), to

	case ActSlotActions:
		return one(Outbound{RecipientID: sess.ID, Text: msgSlotActions, Choices: actionChoices(), Columns: 1}), to

	case ActStart:
		if err := m.service.Start(ctx, sess, tr.Slot); err != nil {
			return one(m.menu(sess, m.failure(ctx, sess, tr, err))), to
		}
		return one(m.menu(sess, msgStarted)), to

	case ActFinish:
		if err := m.service.Finish(ctx, sess, tr.Slot); err != nil {
			return one(m.menu(sess, m.failure(ctx, sess, tr, err))), to
		}
		return one(m.menu(sess, msgFinished)), to

	case ActPropose:
		slot, err := m.service.Propose(ctx, sess, tr.Slot)
		if err != nil {
			return one(m.menu(sess, m.failure(ctx, sess, tr, err))), idle
		}
		return one(Outbound{RecipientID: sess.ID, Text: fmt.Sprintf(msgConfirmF, slot), Choices: confirmChoices(slot), Columns: 2}), to

	case ActApprove:
		if _, err := m.service.Approve(ctx, sess, tr.Slot); err != nil {
			return one(m.menu(sess, m.failure(ctx, sess, tr, err))), to
		}
		return one(m.menu(sess, msgBooked)), to

	case ActBack:
		return one(m.slots(sess)), to

	case ActForbidden:
		logger.Warn(ctx, componentConversation, "request.forbidden", slog.Int64("user_id", sess.ID))
		return one(m.menu(sess, msgForbidden)), to

	case ActUnavailable:
		return one(Outbound{RecipientID: sess.ID, Text: msgUnavailable}), to
	}

	logger.Warn(ctx, componentConversation, "request.bad",
		slog.Int64("user_id", sess.ID),
		slog.String("state", string(to.State)),
	)
	if to.State == booking.StateAwaitingTimeEntry {
		return one(Outbound{RecipientID: sess.ID, Text: msgBadRequest, Choices: actionChoices(), Columns: 1}), to
	}
	return one(m.menu(sess, msgBadRequest)), to
}

// failure maps a booking error to the text shown to the user.
func (m *Machine) failure(ctx context.Context, sess *booking.Session, tr Transition, err error) string {
	logger.Info(ctx, componentConversation, "action.fail",
		slog.Int64("user_id", sess.ID),
		slog.String("action", string(tr.Action)),
		slog.String("slot", tr.Slot),
		slog.String("err", err.Error()),
	)

	var busy *booking.BusyError
	switch {
	case errors.As(err, &busy):
		return fmt.Sprintf(msgBusyF, busy.Holder)
	case errors.Is(err, booking.ErrQuotaExceeded):
		return fmt.Sprintf(msgQuotaF, m.service.MaxPerDay())
	case errors.Is(err, booking.ErrConflict):
		return msgStolen
	case errors.Is(err, booking.ErrNotBooked):
		return msgNotBooked
	case errors.Is(err, booking.ErrTooEarly):
		return fmt.Sprintf(msgTooEarlyF, tr.Slot)
	case errors.Is(err, booking.ErrExpired):
		return msgExpired
	case errors.Is(err, booking.ErrAlreadyInUse):
		return msgAlreadyInUse
	case errors.Is(err, booking.ErrNotInUse):
		return msgNotInUse
	case errors.Is(err, booking.ErrNotOwned):
		return msgNotOwned
	case errors.Is(err, booking.ErrValidation):
		return msgBadRequest
	}
	logger.Error(ctx, componentConversation, "action.error",
		slog.Int64("user_id", sess.ID),
		slog.String("err", err.Error()),
	)
	return msgBadRequest
}
