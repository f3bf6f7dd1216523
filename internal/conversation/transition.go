package conversation

import (
	"strings"

	"github.com/m3rciful/rentbot/internal/booking"
)

// Recognized text commands. Matching is exact and case-sensitive.
const (
	CmdAccept     = "accept"
	CmdStatus     = "status"
	CmdBook       = "book"
	CmdMyBookings = "my bookings"
	CmdExit       = "exit"
	CmdStart      = "start"
	CmdFinish     = "finish"
	CmdShowUsers  = "show users"
	CmdStartBot   = "start bot"
	CmdStopBot    = "stop bot"

	// TokenApprove prefixes the approve callback: "approve H:MM".
	TokenApprove = "approve"
	// TokenBack is the cancel callback of the confirmation prompt.
	TokenBack = "back"
)

// Action is the side effect chosen by a transition.
type Action string

const (
	ActPromptAccept Action = "prompt_accept"
	ActAskHandle    Action = "ask_handle"
	ActWelcome      Action = "welcome"
	ActStatus       Action = "status"
	ActBook         Action = "book"
	ActMyBookings   Action = "my_bookings"
	ActMenu         Action = "menu"
	ActShowUsers    Action = "show_users"
	ActLaunch       Action = "launch"
	ActHalt         Action = "halt"
	ActSlotActions  Action = "slot_actions"
	ActStart        Action = "start"
	ActFinish       Action = "finish"
	ActPropose      Action = "propose"
	ActApprove      Action = "approve"
	ActBack         Action = "back"
	ActBadRequest   Action = "bad_request"
	ActForbidden    Action = "forbidden"
	ActUnavailable  Action = "unavailable"
)

// Input is the part of an event and its environment the transition depends on.
type Input struct {
	Text     string
	Callback string
	// HasHandle reports whether the session has a handle after applying the event.
	HasHandle bool
	// Launched reports whether the service is open to users.
	Launched bool
}

// Transition is the outcome of Next.
type Transition struct {
	To     booking.Dialog
	Action Action
	// Slot is the time the action operates on, if any.
	Slot string
}

var adminOnly = map[string]Action{
	CmdShowUsers: ActShowUsers,
	CmdStartBot:  ActLaunch,
	CmdStopBot:   ActHalt,
}

var idleCommands = map[string]Action{
	CmdStatus:     ActStatus,
	CmdBook:       ActBook,
	CmdMyBookings: ActMyBookings,
	CmdExit:       ActMenu,
}

// Next is the conversation transition function. It performs no I/O;
// the machine executes the returned action and may fall back to Idle if it fails.
func Next(d booking.Dialog, role booking.Role, in Input) Transition {
	stay := func(a Action) Transition { return Transition{To: d, Action: a} }
	idle := func(a Action) Transition {
		return Transition{To: booking.Dialog{State: booking.StateIdle}, Action: a}
	}

	switch d.State {
	case booking.StateAwaitingAcceptance:
		if in.Callback != "" || in.Text != CmdAccept {
			return stay(ActPromptAccept)
		}
		if !in.HasHandle {
			return Transition{To: booking.Dialog{State: booking.StateAwaitingIdentity}, Action: ActAskHandle}
		}
		return idle(ActWelcome)

	case booking.StateAwaitingIdentity:
		if in.HasHandle {
			return idle(ActWelcome)
		}
		return stay(ActAskHandle)
	}

	if role != booking.RoleAdmin && !in.Launched {
		return stay(ActUnavailable)
	}

	if in.Callback != "" {
		return nextCallback(d, in.Callback)
	}

	text := in.Text
	if booking.IsLabel(text) {
		slot, _, _ := booking.ParseLabel(text)
		return Transition{
			To:     booking.Dialog{State: booking.StateAwaitingTimeEntry, Slot: slot},
			Action: ActSlotActions,
			Slot:   slot,
		}
	}

	if d.State == booking.StateAwaitingTimeEntry {
		switch text {
		case CmdStart:
			return Transition{To: booking.Dialog{State: booking.StateIdle}, Action: ActStart, Slot: d.Slot}
		case CmdFinish:
			return Transition{To: booking.Dialog{State: booking.StateIdle}, Action: ActFinish, Slot: d.Slot}
		case CmdExit:
			return idle(ActMenu)
		}
		return stay(ActBadRequest)
	}

	// Idle, or a confirmation prompt abandoned by typing.
	if a, ok := idleCommands[text]; ok {
		return idle(a)
	}
	if a, ok := adminOnly[text]; ok {
		if role != booking.RoleAdmin {
			return idle(ActForbidden)
		}
		return idle(a)
	}
	return idle(ActBadRequest)
}

func nextCallback(d booking.Dialog, token string) Transition {
	bad := Transition{To: d, Action: ActBadRequest}
	if d.State == booking.StateAwaitingApprovalDecision {
		bad.To = booking.Dialog{State: booking.StateIdle}
	}

	if booking.IsLabel(token) {
		slot, _, _ := booking.ParseLabel(token)
		return Transition{
			To:     booking.Dialog{State: booking.StateAwaitingApprovalDecision, Slot: slot},
			Action: ActPropose,
			Slot:   slot,
		}
	}

	if d.State != booking.StateAwaitingApprovalDecision {
		return bad
	}

	if token == TokenBack {
		return Transition{To: booking.Dialog{State: booking.StateIdle}, Action: ActBack}
	}
	rest, ok := strings.CutPrefix(token, TokenApprove+" ")
	if !ok {
		return bad
	}
	slot, _, err := booking.ParseLabel(rest)
	if err != nil || slot != d.Slot {
		return bad
	}
	return Transition{To: booking.Dialog{State: booking.StateIdle}, Action: ActApprove, Slot: slot}
}
