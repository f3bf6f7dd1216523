package conversation

import (
	"testing"

	"github.com/m3rciful/rentbot/internal/booking"
)

func TestNext(t *testing.T) {
	var (
		accepting = booking.Dialog{State: booking.StateAwaitingAcceptance}
		identity  = booking.Dialog{State: booking.StateAwaitingIdentity}
		idle      = booking.Dialog{State: booking.StateIdle}
		entry     = booking.Dialog{State: booking.StateAwaitingTimeEntry, Slot: "14:00"}
		confirm   = booking.Dialog{State: booking.StateAwaitingApprovalDecision, Slot: "14:00"}
	)
	user, admin := booking.RoleUser, booking.RoleAdmin
	up := func(in Input) Input {
		in.HasHandle = true
		in.Launched = true
		return in
	}

	tests := []struct {
		name   string
		from   booking.Dialog
		role   booking.Role
		in     Input
		want   booking.State
		action Action
		slot   string
	}{
		{"accept with handle", accepting, user, Input{Text: "accept", HasHandle: true}, booking.StateIdle, ActWelcome, ""},
		{"accept without handle", accepting, user, Input{Text: "accept"}, booking.StateAwaitingIdentity, ActAskHandle, ""},
		{"other text before accept", accepting, user, Input{Text: "status", HasHandle: true}, booking.StateAwaitingAcceptance, ActPromptAccept, ""},
		{"accept is case sensitive", accepting, user, Input{Text: "Accept", HasHandle: true}, booking.StateAwaitingAcceptance, ActPromptAccept, ""},
		{"callback before accept", accepting, user, Input{Callback: "9:00", HasHandle: true}, booking.StateAwaitingAcceptance, ActPromptAccept, ""},
		{"onboarding ignores halt", accepting, user, Input{Text: "accept", HasHandle: true}, booking.StateIdle, ActWelcome, ""},
		{"handle still missing", identity, user, Input{Text: "hi"}, booking.StateAwaitingIdentity, ActAskHandle, ""},
		{"handle appeared", identity, user, Input{Text: "hi", HasHandle: true}, booking.StateIdle, ActWelcome, ""},

		{"status", idle, user, up(Input{Text: "status"}), booking.StateIdle, ActStatus, ""},
		{"book", idle, user, up(Input{Text: "book"}), booking.StateIdle, ActBook, ""},
		{"my bookings", idle, user, up(Input{Text: "my bookings"}), booking.StateIdle, ActMyBookings, ""},
		{"exit", idle, user, up(Input{Text: "exit"}), booking.StateIdle, ActMenu, ""},
		{"unknown text", idle, user, up(Input{Text: "hello"}), booking.StateIdle, ActBadRequest, ""},
		{"start outside time entry", idle, user, up(Input{Text: "start"}), booking.StateIdle, ActBadRequest, ""},
		{"slot label", idle, user, up(Input{Text: "09:00"}), booking.StateAwaitingTimeEntry, ActSlotActions, "9:00"},
		{"bad label", idle, user, up(Input{Text: "24:00"}), booking.StateIdle, ActBadRequest, ""},

		{"user show users", idle, user, up(Input{Text: "show users"}), booking.StateIdle, ActForbidden, ""},
		{"user start bot", idle, user, up(Input{Text: "start bot"}), booking.StateIdle, ActForbidden, ""},
		{"admin show users", idle, admin, up(Input{Text: "show users"}), booking.StateIdle, ActShowUsers, ""},
		{"admin start bot", idle, admin, Input{Text: "start bot", HasHandle: true}, booking.StateIdle, ActLaunch, ""},
		{"admin stop bot", idle, admin, up(Input{Text: "stop bot"}), booking.StateIdle, ActHalt, ""},

		{"user while halted", idle, user, Input{Text: "status", HasHandle: true}, booking.StateIdle, ActUnavailable, ""},
		{"user callback while halted", confirm, user, Input{Callback: "approve 14:00", HasHandle: true}, booking.StateAwaitingApprovalDecision, ActUnavailable, ""},
		{"admin while halted", idle, admin, Input{Text: "status", HasHandle: true}, booking.StateIdle, ActStatus, ""},

		{"time entry start", entry, user, up(Input{Text: "start"}), booking.StateIdle, ActStart, "14:00"},
		{"time entry finish", entry, user, up(Input{Text: "finish"}), booking.StateIdle, ActFinish, "14:00"},
		{"time entry exit", entry, user, up(Input{Text: "exit"}), booking.StateIdle, ActMenu, ""},
		{"time entry retarget", entry, user, up(Input{Text: "15:00"}), booking.StateAwaitingTimeEntry, ActSlotActions, "15:00"},
		{"time entry unknown", entry, user, up(Input{Text: "book"}), booking.StateAwaitingTimeEntry, ActBadRequest, ""},

		{"slot callback", idle, user, up(Input{Callback: "14:00"}), booking.StateAwaitingApprovalDecision, ActPropose, "14:00"},
		{"approve", confirm, user, up(Input{Callback: "approve 14:00"}), booking.StateIdle, ActApprove, "14:00"},
		{"approve other slot", confirm, user, up(Input{Callback: "approve 15:00"}), booking.StateIdle, ActBadRequest, ""},
		{"back", confirm, user, up(Input{Callback: "back"}), booking.StateIdle, ActBack, ""},
		{"approve without prompt", idle, user, up(Input{Callback: "approve 14:00"}), booking.StateIdle, ActBadRequest, ""},
		{"back without prompt", entry, user, up(Input{Callback: "back"}), booking.StateAwaitingTimeEntry, ActBadRequest, ""},
		{"garbage callback", confirm, user, up(Input{Callback: "approve now"}), booking.StateIdle, ActBadRequest, ""},
		{"typing abandons prompt", confirm, user, up(Input{Text: "status"}), booking.StateIdle, ActStatus, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.from, tt.role, tt.in)
			if got.To.State != tt.want || got.Action != tt.action || got.Slot != tt.slot {
				t.Fatalf("Next = {%s %s %q}, want {%s %s %q}",
					got.To.State, got.Action, got.Slot, tt.want, tt.action, tt.slot)
			}
		})
	}
}

func TestNextKeepsDialogOnBadRequest(t *testing.T) {
	d := booking.Dialog{State: booking.StateAwaitingTimeEntry, Slot: "10:00"}
	got := Next(d, booking.RoleUser, Input{Text: "nope", HasHandle: true, Launched: true})
	if got.To != d {
		t.Fatalf("dialog = %+v, want unchanged %+v", got.To, d)
	}
}
