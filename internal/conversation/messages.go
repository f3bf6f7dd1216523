package conversation

import (
	"fmt"
	"strings"

	"github.com/m3rciful/rentbot/internal/booking"
)

// User-facing texts.
const (
	msgBadRequest    = "Unknown command! Next time be more precise!"
	msgAcceptRules   = "Please accept rules! Otherwise, see you :("
	msgAskHandle     = "Please create username in settings and return!"
	msgWelcomeAdmin  = "Hello admin! We all have been waiting for you!"
	msgWelcomeNew    = "Hello unknown! We will remember you soon..."
	msgWelcomeBackF  = "Hello %s, welcome back!"
	msgMenu          = "Choose one of the actions below"
	msgUnavailable   = "Bot is unavailable for users! Please contact admins!"
	msgForbidden     = "This command is for admins only!"
	msgAvailable     = "Device is available!"
	msgBusyF         = "Device is in use, please contact: %s"
	msgChooseAbove   = "Choose available time above"
	msgAvailableList = "Available times:"
	msgNoSlots       = "No free times left for today!"
	msgNoBookings    = "You do not have active bookings!"
	msgYourBookings  = "Your available bookings:"
	msgSlotActions   = "Choose action to manage your book:"
	msgConfirmF      = "Book at %s?"
	msgBooked        = "Successfully booked!"
	msgStolen        = "Somebody has stolen your time interval! Booking failed!"
	msgQuotaF        = "You have no more than %d bookings a day! Return tomorrow!"
	msgStarted       = "Rent started successfully!"
	msgFinished      = "Rent finished successfully!"
	msgNotBooked     = "Book before starting the rent!"
	msgTooEarlyF     = "It is not your time to start the rent! Wait until %s"
	msgExpired       = "Your booking has expired! Create new booking!"
	msgAlreadyInUse  = "You have already started the rent!"
	msgNotInUse      = "Start rent first!"
	msgNotOwned      = "You can not finish rent you haven't started!"
	msgNoUsers       = "No users use bot currently!"
	msgUsersHeader   = "Users using service:"
	msgLaunched      = "Bot launched! Bot will update every day since now!"
	msgAlreadyLaunch = "Bot already launched and updates every day!"
	msgHalted        = "Bot stopped! Now it is not available for users!"
	msgEmptyLedger   = "No bookings yet."
	msgLedgerHeader  = "Current bookings:"
	msgHelpHeader    = "Commands:"
)

func acceptChoices() []Choice {
	return []Choice{{Label: CmdAccept}}
}

func menuChoices(role booking.Role) []Choice {
	out := []Choice{{Label: CmdStatus}, {Label: CmdBook}, {Label: CmdMyBookings}}
	if role == booking.RoleAdmin {
		out = append(out, Choice{Label: CmdShowUsers}, Choice{Label: CmdStartBot}, Choice{Label: CmdStopBot})
	}
	return out
}

func slotChoices(labels []string) []Choice {
	out := make([]Choice, 0, len(labels))
	for _, l := range labels {
		out = append(out, Choice{Label: l, Data: l})
	}
	return out
}

func bookingChoices(owned []string) []Choice {
	out := make([]Choice, 0, len(owned)+1)
	for _, l := range owned {
		out = append(out, Choice{Label: l})
	}
	return append(out, Choice{Label: CmdExit})
}

func actionChoices() []Choice {
	return []Choice{{Label: CmdStart}, {Label: CmdFinish}, {Label: CmdExit}}
}

func confirmChoices(slot string) []Choice {
	return []Choice{
		{Label: TokenApprove, Data: TokenApprove + " " + slot},
		{Label: TokenBack, Data: TokenBack},
	}
}

func usersText(users []string) string {
	if len(users) == 0 {
		return msgNoUsers
	}
	return msgUsersHeader + "\n" + strings.Join(users, "\n")
}

func ledgerText(entries []booking.Entry) string {
	if len(entries) == 0 {
		return msgEmptyLedger
	}
	var b strings.Builder
	b.WriteString(msgLedgerHeader)
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%s %s", e.Slot, e.Handle)
	}
	return b.String()
}

func helpText(role booking.Role) string {
	lines := []string{
		msgHelpHeader,
		CmdStatus + " - who holds the device",
		CmdBook + " - pick a free time",
		CmdMyBookings + " - manage your bookings",
		"H:MM - select a booked time, then " + CmdStart + " or " + CmdFinish,
		CmdExit + " - back to the menu",
	}
	if role == booking.RoleAdmin {
		lines = append(lines,
			CmdShowUsers+" - list users",
			CmdStartBot+" - open booking and daily resets",
			CmdStopBot+" - close booking and reset the day",
			"/ledger - current bookings",
		)
	}
	return strings.Join(lines, "\n")
}
