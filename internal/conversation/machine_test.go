package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/rentbot/internal/booking"
)

const (
	adminID  = 1
	greeting = "Rules: be nice."
)

type inbox struct {
	mu   sync.Mutex
	sent map[int64][]string
}

func (b *inbox) Notify(_ context.Context, id int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent[id] = append(b.sent[id], text)
	return nil
}

func (b *inbox) last(id int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.sent[id]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

type harness struct {
	m     *Machine
	svc   *booking.Service
	sched *booking.Scheduler
	inbox *inbox
	now   time.Time
	mu    sync.Mutex
}

func newHarness(t *testing.T, maxPerDay int) *harness {
	t.Helper()
	h := &harness{
		inbox: &inbox{sent: make(map[int64][]string)},
		now:   time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC),
	}
	reg := booking.NewRegistry(nil, booking.AdminList{IDs: []int64{adminID}})
	svc, err := booking.NewService(booking.Config{
		Slots:     booking.SlotConfig{Interval: time.Hour, Earliest: "9:00", Latest: "18:00"},
		MaxPerDay: maxPerDay,
	}, reg, booking.NewBroadcaster(reg, h.inbox), booking.WithClock(h.clock))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	h.svc = svc
	h.sched = booking.NewScheduler(svc, time.Hour)
	h.m = New(svc, h.sched, greeting)
	t.Cleanup(func() { h.sched.Halt(context.Background()) })
	return h
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *harness) at(hour, min int) {
	h.mu.Lock()
	h.now = time.Date(2024, 5, 10, hour, min, 0, 0, time.UTC)
	h.mu.Unlock()
}

func (h *harness) say(t *testing.T, id int64, text string) []Outbound {
	t.Helper()
	return h.m.Handle(context.Background(), Event{SenderID: id, Handle: fmt.Sprintf("u%d", id), Text: text})
}

func (h *harness) click(t *testing.T, id int64, token string) []Outbound {
	t.Helper()
	return h.m.Handle(context.Background(), Event{SenderID: id, Handle: fmt.Sprintf("u%d", id), Callback: token})
}

func (h *harness) onboard(t *testing.T, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		h.say(t, id, "/hello")
		out := h.say(t, id, CmdAccept)
		if len(out) != 1 || len(out[0].Choices) < 3 {
			t.Fatalf("onboard %d: %+v", id, out)
		}
	}
}

func (h *harness) launch(t *testing.T) {
	t.Helper()
	if got := text(h.say(t, adminID, CmdStartBot)); got != msgLaunched {
		t.Fatalf("launch reply = %q", got)
	}
}

func text(out []Outbound) string {
	if len(out) == 0 {
		return ""
	}
	return out[len(out)-1].Text
}

func labels(cs []Choice) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Label)
	}
	return out
}

func TestOnboarding(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	out := h.say(t, 5, "status")
	if len(out) != 1 || out[0].Text != greeting || out[0].RecipientID != 5 {
		t.Fatalf("first event = %+v, want greeting", out)
	}
	if got := labels(out[0].Choices); len(got) != 1 || got[0] != CmdAccept {
		t.Fatalf("greeting choices = %v", got)
	}
	if got := text(h.say(t, 5, "status")); got != msgAcceptRules {
		t.Fatalf("before accept = %q", got)
	}
	if got := text(h.say(t, 5, CmdAccept)); got != msgWelcomeNew {
		t.Fatalf("accept = %q", got)
	}

	// No handle: wait for one.
	h.m.Handle(ctx, Event{SenderID: 6, Text: "hi"})
	if got := text(h.m.Handle(ctx, Event{SenderID: 6, Text: CmdAccept})); got != msgAskHandle {
		t.Fatalf("accept without handle = %q", got)
	}
	if got := text(h.m.Handle(ctx, Event{SenderID: 6, Text: "hi"})); got != msgAskHandle {
		t.Fatalf("still no handle = %q", got)
	}
	if got := text(h.m.Handle(ctx, Event{SenderID: 6, Handle: "late", Text: "hi"})); got != msgWelcomeNew {
		t.Fatalf("handle appeared = %q", got)
	}

	h.say(t, adminID, "x")
	out = h.say(t, adminID, CmdAccept)
	if text(out) != msgWelcomeAdmin || len(out[0].Choices) != 6 {
		t.Fatalf("admin welcome = %+v", out)
	}
}

func TestHaltedServiceGatesUsersOnly(t *testing.T) {
	h := newHarness(t, 2)
	h.onboard(t, adminID, 2)

	if got := text(h.say(t, 2, CmdStatus)); got != msgUnavailable {
		t.Fatalf("user status while halted = %q", got)
	}
	if got := text(h.click(t, 2, "9:00")); got != msgUnavailable {
		t.Fatalf("user callback while halted = %q", got)
	}
	if got := text(h.say(t, adminID, CmdStatus)); got != msgAvailable {
		t.Fatalf("admin status while halted = %q", got)
	}
	h.launch(t)
	if got := text(h.say(t, 2, CmdStatus)); got != msgAvailable {
		t.Fatalf("user status after launch = %q", got)
	}
}

func TestBookStartFinishScenario(t *testing.T) {
	h := newHarness(t, 2)
	h.onboard(t, adminID, 2)
	h.launch(t)

	out := h.say(t, 2, CmdBook)
	if len(out) != 2 {
		t.Fatalf("book replies = %d, want slot list and menu", len(out))
	}
	if out[0].Text != msgAvailableList || len(out[0].Choices) != 10 || !out[0].Choices[1].Inline() {
		t.Fatalf("slot list = %+v", out[0])
	}

	out = h.click(t, 2, "10:00")
	if text(out) != "Book at 10:00?" {
		t.Fatalf("propose = %+v", out)
	}
	if c := out[0].Choices; len(c) != 2 || c[0].Data != "approve 10:00" || c[1].Data != TokenBack {
		t.Fatalf("confirm choices = %+v", c)
	}
	if got := text(h.click(t, 2, "approve 10:00")); got != msgBooked {
		t.Fatalf("approve = %q", got)
	}
	if got := h.inbox.last(adminID); got != "New book! Time: 10:00 User: @u2" {
		t.Fatalf("admin notification = %q", got)
	}

	out = h.say(t, 2, CmdMyBookings)
	if got := labels(out[0].Choices); len(got) != 2 || got[0] != "10:00" || got[1] != CmdExit {
		t.Fatalf("my bookings = %v", got)
	}

	h.say(t, 2, "10:00")
	if got := text(h.say(t, 2, CmdStart)); got != fmt.Sprintf(msgTooEarlyF, "10:00") {
		t.Fatalf("early start = %q", got)
	}

	h.at(10, 0)
	h.say(t, 2, "10:00")
	if got := text(h.say(t, 2, CmdStart)); got != msgStarted {
		t.Fatalf("start = %q", got)
	}
	if got := text(h.say(t, adminID, CmdStatus)); got != fmt.Sprintf(msgBusyF, "@u2") {
		t.Fatalf("status while in use = %q", got)
	}

	h.say(t, 2, "10:00")
	if got := text(h.say(t, 2, CmdFinish)); got != msgFinished {
		t.Fatalf("finish = %q", got)
	}
	if n := len(h.svc.Ledger()); n != 0 {
		t.Fatalf("ledger size = %d after finish", n)
	}
	if h.svc.Holder() != nil {
		t.Fatal("device still held after finish")
	}
}

func TestApproveRaceBetweenSessions(t *testing.T) {
	h := newHarness(t, 2)
	h.onboard(t, adminID, 2, 3)
	h.launch(t)

	h.click(t, 2, "11:00")
	h.click(t, 3, "11:00")
	if got := text(h.click(t, 2, "approve 11:00")); got != msgBooked {
		t.Fatalf("first approve = %q", got)
	}
	if got := text(h.click(t, 3, "approve 11:00")); got != msgStolen {
		t.Fatalf("second approve = %q", got)
	}
	ledger := h.svc.Ledger()
	if len(ledger) != 1 || ledger[0].Owner != 2 {
		t.Fatalf("ledger = %+v", ledger)
	}
	if got := text(h.click(t, 3, "11:00")); got != msgStolen {
		t.Fatalf("propose taken slot = %q", got)
	}
}

func TestQuotaMessage(t *testing.T) {
	h := newHarness(t, 1)
	h.onboard(t, adminID, 2)
	h.launch(t)

	h.click(t, 2, "9:00")
	h.click(t, 2, "approve 9:00")
	h.click(t, 2, "12:00")
	if got := text(h.click(t, 2, "approve 12:00")); got != fmt.Sprintf(msgQuotaF, 1) {
		t.Fatalf("quota reply = %q", got)
	}
	if h.svc.IsTaken("12:00") {
		t.Fatal("slot committed past quota")
	}
}

func TestBackAndStaleCallbacks(t *testing.T) {
	h := newHarness(t, 2)
	h.onboard(t, adminID, 2)
	h.launch(t)

	h.click(t, 2, "13:00")
	if got := text(h.click(t, 2, TokenBack)); got != msgAvailableList {
		t.Fatalf("back = %q", got)
	}
	if got := text(h.click(t, 2, "approve 13:00")); got != msgBadRequest {
		t.Fatalf("stale approve = %q", got)
	}
	if h.svc.IsTaken("13:00") {
		t.Fatal("stale approve committed a slot")
	}
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t, 2)
	h.onboard(t, adminID, 2, 3)
	h.launch(t)

	if got := text(h.say(t, 2, CmdShowUsers)); got != msgForbidden {
		t.Fatalf("user show users = %q", got)
	}
	got := text(h.say(t, adminID, CmdShowUsers))
	if !strings.HasPrefix(got, msgUsersHeader) || !strings.Contains(got, "@u2") || strings.Contains(got, "@u1") {
		t.Fatalf("show users = %q", got)
	}
	if got := text(h.say(t, adminID, CmdStartBot)); got != msgAlreadyLaunch {
		t.Fatalf("second launch = %q", got)
	}

	h.click(t, 2, "15:00")
	h.click(t, 2, "approve 15:00")

	ctx := context.Background()
	if got := text(h.m.LedgerReport(ctx, Event{SenderID: 2, Handle: "u2"})); got != msgForbidden {
		t.Fatalf("user ledger = %q", got)
	}
	if got := text(h.m.LedgerReport(ctx, Event{SenderID: adminID, Handle: "u1"})); got != msgLedgerHeader+"\n15:00 @u2" {
		t.Fatalf("ledger report = %q", got)
	}

	if got := text(h.say(t, adminID, CmdStopBot)); got != msgHalted {
		t.Fatalf("stop bot = %q", got)
	}
	if n := len(h.svc.Ledger()); n != 0 {
		t.Fatalf("ledger size = %d after stop", n)
	}
	if got := text(h.say(t, 2, CmdBook)); got != msgUnavailable {
		t.Fatalf("user after stop = %q", got)
	}
}

func TestRestartAndHelp(t *testing.T) {
	h := newHarness(t, 2)
	h.onboard(t, 2)
	ctx := context.Background()

	if got := text(h.m.Restart(ctx, Event{SenderID: 2, Handle: "u2"})); got != greeting {
		t.Fatalf("restart = %q", got)
	}
	if got := text(h.say(t, 2, CmdStatus)); got != msgAcceptRules {
		t.Fatalf("after restart = %q", got)
	}
	if got := text(h.m.Help(ctx, Event{SenderID: 2})); strings.Contains(got, CmdStopBot) {
		t.Fatalf("user help lists admin commands: %q", got)
	}
	if got := text(h.m.Help(ctx, Event{SenderID: adminID})); !strings.Contains(got, "/ledger") {
		t.Fatalf("admin help = %q", got)
	}
	if out := h.m.Handle(ctx, Event{}); out != nil {
		t.Fatalf("anonymous event answered: %+v", out)
	}
}
