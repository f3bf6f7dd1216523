package booking

import (
	"sort"
	"strconv"
	"sync"
)

// Role distinguishes admins from regular users.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// State identifies a conversation step.
type State string

const (
	StateAwaitingAcceptance       State = "awaiting_acceptance"
	StateAwaitingIdentity         State = "awaiting_identity"
	StateIdle                     State = "idle"
	StateAwaitingTimeEntry        State = "awaiting_time_entry"
	StateAwaitingApprovalDecision State = "awaiting_approval_decision"
)

// Dialog is the per-session conversation position.
type Dialog struct {
	State State
	// Slot is the time carried by StateAwaitingTimeEntry and StateAwaitingApprovalDecision.
	Slot string
}

// Session is one chat identity known to the process. Sessions are never evicted.
type Session struct {
	ID int64

	dialogMu sync.Mutex
	dialog   Dialog

	metaMu sync.RWMutex
	handle string
	role   Role
	known  bool
	online bool

	// guarded by Service.mu
	bookings   int
	owned      map[string]struct{}
	inUse      bool
	activeSlot string
}

func newSession(id int64, handle string, role Role) *Session {
	return &Session{
		ID:     id,
		handle: handle,
		role:   role,
		dialog: Dialog{State: StateAwaitingAcceptance},
		owned:  make(map[string]struct{}),
	}
}

// Dialog locks the conversation of s and returns it with the unlock func.
// Events of one session are handled one at a time.
func (s *Session) Dialog() (*Dialog, func()) {
	s.dialogMu.Lock()
	return &s.dialog, s.dialogMu.Unlock
}

// Handle returns the "@username" of the session, empty when the user has none.
func (s *Session) Handle() string {
	s.metaMu.RLock()
	defer s.metaMu.RUnlock()
	return s.handle
}

// DisplayName returns the handle or a numeric fallback for logs and admin lists.
func (s *Session) DisplayName() string {
	if h := s.Handle(); h != "" {
		return h
	}
	return "id:" + strconv.FormatInt(s.ID, 10)
}

// Role returns the session role.
func (s *Session) Role() Role {
	s.metaMu.RLock()
	defer s.metaMu.RUnlock()
	return s.role
}

// IsAdmin reports whether the session has the admin role.
func (s *Session) IsAdmin() bool {
	return s.Role() == RoleAdmin
}

// Known reports whether the user store had a record before this process saw the user.
func (s *Session) Known() bool {
	s.metaMu.RLock()
	defer s.metaMu.RUnlock()
	return s.known
}

// Online reports whether the admin finished onboarding and receives broadcasts.
func (s *Session) Online() bool {
	s.metaMu.RLock()
	defer s.metaMu.RUnlock()
	return s.online
}

// SetOnline toggles broadcast delivery. It has no effect on access control.
func (s *Session) SetOnline(v bool) {
	s.metaMu.Lock()
	s.online = v
	s.metaMu.Unlock()
}

// Snapshot is a read-only copy of the booking fields of a session.
type Snapshot struct {
	ID         int64
	Handle     string
	Role       Role
	Bookings   int
	Owned      []string
	InUse      bool
	ActiveSlot string
}

// snapshot must be called with Service.mu held.
func (s *Session) snapshot() Snapshot {
	owned := make([]string, 0, len(s.owned))
	for slot := range s.owned {
		owned = append(owned, slot)
	}
	sort.Slice(owned, func(i, j int) bool { return slotLess(owned[i], owned[j]) })
	return Snapshot{
		ID:         s.ID,
		Handle:     s.Handle(),
		Role:       s.Role(),
		Bookings:   s.bookings,
		Owned:      owned,
		InUse:      s.inUse,
		ActiveSlot: s.activeSlot,
	}
}

func slotLess(a, b string) bool {
	_, oa, errA := ParseLabel(a)
	_, ob, errB := ParseLabel(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return oa < ob
}
