package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/rentbot/core/logger"
)

// Entry is one committed slot.
type Entry struct {
	Slot      string    `json:"slot"`
	Owner     int64     `json:"owner_id"`
	Handle    string    `json:"owner"`
	BookingID string    `json:"booking_id"`
	BookedAt  time.Time `json:"booked_at"`
}

// AvailableSlots returns the grid minus committed slots, in grid order.
func (s *Service) AvailableSlots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels := s.table.Labels()
	out := labels[:0]
	for _, l := range labels {
		if _, taken := s.ledger[l]; !taken {
			out = append(out, l)
		}
	}
	return out
}

// Ledger returns committed slots in grid order.
func (s *Service) Ledger() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.ledger))
	for _, l := range s.table.Labels() {
		if e, ok := s.ledger[l]; ok {
			out = append(out, e)
		}
	}
	return out
}

// IsTaken reports whether label is committed.
func (s *Service) IsTaken(label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ledger[label]
	return ok
}

// Snapshot returns the booking fields of sess.
func (s *Service) Snapshot(sess *Session) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sess.snapshot()
}

// Holder returns the session that has the device in use, or nil.
func (s *Service) Holder() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.holder
}

// TryReserve commits label to sess if the quota allows it.
// The caller is responsible for checking the slot is free; Approve does both under one lock.
func (s *Service) TryReserve(ctx context.Context, sess *Session, label string) (Entry, error) {
	label, _, err := ParseLabel(label)
	if err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.ledger[label]; taken {
		return Entry{}, fmt.Errorf("%w: %s", ErrConflict, label)
	}
	return s.reserveLocked(ctx, sess, label)
}

func (s *Service) reserveLocked(ctx context.Context, sess *Session, label string) (Entry, error) {
	if len(sess.owned) >= s.maxPerDay || sess.bookings >= s.maxPerDay {
		logger.Info(ctx, componentBooking, "reserve.quota",
			slog.String("status", "fail"),
			slog.Int64("user_id", sess.ID),
			slog.String("slot", label),
			slog.Int("count", sess.bookings),
		)
		return Entry{}, fmt.Errorf("%w: %d per day", ErrQuotaExceeded, s.maxPerDay)
	}
	e := Entry{
		Slot:      label,
		Owner:     sess.ID,
		Handle:    sess.DisplayName(),
		BookingID: uuid.NewString(),
		BookedAt:  s.now(),
	}
	s.ledger[label] = e
	sess.owned[label] = struct{}{}
	sess.bookings++
	logger.Info(ctx, componentBooking, "reserve.commit",
		slog.String("status", "ok"),
		slog.Int64("user_id", sess.ID),
		slog.String("slot", label),
		slog.String("booking_id", e.BookingID),
		slog.Int("count", sess.bookings),
	)
	return e, nil
}

// releaseLocked drops label from both the owner set and the ledger.
func (s *Service) releaseLocked(sess *Session, label string) {
	delete(sess.owned, label)
	if e, ok := s.ledger[label]; ok && e.Owner == sess.ID {
		delete(s.ledger, label)
	}
}

// Reset clears the ledger and every session's counters, owned slots and in-use flag.
func (s *Service) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cleared := len(s.ledger)
	s.ledger = make(map[string]Entry)
	s.holder = nil
	sessions := s.registry.All()
	for _, sess := range sessions {
		sess.bookings = 0
		sess.owned = make(map[string]struct{})
		sess.inUse = false
		sess.activeSlot = ""
	}
	logger.Info(ctx, componentBooking, "ledger.reset",
		slog.String("status", "ok"),
		slog.Int("count", cleared),
		slog.Int("sessions", len(sessions)),
	)
}
