package booking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/rentbot/core/logger"
)

// Start marks the device in use by sess for an owned slot whose window is open.
//
// A slot can be started from its start time until one interval after it.
// Later than that the booking is expired and released.
func (s *Service) Start(ctx context.Context, sess *Session, label string) error {
	label, _, err := ParseLabel(label)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := sess.owned[label]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotBooked, label)
	}

	// A running rent is never expired under its holder.
	switch {
	case s.holder == sess:
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyInUse, sess.activeSlot)
	case s.holder != nil:
		holder := s.holder.DisplayName()
		s.mu.Unlock()
		return &BusyError{Holder: holder}
	}

	now := s.now()
	begin, err := s.table.StartOn(label, now)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	delta := begin.Sub(now)
	if delta > 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: wait until %s", ErrTooEarly, label)
	}
	if -delta > s.table.Interval() {
		s.releaseLocked(sess, label)
		s.mu.Unlock()
		logger.Info(ctx, componentBooking, "rental.expired",
			slog.String("status", "fail"),
			slog.Int64("user_id", sess.ID),
			slog.String("slot", label),
		)
		return fmt.Errorf("%w: %s", ErrExpired, label)
	}

	sess.inUse = true
	sess.activeSlot = label
	s.holder = sess
	s.mu.Unlock()

	logger.Info(ctx, componentBooking, "rental.start",
		slog.String("status", "ok"),
		slog.Int64("user_id", sess.ID),
		slog.String("slot", label),
	)
	s.broadcast.NotifyAll(ctx, fmt.Sprintf("Rent started! Time: %s User: %s", label, sess.DisplayName()))
	return nil
}

// Finish ends the rent of sess and frees label from the ledger. label must be
// the slot the rent was started for.
func (s *Service) Finish(ctx context.Context, sess *Session, label string) error {
	label, _, err := ParseLabel(label)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !sess.inUse {
		s.mu.Unlock()
		return ErrNotInUse
	}
	if _, ok := sess.owned[label]; !ok || label != sess.activeSlot {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotOwned, label)
	}
	sess.inUse = false
	sess.activeSlot = ""
	if s.holder == sess {
		s.holder = nil
	}
	s.releaseLocked(sess, label)
	s.mu.Unlock()

	logger.Info(ctx, componentBooking, "rental.finish",
		slog.String("status", "ok"),
		slog.Int64("user_id", sess.ID),
		slog.String("slot", label),
	)
	s.broadcast.NotifyAll(ctx, fmt.Sprintf("Rent finished! Time: %s User: %s", label, sess.DisplayName()))
	return nil
}
