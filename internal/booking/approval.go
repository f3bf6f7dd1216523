package booking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/rentbot/core/logger"
)

// Propose checks that label is a free slot on the grid and returns its canonical form.
// It reserves nothing; the answer may be stale by the time Approve runs.
func (s *Service) Propose(ctx context.Context, sess *Session, label string) (string, error) {
	label, _, err := ParseLabel(label)
	if err != nil {
		return "", err
	}
	if !s.table.Contains(label) {
		return "", fmt.Errorf("%w: %s is not on the grid", ErrValidation, label)
	}
	if s.IsTaken(label) {
		return "", fmt.Errorf("%w: %s", ErrConflict, label)
	}
	logger.Debug(ctx, componentBooking, "approval.propose",
		slog.String("status", "ok"),
		slog.Int64("user_id", sess.ID),
		slog.String("slot", label),
	)
	return label, nil
}

// Approve commits a proposed slot. Availability is re-read under the write lock,
// so of two sessions approving the same slot only the first succeeds.
// Admins are notified after the lock is released.
func (s *Service) Approve(ctx context.Context, sess *Session, label string) (Entry, error) {
	label, _, err := ParseLabel(label)
	if err != nil {
		return Entry{}, err
	}
	if !s.table.Contains(label) {
		return Entry{}, fmt.Errorf("%w: %s is not on the grid", ErrValidation, label)
	}

	s.mu.Lock()
	if owner, taken := s.ledger[label]; taken {
		s.mu.Unlock()
		logger.Info(ctx, componentBooking, "approval.conflict",
			slog.String("status", "fail"),
			slog.Int64("user_id", sess.ID),
			slog.Int64("owner_id", owner.Owner),
			slog.String("slot", label),
		)
		return Entry{}, fmt.Errorf("%w: %s", ErrConflict, label)
	}
	entry, err := s.reserveLocked(ctx, sess, label)
	s.mu.Unlock()
	if err != nil {
		return Entry{}, err
	}

	s.broadcast.NotifyAll(ctx, fmt.Sprintf("New book! Time: %s User: %s", label, entry.Handle))
	return entry, nil
}
