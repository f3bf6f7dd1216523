// Package booking owns the shared state of the device rental: the slot grid,
// sessions, the ledger of committed slots and the device in-use flag.
//
// Every mutation of the ledger, of session booking fields and of the in-use
// flag happens under Service.mu, so the cross-session invariants hold at
// every observable point:
//
//   - a slot is in the ledger iff exactly one session owns it;
//   - no session owns more than MaxPerDay slots;
//   - at most one session has the device in use.
package booking

import (
	"fmt"
	"sync"
	"time"
)

const componentBooking = "service.booking"

// Config holds booking rules.
type Config struct {
	Slots     SlotConfig
	MaxPerDay int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for slot window checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service is the booking ledger together with the approval workflow and rental lifecycle.
type Service struct {
	mu     sync.RWMutex
	ledger map[string]Entry
	holder *Session

	table     *SlotTable
	maxPerDay int
	registry  *Registry
	broadcast *Broadcaster
	now       func() time.Time
}

// NewService validates cfg and builds an empty ledger.
func NewService(cfg Config, reg *Registry, b *Broadcaster, opts ...Option) (*Service, error) {
	if reg == nil {
		return nil, fmt.Errorf("booking: nil registry")
	}
	if cfg.MaxPerDay <= 0 {
		return nil, fmt.Errorf("booking: max bookings per day must be > 0")
	}
	table, err := NewSlotTable(cfg.Slots)
	if err != nil {
		return nil, fmt.Errorf("booking: %w", err)
	}
	s := &Service{
		ledger:    make(map[string]Entry),
		table:     table,
		maxPerDay: cfg.MaxPerDay,
		registry:  reg,
		broadcast: b,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Table returns the slot grid.
func (s *Service) Table() *SlotTable {
	return s.table
}

// MaxPerDay returns the per-user daily quota.
func (s *Service) MaxPerDay() int {
	return s.maxPerDay
}

// Registry returns the session registry the service operates on.
func (s *Service) Registry() *Registry {
	return s.registry
}
