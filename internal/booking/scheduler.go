package booking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/rentbot/core/logger"
)

const (
	componentScheduler = "service.scheduler"

	// DefaultResetPeriod is the length of one booking epoch.
	DefaultResetPeriod = 24 * time.Hour
)

// Resetter clears the booking epoch.
type Resetter interface {
	Reset(ctx context.Context)
}

// Scheduler is the operational on/off switch. While launched it resets the
// ledger every period; while halted the service is closed to users.
type Scheduler struct {
	target Resetter
	period time.Duration

	mu       sync.Mutex
	launched bool
	stop     chan struct{}
	done     chan struct{}
}

// NewScheduler returns a halted scheduler. period <= 0 selects DefaultResetPeriod.
func NewScheduler(target Resetter, period time.Duration) *Scheduler {
	if period <= 0 {
		period = DefaultResetPeriod
	}
	return &Scheduler{target: target, period: period}
}

// Launched reports whether the service is open to users.
func (s *Scheduler) Launched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launched
}

// Launch starts the periodic reset. It returns false if already launched.
func (s *Scheduler) Launch(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launched {
		return false
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.launched = true
	go s.loop(context.WithoutCancel(ctx), s.stop, s.done)

	logger.Info(ctx, componentScheduler, "scheduler.launch",
		slog.String("status", "ok"),
		slog.Duration("period", s.period),
	)
	return true
}

// Halt cancels the periodic reset and waits for the timer goroutine to exit.
// If the scheduler was launched, one reset runs inline before Halt returns.
func (s *Scheduler) Halt(ctx context.Context) bool {
	s.mu.Lock()
	if !s.launched {
		s.mu.Unlock()
		return false
	}
	close(s.stop)
	done := s.done
	s.launched = false
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	<-done
	s.target.Reset(ctx)
	logger.Info(ctx, componentScheduler, "scheduler.halt",
		slog.String("status", "ok"),
	)
	return true
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			s.target.Reset(ctx)
			logger.Info(ctx, componentScheduler, "scheduler.tick",
				slog.String("status", "ok"),
			)
		}
	}
}
