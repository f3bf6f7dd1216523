// Package memory provides a process-local user store for running without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/rentbot/internal/booking"
)

// UserStore implements booking.UserStore in memory. Records are lost on restart.
type UserStore struct {
	mu    sync.RWMutex
	users map[int64]booking.User
	now   func() time.Time
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]booking.User), now: time.Now}
}

func (s *UserStore) Lookup(_ context.Context, id int64) (booking.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *UserStore) Persist(_ context.Context, id int64, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		u = booking.User{ID: id, CreatedAt: s.now().UTC()}
	}
	u.Handle = handle
	s.users[id] = u
	return nil
}

// List returns all users, oldest first.
func (s *UserStore) List(_ context.Context) ([]booking.User, error) {
	s.mu.RLock()
	out := make([]booking.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
