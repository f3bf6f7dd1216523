package booking

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/rentbot/core/logger"
)

const (
	componentSessions = "service.sessions"

	// defaultStoreTimeout bounds one Lookup or Persist call.
	defaultStoreTimeout = 3 * time.Second
)

// User is the persisted record of a chat identity.
type User struct {
	ID        int64     `db:"telegram_id" json:"id"`
	Handle    string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserStore remembers identities across restarts.
type UserStore interface {
	Lookup(ctx context.Context, id int64) (User, bool, error)
	Persist(ctx context.Context, id int64, handle string) error
}

// AdminList is the configured admin allow-list.
type AdminList struct {
	IDs     []int64
	Handles []string
}

func (a AdminList) match(id int64, handle string) bool {
	for _, v := range a.IDs {
		if v == id {
			return true
		}
	}
	if handle == "" {
		return false
	}
	for _, h := range a.Handles {
		if strings.EqualFold(NormalizeHandle(h), handle) {
			return true
		}
	}
	return false
}

// NormalizeHandle returns "@name" for "name" or "@name"; blank input stays blank.
func NormalizeHandle(h string) string {
	h = strings.TrimSpace(h)
	if h == "" || h == "@" {
		return ""
	}
	if !strings.HasPrefix(h, "@") {
		h = "@" + h
	}
	return h
}

// Registry maps chat identities to sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	store    UserStore
	admins   AdminList

	storeTimeout time.Duration
}

// NewRegistry builds an empty registry. store may be nil.
func NewRegistry(store UserStore, admins AdminList) *Registry {
	return &Registry{
		sessions:     make(map[int64]*Session),
		store:        store,
		admins:       admins,
		storeTimeout: defaultStoreTimeout,
	}
}

// Resolve returns the session for id, creating it on first contact.
// created is true only for the call that created the session.
// The session is inserted under the registry lock so concurrent first events
// share one session; the user store is consulted after the lock is released.
func (r *Registry) Resolve(ctx context.Context, id int64, handle string) (sess *Session, created bool) {
	handle = NormalizeHandle(handle)

	r.mu.Lock()
	if existing, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return existing, false
	}
	role := RoleUser
	if r.admins.match(id, handle) {
		role = RoleAdmin
	}
	sess = newSession(id, handle, role)
	r.sessions[id] = sess
	r.mu.Unlock()

	if role == RoleUser {
		r.remember(ctx, sess)
	}
	logger.Info(ctx, componentSessions, "session.created",
		slog.Int64("user_id", id),
		slog.String("username", handle),
		slog.String("role", string(role)),
		slog.Bool("known", sess.Known()),
	)
	return sess, true
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(id int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// UpdateHandle records a handle that became available after creation.
// It returns true when the session gained a handle it did not have.
func (r *Registry) UpdateHandle(ctx context.Context, sess *Session, handle string) bool {
	handle = NormalizeHandle(handle)
	if sess == nil || handle == "" {
		return false
	}

	sess.metaMu.Lock()
	if sess.handle == handle {
		sess.metaMu.Unlock()
		return false
	}
	gained := sess.handle == ""
	sess.handle = handle
	if sess.role == RoleUser && r.admins.match(sess.ID, handle) {
		sess.role = RoleAdmin
	}
	role := sess.role
	sess.metaMu.Unlock()

	if role == RoleUser {
		r.remember(ctx, sess)
	}
	return gained
}

// remember consults the store and persists unseen users. Store errors are
// logged only. It must not be called with r.mu held.
func (r *Registry) remember(ctx context.Context, sess *Session) {
	if r.store == nil {
		return
	}
	handle := sess.Handle()
	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	_, found, err := r.store.Lookup(ctx, sess.ID)
	if err != nil {
		logger.Warn(ctx, componentSessions, "store.lookup",
			slog.String("status", "fail"),
			slog.Int64("user_id", sess.ID),
			slog.String("err", err.Error()),
		)
		return
	}
	if found {
		sess.metaMu.Lock()
		sess.known = true
		sess.metaMu.Unlock()
		return
	}
	if handle == "" {
		return
	}
	if err := r.store.Persist(ctx, sess.ID, handle); err != nil {
		logger.Warn(ctx, componentSessions, "store.persist",
			slog.String("status", "fail"),
			slog.Int64("user_id", sess.ID),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(ctx, componentSessions, "store.persist",
		slog.String("status", "ok"),
		slog.Int64("user_id", sess.ID),
		slog.String("username", handle),
	)
}

// All returns every session ordered by id.
func (r *Registry) All() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OnlineAdmins returns admin sessions that receive broadcasts.
func (r *Registry) OnlineAdmins() []*Session {
	var out []*Session
	for _, s := range r.All() {
		if s.IsAdmin() && s.Online() {
			out = append(out, s)
		}
	}
	return out
}
