// Package ops serves a read-only HTTP view of the booking state for operators.
package ops

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/rentbot/core/logger"
	"github.com/m3rciful/rentbot/internal/booking"
)

const componentOps = "ops"

// Booking is the read side of the booking service.
type Booking interface {
	AvailableSlots() []string
	Ledger() []booking.Entry
	Holder() *booking.Session
	MaxPerDay() int
}

// Switch reports whether the service is open to users.
type Switch interface {
	Launched() bool
}

// UserLister lists identities remembered by the user store.
type UserLister interface {
	List(ctx context.Context) ([]booking.User, error)
}

// Deps are the services behind the ops routes. Users may be nil.
type Deps struct {
	Booking Booking
	Switch  Switch
	Users   UserLister
}

type handler struct {
	deps Deps
}

// NewRouter wires the ops routes.
func NewRouter(deps Deps) http.Handler {
	h := &handler{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Route("/api", func(api chi.Router) {
		api.Get("/status", h.status)
		api.Get("/slots", h.slots)
		api.Get("/ledger", h.ledger)
		api.Get("/users", h.users)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug(r.Context(), componentOps, "http.request",
			slog.String("rid", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status_code", ww.Status()),
			slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
		)
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Launched  bool   `json:"launched"`
	InUse     bool   `json:"in_use"`
	Holder    string `json:"holder,omitempty"`
	Free      int    `json:"free_slots"`
	Booked    int    `json:"booked_slots"`
	MaxPerDay int    `json:"max_per_day"`
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Free:      len(h.deps.Booking.AvailableSlots()),
		Booked:    len(h.deps.Booking.Ledger()),
		MaxPerDay: h.deps.Booking.MaxPerDay(),
	}
	if h.deps.Switch != nil {
		resp.Launched = h.deps.Switch.Launched()
	}
	if holder := h.deps.Booking.Holder(); holder != nil {
		resp.InUse = true
		resp.Holder = holder.DisplayName()
	}
	respondJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *handler) slots(w http.ResponseWriter, r *http.Request) {
	free := h.deps.Booking.AvailableSlots()
	if free == nil {
		free = []string{}
	}
	respondJSON(r.Context(), w, http.StatusOK, map[string][]string{"available": free})
}

func (h *handler) ledger(w http.ResponseWriter, r *http.Request) {
	entries := h.deps.Booking.Ledger()
	if entries == nil {
		entries = []booking.Entry{}
	}
	respondJSON(r.Context(), w, http.StatusOK, map[string][]booking.Entry{"bookings": entries})
}

func (h *handler) users(w http.ResponseWriter, r *http.Request) {
	if h.deps.Users == nil {
		respondError(r.Context(), w, http.StatusServiceUnavailable, "user store unavailable")
		return
	}
	list, err := h.deps.Users.List(r.Context())
	if err != nil {
		logger.Error(r.Context(), componentOps, "users.list.fail", slog.String("err", err.Error()))
		respondError(r.Context(), w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if list == nil {
		list = []booking.User{}
	}
	respondJSON(r.Context(), w, http.StatusOK, map[string][]booking.User{"users": list})
}
