package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taldoflemis/cassa/cart"
	"github.com/taldoflemis/cassa/domain"
)

type sessionEntry struct {
	session  *cart.Session
	lastUsed time.Time
}

// SessionRegistry keeps the carts opened through the gateway. Sessions that
// stay idle longer than the timeout are dropped by Sweep.
type SessionRegistry struct {
	api         cart.OrderingAPI
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func NewSessionRegistry(api cart.OrderingAPI, idleTimeout time.Duration) *SessionRegistry {
	return &SessionRegistry{
		api:         api,
		idleTimeout: idleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*sessionEntry),
	}
}

func (r *SessionRegistry) Create(info domain.OrderInfo) (string, *cart.Session) {
	id := uuid.NewString()
	s := cart.NewSession(r.api, info)

	r.mu.Lock()
	r.sessions[id] = &sessionEntry{session: s, lastUsed: r.now()}
	r.mu.Unlock()
	return id, s
}

func (r *SessionRegistry) Get(id string) (*cart.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.session, true
}

func (r *SessionRegistry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops idle sessions and returns how many were removed.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.idleTimeout)
	removed := 0
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *SessionRegistry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				slog.InfoContext(ctx, "dropped idle carts", slog.Int("count", n), slog.Int("open", r.Len()))
			}
		}
	}
}
