package websession

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNoSession = errors.New("websession: no such session")

type entry[V any] struct {
	value    V
	lastSeen time.Time
}

// Registry keeps one value per browser session in memory.
type Registry[V any] struct {
	newValue func() V
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[V]
}

func NewRegistry[V any](newValue func() V) *Registry[V] {
	return &Registry[V]{
		newValue: newValue,
		now:      time.Now,
		entries:  make(map[string]*entry[V]),
	}
}

// Create starts a new session and returns its id.
func (r *Registry[V]) Create() (string, V) {
	v := r.newValue()
	return r.Adopt(v), v
}

// Adopt stores v under a new session id.
func (r *Registry[V]) Adopt(v V) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.entries[id] = &entry[V]{value: v, lastSeen: r.now()}
	r.mu.Unlock()
	return id
}

// Ephemeral builds a value that is not stored; it lives for one request
// unless passed to Adopt.
func (r *Registry[V]) Ephemeral() V {
	return r.newValue()
}

// Get returns the session value and marks it as used.
func (r *Registry[V]) Get(id string) (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		var zero V
		return zero, ErrNoSession
	}
	e.lastSeen = r.now()
	return e.value, nil
}

func (r *Registry[V]) Delete(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

func (r *Registry[V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops sessions unused for longer than idle and returns how many
// were removed.
func (r *Registry[V]) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Registry[V]) Run(ctx context.Context, interval, idle time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				logger.Info("expired dashboard sessions", "count", n, "active", r.Len())
			}
		}
	}
}
