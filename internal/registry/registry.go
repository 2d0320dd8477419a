// Package registry tracks the searches clients asked to observe. One
// Registry is built at startup and shared by the HTTP handlers and the
// refresh scheduler.
package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"travel-search/internal/domain/search"
)

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*search.ActiveSearch

	idleTimeout time.Duration
	now         func() time.Time
}

type Option func(*Registry)

// WithIdleTimeout enables eviction of entries nobody has looked at for d.
// Zero disables eviction.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) { r.idleTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*search.ActiveSearch),
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register inserts or overwrites the entry for id. The id and params are
// copied; callers may pass strings backed by request buffers.
func (r *Registry) Register(id string, t search.Type, params search.Params) {
	id = strings.Clone(id)
	now := r.now().UTC()
	entry := &search.ActiveSearch{
		ID:          id,
		Type:        t,
		Params:      params.Clone(),
		CreatedAt:   now,
		LastRefresh: now,
		LastAccess:  now,
		Results:     []search.Item{},
	}

	r.mu.Lock()
	r.entries[id] = entry
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (search.ActiveSearch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return search.ActiveSearch{}, false
	}
	return snapshot(e), true
}

// Unregister removes id and reports whether it was present.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok
}

// List returns copies of every entry ordered by creation time.
func (r *Registry) List() []search.ActiveSearch {
	r.mu.RLock()
	out := make([]search.ActiveSearch, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, snapshot(e))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// UpdateResults replaces the results of an existing entry. It reports
// false, and changes nothing, when id was unregistered in the meantime.
func (r *Registry) UpdateResults(id string, results []search.Item, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	// Mutate in place: writing r.entries[id] would replace the stored key
	// with the caller's string.
	e.Results = append([]search.Item(nil), results...)
	e.LastRefresh = at.UTC()
	return true
}

// Touch marks id as observed so idle eviction keeps it.
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.LastAccess = r.now().UTC()
	return true
}

// EvictIdle removes entries whose last access is older than the idle
// timeout and returns their ids.
func (r *Registry) EvictIdle() []string {
	if r.idleTimeout <= 0 {
		return nil
	}
	cutoff := r.now().UTC().Add(-r.idleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []string
	for id, e := range r.entries {
		if e.LastAccess.Before(cutoff) {
			delete(r.entries, id)
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}

func snapshot(e *search.ActiveSearch) search.ActiveSearch {
	out := *e
	out.Params = e.Params.Clone()
	out.Results = append([]search.Item(nil), e.Results...)
	if out.Results == nil {
		out.Results = []search.Item{}
	}
	return out
}
