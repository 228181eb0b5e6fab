// Package modals keeps the registration modals that are currently open.
//
// A modal is identified by an opaque token rendered into the form. Submits
// look the modal up by token, so a modal closed while its request is still
// in flight no longer receives the outcome, and two submits from the same
// modal share one metroline.Registration (and therefore its saving guard).
package modals

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suashub/suashub/internal/app/system/metroline"
)

// Entry is one open modal.
type Entry struct {
	Token    string
	Scope    string // what the modal belongs to, e.g. "caso:12" or "triagem:<id>"
	Owner    string // user id that opened it
	Reg      *metroline.Registration
	OpenedAt time.Time
	seenAt   time.Time
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewRegistry creates a registry whose entries expire after ttl without
// activity.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Open stores reg and returns its token.
func (r *Registry) Open(scope, owner string, reg *metroline.Registration) string {
	now := r.now()
	tok := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[tok] = &Entry{
		Token:    tok,
		Scope:    scope,
		Owner:    owner,
		Reg:      reg,
		OpenedAt: now,
		seenAt:   now,
	}
	return tok
}

// Get returns the entry for token if it exists, belongs to scope and owner,
// and has not expired. A hit refreshes the expiry.
func (r *Registry) Get(token, scope, owner string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[token]
	if !ok || e.Scope != scope || e.Owner != owner {
		return nil, false
	}
	now := r.now()
	if r.expired(e, now) {
		delete(r.entries, token)
		e.Reg.Close()
		return nil, false
	}
	e.seenAt = now
	return e, true
}

// Close removes the modal and tears its registration down.
func (r *Registry) Close(token string) {
	r.mu.Lock()
	e, ok := r.entries[token]
	delete(r.entries, token)
	r.mu.Unlock()
	if ok {
		e.Reg.Close()
	}
}

// Len reports the number of open modals.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops expired entries and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()
	var stale []*Entry

	r.mu.Lock()
	for tok, e := range r.entries {
		if r.expired(e, now) {
			stale = append(stale, e)
			delete(r.entries, tok)
		}
	}
	r.mu.Unlock()

	for _, e := range stale {
		e.Reg.Close()
	}
	return len(stale)
}

func (r *Registry) expired(e *Entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.seenAt) > r.ttl
}
