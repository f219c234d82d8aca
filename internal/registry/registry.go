// Package registry keeps one sequent.Session per client session and closes
// sessions that sit idle.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/zoobzio/capitan"

	"github.com/zoobzio/sequent"
)

// StdioKey is used for transports that carry no session id. A stdio
// process serves exactly one client, so its session never expires.
const StdioKey = "stdio"

// ErrSessionExpired is returned for a session id whose session was closed
// after sitting idle. The client must open a new transport session.
var ErrSessionExpired = errors.New("session expired after being idle")

// issuedTTL bounds how long an expired id is remembered.
const issuedTTL = 24 * time.Hour

// Eviction reasons carried on SessionEvicted.
const (
	ReasonIdle     = "idle"
	ReasonReleased = "released"
)

// Factory builds a session for a new session id.
type Factory func(ctx context.Context, id string) *sequent.Session

// Registry maps session ids to live sessions.
type Registry struct {
	cache   *cache.Cache
	issued  *cache.Cache // ids handed out and not released
	factory Factory

	mu       sync.Mutex
	released map[string]bool
}

// New creates a registry whose sessions expire after idle time without a
// lookup. Expired sessions are closed and their ids are refused from then
// on. The stdio session is exempt.
func New(idle time.Duration, factory Factory) *Registry {
	cleanup := idle / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	r := &Registry{
		cache:    cache.New(idle, cleanup),
		issued:   cache.New(issuedTTL, time.Hour),
		factory:  factory,
		released: make(map[string]bool),
	}
	r.cache.OnEvicted(r.evicted)
	return r
}

// Key normalizes a transport session id.
func Key(id string) string {
	if id == "" {
		return StdioKey
	}
	return id
}

// Session returns the session for id, creating it on first use. Every
// lookup pushes the idle deadline back. The second result reports whether
// the session was created by this call.
//
// An id whose session expired is not given a fresh ledger; Session returns
// ErrSessionExpired instead.
func (r *Registry) Session(ctx context.Context, id string) (*sequent.Session, bool, error) {
	key := Key(id)

	r.mu.Lock()
	s, ok := r.refresh(key)
	r.mu.Unlock()
	if ok {
		return s, false, nil
	}

	// An expired entry awaiting cleanup is closed before the id is refused.
	r.Sweep()

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.refresh(key); ok {
		return s, false, nil
	}
	if _, found := r.issued.Get(key); found {
		return nil, false, ErrSessionExpired
	}
	s = r.factory(ctx, key)
	r.cache.Set(key, s, expiration(key))
	if key != StdioKey {
		r.issued.SetDefault(key, struct{}{})
	}
	return s, true, nil
}

func (r *Registry) refresh(key string) (*sequent.Session, bool) {
	x, found := r.cache.Get(key)
	if !found {
		return nil, false
	}
	s := x.(*sequent.Session)
	r.cache.Set(key, s, expiration(key))
	if key != StdioKey {
		r.issued.SetDefault(key, struct{}{})
	}
	return s, true
}

// expiration returns the cache lifetime for a key.
func expiration(key string) time.Duration {
	if key == StdioKey {
		return cache.NoExpiration
	}
	return cache.DefaultExpiration
}

// Sweep closes sessions whose idle deadline has passed.
func (r *Registry) Sweep() {
	r.cache.DeleteExpired()
}

// Lookup returns the session for id without creating or refreshing it.
func (r *Registry) Lookup(id string) (*sequent.Session, bool) {
	if x, found := r.cache.Get(Key(id)); found {
		return x.(*sequent.Session), true
	}
	return nil, false
}

// Release closes and forgets the session for id, if any.
func (r *Registry) Release(id string) {
	key := Key(id)

	r.mu.Lock()
	if _, found := r.cache.Get(key); !found {
		r.mu.Unlock()
		return
	}
	r.released[key] = true
	r.issued.Delete(key)
	r.mu.Unlock()

	r.cache.Delete(key)
}

// Len returns the number of live sessions, expired ones included until
// the next cleanup.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Close closes every live session and empties the registry.
func (r *Registry) Close(ctx context.Context) {
	items := r.cache.Items()
	r.cache.Flush()
	r.issued.Flush()
	for _, item := range items {
		_ = item.Object.(*sequent.Session).Close(ctx)
	}
}

func (r *Registry) evicted(key string, value interface{}) {
	r.mu.Lock()
	reason := ReasonIdle
	if r.released[key] {
		reason = ReasonReleased
		delete(r.released, key)
	}
	r.mu.Unlock()

	s := value.(*sequent.Session)
	ctx := context.Background()
	_ = s.Close(ctx)

	capitan.Info(ctx, sequent.SessionEvicted,
		sequent.FieldSessionID.Field(key),
		sequent.FieldLedgerID.Field(s.Ledger().ID()),
		sequent.FieldHistoryLength.Field(s.Ledger().HistoryLength()),
		sequent.FieldReason.Field(reason),
	)
}
