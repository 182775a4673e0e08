package web

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/yash-076/job-aggregator-web/client"
)

// SessionCookie names the browser session id cookie.
const SessionCookie = "sid"

// StoreFactory builds the credential store backend for one browser session.
type StoreFactory func(sid string) client.Store

// SessionResolver yields the session for a request. The registry is the real
// implementation; tests substitute their own.
type SessionResolver interface {
	Resolve(c *fiber.Ctx) *client.Session
}

type registryEntry struct {
	session  *client.Session
	lastSeen time.Time
}

// Registry maps browser session ids to client sessions. One visitor, one
// session object, one credential namespace. Idle entries are swept so a
// forgotten tab doesn't pin its expiry timer forever.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*registryEntry
	factory   StoreFactory
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
	logger    client.Logger
	sessOpts  []client.SessionOption
}

var _ SessionResolver = (*Registry)(nil)

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithRegistryClock injects a custom clock (useful for tests).
func WithRegistryClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithRegistryLogger overrides the default logger.
func WithRegistryLogger(logger client.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSessionOptions forwards options to every session the registry creates.
func WithSessionOptions(opts ...client.SessionOption) RegistryOption {
	return func(r *Registry) {
		r.sessOpts = append(r.sessOpts, opts...)
	}
}

// NewRegistry builds a registry whose sessions persist through factory and
// are evicted after ttl of inactivity.
func NewRegistry(factory StoreFactory, ttl time.Duration, opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]*registryEntry),
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the session for the request's browser, minting the session
// cookie and restoring persisted credentials on first contact.
func (r *Registry) Resolve(c *fiber.Ctx) *client.Session {
	sid := c.Cookies(SessionCookie)
	if sid == "" {
		sid = uuid.New().String()
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    sid,
			HTTPOnly: true,
			SameSite: "Lax",
		})
	}
	return r.session(c.UserContext(), sid)
}

func (r *Registry) session(ctx context.Context, sid string) *client.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	if entry, ok := r.entries[sid]; ok {
		entry.lastSeen = now
		return entry.session
	}

	store := client.NewCredentialStore(r.factory(sid))
	session := client.NewSession(ctx, store, r.sessOpts...)
	r.entries[sid] = &registryEntry{session: session, lastSeen: now}
	return session
}

// sweep drops idle entries. Called with r.mu held, throttled to once a
// minute so Resolve stays cheap.
func (r *Registry) sweep(now time.Time) {
	if r.ttl <= 0 || now.Sub(r.lastSweep) < time.Minute {
		return
	}
	r.lastSweep = now

	for sid, entry := range r.entries {
		if now.Sub(entry.lastSeen) > r.ttl {
			entry.session.Close()
			delete(r.entries, sid)
		}
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close releases every session's timer. Persisted credentials survive.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sid, entry := range r.entries {
		entry.session.Close()
		delete(r.entries, sid)
	}
}
