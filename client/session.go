package client

import (
	"context"
	"sync"
	"time"
)

// State is the session lifecycle phase.
type State string

const (
	StateInitializing  State = "initializing"
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// StateListener is notified after every state transition. Listeners run on
// the transitioning goroutine and must not call back into the session.
type StateListener func(from, to State)

// Session owns the reactive auth state for one user agent: the current
// credential, the lifecycle state, and the single armed expiry timer that
// logs the user out when the token dies.
type Session struct {
	mu       sync.Mutex
	store    *CredentialStore
	cred     *Credential
	state    State
	timer    *time.Timer
	now      func() time.Time
	ownClock bool
	logger   Logger
	listener StateListener
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithSessionClock injects a custom clock (useful for tests). The clock also
// governs the backing credential store, so session and persisted expiry
// always agree.
func WithSessionClock(clock func() time.Time) SessionOption {
	return func(s *Session) {
		if clock != nil {
			s.now = clock
			s.ownClock = true
		}
	}
}

// WithSessionLogger overrides the default logger.
func WithSessionLogger(logger Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStateListener registers the transition observer.
func WithStateListener(listener StateListener) SessionOption {
	return func(s *Session) {
		s.listener = listener
	}
}

// NewSession builds a session and synchronously restores any persisted
// credential. By the time NewSession returns, the state is Anonymous or
// Authenticated; callers never observe Initializing afterwards.
func NewSession(ctx context.Context, store *CredentialStore, opts ...SessionOption) *Session {
	s := &Session{
		store:  store,
		state:  StateInitializing,
		now:    time.Now,
		logger: defLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ownClock {
		store.now = s.now
	}
	s.restore(ctx)
	return s
}

func (s *Session) restore(ctx context.Context) {
	cred, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("session restore: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cred == nil {
		s.transition(StateAnonymous)
		return
	}

	s.cred = cred
	s.transition(StateAuthenticated)
	s.armTimer(cred.Token)
}

// Login installs a new credential. A token that is already expired clears
// any previous state and returns ErrTokenExpired; the session stays (or
// becomes) Anonymous.
func (s *Session) Login(ctx context.Context, cred Credential) error {
	if IsExpired(cred.Token, s.now()) {
		s.clear(ctx)
		return ErrTokenExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, cred); err != nil {
		return err
	}

	s.cred = &cred
	s.transition(StateAuthenticated)
	s.armTimer(cred.Token)
	return nil
}

// Logout clears in-memory and persisted state. Idempotent: logging out an
// anonymous session is a no-op.
func (s *Session) Logout(ctx context.Context) {
	s.clear(ctx)
}

// Invalidate is the 401 entry point: same teardown as Logout, kept separate
// so call sites read as what they are.
func (s *Session) Invalidate(ctx context.Context) {
	s.clear(ctx)
}

func (s *Session) clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown(ctx)
}

// clearIfCurrent tears the session down only while token is still the
// installed credential, reporting whether it did. The identity check and the
// teardown share one critical section: a login that swaps the credential in
// can never have it destroyed by a stale caller.
func (s *Session) clearIfCurrent(ctx context.Context, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred == nil || s.cred.Token != token {
		return false
	}
	s.teardown(ctx)
	return true
}

// teardown clears persisted and in-memory state. The store write stays under
// the lock so state and store cannot diverge across a concurrent login.
// Callers hold s.mu.
func (s *Session) teardown(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("session clear: %v", err)
	}
	s.cred = nil
	s.cancelTimer()
	s.transition(StateAnonymous)
}

// armTimer schedules the auto-logout for token's expiry, cancelling any
// previously armed timer so at most one is ever pending. A token without a
// usable expiry is not trusted: the session is torn down immediately.
// Callers hold s.mu.
func (s *Session) armTimer(token string) {
	s.cancelTimer()

	exp := ExpiresAt(token)
	if exp.IsZero() {
		s.teardown(context.Background())
		return
	}

	delay := exp.Sub(s.now())
	if delay <= 0 {
		s.teardown(context.Background())
		return
	}

	s.logger.Debug("auto-logout armed in %s", delay)
	armed := token
	s.timer = time.AfterFunc(delay, func() {
		// A fired timer can lose the race against a re-login that already
		// cancelled it; it must never tear down a newer token.
		if s.clearIfCurrent(context.Background(), armed) {
			s.logger.Info("token expired, logging out")
		}
	})
}

// Callers hold s.mu.
func (s *Session) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Callers hold s.mu.
func (s *Session) transition(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	if s.listener != nil {
		s.listener(from, to)
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading is true only while the initial restore is still running.
func (s *Session) Loading() bool {
	return s.State() == StateInitializing
}

// IsAuthenticated is recomputed from token presence and non-expiry on every
// read; it never reports a stale true for a token that just died.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred != nil && !IsExpired(s.cred.Token, s.now())
}

// User returns the cached user snapshot, or nil when anonymous.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil
	}
	user := s.cred.User
	return &user
}

// Token returns the current bearer token, or "" when anonymous.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return ""
	}
	return s.cred.Token
}

// Credentials exposes the backing store so a Gateway can share it: storage
// is the one resource session and gateway coordinate through.
func (s *Session) Credentials() *CredentialStore {
	return s.store
}

// Close releases the armed timer without touching persisted state. Use it
// when disposing a session object whose credential should survive (for
// example on process shutdown).
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimer()
}
