package client

import (
	"context"
	"encoding/json"
	"time"
)

// Storage keys kept from the original web client so an operator can inspect
// the store with familiar names.
const (
	tokenKey = "auth_token"
	userKey  = "auth_user"
)

// Store is the key-value persistence backend for credentials. Implementations
// must tolerate Delete on missing keys.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// CredentialStore persists the token+user pair and owns its validity rules.
// The pair is written, read, and cleared as one unit: a reader never sees a
// token without its user or vice versa.
type CredentialStore struct {
	store  Store
	now    func() time.Time
	logger Logger
}

// CredentialStoreOption customizes a CredentialStore.
type CredentialStoreOption func(*CredentialStore)

// WithCredentialClock injects a custom clock (useful for tests).
func WithCredentialClock(clock func() time.Time) CredentialStoreOption {
	return func(c *CredentialStore) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithCredentialLogger overrides the default logger.
func WithCredentialLogger(logger Logger) CredentialStoreOption {
	return func(c *CredentialStore) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCredentialStore wraps a Store with the pairing and expiry rules.
func NewCredentialStore(store Store, opts ...CredentialStoreOption) *CredentialStore {
	c := &CredentialStore{
		store:  store,
		now:    time.Now,
		logger: defLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save persists the credential pair. A credential whose token is already
// expired is rejected: the store is cleared and ErrTokenExpired returned, so
// a dead token can never be resurrected on the next Load.
func (c *CredentialStore) Save(ctx context.Context, cred Credential) error {
	if IsExpired(cred.Token, c.now()) {
		if err := c.Clear(ctx); err != nil {
			return err
		}
		return ErrTokenExpired
	}

	encoded, err := json.Marshal(cred.User)
	if err != nil {
		return err
	}

	if err := c.store.Set(ctx, tokenKey, cred.Token); err != nil {
		return err
	}
	if err := c.store.Set(ctx, userKey, string(encoded)); err != nil {
		// roll back the token so a reader never sees half a pair
		_ = c.store.Delete(ctx, tokenKey)
		return err
	}
	return nil
}

// Load returns the stored credential only when both halves are present and
// the token has not expired. Any defect (missing half, expired token,
// unreadable user JSON) clears the store and yields nil — self-healing on
// read, per the original client.
func (c *CredentialStore) Load(ctx context.Context) (*Credential, error) {
	token, hasToken, err := c.store.Get(ctx, tokenKey)
	if err != nil {
		return nil, err
	}
	encoded, hasUser, err := c.store.Get(ctx, userKey)
	if err != nil {
		return nil, err
	}

	if !hasToken || !hasUser {
		return nil, c.Clear(ctx)
	}

	if IsExpired(token, c.now()) {
		c.logger.Debug("stored token expired, clearing credentials")
		return nil, c.Clear(ctx)
	}

	var user User
	if err := json.Unmarshal([]byte(encoded), &user); err != nil {
		c.logger.Error("stored user snapshot unreadable: %v", err)
		return nil, c.Clear(ctx)
	}

	return &Credential{Token: token, User: user}, nil
}

// Clear removes both halves unconditionally. Idempotent.
func (c *CredentialStore) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, tokenKey); err != nil {
		return err
	}
	return c.store.Delete(ctx, userKey)
}
