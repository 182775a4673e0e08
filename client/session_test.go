package client_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-076/job-aggregator-web/client"
)

func newTestStore(t *testing.T) *client.CredentialStore {
	t.Helper()
	return client.NewCredentialStore(client.NewMemoryStore())
}

func TestSessionRestoresPersistedCredential(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Save(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	}))

	session := client.NewSession(ctx, store)
	defer session.Close()

	assert.Equal(t, client.StateAuthenticated, session.State())
	assert.True(t, session.IsAuthenticated())
	assert.False(t, session.Loading())
	require.NotNil(t, session.User())
	assert.Equal(t, "user@example.com", session.User().Email)
}

func TestSessionStartsAnonymousWithEmptyStore(t *testing.T) {
	session := client.NewSession(context.Background(), newTestStore(t))
	defer session.Close()

	assert.Equal(t, client.StateAnonymous, session.State())
	assert.False(t, session.IsAuthenticated())
	assert.Nil(t, session.User())
	assert.Empty(t, session.Token())
}

func TestSessionLoginRejectsExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// the session was authenticated before the bad login
	require.NoError(t, store.Save(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	}))
	session := client.NewSession(ctx, store)
	defer session.Close()
	require.True(t, session.IsAuthenticated())

	err := session.Login(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(-time.Minute)),
		User:  testUser(),
	})
	assert.True(t, client.IsTokenExpired(err))
	assert.Equal(t, client.StateAnonymous, session.State())

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := client.NewSession(ctx, store)
	defer session.Close()

	require.NoError(t, session.Login(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	}))

	session.Logout(ctx)
	session.Logout(ctx)

	assert.Equal(t, client.StateAnonymous, session.State())
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionAutoLogoutAtExpiry(t *testing.T) {
	ctx := context.Background()
	session := client.NewSession(ctx, newTestStore(t))
	defer session.Close()

	require.NoError(t, session.Login(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(2*time.Second)),
		User:  testUser(),
	}))
	assert.True(t, session.IsAuthenticated())

	assert.Eventually(t, func() bool {
		return session.State() == client.StateAnonymous
	}, 5*time.Second, 50*time.Millisecond, "session should log itself out at token expiry")
}

func TestSessionRearmReplacesPendingTimer(t *testing.T) {
	ctx := context.Background()
	session := client.NewSession(ctx, newTestStore(t))
	defer session.Close()

	// first token dies in 2s; second login must replace its timer
	require.NoError(t, session.Login(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(2*time.Second)),
		User:  testUser(),
	}))
	require.NoError(t, session.Login(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	}))

	time.Sleep(3 * time.Second)
	assert.Equal(t, client.StateAuthenticated, session.State())
	assert.True(t, session.IsAuthenticated())
}

func TestSessionStateListener(t *testing.T) {
	ctx := context.Background()

	type hop struct{ from, to client.State }
	var hops []hop

	session := client.NewSession(ctx, newTestStore(t),
		client.WithStateListener(func(from, to client.State) {
			hops = append(hops, hop{from, to})
		}),
	)
	defer session.Close()

	require.NoError(t, session.Login(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	}))
	session.Logout(ctx)

	require.Len(t, hops, 3)
	assert.Equal(t, hop{client.StateInitializing, client.StateAnonymous}, hops[0])
	assert.Equal(t, hop{client.StateAnonymous, client.StateAuthenticated}, hops[1])
	assert.Equal(t, hop{client.StateAuthenticated, client.StateAnonymous}, hops[2])
}

// slowDeleteStore stalls the first Delete after arming until released,
// holding a teardown open mid-flight.
type slowDeleteStore struct {
	client.Store
	entered chan struct{}
	release chan struct{}
	armed   atomic.Bool
	once    sync.Once
}

func (s *slowDeleteStore) Delete(ctx context.Context, key string) error {
	if s.armed.Load() {
		s.once.Do(func() {
			s.entered <- struct{}{}
			<-s.release
		})
	}
	return s.Store.Delete(ctx, key)
}

func TestSessionExpiryCallbackCannotDestroyFreshLogin(t *testing.T) {
	ctx := context.Background()
	slow := &slowDeleteStore{
		Store:   client.NewMemoryStore(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	store := client.NewCredentialStore(slow)

	session := client.NewSession(ctx, store)
	defer session.Close()

	require.NoError(t, session.Login(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(1500*time.Millisecond)),
		User:  testUser(),
	}))
	slow.armed.Store(true)

	// the expiry callback is now stalled inside the store clear
	<-slow.entered

	done := make(chan error, 1)
	go func() {
		done <- session.Login(ctx, client.Credential{
			Token: mintTokenWithExpiry(t, time.Now().Add(time.Hour)),
			User:  testUser(),
		})
	}()

	// the re-login must wait out the teardown, not interleave with it
	select {
	case err := <-done:
		t.Fatalf("login completed while a teardown held the session: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(slow.release)
	require.NoError(t, <-done)

	assert.Equal(t, client.StateAuthenticated, session.State())
	assert.True(t, session.IsAuthenticated())

	cred, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred, "fresh credential must survive the stale teardown")
}

func TestSessionClockGovernsCredentialStore(t *testing.T) {
	ctx := context.Background()
	clock := func() time.Time { return time.Now().Add(-time.Hour) }
	store := client.NewCredentialStore(client.NewMemoryStore())

	session := client.NewSession(ctx, store, client.WithSessionClock(clock))
	defer session.Close()

	// dead on the wall clock, thirty minutes of life left on the injected one
	err := session.Login(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(-30*time.Minute)),
		User:  testUser(),
	})
	require.NoError(t, err, "store must judge expiry on the session clock")
	assert.True(t, session.IsAuthenticated())

	cred, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)
}

func TestSessionClockInjection(t *testing.T) {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	// a session whose clock sits past the expiry refuses the token outright
	session := client.NewSession(ctx, newTestStore(t),
		client.WithSessionClock(func() time.Time { return exp.Add(time.Second) }),
	)
	defer session.Close()

	err := session.Login(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, exp),
		User:  testUser(),
	})
	assert.True(t, client.IsTokenExpired(err))
	assert.False(t, session.IsAuthenticated())
}
