package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-076/job-aggregator-web/client"
)

func testUser() client.User {
	return client.User{
		ID:       7,
		Email:    "user@example.com",
		FullName: "Test User",
		IsActive: true,
	}
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := client.NewCredentialStore(client.NewMemoryStore())

	cred := client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	}
	require.NoError(t, store.Save(ctx, cred))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cred.Token, loaded.Token)
	assert.Equal(t, cred.User, loaded.User)
}

func TestCredentialStoreRejectsExpiredSave(t *testing.T) {
	ctx := context.Background()
	backing := client.NewMemoryStore()
	store := client.NewCredentialStore(backing)

	// seed a valid credential first so we can observe the clearing
	require.NoError(t, store.Save(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	}))

	err := store.Save(ctx, client.Credential{
		Token: mintTokenWithExpiry(t, time.Now().Add(-time.Minute)),
		User:  testUser(),
	})
	assert.True(t, client.IsTokenExpired(err))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.Equal(t, 0, backing.Len())
}

func TestCredentialStoreClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := client.NewCredentialStore(client.NewMemoryStore())

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestCredentialStoreSelfHealsOnLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("token without user", func(t *testing.T) {
		backing := client.NewMemoryStore()
		store := client.NewCredentialStore(backing)

		require.NoError(t, backing.Set(ctx, "auth_token", mintTokenWithExpiry(t, time.Now().Add(time.Hour))))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, loaded)
		assert.Equal(t, 0, backing.Len())
	})

	t.Run("expired token pair", func(t *testing.T) {
		backing := client.NewMemoryStore()
		store := client.NewCredentialStore(backing)

		require.NoError(t, backing.Set(ctx, "auth_token", mintTokenWithExpiry(t, time.Now().Add(-time.Minute))))
		require.NoError(t, backing.Set(ctx, "auth_user", `{"email":"user@example.com"}`))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, loaded)
		assert.Equal(t, 0, backing.Len())
	})

	t.Run("unreadable user snapshot", func(t *testing.T) {
		backing := client.NewMemoryStore()
		store := client.NewCredentialStore(backing)

		require.NoError(t, backing.Set(ctx, "auth_token", mintTokenWithExpiry(t, time.Now().Add(time.Hour))))
		require.NoError(t, backing.Set(ctx, "auth_user", "{{{not json"))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, loaded)
		assert.Equal(t, 0, backing.Len())
	})
}

func TestCredentialStoreClockInjection(t *testing.T) {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)
	cred := client.Credential{Token: mintTokenWithExpiry(t, exp), User: testUser()}

	// a clock past the expiry rejects the same credential a wall clock accepts
	frozen := exp.Add(time.Second)
	store := client.NewCredentialStore(
		client.NewMemoryStore(),
		client.WithCredentialClock(func() time.Time { return frozen }),
	)

	err := store.Save(ctx, cred)
	assert.True(t, client.IsTokenExpired(err))
}
