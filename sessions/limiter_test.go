package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsalanrobotronics/famaserve-admin-backend/sessions"
	fakesessionstore "github.com/arsalanrobotronics/famaserve-admin-backend/sessions/storefake"
)

func seedSession(t *testing.T, store *fakesessionstore.FakeSessionStore, accountID, channel string, createdAt time.Time) *sessions.Session {
	t.Helper()
	session := &sessions.Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		ClientID:  "client",
		Channel:   channel,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(time.Hour),
	}
	require.NoError(t, store.CreateSession(context.Background(), session))
	return session
}

func TestLimiterAdmit(t *testing.T) {
	ctx := context.Background()
	base := time.Now()

	t.Run("under the limit admits without eviction", func(t *testing.T) {
		store := fakesessionstore.NewFakeSessionStore()
		limiter := sessions.NewLimiter(store, 3, sessions.EvictionScopeLegacy)

		seedSession(t, store, "acct-1", "web", base)
		seedSession(t, store, "acct-1", "web", base.Add(time.Second))

		require.NoError(t, limiter.Admit(ctx, "acct-1", "web"))

		count, err := store.CountActive(ctx, "acct-1")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("at the limit evicts the oldest on the channel", func(t *testing.T) {
		store := fakesessionstore.NewFakeSessionStore()
		limiter := sessions.NewLimiter(store, 3, sessions.EvictionScopeLegacy)

		oldest := seedSession(t, store, "acct-1", "web", base)
		seedSession(t, store, "acct-1", "web", base.Add(time.Second))
		seedSession(t, store, "acct-1", "web", base.Add(2*time.Second))

		require.NoError(t, limiter.Admit(ctx, "acct-1", "web"))

		_, err := store.GetSession(ctx, oldest.ID)
		require.ErrorIs(t, err, sessions.ErrNotFound)

		count, err := store.CountActive(ctx, "acct-1")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("legacy scope counts account-wide but evicts per channel", func(t *testing.T) {
		store := fakesessionstore.NewFakeSessionStore()
		limiter := sessions.NewLimiter(store, 3, sessions.EvictionScopeLegacy)

		// Three web sessions push the account-wide count to the limit. A
		// mobile login finds nothing on its own channel to displace, so the
		// account-wide count grows past the cap.
		seedSession(t, store, "acct-1", "web", base)
		seedSession(t, store, "acct-1", "web", base.Add(time.Second))
		seedSession(t, store, "acct-1", "web", base.Add(2*time.Second))

		require.NoError(t, limiter.Admit(ctx, "acct-1", "mobile"))
		seedSession(t, store, "acct-1", "mobile", base.Add(3*time.Second))

		count, err := store.CountActive(ctx, "acct-1")
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("channel scope holds the limit per channel", func(t *testing.T) {
		store := fakesessionstore.NewFakeSessionStore()
		limiter := sessions.NewLimiter(store, 3, sessions.EvictionScopeChannel)

		seedSession(t, store, "acct-1", "web", base)
		seedSession(t, store, "acct-1", "web", base.Add(time.Second))
		seedSession(t, store, "acct-1", "web", base.Add(2*time.Second))

		// A mobile login is under its own channel's limit: nothing evicted.
		require.NoError(t, limiter.Admit(ctx, "acct-1", "mobile"))
		count, err := store.CountActive(ctx, "acct-1")
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		// A fourth web login displaces the oldest web session.
		oldestWeb, err := store.OldestSession(ctx, "acct-1", "web")
		require.NoError(t, err)
		require.NoError(t, limiter.Admit(ctx, "acct-1", "web"))
		_, err = store.GetSession(ctx, oldestWeb.ID)
		require.ErrorIs(t, err, sessions.ErrNotFound)
	})

	t.Run("eviction order is creation order", func(t *testing.T) {
		store := fakesessionstore.NewFakeSessionStore()
		limiter := sessions.NewLimiter(store, 2, sessions.EvictionScopeChannel)

		first := seedSession(t, store, "acct-1", "web", base)
		second := seedSession(t, store, "acct-1", "web", base.Add(time.Second))

		require.NoError(t, limiter.Admit(ctx, "acct-1", "web"))
		_, err := store.GetSession(ctx, first.ID)
		require.ErrorIs(t, err, sessions.ErrNotFound)

		third := seedSession(t, store, "acct-1", "web", base.Add(2*time.Second))

		require.NoError(t, limiter.Admit(ctx, "acct-1", "web"))
		_, err = store.GetSession(ctx, second.ID)
		require.ErrorIs(t, err, sessions.ErrNotFound)

		_, err = store.GetSession(ctx, third.ID)
		require.NoError(t, err)
	})
}
