package auth_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arsalanrobotronics/famaserve-admin-backend/accounts"
	fakeaccountrepo "github.com/arsalanrobotronics/famaserve-admin-backend/accounts/repofake"
	"github.com/arsalanrobotronics/famaserve-admin-backend/auth"
	"github.com/arsalanrobotronics/famaserve-admin-backend/roles"
	fakerolerepo "github.com/arsalanrobotronics/famaserve-admin-backend/roles/repofake"
	"github.com/arsalanrobotronics/famaserve-admin-backend/sessions"
	fakesessionstore "github.com/arsalanrobotronics/famaserve-admin-backend/sessions/storefake"
	"github.com/arsalanrobotronics/famaserve-admin-backend/token"
)

const (
	testSecret   = "test-signing-secret"
	testClientID = "test-client"
	testPassword = "password123"
	testChannel  = "web"
)

// fakeClock is a mutable time source shared between the service and the
// issuer so tests can advance through lockout and expiry windows.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testFixture struct {
	accountRepo *fakeaccountrepo.FakeAccountRepo
	roleRepo    *fakerolerepo.FakeRoleRepo
	store       *fakesessionstore.FakeSessionStore
	service     *auth.Service
	clock       *fakeClock
}

func setupTestFixture(t *testing.T, maxSessions int, scope sessions.EvictionScope) *testFixture {
	t.Helper()

	ar := fakeaccountrepo.NewFakeAccountRepo()
	rr := fakerolerepo.NewFakeRoleRepo()
	ss := fakesessionstore.NewFakeSessionStore()
	clock := newFakeClock()

	signer := token.NewHMACSigner(testSecret)
	issuer := token.NewIssuer(ss, signer, testClientID, token.WithNowFunc(clock.Now))
	limiter := sessions.NewLimiter(ss, maxSessions, scope)

	service, err := auth.NewService(
		auth.Repos{Accounts: ar, Roles: rr, Sessions: ss},
		limiter, issuer, signer,
		auth.WithBcryptCost(bcrypt.MinCost),
		auth.WithNowFunc(clock.Now),
	)
	require.NoError(t, err)

	return &testFixture{
		accountRepo: ar,
		roleRepo:    rr,
		store:       ss,
		service:     service,
		clock:       clock,
	}
}

func (f *testFixture) createRole(t *testing.T, title string, status roles.Status) *roles.Role {
	t.Helper()
	role := &roles.Role{
		ID:          uuid.NewString(),
		Title:       title,
		Permissions: []string{"profile", "orders"},
		Status:      status,
	}
	require.NoError(t, f.roleRepo.Upsert(context.Background(), role))
	return role
}

func (f *testFixture) createAccount(t *testing.T, username string, roleID string, status accounts.Status) *accounts.Account {
	t.Helper()
	hash, err := accounts.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	account := &accounts.Account{
		ID:           uuid.NewString(),
		Username:     username,
		FullName:     "Test User",
		Email:        username + "@example.com",
		PasswordHash: hash,
		RoleID:       roleID,
		Status:       status,
		CreatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.accountRepo.Create(context.Background(), account))
	return account
}

func (f *testFixture) activeUser(t *testing.T, username string) *accounts.Account {
	t.Helper()
	role := f.createRole(t, "Customer", roles.StatusActive)
	return f.createAccount(t, username, role.ID, accounts.StatusActive)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown username", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		_, err := f.service.Login(ctx, "nobody", testPassword, testChannel)
		require.ErrorIs(t, err, auth.ErrInvalidUsername)
	})

	t.Run("wrong password below threshold", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		for i := 0; i < 4; i++ {
			_, err := f.service.Login(ctx, "bob", "wrong", testChannel)
			require.ErrorIs(t, err, auth.ErrInvalidPassword)
		}
	})

	t.Run("successful login", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)
		require.NotEmpty(t, result.AccessToken)
		require.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "bob", result.Account.Username)
		assert.Equal(t, "Customer", result.Role.Title)
		assert.Zero(t, result.Account.LoginAttempts)
	})

	t.Run("suspended account", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		role := f.createRole(t, "Customer", roles.StatusActive)
		f.createAccount(t, "sleepy", role.ID, accounts.StatusSuspended)

		_, err := f.service.Login(ctx, "sleepy", testPassword, testChannel)
		var inactive *auth.AccountInactiveError
		require.ErrorAs(t, err, &inactive)
		assert.Equal(t, accounts.StatusSuspended, inactive.Status)
	})

	t.Run("archived role", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		role := f.createRole(t, "Retired", roles.StatusArchived)
		f.createAccount(t, "old", role.ID, accounts.StatusActive)

		_, err := f.service.Login(ctx, "old", testPassword, testChannel)
		require.ErrorIs(t, err, auth.ErrRoleArchived)
	})
}

func TestLockout(t *testing.T) {
	ctx := context.Background()

	t.Run("fifth failure locks the account", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		for i := 0; i < 4; i++ {
			_, err := f.service.Login(ctx, "bob", "wrong", testChannel)
			require.ErrorIs(t, err, auth.ErrInvalidPassword)
		}

		_, err := f.service.Login(ctx, "bob", "wrong", testChannel)
		var locked *auth.AccountLockedError
		require.ErrorAs(t, err, &locked)
	})

	t.Run("correct password rejected while locked", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		for i := 0; i < 5; i++ {
			f.service.Login(ctx, "bob", "wrong", testChannel) //nolint:errcheck
		}

		_, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		var locked *auth.AccountLockedError
		require.ErrorAs(t, err, &locked)
	})

	t.Run("lock expires after the window", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		for i := 0; i < 5; i++ {
			f.service.Login(ctx, "bob", "wrong", testChannel) //nolint:errcheck
		}

		f.clock.Advance(auth.DefaultLockoutDuration + time.Second)

		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)
		assert.Zero(t, result.Account.LoginAttempts)
		assert.Nil(t, result.Account.LockedAt)
	})

	t.Run("success resets the failure counter", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		for i := 0; i < 3; i++ {
			_, err := f.service.Login(ctx, "bob", "wrong", testChannel)
			require.ErrorIs(t, err, auth.ErrInvalidPassword)
		}

		_, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)

		// Four more failures stay below the threshold again.
		for i := 0; i < 4; i++ {
			_, err := f.service.Login(ctx, "bob", "wrong", testChannel)
			require.ErrorIs(t, err, auth.ErrInvalidPassword)
		}
	})
}

func TestSessionLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("fourth login evicts the oldest session", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		account := f.activeUser(t, "alice")

		var tokens []string
		for i := 0; i < 4; i++ {
			result, err := f.service.Login(ctx, "alice", testPassword, testChannel)
			require.NoError(t, err)
			tokens = append(tokens, result.AccessToken)
			f.clock.Advance(time.Second)
		}

		count, err := f.store.CountActive(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		// The first session was displaced; its token no longer authenticates.
		_, _, err = f.service.Authenticate(ctx, tokens[0])
		require.ErrorIs(t, err, auth.ErrSessionRevoked)

		// The remaining three still do.
		for _, tok := range tokens[1:] {
			_, _, err := f.service.Authenticate(ctx, tok)
			require.NoError(t, err)
		}
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		seeded := f.activeUser(t, "bob")

		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)

		account, claims, err := f.service.Authenticate(ctx, result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, account.ID)
		assert.Equal(t, seeded.ID, claims.AccountID)
		assert.Equal(t, testClientID, claims.ClientID)
		assert.ElementsMatch(t, []string{"profile", "orders"}, claims.Scopes)
	})

	t.Run("missing token", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		_, _, err := f.service.Authenticate(ctx, "")
		require.ErrorIs(t, err, auth.ErrMissingToken)
	})

	t.Run("tampered token", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)

		_, _, err = f.service.Authenticate(ctx, result.AccessToken+"x")
		require.ErrorIs(t, err, auth.ErrInvalidSignature)
	})

	t.Run("token signed with a different secret", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		account := f.activeUser(t, "bob")

		// Issue against the same store but with a disagreeing signer, so the
		// session exists and only the signature check can reject it.
		forged := token.NewIssuer(f.store, token.NewHMACSigner("other-secret"), testClientID,
			token.WithNowFunc(f.clock.Now))
		pair, err := forged.Issue(ctx, account, nil, testChannel)
		require.NoError(t, err)

		_, _, err = f.service.Authenticate(ctx, pair.AccessToken)
		require.ErrorIs(t, err, auth.ErrInvalidSignature)
	})

	t.Run("expired session", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)

		f.clock.Advance(token.DefaultAccessTTL + time.Minute)

		_, _, err = f.service.Authenticate(ctx, result.AccessToken)
		require.ErrorIs(t, err, auth.ErrSessionRevoked)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("logout revokes and cascades", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)
		require.Equal(t, 1, f.store.GrantCount())

		require.NoError(t, f.service.Logout(ctx, result.AccessToken))
		assert.Equal(t, 0, f.store.GrantCount())

		_, _, err = f.service.Authenticate(ctx, result.AccessToken)
		require.ErrorIs(t, err, auth.ErrSessionRevoked)
	})

	t.Run("second logout with the same token fails", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)

		require.NoError(t, f.service.Logout(ctx, result.AccessToken))
		require.ErrorIs(t, f.service.Logout(ctx, result.AccessToken), auth.ErrTokenInvalid)
	})

	t.Run("missing token", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		require.ErrorIs(t, f.service.Logout(ctx, " "), auth.ErrMissingToken)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotation replaces the session", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		account := f.activeUser(t, "bob")

		first, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)

		f.clock.Advance(time.Minute)

		second, err := f.service.Refresh(ctx, first.RefreshToken, testChannel)
		require.NoError(t, err)
		require.NotEqual(t, first.AccessToken, second.AccessToken)

		// Old session is gone, new one authenticates.
		_, _, err = f.service.Authenticate(ctx, first.AccessToken)
		require.ErrorIs(t, err, auth.ErrSessionRevoked)
		_, _, err = f.service.Authenticate(ctx, second.AccessToken)
		require.NoError(t, err)

		count, err := f.store.CountActive(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("unknown refresh token", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		_, err := f.service.Refresh(ctx, "not-a-jwt", testChannel)
		require.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("expired refresh grant", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)

		f.clock.Advance(token.DefaultRefreshTTL + time.Minute)

		_, err = f.service.Refresh(ctx, result.RefreshToken, testChannel)
		require.ErrorIs(t, err, auth.ErrRefreshExpired)
	})

	t.Run("refresh after logout", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)
		require.NoError(t, f.service.Logout(ctx, result.AccessToken))

		_, err = f.service.Refresh(ctx, result.RefreshToken, testChannel)
		require.ErrorIs(t, err, auth.ErrSessionRevoked)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		account := f.activeUser(t, "bob")

		err := f.service.ChangePassword(ctx, account.ID, "wrong", "newpassword1")
		require.ErrorIs(t, err, auth.ErrCurrentPasswordWrong)
	})

	t.Run("unchanged password", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		account := f.activeUser(t, "bob")

		err := f.service.ChangePassword(ctx, account.ID, testPassword, testPassword)
		require.ErrorIs(t, err, auth.ErrSecretUnchanged)
	})

	t.Run("reused recent password", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		account := f.activeUser(t, "bob")

		require.NoError(t, f.service.ChangePassword(ctx, account.ID, testPassword, "newpassword1"))

		// The original password is now in the history.
		err := f.service.ChangePassword(ctx, account.ID, "newpassword1", testPassword)
		require.ErrorIs(t, err, auth.ErrSecretReused)
	})

	t.Run("successful change", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		account := f.activeUser(t, "bob")

		require.NoError(t, f.service.ChangePassword(ctx, account.ID, testPassword, "newpassword1"))

		_, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.ErrorIs(t, err, auth.ErrInvalidPassword)

		_, err = f.service.Login(ctx, "bob", "newpassword1", testChannel)
		require.NoError(t, err)
	})
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		_, err := f.service.SetPassword(ctx, "nobody", "resetpass1")
		require.ErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("reset without current password", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")

		_, err := f.service.SetPassword(ctx, "bob", "resetpass1")
		require.NoError(t, err)

		_, err = f.service.Login(ctx, "bob", "resetpass1", testChannel)
		require.NoError(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("email taken", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		account := f.activeUser(t, "bob")
		f.activeUser(t, "carol")

		_, _, err := f.service.UpdateProfile(ctx, account.ID, account.FullName, "carol@example.com")
		require.ErrorIs(t, err, auth.ErrEmailTaken)
	})

	t.Run("changed name derives a unique username", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		account := f.activeUser(t, "bob")

		updated, _, err := f.service.UpdateProfile(ctx, account.ID, "John Smith", account.Email)
		require.NoError(t, err)
		assert.Equal(t, "john.smith", updated.Username)
		assert.Equal(t, "John Smith", updated.FullName)
	})

	t.Run("username collision gets a counter suffix", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		role := f.createRole(t, "Customer", roles.StatusActive)
		f.createAccount(t, "john.smith", role.ID, accounts.StatusActive)
		account := f.createAccount(t, "bob", role.ID, accounts.StatusActive)

		updated, _, err := f.service.UpdateProfile(ctx, account.ID, "John Smith", account.Email)
		require.NoError(t, err)
		assert.Equal(t, "john.smith.1", updated.Username)
	})
}

// failingAccountRepo wraps a working repo but fails every account lookup, as
// a database outage would.
type failingAccountRepo struct {
	accounts.Repo
	err error
}

func (r *failingAccountRepo) GetByUsername(context.Context, string) (*accounts.Account, error) {
	return nil, r.err
}

func (r *failingAccountRepo) GetByID(context.Context, string) (*accounts.Account, error) {
	return nil, r.err
}

type failingSessionStore struct {
	sessions.Store
	err error
}

func (s *failingSessionStore) GetRefreshGrantByToken(context.Context, string) (*sessions.RefreshGrant, error) {
	return nil, s.err
}

// Store failures must surface as internal errors, never as the credential or
// token errors reserved for actual not-found lookups.
func TestStoreFailurePropagation(t *testing.T) {
	ctx := context.Background()
	errStoreDown := stderrors.New("connection reset by peer")

	newService := func(t *testing.T, repos auth.Repos, store sessions.Store) *auth.Service {
		t.Helper()
		signer := token.NewHMACSigner(testSecret)
		issuer := token.NewIssuer(store, signer, testClientID)
		limiter := sessions.NewLimiter(store, 3, sessions.EvictionScopeLegacy)
		service, err := auth.NewService(repos, limiter, issuer, signer, auth.WithBcryptCost(bcrypt.MinCost))
		require.NoError(t, err)
		return service
	}

	t.Run("login", func(t *testing.T) {
		store := fakesessionstore.NewFakeSessionStore()
		repos := auth.Repos{
			Accounts: &failingAccountRepo{Repo: fakeaccountrepo.NewFakeAccountRepo(), err: errStoreDown},
			Roles:    fakerolerepo.NewFakeRoleRepo(),
			Sessions: store,
		}
		service := newService(t, repos, store)

		_, err := service.Login(ctx, "bob", testPassword, testChannel)
		require.ErrorIs(t, err, errStoreDown)
		require.NotErrorIs(t, err, auth.ErrInvalidUsername)
	})

	t.Run("authenticate", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")
		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)

		repos := auth.Repos{
			Accounts: &failingAccountRepo{Repo: f.accountRepo, err: errStoreDown},
			Roles:    f.roleRepo,
			Sessions: f.store,
		}
		service := newService(t, repos, f.store)

		_, _, err = service.Authenticate(ctx, result.AccessToken)
		require.ErrorIs(t, err, errStoreDown)
		require.NotErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("refresh", func(t *testing.T) {
		f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
		f.activeUser(t, "bob")
		result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
		require.NoError(t, err)

		store := &failingSessionStore{Store: f.store, err: errStoreDown}
		repos := auth.Repos{Accounts: f.accountRepo, Roles: f.roleRepo, Sessions: store}
		service := newService(t, repos, store)

		_, err = service.Refresh(ctx, result.RefreshToken, testChannel)
		require.ErrorIs(t, err, errStoreDown)
		require.NotErrorIs(t, err, auth.ErrSessionRevoked)
		require.NotErrorIs(t, err, auth.ErrTokenInvalid)
	})
}

func TestLoginWithDanglingRole(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, 3, sessions.EvictionScopeLegacy)
	f.createAccount(t, "bob", "deleted-role-id", accounts.StatusActive)

	// A role reference that no longer resolves grants no scopes but does not
	// block the login.
	result, err := f.service.Login(ctx, "bob", testPassword, testChannel)
	require.NoError(t, err)
	assert.Empty(t, result.Role.Permissions)

	_, claims, err := f.service.Authenticate(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, claims.Scopes)
}
