package token

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/arsalanrobotronics/famaserve-admin-backend/accounts"
	"github.com/arsalanrobotronics/famaserve-admin-backend/sessions"
)

// Default lifetimes applied when the deployment does not configure its own.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 5 * time.Hour
)

// Pair is the result of one issuance: both signed tokens plus the access
// token's expiry instant, which the boundary reports back to the caller.
type Pair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}

// Issuer mints signed, time-bound access and refresh tokens bound to a
// persisted session record. Scopes are copied from the account's role at
// issuance time; the raw secret is never persisted, only the resulting
// session and refresh grant.
type Issuer struct {
	store      sessions.Store
	signer     Signer
	clientID   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithTokenExpiry overrides the access and refresh token lifetimes.
func WithTokenExpiry(accessTTL, refreshTTL time.Duration) IssuerOption {
	return func(i *Issuer) {
		if accessTTL > 0 {
			i.accessTTL = accessTTL
		}
		if refreshTTL > 0 {
			i.refreshTTL = refreshTTL
		}
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func NewIssuer(store sessions.Store, signer Signer, clientID string, options ...IssuerOption) *Issuer {
	i := &Issuer{
		store:      store,
		signer:     signer,
		clientID:   clientID,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// AccessTTL returns the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// Issue creates the session record, signs the access and refresh tokens and
// persists the refresh grant back-referencing the session. The caller is
// expected to have run the session limiter first.
func (i *Issuer) Issue(ctx context.Context, account *accounts.Account, scopes []string, channel string) (*Pair, error) {
	now := i.nowFunc()
	accessExpiry := now.Add(i.accessTTL)
	refreshExpiry := now.Add(i.refreshTTL)

	session := &sessions.Session{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		ClientID:  i.clientID,
		Channel:   channel,
		Scopes:    scopes,
		CreatedAt: now,
		ExpiresAt: accessExpiry,
	}
	if err := i.store.CreateSession(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Issuer.Issue] create session")
	}

	accessToken, err := i.signer.Sign(jwt.MapClaims{
		AccountIDKey: account.ID,
		SessionIDKey: session.ID,
		ClientIDKey:  i.clientID,
		ScopesKey:    scopes,
		"iat":        now.Unix(),
		"exp":        accessExpiry.Unix(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.Issue] sign access token")
	}

	refreshToken, err := i.signer.Sign(jwt.MapClaims{
		AccountIDKey: account.ID,
		ClientIDKey:  i.clientID,
		ScopesKey:    scopes,
		"iat":        now.Unix(),
		"exp":        refreshExpiry.Unix(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.Issue] sign refresh token")
	}

	grant := &sessions.RefreshGrant{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Token:     refreshToken,
		CreatedAt: now,
		ExpiresAt: refreshExpiry,
	}
	if err := i.store.CreateRefreshGrant(ctx, grant); err != nil {
		return nil, errors.Wrap(err, "[Issuer.Issue] create refresh grant")
	}

	return &Pair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: accessExpiry,
	}, nil
}
