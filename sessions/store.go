package sessions

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when no record matches the lookup.
var ErrNotFound = errors.New("session not found")

// Store is the persisted collection of active sessions and their refresh
// grants. It is the single source of truth for every component: state is
// always read-then-written through the store, never cached across requests.
type Store interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)

	// DeleteSession hard-deletes the session and cascades to its refresh
	// grant. Returns ErrNotFound when no session matched, which callers use
	// to make logout idempotence observable.
	DeleteSession(ctx context.Context, id string) error

	// CountActive counts non-revoked sessions for the account across all
	// channels.
	CountActive(ctx context.Context, accountID string) (int, error)

	// CountActiveByChannel counts non-revoked sessions for the (account,
	// channel) pair.
	CountActiveByChannel(ctx context.Context, accountID, channel string) (int, error)

	// OldestSession returns the oldest (by creation time) non-revoked session
	// matching (account, channel), or nil when nothing matches.
	OldestSession(ctx context.Context, accountID, channel string) (*Session, error)

	CreateRefreshGrant(ctx context.Context, grant *RefreshGrant) error
	GetRefreshGrantByToken(ctx context.Context, token string) (*RefreshGrant, error)
}
