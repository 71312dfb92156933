package sessions

import (
	"context"

	"github.com/pkg/errors"
)

// EvictionScope names how Admit counts and selects sessions for eviction.
type EvictionScope string

const (
	// EvictionScopeLegacy reproduces the historical behaviour: the count is
	// account-wide but the eviction candidate search is scoped to the login's
	// channel. When the account is over the limit and no session matches the
	// channel, nothing is evicted and the account-wide count keeps growing.
	EvictionScopeLegacy EvictionScope = "legacy"

	// EvictionScopeChannel counts and evicts within the (account, channel)
	// pair, so the limit holds per channel with no blind spot.
	EvictionScopeChannel EvictionScope = "channel"
)

// DefaultMaxSessions is the concurrent-session cap applied when none is
// configured.
const DefaultMaxSessions = 3

// Limiter enforces the bounded-session invariant on write: it is called
// before each session insert and displaces the oldest matching session once
// the cap is reached.
//
// The count-then-evict-then-create sequence is not transactional. Two logins
// for the same account can both pass the count check before either insert
// lands, transiently exceeding the cap by one. That is accepted: the limit is
// best-effort, and the overshoot is corrected on the next admission.
type Limiter struct {
	store Store
	max   int
	scope EvictionScope
}

func NewLimiter(store Store, maxSessions int, scope EvictionScope) *Limiter {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if scope == "" {
		scope = EvictionScopeLegacy
	}
	return &Limiter{store: store, max: maxSessions, scope: scope}
}

// Admit makes room for one new session for (accountID, channel), hard-deleting
// the oldest matching session when the configured cap is reached.
func (l *Limiter) Admit(ctx context.Context, accountID, channel string) error {
	count, err := l.count(ctx, accountID, channel)
	if err != nil {
		return errors.Wrap(err, "[Limiter.Admit] count sessions")
	}
	if count < l.max {
		return nil
	}

	oldest, err := l.store.OldestSession(ctx, accountID, channel)
	if err != nil {
		return errors.Wrap(err, "[Limiter.Admit] oldest session")
	}
	if oldest == nil {
		// Legacy scope only: over the account-wide limit but nothing on this
		// channel to displace.
		return nil
	}

	if err := l.store.DeleteSession(ctx, oldest.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Wrap(err, "[Limiter.Admit] evict oldest session")
	}
	return nil
}

func (l *Limiter) count(ctx context.Context, accountID, channel string) (int, error) {
	if l.scope == EvictionScopeChannel {
		return l.store.CountActiveByChannel(ctx, accountID, channel)
	}
	return l.store.CountActive(ctx, accountID)
}
