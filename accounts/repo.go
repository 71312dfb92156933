package accounts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repos when no account matches the lookup.
var ErrNotFound = errors.New("account not found")

type Repo interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context, offset, limit int) ([]*Account, error)

	// Update applies only the fields explicitly set on the patch.
	Update(ctx context.Context, id string, patch Patch) error

	// UpdateSecret replaces the stored hash and the bounded prior-hash history
	// in a single write.
	UpdateSecret(ctx context.Context, id string, hash string, history []string) error

	// IncrementLoginAttempts adds one to the failure counter and returns the
	// new value.
	IncrementLoginAttempts(ctx context.Context, id string) (int, error)

	// SetLocked stamps the lock timestamp. The failure counter is left as-is.
	SetLocked(ctx context.Context, id string, at time.Time) error

	// ResetLockout zeroes the failure counter, clears the lock timestamp and
	// records the login time. Called on every successful credential check.
	ResetLockout(ctx context.Context, id string, loginAt time.Time) error

	// UsernameTaken reports whether another account (excluding excludeID)
	// already holds the username.
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)

	// EmailTaken reports whether another account (excluding excludeID)
	// already holds the email.
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
}
