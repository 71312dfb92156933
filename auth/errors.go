package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/arsalanrobotronics/famaserve-admin-backend/accounts"
)

// Failure taxonomy of the session core. Every error that can reach the
// boundary is one of these (or wraps one); anything else is treated as an
// internal fault and never surfaced with detail.
var (
	ErrInvalidUsername      = errors.New("Invalid Username")
	ErrInvalidPassword      = errors.New("Invalid Password")
	ErrRoleArchived         = errors.New("Role is archived")
	ErrMissingToken         = errors.New("Token not found")
	ErrInvalidSignature     = errors.New("invalid token signature")
	ErrSessionRevoked       = errors.New("session revoked")
	ErrAccountNotFound      = errors.New("account not found")
	ErrTokenInvalid         = errors.New("Token is not correct")
	ErrRefreshExpired       = errors.New("refresh token expired")
	ErrCurrentPasswordWrong = errors.New("Current password is incorrect")
	ErrSecretUnchanged      = errors.New("New password must be different from current password")
	ErrSecretReused         = errors.New("You cannot use a password that was used in the last 10 password changes")
	ErrEmailTaken           = errors.New("Email already exists")
)

// AccountInactiveError reports a login against an account whose status is not
// active. Checked before the lock state; the status is echoed back verbatim.
type AccountInactiveError struct {
	Status accounts.Status
}

func (e *AccountInactiveError) Error() string {
	return fmt.Sprintf("Your account is %s", e.Status)
}

// AccountLockedError reports a login against a locked account, carrying the
// instant the lock window ends. The credential is never checked while locked.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("User is locked until %s", e.Until.Format(time.Kitchen))
}
