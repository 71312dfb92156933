package accounts

import (
	"time"
)

// Status represents the activity state of an account. Only active accounts may
// log in; the others are reported back verbatim in the login failure message.
type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusSuspended Status = "suspended"
)

// PasswordHistoryLimit bounds how many prior password hashes are retained per
// account for the reuse check on password change.
const PasswordHistoryLimit = 10

// Account is the identity record behind every issued session. It is created at
// registration and mutated by login attempts (failure counter, lock timestamp)
// and administrative updates; the core never hard-deletes it.
type Account struct {
	ID                string     `json:"id,omitempty"`
	Username          string     `json:"username,omitempty"`
	FullName          string     `json:"full_name,omitempty"`
	Email             string     `json:"email,omitempty"`
	PhoneNumber       string     `json:"phone_number,omitempty"`
	PasswordHash      string     `json:"-"` // never serialize
	OldPasswordHashes []string   `json:"-"` // bounded history for reuse checks - never serialize
	RoleID            string     `json:"role_id,omitempty"`
	Status            Status     `json:"status,omitempty"`
	LoginAttempts     int        `json:"-"`
	LockedAt          *time.Time `json:"-"`
	AvatarURL         string     `json:"avatar_url,omitempty"`
	CreatedAt         time.Time  `json:"created_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at,omitempty"`
	LoginAt           time.Time  `json:"login_at,omitempty"`
}

// Active reports whether the account may authenticate at all.
func (a *Account) Active() bool {
	return a.Status == StatusActive
}

// LockedUntil returns the instant the current lock window ends, or nil when
// the account is not locked or the window has already elapsed at `now`.
func (a *Account) LockedUntil(now time.Time, lockDuration time.Duration) *time.Time {
	if a.LockedAt == nil {
		return nil
	}
	until := a.LockedAt.Add(lockDuration)
	if !now.Before(until) {
		return nil
	}
	return &until
}

// UsedRecently reports whether the submitted password matches any of the
// retained prior hashes. Used by the password-change reuse check.
func (a *Account) UsedRecently(password string) bool {
	for _, hash := range a.OldPasswordHashes {
		if CheckPasswordHash(password, hash) {
			return true
		}
	}
	return false
}

// PushPasswordHistory appends the given hash to the retained history,
// discarding the oldest entries beyond PasswordHistoryLimit.
func (a *Account) PushPasswordHistory(hash string) {
	a.OldPasswordHashes = append(a.OldPasswordHashes, hash)
	if len(a.OldPasswordHashes) > PasswordHistoryLimit {
		a.OldPasswordHashes = a.OldPasswordHashes[len(a.OldPasswordHashes)-PasswordHistoryLimit:]
	}
}
