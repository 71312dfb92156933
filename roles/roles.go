package roles

import "time"

// Status represents the lifecycle state of a role.
type Status string

const (
	StatusActive   Status = "active"
	StatusLocked   Status = "locked"
	StatusArchived Status = "archived"
)

// Role groups the permission scopes granted to the accounts that reference it.
// Scopes are copied from the role onto a session at token-issuance time, so
// later edits to a role never mutate already-issued sessions.
type Role struct {
	ID              string    `json:"id,omitempty"`
	Title           string    `json:"title,omitempty"`
	Permissions     []string  `json:"permissions,omitempty"`
	Status          Status    `json:"status,omitempty"`
	AssociatedUsers int       `json:"associated_users,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// Archived reports whether the role has been retired. Logins against accounts
// that reference an archived role are rejected.
func (r *Role) Archived() bool {
	return r.Status == StatusArchived
}
