package sessions

import "time"

// Session is the persisted record backing one issued access token. The signed
// token payload references it by ID and never owns it: revocation is a matter
// of deleting or flagging this record, not of the token itself.
type Session struct {
	ID        string     `json:"id,omitempty"`
	AccountID string     `json:"account_id,omitempty"`
	ClientID  string     `json:"client_id,omitempty"`
	Channel   string     `json:"channel,omitempty"`
	Scopes    []string   `json:"scopes,omitempty"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at,omitempty"`
}

// Revoked reports whether the session has been explicitly revoked.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// Expired reports whether the session's lifetime has elapsed at `now`.
// Expiry is lazy: nothing sweeps expired records, they are rejected here at
// verification time and eventually displaced by the limiter.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// RefreshGrant is the long-lived record backing one issued refresh token,
// tied 1:1 to a Session. It is created alongside its session and deleted with
// it - the store cascades the delete so a revoked session can never be rotated
// back into existence through its grant.
type RefreshGrant struct {
	ID        string     `json:"id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	Token     string     `json:"-"` // raw refresh token string, kept for invalidation lookup - never serialize
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at,omitempty"`
}

// Revoked reports whether the grant has been explicitly revoked.
func (g *RefreshGrant) Revoked() bool {
	return g.RevokedAt != nil
}

// Expired reports whether the grant's lifetime has elapsed at `now`.
func (g *RefreshGrant) Expired(now time.Time) bool {
	return !g.ExpiresAt.IsZero() && now.After(g.ExpiresAt)
}
