package mongodb

import (
	"time"

	"github.com/arsalanrobotronics/famaserve-admin-backend/accounts"
	"github.com/arsalanrobotronics/famaserve-admin-backend/roles"
	"github.com/arsalanrobotronics/famaserve-admin-backend/sessions"
)

// Collection names match the deployed database.
const (
	accountsCollection      = "systemUsers"
	rolesCollection         = "roles"
	sessionsCollection      = "oauthTokens"
	refreshGrantsCollection = "oauthRefreshTokens"
	auditCollection         = "systemLogs"
)

type accountDoc struct {
	ID            string     `bson:"_id"`
	Username      string     `bson:"username"`
	FullName      string     `bson:"fullName,omitempty"`
	Email         string     `bson:"email,omitempty"`
	PhoneNumber   string     `bson:"phoneNumber,omitempty"`
	Password      string     `bson:"password"`
	OldPasswords  []string   `bson:"oldPasswords,omitempty"`
	RoleID        string     `bson:"roleId,omitempty"`
	Status        string     `bson:"status"`
	LoginAttempts int        `bson:"loginAttempts"`
	LockedAt      *time.Time `bson:"lockedAt,omitempty"`
	AvatarURL     string     `bson:"avatarUrl,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt"`
	LoginAt       time.Time  `bson:"loginAt,omitempty"`
}

func accountToDoc(a *accounts.Account) *accountDoc {
	return &accountDoc{
		ID:            a.ID,
		Username:      a.Username,
		FullName:      a.FullName,
		Email:         a.Email,
		PhoneNumber:   a.PhoneNumber,
		Password:      a.PasswordHash,
		OldPasswords:  a.OldPasswordHashes,
		RoleID:        a.RoleID,
		Status:        string(a.Status),
		LoginAttempts: a.LoginAttempts,
		LockedAt:      a.LockedAt,
		AvatarURL:     a.AvatarURL,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
		LoginAt:       a.LoginAt,
	}
}

func (d *accountDoc) toDomain() *accounts.Account {
	return &accounts.Account{
		ID:                d.ID,
		Username:          d.Username,
		FullName:          d.FullName,
		Email:             d.Email,
		PhoneNumber:       d.PhoneNumber,
		PasswordHash:      d.Password,
		OldPasswordHashes: d.OldPasswords,
		RoleID:            d.RoleID,
		Status:            accounts.Status(d.Status),
		LoginAttempts:     d.LoginAttempts,
		LockedAt:          d.LockedAt,
		AvatarURL:         d.AvatarURL,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		LoginAt:           d.LoginAt,
	}
}

type roleDoc struct {
	ID              string    `bson:"_id"`
	Title           string    `bson:"title"`
	Permissions     []string  `bson:"permissions"`
	Status          string    `bson:"status"`
	AssociatedUsers int       `bson:"associatedUsers,omitempty"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

func roleToDoc(r *roles.Role) *roleDoc {
	return &roleDoc{
		ID:              r.ID,
		Title:           r.Title,
		Permissions:     r.Permissions,
		Status:          string(r.Status),
		AssociatedUsers: r.AssociatedUsers,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (d *roleDoc) toDomain() *roles.Role {
	return &roles.Role{
		ID:              d.ID,
		Title:           d.Title,
		Permissions:     d.Permissions,
		Status:          roles.Status(d.Status),
		AssociatedUsers: d.AssociatedUsers,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type sessionDoc struct {
	ID        string     `bson:"_id"`
	AccountID string     `bson:"userId"`
	ClientID  string     `bson:"clientId,omitempty"`
	Channel   string     `bson:"channel,omitempty"`
	Scopes    []string   `bson:"scopes,omitempty"`
	RevokedAt *time.Time `bson:"revokedAt,omitempty"`
	CreatedAt time.Time  `bson:"createdAt"`
	ExpiresAt time.Time  `bson:"expiresAt"`
}

func sessionToDoc(s *sessions.Session) *sessionDoc {
	return &sessionDoc{
		ID:        s.ID,
		AccountID: s.AccountID,
		ClientID:  s.ClientID,
		Channel:   s.Channel,
		Scopes:    s.Scopes,
		RevokedAt: s.RevokedAt,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func (d *sessionDoc) toDomain() *sessions.Session {
	return &sessions.Session{
		ID:        d.ID,
		AccountID: d.AccountID,
		ClientID:  d.ClientID,
		Channel:   d.Channel,
		Scopes:    d.Scopes,
		RevokedAt: d.RevokedAt,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

type refreshGrantDoc struct {
	ID        string     `bson:"_id"`
	SessionID string     `bson:"accessTokenId"`
	Token     string     `bson:"token"`
	RevokedAt *time.Time `bson:"revokedAt,omitempty"`
	CreatedAt time.Time  `bson:"createdAt"`
	ExpiresAt time.Time  `bson:"expiredAt"`
}

func refreshGrantToDoc(g *sessions.RefreshGrant) *refreshGrantDoc {
	return &refreshGrantDoc{
		ID:        g.ID,
		SessionID: g.SessionID,
		Token:     g.Token,
		RevokedAt: g.RevokedAt,
		CreatedAt: g.CreatedAt,
		ExpiresAt: g.ExpiresAt,
	}
}

func (d *refreshGrantDoc) toDomain() *sessions.RefreshGrant {
	return &sessions.RefreshGrant{
		ID:        d.ID,
		SessionID: d.SessionID,
		Token:     d.Token,
		RevokedAt: d.RevokedAt,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}
