package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/arsalanrobotronics/famaserve-admin-backend/accounts"
	"github.com/arsalanrobotronics/famaserve-admin-backend/internal/config"
	"github.com/arsalanrobotronics/famaserve-admin-backend/roles"
	"github.com/google/uuid"
)

const DefaultAdminRoleTitle = "Super Admin"

// InitialiseSystem makes sure a fresh deployment has a usable admin role and
// account. Returns without touching anything when the admin already exists.
func (s *Server) InitialiseSystem(ctx context.Context, cfg config.Config) error {
	role, err := s.initialiseAdminRole(ctx)
	if err != nil {
		return errors.Wrap(err, "[Server InitialiseSystem] failed to bootstrap admin role")
	}

	generatedPassword, err := s.initialiseAdminAccount(ctx, cfg, role.ID)
	if err != nil {
		return errors.Wrap(err, "[Server InitialiseSystem] failed to bootstrap admin account")
	}

	if generatedPassword != "" {
		log.Printf("Admin account created:")
		log.Printf("   Username: %s", cfg.GetAdminUsername())
		log.Printf("   Password: %s     (change on first login)", generatedPassword)
	}
	return nil
}

func (s *Server) initialiseAdminRole(ctx context.Context) (*roles.Role, error) {
	role, err := s.repos.Roles.GetByTitle(ctx, DefaultAdminRoleTitle)
	if err == nil {
		return role, nil
	}

	now := time.Now()
	role = &roles.Role{
		ID:        uuid.NewString(),
		Title:     DefaultAdminRoleTitle,
		Status:    roles.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Roles.Upsert(ctx, role); err != nil {
		return nil, errors.Wrap(err, "[Server initialiseAdminRole] upsert")
	}
	return role, nil
}

// initialiseAdminAccount creates the admin user when missing, generating a
// random password if none is configured. The generated password is returned
// so the caller can surface it once.
func (s *Server) initialiseAdminAccount(ctx context.Context, cfg config.Config, roleID string) (string, error) {
	username := cfg.GetAdminUsername()
	if _, err := s.repos.Accounts.GetByUsername(ctx, username); err == nil {
		return "", nil
	}

	password := cfg.GetAdminPassword()
	generated := ""
	if password == "" {
		p, err := generatePassword()
		if err != nil {
			return "", errors.Wrap(err, "[Server initialiseAdminAccount] generate password")
		}
		password = p
		generated = p
	}

	hash, err := accounts.HashPassword(password, cfg.GetBcryptCost())
	if err != nil {
		return "", errors.Wrap(err, "[Server initialiseAdminAccount] hash password")
	}

	now := time.Now()
	account := &accounts.Account{
		ID:           uuid.NewString(),
		Username:     username,
		FullName:     "Administrator",
		PasswordHash: hash,
		RoleID:       roleID,
		Status:       accounts.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repos.Accounts.Create(ctx, account); err != nil {
		return "", errors.Wrap(err, "[Server initialiseAdminAccount] create account")
	}
	return generated, nil
}

func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
