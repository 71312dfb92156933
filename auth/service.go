package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/arsalanrobotronics/famaserve-admin-backend/accounts"
	"github.com/arsalanrobotronics/famaserve-admin-backend/internal/utils"
	"github.com/arsalanrobotronics/famaserve-admin-backend/roles"
	"github.com/arsalanrobotronics/famaserve-admin-backend/sessions"
	"github.com/arsalanrobotronics/famaserve-admin-backend/token"
)

// Lockout defaults. The threshold counts consecutive failed credential
// checks; the duration is the window during which the credential is never
// re-checked.
const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 10 * time.Minute
)

// Repos holds all repository dependencies for the Service.
type Repos struct {
	Accounts accounts.Repo
	Roles    roles.Repo
	Sessions sessions.Store
}

// LoginResult is what a successful issuance hands back to the boundary:
// both tokens, the access expiry instant and the account/role pair for the
// response summary.
type LoginResult struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
	Account         *accounts.Account
	Role            *roles.Role
}

// Service implements the session/credential lifecycle: issuing, bounding and
// revoking bearer tokens with a per-account concurrent-session limit, the
// lockout policy and the password-change rules.
type Service struct {
	repos            Repos
	limiter          *sessions.Limiter
	issuer           *token.Issuer
	signer           token.Signer
	bcryptCost       int
	lockoutThreshold int
	lockoutDuration  time.Duration
	nowFunc          func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLockoutPolicy overrides the failed-attempt threshold and lock window.
func WithLockoutPolicy(threshold int, duration time.Duration) ServiceOption {
	return func(s *Service) {
		if threshold > 0 {
			s.lockoutThreshold = threshold
		}
		if duration > 0 {
			s.lockoutDuration = duration
		}
	}
}

// WithBcryptCost sets the hashing cost used for new secrets.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// NewService initializes a new Service with required dependencies. Optional
// configuration can be provided via options.
func NewService(repos Repos, limiter *sessions.Limiter, issuer *token.Issuer, signer token.Signer, options ...ServiceOption) (*Service, error) {
	if repos.Accounts == nil {
		return nil, errors.New("[NewService] Accounts repo is required")
	}
	if repos.Roles == nil {
		return nil, errors.New("[NewService] Roles repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions store is required")
	}
	if limiter == nil {
		return nil, errors.New("[NewService] limiter is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewService] issuer is required")
	}
	if signer == nil {
		return nil, errors.New("[NewService] signer is required")
	}

	s := &Service{
		repos:            repos,
		limiter:          limiter,
		issuer:           issuer,
		signer:           signer,
		lockoutThreshold: DefaultLockoutThreshold,
		lockoutDuration:  DefaultLockoutDuration,
		nowFunc:          time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login checks the credentials against the lockout policy and, on success,
// admits and issues a new bounded session for the channel.
func (s *Service) Login(ctx context.Context, username, password, channel string) (*LoginResult, error) {
	account, err := s.repos.Accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, ErrInvalidUsername
		}
		return nil, errors.Wrap(err, "[Service.Login] account lookup")
	}

	role, err := s.gateAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	if !account.CheckPassword(password) {
		return nil, s.recordFailure(ctx, account)
	}

	return s.establishSession(ctx, account, role, channel)
}

// LoginFederated issues a session for an account located by its verified
// email, skipping the credential check. The status, lock and role gates still
// apply, so a locked or suspended account cannot sidestep them through the
// identity provider.
func (s *Service) LoginFederated(ctx context.Context, email, channel string) (*LoginResult, error) {
	account, err := s.repos.Accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, "[Service.LoginFederated] account lookup")
	}

	role, err := s.gateAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	return s.establishSession(ctx, account, role, channel)
}

// gateAccount runs the pre-credential checks in their fixed order: activity
// status, lock state, then role state.
func (s *Service) gateAccount(ctx context.Context, account *accounts.Account) (*roles.Role, error) {
	if !account.Active() {
		return nil, &AccountInactiveError{Status: account.Status}
	}

	if until := account.LockedUntil(s.nowFunc(), s.lockoutDuration); until != nil {
		return nil, &AccountLockedError{Until: *until}
	}

	role, err := s.repos.Roles.Get(ctx, account.RoleID)
	if err != nil {
		if errors.Is(err, roles.ErrNotFound) {
			// A dangling role reference grants no scopes but does not block
			// the login.
			return &roles.Role{ID: account.RoleID}, nil
		}
		return nil, errors.Wrap(err, "[Service.gateAccount] role lookup")
	}
	if role.Archived() {
		return nil, ErrRoleArchived
	}
	return role, nil
}

// recordFailure increments the failure counter and locks the account once the
// counter reaches the threshold. The counter itself is left as-is on lock.
func (s *Service) recordFailure(ctx context.Context, account *accounts.Account) error {
	attempts, err := s.repos.Accounts.IncrementLoginAttempts(ctx, account.ID)
	if err != nil {
		return errors.Wrap(err, "[Service.recordFailure] increment attempts")
	}
	if attempts < s.lockoutThreshold {
		return ErrInvalidPassword
	}

	now := s.nowFunc()
	if err := s.repos.Accounts.SetLocked(ctx, account.ID, now); err != nil {
		return errors.Wrap(err, "[Service.recordFailure] set locked")
	}
	return &AccountLockedError{Until: now.Add(s.lockoutDuration)}
}

func (s *Service) establishSession(ctx context.Context, account *accounts.Account, role *roles.Role, channel string) (*LoginResult, error) {
	if err := s.limiter.Admit(ctx, account.ID, channel); err != nil {
		return nil, errors.Wrap(err, "[Service.establishSession] limiter admit")
	}

	pair, err := s.issuer.Issue(ctx, account, role.Permissions, channel)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.establishSession] issue tokens")
	}

	now := s.nowFunc()
	if err := s.repos.Accounts.ResetLockout(ctx, account.ID, now); err != nil {
		return nil, errors.Wrap(err, "[Service.establishSession] reset lockout")
	}
	account.LoginAttempts = 0
	account.LockedAt = nil
	account.LoginAt = now

	return &LoginResult{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt,
		Account:         account,
		Role:            role,
	}, nil
}

// Authenticate validates an incoming bearer token and cross-checks the
// referenced session record for revocation. It is the mandatory synchronous
// gate in front of every authenticated request.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*accounts.Account, *token.AccessClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, nil, ErrMissingToken
	}

	claims, err := token.ParseAccess(rawToken, s.signer)
	if err != nil {
		return nil, nil, ErrInvalidSignature
	}

	session, err := s.repos.Sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return nil, nil, ErrSessionRevoked
		}
		return nil, nil, errors.Wrap(err, "[Service.Authenticate] session lookup")
	}
	if session.Revoked() || session.Expired(s.nowFunc()) {
		return nil, nil, ErrSessionRevoked
	}

	account, err := s.repos.Accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, errors.Wrap(err, "[Service.Authenticate] account lookup")
	}

	return account, claims, nil
}

// Logout deletes the session referenced by the token, cascading to its
// refresh grant. A second logout with the same token reports ErrTokenInvalid
// because the session is already gone.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	if strings.TrimSpace(rawToken) == "" {
		return ErrMissingToken
	}

	claims, err := token.ParseAccess(rawToken, s.signer)
	if err != nil || claims.SessionID == "" {
		return ErrTokenInvalid
	}

	if err := s.repos.Sessions.DeleteSession(ctx, claims.SessionID); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return ErrTokenInvalid
		}
		return errors.Wrap(err, "[Service.Logout] delete session")
	}
	return nil
}

// Refresh rotates a refresh grant into a fresh session pair. The old session
// and its grant are deleted before the new pair is admitted, so rotation can
// never double-count against the session limit.
func (s *Service) Refresh(ctx context.Context, rawRefreshToken, channel string) (*LoginResult, error) {
	if strings.TrimSpace(rawRefreshToken) == "" {
		return nil, ErrMissingToken
	}

	if _, err := token.ParseRefresh(rawRefreshToken, s.signer); err != nil {
		return nil, ErrTokenInvalid
	}

	grant, err := s.repos.Sessions.GetRefreshGrantByToken(ctx, rawRefreshToken)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, errors.Wrap(err, "[Service.Refresh] grant lookup")
	}
	if grant.Revoked() {
		return nil, ErrSessionRevoked
	}
	if grant.Expired(s.nowFunc()) {
		return nil, ErrRefreshExpired
	}

	session, err := s.repos.Sessions.GetSession(ctx, grant.SessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, errors.Wrap(err, "[Service.Refresh] session lookup")
	}
	if session.Revoked() {
		return nil, ErrSessionRevoked
	}

	account, err := s.repos.Accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, "[Service.Refresh] account lookup")
	}

	role, err := s.gateAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Sessions.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, sessions.ErrNotFound) {
		return nil, errors.Wrap(err, "[Service.Refresh] delete rotated session")
	}

	return s.establishSession(ctx, account, role, channel)
}

// ChangePassword verifies the current secret and installs a new one, pushing
// the replaced hash onto the bounded reuse history.
func (s *Service) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	account, err := s.repos.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return ErrAccountNotFound
		}
		return errors.Wrap(err, "[Service.ChangePassword] account lookup")
	}

	if !account.CheckPassword(currentPassword) {
		return ErrCurrentPasswordWrong
	}
	if account.CheckPassword(newPassword) {
		return ErrSecretUnchanged
	}
	if account.UsedRecently(newPassword) {
		return ErrSecretReused
	}

	newHash, err := accounts.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] hash password")
	}

	account.PushPasswordHistory(account.PasswordHash)
	if err := s.repos.Accounts.UpdateSecret(ctx, account.ID, newHash, account.OldPasswordHashes); err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] update secret")
	}
	return nil
}

// SetPassword is the administrative reset: it replaces the secret without
// checking the current one or the reuse history.
func (s *Service) SetPassword(ctx context.Context, username, newPassword string) (*accounts.Account, error) {
	account, err := s.repos.Accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, "[Service.SetPassword] account lookup")
	}

	newHash, err := accounts.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.SetPassword] hash password")
	}
	if err := s.repos.Accounts.UpdateSecret(ctx, account.ID, newHash, account.OldPasswordHashes); err != nil {
		return nil, errors.Wrap(err, "[Service.SetPassword] update secret")
	}
	account.PasswordHash = newHash
	return account, nil
}

// Profile returns the account together with its role for the profile views.
func (s *Service) Profile(ctx context.Context, accountID string) (*accounts.Account, *roles.Role, error) {
	account, err := s.repos.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, errors.Wrap(err, "[Service.Profile] account lookup")
	}
	role, err := s.repos.Roles.Get(ctx, account.RoleID)
	if err != nil {
		if errors.Is(err, roles.ErrNotFound) {
			return account, nil, nil // profile without a resolvable role still renders
		}
		return nil, nil, errors.Wrap(err, "[Service.Profile] role lookup")
	}
	return account, role, nil
}

var usernameSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// UpdateProfile applies a profile change. A changed full name re-derives the
// unique username from it; a changed email is checked for uniqueness first.
func (s *Service) UpdateProfile(ctx context.Context, accountID, fullName, email string) (*accounts.Account, *roles.Role, error) {
	account, err := s.repos.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, errors.Wrap(err, "[Service.UpdateProfile] account lookup")
	}

	patch := accounts.Patch{FullName: utils.Ptr(fullName), Email: utils.Ptr(email)}

	if email != account.Email {
		taken, err := s.repos.Accounts.EmailTaken(ctx, email, accountID)
		if err != nil {
			return nil, nil, errors.Wrap(err, "[Service.UpdateProfile] email lookup")
		}
		if taken {
			return nil, nil, ErrEmailTaken
		}
	}

	if fullName != account.FullName {
		username, err := s.deriveUsername(ctx, fullName, accountID)
		if err != nil {
			return nil, nil, err
		}
		patch.Username = utils.Ptr(username)
	}

	if err := s.repos.Accounts.Update(ctx, accountID, patch); err != nil {
		return nil, nil, errors.Wrap(err, "[Service.UpdateProfile] update account")
	}
	return s.Profile(ctx, accountID)
}

// deriveUsername lowercases the full name, collapses separator runs to dots
// and suffixes a counter until the handle is unique.
func (s *Service) deriveUsername(ctx context.Context, fullName, excludeID string) (string, error) {
	base := usernameSeparators.ReplaceAllString(strings.ToLower(fullName), ".")
	base = strings.Trim(base, ".")

	username := base
	for count := 1; ; count++ {
		taken, err := s.repos.Accounts.UsernameTaken(ctx, username, excludeID)
		if err != nil {
			return "", errors.Wrap(err, "[Service.deriveUsername] username lookup")
		}
		if !taken {
			return username, nil
		}
		username = fmt.Sprintf("%s.%d", base, count)
	}
}
