package server

import (
	"net/http"
	"time"

	"github.com/arsalanrobotronics/famaserve-admin-backend/accounts"
	"github.com/arsalanrobotronics/famaserve-admin-backend/audit"
	"github.com/arsalanrobotronics/famaserve-admin-backend/auth"
	"github.com/arsalanrobotronics/famaserve-admin-backend/roles"
)

// moduleAuthentication is the heading reported in every auth envelope and
// audit event.
const moduleAuthentication = "Authentication"

// channelHeader names the client channel (web, mobile, ...) a session is
// issued for.
const channelHeader = "channel"

// loginData shapes the payload of a successful issuance: both tokens, the
// access expiry and the account summary.
func loginData(result *auth.LoginResult) map[string]any {
	return map[string]any{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"expiresIn":    result.AccessExpiresAt,
		"user":         accountSummary(result.Account, result.Role),
	}
}

func accountSummary(account *accounts.Account, role *roles.Role) map[string]any {
	summary := map[string]any{
		"fullName":  account.FullName,
		"username":  account.Username,
		"roleId":    account.RoleID,
		"email":     account.Email,
		"avatarUrl": account.AvatarURL,
		"createdAt": account.CreatedAt,
		"loginAt":   account.LoginAt,
	}
	if role != nil {
		summary["roleName"] = role.Title
	}
	return summary
}

func (s *Server) recordAudit(r *http.Request, accountID, roleID, action string, data any) {
	event := audit.Event{
		AccountID: accountID,
		RoleID:    roleID,
		IP:        clientIP(r),
		Module:    moduleAuthentication,
		Action:    action,
		Data:      data,
		At:        time.Now(),
	}
	if err := s.audit.Record(r.Context(), event); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}

// LoginHandler validates the credentials and issues a bounded session for the
// request's channel.
func (s *Server) LoginHandler() http.HandlerFunc {
	type loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, "invalid request body", nil)
			return
		}
		if msg := firstMissing([]requiredField{
			{"username", req.Username},
			{"password", req.Password},
		}); msg != "" {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, msg, nil)
			return
		}

		result, err := s.svc.Login(r.Context(), req.Username, req.Password, r.Header.Get(channelHeader))
		if err != nil {
			s.writeServiceError(w, moduleAuthentication, err)
			return
		}

		data := loginData(result)
		s.recordAudit(r, result.Account.ID, result.Account.RoleID, "login", data)
		respond(w, moduleAuthentication, http.StatusOK, true, "Login Successfully", data)
	}
}

// LogoutHandler deletes the session referenced by the presented token. The
// second logout with the same token reports a token failure because the
// session is already gone.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r.Context())

		if err := s.svc.Logout(r.Context(), bearerToken(r)); err != nil {
			s.writeServiceError(w, moduleAuthentication, err)
			return
		}

		if account != nil {
			s.recordAudit(r, account.ID, account.RoleID, "logout", nil)
		}
		respond(w, moduleAuthentication, http.StatusOK, true, "User has been logout successfully", nil)
	}
}

// CheckAuthHandler is a probe behind the bearer gate: reaching it at all
// means the session is still valid.
func (s *Server) CheckAuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data any
		if claims := claimsFromContext(r.Context()); claims != nil {
			data = map[string]any{"scopes": claims.Scopes}
		}
		respond(w, moduleAuthentication, http.StatusOK, true, "User is still logged in", data)
	}
}

// RefreshHandler rotates a refresh grant into a fresh session pair.
func (s *Server) RefreshHandler() http.HandlerFunc {
	type refreshRequest struct {
		RefreshToken string `json:"refreshToken"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, "invalid request body", nil)
			return
		}
		if msg := firstMissing([]requiredField{{"refreshToken", req.RefreshToken}}); msg != "" {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, msg, nil)
			return
		}

		result, err := s.svc.Refresh(r.Context(), req.RefreshToken, r.Header.Get(channelHeader))
		if err != nil {
			s.writeServiceError(w, moduleAuthentication, err)
			return
		}

		data := loginData(result)
		s.recordAudit(r, result.Account.ID, result.Account.RoleID, "refresh", data)
		respond(w, moduleAuthentication, http.StatusOK, true, "Token refreshed successfully", data)
	}
}

// SetPasswordHandler is the administrative reset: it replaces an account's
// secret by handle without checking the current one.
func (s *Server) SetPasswordHandler() http.HandlerFunc {
	type setPasswordRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req setPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, "invalid request body", nil)
			return
		}
		if msg := firstMissing([]requiredField{
			{"username", req.Username},
			{"password", req.Password},
		}); msg != "" {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, msg, nil)
			return
		}

		account, err := s.svc.SetPassword(r.Context(), req.Username, req.Password)
		if err != nil {
			if err == auth.ErrAccountNotFound {
				respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, "User does not exists", nil)
				return
			}
			s.writeServiceError(w, moduleAuthentication, err)
			return
		}

		s.recordAudit(r, account.ID, account.RoleID, "setPassword", nil)
		respond(w, moduleAuthentication, http.StatusOK, true, "Password updated successfully", nil)
	}
}

// ProfileGetHandler returns the authenticated account's profile.
func (s *Server) ProfileGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r.Context())

		account, role, err := s.svc.Profile(r.Context(), account.ID)
		if err != nil {
			s.writeServiceError(w, moduleAuthentication, err)
			return
		}

		data := profileData(account, role)
		s.recordAudit(r, account.ID, account.RoleID, "getProfile", map[string]any{"userId": account.ID})
		respond(w, moduleAuthentication, http.StatusOK, true, "Profile fetched successfully", data)
	}
}

// ProfileUpdateHandler applies a profile change; a changed full name
// re-derives the unique username.
func (s *Server) ProfileUpdateHandler() http.HandlerFunc {
	type updateRequest struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		current := accountFromContext(r.Context())

		var req updateRequest
		if err := decodeJSON(r, &req); err != nil {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, "invalid request body", nil)
			return
		}
		if msg := firstMissing([]requiredField{
			{"fullName", req.FullName},
			{"email", req.Email},
		}); msg != "" {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, msg, nil)
			return
		}

		account, role, err := s.svc.UpdateProfile(r.Context(), current.ID, req.FullName, req.Email)
		if err != nil {
			s.writeServiceError(w, moduleAuthentication, err)
			return
		}

		data := profileData(account, role)
		s.recordAudit(r, account.ID, account.RoleID, "updateProfile", data)
		respond(w, moduleAuthentication, http.StatusOK, true, "Profile updated successfully", data)
	}
}

// ChangePasswordHandler verifies the current secret and installs a new one,
// enforcing the bounded reuse history.
func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	type changeRequest struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r.Context())

		var req changeRequest
		if err := decodeJSON(r, &req); err != nil {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, "invalid request body", nil)
			return
		}
		if msg := firstMissing([]requiredField{
			{"currentPassword", req.CurrentPassword},
			{"newPassword", req.NewPassword},
		}); msg != "" {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, msg, nil)
			return
		}
		if len(req.NewPassword) < 6 {
			respond(w, moduleAuthentication, http.StatusUnprocessableEntity, false, "New password must be at least 6 characters", nil)
			return
		}

		if err := s.svc.ChangePassword(r.Context(), account.ID, req.CurrentPassword, req.NewPassword); err != nil {
			s.writeServiceError(w, moduleAuthentication, err)
			return
		}

		s.recordAudit(r, account.ID, account.RoleID, "changePassword", map[string]any{"userId": account.ID})
		respond(w, moduleAuthentication, http.StatusOK, true, "Password changed successfully", nil)
	}
}

func profileData(account *accounts.Account, role *roles.Role) map[string]any {
	data := map[string]any{
		"fullName":    account.FullName,
		"username":    account.Username,
		"email":       account.Email,
		"phoneNumber": account.PhoneNumber,
		"roleId":      account.RoleID,
		"status":      account.Status,
		"createdAt":   account.CreatedAt,
		"updatedAt":   account.UpdatedAt,
	}
	if role != nil {
		data["roleName"] = role.Title
	}
	return data
}
