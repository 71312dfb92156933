package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/arsalanrobotronics/famaserve-admin-backend/internal/config"
)

const oidcStateCookie = "oidc_state"

func (s *Server) initOidc(ctx context.Context, cfg config.Config) error {
	provider, err := oidc.NewProvider(ctx, cfg.GetOidcIssuer())
	if err != nil {
		return errors.Wrap(err, "[Server initOidc] failed to create OIDC provider")
	}

	s.oidcProvider = provider
	s.oauth2Config = &oauth2.Config{
		ClientID:     cfg.GetOidcClientID(),
		ClientSecret: cfg.GetOidcClientSecret(),
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.GetOidcRedirectURL(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	s.oidcVerifier = provider.Verifier(&oidc.Config{
		ClientID: cfg.GetOidcClientID(),
	})
	return nil
}

// OidcLoginHandler starts the upstream authorization code flow. The state is
// pinned in a short-lived cookie and checked again on callback.
func (s *Server) OidcLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := randomState()
		if err != nil {
			respond(w, moduleAuthentication, http.StatusInternalServerError, false, internalErrorMessage, nil)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     oidcStateCookie,
			Value:    state,
			Path:     RouteOidcCallback,
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(5 * time.Minute),
		})

		http.Redirect(w, r, s.oauth2Config.AuthCodeURL(state), http.StatusFound)
	}
}

// OidcCallbackHandler exchanges the authorization code, verifies the ID
// token and issues a local session for the matching account.
func (s *Server) OidcCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		if code == "" || state == "" {
			respond(w, moduleAuthentication, http.StatusBadRequest, false, "Missing code or state parameter", nil)
			return
		}

		cookie, err := r.Cookie(oidcStateCookie)
		if err != nil || cookie.Value != state {
			respond(w, moduleAuthentication, http.StatusBadRequest, false, "Invalid state parameter", nil)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: oidcStateCookie, Path: RouteOidcCallback, MaxAge: -1})

		oauth2Token, err := s.oauth2Config.Exchange(r.Context(), code)
		if err != nil {
			s.log.Warn().Err(err).Msg("oidc code exchange failed")
			respond(w, moduleAuthentication, http.StatusUnauthorized, false, "Unauthorized", nil)
			return
		}

		rawIDToken, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			respond(w, moduleAuthentication, http.StatusUnauthorized, false, "Unauthorized", nil)
			return
		}

		idToken, err := s.oidcVerifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			s.log.Warn().Err(err).Msg("oidc token verification failed")
			respond(w, moduleAuthentication, http.StatusUnauthorized, false, "Unauthorized", nil)
			return
		}

		var claims struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
			respond(w, moduleAuthentication, http.StatusUnauthorized, false, "Unauthorized", nil)
			return
		}

		result, err := s.svc.LoginFederated(r.Context(), claims.Email, r.Header.Get(channelHeader))
		if err != nil {
			s.writeServiceError(w, moduleAuthentication, err)
			return
		}

		data := loginData(result)
		s.recordAudit(r, result.Account.ID, result.Account.RoleID, "oidcLogin", nil)
		respond(w, moduleAuthentication, http.StatusOK, true, "Login Successfully", data)
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
