package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/arsalanrobotronics/famaserve-admin-backend/accounts"
	"github.com/arsalanrobotronics/famaserve-admin-backend/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyAccount stores the authenticated account
	ContextKeyAccount ContextKey = "account"
	// ContextKeyClaims stores the verified access claims
	ContextKeyClaims ContextKey = "claims"
)

// bearerToken extracts the raw token from the Authorization header, or empty.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticate is the mandatory gate in front of every protected route: it
// verifies the bearer token, cross-checks the session record and loads the
// account into the request context before any business logic runs.
func (s *Server) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, claims, err := s.svc.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			s.writeServiceError(w, "Authentication", err)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyAccount, account)
		ctx = context.WithValue(ctx, ContextKeyClaims, claims)
		next(w, r.WithContext(ctx))
	}
}

// accountFromContext returns the account the Authenticate middleware stored.
func accountFromContext(ctx context.Context) *accounts.Account {
	account, _ := ctx.Value(ContextKeyAccount).(*accounts.Account)
	return account
}

func claimsFromContext(ctx context.Context) *token.AccessClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*token.AccessClaims)
	return claims
}
