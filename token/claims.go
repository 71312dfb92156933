package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claim keys carried by the signed payloads. The access token references its
// session record through SessionIDKey; the refresh token carries no session
// reference and is matched against its persisted grant by value.
const (
	AccountIDKey = "userId"
	SessionIDKey = "accessTokenId"
	ClientIDKey  = "clientId"
	ScopesKey    = "scopes"
)

// AccessClaims is the verified payload of an access token.
type AccessClaims struct {
	AccountID string
	SessionID string
	ClientID  string
	Scopes    []string
}

// RefreshClaims is the verified payload of a refresh token.
type RefreshClaims struct {
	AccountID string
	ClientID  string
	Scopes    []string
}

// ParseAccess verifies the signature and expiry of a raw access token and
// extracts its claims.
func ParseAccess(rawToken string, signer Signer) (*AccessClaims, error) {
	claims, err := parse(rawToken, signer)
	if err != nil {
		return nil, err
	}

	accountID, _ := claims[AccountIDKey].(string)
	sessionID, _ := claims[SessionIDKey].(string)
	clientID, _ := claims[ClientIDKey].(string)

	return &AccessClaims{
		AccountID: accountID,
		SessionID: sessionID,
		ClientID:  clientID,
		Scopes:    claimScopes(claims),
	}, nil
}

// ParseRefresh verifies the signature and expiry of a raw refresh token and
// extracts its claims.
func ParseRefresh(rawToken string, signer Signer) (*RefreshClaims, error) {
	claims, err := parse(rawToken, signer)
	if err != nil {
		return nil, err
	}

	accountID, _ := claims[AccountIDKey].(string)
	clientID, _ := claims[ClientIDKey].(string)

	return &RefreshClaims{
		AccountID: accountID,
		ClientID:  clientID,
		Scopes:    claimScopes(claims),
	}, nil
}

func parse(rawToken string, signer Signer) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, signer.GetVerificationKey)
	if err != nil {
		return nil, errors.Wrap(err, "[token.parse] jwt.Parse")
	}
	if !parsed.Valid {
		return nil, errors.New("[token.parse] token not valid")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("[token.parse] error extracting claims")
	}
	return claims, nil
}

func claimScopes(claims jwt.MapClaims) []string {
	raw, ok := claims[ScopesKey].([]interface{})
	if !ok {
		return nil
	}
	scopes := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
