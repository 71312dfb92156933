package config

import "time"

type TokenConfig interface {
	GetSigningSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type Token struct{}

var _ TokenConfig = Token{}

// GetSigningSecret is the server-held secret that signs and verifies every
// issued token (CLIENT_SECRET, historical name).
func (Token) GetSigningSecret() string {
	return GetEnv("CLIENT_SECRET", "")
}

// GetAccessTokenTTL bounds the access token and its session record.
func (Token) GetAccessTokenTTL() time.Duration {
	return GetEnvDuration("ACCESS_TOKEN_TTL", time.Hour)
}

func (Token) GetRefreshTokenTTL() time.Duration {
	return GetEnvDuration("REFRESH_TOKEN_TTL", 5*time.Hour)
}
