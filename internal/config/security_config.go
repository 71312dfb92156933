package config

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type SecurityConfig interface {
	GetBcryptCost() int
	GetLockoutThreshold() int
	GetLockoutDuration() time.Duration
	GetSessionLimit() int
	GetEvictionScope() string
	GetAdminUsername() string
	GetAdminPassword() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetBcryptCost reads the deployment's hashing cost factor (SALT, historical
// name) and falls back to the library default when absent or out of range.
func (Security) GetBcryptCost() int {
	cost := GetEnvInt("SALT", bcrypt.DefaultCost)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}

func (Security) GetLockoutThreshold() int {
	return GetEnvInt("LOCKOUT_THRESHOLD", 5)
}

func (Security) GetLockoutDuration() time.Duration {
	return GetEnvDuration("LOCKOUT_DURATION", 10*time.Minute)
}

// GetSessionLimit caps concurrent non-revoked sessions per account.
func (Security) GetSessionLimit() int {
	return GetEnvInt("SESSION_LIMIT", 3)
}

// GetEvictionScope selects the session limiter policy: "legacy" (account-wide
// count, per-channel eviction) or "channel" (fully channel-scoped).
func (Security) GetEvictionScope() string {
	return GetEnv("SESSION_EVICTION_SCOPE", "legacy")
}

func (Security) GetAdminUsername() string {
	return GetEnv("ADMIN_USERNAME", "admin")
}

// GetAdminPassword is the bootstrap admin secret. When empty a random one is
// generated on first start and printed to the log.
func (Security) GetAdminPassword() string {
	return GetEnv("ADMIN_PASSWORD", "")
}
