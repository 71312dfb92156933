package accounts

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password with the given bcrypt cost. An out-of-range
// cost falls back to the library default rather than failing.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash verifies a submitted password against a stored hash.
// It fails closed: a malformed hash or any internal bcrypt error is reported
// as a mismatch, never propagated.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword verifies a submitted password against the account's current hash.
func (a *Account) CheckPassword(password string) bool {
	return CheckPasswordHash(password, a.PasswordHash)
}
