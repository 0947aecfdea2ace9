package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AdminUser is the only Basic-auth username accepted for the dashboard.
const AdminUser = "admin"

// PasswordChecker validates dashboard Basic credentials against a bcrypt hash.
type PasswordChecker struct {
	hash []byte
}

// NewPasswordChecker returns a checker for hash. An empty hash rejects every password.
func NewPasswordChecker(hash string) *PasswordChecker {
	return &PasswordChecker{hash: []byte(strings.TrimSpace(hash))}
}

// Check reports whether user/password are the admin credentials.
func (c *PasswordChecker) Check(user, password string) bool {
	if c == nil || len(c.hash) == 0 || password == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(AdminUser)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
}

// HashPassword produces a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
