// Package authutil holds password rules and bcrypt hashing.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds. bcrypt only reads the first 72 bytes, so longer
// input is rejected instead of silently truncated.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// BcryptCost is the work factor for new hashes.
const BcryptCost = 10

var (
	ErrPasswordRequired = errors.New("Password is required")
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 bytes")
)

// ValidatePassword checks a new password against the length rules.
func ValidatePassword(pw string) error {
	if strings.TrimSpace(pw) == "" {
		return ErrPasswordRequired
	}
	if len([]rune(pw)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(hash, pw string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
