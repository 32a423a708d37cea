// Package password hashes and verifies user passwords with bcrypt.
//
// Digests are salted and cost-tuned; verification compares in constant time and treats
// any malformed digest as a mismatch.
package password

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinLength is the minimum number of characters accepted for a new password.
	MinLength = 8

	// MaxBytes is the bcrypt input limit; longer passwords are rejected rather than truncated.
	MaxBytes = 72
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

// Hasher produces and checks password digests.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using the given bcrypt cost.
// Out-of-range costs fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Validate checks the password policy without hashing.
func Validate(plaintext string) error {
	if utf8.RuneCountInString(plaintext) < MinLength {
		return ErrPasswordTooShort
	}
	if len(plaintext) > MaxBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Hash returns a salted bcrypt digest of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if err := Validate(plaintext); err != nil {
		return "", err
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest.
// A corrupted or foreign digest is a mismatch, never an error.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
