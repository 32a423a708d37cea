// Package token mints opaque bearer tokens.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultBytes is the amount of randomness in a token (256 bits).
const DefaultBytes = 32

// New returns a cryptographically random, URL-safe token built from nBytes random bytes.
// Values below DefaultBytes are raised to DefaultBytes.
func New(nBytes int) (string, error) {
	if nBytes < DefaultBytes {
		nBytes = DefaultBytes
	}

	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
