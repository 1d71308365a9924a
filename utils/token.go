package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateLinkToken returns a 64-character hex token with 256 bits of
// entropy. Uniqueness is enforced by the store's unique index on the token
// column, not re-checked here.
func GenerateLinkToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
