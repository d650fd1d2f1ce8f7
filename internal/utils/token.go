package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewLookupToken returns a 32-character hex token that lets a guest
// without an account retrieve their booking later.  Sixteen bytes of
// crypto/rand output make collisions statistically negligible.
func NewLookupToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
