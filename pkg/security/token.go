package security

import (
	"crypto/rand"
	"encoding/hex"
)

// APIKeyPrefix marks every key issued by this control plane.
const APIKeyPrefix = "mls_live_"

// apiKeySuffixBytes gives 96 bits of entropy, 24 hex characters on the wire.
const apiKeySuffixBytes = 12

// NewAPIKey generates a fresh bearer token. Uniqueness is the caller's concern;
// the store re-checks for collisions before committing.
func NewAPIKey() (string, error) {
	b := make([]byte, apiKeySuffixBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return APIKeyPrefix + hex.EncodeToString(b), nil
}
