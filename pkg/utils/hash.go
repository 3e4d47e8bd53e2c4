package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashString returns a stable hex digest of input.
func HashString(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// StableID derives a short deterministic document id from its parts, so that
// loading the same catalogue twice overwrites instead of duplicating.
func StableID(parts ...string) string {
	return HashString(strings.ToLower(strings.Join(parts, "\x1f")))[:20]
}
