package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns the hex SHA-256 of a bearer token so raw tokens never
// appear in cache keys.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SecretsEqual compares two shared secrets in constant time.
func SecretsEqual(expected, provided string) bool {
	if expected == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(provided))
}
