package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Digest returns the hex-encoded SHA-256 of a short-lived secret such as a one-time code.
// Stored challenges keep only the digest.
func Digest(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// DigestEqual reports, in constant time, whether provided hashes to storedDigest.
func DigestEqual(provided, storedDigest string) bool {
	return subtle.ConstantTimeCompare([]byte(Digest(provided)), []byte(storedDigest)) == 1
}
