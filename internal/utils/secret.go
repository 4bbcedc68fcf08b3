package utils // package utils provides helper functions for secret generation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 hashing for reset tokens at rest
    "encoding/hex"  // hex encoding of random bytes and digests
)

// NewSecret returns a cryptographically secure random token encoded as a
// 64-character hex string.  Password reset tokens are generated this way:
// the raw value goes to the user, and only its hash is stored.
func NewSecret() (string, error) {
    return randomHex(32)
}

// HashSecret returns the SHA-256 hash of a raw secret as a hex string.
// Storing only the hash prevents a leaked database from yielding usable
// reset tokens.
func HashSecret(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
