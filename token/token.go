// Package token issues and verifies the bearer tokens that authorize an
// equipment pickup. Only the hex sha256 digest of a token is ever stored.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"time"
)

// DefaultWindow is how long a freshly issued token stays valid.
const DefaultWindow = 30 * time.Minute

const entropyBytes = 32

// Issue generates a URL-safe random token, the hash to store for it, and its
// expiry. A non-positive window falls back to DefaultWindow; managers pass a
// longer window when extending a request.
func Issue(window time.Duration) (raw, hash string, expiresAt time.Time) {
	if window <= 0 {
		window = DefaultWindow
	}
	buf := make([]byte, entropyBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; if it does the
		// process has no business issuing tokens.
		panic(err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, Hash(raw), time.Now().UTC().Add(window)
}

// Hash returns the hex sha256 digest of a raw token.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether raw hashes to storedHash, comparing in constant
// time. Empty or malformed input yields false, never an error.
func Verify(raw, storedHash string) bool {
	if raw == "" || len(storedHash) != sha256.Size*2 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Hash(raw)), []byte(storedHash)) == 1
}

// Expired reports whether expiresAt lies at or before now.
func Expired(expiresAt, now time.Time) bool {
	return !expiresAt.After(now)
}
