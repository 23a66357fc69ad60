// Package token holds the opaque-token and expiry helpers shared by invitations,
// shared report links and magic sign-in links.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Length is the number of characters in a generated token.
const Length = 32

// Generate returns a random lowercase hex token with no separators, safe to embed in a URL
// path and insensitive to case folding. Each call draws 122 bits from crypto/rand.
func Generate() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Normalize trims and lowercases a token received from a client.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Hash returns the hex SHA-256 digest of a token, for tokens stored only as hashes.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(Normalize(raw)))
	return hex.EncodeToString(sum[:])
}

// ExpiresAt returns now plus the given number of calendar days, in UTC.
// Negative horizons yield a time in the past.
func ExpiresAt(now time.Time, days int) time.Time {
	return now.UTC().AddDate(0, 0, days)
}

// IsExpired reports whether expiresAt lies strictly before now.
func IsExpired(expiresAt, now time.Time) bool {
	return expiresAt.Before(now)
}

// IsUsed reports whether a one-time token has already been consumed.
func IsUsed(oneTime bool, accessedAt *time.Time) bool {
	return oneTime && accessedAt != nil
}
