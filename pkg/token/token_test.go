package token

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestGenerateProducesURLSafeHex(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		tok := Generate()
		require.Len(t, tok, Length)
		require.Regexp(t, tokenPattern, tok)
		_, dup := seen[tok]
		require.False(t, dup, "duplicate token generated")
		seen[tok] = struct{}{}
	}
}

func TestNormalizeAndHash(t *testing.T) {
	require.Equal(t, "abc123", Normalize("  ABC123 "))
	require.Equal(t, Hash("abc123"), Hash(" ABC123"))
	require.Len(t, Hash("abc"), 64)
}

func TestExpiresAtRoundTrip(t *testing.T) {
	now := time.Now()

	require.False(t, IsExpired(ExpiresAt(now, 7), now))
	require.True(t, IsExpired(ExpiresAt(now, -1), now))
}

func TestExpiresAtUsesCalendarDaysInUTC(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	now := time.Date(2024, 2, 28, 10, 0, 0, 0, jst)

	got := ExpiresAt(now, 2)
	require.Equal(t, time.UTC, got.Location())
	require.Equal(t, time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC), got)
}

func TestIsUsed(t *testing.T) {
	stamp := time.Now()

	require.False(t, IsUsed(false, nil))
	require.False(t, IsUsed(false, &stamp))
	require.False(t, IsUsed(true, nil))
	require.True(t, IsUsed(true, &stamp))
}
