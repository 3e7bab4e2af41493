package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, CheckPassword(hash, "hunter22"))
	assert.ErrorIs(t, CheckPassword(hash, "hunter23"), ErrInvalidCredentials)

	again, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "each hash gets its own salt")
}

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	token, claims, err := issuer.Issue(42, "jordan")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	id, err := parsed.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "jordan", parsed.Username)
	assert.Equal(t, claims.ID, parsed.ID)

	_, second, err := issuer.Issue(42, "jordan")
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, second.ID, "every token gets a fresh id")
}

func TestParseRejects(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, _, err := issuer.Issue(1, "a")
	require.NoError(t, err)

	_, err = NewIssuer("other-secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong key")

	_, err = issuer.Parse(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken, "tampered signature")

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(1, "a")
	require.NoError(t, err)
	_, err = issuer.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")
}

func testRevoker(t *testing.T, r Revoker) {
	t.Helper()
	ctx := context.Background()

	revoked, err := r.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err = r.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "stale", time.Now().Add(-time.Minute)))
	revoked, err = r.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked, "already-expired tokens need no entry")
}

func TestMemoryRevoker(t *testing.T) {
	m := NewMemoryRevoker()
	testRevoker(t, m)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	revoked, err := m.IsRevoked(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, revoked, "entries lapse with the token")

	require.NoError(t, m.Revoke(context.Background(), "new", time.Now().Add(3*time.Hour)))
	assert.NotContains(t, m.revoked, "abc", "lapsed entries are swept on write")
}

func TestRedisRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := NewRedisRevoker(rdb)
	testRevoker(t, r)

	assert.True(t, mr.Exists(revokedKeyPrefix+"abc"))
	mr.FastForward(2 * time.Hour)
	revoked, err := r.IsRevoked(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, revoked, "the key expires with the token")
}
