package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*TokenBlacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenBlacklist(client), mr
}

func TestAccessTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	bl, mr := newTestBlacklist(t)

	require.NoError(t, bl.AddAccessToken(ctx, "jti-1", time.Now().Add(10*time.Minute)))

	ok, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bl.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(11 * time.Minute)
	ok, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiredTokenIsNotStored(t *testing.T) {
	ctx := context.Background()
	bl, mr := newTestBlacklist(t)

	require.NoError(t, bl.AddAccessToken(ctx, "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(tokenKeyPrefix+"old"))
}

func TestUserBlacklist(t *testing.T) {
	ctx := context.Background()
	bl, _ := newTestBlacklist(t)

	issuedBefore := time.Now().Add(-time.Hour)
	require.NoError(t, bl.BlacklistUser(ctx, "user-1", time.Hour))

	ok, err := bl.IsUserBlacklisted(ctx, "user-1", issuedBefore)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bl.IsUserBlacklisted(ctx, "user-1", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = bl.IsUserBlacklisted(ctx, "user-2", issuedBefore)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPing(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	assert.NoError(t, bl.Ping(context.Background()))

	mr.Close()
	assert.Error(t, bl.Ping(context.Background()))
}
