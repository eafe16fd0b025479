package redis

import (
	"context"
	"testing"

	"landing-analytics/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)

	rdb, err := NewClient(context.Background(), config.RedisConfig{Address: mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, New(rdb, "landing:")
}

func TestStore_RoundTrip(t *testing.T) {
	mr, s := setupRedis(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "analyticsSessions")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "analyticsSessions", `[{"id":"s1"}]`))

	// stored under the prefix
	raw, err := mr.Get("landing:analyticsSessions")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"s1"}]`, raw)

	v, ok, err := s.Get(ctx, "analyticsSessions")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"s1"}]`, v)

	require.NoError(t, s.Remove(ctx, "analyticsSessions"))
	assert.False(t, mr.Exists("landing:analyticsSessions"))
}

func TestStore_ServerDown(t *testing.T) {
	mr, s := setupRedis(t)
	mr.Close()

	_, _, err := s.Get(context.Background(), "analyticsClicks")
	assert.Error(t, err)
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{Address: "127.0.0.1:1"})
	assert.Error(t, err)
}
