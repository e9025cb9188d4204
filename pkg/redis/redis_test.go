package redis

import (
	"context"
	"testing"
	"time"

	"github.com/dungji/dungji-market-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClient(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	require.NoError(t, Init(&config.RedisConfig{}))
	assert.False(t, Enabled())

	require.NoError(t, BlacklistToken(ctx, "tok", time.Minute))
	revoked, err := IsTokenBlacklisted(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute))
	var out map[string]string
	assert.ErrorIs(t, GetJSON(ctx, "k", &out), ErrCacheMiss)
	assert.NoError(t, Delete(ctx, "k"))
	assert.NoError(t, Close())
}
