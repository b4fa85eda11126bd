package twitch_test

import (
	"context"
	"testing"
	"time"

	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFactory_MemoryCache(t *testing.T) {
	t.Parallel()

	cache, err := twitch.NewCacheFromConfig(context.Background(), &twitch.CacheConfig{
		Type:   twitch.CacheTypeMemory,
		Memory: &twitch.MemoryCacheConfig{MaxSize: 5},
	})
	require.NoError(t, err)
	assert.IsType(t, &twitch.MemoryCache{}, cache)
}

func TestCacheFactory_NoOpCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cache, err := twitch.NewCacheFromConfig(ctx, &twitch.CacheConfig{Type: twitch.CacheTypeNone})
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "key", &twitch.CacheEntry{Data: []byte("x")}))

	_, err = cache.Get(ctx, "key")
	require.ErrorIs(t, err, twitch.ErrCacheDisabled)
	assert.False(t, cache.Has(ctx, "key"))
	require.NoError(t, cache.Delete(ctx, "key"))
	require.NoError(t, cache.Clear(ctx))
}

func TestCacheFactory_NATSRequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := twitch.NewCacheFromConfig(context.Background(), &twitch.CacheConfig{Type: twitch.CacheTypeNATS})
	require.ErrorIs(t, err, twitch.ErrNATSConfigRequired)

	_, err = twitch.NewCacheFromConfig(context.Background(), &twitch.CacheConfig{
		Type: twitch.CacheTypeNATS,
		NATS: &twitch.NATSKVConfig{},
	})
	require.ErrorIs(t, err, twitch.ErrNATSURLRequired)
}

func TestCacheFactory_InvalidType(t *testing.T) {
	t.Parallel()

	_, err := twitch.NewCacheFromConfig(context.Background(), &twitch.CacheConfig{Type: "redis"})
	require.ErrorIs(t, err, twitch.ErrInvalidCacheType)
}

func TestCacheFactory_NilConfig(t *testing.T) {
	t.Parallel()

	cache, err := twitch.NewCacheFromConfig(context.Background(), nil)
	require.NoError(t, err)
	assert.IsType(t, &twitch.MemoryCache{}, cache)
}

func TestParseCacheType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    twitch.CacheType
		wantErr bool
	}{
		{input: "memory", want: twitch.CacheTypeMemory},
		{input: "nats", want: twitch.CacheTypeNATS},
		{input: "none", want: twitch.CacheTypeNone},
		{input: "", want: twitch.CacheTypeNone},
		{input: "redis", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := twitch.ParseCacheType(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, twitch.ErrInvalidCacheType)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCacheBuilder(t *testing.T) {
	t.Parallel()

	builder := twitch.NewCacheBuilder().
		WithType(twitch.CacheTypeMemory).
		WithMemoryConfig(50).
		WithTTL(2 * time.Minute)

	config := builder.Config()
	assert.Equal(t, 50, config.Memory.MaxSize)
	assert.Equal(t, 2*time.Minute, config.Options.TTL)

	cache, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cache)
}

func TestTieredCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	local := twitch.NewMemoryCache(10)
	shared := twitch.NewNATSKVCacheFromKeyValue(nil, newMemoryKV())
	tiered := twitch.NewTieredCache(local, shared)

	require.NoError(t, shared.Set(ctx, "key", &twitch.CacheEntry{Data: []byte("from-nats")}))

	entry, err := tiered.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("from-nats"), entry.Data)
	assert.True(t, local.Has(ctx, "key"))

	require.NoError(t, tiered.Set(ctx, "other", &twitch.CacheEntry{Data: []byte("both")}))
	assert.True(t, local.Has(ctx, "other"))
	assert.True(t, shared.Has(ctx, "other"))

	require.NoError(t, tiered.Delete(ctx, "key"))
	assert.False(t, tiered.Has(ctx, "key"))

	_, err = tiered.Get(ctx, "key")
	require.ErrorIs(t, err, twitch.ErrNotInAnyTier)

	require.NoError(t, tiered.Clear(ctx))
	assert.False(t, tiered.Has(ctx, "other"))
	require.NoError(t, tiered.Close())
}

func TestDefaultCacheConfig(t *testing.T) {
	t.Parallel()

	config := twitch.DefaultCacheConfig()
	assert.Equal(t, twitch.CacheTypeMemory, config.Type)
	assert.NotNil(t, config.Memory)
	assert.NotNil(t, config.Options)
}
