package twitch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
)

// CacheType represents the type of cache backend.
type CacheType string

const (
	// CacheTypeMemory represents in-memory cache.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS represents NATS KV cache.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeNone represents no caching.
	CacheTypeNone CacheType = "none"
)

// Cache factory errors.
var (
	ErrNATSConfigRequired = errors.New("NATS configuration required for NATS cache")
	ErrCacheDisabled      = errors.New("cache disabled")
	ErrNotInAnyTier       = errors.New("key not found in any cache tier")
)

// CacheConfig configures a cache backend.
type CacheConfig struct {
	// Type is the cache backend type
	Type CacheType

	// Memory cache configuration
	Memory *MemoryCacheConfig

	// NATS KV cache configuration
	NATS *NATSKVConfig

	// Common options applied to any backend. If nil, DefaultCacheOptions() is used.
	Options *CacheOptions
}

// MemoryCacheConfig configures memory cache.
type MemoryCacheConfig struct {
	// MaxSize is the maximum number of items in the cache
	MaxSize int
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type: CacheTypeMemory,
		Memory: &MemoryCacheConfig{
			MaxSize: constants.DefaultCacheSize,
		},
		Options: DefaultCacheOptions(),
	}
}

// ParseCacheType validates a cache type string.
func ParseCacheType(s string) (CacheType, error) {
	switch CacheType(s) {
	case CacheTypeMemory, CacheTypeNATS, CacheTypeNone:
		return CacheType(s), nil
	case "":
		return CacheTypeNone, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidCacheType, s)
	}
}

// NewCacheFromConfig creates the backend selected by config.Type. A NATS
// backend with a Memory section gets a local memory tier in front of it.
func NewCacheFromConfig(ctx context.Context, config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeNone:
		return NewNoOpCache(), nil
	case CacheTypeMemory:
		return NewMemoryCacheFromConfig(config.Memory), nil
	case CacheTypeNATS:
		return newNATSBackend(ctx, config)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidCacheType, config.Type)
	}
}

func newNATSBackend(ctx context.Context, config *CacheConfig) (Cache, error) {
	if config.NATS == nil {
		return nil, ErrNATSConfigRequired
	}

	shared, err := NewNATSKVCache(ctx, config.NATS)
	if err != nil {
		return nil, err
	}

	if config.Memory == nil {
		return shared, nil
	}

	return NewTieredCache(NewMemoryCacheFromConfig(config.Memory), shared), nil
}

// NewMemoryCacheFromConfig creates a memory cache, defaulting the size.
func NewMemoryCacheFromConfig(config *MemoryCacheConfig) *MemoryCache {
	size := constants.DefaultCacheSize
	if config != nil && config.MaxSize > 0 {
		size = config.MaxSize
	}

	return NewMemoryCache(size)
}

// NoOpCache stores nothing. Every lookup misses with ErrCacheDisabled.
type NoOpCache struct{}

// NewNoOpCache creates a NoOpCache.
func NewNoOpCache() *NoOpCache { return &NoOpCache{} }

func (*NoOpCache) Get(context.Context, string) (*CacheEntry, error) { return nil, ErrCacheDisabled }
func (*NoOpCache) Set(context.Context, string, *CacheEntry) error   { return nil }
func (*NoOpCache) Delete(context.Context, string) error             { return nil }
func (*NoOpCache) Clear(context.Context) error                      { return nil }
func (*NoOpCache) Has(context.Context, string) bool                 { return false }

// CacheBuilder assembles a CacheConfig fluently.
type CacheBuilder struct {
	config *CacheConfig
}

// NewCacheBuilder starts from a memory cache with default options.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{
		config: &CacheConfig{
			Type:    CacheTypeMemory,
			Options: DefaultCacheOptions(),
		},
	}
}

// WithType selects the backend.
func (b *CacheBuilder) WithType(cacheType CacheType) *CacheBuilder {
	b.config.Type = cacheType

	return b
}

// WithMemoryConfig bounds the memory cache, or the local tier of a NATS cache.
func (b *CacheBuilder) WithMemoryConfig(maxSize int) *CacheBuilder {
	b.config.Memory = &MemoryCacheConfig{MaxSize: maxSize}

	return b
}

// WithNATSConfig sets the NATS KV connection details.
func (b *CacheBuilder) WithNATSConfig(config *NATSKVConfig) *CacheBuilder {
	b.config.NATS = config

	return b
}

// WithTTL sets the entry TTL.
func (b *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	if b.config.Options == nil {
		b.config.Options = DefaultCacheOptions()
	}

	b.config.Options.TTL = ttl

	return b
}

// WithOptions replaces the cache options.
func (b *CacheBuilder) WithOptions(options *CacheOptions) *CacheBuilder {
	b.config.Options = options

	return b
}

// Config returns the configuration built so far.
func (b *CacheBuilder) Config() *CacheConfig {
	return b.config
}

// Build creates the configured cache.
func (b *CacheBuilder) Build(ctx context.Context) (Cache, error) {
	return NewCacheFromConfig(ctx, b.config)
}

// TieredCache layers caches from fastest to slowest. A hit in a slower tier
// is copied into every faster one; writes go to all tiers.
type TieredCache struct {
	tiers []Cache
}

// NewTieredCache creates a TieredCache, fastest tier first.
func NewTieredCache(tiers ...Cache) *TieredCache {
	return &TieredCache{tiers: tiers}
}

// Get returns the entry from the fastest tier holding key.
func (c *TieredCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for depth, tier := range c.tiers {
		entry, err := tier.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, faster := range c.tiers[:depth] {
			_ = faster.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, ErrNotInAnyTier
}

// Set writes entry to every tier.
func (c *TieredCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(tier Cache) error { return tier.Set(ctx, key, entry) })
}

// Delete removes key from every tier.
func (c *TieredCache) Delete(ctx context.Context, key string) error {
	return c.each(func(tier Cache) error { return tier.Delete(ctx, key) })
}

// Clear empties every tier.
func (c *TieredCache) Clear(ctx context.Context) error {
	return c.each(func(tier Cache) error { return tier.Clear(ctx) })
}

// Has reports whether any tier holds key.
func (c *TieredCache) Has(ctx context.Context, key string) bool {
	return slices.ContainsFunc(c.tiers, func(tier Cache) bool { return tier.Has(ctx, key) })
}

// Close closes every tier that holds a connection.
func (c *TieredCache) Close() error {
	return c.each(func(tier Cache) error {
		if closer, ok := tier.(io.Closer); ok {
			return closer.Close()
		}

		return nil
	})
}

func (c *TieredCache) each(fn func(tier Cache) error) error {
	errs := make([]error, 0, len(c.tiers))
	for _, tier := range c.tiers {
		errs = append(errs, fn(tier))
	}

	return errors.Join(errs...)
}
