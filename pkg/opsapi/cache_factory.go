package opsapi

import (
	"fmt"
	"time"

	"github.com/fivetwenty-io/opsapi-client/internal/constants"
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

// CacheConfig configures the cache backend.
type CacheConfig struct {
	// Type is the cache backend type.
	Type CacheType

	// Memory cache configuration.
	Memory *MemoryCacheConfig

	// NATS KV cache configuration.
	NATS *NATSKVConfig

	// TTL applied to entries written by the SDK. Zero selects the
	// default.
	TTL time.Duration
}

// MemoryCacheConfig configures memory cache.
type MemoryCacheConfig struct {
	// MaxSize is the maximum number of items in the cache.
	MaxSize int
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:   CacheTypeMemory,
		Memory: &MemoryCacheConfig{MaxSize: constants.DefaultCacheSize},
		TTL:    constants.DefaultCacheTTL,
	}
}

// EntryTTL returns the configured TTL, falling back to the default.
func (c *CacheConfig) EntryTTL() time.Duration {
	if c == nil || c.TTL <= 0 {
		return constants.DefaultCacheTTL
	}

	return c.TTL
}

// NewCacheFromConfig creates a cache backend from configuration.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory:
		maxSize := constants.DefaultCacheSize
		if config.Memory != nil && config.Memory.MaxSize > 0 {
			maxSize = config.Memory.MaxSize
		}

		return NewMemoryCache(maxSize), nil

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS)

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}
