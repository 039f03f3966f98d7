package opsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

// NATSKVConfig configures the NATS JetStream key-value cache backend.
type NATSKVConfig struct {
	// URL is the NATS server URL, e.g. nats.DefaultURL.
	URL string

	// Bucket is the KV bucket name. Created if it does not exist.
	Bucket string

	// Credentials is an optional path to a NATS credentials file.
	Credentials string
}

// NATSKVCache stores cache entries in a NATS JetStream key-value bucket so
// that multiple SDK processes can share one cache.
type NATSKVCache struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

// NewNATSKVCache connects to NATS and binds (or creates) the configured
// bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	opts := []nats.Option{nats.Name("opsapi-client cache")}
	if config.Credentials != "" {
		opts = append(opts, nats.UserCredentials(config.Credentials))
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("getting JetStream context: %w", err)
	}

	kv, err := js.KeyValue(config.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: config.Bucket})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("binding KV bucket %q: %w", config.Bucket, err)
	}

	return &NATSKVCache{conn: conn, kv: kv}, nil
}

// Get returns the entry stored under key.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kve, err := c.kv.Get(kvKey(key))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("getting cache key: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kve.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("parsing cache entry: %w", err)
	}

	if entry.Expired() {
		_ = c.Delete(ctx, key)

		return nil, ErrCacheKeyNotFound
	}

	return &entry, nil
}

// Set stores entry under key.
func (c *NATSKVCache) Set(_ context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = c.kv.Put(kvKey(key), data)
	if err != nil {
		return fmt.Errorf("putting cache key: %w", err)
	}

	return nil
}

// Delete removes the entry stored under key.
func (c *NATSKVCache) Delete(_ context.Context, key string) error {
	err := c.kv.Delete(kvKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting cache key: %w", err)
	}

	return nil
}

// Clear removes all entries in the bucket.
func (c *NATSKVCache) Clear(_ context.Context) error {
	keys, err := c.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing cache keys: %w", err)
	}

	for _, key := range keys {
		err = c.kv.Purge(key)
		if err != nil {
			return fmt.Errorf("purging cache key: %w", err)
		}
	}

	return nil
}

// Has reports whether a live entry exists under key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the NATS connection.
func (c *NATSKVCache) Close() {
	c.conn.Close()
}

// kvKey maps an arbitrary cache key onto the NATS KV key charset. Operation
// names contain slashes, which KV keys do not allow.
func kvKey(key string) string {
	return strings.ReplaceAll(key, "/", ".")
}
