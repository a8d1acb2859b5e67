// Package cache provides a small key/value cache with pluggable backends.
//
// The CLI uses it to remember slow-changing API responses, such as the list
// of API versions an instance supports.
// Backends:
//   - [FileCache]: JSON files under the user cache directory (default)
//   - [RedisCache]: a shared Redis instance, for CI fleets
//   - [NewNullCache]: caching disabled
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores opaque byte values with an optional TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// GetJSON reads key and decodes it into v.
// A corrupt entry is treated as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// Namespace returns a view of c that prefixes every key with prefix.
// Views can be nested; prefixes concatenate.
func Namespace(c Cache, prefix string) Cache {
	if ns, ok := c.(*namespaced); ok {
		return &namespaced{inner: ns.inner, prefix: ns.prefix + prefix}
	}
	return &namespaced{inner: c, prefix: prefix}
}

type namespaced struct {
	inner  Cache
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return n.inner.Set(ctx, n.prefix+key, data, ttl)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

// Close does not close the shared backend; the owner of the root cache does.
func (n *namespaced) Close() error { return nil }

// Key joins a namespace with the SHA-256 of the JSON-encoded parts, so that
// ids, version segments and branch names can go in unescaped.
func Key(namespace string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return fmt.Sprintf("%s:%s", namespace, Hash(data))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewNullCache returns a cache that stores nothing. Every Get misses.
func NewNullCache() Cache { return nullCache{} }

type nullCache struct{}

func (nullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (nullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (nullCache) Delete(context.Context, string) error { return nil }

func (nullCache) Close() error { return nil }
