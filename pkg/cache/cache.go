// Package cache stores derived artifacts (layouts, rendered SVG) keyed by
// content hash.
//
// # Backends
//
//   - [FileCache] keeps one JSON file per key under a directory; the CLI
//     default.
//   - [RedisCache] shares entries between server replicas.
//   - [NullCache] stores nothing.
//
// # Keys
//
// A [Keyer] derives keys from a graph hash plus the options that influence
// the result, so a changed rank separation never hits a stale layout:
//
//	key := cache.NewDefaultKeyer().LayoutKey(graphHash, cache.LayoutKeyOpts{
//	    Engine:  "graphviz",
//	    RankSep: 120,
//	    NodeSep: 50,
//	})
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss as (nil, false, nil); an error means the backend
// itself failed. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default time-to-live per entry kind. Layouts depend only on their key, so
// they live long; rendered artifacts are cheap to rebuild.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)
