package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/vesselflow/pkg/observability"
)

// GetJSON decodes the entry at key into v. It returns ErrCacheMiss when the
// key is absent or the stored bytes no longer decode.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("cache get: %w", err)
	}
	if !hit || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, KeyType(key))
		return ErrCacheMiss
	}
	observability.Cache().OnCacheHit(ctx, KeyType(key))
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	return nil
}
