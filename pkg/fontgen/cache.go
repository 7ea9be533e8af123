package fontgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/ideamans/svgiconfont/pkg/shared/kvs"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
	"github.com/ideamans/svgiconfont/pkg/source"
)

// cacheVersion changes whenever the cached encoding or the key layout does
const cacheVersion = "v1"

// CachingConverter memoizes another converter in a kvs.Store. Cache
// failures are logged and bypassed, never returned.
type CachingConverter struct {
	next   Converter
	scope  string
	store  kvs.Store
	ttl    time.Duration
	logger logging.Logger
}

// NewCachingConverter wraps next. scope separates converters sharing one
// store, e.g. "builtin" or the external command line.
func NewCachingConverter(next Converter, scope string, store kvs.Store, ttl time.Duration, logger logging.Logger) *CachingConverter {
	return &CachingConverter{
		next:   next,
		scope:  scope,
		store:  store,
		ttl:    ttl,
		logger: logger.WithModule("cache"),
	}
}

// CacheKey hashes the converter input. Icon order does not matter; map
// keys in options are ordered by the JSON encoder.
func CacheKey(scope string, icons []source.Icon, opts Options) (string, error) {
	sorted := make([]source.Icon, len(icons))
	copy(sorted, icons)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	data, err := json.Marshal(struct {
		Scope   string        `json:"scope"`
		Options Options       `json:"options"`
		Icons   []source.Icon `json:"icons"`
	}{scope, opts, sorted})
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	return fmt.Sprintf("%s:%016x", cacheVersion, xxhash.Sum64(data)), nil
}

// Convert implements Converter
func (c *CachingConverter) Convert(ctx context.Context, icons []source.Icon, opts Options) (*Result, error) {
	key, err := CacheKey(c.scope, icons, opts)
	if err != nil {
		c.logger.Warn("Cache bypassed", "error", err)
		return c.next.Convert(ctx, icons, opts)
	}

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var res Result
		if err := json.Unmarshal(data, &res); err == nil {
			c.logger.Debug("Cache hit", "key", key)
			return &res, nil
		}
		c.logger.Warn("Discarding undecodable cache entry", "key", key)
	case errors.Is(err, kvs.ErrNotFound):
		c.logger.Debug("Cache miss", "key", key)
	default:
		c.logger.Warn("Cache read failed", "key", key, "error", err)
	}

	res, err := c.next.Convert(ctx, icons, opts)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("Cache write skipped", "key", key, "error", err)
		return res, nil
	}
	if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
		c.logger.Warn("Cache write failed", "key", key, "error", err)
	}
	return res, nil
}

// Close closes the underlying store
func (c *CachingConverter) Close() error {
	return c.store.Close()
}
