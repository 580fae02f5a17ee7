// Package cache provides the compound identity cache: a byte store (memory
// or Redis) fronted by a singleflight group so concurrent lookups for the
// same name hit the upstream source once.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/metrics"
)

// Store is the minimal byte-level cache backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CompoundCache caches resolved compound records keyed by normalized lookup
// name.  Only successful resolutions are cached; misses and failures always
// go back to the source.
type CompoundCache struct {
	store   Store
	ttl     time.Duration
	prefix  string
	group   singleflight.Group
	logger  logging.Logger
	metrics *metrics.Metrics
}

// NewCompoundCache wraps store.  logger and m may be nil.
func NewCompoundCache(store Store, ttl time.Duration, prefix string, logger logging.Logger, m *metrics.Metrics) *CompoundCache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if prefix == "" {
		prefix = "reagent"
	}
	return &CompoundCache{
		store:   store,
		ttl:     ttl,
		prefix:  prefix,
		logger:  logger.Named("cache"),
		metrics: m,
	}
}

func (c *CompoundCache) key(name string) string {
	return c.prefix + ":compound:" + strings.ToLower(strings.TrimSpace(name))
}

// GetOrLoad returns the cached record for name or invokes loader.  Concurrent
// calls for the same name share one loader invocation.  Cache backend
// failures degrade to a direct load and are only logged.
func (c *CompoundCache) GetOrLoad(ctx context.Context, name string,
	loader func(ctx context.Context) (*reaction.Compound, error)) (*reaction.Compound, error) {

	key := c.key(name)
	if data, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("cache read failed", logging.String("key", key), logging.Err(err))
	} else if ok {
		var compound reaction.Compound
		if err := json.Unmarshal(data, &compound); err == nil {
			c.observe(metrics.OutcomeHit)
			return &compound, nil
		}
		c.logger.Warn("dropping undecodable cache entry", logging.String("key", key))
		_ = c.store.Delete(ctx, key)
	}
	c.observe(metrics.OutcomeMiss)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		compound, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if data, merr := json.Marshal(compound); merr == nil {
			if serr := c.store.Set(ctx, key, data, c.ttl); serr != nil {
				c.logger.Warn("cache write failed", logging.String("key", key), logging.Err(serr))
			}
		}
		return compound, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*reaction.Compound), nil
}

// Invalidate removes a cached record, used after manual edits.
func (c *CompoundCache) Invalidate(ctx context.Context, name string) {
	if err := c.store.Delete(ctx, c.key(name)); err != nil {
		c.logger.Warn("cache invalidation failed", logging.String("name", name), logging.Err(err))
	}
}

func (c *CompoundCache) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.CacheHits.WithLabelValues(outcome).Inc()
	}
}
