package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/drtvfeed/internal/cache"
	"github.com/voyagen/drtvfeed/internal/models"
)

// ttlState bounds how long a cached state may outlive a missed refresh.
const ttlState = 2 * time.Hour

// CachedStore wraps a StateStore with a Redis write-through cache for Latest.
// History is never cached.
type CachedStore struct {
	inner StateStore
	cache *cache.Redis
	log   logrus.FieldLogger
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner StateStore, c *cache.Redis, log logrus.FieldLogger) *CachedStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedStore{inner: inner, cache: c, log: log.WithField("component", "store")}
}

func stateKey(entityID string) string {
	return "state:" + entityID
}

// Publish writes to inner first, then refreshes the cache entry.
func (c *CachedStore) Publish(ctx context.Context, snap models.Snapshot) error {
	if err := c.inner.Publish(ctx, snap); err != nil {
		return err
	}
	key := stateKey(snap.EntityID)
	if err := cache.Set(ctx, c.cache, key, snap, ttlState); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache set failed")
		c.invalidate(ctx, key)
	}
	return nil
}

// Latest serves from cache when possible and backfills on a miss.
func (c *CachedStore) Latest(ctx context.Context, entityID string) (*models.Snapshot, error) {
	key := stateKey(entityID)
	if v, err := cache.Get[models.Snapshot](ctx, c.cache, key); err == nil {
		return &v, nil
	} else if !cache.IsMiss(err) {
		c.log.WithError(err).WithField("key", key).Warn("cache get failed")
	}
	snap, err := c.inner.Latest(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, snap, ttlState); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache set failed")
	}
	return snap, nil
}

// History passes through to inner.
func (c *CachedStore) History(ctx context.Context, entityID string, limit int) ([]models.Snapshot, error) {
	return c.inner.History(ctx, entityID, limit)
}

func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil && !cache.IsMiss(err) {
		c.log.WithError(err).WithField("keys", keys).Warn("cache del failed")
	}
}
