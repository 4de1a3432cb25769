package market

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/predictify/predictify/internal/domain"
)

// snapshotCache provides an in-memory LRU cache for market read lookups
// with time-based expiration. Mutating operations invalidate their entry
// so callers never act on a stale lifecycle state.
type snapshotCache struct {
	lru *expirable.LRU[uuid.UUID, *domain.Market]
}

func newSnapshotCache(size int, ttl time.Duration) *snapshotCache {
	return &snapshotCache{
		lru: expirable.NewLRU[uuid.UUID, *domain.Market](size, nil, ttl),
	}
}

func (c *snapshotCache) Get(id uuid.UUID) (*domain.Market, bool) {
	return c.lru.Get(id)
}

func (c *snapshotCache) Set(m *domain.Market) {
	c.lru.Add(m.ID, m)
}

func (c *snapshotCache) Invalidate(id uuid.UUID) {
	c.lru.Remove(id)
}
