package out

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	healthout "scrollkitty/internal/modules/health/port/out"
)

const aggregateKey = "aggregate"

// MemoryAggregateCache keeps the last aggregate for fast UI reads. Entries expire
// so writes from another process are picked up within ttl.
type MemoryAggregateCache struct {
	cache *gocache.Cache
}

func NewMemoryAggregateCache(ttl time.Duration) healthout.AggregateCache {
	return &MemoryAggregateCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryAggregateCache) Get() (int, bool) {
	v, ok := c.cache.Get(aggregateKey)
	if !ok {
		return 0, false
	}
	aggregate, ok := v.(int)
	return aggregate, ok
}

func (c *MemoryAggregateCache) Set(aggregate int) {
	c.cache.Set(aggregateKey, aggregate, gocache.DefaultExpiration)
}
