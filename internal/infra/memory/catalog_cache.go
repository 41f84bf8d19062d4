package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"geocraft/internal/app"
	"geocraft/internal/domain"

	"golang.org/x/sync/singleflight"
)

const catalogKey = "catalog"

// CatalogCache caches the country table with a TTL so repeated queries skip the file read.
// A non-positive TTL disables caching and every call reaches the source.
type CatalogCache struct {
	source app.CatalogSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	countries []domain.Country
	expiresAt time.Time
}

func NewCatalogCache(source app.CatalogSource, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) LoadCountries(ctx context.Context) ([]domain.Country, error) {
	if c.ttl <= 0 {
		return c.source.LoadCountries(ctx)
	}
	if countries, ok := c.cached(c.clock()); ok {
		return countries, nil
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		now := c.clock()
		if countries, ok := c.cached(now); ok {
			return countries, nil
		}

		countries, err := c.source.LoadCountries(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.countries = countries
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return countries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Country), nil
}

func (c *CatalogCache) cached(now time.Time) ([]domain.Country, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.countries != nil && c.expiresAt.After(now) {
		return c.countries, true
	}
	return nil, false
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticCatalog is a catalog held in memory (useful for tests/demos).
type StaticCatalog struct {
	countries []domain.Country
}

func NewStaticCatalog(countries []domain.Country) *StaticCatalog {
	return &StaticCatalog{countries: countries}
}

func (s *StaticCatalog) LoadCountries(context.Context) ([]domain.Country, error) {
	out := make([]domain.Country, len(s.countries))
	copy(out, s.countries)
	return out, nil
}
