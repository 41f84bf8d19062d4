package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"geocraft/internal/app"
	"geocraft/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogCache caches the country table in Redis and falls back to the source on a miss.
// Rows are stored in catalog order as: RPUSH {key} {country JSON}
type CatalogCache struct {
	client *redis.Client
	source app.CatalogSource
	key    string
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogCache(client *redis.Client, source app.CatalogSource, key string, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		source: source,
		key:    key,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) LoadCountries(ctx context.Context) ([]domain.Country, error) {
	if countries, ok := c.cached(ctx); ok {
		return countries, nil
	}

	result, err, _ := c.sf.Do(c.key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if countries, ok := c.cached(ctx); ok {
			return countries, nil
		}

		countries, err := c.source.LoadCountries(ctx)
		if err != nil {
			return nil, err
		}

		rows := make([]interface{}, 0, len(countries))
		for _, country := range countries {
			raw, err := json.Marshal(country)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", country.Name, err)
			}
			rows = append(rows, raw)
		}

		pipe := c.client.TxPipeline()
		pipe.Del(ctx, c.key)
		if len(rows) > 0 {
			pipe.RPush(ctx, c.key, rows...)
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, c.key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return countries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Country), nil
}

func (c *CatalogCache) cached(ctx context.Context) ([]domain.Country, bool) {
	rows, err := c.client.LRange(ctx, c.key, 0, -1).Result()
	if err != nil || len(rows) == 0 {
		return nil, false
	}
	countries := make([]domain.Country, 0, len(rows))
	for _, row := range rows {
		var country domain.Country
		if err := json.Unmarshal([]byte(row), &country); err != nil {
			return nil, false
		}
		countries = append(countries, country)
	}
	return countries, true
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
