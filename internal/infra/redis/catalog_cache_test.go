package redis

import (
	"context"
	"testing"
	"time"

	"geocraft/internal/app"
	"geocraft/internal/domain"
	"geocraft/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestCatalogCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	source := &countingSource{CatalogSource: memory.NewStaticCatalog(sampleCountries())}
	cache := NewCatalogCache(newClient(mr), source, "geocraft:catalog", time.Minute)

	countries, err := cache.LoadCountries(context.Background())
	require.NoError(t, err)
	require.Equal(t, sampleCountries(), countries)
	require.Equal(t, 1, source.calls)

	// Second call should hit cache, source not called again.
	countries, err = cache.LoadCountries(context.Background())
	require.NoError(t, err)
	require.Equal(t, sampleCountries(), countries, "row order survives the cache")
	require.Equal(t, 1, source.calls)
	require.Greater(t, mr.TTL("geocraft:catalog"), time.Duration(0))

	mr.FastForward(2 * time.Minute)
	_, err = cache.LoadCountries(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, source.calls, "expected reload after expiry")
}

type countingSource struct {
	app.CatalogSource
	calls int
}

func (s *countingSource) LoadCountries(ctx context.Context) ([]domain.Country, error) {
	s.calls++
	return s.CatalogSource.LoadCountries(ctx)
}
