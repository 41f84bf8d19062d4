package app_test

import (
	"context"
	"errors"
	"testing"

	"geocraft/internal/app"
	"geocraft/internal/domain"
	"geocraft/internal/infra/memory"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCatalogFilters(t *testing.T) {
	ctx := context.Background()
	catalog := app.NewCatalogService(memory.NewStaticCatalog(sampleCatalog()), zaptest.NewLogger(t))

	require.Len(t, catalog.ListAll(ctx), 9)
	require.Len(t, catalog.FilterByMode(ctx, domain.ModeGlobal), 6)
	require.Len(t, catalog.FilterByMode(ctx, domain.ModeMicroNation), 3)

	americas := catalog.FilterByContinent(ctx, "AMERICAS")
	names := make([]string, 0, len(americas))
	for _, c := range americas {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"Peru", "Chile", "Brazil"}, names, "row order is kept")

	require.Empty(t, catalog.FilterByContinent(ctx, "Oceania"), "micro nations are not continental")
	require.Equal(t, []string{"Europe", "Americas", "Asia"}, catalog.Continents(ctx))
}

func TestCatalogFieldOf(t *testing.T) {
	ctx := context.Background()
	catalog := app.NewCatalogService(memory.NewStaticCatalog(sampleCatalog()), nil)

	id, ok := catalog.FieldOf(ctx, "Japan", domain.ColID)
	require.True(t, ok)
	require.Equal(t, "jp", id)

	flag, ok := catalog.FieldOf(ctx, "Monaco", domain.ColGlobalMode)
	require.True(t, ok)
	require.Equal(t, "No", flag)

	_, ok = catalog.FieldOf(ctx, "Atlantis", domain.ColID)
	require.False(t, ok)
	_, ok = catalog.FieldOf(ctx, "Japan", "Capital")
	require.False(t, ok)
}

func TestCatalogCandidates(t *testing.T) {
	ctx := context.Background()
	catalog := app.NewCatalogService(memory.NewStaticCatalog(sampleCatalog()), nil)

	got, err := catalog.Candidates(ctx, domain.ModeContinental, "americas")
	require.NoError(t, err)
	require.Len(t, got, 3)

	_, err = catalog.Candidates(ctx, domain.ModeContinental, "Europe")
	require.ErrorIs(t, err, domain.ErrNotEnoughCandidates)

	_, err = catalog.Candidates(ctx, domain.Mode("Space Mode"), "")
	require.ErrorIs(t, err, domain.ErrUnknownMode)
}

func TestCatalogUnavailableIsEmpty(t *testing.T) {
	catalog := app.NewCatalogService(brokenCatalog{}, zaptest.NewLogger(t))
	require.Empty(t, catalog.ListAll(context.Background()))

	_, err := catalog.Candidates(context.Background(), domain.ModeGlobal, "")
	require.ErrorIs(t, err, domain.ErrNotEnoughCandidates)
}

type brokenCatalog struct{}

func (brokenCatalog) LoadCountries(context.Context) ([]domain.Country, error) {
	return nil, errors.New("file missing")
}
