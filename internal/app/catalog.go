package app

import (
	"context"
	"strings"

	"geocraft/internal/domain"

	"go.uber.org/zap"
)

// CatalogSource loads the country table (flat file, workbook, cache, etc).
type CatalogSource interface {
	LoadCountries(ctx context.Context) ([]domain.Country, error)
}

// CatalogService answers read-only queries over the country catalog.
// Results keep the source's row order, which sessions rely on for visited indices.
type CatalogService struct {
	source CatalogSource
	log    *zap.Logger
}

func NewCatalogService(source CatalogSource, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{source: source, log: log}
}

// ListAll returns every country. A load failure is logged and yields an empty catalog.
func (c *CatalogService) ListAll(ctx context.Context) []domain.Country {
	countries, err := c.source.LoadCountries(ctx)
	if err != nil {
		c.log.Warn("catalog unavailable", zap.Error(err))
		return nil
	}
	return countries
}

// FilterByMode returns countries whose flag column for mode is "Yes".
func (c *CatalogService) FilterByMode(ctx context.Context, mode domain.Mode) []domain.Country {
	var out []domain.Country
	for _, country := range c.ListAll(ctx) {
		if country.InMode(mode) {
			out = append(out, country)
		}
	}
	return out
}

// FilterByContinent returns continental-eligible countries on continent, matched case-insensitively.
func (c *CatalogService) FilterByContinent(ctx context.Context, continent string) []domain.Country {
	want := strings.TrimSpace(continent)
	var out []domain.Country
	for _, country := range c.ListAll(ctx) {
		if country.Continental && strings.EqualFold(strings.TrimSpace(country.Continent), want) {
			out = append(out, country)
		}
	}
	return out
}

// FieldOf looks up one cell of the named country.
func (c *CatalogService) FieldOf(ctx context.Context, name, field string) (string, bool) {
	for _, country := range c.ListAll(ctx) {
		if country.Name == name {
			return country.Field(field)
		}
	}
	return "", false
}

// Continents lists the distinct continent names that have continental-eligible countries, in first-seen order.
func (c *CatalogService) Continents(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, country := range c.ListAll(ctx) {
		if !country.Continental || country.Continent == "" {
			continue
		}
		key := strings.ToLower(country.Continent)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, country.Continent)
	}
	return out
}

// Candidates returns the countries a session in mode (and continent, for Continental Mode) draws from.
func (c *CatalogService) Candidates(ctx context.Context, mode domain.Mode, continent string) ([]domain.Country, error) {
	var out []domain.Country
	switch mode {
	case domain.ModeGlobal, domain.ModeMicroNation:
		out = c.FilterByMode(ctx, mode)
	case domain.ModeContinental:
		out = c.FilterByContinent(ctx, continent)
	default:
		return nil, domain.ErrUnknownMode
	}
	if len(out) < 3 {
		return nil, domain.ErrNotEnoughCandidates
	}
	return out, nil
}
