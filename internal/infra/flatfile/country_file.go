package flatfile

import (
	"context"
	"fmt"
	"os"

	"geocraft/internal/domain"
)

// CountryFile reads the country catalog from a delimited file with a header row.
type CountryFile struct {
	path string
}

func NewCountryFile(path string) *CountryFile {
	return &CountryFile{path: path}
}

func (f *CountryFile) LoadCountries(_ context.Context) ([]domain.Country, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	rows, err := newReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", f.path, err)
	}
	countries, err := CountriesFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", f.path, err)
	}
	return countries, nil
}
