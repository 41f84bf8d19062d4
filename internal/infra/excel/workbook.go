package excel

import (
	"context"
	"fmt"

	"geocraft/internal/domain"
	"geocraft/internal/infra/flatfile"

	"github.com/xuri/excelize/v2"
)

// CountryWorkbook reads the country catalog from one sheet of an .xlsx workbook.
// The first row is the header, laid out like the delimited catalog file.
type CountryWorkbook struct {
	path  string
	sheet string
}

// NewCountryWorkbook opens sheet of path on every load. An empty sheet name selects the first sheet.
func NewCountryWorkbook(path, sheet string) *CountryWorkbook {
	return &CountryWorkbook{path: path, sheet: sheet}
}

func (w *CountryWorkbook) LoadCountries(_ context.Context) ([]domain.Country, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := w.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	countries, err := flatfile.CountriesFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("workbook %s: %w", w.path, err)
	}
	return countries, nil
}
