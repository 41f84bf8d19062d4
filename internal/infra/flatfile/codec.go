package flatfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"geocraft/internal/domain"
)

const utf8BOM = "\ufeff"

// Columns maps header names to their position in a record.
type Columns map[string]int

// ColumnIndex indexes a header row. Names are trimmed and a leading byte order mark is dropped.
func ColumnIndex(header []string) Columns {
	cols := make(Columns, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

// Get returns the cell under column name, or "" when the column or cell is absent.
func (c Columns) Get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// Require fails when any of names is missing from the header.
func (c Columns) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := c[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CountryFromRecord builds a catalog entry from one data row.
func CountryFromRecord(cols Columns, record []string) domain.Country {
	return domain.Country{
		Name:        strings.TrimSpace(cols.Get(record, domain.ColCountryName)),
		ID:          strings.TrimSpace(cols.Get(record, domain.ColID)),
		Continent:   strings.TrimSpace(cols.Get(record, domain.ColContinentName)),
		Continental: domain.IsYes(cols.Get(record, domain.ColContinentMode)),
		Global:      domain.IsYes(cols.Get(record, domain.ColGlobalMode)),
		MicroNation: domain.IsYes(cols.Get(record, domain.ColMicroNation)),
		Hints:       cols.Get(record, domain.ColHints),
	}
}

// CountriesFromRows converts a header row plus data rows into catalog entries, skipping rows without a name.
func CountriesFromRows(rows [][]string) ([]domain.Country, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := ColumnIndex(rows[0])
	if err := cols.Require(domain.ColCountryName, domain.ColID); err != nil {
		return nil, err
	}
	countries := make([]domain.Country, 0, len(rows)-1)
	for _, record := range rows[1:] {
		country := CountryFromRecord(cols, record)
		if country.Name == "" {
			continue
		}
		countries = append(countries, country)
	}
	return countries, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// DecodeAccounts reads an account table with its header row. An empty input is an empty table.
func DecodeAccounts(r io.Reader) ([]domain.Account, error) {
	reader := newReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := ColumnIndex(header)
	if err := cols.Require(domain.FieldUsername); err != nil {
		return nil, err
	}

	var accounts []domain.Account
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read account: %w", err)
		}
		acc := domain.Account{}
		for _, field := range domain.AccountColumns {
			acc.Set(field, cols.Get(record, field))
		}
		if acc.Username == "" {
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// EncodeAccounts writes the header row followed by one row per account.
func EncodeAccounts(w io.Writer, accounts []domain.Account) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(domain.AccountColumns); err != nil {
		return err
	}
	for _, acc := range accounts {
		if err := writer.Write(acc.Row()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// EncodeAccountRow writes a single data row, optionally preceded by the header.
func EncodeAccountRow(w io.Writer, acc domain.Account, withHeader bool) error {
	writer := csv.NewWriter(w)
	if withHeader {
		if err := writer.Write(domain.AccountColumns); err != nil {
			return err
		}
	}
	if err := writer.Write(acc.Row()); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
