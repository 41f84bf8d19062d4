package domain

import "strings"

// Mode selects which slice of the catalog a session draws from.
type Mode string

const (
	ModeGlobal      Mode = "Global Mode"
	ModeContinental Mode = "Continental Mode"
	ModeMicroNation Mode = "Micro Nation Mode"
)

// ParseMode accepts the catalog column name ("Global Mode") or its short form ("global").
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSuffix(strings.TrimSpace(raw), " Mode")) {
	case "global":
		return ModeGlobal, nil
	case "continental", "continent":
		return ModeContinental, nil
	case "micro nation", "micronation", "micro":
		return ModeMicroNation, nil
	}
	return "", ErrUnknownMode
}

// PlayType is the pacing of a session.
type PlayType string

const (
	Marathon    PlayType = "Marathon"
	Timed       PlayType = "Timed"
	Exploration PlayType = "Exploration"
)

func ParsePlayType(raw string) (PlayType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "marathon":
		return Marathon, nil
	case "timed":
		return Timed, nil
	case "exploration":
		return Exploration, nil
	}
	return "", ErrUnknownPlayType
}

// Scored reports whether choices and reveals in this play type move the high score.
func (t PlayType) Scored() bool {
	return t == Marathon || t == Timed
}

// Catalog column names.
const (
	ColCountryName   = "Country Name"
	ColID            = "ID"
	ColContinentMode = "Continent Mode"
	ColContinentName = "Continent Name"
	ColGlobalMode    = "Global Mode"
	ColMicroNation   = "Micro Nation Mode"
	ColHints         = "Hints"
)

// CountryColumns is the catalog header in file order.
var CountryColumns = []string{ColCountryName, ColID, ColContinentMode, ColContinentName, ColGlobalMode, ColMicroNation, ColHints}

// Country is a read-only catalog entry keyed by name.
type Country struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Continent   string `json:"continent"`
	Global      bool   `json:"global"`
	Continental bool   `json:"continental"`
	MicroNation bool   `json:"microNation"`
	Hints       string `json:"hints"`
}

// Field returns the catalog cell for column name as it would appear in the table.
func (c Country) Field(name string) (string, bool) {
	switch name {
	case ColCountryName:
		return c.Name, true
	case ColID:
		return c.ID, true
	case ColContinentMode:
		return yesNo(c.Continental), true
	case ColContinentName:
		return c.Continent, true
	case ColGlobalMode:
		return yesNo(c.Global), true
	case ColMicroNation:
		return yesNo(c.MicroNation), true
	case ColHints:
		return c.Hints, true
	}
	return "", false
}

// InMode reports whether the country's flag for a Global or Micro Nation mode is set.
func (c Country) InMode(mode Mode) bool {
	switch mode {
	case ModeGlobal:
		return c.Global
	case ModeMicroNation:
		return c.MicroNation
	case ModeContinental:
		return c.Continental
	}
	return false
}

// HintLines returns at most n lines of the hint block.
func (c Country) HintLines(n int) []string {
	if strings.TrimSpace(c.Hints) == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(c.Hints, "\r\n", "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

// IsYes matches the catalog's flag sentinel case-insensitively.
func IsYes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
