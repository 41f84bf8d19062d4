package app

import (
	"fmt"
	"strconv"
	"strings"

	"geocraft/internal/domain"
)

// State is everything needed to resume a session later.
type State struct {
	Visited        []int
	Type           domain.PlayType
	Mode           domain.Mode
	Continent      string
	TimeLeft       int
	Lives          int
	NumGuesses     int
	CorrectGuesses int
	Correct        string
	Incorrect1     string
	Incorrect2     string
	ShowFlag       bool
	ShowHint       bool
}

// NewState returns the state of a session that has not drawn its first round.
func NewState(mode domain.Mode, typ domain.PlayType, continent string, rules Rules) State {
	if mode != domain.ModeContinental {
		continent = ""
	}
	return State{
		Type:      typ,
		Mode:      mode,
		Continent: continent,
		TimeLeft:  rules.TimedSeconds,
		Lives:     rules.Lives,
	}
}

func (s State) clone() State {
	out := s
	out.Visited = append([]int(nil), s.Visited...)
	return out
}

const (
	keyVisited        = "visitedIndices"
	keyType           = "type"
	keyMode           = "mode"
	keyContinent      = "continent"
	keyTimeLeft       = "timeLeft"
	keyLives          = "lives"
	keyNumGuesses     = "numGuesses"
	keyCorrectGuesses = "correctGuesses"
	keyCorrect        = "correctCountry"
	keyIncorrect1     = "incorrectCountry1"
	keyIncorrect2     = "incorrectCountry2"
	keyShowFlag       = "showFlag"
	keyShowHint       = "showHint"

	noContinent = "None"
	noCountry   = "null"
)

// EncodeState renders the save string stored in the account's listOfCountry cell.
// The format is key:value pairs joined by ';' with visited indices joined by '-'.
func EncodeState(st State) string {
	visited := make([]string, len(st.Visited))
	for i, idx := range st.Visited {
		visited[i] = strconv.Itoa(idx)
	}
	continent := st.Continent
	if continent == "" {
		continent = noContinent
	}

	pairs := []string{
		keyVisited + ":" + strings.Join(visited, "-"),
		keyType + ":" + string(st.Type),
		keyMode + ":" + string(st.Mode),
		keyContinent + ":" + continent,
		keyTimeLeft + ":" + strconv.Itoa(st.TimeLeft),
		keyLives + ":" + strconv.Itoa(st.Lives),
		keyNumGuesses + ":" + strconv.Itoa(st.NumGuesses),
		keyCorrectGuesses + ":" + strconv.Itoa(st.CorrectGuesses),
		keyCorrect + ":" + countryOrNull(st.Correct),
		keyIncorrect1 + ":" + countryOrNull(st.Incorrect1),
		keyIncorrect2 + ":" + countryOrNull(st.Incorrect2),
		keyShowFlag + ":" + strconv.FormatBool(st.ShowFlag),
		keyShowHint + ":" + strconv.FormatBool(st.ShowHint),
	}
	return strings.Join(pairs, ";")
}

// DecodeState parses a save string produced by EncodeState. Unknown keys are ignored.
func DecodeState(raw string) (State, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == domain.NoSavedSession {
		return State{}, domain.ErrNoSavedSession
	}

	var st State
	for _, pair := range strings.Split(raw, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		// A segment without a colon is a key with an empty value.
		key, value, _ := strings.Cut(pair, ":")
		var err error
		switch strings.TrimSpace(key) {
		case keyVisited:
			st.Visited, err = parseVisited(value)
		case keyType:
			st.Type = domain.PlayType(value)
		case keyMode:
			st.Mode = domain.Mode(value)
		case keyContinent:
			if value != noContinent && value != noCountry {
				st.Continent = value
			}
		case keyTimeLeft:
			st.TimeLeft, err = strconv.Atoi(value)
		case keyLives:
			st.Lives, err = strconv.Atoi(value)
		case keyNumGuesses:
			st.NumGuesses, err = strconv.Atoi(value)
		case keyCorrectGuesses:
			st.CorrectGuesses, err = strconv.Atoi(value)
		case keyCorrect:
			st.Correct = nullToEmpty(value)
		case keyIncorrect1:
			st.Incorrect1 = nullToEmpty(value)
		case keyIncorrect2:
			st.Incorrect2 = nullToEmpty(value)
		case keyShowFlag:
			st.ShowFlag, err = strconv.ParseBool(value)
		case keyShowHint:
			st.ShowHint, err = strconv.ParseBool(value)
		}
		if err != nil {
			return State{}, fmt.Errorf("%w: %s: %v", domain.ErrCorruptSave, key, err)
		}
	}
	return st, nil
}

func parseVisited(value string) ([]int, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, "-")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		idx, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, nil
}

func countryOrNull(name string) string {
	if name == "" {
		return noCountry
	}
	return name
}

func nullToEmpty(v string) string {
	if v == noCountry {
		return ""
	}
	return v
}

// SessionPercentage is the share of correct guesses in a session, 0 when nothing was guessed.
func SessionPercentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// FoldAccuracy folds one session's percentage into a running per-game average.
func FoldAccuracy(gamesPlayed int, accuracy, sessionPct float64) float64 {
	if gamesPlayed < 0 {
		gamesPlayed = 0
	}
	return (sessionPct + float64(gamesPlayed)*accuracy) / float64(gamesPlayed+1)
}
