package app_test

import (
	"testing"

	"geocraft/internal/app"
	"geocraft/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	st := app.State{
		Visited:        []int{2, 5},
		Type:           domain.Marathon,
		Mode:           domain.ModeGlobal,
		TimeLeft:       60,
		Lives:          2,
		NumGuesses:     3,
		CorrectGuesses: 1,
		Correct:        "France",
		Incorrect1:     "Peru",
		Incorrect2:     "Japan",
		ShowHint:       true,
	}

	encoded := app.EncodeState(st)
	require.Contains(t, encoded, "visitedIndices:2-5;")
	require.Contains(t, encoded, "continent:None;")

	decoded, err := app.DecodeState(encoded)
	require.NoError(t, err)
	require.Equal(t, st, decoded)
}

func TestDecodeStateToleratesUnknownAndMissingKeys(t *testing.T) {
	st, err := app.DecodeState("visitedIndices:1;type:Timed;colour:blue;mode:Continental Mode;continent:Asia;timeLeft:12")
	require.NoError(t, err)
	require.Equal(t, []int{1}, st.Visited)
	require.Equal(t, domain.Timed, st.Type)
	require.Equal(t, "Asia", st.Continent)
	require.Equal(t, 12, st.TimeLeft)
	require.Zero(t, st.Lives)
	require.Empty(t, st.Correct)
}

func TestDecodeStateNullCountries(t *testing.T) {
	st, err := app.DecodeState("visitedIndices:;type:Marathon;mode:Global Mode;continent:null;correctCountry:null")
	require.NoError(t, err)
	require.Empty(t, st.Visited)
	require.Empty(t, st.Continent)
	require.Empty(t, st.Correct)
}

func TestDecodeStateErrors(t *testing.T) {
	_, err := app.DecodeState(domain.NoSavedSession)
	require.ErrorIs(t, err, domain.ErrNoSavedSession)

	_, err = app.DecodeState("")
	require.ErrorIs(t, err, domain.ErrNoSavedSession)

	_, err = app.DecodeState("visitedIndices:1-x;type:Marathon")
	require.ErrorIs(t, err, domain.ErrCorruptSave)

	_, err = app.DecodeState("lives:three")
	require.ErrorIs(t, err, domain.ErrCorruptSave)

	_, err = app.DecodeState("lives")
	require.ErrorIs(t, err, domain.ErrCorruptSave)
}

func TestDecodeStateSkipsBareTokens(t *testing.T) {
	raw := "visitedIndices:2-5;type:Marathon;mode:Global Mode;continent:None;timeLeft:60;lives:2;numGuesses:3;" +
		"correctGuesses:1;correctCountry:France;incorrectCountry1:Peru;incorrectCountry2:Japan;showFlag:false;" +
		"showHint:false;tutorialSeen"
	st, err := app.DecodeState(raw)
	require.NoError(t, err)
	require.Equal(t, []int{2, 5}, st.Visited)
	require.Equal(t, domain.Marathon, st.Type)
	require.Equal(t, 2, st.Lives)
	require.Equal(t, "France", st.Correct)

	st, err = app.DecodeState("justgarbage")
	require.NoError(t, err)
	require.Empty(t, st.Visited)
}

func TestFoldAccuracy(t *testing.T) {
	pct := app.SessionPercentage(3, 4)
	require.InDelta(t, 75.0, pct, 1e-9)
	require.InDelta(t, 65.0, app.FoldAccuracy(2, 60.0, pct), 1e-9)

	require.Zero(t, app.SessionPercentage(0, 0))
	require.InDelta(t, 50.0, app.FoldAccuracy(0, 100, 50), 1e-9)
}
