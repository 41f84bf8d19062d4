package app_test

import (
	"math/rand"
	"strings"
	"testing"

	"geocraft/internal/app"
	"geocraft/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestSessionVisitsEachCandidateOnce(t *testing.T) {
	candidates := numbered(7)
	s := newSession(t, candidates, domain.Exploration, 42)

	rounds := 0
	for {
		round, err := s.Advance(false)
		require.NoError(t, err)
		if s.Ended() {
			require.Equal(t, "ended", round.Phase)
			break
		}
		rounds++
		require.LessOrEqual(t, len(s.State().Visited), len(candidates))

		out, err := s.Submit(s.State().Correct)
		require.NoError(t, err)
		require.True(t, out.Correct)
		require.True(t, out.Advance)
		require.Zero(t, out.ScoreDelta, "exploration is not scored")
	}

	require.Equal(t, len(candidates), rounds)
	visited := s.State().Visited
	seen := map[int]bool{}
	for _, idx := range visited {
		require.False(t, seen[idx], "duplicate visited index %d", idx)
		seen[idx] = true
	}
	require.Len(t, visited, len(candidates))
	require.Equal(t, app.EndExhausted, s.Summary().Reason)
	require.Equal(t, len(candidates), s.Summary().CorrectGuesses)
}

func TestRoundOptionsArePermutationOfTrio(t *testing.T) {
	s := newSession(t, numbered(10), domain.Marathon, 1)
	round, err := s.Advance(false)
	require.NoError(t, err)

	st := s.State()
	require.ElementsMatch(t, []string{st.Correct, st.Incorrect1, st.Incorrect2}, round.Options)
	require.NotEqual(t, st.Correct, st.Incorrect1)
	require.NotEqual(t, st.Correct, st.Incorrect2)
	require.NotEqual(t, st.Incorrect1, st.Incorrect2)
	require.Equal(t, "active", round.Phase)
	require.Equal(t, 3, round.Lives)
	require.Equal(t, 9, round.Remaining)
}

func TestCorrectAnswerPositionIsUnbiased(t *testing.T) {
	const rounds = 3000
	rules := app.DefaultRules()
	rnd := rand.New(rand.NewSource(2024))
	candidates := numbered(5)

	var positions [3]int
	for i := 0; i < rounds; i++ {
		s, err := app.NewSession("s", "alice", candidates, app.NewState(domain.ModeGlobal, domain.Marathon, "", rules), rules, rnd)
		require.NoError(t, err)
		round, err := s.Advance(false)
		require.NoError(t, err)
		for pos, opt := range round.Options {
			if opt == s.State().Correct {
				positions[pos]++
			}
		}
	}

	for pos, n := range positions {
		require.InDelta(t, rounds/3, n, 150, "position %d held the answer %d times", pos, n)
	}
}

func TestSubmitWrongAnswerDisablesOption(t *testing.T) {
	s := newSession(t, numbered(6), domain.Timed, 3)
	_, err := s.Advance(false)
	require.NoError(t, err)

	wrong := wrongOption(t, s)
	out, err := s.Submit(wrong)
	require.NoError(t, err)
	require.False(t, out.Correct)
	require.False(t, out.Advance)
	require.Equal(t, -5, out.ScoreDelta)
	require.Equal(t, []string{wrong}, s.Round().Disabled)

	_, err = s.Submit(wrong)
	require.ErrorIs(t, err, domain.ErrChoiceDisabled)

	_, err = s.Submit("Atlantis")
	require.ErrorIs(t, err, domain.ErrUnknownChoice)

	_, err = s.Advance(false)
	require.ErrorIs(t, err, domain.ErrRoundUnresolved)

	out, err = s.Submit(s.State().Correct)
	require.NoError(t, err)
	require.Equal(t, 5, out.ScoreDelta)
	require.Equal(t, 2, s.State().NumGuesses)
	require.Equal(t, 1, s.State().CorrectGuesses)

	_, err = s.Submit(s.State().Correct)
	require.ErrorIs(t, err, domain.ErrRoundNotActive)
}

func TestSubmitIsCaseSensitive(t *testing.T) {
	s := newSession(t, sampleCatalog()[:6], domain.Marathon, 9)
	_, err := s.Advance(false)
	require.NoError(t, err)

	_, err = s.Submit(strings.ToLower(s.State().Correct))
	require.ErrorIs(t, err, domain.ErrUnknownChoice)
}

func TestMarathonEndsWhenLivesRunOut(t *testing.T) {
	s := newSession(t, numbered(20), domain.Marathon, 5)

	_, err := s.Advance(false)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		out, err := s.Submit(wrongOption(t, s))
		require.NoError(t, err)
		require.False(t, out.Ended)
	}
	require.Equal(t, 1, s.State().Lives)

	_, err = s.Submit(s.State().Correct)
	require.NoError(t, err)
	_, err = s.Advance(false)
	require.NoError(t, err)

	out, err := s.Submit(wrongOption(t, s))
	require.NoError(t, err)
	require.True(t, out.Ended)
	require.True(t, s.Ended())
	require.Zero(t, s.State().Lives)
	require.Greater(t, s.Round().Remaining, 0, "unvisited candidates remain")
	require.Equal(t, app.EndNoLives, s.Summary().Reason)

	_, err = s.Submit(s.State().Correct)
	require.ErrorIs(t, err, domain.ErrSessionEnded)
}

func TestTimedEndsWhenTimeRunsOut(t *testing.T) {
	s := newSession(t, numbered(20), domain.Timed, 6)
	_, err := s.Advance(false)
	require.NoError(t, err)

	for i := 0; i < 59; i++ {
		require.False(t, s.Tick())
	}
	require.Equal(t, 1, s.Round().TimeLeft)
	require.True(t, s.Tick())
	require.True(t, s.Ended())
	require.Zero(t, s.State().TimeLeft)
	require.Equal(t, app.EndTimeUp, s.Summary().Reason)
	require.Greater(t, s.Round().Remaining, 0)

	require.False(t, s.Tick(), "ticks after the end are ignored")
}

func TestTickIgnoresUntimedSessions(t *testing.T) {
	s := newSession(t, numbered(5), domain.Marathon, 6)
	_, err := s.Advance(false)
	require.NoError(t, err)
	require.False(t, s.Tick())
	require.Equal(t, 60, s.State().TimeLeft)
}

func TestRevealCostsOncePerRound(t *testing.T) {
	s := newSession(t, sampleCatalog()[:6], domain.Marathon, 11)
	round, err := s.Advance(false)
	require.NoError(t, err)
	require.Empty(t, round.FlagID)
	require.Empty(t, round.Hints)

	delta, err := s.RevealHint()
	require.NoError(t, err)
	require.Equal(t, -2, delta)
	delta, err = s.RevealHint()
	require.NoError(t, err)
	require.Zero(t, delta)

	delta, err = s.RevealFlag()
	require.NoError(t, err)
	require.Equal(t, -2, delta)

	round = s.Round()
	require.Equal(t, round.MapID, round.FlagID)
	require.LessOrEqual(t, len(round.Hints), app.HintLineLimit)

	_, err = s.Submit(s.State().Correct)
	require.NoError(t, err)
	_, err = s.Advance(false)
	require.NoError(t, err)
	require.False(t, s.State().ShowHint, "reveals reset with each round")

	delta, err = s.RevealFlag()
	require.NoError(t, err)
	require.Equal(t, -2, delta)
}

func TestRevealHintShowsFirstThreeLines(t *testing.T) {
	catalog := sampleCatalog()[:6]
	for seed := int64(0); seed < 200; seed++ {
		s := newSession(t, catalog, domain.Exploration, seed)
		_, err := s.Advance(false)
		require.NoError(t, err)
		if s.State().Correct != "France" {
			continue
		}
		delta, err := s.RevealHint()
		require.NoError(t, err)
		require.Zero(t, delta, "exploration is not scored")
		require.Equal(t, []string{"Eiffel Tower", "Baguettes", "Tour de France"}, s.Round().Hints)
		return
	}
	t.Fatal("France never drawn")
}

func TestNewSessionValidation(t *testing.T) {
	rules := app.DefaultRules()
	_, err := app.NewSession("s", "alice", numbered(2), app.NewState(domain.ModeGlobal, domain.Marathon, "", rules), rules, nil)
	require.ErrorIs(t, err, domain.ErrNotEnoughCandidates)

	st := app.NewState(domain.ModeGlobal, domain.Marathon, "", rules)
	st.Visited = []int{1, 1}
	_, err = app.NewSession("s", "alice", numbered(4), st, rules, nil)
	require.ErrorIs(t, err, domain.ErrCorruptSave)

	st.Visited = []int{9}
	_, err = app.NewSession("s", "alice", numbered(4), st, rules, nil)
	require.ErrorIs(t, err, domain.ErrCorruptSave)
}

func TestResumePresentsSavedTrio(t *testing.T) {
	rules := app.DefaultRules()
	st := app.State{
		Visited:    []int{0},
		Type:       domain.Marathon,
		Mode:       domain.ModeGlobal,
		Lives:      2,
		NumGuesses: 1,
		Correct:    "C0",
		Incorrect1: "C3",
		Incorrect2: "C4",
		ShowFlag:   true,
	}
	s, err := app.NewSession("s", "alice", numbered(8), st, rules, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	round, err := s.Advance(true)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"C0", "C3", "C4"}, round.Options)
	require.Equal(t, "c0", round.MapID)
	require.Equal(t, "c0", round.FlagID, "saved reveal carries over")
	require.Equal(t, 2, round.Lives)
	require.Len(t, s.State().Visited, 2, "resume records a fresh visited index")

	delta, err := s.RevealFlag()
	require.NoError(t, err)
	require.Zero(t, delta)
}

func TestResumeFallsBackWhenTrioIsGone(t *testing.T) {
	rules := app.DefaultRules()
	st := app.NewState(domain.ModeGlobal, domain.Marathon, "", rules)
	st.Correct, st.Incorrect1, st.Incorrect2 = "Atlantis", "Lemuria", "Mu"

	s, err := app.NewSession("s", "alice", numbered(5), st, rules, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	round, err := s.Advance(true)
	require.NoError(t, err)
	require.NotContains(t, round.Options, "Atlantis")
	require.NotEmpty(t, round.MapID)
}

func TestEndIsIdempotent(t *testing.T) {
	s := newSession(t, numbered(5), domain.Exploration, 1)
	_, err := s.Advance(false)
	require.NoError(t, err)

	first := s.End()
	require.Equal(t, app.EndAbandoned, first.Reason)
	second := s.End()
	require.Equal(t, first, second)

	_, err = s.Advance(false)
	require.ErrorIs(t, err, domain.ErrSessionEnded)
	_, err = s.RevealHint()
	require.ErrorIs(t, err, domain.ErrSessionEnded)
}
