package app_test

import (
	"fmt"
	"math/rand"
	"testing"

	"geocraft/internal/app"
	"geocraft/internal/domain"
	"geocraft/internal/infra/memory"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sampleCatalog() []domain.Country {
	return []domain.Country{
		{Name: "France", ID: "fr", Continent: "Europe", Global: true, Continental: true, Hints: "Eiffel Tower\nBaguettes\nTour de France\nCheese"},
		{Name: "Peru", ID: "pe", Continent: "Americas", Global: true, Continental: true, Hints: "Machu Picchu"},
		{Name: "Japan", ID: "jp", Continent: "Asia", Global: true, Continental: true},
		{Name: "Chile", ID: "cl", Continent: "Americas", Global: true, Continental: true},
		{Name: "Brazil", ID: "br", Continent: "americas", Global: true, Continental: true},
		{Name: "Spain", ID: "es", Continent: "Europe", Global: true, Continental: true},
		{Name: "Monaco", ID: "mc", Continent: "Europe", MicroNation: true},
		{Name: "Nauru", ID: "nr", Continent: "Oceania", MicroNation: true},
		{Name: "Tuvalu", ID: "tv", Continent: "Oceania", MicroNation: true},
	}
}

// numbered builds n Global Mode countries named C0..Cn-1.
func numbered(n int) []domain.Country {
	out := make([]domain.Country, n)
	for i := range out {
		out[i] = domain.Country{Name: fmt.Sprintf("C%d", i), ID: fmt.Sprintf("c%d", i), Global: true}
	}
	return out
}

func newSession(t *testing.T, candidates []domain.Country, typ domain.PlayType, seed int64) *app.Session {
	t.Helper()
	rules := app.DefaultRules()
	s, err := app.NewSession("s1", "alice", candidates, app.NewState(domain.ModeGlobal, typ, "", rules), rules, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return s
}

// wrongOption returns an enabled option other than the correct one.
func wrongOption(t *testing.T, s *app.Session) string {
	t.Helper()
	round := s.Round()
	disabled := map[string]bool{}
	for _, d := range round.Disabled {
		disabled[d] = true
	}
	for _, opt := range round.Options {
		if opt != s.State().Correct && !disabled[opt] {
			return opt
		}
	}
	t.Fatalf("no wrong option left in %+v", round)
	return ""
}

type fixture struct {
	table    *memory.AccountTable
	sessions *memory.SessionStore
	accounts *app.AccountService
	catalog  *app.CatalogService
	games    *app.GameService
}

func newFixture(t *testing.T, accounts ...domain.Account) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	rules := app.DefaultRules()
	f := &fixture{
		table:    memory.NewAccountTable(accounts...),
		sessions: memory.NewSessionStore(),
	}
	f.accounts = app.NewAccountService(f.table, rules, log)
	f.catalog = app.NewCatalogService(memory.NewStaticCatalog(sampleCatalog()), log)
	seed := int64(0)
	f.games = app.NewGameService(f.accounts, f.catalog, f.sessions, rules,
		app.WithLogger(log),
		app.WithRand(func() *rand.Rand {
			seed++
			return rand.New(rand.NewSource(seed))
		}),
	)
	return f
}

func account(username string, highScore string) domain.Account {
	acc := domain.NewAccount(username, "secret1")
	acc.HighScore = highScore
	return acc
}

func appSummary(correct, total int) app.Summary {
	return app.Summary{CorrectGuesses: correct, NumGuesses: total, Percentage: app.SessionPercentage(correct, total)}
}
