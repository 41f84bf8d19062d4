package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"geocraft/internal/domain"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// SessionRepository tracks the live session of each player (in-memory, Redis, etc).
type SessionRepository interface {
	Put(owner string, s *Session)
	Get(owner string) (*Session, bool)
	Delete(owner string)
}

// EventRecorder receives gameplay events, typically for metrics.
type EventRecorder interface {
	SessionStarted(typ domain.PlayType, mode domain.Mode, resumed bool)
	SessionEnded(typ domain.PlayType, reason string)
	ChoiceMade(typ domain.PlayType, correct bool)
	Revealed(kind string)
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted(domain.PlayType, domain.Mode, bool) {}
func (nopRecorder) SessionEnded(domain.PlayType, string)              {}
func (nopRecorder) ChoiceMade(domain.PlayType, bool)                  {}
func (nopRecorder) Revealed(string)                                   {}

// ChoiceResult is what a player sees after answering.
type ChoiceResult struct {
	Outcome
	HighScore int      `json:"highScore"`
	Round     Round    `json:"round"`
	Summary   *Summary `json:"summary,omitempty"`
}

// RevealResult is what a player sees after revealing the flag or the hints.
type RevealResult struct {
	Kind       string `json:"kind"`
	ScoreDelta int    `json:"scoreDelta"`
	HighScore  int    `json:"highScore"`
	Round      Round  `json:"round"`
}

const (
	RevealHint = "hint"
	RevealFlag = "flag"
)

// GameService runs sessions against the catalog and persists every change to the account table.
type GameService struct {
	accounts *AccountService
	catalog  *CatalogService
	sessions SessionRepository
	rules    Rules
	log      *zap.Logger
	events   EventRecorder
	newID    func() string
	newRand  func() *rand.Rand
}

type GameOption func(*GameService)

func WithLogger(log *zap.Logger) GameOption {
	return func(g *GameService) {
		if log != nil {
			g.log = log
		}
	}
}

func WithRecorder(r EventRecorder) GameOption {
	return func(g *GameService) {
		if r != nil {
			g.events = r
		}
	}
}

// WithRand sets the random source factory; tests use it for deterministic draws.
func WithRand(newRand func() *rand.Rand) GameOption {
	return func(g *GameService) { g.newRand = newRand }
}

func WithSessionIDs(newID func() string) GameOption {
	return func(g *GameService) { g.newID = newID }
}

func NewGameService(accounts *AccountService, catalog *CatalogService, sessions SessionRepository, rules Rules, opts ...GameOption) *GameService {
	g := &GameService{
		accounts: accounts,
		catalog:  catalog,
		sessions: sessions,
		rules:    rules,
		log:      zap.NewNop(),
		events:   nopRecorder{},
		newID:    newSessionID,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func newSessionID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func (g *GameService) Rules() Rules { return g.rules }

// Start begins a fresh session for owner and draws its first round. Any live session of owner is replaced.
func (g *GameService) Start(ctx context.Context, owner string, mode domain.Mode, typ domain.PlayType, continent string) (*Session, Round, error) {
	unlocked, err := g.accounts.Unlocked(ctx, owner, mode)
	if err != nil {
		return nil, Round{}, err
	}
	if !unlocked {
		return nil, Round{}, domain.ErrModeLocked
	}

	candidates, err := g.catalog.Candidates(ctx, mode, continent)
	if err != nil {
		return nil, Round{}, err
	}
	s, err := NewSession(g.newID(), owner, candidates, NewState(mode, typ, continent, g.rules), g.rules, g.newRand())
	if err != nil {
		return nil, Round{}, err
	}
	g.sessions.Put(owner, s)
	g.events.SessionStarted(typ, mode, false)
	g.log.Info("session started",
		zap.String("session", s.ID()),
		zap.String("user", owner),
		zap.String("mode", string(mode)),
		zap.String("type", string(typ)),
		zap.Int("candidates", len(candidates)))

	round, err := g.advance(ctx, s, false)
	return s, round, err
}

// Resume rebuilds owner's saved session and presents the saved round again.
func (g *GameService) Resume(ctx context.Context, owner string) (*Session, Round, error) {
	raw, err := g.accounts.SavedSession(ctx, owner)
	if err != nil {
		return nil, Round{}, err
	}
	st, err := DecodeState(raw)
	if err != nil {
		return nil, Round{}, err
	}
	if st.Type, err = domain.ParsePlayType(string(st.Type)); err != nil {
		return nil, Round{}, fmt.Errorf("%w: %v", domain.ErrCorruptSave, err)
	}
	if st.Mode, err = domain.ParseMode(string(st.Mode)); err != nil {
		return nil, Round{}, fmt.Errorf("%w: %v", domain.ErrCorruptSave, err)
	}

	candidates, err := g.catalog.Candidates(ctx, st.Mode, st.Continent)
	if err != nil {
		return nil, Round{}, err
	}
	s, err := NewSession(g.newID(), owner, candidates, st, g.rules, g.newRand())
	if err != nil {
		return nil, Round{}, err
	}
	g.sessions.Put(owner, s)
	g.events.SessionStarted(st.Type, st.Mode, true)
	g.log.Info("session resumed",
		zap.String("session", s.ID()),
		zap.String("user", owner),
		zap.Int("visited", len(st.Visited)))

	round, err := g.advance(ctx, s, true)
	return s, round, err
}

// Active returns owner's live session.
func (g *GameService) Active(owner string) (*Session, error) {
	s, ok := g.sessions.Get(owner)
	if !ok {
		return nil, domain.ErrNoActiveSession
	}
	return s, nil
}

// Advance draws the next round after a correct answer, ending the session when candidates run out.
func (g *GameService) Advance(ctx context.Context, s *Session) (Round, error) {
	return g.advance(ctx, s, false)
}

func (g *GameService) advance(ctx context.Context, s *Session, resume bool) (Round, error) {
	round, err := s.Advance(resume)
	if err != nil {
		return Round{}, err
	}
	if err := g.persist(ctx, s); err != nil {
		return round, err
	}
	return round, nil
}

// Submit answers the current round.
func (g *GameService) Submit(ctx context.Context, s *Session, choice string) (ChoiceResult, error) {
	out, err := s.Submit(choice)
	if err != nil {
		return ChoiceResult{}, err
	}
	g.events.ChoiceMade(s.Type(), out.Correct)

	res := ChoiceResult{Outcome: out}
	if res.HighScore, err = g.applyScore(ctx, s.Owner(), out.ScoreDelta); err != nil {
		return res, err
	}
	if err := g.persist(ctx, s); err != nil {
		return res, err
	}
	res.Round = s.Round()
	if s.Ended() {
		summary := s.Summary()
		res.Summary = &summary
	}
	return res, nil
}

func (g *GameService) RevealHint(ctx context.Context, s *Session) (RevealResult, error) {
	return g.reveal(ctx, s, RevealHint, s.RevealHint)
}

func (g *GameService) RevealFlag(ctx context.Context, s *Session) (RevealResult, error) {
	return g.reveal(ctx, s, RevealFlag, s.RevealFlag)
}

func (g *GameService) reveal(ctx context.Context, s *Session, kind string, fn func() (int, error)) (RevealResult, error) {
	delta, err := fn()
	if err != nil {
		return RevealResult{}, err
	}
	if delta != 0 {
		g.events.Revealed(kind)
	}
	res := RevealResult{Kind: kind, ScoreDelta: delta}
	if res.HighScore, err = g.applyScore(ctx, s.Owner(), delta); err != nil {
		return res, err
	}
	if err := g.persist(ctx, s); err != nil {
		return res, err
	}
	res.Round = s.Round()
	return res, nil
}

// Tick counts down a Timed session by one second and reports whether time ran out.
func (g *GameService) Tick(ctx context.Context, s *Session) (bool, error) {
	if s.Ended() {
		return true, nil
	}
	ended := s.Tick()
	return ended, g.persist(ctx, s)
}

// Quit detaches owner's live session. Its save string stays so it can be resumed later.
func (g *GameService) Quit(owner string) {
	if s, ok := g.sessions.Get(owner); ok {
		g.log.Info("session suspended", zap.String("session", s.ID()), zap.String("user", owner))
	}
	g.sessions.Delete(owner)
}

func (g *GameService) applyScore(ctx context.Context, owner string, delta int) (int, error) {
	if delta == 0 {
		return g.accounts.HighScore(ctx, owner)
	}
	return g.accounts.AddScore(ctx, owner, delta)
}

// persist writes the save string, or folds the session into the account once it has ended.
func (g *GameService) persist(ctx context.Context, s *Session) error {
	if !s.Ended() {
		// Touching the registry keeps a live session's marker from expiring mid-game.
		g.sessions.Get(s.Owner())
		return g.accounts.SaveSession(ctx, s.Owner(), EncodeState(s.State()))
	}
	if s.finalized {
		return nil
	}
	summary := s.Summary()
	stats, err := g.accounts.RecordGame(ctx, s.Owner(), summary)
	if err != nil {
		return fmt.Errorf("record game: %w", err)
	}
	s.finalized = true
	if live, ok := g.sessions.Get(s.Owner()); ok && live == s {
		g.sessions.Delete(s.Owner())
	}
	g.events.SessionEnded(s.Type(), summary.Reason)
	g.log.Info("session ended",
		zap.String("session", s.ID()),
		zap.String("user", s.Owner()),
		zap.String("reason", summary.Reason),
		zap.Int("correct", summary.CorrectGuesses),
		zap.Int("guesses", summary.NumGuesses),
		zap.Float64("accuracy", stats.Accuracy))
	return nil
}

// Abandon ends owner's live session now and records it as a finished game.
func (g *GameService) Abandon(ctx context.Context, owner string) (Summary, error) {
	s, err := g.Active(owner)
	if err != nil {
		return Summary{}, err
	}
	summary := s.End()
	return summary, g.persist(ctx, s)
}
