package app

import (
	"math/rand"

	"geocraft/internal/domain"
)

// Phase is the position of a session in its round state machine.
type Phase int

const (
	AwaitingRound Phase = iota
	RoundActive
	RoundResolved
	SessionEnded
)

func (p Phase) String() string {
	switch p {
	case AwaitingRound:
		return "awaiting"
	case RoundActive:
		return "active"
	case RoundResolved:
		return "resolved"
	case SessionEnded:
		return "ended"
	}
	return "unknown"
}

// HintLineLimit caps how many hint lines a round discloses.
const HintLineLimit = 3

// Round is the player-facing view of the current round.
type Round struct {
	SessionID string          `json:"sessionId"`
	Number    int             `json:"number"`
	Type      domain.PlayType `json:"type"`
	Mode      domain.Mode     `json:"mode"`
	Continent string          `json:"continent,omitempty"`
	Phase     string          `json:"phase"`
	Options   []string        `json:"options"`
	Disabled  []string        `json:"disabled,omitempty"`
	// MapID is the catalog ID of the country to identify; clients resolve it to the map asset.
	MapID     string   `json:"mapId,omitempty"`
	FlagID    string   `json:"flagId,omitempty"`
	Hints     []string `json:"hints,omitempty"`
	TimeLeft  int      `json:"timeLeft,omitempty"`
	Lives     int      `json:"lives,omitempty"`
	Remaining int      `json:"remaining"`
}

// Outcome is the engine's verdict on one choice.
type Outcome struct {
	Correct    bool `json:"correct"`
	ScoreDelta int  `json:"scoreDelta"`
	// Advance is set when the round resolved and the next one should be drawn after the display delay.
	Advance bool `json:"advance"`
	Ended   bool `json:"ended"`
}

// Summary is reported when a session ends.
type Summary struct {
	CorrectGuesses int     `json:"correctGuesses"`
	NumGuesses     int     `json:"numGuesses"`
	Percentage     float64 `json:"percentage"`
	Reason         string  `json:"reason"`
}

const (
	EndExhausted = "exhausted"
	EndNoLives   = "no_lives"
	EndTimeUp    = "time_up"
	EndAbandoned = "abandoned"
)

// Session is one play-through. It performs no I/O and is not safe for concurrent use;
// callers serialize access the way a single UI thread would.
type Session struct {
	id         string
	owner      string
	rules      Rules
	candidates []domain.Country
	state      State
	phase      Phase
	round      int
	target     int
	options    []string
	disabled   map[string]bool
	endReason  string
	finalized  bool
	rnd        *rand.Rand
}

// NewSession builds a session over candidates from st, either fresh (NewState) or decoded from a save.
func NewSession(id, owner string, candidates []domain.Country, st State, rules Rules, rnd *rand.Rand) (*Session, error) {
	if len(candidates) < 3 {
		return nil, domain.ErrNotEnoughCandidates
	}
	seen := make(map[int]struct{}, len(st.Visited))
	for _, idx := range st.Visited {
		if idx < 0 || idx >= len(candidates) {
			return nil, domain.ErrCorruptSave
		}
		if _, dup := seen[idx]; dup {
			return nil, domain.ErrCorruptSave
		}
		seen[idx] = struct{}{}
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Session{
		id:         id,
		owner:      owner,
		rules:      rules,
		candidates: candidates,
		state:      st.clone(),
		phase:      AwaitingRound,
		target:     -1,
		disabled:   make(map[string]bool),
		rnd:        rnd,
	}, nil
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Owner() string         { return s.owner }
func (s *Session) Phase() Phase          { return s.phase }
func (s *Session) Ended() bool           { return s.phase == SessionEnded }
func (s *Session) State() State          { return s.state.clone() }
func (s *Session) Type() domain.PlayType { return s.state.Type }

// Advance draws the next round. With resume set, the saved trio is presented again instead of a fresh one.
func (s *Session) Advance(resume bool) (Round, error) {
	switch s.phase {
	case SessionEnded:
		return Round{}, domain.ErrSessionEnded
	case RoundActive:
		return Round{}, domain.ErrRoundUnresolved
	}

	if len(s.state.Visited) >= len(s.candidates) {
		s.end(EndExhausted)
		return s.Round(), nil
	}

	idx := s.drawExcluding(s.visitedSet())
	s.state.Visited = append(s.state.Visited, idx)

	if !resume || !s.restoreTrio() {
		d1 := s.drawExcluding(map[int]struct{}{idx: {}})
		d2 := s.drawExcluding(map[int]struct{}{idx: {}, d1: {}})
		s.target = idx
		s.state.Correct = s.candidates[idx].Name
		s.state.Incorrect1 = s.candidates[d1].Name
		s.state.Incorrect2 = s.candidates[d2].Name
		s.state.ShowFlag = false
		s.state.ShowHint = false
	}

	s.options = []string{s.state.Correct, s.state.Incorrect1, s.state.Incorrect2}
	s.rnd.Shuffle(len(s.options), func(i, j int) {
		s.options[i], s.options[j] = s.options[j], s.options[i]
	})
	s.disabled = make(map[string]bool)
	s.round++
	s.phase = RoundActive
	return s.Round(), nil
}

// restoreTrio points the round at the saved correct country; it fails when the catalog no longer holds the trio.
func (s *Session) restoreTrio() bool {
	if s.state.Correct == "" || s.state.Incorrect1 == "" || s.state.Incorrect2 == "" {
		return false
	}
	target := -1
	found := 0
	for i, c := range s.candidates {
		switch c.Name {
		case s.state.Correct:
			target = i
			found++
		case s.state.Incorrect1, s.state.Incorrect2:
			found++
		}
	}
	if target < 0 || found < 3 {
		return false
	}
	s.target = target
	return true
}

func (s *Session) visitedSet() map[int]struct{} {
	set := make(map[int]struct{}, len(s.state.Visited))
	for _, idx := range s.state.Visited {
		set[idx] = struct{}{}
	}
	return set
}

// drawExcluding redraws uniformly until it lands outside excluded. excluded must leave at least one index free.
func (s *Session) drawExcluding(excluded map[int]struct{}) int {
	for {
		idx := s.rnd.Intn(len(s.candidates))
		if _, taken := excluded[idx]; !taken {
			return idx
		}
	}
}

// Submit checks choice against the round's correct country. Matching is exact and case-sensitive.
func (s *Session) Submit(choice string) (Outcome, error) {
	if err := s.requireActive(); err != nil {
		return Outcome{}, err
	}
	if !s.isOption(choice) {
		return Outcome{}, domain.ErrUnknownChoice
	}
	if s.disabled[choice] {
		return Outcome{}, domain.ErrChoiceDisabled
	}

	scored := s.state.Type.Scored()
	s.state.NumGuesses++

	var out Outcome
	if choice == s.state.Correct {
		s.state.CorrectGuesses++
		s.phase = RoundResolved
		out.Correct = true
		out.Advance = true
		if scored {
			out.ScoreDelta = s.rules.CorrectPoints
		}
		return out, nil
	}

	s.disabled[choice] = true
	if scored {
		out.ScoreDelta = -s.rules.WrongPenalty
	}
	if s.state.Type == domain.Marathon {
		s.state.Lives--
		if s.state.Lives <= 0 {
			s.state.Lives = 0
			s.end(EndNoLives)
			out.Ended = true
		}
	}
	return out, nil
}

// RevealHint discloses the hint lines. Only the first reveal in a round costs points.
func (s *Session) RevealHint() (int, error) {
	return s.reveal(&s.state.ShowHint)
}

// RevealFlag discloses the flag. Only the first reveal in a round costs points.
func (s *Session) RevealFlag() (int, error) {
	return s.reveal(&s.state.ShowFlag)
}

func (s *Session) reveal(shown *bool) (int, error) {
	if err := s.requireActive(); err != nil {
		return 0, err
	}
	if *shown {
		return 0, nil
	}
	*shown = true
	if !s.state.Type.Scored() {
		return 0, nil
	}
	return -s.rules.RevealPenalty, nil
}

// Tick counts down one second of a Timed session and reports whether it ended the session.
func (s *Session) Tick() bool {
	if s.state.Type != domain.Timed || s.phase == SessionEnded {
		return false
	}
	if s.state.TimeLeft > 0 {
		s.state.TimeLeft--
	}
	if s.state.TimeLeft == 0 {
		s.end(EndTimeUp)
		return true
	}
	return false
}

// End stops the session early. It is a no-op on an ended session.
func (s *Session) End() Summary {
	s.end(EndAbandoned)
	return s.Summary()
}

func (s *Session) end(reason string) {
	if s.phase == SessionEnded {
		return
	}
	s.phase = SessionEnded
	s.endReason = reason
}

// Summary reports the session's guess counters.
func (s *Session) Summary() Summary {
	return Summary{
		CorrectGuesses: s.state.CorrectGuesses,
		NumGuesses:     s.state.NumGuesses,
		Percentage:     SessionPercentage(s.state.CorrectGuesses, s.state.NumGuesses),
		Reason:         s.endReason,
	}
}

// Round renders the current round for the player.
func (s *Session) Round() Round {
	r := Round{
		SessionID: s.id,
		Number:    s.round,
		Type:      s.state.Type,
		Mode:      s.state.Mode,
		Continent: s.state.Continent,
		Phase:     s.phase.String(),
		Options:   append([]string(nil), s.options...),
		Remaining: len(s.candidates) - len(s.state.Visited),
	}
	for _, opt := range s.options {
		if s.disabled[opt] {
			r.Disabled = append(r.Disabled, opt)
		}
	}
	switch s.state.Type {
	case domain.Timed:
		r.TimeLeft = s.state.TimeLeft
	case domain.Marathon:
		r.Lives = s.state.Lives
	}
	if s.target >= 0 {
		c := s.candidates[s.target]
		r.MapID = c.ID
		if s.state.ShowFlag {
			r.FlagID = c.ID
		}
		if s.state.ShowHint {
			r.Hints = c.HintLines(HintLineLimit)
		}
	}
	return r
}

func (s *Session) requireActive() error {
	switch s.phase {
	case SessionEnded:
		return domain.ErrSessionEnded
	case RoundActive:
		return nil
	}
	return domain.ErrRoundNotActive
}

func (s *Session) isOption(choice string) bool {
	for _, opt := range s.options {
		if opt == choice {
			return true
		}
	}
	return false
}
