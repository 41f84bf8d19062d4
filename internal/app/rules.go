package app

import (
	"time"

	"geocraft/internal/domain"
)

// Rules holds the scoring, pacing and unlock constants of the game.
type Rules struct {
	TimedSeconds  int
	Lives         int
	CorrectPoints int
	WrongPenalty  int
	RevealPenalty int
	// AdvanceDelay is how long a resolved round stays on screen before the next one is drawn.
	AdvanceDelay      time.Duration
	ContinentalUnlock int
	MicroNationUnlock int
}

// MaxLives caps the lives a Marathon session starts with.
const MaxLives = 3

func DefaultRules() Rules {
	return Rules{
		TimedSeconds:      60,
		Lives:             MaxLives,
		CorrectPoints:     5,
		WrongPenalty:      5,
		RevealPenalty:     2,
		AdvanceDelay:      time.Second,
		ContinentalUnlock: 25,
		MicroNationUnlock: 100,
	}
}

// UnlockThreshold returns the high score a player needs before mode can be started.
func (r Rules) UnlockThreshold(mode domain.Mode) int {
	switch mode {
	case domain.ModeContinental:
		return r.ContinentalUnlock
	case domain.ModeMicroNation:
		return r.MicroNationUnlock
	}
	return 0
}
