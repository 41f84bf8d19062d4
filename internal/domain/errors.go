package domain

import "errors"

var (
	// ErrAccountNotFound is returned when no row matches the username.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUnknownField indicates a column name outside the table header.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidCredentials is returned by login when the username or password does not match.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrCredentialsFormat is returned when a password falls outside the 4-16 character bounds.
	ErrCredentialsFormat = errors.New("password and username must be between 4-16 characters")
	// ErrPasswordMismatch is returned when a new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrModeLocked indicates the player's high score is below the mode's unlock threshold.
	ErrModeLocked = errors.New("mode is locked for this player")
	// ErrNoSavedSession is returned when resuming without a saved session.
	ErrNoSavedSession = errors.New("no saved game available")
	// ErrCorruptSave indicates a saved session string that cannot be decoded.
	ErrCorruptSave = errors.New("saved game is corrupt")

	ErrUnknownMode     = errors.New("unknown mode")
	ErrUnknownPlayType = errors.New("unknown play type")
	// ErrNotEnoughCandidates means the mode/continent filter left fewer countries than a round needs.
	ErrNotEnoughCandidates = errors.New("not enough countries for this mode")

	ErrSessionEnded    = errors.New("session has ended")
	ErrRoundNotActive  = errors.New("no round is awaiting an answer")
	ErrRoundUnresolved = errors.New("current round has not been answered")
	ErrUnknownChoice   = errors.New("choice is not one of the round's options")
	ErrChoiceDisabled  = errors.New("choice was already tried")
	ErrNoActiveSession = errors.New("no active session")
	ErrNotLoggedIn     = errors.New("login required")
)
