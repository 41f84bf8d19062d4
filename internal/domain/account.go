package domain

// Account table column names. listOfCountry holds the saved session string; the name is kept for file compatibility.
const (
	FieldUsername     = "user_name"
	FieldPassword     = "password"
	FieldGamesPlayed  = "num_games_played"
	FieldSavedGame    = "saved_game?"
	FieldAccuracy     = "accuracy_rate"
	FieldSavedSession = "listOfCountry"
	FieldHighScore    = "highScore"
)

// AccountColumns is the account table header in file order.
var AccountColumns = []string{FieldUsername, FieldPassword, FieldGamesPlayed, FieldSavedGame, FieldAccuracy, FieldSavedSession, FieldHighScore}

// NoSavedSession marks an account without a suspended session.
const NoSavedSession = "None"

// Account is one row of the account table. Cells are kept as text, the way they are stored.
// Password is plaintext.
type Account struct {
	Username     string `db:"user_name"`
	Password     string `db:"password"`
	GamesPlayed  string `db:"num_games_played"`
	SavedGame    string `db:"saved_game"`
	Accuracy     string `db:"accuracy_rate"`
	SavedSession string `db:"list_of_country"`
	HighScore    string `db:"high_score"`
}

// NewAccount returns a freshly registered account with default statistics.
func NewAccount(username, password string) Account {
	return Account{
		Username:     username,
		Password:     password,
		GamesPlayed:  "0",
		SavedGame:    "N",
		Accuracy:     "100",
		SavedSession: NoSavedSession,
		HighScore:    "0",
	}
}

// Get returns the cell for field.
func (a Account) Get(field string) (string, bool) {
	p := a.cell(field)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Set replaces the cell for field and reports whether the field exists.
func (a *Account) Set(field, value string) bool {
	p := a.cell(field)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Row returns the cells in AccountColumns order.
func (a Account) Row() []string {
	return []string{a.Username, a.Password, a.GamesPlayed, a.SavedGame, a.Accuracy, a.SavedSession, a.HighScore}
}

func (a *Account) cell(field string) *string {
	switch field {
	case FieldUsername:
		return &a.Username
	case FieldPassword:
		return &a.Password
	case FieldGamesPlayed:
		return &a.GamesPlayed
	case FieldSavedGame:
		return &a.SavedGame
	case FieldAccuracy:
		return &a.Accuracy
	case FieldSavedSession:
		return &a.SavedSession
	case FieldHighScore:
		return &a.HighScore
	}
	return nil
}

// RegisterOutcome is the result of a registration attempt.
type RegisterOutcome string

const (
	Approved                 RegisterOutcome = "APPROVED"
	UserExists               RegisterOutcome = "USER_EXISTS"
	InvalidCredentialsFormat RegisterOutcome = "INVALID_CREDENTIALS_FORMAT"
)

// RegisterResult carries the outcome and a player-facing message.
type RegisterResult struct {
	Outcome RegisterOutcome `json:"outcome"`
	Message string          `json:"message"`
}

// LeaderboardEntry is one row of the high score table.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	HighScore int    `json:"highScore"`
}

// PlayerStats is the statistics view of an account.
type PlayerStats struct {
	Username        string  `json:"username"`
	GamesPlayed     int     `json:"gamesPlayed"`
	Accuracy        float64 `json:"accuracy"`
	HighScore       int     `json:"highScore"`
	HasSavedSession bool    `json:"hasSavedSession"`
}
