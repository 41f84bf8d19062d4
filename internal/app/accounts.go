package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"unicode/utf8"

	"geocraft/internal/domain"

	"go.uber.org/zap"
)

// AccountTable is the serialized account table. Every mutation rewrites the whole table.
// Implementations do no locking across calls: concurrent writers race and the last rewrite wins.
type AccountTable interface {
	Load(ctx context.Context) ([]domain.Account, error)
	Save(ctx context.Context, accounts []domain.Account) error
	Append(ctx context.Context, account domain.Account) error
}

const (
	minCredentialLen = 4
	maxCredentialLen = 16

	msgApproved      = "account created"
	msgUserExists    = "User already exists."
	msgLength        = "password and username must be between 4-16 characters"
	msgAlphanumeric  = "password and username must only contain alphanumeric characters"
	savedGameFlagOff = "N"
	savedGameFlagOn  = "Y"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// AccountService implements the account and progress use cases on top of an AccountTable.
type AccountService struct {
	table AccountTable
	rules Rules
	log   *zap.Logger
}

func NewAccountService(table AccountTable, rules Rules, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{table: table, rules: rules, log: log}
}

func (s *AccountService) Exists(ctx context.Context, username string) (bool, error) {
	_, err := s.find(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrAccountNotFound):
		return false, nil
	}
	return false, err
}

// Register validates uniqueness first, then credential length and username charset, and appends a default record.
// Validation failures are reported in the result, not as errors.
func (s *AccountService) Register(ctx context.Context, username, password string) (domain.RegisterResult, error) {
	exists, err := s.Exists(ctx, username)
	if err != nil {
		return domain.RegisterResult{}, err
	}
	if exists {
		return domain.RegisterResult{Outcome: domain.UserExists, Message: msgUserExists}, nil
	}
	if !validLength(username) || !validLength(password) {
		return domain.RegisterResult{Outcome: domain.InvalidCredentialsFormat, Message: msgLength}, nil
	}
	if !usernamePattern.MatchString(username) {
		return domain.RegisterResult{Outcome: domain.InvalidCredentialsFormat, Message: msgAlphanumeric}, nil
	}

	if err := s.table.Append(ctx, domain.NewAccount(username, password)); err != nil {
		return domain.RegisterResult{}, fmt.Errorf("append account: %w", err)
	}
	s.log.Info("account registered", zap.String("user", username))
	return domain.RegisterResult{Outcome: domain.Approved, Message: msgApproved}, nil
}

func validLength(v string) bool {
	n := utf8.RuneCountInString(v)
	return n >= minCredentialLen && n <= maxCredentialLen
}

// Authenticate checks a plaintext password against the stored one.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) error {
	acc, err := s.find(ctx, username)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if acc.Password != password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// ChangePassword replaces the password after checking the current one and the confirmation.
func (s *AccountService) ChangePassword(ctx context.Context, username, current, next, confirm string) error {
	if err := s.Authenticate(ctx, username, current); err != nil {
		return err
	}
	if next != confirm {
		return domain.ErrPasswordMismatch
	}
	if !validLength(next) {
		return domain.ErrCredentialsFormat
	}
	return s.SetField(ctx, username, domain.FieldPassword, next)
}

// Field returns one cell of the user's row.
func (s *AccountService) Field(ctx context.Context, username, field string) (string, error) {
	acc, err := s.find(ctx, username)
	if err != nil {
		return "", err
	}
	v, ok := acc.Get(field)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownField, field)
	}
	return v, nil
}

func (s *AccountService) Password(ctx context.Context, username string) (string, error) {
	return s.Field(ctx, username, domain.FieldPassword)
}

func (s *AccountService) SavedSession(ctx context.Context, username string) (string, error) {
	return s.Field(ctx, username, domain.FieldSavedSession)
}

func (s *AccountService) GamesPlayed(ctx context.Context, username string) (int, error) {
	return s.intField(ctx, username, domain.FieldGamesPlayed)
}

func (s *AccountService) HighScore(ctx context.Context, username string) (int, error) {
	return s.intField(ctx, username, domain.FieldHighScore)
}

func (s *AccountService) Accuracy(ctx context.Context, username string) (float64, error) {
	raw, err := s.Field(ctx, username, domain.FieldAccuracy)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s of %s: %w", domain.FieldAccuracy, username, err)
	}
	return v, nil
}

func (s *AccountService) intField(ctx context.Context, username, field string) (int, error) {
	raw, err := s.Field(ctx, username, field)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s of %s: %w", field, username, err)
	}
	return v, nil
}

// SetField rewrites the table with one cell replaced. A missing user returns ErrAccountNotFound and nothing is written.
func (s *AccountService) SetField(ctx context.Context, username, field, value string) error {
	return s.update(ctx, username, func(acc *domain.Account) error {
		if !acc.Set(field, value) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownField, field)
		}
		return nil
	})
}

// DeleteUser rewrites the table without the user's row.
func (s *AccountService) DeleteUser(ctx context.Context, username string) error {
	accounts, err := s.table.Load(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	kept := accounts[:0]
	found := false
	for _, acc := range accounts {
		if acc.Username == username {
			found = true
			continue
		}
		kept = append(kept, acc)
	}
	if !found {
		return domain.ErrAccountNotFound
	}
	if err := s.table.Save(ctx, kept); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	s.log.Info("account deleted", zap.String("user", username))
	return nil
}

// RankedByHighScore lists usernames by high score, descending. Ties keep table order.
func (s *AccountService) RankedByHighScore(ctx context.Context) ([]string, error) {
	entries, err := s.Leaderboard(ctx, 0)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Username
	}
	return out, nil
}

// Leaderboard returns the top limit entries of the ranking; limit <= 0 returns all of them.
// An unparseable high score ranks as 0.
func (s *AccountService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	accounts, err := s.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(accounts))
	for _, acc := range accounts {
		score, err := strconv.Atoi(acc.HighScore)
		if err != nil {
			s.log.Debug("unparseable high score", zap.String("user", acc.Username), zap.String("value", acc.HighScore))
			score = 0
		}
		entries = append(entries, domain.LeaderboardEntry{Username: acc.Username, HighScore: score})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].HighScore > entries[j].HighScore
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// AddScore applies delta to the high score and returns the new value. The score is not floored.
func (s *AccountService) AddScore(ctx context.Context, username string, delta int) (int, error) {
	var score int
	err := s.update(ctx, username, func(acc *domain.Account) error {
		current, err := strconv.Atoi(acc.HighScore)
		if err != nil {
			return fmt.Errorf("%s of %s: %w", domain.FieldHighScore, username, err)
		}
		score = current + delta
		acc.HighScore = strconv.Itoa(score)
		return nil
	})
	return score, err
}

// SaveSession stores an encoded session so it can be resumed later.
func (s *AccountService) SaveSession(ctx context.Context, username, encoded string) error {
	return s.update(ctx, username, func(acc *domain.Account) error {
		acc.SavedSession = encoded
		acc.SavedGame = savedGameFlagOn
		return nil
	})
}

// ClearSession drops any saved session.
func (s *AccountService) ClearSession(ctx context.Context, username string) error {
	return s.update(ctx, username, func(acc *domain.Account) error {
		clearSaved(acc)
		return nil
	})
}

// RecordGame folds a finished session into the running accuracy, counts the game and clears the save.
func (s *AccountService) RecordGame(ctx context.Context, username string, summary Summary) (domain.PlayerStats, error) {
	var stats domain.PlayerStats
	err := s.update(ctx, username, func(acc *domain.Account) error {
		games, err := strconv.Atoi(acc.GamesPlayed)
		if err != nil {
			return fmt.Errorf("%s of %s: %w", domain.FieldGamesPlayed, username, err)
		}
		accuracy, err := strconv.ParseFloat(acc.Accuracy, 64)
		if err != nil {
			return fmt.Errorf("%s of %s: %w", domain.FieldAccuracy, username, err)
		}
		accuracy = FoldAccuracy(games, accuracy, summary.Percentage)
		games++

		acc.GamesPlayed = strconv.Itoa(games)
		acc.Accuracy = strconv.FormatFloat(accuracy, 'f', -1, 64)
		clearSaved(acc)

		stats, err = statsOf(*acc)
		return err
	})
	return stats, err
}

// Stats returns the statistics view of the user's row.
func (s *AccountService) Stats(ctx context.Context, username string) (domain.PlayerStats, error) {
	acc, err := s.find(ctx, username)
	if err != nil {
		return domain.PlayerStats{}, err
	}
	return statsOf(acc)
}

// Unlocked reports whether the user's high score meets the mode's threshold.
func (s *AccountService) Unlocked(ctx context.Context, username string, mode domain.Mode) (bool, error) {
	score, err := s.HighScore(ctx, username)
	if err != nil {
		return false, err
	}
	return score >= s.rules.UnlockThreshold(mode), nil
}

func (s *AccountService) find(ctx context.Context, username string) (domain.Account, error) {
	accounts, err := s.table.Load(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("load accounts: %w", err)
	}
	for _, acc := range accounts {
		if acc.Username == username {
			return acc, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

// update loads the table, applies fn to the user's row and rewrites the table once.
func (s *AccountService) update(ctx context.Context, username string, fn func(*domain.Account) error) error {
	accounts, err := s.table.Load(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	idx := -1
	for i := range accounts {
		if accounts[i].Username == username {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrAccountNotFound
	}
	if err := fn(&accounts[idx]); err != nil {
		return err
	}
	if err := s.table.Save(ctx, accounts); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

func clearSaved(acc *domain.Account) {
	acc.SavedSession = domain.NoSavedSession
	acc.SavedGame = savedGameFlagOff
}

func statsOf(acc domain.Account) (domain.PlayerStats, error) {
	games, err := strconv.Atoi(acc.GamesPlayed)
	if err != nil {
		return domain.PlayerStats{}, fmt.Errorf("%s of %s: %w", domain.FieldGamesPlayed, acc.Username, err)
	}
	accuracy, err := strconv.ParseFloat(acc.Accuracy, 64)
	if err != nil {
		return domain.PlayerStats{}, fmt.Errorf("%s of %s: %w", domain.FieldAccuracy, acc.Username, err)
	}
	score, err := strconv.Atoi(acc.HighScore)
	if err != nil {
		return domain.PlayerStats{}, fmt.Errorf("%s of %s: %w", domain.FieldHighScore, acc.Username, err)
	}
	return domain.PlayerStats{
		Username:        acc.Username,
		GamesPlayed:     games,
		Accuracy:        accuracy,
		HighScore:       score,
		HasSavedSession: acc.SavedSession != "" && acc.SavedSession != domain.NoSavedSession,
	}, nil
}
