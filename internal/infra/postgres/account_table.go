package postgres

import (
	"context"
	"fmt"

	"geocraft/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

const accountColumns = `user_name, password, num_games_played, saved_game, accuracy_rate, list_of_country, high_score`

// AccountTable stores the account table in Postgres. Rows keep their table order in the position column.
// Save replaces every row in one transaction, the relational form of a full-file rewrite.
type AccountTable struct {
	pool *pgxpool.Pool
}

func NewAccountTable(pool *pgxpool.Pool) *AccountTable {
	return &AccountTable{pool: pool}
}

func (t *AccountTable) Load(ctx context.Context) ([]domain.Account, error) {
	rows, err := t.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.Username, &a.Password, &a.GamesPlayed, &a.SavedGame, &a.Accuracy, &a.SavedSession, &a.HighScore); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	return accounts, nil
}

func (t *AccountTable) Save(ctx context.Context, accounts []domain.Account) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}
	for i, a := range accounts {
		_, err := tx.Exec(ctx,
			`INSERT INTO accounts (`+accountColumns+`, position) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.Username, a.Password, a.GamesPlayed, a.SavedGame, a.Accuracy, a.SavedSession, a.HighScore, i+1)
		if err != nil {
			return fmt.Errorf("insert %s: %w", a.Username, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *AccountTable) Append(ctx context.Context, a domain.Account) error {
	_, err := t.pool.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`, position)
		 SELECT $1, $2, $3, $4, $5, $6, $7, COALESCE(MAX(position), 0) + 1 FROM accounts`,
		a.Username, a.Password, a.GamesPlayed, a.SavedGame, a.Accuracy, a.SavedSession, a.HighScore)
	if err != nil {
		return fmt.Errorf("insert %s: %w", a.Username, err)
	}
	return nil
}
