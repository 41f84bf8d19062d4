package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"geocraft/internal/domain"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_name TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	num_games_played TEXT NOT NULL DEFAULT '0',
	saved_game TEXT NOT NULL DEFAULT 'N',
	accuracy_rate TEXT NOT NULL DEFAULT '100',
	list_of_country TEXT NOT NULL DEFAULT 'None',
	high_score TEXT NOT NULL DEFAULT '0'
)`

const (
	selectAccounts = `SELECT user_name, password, num_games_played, saved_game, accuracy_rate, list_of_country, high_score
		FROM accounts ORDER BY id`
	insertAccount = `INSERT INTO accounts (user_name, password, num_games_played, saved_game, accuracy_rate, list_of_country, high_score)
		VALUES (:user_name, :password, :num_games_played, :saved_game, :accuracy_rate, :list_of_country, :high_score)`
)

// AccountTable stores the account table in a SQLite file. Row order follows the autoincrement id.
type AccountTable struct {
	db *sqlx.DB
}

// Open connects to the database at path, creating its directory and the schema if needed.
// ":memory:" opens a private in-memory database.
func Open(path string) (*AccountTable, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// SQLite doesn't support multiple writers; one connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	table, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return table, nil
}

// New wraps an open connection and makes sure the schema exists.
func New(db *sqlx.DB) (*AccountTable, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create accounts table: %w", err)
	}
	return &AccountTable{db: db}, nil
}

func (t *AccountTable) Close() error {
	return t.db.Close()
}

func (t *AccountTable) Load(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := t.db.SelectContext(ctx, &accounts, selectAccounts); err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	return accounts, nil
}

func (t *AccountTable) Save(ctx context.Context, accounts []domain.Account) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}
	for _, a := range accounts {
		if _, err := tx.NamedExecContext(ctx, insertAccount, a); err != nil {
			return fmt.Errorf("insert %s: %w", a.Username, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *AccountTable) Append(ctx context.Context, a domain.Account) error {
	if _, err := t.db.NamedExecContext(ctx, insertAccount, a); err != nil {
		return fmt.Errorf("insert %s: %w", a.Username, err)
	}
	return nil
}
