package memory

import (
	"context"
	"sync"

	"geocraft/internal/domain"
)

// AccountTable keeps the account table in memory. It satisfies app.AccountTable for tests and demos.
type AccountTable struct {
	mu       sync.Mutex
	accounts []domain.Account
	saves    int
}

func NewAccountTable(accounts ...domain.Account) *AccountTable {
	return &AccountTable{accounts: append([]domain.Account(nil), accounts...)}
}

func (t *AccountTable) Load(context.Context) ([]domain.Account, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Account(nil), t.accounts...), nil
}

func (t *AccountTable) Save(_ context.Context, accounts []domain.Account) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accounts = append([]domain.Account(nil), accounts...)
	t.saves++
	return nil
}

func (t *AccountTable) Append(_ context.Context, account domain.Account) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accounts = append(t.accounts, account)
	return nil
}

// Saves counts full-table rewrites.
func (t *AccountTable) Saves() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saves
}
