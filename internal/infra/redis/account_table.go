package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"geocraft/internal/domain"
	"geocraft/internal/infra/flatfile"

	"github.com/redis/go-redis/v9"
)

// AccountTable keeps the whole account table as one CSV document under a single key,
// so every mutation is a full rewrite, exactly like the flat file.
type AccountTable struct {
	client *redis.Client
	key    string
}

func NewAccountTable(client *redis.Client, key string) *AccountTable {
	return &AccountTable{client: client, key: key}
}

func (t *AccountTable) Load(ctx context.Context) ([]domain.Account, error) {
	raw, err := t.client.Get(ctx, t.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", t.key, err)
	}
	return flatfile.DecodeAccounts(bytes.NewReader(raw))
}

func (t *AccountTable) Save(ctx context.Context, accounts []domain.Account) error {
	var buf bytes.Buffer
	if err := flatfile.EncodeAccounts(&buf, accounts); err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := t.client.Set(ctx, t.key, buf.Bytes(), 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", t.key, err)
	}
	return nil
}

// Append seeds the header when the key is new and appends one row.
func (t *AccountTable) Append(ctx context.Context, acc domain.Account) error {
	var header, row bytes.Buffer
	if err := flatfile.EncodeAccounts(&header, nil); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if err := flatfile.EncodeAccountRow(&row, acc, false); err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, t.key, header.Bytes(), 0)
		pipe.Append(ctx, t.key, row.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("append %s: %w", t.key, err)
	}
	return nil
}
