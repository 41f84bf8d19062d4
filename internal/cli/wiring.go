package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"geocraft/internal/app"
	"geocraft/internal/config"
	"geocraft/internal/infra/excel"
	"geocraft/internal/infra/flatfile"
	"geocraft/internal/infra/memory"
	pgstore "geocraft/internal/infra/postgres"
	redisstore "geocraft/internal/infra/redis"
	"geocraft/internal/infra/sqlite"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const catalogCacheKey = "geocraft:catalog"

// loadConfig reads the config file, falling back to defaults when it does not exist.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func rulesFrom(g config.GameConfig) app.Rules {
	r := app.DefaultRules()
	if g.TimedSeconds > 0 {
		r.TimedSeconds = g.TimedSeconds
	}
	if g.Lives > 0 {
		r.Lives = min(g.Lives, app.MaxLives)
	}
	if g.CorrectPoints > 0 {
		r.CorrectPoints = g.CorrectPoints
	}
	if g.WrongPenalty > 0 {
		r.WrongPenalty = g.WrongPenalty
	}
	if g.RevealPenalty > 0 {
		r.RevealPenalty = g.RevealPenalty
	}
	r.AdvanceDelay = config.Duration(g.AdvanceDelay, r.AdvanceDelay)
	if g.ContinentalUnlock > 0 {
		r.ContinentalUnlock = g.ContinentalUnlock
	}
	if g.MicroNationUnlock > 0 {
		r.MicroNationUnlock = g.MicroNationUnlock
	}
	return r
}

func redisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// catalogSource picks the reader by file extension and puts a cache in front when a TTL is configured.
func catalogSource(cfg config.Config, rdb *redis.Client) app.CatalogSource {
	var source app.CatalogSource
	switch strings.ToLower(filepath.Ext(cfg.Catalog.Path)) {
	case ".xlsx", ".xlsm":
		source = excel.NewCountryWorkbook(cfg.Catalog.Path, cfg.Catalog.Sheet)
	default:
		source = flatfile.NewCountryFile(cfg.Catalog.Path)
	}

	ttl := config.Duration(cfg.Catalog.CacheTTL, 0)
	if ttl <= 0 {
		return source
	}
	if rdb != nil {
		return redisstore.NewCatalogCache(rdb, source, catalogCacheKey, ttl)
	}
	return memory.NewCatalogCache(source, ttl)
}

// accountTable opens the configured account backend. The returned close func releases its connections.
func accountTable(ctx context.Context, cfg config.Config, rdb *redis.Client) (app.AccountTable, func(), error) {
	noop := func() {}
	switch cfg.Accounts.Backend {
	case "csv", "file":
		return flatfile.NewAccountFile(cfg.Accounts.Path), noop, nil
	case "redis":
		if rdb == nil {
			return nil, noop, fmt.Errorf("accounts backend redis: redis addr not configured")
		}
		return redisstore.NewAccountTable(rdb, cfg.Accounts.Key), noop, nil
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, noop, fmt.Errorf("accounts backend postgres: postgres url not configured")
		}
		if err := runMigrationsWithConfig(ctx, cfg, zap.NewNop()); err != nil {
			return nil, noop, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, noop, err
		}
		return pgstore.NewAccountTable(pool), pool.Close, nil
	case "sqlite":
		path := cfg.SQLite.Path
		if path == "" {
			path = "geocraft.db"
		}
		table, err := sqlite.Open(path)
		if err != nil {
			return nil, noop, err
		}
		return table, func() { _ = table.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown accounts backend %q", cfg.Accounts.Backend)
}

func sessionStore(cfg config.Config, rdb *redis.Client) app.SessionRepository {
	if rdb == nil {
		return memory.NewSessionStore()
	}
	return redisstore.NewSessionStore(rdb, config.Duration(cfg.Redis.TTL, 10*time.Minute))
}
