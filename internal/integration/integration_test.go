package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"geocraft/internal/app"
	"geocraft/internal/domain"
	"geocraft/internal/infra/memory"
	pgstore "geocraft/internal/infra/postgres"
	pgmigrations "geocraft/internal/infra/postgres/migrations"
	infraredis "geocraft/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap/zaptest"
)

func TestMarathonEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAccounts(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	defer redisClient.Close()

	log := zaptest.NewLogger(t)
	rules := app.DefaultRules()
	accounts := app.NewAccountService(pgstore.NewAccountTable(pool), rules, log)
	source := memory.NewStaticCatalog(sampleCountries())
	catalog := app.NewCatalogService(infraredis.NewCatalogCache(redisClient, source, "it:catalog", 5*time.Minute), log)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	games := app.NewGameService(accounts, catalog, sessions, rules, app.WithLogger(log))

	res, err := accounts.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.Equal(t, domain.Approved, res.Outcome)
	res, err = accounts.Register(ctx, "alice", "other1")
	require.NoError(t, err)
	require.Equal(t, domain.UserExists, res.Outcome)

	s, round, err := games.Start(ctx, "alice", domain.ModeGlobal, domain.Marathon, "")
	require.NoError(t, err)
	liveID, ok := sessions.LiveSession(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, s.ID(), liveID)

	names := map[string]string{}
	for _, c := range sampleCountries() {
		names[c.ID] = c.Name
	}
	for !s.Ended() {
		out, err := games.Submit(ctx, s, names[round.MapID])
		require.NoError(t, err)
		require.True(t, out.Correct)
		if s.Ended() {
			break
		}
		round, err = games.Advance(ctx, s)
		require.NoError(t, err)
	}

	stats, err := accounts.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GamesPlayed)
	assert.Equal(t, 100.0, stats.Accuracy)
	assert.Equal(t, 5*len(sampleCountries()), stats.HighScore)
	assert.False(t, stats.HasSavedSession)

	board, err := accounts.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "alice", board[0].Username)
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "geocraft", "POSTGRES_PASSWORD": "geopass", "POSTGRES_DB": "geocraft"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://geocraft:geopass@%s:%s/geocraft?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateAccounts(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleCountries() []domain.Country {
	return []domain.Country{
		{Name: "France", ID: "fr", Continent: "Europe", Global: true},
		{Name: "Peru", ID: "pe", Continent: "Americas", Global: true},
		{Name: "Japan", ID: "jp", Continent: "Asia", Global: true},
		{Name: "Chile", ID: "cl", Continent: "Americas", Global: true},
		{Name: "Kenya", ID: "ke", Continent: "Africa", Global: true},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
