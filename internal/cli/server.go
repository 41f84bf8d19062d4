package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geocraft/internal/app"
	"geocraft/internal/logger"
	"geocraft/internal/metrics"
	"geocraft/internal/scheduler"
	transport "geocraft/internal/transport/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logger)
	defer log.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	rdb := redisClient(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)

	table, closeTable, err := accountTable(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer closeTable()

	rules := rulesFrom(cfg.Game)
	accounts := app.NewAccountService(recorder.InstrumentTable(table), rules, log.Named("accounts"))
	catalog := app.NewCatalogService(catalogSource(cfg, rdb), log.Named("catalog"))
	if n := len(catalog.ListAll(ctx)); n == 0 {
		log.Warn("catalog is empty", zap.String("path", cfg.Catalog.Path))
	} else {
		log.Info("catalog loaded", zap.String("path", cfg.Catalog.Path), zap.Int("countries", n))
	}
	games := app.NewGameService(accounts, catalog, sessionStore(cfg, rdb), rules,
		app.WithLogger(log.Named("games")),
		app.WithRecorder(recorder))

	timers := scheduler.New()
	defer timers.Stop()

	wsHandler := transport.NewWSHandler(games, accounts, catalog, timers, log.Named("ws"))
	wsHandler.ObserveConnections(recorder)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(wsHandler, recorder.Handler()),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting geocraft", zap.String("port", finalPort), zap.String("accounts", cfg.Accounts.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
