package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"geocraft/internal/app"
	"geocraft/internal/logger"

	"github.com/spf13/cobra"
)

// NewAccountsCmd groups offline account administration.
func NewAccountsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage player accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "register <username> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(cmd.Context(), *configPath, func(ctx context.Context, accounts *app.AccountService) error {
				res, err := accounts.Register(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Outcome, res.Message)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(cmd.Context(), *configPath, func(ctx context.Context, accounts *app.AccountService) error {
				if err := accounts.DeleteUser(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <username>",
		Short: "Print an account's statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(cmd.Context(), *configPath, func(ctx context.Context, accounts *app.AccountService) error {
				stats, err := accounts.Stats(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "user:          %s\n", stats.Username)
				fmt.Fprintf(out, "games played:  %d\n", stats.GamesPlayed)
				fmt.Fprintf(out, "accuracy:      %s%%\n", strconv.FormatFloat(stats.Accuracy, 'f', 2, 64))
				fmt.Fprintf(out, "high score:    %d\n", stats.HighScore)
				fmt.Fprintf(out, "saved session: %t\n", stats.HasSavedSession)
				return nil
			})
		},
	})

	var limit int
	leaderboard := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print accounts ranked by high score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(cmd.Context(), *configPath, func(ctx context.Context, accounts *app.AccountService) error {
				return printLeaderboard(ctx, cmd.OutOrStdout(), accounts, limit)
			})
		},
	}
	leaderboard.Flags().IntVar(&limit, "limit", 10, "number of rows to print, 0 for all")
	cmd.AddCommand(leaderboard)

	return cmd
}

func printLeaderboard(ctx context.Context, w io.Writer, accounts *app.AccountService, limit int) error {
	entries, err := accounts.Leaderboard(ctx, limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%3d  %-16s %6d\n", e.Rank, e.Username, e.HighScore)
	}
	return nil
}

func withAccounts(ctx context.Context, configPath string, fn func(context.Context, *app.AccountService) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logger)
	defer log.Sync()

	rdb := redisClient(cfg)
	if rdb != nil {
		defer rdb.Close()
	}
	table, closeTable, err := accountTable(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer closeTable()
	return fn(ctx, app.NewAccountService(table, rulesFrom(cfg.Game), log.Named("accounts")))
}
