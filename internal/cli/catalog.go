package cli

import (
	"context"
	"fmt"
	"strings"

	"geocraft/internal/app"
	"geocraft/internal/domain"
	"geocraft/internal/logger"

	"github.com/spf13/cobra"
)

// NewCatalogCmd inspects the country catalog.
func NewCatalogCmd(configPath *string) *cobra.Command {
	var mode, continent string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List catalog countries, optionally filtered by mode or continent",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Logger)
			defer log.Sync()

			catalog := app.NewCatalogService(catalogSource(cfg, nil), log.Named("catalog"))
			countries := catalog.ListAll(ctx)
			switch {
			case mode != "":
				m, err := domain.ParseMode(mode)
				if err != nil {
					return err
				}
				if m == domain.ModeContinental && continent != "" {
					if countries, err = catalog.Candidates(ctx, m, continent); err != nil {
						return err
					}
				} else {
					countries = catalog.FilterByMode(ctx, m)
				}
			case continent != "":
				countries = catalog.FilterByContinent(ctx, continent)
			}

			out := cmd.OutOrStdout()
			for _, c := range countries {
				var modes []string
				for _, m := range []domain.Mode{domain.ModeGlobal, domain.ModeContinental, domain.ModeMicroNation} {
					if c.InMode(m) {
						modes = append(modes, strings.TrimSuffix(string(m), " Mode"))
					}
				}
				fmt.Fprintf(out, "%-6s %-32s %-14s %s\n", c.ID, c.Name, c.Continent, strings.Join(modes, ","))
			}
			fmt.Fprintf(out, "%d countries\n", len(countries))
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "global, continental or micro nation")
	cmd.Flags().StringVar(&continent, "continent", "", "continent name")

	cmd.AddCommand(&cobra.Command{
		Use:   "continents",
		Short: "List the continents present in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Logger)
			defer log.Sync()
			catalog := app.NewCatalogService(catalogSource(cfg, nil), log.Named("catalog"))
			for _, name := range catalog.Continents(context.Background()) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})
	return cmd
}
