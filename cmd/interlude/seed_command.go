package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"interlude/internal/logging"
	"interlude/internal/media"
	"interlude/internal/seed"
	"interlude/internal/store"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the sample catalog into the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			catalog := media.NewCatalogService(st, logging.NewNop())
			if err := seed.Apply(cmd.Context(), catalog, logging.NewNop()); err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}

			games, err := catalog.ListGames(cmd.Context())
			if err != nil {
				return fmt.Errorf("list games: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog ready: %d game(s) in %s\n", len(games), cfg.DatabasePath())
			return nil
		},
	}
}
