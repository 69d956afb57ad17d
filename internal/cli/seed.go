package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/techtribe/techtribe/internal/config"
	"github.com/techtribe/techtribe/internal/store"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo packages into an empty catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), shortTimeout)
			defer cancel()
			inserted, total, err := store.NewCatalogueStore(db).SeedIfEmpty(ctx, store.DemoCatalogue())
			if err != nil {
				return err
			}
			if inserted == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Catalogue already has %d item(s), nothing seeded\n", total)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d demo package(s)\n", inserted)
			return nil
		},
	}
}
