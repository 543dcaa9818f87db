package main

import (
	"github.com/spf13/cobra"

	"reverb-sync/services"
)

func newCategoriesCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync-categories",
		Short: "Mirror Reverb's category list into Odoo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			svc := &services.CategoryService{
				Odoo:   a.odoo,
				Reverb: a.reverb,
				Logger: a.logger,
			}
			_, err = svc.Sync(ctx, dryRun)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list missing categories without creating them")

	return cmd
}
