package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reverb-sync/services"
)

func newValidateCmd() *cobra.Command {
	var (
		all     bool
		dryRun  bool
		yes     bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "validate [model name]",
		Short: "Re-check existing catalog entries against live Reverb data",
		Long: `Fetches every Odoo guitar entry with a Reverb URL, scrapes the listing
again and reports entries whose price, shipping or availability has
drifted. Only updates existing entries; never creates.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("either a model name or --all is required")
			}
			if all && len(args) > 0 {
				return fmt.Errorf("a model name and --all are mutually exclusive")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if workers > 0 {
				a.cfg.Workers = workers
			}

			infos, err := resolveModels(ctx, a, all, argOrEmpty(args))
			if err != nil {
				return err
			}

			svc := &services.ValidateService{
				Odoo:           a.odoo,
				Reverb:         a.reverb,
				Logger:         a.logger,
				Workers:        a.cfg.Workers,
				MaxConcurrency: a.cfg.MaxConcurrency,
				Snapshots:      a.snapshots,
			}

			collected := svc.CollectAll(ctx, infos)

			totalUpdates := 0
			for _, data := range collected {
				fmt.Printf("\n### %s ###\n", data.Model.Name)
				services.PrintValidationReport(data.Report)
				totalUpdates += data.UpdateCount
			}

			if totalUpdates == 0 {
				a.logger.Success("All entries are up to date")
				return nil
			}
			if dryRun {
				a.logger.Info("[DRY-RUN] Skipping %d update(s)", totalUpdates)
				return nil
			}
			if !yes && !confirm(fmt.Sprintf("Apply %d update(s)?", totalUpdates)) {
				a.logger.Warn("Aborted — no changes written")
				return nil
			}

			applied, applyErr := svc.ApplyAll(ctx, collected)
			a.logger.Success("Done — %d updated", applied)
			return applyErr
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "validate every model in the catalog")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the report without writing anything")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "apply without asking for confirmation")
	cmd.Flags().IntVar(&workers, "workers", 0, "collect-phase worker count (default from config)")

	return cmd
}
