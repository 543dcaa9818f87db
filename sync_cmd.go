package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reverb-sync/models"
	"reverb-sync/services"
)

func newSyncCmd() *cobra.Command {
	var (
		all        bool
		search     string
		category   string
		noCategory bool
		dryRun     bool
		yes        bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "sync [model name]",
		Short: "Search Reverb and reconcile listings into the Odoo catalog",
		Long: `Searches Reverb for each model's listings, compares them against the
existing Odoo guitar entries, prints a report and (after confirmation)
applies the updates and creates.`,
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
			for i := range infos {
				if noCategory {
					infos[i].CategorySlug = ""
				} else if category != "" {
					infos[i].CategorySlug = category
				}
			}

			svc := &services.SyncService{
				Odoo:           a.odoo,
				Reverb:         a.reverb,
				Logger:         a.logger,
				Workers:        a.cfg.Workers,
				MaxConcurrency: a.cfg.MaxConcurrency,
				Snapshots:      a.snapshots,
			}

			collected := svc.CollectAll(ctx, infos, search)

			totalUpdates, totalCreates := 0, 0
			for _, data := range collected {
				fmt.Printf("\n### %s ###\n", data.Model.Name)
				services.PrintReport(data.Report)
				totalUpdates += data.UpdateCount
				totalCreates += data.CreateCount
			}

			if totalUpdates == 0 && totalCreates == 0 {
				a.logger.Success("Everything is up to date — nothing to apply")
				return nil
			}
			if dryRun {
				a.logger.Info("[DRY-RUN] Skipping %d update(s) and %d create(s)", totalUpdates, totalCreates)
				return nil
			}
			if !yes && !confirm(fmt.Sprintf("Apply %d update(s) and %d create(s)?", totalUpdates, totalCreates)) {
				a.logger.Warn("Aborted — no changes written")
				return nil
			}

			applied, created, applyErr := svc.ApplyAll(ctx, collected)
			a.logger.Success("Done — %d updated, %d created", applied, created)
			return applyErr
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "sync every model in the catalog")
	cmd.Flags().StringVar(&search, "search", "", "override the Reverb search query (default: model name)")
	cmd.Flags().StringVar(&category, "category", "", "override the Reverb category filter")
	cmd.Flags().BoolVar(&noCategory, "no-category", false, "search without a category filter")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the report without writing anything")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "apply without asking for confirmation")
	cmd.Flags().IntVar(&workers, "workers", 0, "collect-phase worker count (default from config)")

	return cmd
}

// resolveModels turns the command arguments into the model set to work
// on: every model for --all, a single name lookup otherwise.
func resolveModels(ctx context.Context, a *app, all bool, name string) ([]models.ModelInfo, error) {
	if all {
		infos, err := a.odoo.FetchAllModels(ctx)
		if err != nil {
			return nil, err
		}
		if len(infos) == 0 {
			return nil, fmt.Errorf("no models found in the catalog")
		}
		a.logger.Info("Loaded %d model(s) from Odoo", len(infos))
		return infos, nil
	}

	info, err := a.odoo.FindModel(ctx, name)
	if err != nil {
		return nil, err
	}
	return []models.ModelInfo{info}, nil
}

func argOrEmpty(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
