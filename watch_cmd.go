package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"reverb-sync/services"
)

func newWatchCmd() *cobra.Command {
	var interval int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run a full sync of every model on a fixed schedule",
		Long: `Runs "sync --all" immediately and then again on a fixed interval,
applying changes without confirmation. Intended for long-running
unattended operation; stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			hours := a.cfg.WatchIntervalHours
			if interval > 0 {
				hours = interval
			}

			run := func() {
				if err := runScheduledSync(ctx, a); err != nil {
					a.logger.Error("[watch] Sync run failed: %v", err)
				}
			}

			a.logger.Info("[watch] Syncing every %dh — running first pass now", hours)
			run()

			c := cron.New()
			if _, err := c.AddFunc(fmt.Sprintf("@every %dh", hours), run); err != nil {
				return fmt.Errorf("schedule: %w", err)
			}
			c.Start()
			defer c.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
			a.logger.Info("[watch] Shutting down")
			return nil
		},
	}

	cmd.Flags().IntVar(&interval, "interval", 0, "hours between sync runs (default from config)")

	return cmd
}

// runScheduledSync is one unattended sync pass over every model.
func runScheduledSync(ctx context.Context, a *app) error {
	infos, err := a.odoo.FetchAllModels(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		a.logger.Warn("[watch] No models found in the catalog")
		return nil
	}

	svc := &services.SyncService{
		Odoo:           a.odoo,
		Reverb:         a.reverb,
		Logger:         a.logger,
		Workers:        a.cfg.Workers,
		MaxConcurrency: a.cfg.MaxConcurrency,
		Snapshots:      a.snapshots,
	}

	collected := svc.CollectAll(ctx, infos, "")

	applied, created, applyErr := svc.ApplyAll(ctx, collected)
	a.logger.Success("[watch] Pass complete — %d updated, %d created", applied, created)
	return applyErr
}
