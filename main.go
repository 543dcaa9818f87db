package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reverb-sync/config"
	"reverb-sync/odoo"
	"reverb-sync/reverb"
	"reverb-sync/services"
	"reverb-sync/storage"
	"reverb-sync/utils"
)

// app bundles the wired-up clients every command needs.
type app struct {
	cfg       *config.Config
	logger    *utils.Logger
	odoo      *odoo.Client
	reverb    *reverb.Client
	snapshots []services.SnapshotWriter
}

// newApp loads configuration, connects to Odoo (with retry) and builds
// the Reverb client and any configured snapshot writers.
func newApp(ctx context.Context) (*app, error) {
	logger := utils.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	rc := reverb.NewClient(
		cfg.Currency,
		cfg.ShippingRegion,
		strconv.FormatFloat(cfg.DefaultShipping, 'f', 2, 64),
		time.Duration(cfg.HTTPTimeoutSec)*time.Second,
		logger,
	)

	oc := odoo.NewClient(cfg.OdooHostname, cfg.OdooDatabase, cfg.OdooLogin, cfg.OdooPassword, logger)
	retry := &utils.RetryConfig{MaxAttempts: 3, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("odoo connect", func() error { return oc.Connect(ctx) }); err != nil {
		return nil, err
	}
	logger.Success("Connected to Odoo at %s (db: %s)", cfg.OdooHostname, cfg.OdooDatabase)

	a := &app{cfg: cfg, logger: logger, odoo: oc, reverb: rc}

	if cfg.SnapshotCSV != "" {
		w, err := storage.NewCSVWriter(cfg.SnapshotCSV)
		if err != nil {
			return nil, err
		}
		logger.Info("Snapshot CSV: %s", cfg.SnapshotCSV)
		a.snapshots = append(a.snapshots, w)
	}
	if cfg.SnapshotDSN != "" {
		w, err := storage.NewPostgresWriter(cfg.SnapshotDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("Snapshot DB connected")
		a.snapshots = append(a.snapshots, w)
	}

	return a, nil
}

func (a *app) close() {
	for _, w := range a.snapshots {
		if err := w.Close(); err != nil {
			a.logger.Error("Snapshot close failed: %v", err)
		}
	}
}

// confirm asks the operator to approve the writes a report would make.
func confirm(prompt string) bool {
	fmt.Printf("\n%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reverb-sync",
		Short:         "Sync Reverb guitar listings into the Odoo catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSyncCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newCategoriesCmd())
	root.AddCommand(newWatchCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
