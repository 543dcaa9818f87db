package services

import (
	"context"
	"errors"
	"fmt"

	"reverb-sync/models"
	"reverb-sync/utils"
)

// ValidationData is the collect-phase result for one model during a
// validate run.
type ValidationData struct {
	Model       models.ModelInfo
	Entries     []*models.GuitarEntry
	Scraped     map[string]*models.Listing
	Report      []*models.ReportItem
	UpdateCount int
}

// ValidateService refreshes existing Odoo entries against live Reverb
// data. It starts from the catalog side: every entry with a Reverb item
// URL is re-fetched and diffed. It only ever updates, never creates.
type ValidateService struct {
	Odoo           OdooGateway
	Reverb         ReverbGateway
	Logger         *utils.Logger
	Workers        int
	MaxConcurrency int
	Snapshots      []SnapshotWriter
}

// CollectValidationData fetches a model's entries and scrapes their
// Reverb URLs concurrently. Errors degrade to an empty report.
func (v *ValidateService) CollectValidationData(ctx context.Context, model models.ModelInfo) *ValidationData {
	data := &ValidationData{Model: model, Scraped: map[string]*models.Listing{}}

	v.Logger.Info("[validate] [%s] Fetching Odoo entries…", model.Name)
	entries, err := v.Odoo.FetchGuitars(ctx, model.ID)
	if err != nil {
		v.Logger.Error("[validate] [%s] Odoo fetch failed: %v", model.Name, err)
		return data
	}
	data.Entries = entries
	v.Logger.Info("[validate] [%s] Found %d guitar entries", model.Name, len(entries))

	if len(entries) == 0 {
		return data
	}

	var urls []string
	for _, e := range entries {
		if IsReverbURL(e.URL) {
			urls = append(urls, e.URL)
		}
	}

	if len(urls) > 0 {
		v.Logger.Info("[validate] [%s] Scraping %d Reverb URL(s)…", model.Name, len(urls))
		results := v.Reverb.ExtractMany(ctx, urls, v.MaxConcurrency)
		for i, u := range urls {
			data.Scraped[u] = results[i]
		}
		v.Logger.Success("[validate] [%s] Scraped %d Reverb listing(s)", model.Name, len(results))

		v.writeSnapshots(results)
	}

	data.Report = BuildValidationReport(entries, data.Scraped)
	for _, item := range data.Report {
		if item.Action == models.ActionUpdate {
			data.UpdateCount++
		}
	}

	return data
}

// CollectAll runs the validate collect phase for all models with a
// bounded worker pool, preserving input order in the output slice.
func (v *ValidateService) CollectAll(ctx context.Context, infos []models.ModelInfo) []*ValidationData {
	workers := v.Workers
	if workers > len(infos) {
		workers = len(infos)
	}
	v.Logger.Info("[validate] Collecting %d model(s) with %d worker(s)…", len(infos), workers)

	collected := make([]*ValidationData, len(infos))
	pool := utils.NewWorkerPool(workers, 0)
	for i := range infos {
		idx := i
		pool.Submit(func() {
			collected[idx] = v.CollectValidationData(ctx, infos[idx])
		})
	}
	pool.Wait()

	return collected
}

// ApplyReport writes update actions back to Odoo, serially. Creates
// never occur in a validation report.
func (v *ValidateService) ApplyReport(ctx context.Context, report []*models.ReportItem) (updated int, err error) {
	var errs []error

	for _, item := range report {
		if item.Action != models.ActionUpdate || len(item.Changes) == 0 {
			continue
		}
		eid := item.Entry.ID
		v.Logger.Info("[validate] Updating id=%d: %v", eid, item.Changes)
		if werr := v.Odoo.WriteGuitar(ctx, eid, item.Changes); werr != nil {
			v.Logger.Error("[validate] Update id=%d failed: %v", eid, werr)
			errs = append(errs, fmt.Errorf("update id=%d: %w", eid, werr))
			continue
		}
		updated++
	}

	return updated, errors.Join(errs...)
}

// ApplyAll runs the apply phase for every collected model in order,
// joining per-model failures instead of keeping only the last one.
func (v *ValidateService) ApplyAll(ctx context.Context, collected []*ValidationData) (updated int, err error) {
	var errs []error
	for _, data := range collected {
		u, aerr := v.ApplyReport(ctx, data.Report)
		updated += u
		if aerr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", data.Model.Name, aerr))
		}
	}
	return updated, errors.Join(errs...)
}

func (v *ValidateService) writeSnapshots(listings []*models.Listing) {
	for _, w := range v.Snapshots {
		if err := w.WriteListings(listings); err != nil {
			v.Logger.Error("[validate] Snapshot write failed: %v", err)
		}
	}
}
