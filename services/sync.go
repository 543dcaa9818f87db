package services

import (
	"context"
	"errors"
	"fmt"

	"reverb-sync/models"
	"reverb-sync/reverb"
	"reverb-sync/utils"
)

// SyncService drives the search → reconcile → apply workflow.
type SyncService struct {
	Odoo           OdooGateway
	Reverb         ReverbGateway
	Logger         *utils.Logger
	Workers        int // worker pool size for --all collection
	MaxConcurrency int // in-flight Reverb requests per worker
	Snapshots      []SnapshotWriter
}

// CollectSyncData runs the I/O-heavy phase for one model: search Reverb,
// fetch existing Odoo entries, build the report. It never fails: any
// error is logged and yields an empty report so one model's trouble
// cannot abort a batch.
func (s *SyncService) CollectSyncData(ctx context.Context, model models.ModelInfo, searchQuery string) *models.SyncData {
	data := &models.SyncData{Model: model}

	query := searchQuery
	if query == "" {
		query = model.Name
	}

	s.Logger.Info("[sync] [%s] Searching Reverb for %q…", model.Name, query)
	// state=all captures sold listings too, so availability flips happen.
	results, err := s.Reverb.Search(ctx, query, reverb.SearchOptions{
		Category: model.CategorySlug,
		State:    "all",
	})
	if err != nil {
		s.Logger.Error("[sync] [%s] Reverb search failed: %v", model.Name, err)
		return data
	}
	if len(results) == 0 {
		s.Logger.Warn("[sync] [%s] No Reverb results for %q", model.Name, query)
		return data
	}
	data.ReverbResults = results

	s.writeSnapshots(results)

	s.Logger.Info("[sync] [%s] Fetching existing Odoo entries…", model.Name)
	entries, err := s.Odoo.FetchGuitars(ctx, model.ID)
	if err != nil {
		s.Logger.Error("[sync] [%s] Odoo fetch failed: %v", model.Name, err)
		return data
	}
	s.Logger.Info("[sync] [%s] Found %d existing entries", model.Name, len(entries))
	data.OdooEntries = entries

	data.Report = BuildReport(results, entries, model.ID, model.DefaultShipping)
	for _, item := range data.Report {
		switch item.Action {
		case models.ActionUpdate:
			data.UpdateCount++
		case models.ActionCreate:
			data.CreateCount++
		}
	}

	return data
}

// CollectAll fans the collect phase out across models with a bounded
// worker pool. Results land in a preallocated slice at each model's
// original index, so output order always matches input order regardless
// of completion order.
func (s *SyncService) CollectAll(ctx context.Context, infos []models.ModelInfo, searchQuery string) []*models.SyncData {
	workers := s.Workers
	if workers > len(infos) {
		workers = len(infos)
	}
	s.Logger.Info("[sync] Collecting %d model(s) with %d worker(s)…", len(infos), workers)

	collected := make([]*models.SyncData, len(infos))
	pool := utils.NewWorkerPool(workers, 0)
	for i := range infos {
		idx := i
		pool.Submit(func() {
			collected[idx] = s.CollectSyncData(ctx, infos[idx], searchQuery)
		})
	}
	pool.Wait()

	return collected
}

// ApplyReport writes a report's updates and creates to Odoo, serially
// and in report order. Failures are logged and do not stop the
// remaining writes; the joined error is returned at the end.
func (s *SyncService) ApplyReport(ctx context.Context, report []*models.ReportItem) (updated, created int, err error) {
	var errs []error

	for _, item := range report {
		switch item.Action {
		case models.ActionUpdate:
			eid := item.Entry.ID
			s.Logger.Info("[sync] Updating id=%d: %v", eid, item.Changes)
			if werr := s.Odoo.WriteGuitar(ctx, eid, item.Changes); werr != nil {
				s.Logger.Error("[sync] Update id=%d failed: %v", eid, werr)
				errs = append(errs, fmt.Errorf("update id=%d: %w", eid, werr))
				continue
			}
			updated++

		case models.ActionCreate:
			name, _ := item.CreateVals[models.FieldName].(string)
			s.Logger.Info("[sync] Creating: %s", truncate(name, 50))
			newID, cerr := s.Odoo.CreateGuitar(ctx, item.CreateVals)
			if cerr != nil {
				s.Logger.Error("[sync] Create %q failed: %v", name, cerr)
				errs = append(errs, fmt.Errorf("create %q: %w", name, cerr))
				continue
			}
			s.Logger.Success("[sync]   → created id=%d", newID)
			created++
		}
	}

	return updated, created, errors.Join(errs...)
}

// ApplyAll runs the apply phase for every collected model in order.
// Each model's failures are tagged with its name and joined, so no
// group's error shadows another's.
func (s *SyncService) ApplyAll(ctx context.Context, collected []*models.SyncData) (updated, created int, err error) {
	var errs []error
	for _, data := range collected {
		u, c, aerr := s.ApplyReport(ctx, data.Report)
		updated += u
		created += c
		if aerr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", data.Model.Name, aerr))
		}
	}
	return updated, created, errors.Join(errs...)
}

func (s *SyncService) writeSnapshots(listings []*models.Listing) {
	for _, w := range s.Snapshots {
		if err := w.WriteListings(listings); err != nil {
			s.Logger.Error("[sync] Snapshot write failed: %v", err)
		}
	}
}
