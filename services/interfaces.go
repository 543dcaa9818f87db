package services

import (
	"context"

	"reverb-sync/models"
	"reverb-sync/odoo"
	"reverb-sync/reverb"
)

// ReverbGateway is the slice of the Reverb client the sync services use.
type ReverbGateway interface {
	Search(ctx context.Context, query string, opts reverb.SearchOptions) ([]*models.Listing, error)
	ExtractMany(ctx context.Context, urls []string, maxConcurrent int) []*models.Listing
	FetchCategories(ctx context.Context) []models.Category
}

// OdooGateway is the slice of the Odoo client the sync services use.
// Read operations may be called concurrently from collect workers;
// CreateGuitar and WriteGuitar are only invoked from the serial apply
// phase.
type OdooGateway interface {
	FindModel(ctx context.Context, name string) (models.ModelInfo, error)
	FetchAllModels(ctx context.Context) ([]models.ModelInfo, error)
	FetchGuitars(ctx context.Context, modelID int64) ([]*models.GuitarEntry, error)
	CreateGuitar(ctx context.Context, vals map[string]any) (int64, error)
	WriteGuitar(ctx context.Context, id int64, changes map[string]any) error
	FetchCategoryRecords(ctx context.Context) ([]odoo.CategoryRecord, error)
	CreateCategory(ctx context.Context, vals map[string]any) (int64, error)
}

// SnapshotWriter persists the canonical listings seen during a run.
type SnapshotWriter interface {
	WriteListings(listings []*models.Listing) error
	Close() error
}
