package odoo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reverb-sync/models"
)

const (
	modelsModel   = "x_models"
	categoryModel = "x_reverb_category"

	// DefaultShipping is assumed when neither the model's category nor
	// the environment provides one.
	DefaultShipping = 250.0
)

// ErrModelNotFound is returned when no x_models record matches a name.
var ErrModelNotFound = errors.New("odoo: model not found")

// ErrAmbiguousModel is returned when a name matches several x_models
// records with no exact tiebreak. Guessing would risk syncing listings
// into the wrong group, so this is a hard failure.
var ErrAmbiguousModel = errors.New("odoo: ambiguous model name")

// FindModel resolves an x_models record by name (case-insensitive).
// When several rows match, an exact case-insensitive name match wins;
// otherwise the lookup fails with ErrAmbiguousModel. The linked
// x_reverb_category supplies the search category slug and the default
// shipping amount.
func (c *Client) FindModel(ctx context.Context, modelName string) (models.ModelInfo, error) {
	fields := []string{"x_name", "x_studio_reverb_category_id"}
	records, err := c.SearchRead(ctx, modelsModel,
		[]any{[]any{"x_name", "ilike", modelName}}, fields, 0, 0)
	if err != nil {
		return models.ModelInfo{}, err
	}
	if len(records) == 0 {
		return models.ModelInfo{}, fmt.Errorf("%w: %q", ErrModelNotFound, modelName)
	}

	var record map[string]any
	var exact []map[string]any
	for _, rec := range records {
		if strings.EqualFold(recString(rec, "x_name"), modelName) {
			exact = append(exact, rec)
		}
	}
	switch {
	case len(exact) == 1:
		record = exact[0]
	case len(records) == 1:
		record = records[0]
	default:
		names := make([]string, 0, len(records))
		for _, rec := range records {
			names = append(names, fmt.Sprintf("%q (id=%d)", recString(rec, "x_name"), recInt64(rec, "id")))
		}
		return models.ModelInfo{}, fmt.Errorf("%w: %q matches %s",
			ErrAmbiguousModel, modelName, strings.Join(names, ", "))
	}

	info := models.ModelInfo{
		ID:              recInt64(record, "id"),
		Name:            recString(record, "x_name"),
		DefaultShipping: DefaultShipping,
	}
	c.resolveCategory(ctx, recRef(record, "x_studio_reverb_category_id"), &info)
	return info, nil
}

// FetchAllModels returns every x_models record with category slug and
// default shipping resolved, prefetching all referenced categories in
// one call.
func (c *Client) FetchAllModels(ctx context.Context) ([]models.ModelInfo, error) {
	fields := []string{"x_name", "x_studio_reverb_category_id"}
	records, err := c.SearchRead(ctx, modelsModel, []any{}, fields, 0, 0)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		c.logger.Warn("[odoo] No models found")
		return nil, nil
	}

	catIDs := map[int64]struct{}{}
	for _, rec := range records {
		if id := recRef(rec, "x_studio_reverb_category_id"); id != 0 {
			catIDs[id] = struct{}{}
		}
	}

	catMap := map[int64]map[string]any{}
	if len(catIDs) > 0 {
		ids := make([]any, 0, len(catIDs))
		for id := range catIDs {
			ids = append(ids, id)
		}
		catRecords, err := c.SearchRead(ctx, categoryModel,
			[]any{[]any{"id", "in", ids}},
			[]string{"x_studio_slug", "x_studio_default_shipping_price"}, 0, 0)
		if err != nil {
			return nil, err
		}
		for _, rec := range catRecords {
			catMap[recInt64(rec, "id")] = rec
		}
	}

	result := make([]models.ModelInfo, 0, len(records))
	for _, rec := range records {
		info := models.ModelInfo{
			ID:              recInt64(rec, "id"),
			Name:            recString(rec, "x_name"),
			DefaultShipping: DefaultShipping,
		}
		if cat, ok := catMap[recRef(rec, "x_studio_reverb_category_id")]; ok {
			applyCategory(cat, &info)
		}
		result = append(result, info)
	}

	c.logger.Info("[odoo] Found %d model(s)", len(result))
	return result, nil
}

func (c *Client) resolveCategory(ctx context.Context, catID int64, info *models.ModelInfo) {
	if catID == 0 {
		return
	}
	records, err := c.SearchRead(ctx, categoryModel,
		[]any{[]any{"id", "=", catID}},
		[]string{"x_studio_slug", "x_studio_default_shipping_price"}, 0, 0)
	if err != nil || len(records) == 0 {
		return
	}
	applyCategory(records[0], info)
}

func applyCategory(rec map[string]any, info *models.ModelInfo) {
	info.CategorySlug = recString(rec, "x_studio_slug")
	if ship := recFloat(rec, "x_studio_default_shipping_price"); ship > 0 {
		info.DefaultShipping = ship
	}
}

// CategoryRecord is an existing x_reverb_category row.
type CategoryRecord struct {
	ID     int64
	Name   string
	Slug   string
	Active bool
}

// FetchCategoryRecords returns all x_reverb_category rows.
func (c *Client) FetchCategoryRecords(ctx context.Context) ([]CategoryRecord, error) {
	records, err := c.SearchReadAll(ctx, categoryModel, []any{},
		[]string{"x_name", "x_studio_slug", "x_active"}, 0)
	if err != nil {
		return nil, err
	}

	out := make([]CategoryRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, CategoryRecord{
			ID:     recInt64(rec, "id"),
			Name:   recString(rec, "x_name"),
			Slug:   recString(rec, "x_studio_slug"),
			Active: recBool(rec, "x_active"),
		})
	}
	return out, nil
}

// CreateCategory inserts a new x_reverb_category row.
func (c *Client) CreateCategory(ctx context.Context, vals map[string]any) (int64, error) {
	return c.Create(ctx, categoryModel, vals)
}
