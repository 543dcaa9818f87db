package services

import (
	"context"

	"reverb-sync/models"
	"reverb-sync/utils"
)

// CategoryService mirrors Reverb's flat category list into the
// x_reverb_category model. Missing categories are created; existing
// ones (matched by name) are never touched.
type CategoryService struct {
	Odoo   OdooGateway
	Reverb ReverbGateway
	Logger *utils.Logger
}

// MakeSlug builds a unique slug for a Reverb category. Root categories
// keep their plain slug; subcategories get "root_slug/slug" so slugs
// stay unique across root categories.
func MakeSlug(cat models.Category) string {
	if cat.Slug == cat.RootSlug || cat.RootSlug == "" {
		return cat.Slug
	}
	return cat.RootSlug + "/" + cat.Slug
}

// Sync fetches Reverb categories and creates the missing ones in Odoo.
// Returns the number created (0 in dry-run mode).
func (c *CategoryService) Sync(ctx context.Context, dryRun bool) (int, error) {
	cats := c.Reverb.FetchCategories(ctx)
	if len(cats) == 0 {
		c.Logger.Error("[categories] No categories returned from Reverb — aborting")
		return 0, nil
	}
	c.Logger.Info("[categories] Reverb categories fetched: %d", len(cats))

	existing, err := c.Odoo.FetchCategoryRecords(ctx)
	if err != nil {
		return 0, err
	}
	c.Logger.Info("[categories] Existing Odoo categories: %d", len(existing))

	byName := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		byName[rec.Name] = struct{}{}
	}

	var toCreate []models.Category
	for _, cat := range cats {
		if cat.FullName == "" {
			continue
		}
		if _, ok := byName[cat.FullName]; ok {
			continue
		}
		toCreate = append(toCreate, cat)
	}

	if len(toCreate) == 0 {
		c.Logger.Success("[categories] All %d categories already exist — nothing to do", len(cats))
		return 0, nil
	}
	c.Logger.Info("[categories] Categories to create: %d", len(toCreate))

	if dryRun {
		for _, cat := range toCreate {
			c.Logger.Info("[categories]   [DRY-RUN] would create: %s (slug: %s)", cat.FullName, MakeSlug(cat))
		}
		return 0, nil
	}

	created := 0
	for i, cat := range toCreate {
		vals := map[string]any{
			"x_name":        cat.FullName,
			"x_studio_slug": MakeSlug(cat),
			"x_active":      true,
		}
		newID, err := c.Odoo.CreateCategory(ctx, vals)
		if err != nil {
			c.Logger.Error("[categories]   Failed to create %q: %v", cat.FullName, err)
			continue
		}
		created++
		c.Logger.Debug("[categories]   [%d/%d] Created id=%d: %s", i+1, len(toCreate), newID, cat.FullName)
	}

	c.Logger.Success("[categories] Done — created %d / %d categories", created, len(toCreate))
	return created, nil
}
