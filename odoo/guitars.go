package odoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"reverb-sync/models"
)

const guitarModel = "x_guitar"

// GuitarFields are the x_guitar fields fetched for reconciliation.
var GuitarFields = []string{
	models.FieldName,
	models.FieldURL,
	models.FieldModels,
	models.FieldValue,
	models.FieldShipping,
	models.FieldTaxed,
	models.FieldIsAvailable,
	models.FieldActive,
	models.FieldOffers,
	models.FieldModelType,
	models.FieldPublishedAt,
}

// CleanURL strips the query string from a URL for identity comparison.
// Reverb appends tracking parameters that must not defeat matching.
func CleanURL(u string) string {
	if i := strings.Index(u, "?"); i >= 0 {
		return u[:i]
	}
	return u
}

// ExtractItemID extracts the numeric Reverb item id from a listing URL
// (https://reverb.com/item/94370297-godin-... → "94370297"). It returns
// "" when the URL is not shaped like an item link; shop and category
// pages get no fallback matching.
func ExtractItemID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] != "item" {
		return ""
	}

	slug := parts[len(parts)-1]
	segment, _, _ := strings.Cut(slug, "-")
	if segment == "" {
		return ""
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return segment
}

func decodeGuitar(rec map[string]any) *models.GuitarEntry {
	return &models.GuitarEntry{
		ID:           recInt64(rec, "id"),
		Name:         recString(rec, models.FieldName),
		URL:          recString(rec, models.FieldURL),
		ModelID:      recRef(rec, models.FieldModels),
		Value:        recFloat(rec, models.FieldValue),
		Shipping:     recFloat(rec, models.FieldShipping),
		IsAvailable:  recBool(rec, models.FieldIsAvailable),
		Active:       recBool(rec, models.FieldActive),
		AcceptOffers: recBool(rec, models.FieldOffers),
		Taxed:        recBool(rec, models.FieldTaxed),
		PublishedAt:  recString(rec, models.FieldPublishedAt),
	}
}

// FetchGuitars returns all x_guitar records linked to the given model.
func (c *Client) FetchGuitars(ctx context.Context, modelID int64) ([]*models.GuitarEntry, error) {
	records, err := c.SearchRead(ctx, guitarModel,
		[]any{[]any{models.FieldModels, "=", modelID}}, GuitarFields, 0, 0)
	if err != nil {
		return nil, err
	}

	entries := make([]*models.GuitarEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, decodeGuitar(rec))
	}
	return entries, nil
}

// FindGuitarByURL looks up a single x_guitar record by its listing URL.
//
// Matching is two-tier: an exact match on x_studio_url first, then, only
// for item-shaped URLs, a substring match on the stable numeric item id.
// Listings get re-slugged when their title changes, so exact matching
// alone would fail to recognise an already-known listing after a
// cosmetic URL change.
func (c *Client) FindGuitarByURL(ctx context.Context, rawURL string) (*models.GuitarEntry, error) {
	rawURL = CleanURL(rawURL)

	records, err := c.SearchRead(ctx, guitarModel,
		[]any{[]any{models.FieldURL, "=", rawURL}}, GuitarFields, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		entry := decodeGuitar(records[0])
		c.logger.Success("[odoo] Exact URL match → id=%d", entry.ID)
		return entry, nil
	}

	itemID := ExtractItemID(rawURL)
	if itemID != "" {
		c.logger.Debug("[odoo] Trying partial match with item ID %q…", itemID)
		records, err = c.SearchRead(ctx, guitarModel,
			[]any{[]any{models.FieldURL, "ilike", itemID}}, GuitarFields, 1, 0)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			entry := decodeGuitar(records[0])
			c.logger.Success("[odoo] Partial URL match (item %s) → id=%d", itemID, entry.ID)
			return entry, nil
		}
	}

	c.logger.Warn("[odoo] No x_guitar record found for URL: %s", rawURL)
	return nil, nil
}

// CreateGuitar inserts a new x_guitar record and returns its id.
func (c *Client) CreateGuitar(ctx context.Context, vals map[string]any) (int64, error) {
	return c.Create(ctx, guitarModel, vals)
}

// WriteGuitar applies field changes to an existing x_guitar record.
func (c *Client) WriteGuitar(ctx context.Context, id int64, changes map[string]any) error {
	if len(changes) == 0 {
		return fmt.Errorf("odoo: write id=%d: empty change set", id)
	}
	return c.Write(ctx, guitarModel, id, changes)
}
