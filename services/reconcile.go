package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"reverb-sync/models"
	"reverb-sync/odoo"
)

// priceTolerance absorbs currency rounding differences between Reverb
// and Odoo; numeric diffs below it are not updates.
const priceTolerance = 0.01

const reverbItemDomain = "reverb.com/item/"

// IsReverbURL reports whether url points to a Reverb item listing.
func IsReverbURL(url string) bool {
	return strings.Contains(url, reverbItemDomain)
}

// parsePrice converts a decimal string to float64, treating empty and
// unparseable values as 0.
func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ComputeChanges compares an Odoo entry against a normalised listing
// and returns the field updates needed. An empty map means no changes.
//
// Per-field policy, not a generic equality check:
//   - price updates only when positive and off by more than the
//     tolerance; a zero price from Reverb is never trusted to
//     overwrite a known value;
//   - availability is edge-triggered in each direction, so an entry
//     already unavailable for an unrelated reason stays untouched when
//     the listing is ended;
//   - shipping is only compared while the listing is live; ended
//     listings carry nil shipping by construction.
func ComputeChanges(entry *models.GuitarEntry, l *models.Listing) map[string]any {
	changes := map[string]any{}

	price := parsePrice(l.Price)
	if price > 0 && math.Abs(price-entry.Value) > priceTolerance {
		changes[models.FieldValue] = price
	}

	if l.OffersEnabled != entry.AcceptOffers {
		changes[models.FieldOffers] = l.OffersEnabled
	}

	if l.PublishedAt != "" {
		newVal := l.PublishedAt + " 00:00:00"
		if entry.PublishedAt != newVal {
			changes[models.FieldPublishedAt] = newVal
		}
	}

	if l.SaleEnded && entry.IsAvailable {
		changes[models.FieldIsAvailable] = false
	}

	if !l.SaleEnded {
		if !entry.IsAvailable {
			changes[models.FieldIsAvailable] = true
		}

		if l.ShippingPrice != nil {
			ship := parsePrice(*l.ShippingPrice)
			if math.Abs(ship-entry.Shipping) > priceTolerance {
				changes[models.FieldShipping] = ship
			}
		}
	}

	return changes
}

// ToCreateVals converts a normalised listing to the full Odoo field set
// for a new x_guitar record. A nil shipping price (should not happen
// for a live listing, but handled anyway) falls back to the supplied
// default.
func ToCreateVals(l *models.Listing, modelID int64, defaultShipping float64) map[string]any {
	ship := defaultShipping
	if l.ShippingPrice != nil {
		ship = parsePrice(*l.ShippingPrice)
	}

	vals := map[string]any{
		models.FieldName:        l.Name,
		models.FieldURL:         l.URL,
		models.FieldModels:      modelID,
		models.FieldModelType:   "Guitar",
		models.FieldValue:       parsePrice(l.Price),
		models.FieldShipping:    ship,
		models.FieldIsAvailable: !l.SaleEnded,
		models.FieldActive:      true,
		models.FieldOffers:      l.OffersEnabled,
		models.FieldTaxed:       false,
	}
	if l.PublishedAt != "" {
		vals[models.FieldPublishedAt] = l.PublishedAt + " 00:00:00"
	}

	return vals
}

// listingWarnings collects the informational notes attached to a report
// item. They never affect the action classification. The shipping note
// checks liveness explicitly: an ended listing's ships-to-Canada flag
// is nil (unknown), not false.
func listingWarnings(l *models.Listing) []string {
	var warnings []string
	if l.SaleEnded {
		status := l.Status
		if status == "" {
			status = "ended/sold"
		}
		warnings = append(warnings, "status: "+status)
	}
	if !l.SaleEnded && l.ShipsToCanada != nil && !*l.ShipsToCanada {
		warnings = append(warnings, "does NOT ship to Canada")
	}
	return warnings
}

// BuildReport cross-references Reverb search results against existing
// Odoo entries and classifies each listing into a create/update/ok/skip
// action with its field-level diff.
//
// Lookup here is exact (query-stripped) URL only: bulk reconciliation
// iterates from authoritative listing URLs, so the two-tier fallback
// matcher is reserved for single-record lookups.
func BuildReport(listings []*models.Listing, entries []*models.GuitarEntry, modelID int64, defaultShipping float64) []*models.ReportItem {
	byURL := make(map[string]*models.GuitarEntry, len(entries))
	for _, e := range entries {
		byURL[odoo.CleanURL(e.URL)] = e
	}

	report := make([]*models.ReportItem, 0, len(listings))

	for _, l := range listings {
		item := &models.ReportItem{
			Action:     models.ActionSkip,
			Listing:    l,
			Changes:    map[string]any{},
			CreateVals: map[string]any{},
		}

		if l.IsError() {
			item.Warnings = append(item.Warnings, "Reverb API error: "+l.Error)
			report = append(report, item)
			continue
		}

		if entry, ok := byURL[odoo.CleanURL(l.URL)]; ok {
			item.Entry = entry
			item.Changes = ComputeChanges(entry, l)
			if len(item.Changes) > 0 {
				item.Action = models.ActionUpdate
			} else {
				item.Action = models.ActionOK
			}
		} else {
			item.CreateVals = ToCreateVals(l, modelID, defaultShipping)
			item.Action = models.ActionCreate
		}

		item.Warnings = append(item.Warnings, listingWarnings(l)...)
		report = append(report, item)
	}

	return report
}

// BuildValidationReport compares existing Odoo entries against freshly
// scraped data for their URLs. Unlike BuildReport it starts from the
// catalog side and never yields creates. Entries whose URL is not a
// Reverb item link, or whose fetch failed, are skipped with a warning.
func BuildValidationReport(entries []*models.GuitarEntry, scraped map[string]*models.Listing) []*models.ReportItem {
	report := make([]*models.ReportItem, 0, len(entries))

	for _, entry := range entries {
		item := &models.ReportItem{
			Action:     models.ActionSkip,
			Entry:      entry,
			Changes:    map[string]any{},
			CreateVals: map[string]any{},
		}

		if !IsReverbURL(entry.URL) {
			item.Warnings = append(item.Warnings, "non-Reverb URL — skipped")
			report = append(report, item)
			continue
		}

		l, ok := scraped[entry.URL]
		if !ok || l == nil {
			item.Warnings = append(item.Warnings, "URL not found in scraped data")
			report = append(report, item)
			continue
		}
		if l.IsError() {
			item.Warnings = append(item.Warnings, fmt.Sprintf("Reverb API error: %s", l.Error))
			report = append(report, item)
			continue
		}

		item.Listing = l
		item.Changes = ComputeChanges(entry, l)
		if len(item.Changes) > 0 {
			item.Action = models.ActionUpdate
		} else {
			item.Action = models.ActionOK
		}

		item.Warnings = append(item.Warnings, listingWarnings(l)...)
		report = append(report, item)
	}

	return report
}
