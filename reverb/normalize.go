package reverb

import (
	"regexp"
	"strings"
	"time"

	"reverb-sync/models"
)

var (
	// htmlTagRegexp matches HTML tags; character entities are left intact.
	htmlTagRegexp = regexp.MustCompile(`<[^>]+>`)
	// whitespaceRegexp matches runs of whitespace for collapsing.
	whitespaceRegexp = regexp.MustCompile(`\s+`)
)

// State slugs that mean the sale is over. Shipping resolution depends on
// this: an ended listing no longer quotes shipping, which is not the
// same thing as shipping becoming free.
var endedStateSlugs = map[string]struct{}{
	"sold":      {},
	"ended":     {},
	"suspended": {},
}

// Normalizer converts raw Reverb payloads into canonical listings. Its
// fields are pure lookup configuration with no lifecycle.
type Normalizer struct {
	Currency        string // e.g. "CAD"
	ShippingRegion  string // e.g. "CA"
	DefaultShipping string // decimal string fallback, e.g. "250.00"
}

// Normalize transforms one API payload into a canonical Listing. It
// never fails: missing values become zero values and every field is
// present on the result.
func (n *Normalizer) Normalize(raw models.RawListing, url string) *models.Listing {
	l := &models.Listing{URL: url}

	l.Name = rawString(raw, "title")
	l.Make = rawString(raw, "make")
	l.Model = rawString(raw, "model")
	l.Finish = rawString(raw, "finish")
	l.Year = rawString(raw, "year")

	price := rawMap(raw, "price")
	l.Price = rawString(price, "amount")
	l.Currency = rawString(price, "currency")
	if l.Currency == "" {
		l.Currency = n.Currency
	}
	l.PriceDisplay = rawString(price, "display")

	l.Condition = rawString(rawMap(raw, "condition"), "display_name")

	// Sale status is resolved before shipping; the shipping rules
	// depend on it.
	state := rawMap(raw, "state")
	slug := rawString(state, "slug")
	l.Status = rawString(state, "description")
	if l.Status == "" {
		l.Status = slug
	}
	_, l.SaleEnded = endedStateSlugs[slug]

	n.resolveShipping(raw, l)

	l.OffersEnabled = rawBool(raw, "offers_enabled")

	l.CreatedAt = formatDate(rawString(raw, "created_at"))
	l.PublishedAt = formatDate(rawString(raw, "published_at"))

	l.Seller = rawString(raw, "shop_name")
	l.Location = rawString(rawMap(raw, "location"), "display_location")
	l.Description = cleanHTML(rawString(raw, "description"))

	stats := rawMap(raw, "stats")
	l.Views = rawInt(stats, "views")
	l.Watchers = rawInt(stats, "watches")

	for _, item := range rawList(raw, "categories") {
		if cat, ok := item.(map[string]any); ok {
			l.Categories = append(l.Categories, rawString(cat, "full_name"))
		}
	}

	links := rawMap(raw, "_links")
	l.PhotoURL = rawString(rawMap(links, "photo"), "href")

	return l
}

// resolveShipping fills the five shipping fields.
//
// An ended listing gets nil/empty shipping so downstream diffing
// preserves the value already on file. A live listing uses the resolved
// rate verbatim ("0.00" is free shipping, a valid value, not a missing
// one) and falls back to the configured default (ShipsToCanada=false)
// when no rate applies.
func (n *Normalizer) resolveShipping(raw models.RawListing, l *models.Listing) {
	rates := shippingRates(raw)

	regions := make([]string, 0, len(rates))
	for _, r := range rates {
		regions = append(regions, r.RegionCode)
	}
	l.ShippingRegions = regions

	if l.SaleEnded {
		l.ShippingPrice = nil
		l.ShippingDisplay = ""
		l.ShippingRegion = ""
		l.ShipsToCanada = nil
		return
	}

	if rate := FindShippingRate(rates, n.ShippingRegion); rate != nil {
		amount := rate.Amount
		if amount == "" {
			amount = n.DefaultShipping
		}
		l.ShippingPrice = &amount
		l.ShippingDisplay = rate.Display
		l.ShippingRegion = rate.RegionCode
		shipsTo := true
		l.ShipsToCanada = &shipsTo
		return
	}

	fallback := n.DefaultShipping
	l.ShippingPrice = &fallback
	l.ShippingDisplay = "C$" + fallback
	l.ShippingRegion = ""
	shipsTo := false
	l.ShipsToCanada = &shipsTo
}

// formatDate converts an ISO timestamp to YYYY-MM-DD. Timestamps with
// timezone information are converted to UTC first so the calendar date
// is stable regardless of the offset the API reports. Anything
// unparseable passes through unchanged; dates are informational, not
// keys.
func formatDate(dateStr string) string {
	if dateStr == "" {
		return ""
	}

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		t, err := time.Parse(layout, dateStr)
		if err != nil {
			continue
		}
		if layout == time.RFC3339 {
			t = t.UTC()
		}
		return t.Format("2006-01-02")
	}

	return dateStr
}

// cleanHTML strips HTML tags (entities are not decoded) and collapses
// whitespace runs to single spaces.
func cleanHTML(html string) string {
	if html == "" {
		return ""
	}
	clean := htmlTagRegexp.ReplaceAllString(html, "")
	clean = whitespaceRegexp.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}
