package services

import (
	"testing"

	"reverb-sync/models"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func liveListing(url, price string) *models.Listing {
	return &models.Listing{
		URL:           url,
		Name:          "Fender Stratocaster",
		Price:         price,
		Currency:      "CAD",
		PriceDisplay:  "C$" + price,
		Status:        "Live",
		ShippingPrice: strPtr("150.00"),
		ShipsToCanada: boolPtr(true),
		OffersEnabled: true,
		PublishedAt:   "2024-03-15",
	}
}

func matchingEntry(url string) *models.GuitarEntry {
	return &models.GuitarEntry{
		ID:           10,
		Name:         "Fender Stratocaster",
		URL:          url,
		Value:        1500,
		Shipping:     150,
		IsAvailable:  true,
		Active:       true,
		AcceptOffers: true,
		PublishedAt:  "2024-03-15 00:00:00",
	}
}

func TestComputeChangesNoDrift(t *testing.T) {
	l := liveListing("https://reverb.com/item/1-strat", "1500.00")
	entry := matchingEntry(l.URL)

	changes := ComputeChanges(entry, l)
	if len(changes) != 0 {
		t.Errorf("identical data should yield no changes, got %v", changes)
	}
}

func TestComputeChangesPriceDrift(t *testing.T) {
	l := liveListing("https://reverb.com/item/1-strat", "1399.00")
	entry := matchingEntry(l.URL)

	changes := ComputeChanges(entry, l)
	if got, ok := changes[models.FieldValue]; !ok || got != 1399.0 {
		t.Errorf("expected price change to 1399, got %v", changes)
	}
	if len(changes) != 1 {
		t.Errorf("only the price should change, got %v", changes)
	}
}

func TestComputeChangesPriceWithinTolerance(t *testing.T) {
	l := liveListing("https://reverb.com/item/1-strat", "1500.005")
	entry := matchingEntry(l.URL)

	if changes := ComputeChanges(entry, l); len(changes) != 0 {
		t.Errorf("sub-cent drift is not an update, got %v", changes)
	}
}

func TestComputeChangesZeroPriceNeverOverwrites(t *testing.T) {
	for _, price := range []string{"0", "0.00", "", "garbage"} {
		l := liveListing("https://reverb.com/item/1-strat", price)
		entry := matchingEntry(l.URL)

		changes := ComputeChanges(entry, l)
		if _, ok := changes[models.FieldValue]; ok {
			t.Errorf("price %q must not overwrite a known value, got %v", price, changes)
		}
	}
}

func TestComputeChangesSaleEnded(t *testing.T) {
	// An ended listing flips availability off and leaves shipping alone
	// even though its shipping fields are nil.
	l := &models.Listing{
		URL:       "https://reverb.com/item/1-strat",
		Name:      "Fender Stratocaster",
		Price:     "1500.00",
		Status:    "Sold",
		SaleEnded: true,
	}
	entry := matchingEntry(l.URL)

	changes := ComputeChanges(entry, l)
	if got, ok := changes[models.FieldIsAvailable]; !ok || got != false {
		t.Errorf("expected availability flip to false, got %v", changes)
	}
	if _, ok := changes[models.FieldShipping]; ok {
		t.Errorf("ended listing must not touch shipping, got %v", changes)
	}
}

func TestComputeChangesEndedAlreadyUnavailable(t *testing.T) {
	// Availability is edge-triggered: already-unavailable entries stay
	// untouched when the listing ends.
	l := &models.Listing{
		URL:       "https://reverb.com/item/1-strat",
		Price:     "1500.00",
		SaleEnded: true,
	}
	entry := matchingEntry(l.URL)
	entry.IsAvailable = false

	changes := ComputeChanges(entry, l)
	if _, ok := changes[models.FieldIsAvailable]; ok {
		t.Errorf("no availability edge, no change; got %v", changes)
	}
}

func TestComputeChangesRelisted(t *testing.T) {
	l := liveListing("https://reverb.com/item/1-strat", "1500.00")
	entry := matchingEntry(l.URL)
	entry.IsAvailable = false

	changes := ComputeChanges(entry, l)
	if got, ok := changes[models.FieldIsAvailable]; !ok || got != true {
		t.Errorf("live listing should re-enable availability, got %v", changes)
	}
}

func TestComputeChangesShippingDrift(t *testing.T) {
	l := liveListing("https://reverb.com/item/1-strat", "1500.00")
	l.ShippingPrice = strPtr("175.00")
	entry := matchingEntry(l.URL)

	changes := ComputeChanges(entry, l)
	if got, ok := changes[models.FieldShipping]; !ok || got != 175.0 {
		t.Errorf("expected shipping change to 175, got %v", changes)
	}
}

func TestComputeChangesFreeShipping(t *testing.T) {
	// 0.00 is a real value, not a missing one.
	l := liveListing("https://reverb.com/item/1-strat", "1500.00")
	l.ShippingPrice = strPtr("0.00")
	entry := matchingEntry(l.URL)

	changes := ComputeChanges(entry, l)
	if got, ok := changes[models.FieldShipping]; !ok || got != 0.0 {
		t.Errorf("expected shipping change to 0, got %v", changes)
	}
}

func TestComputeChangesMultiFieldDrift(t *testing.T) {
	l := &models.Listing{
		URL:           "https://reverb.com/item/1-strat",
		Price:         "4500.00",
		OffersEnabled: false,
		ShippingPrice: strPtr("300.00"),
	}
	entry := &models.GuitarEntry{
		ID:           10,
		URL:          l.URL,
		Value:        5000,
		Shipping:     250,
		IsAvailable:  true,
		AcceptOffers: true,
	}

	changes := ComputeChanges(entry, l)
	if len(changes) != 3 {
		t.Fatalf("expected exactly 3 changes, got %v", changes)
	}
	if changes[models.FieldValue] != 4500.0 ||
		changes[models.FieldOffers] != false ||
		changes[models.FieldShipping] != 300.0 {
		t.Errorf("got %v", changes)
	}
}

func TestComputeChangesPublishedDate(t *testing.T) {
	l := liveListing("https://reverb.com/item/1-strat", "1500.00")
	l.PublishedAt = "2024-04-01"
	entry := matchingEntry(l.URL)

	changes := ComputeChanges(entry, l)
	if got, ok := changes[models.FieldPublishedAt]; !ok || got != "2024-04-01 00:00:00" {
		t.Errorf("expected stored-format date change, got %v", changes)
	}
}

func TestComputeChangesOffers(t *testing.T) {
	l := liveListing("https://reverb.com/item/1-strat", "1500.00")
	l.OffersEnabled = false
	entry := matchingEntry(l.URL)

	changes := ComputeChanges(entry, l)
	if got, ok := changes[models.FieldOffers]; !ok || got != false {
		t.Errorf("expected offers change, got %v", changes)
	}
}

func TestToCreateVals(t *testing.T) {
	l := liveListing("https://reverb.com/item/1-strat", "1500.00")

	vals := ToCreateVals(l, 77, 250)

	if vals[models.FieldName] != "Fender Stratocaster" {
		t.Errorf("name: got %v", vals[models.FieldName])
	}
	if vals[models.FieldModels] != int64(77) {
		t.Errorf("model id: got %v", vals[models.FieldModels])
	}
	if vals[models.FieldValue] != 1500.0 {
		t.Errorf("value: got %v", vals[models.FieldValue])
	}
	if vals[models.FieldShipping] != 150.0 {
		t.Errorf("shipping: got %v", vals[models.FieldShipping])
	}
	if vals[models.FieldIsAvailable] != true || vals[models.FieldActive] != true {
		t.Error("new live listing should be available and active")
	}
	if vals[models.FieldTaxed] != false {
		t.Error("new entries default to untaxed")
	}
	if vals[models.FieldPublishedAt] != "2024-03-15 00:00:00" {
		t.Errorf("published: got %v", vals[models.FieldPublishedAt])
	}
}

func TestToCreateValsNilShippingUsesDefault(t *testing.T) {
	l := liveListing("https://reverb.com/item/1-strat", "1500.00")
	l.ShippingPrice = nil
	l.PublishedAt = ""

	vals := ToCreateVals(l, 77, 250)
	if vals[models.FieldShipping] != 250.0 {
		t.Errorf("expected default shipping, got %v", vals[models.FieldShipping])
	}
	if _, ok := vals[models.FieldPublishedAt]; ok {
		t.Error("empty published date should be omitted")
	}
}

func TestBuildReportClassification(t *testing.T) {
	known := liveListing("https://reverb.com/item/1-strat", "1500.00")
	drifted := liveListing("https://reverb.com/item/2-tele", "999.00")
	unknown := liveListing("https://reverb.com/item/3-jazz", "2000.00")
	failed := models.ErrorListing("https://reverb.com/item/4-bass", "HTTP 500")

	entries := []*models.GuitarEntry{
		matchingEntry("https://reverb.com/item/1-strat"),
		matchingEntry("https://reverb.com/item/2-tele"),
	}
	entries[1].ID = 11

	report := BuildReport(
		[]*models.Listing{known, drifted, unknown, failed},
		entries, 77, 250)

	if len(report) != 4 {
		t.Fatalf("got %d items, want 4", len(report))
	}

	wantActions := []models.Action{
		models.ActionOK, models.ActionUpdate, models.ActionCreate, models.ActionSkip,
	}
	for i, want := range wantActions {
		if report[i].Action != want {
			t.Errorf("item %d: got %s, want %s", i, report[i].Action, want)
		}
	}

	if len(report[1].Changes) == 0 {
		t.Error("update item should carry changes")
	}
	if len(report[2].CreateVals) == 0 {
		t.Error("create item should carry create vals")
	}
	if len(report[3].Warnings) != 1 {
		t.Errorf("error marker gets exactly one warning, got %v", report[3].Warnings)
	}
}

func TestBuildReportMatchesIgnoringQueryString(t *testing.T) {
	l := liveListing("https://reverb.com/item/1-strat?utm_source=search", "1500.00")
	entries := []*models.GuitarEntry{
		matchingEntry("https://reverb.com/item/1-strat"),
	}

	report := BuildReport([]*models.Listing{l}, entries, 77, 250)
	if report[0].Action != models.ActionOK {
		t.Errorf("query string must not defeat matching, got %s", report[0].Action)
	}
}

func TestBuildReportIdempotent(t *testing.T) {
	// Applying a report's own changes and re-building must converge to OK.
	l := liveListing("https://reverb.com/item/1-strat", "1399.00")
	entry := matchingEntry(l.URL)

	report := BuildReport([]*models.Listing{l}, []*models.GuitarEntry{entry}, 77, 250)
	if report[0].Action != models.ActionUpdate {
		t.Fatalf("precondition: expected update, got %s", report[0].Action)
	}

	entry.Value = report[0].Changes[models.FieldValue].(float64)

	again := BuildReport([]*models.Listing{l}, []*models.GuitarEntry{entry}, 77, 250)
	if again[0].Action != models.ActionOK {
		t.Errorf("after applying changes expected ok, got %s (%v)", again[0].Action, again[0].Changes)
	}
}

func TestListingWarningsEndedStatus(t *testing.T) {
	l := &models.Listing{Status: "Sold", SaleEnded: true}
	got := listingWarnings(l)
	if len(got) != 1 || got[0] != "status: Sold" {
		t.Errorf("got %v", got)
	}
}

func TestListingWarningsNoShippingNoteWhenEnded(t *testing.T) {
	// An ended listing's ships-to flag is unknown, so no shipping note.
	l := &models.Listing{Status: "Sold", SaleEnded: true, ShipsToCanada: nil}
	for _, w := range listingWarnings(l) {
		if w == "does NOT ship to Canada" {
			t.Error("ended listing must not get the shipping warning")
		}
	}
}

func TestListingWarningsNoCanadaShipping(t *testing.T) {
	l := &models.Listing{ShipsToCanada: boolPtr(false)}
	got := listingWarnings(l)
	if len(got) != 1 || got[0] != "does NOT ship to Canada" {
		t.Errorf("got %v", got)
	}
}

func TestBuildValidationReport(t *testing.T) {
	entries := []*models.GuitarEntry{
		matchingEntry("https://reverb.com/item/1-strat"),
		matchingEntry("https://reverb.com/item/2-tele"),
		matchingEntry("https://example.com/not-reverb"),
		matchingEntry("https://reverb.com/item/4-bass"),
	}
	entries[1].ID = 11
	entries[2].ID = 12
	entries[3].ID = 13

	scraped := map[string]*models.Listing{
		"https://reverb.com/item/1-strat": liveListing("https://reverb.com/item/1-strat", "1500.00"),
		"https://reverb.com/item/2-tele":  liveListing("https://reverb.com/item/2-tele", "999.00"),
		"https://reverb.com/item/4-bass":  models.ErrorListing("https://reverb.com/item/4-bass", "HTTP 404"),
	}

	report := BuildValidationReport(entries, scraped)
	if len(report) != 4 {
		t.Fatalf("got %d items, want 4", len(report))
	}

	wantActions := []models.Action{
		models.ActionOK, models.ActionUpdate, models.ActionSkip, models.ActionSkip,
	}
	for i, want := range wantActions {
		if report[i].Action != want {
			t.Errorf("item %d: got %s, want %s", i, report[i].Action, want)
		}
	}

	// Validation never creates.
	for i, item := range report {
		if item.Action == models.ActionCreate {
			t.Errorf("item %d: validation must not create", i)
		}
	}
}

func TestIsReverbURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://reverb.com/item/1-strat", true},
		{"https://reverb.com/shop/store", false},
		{"https://example.com/item/1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsReverbURL(tt.url); got != tt.want {
			t.Errorf("IsReverbURL(%q) = %v; want %v", tt.url, got, tt.want)
		}
	}
}
