package models

// RawListing is a single unparsed listing payload as returned by the
// Reverb API. It only exists during normalisation; every nested lookup
// on it must be treated as optional.
type RawListing map[string]any

// Listing is the normalised representation of one Reverb listing.
// Every successfully normalised listing carries all fields: a value the
// API omitted becomes the zero value, never an absent key. When Error is
// non-empty the listing is an error marker: URL and Error are the only
// meaningful fields and consumers must check Error before anything else.
type Listing struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`

	Name   string `json:"name"`
	Make   string `json:"make"`
	Model  string `json:"model"`
	Finish string `json:"finish"`
	Year   string `json:"year"`

	Price        string `json:"price"` // decimal string, e.g. "4500.00"
	Currency     string `json:"currency"`
	PriceDisplay string `json:"price_display"`

	Condition string `json:"condition"`
	Status    string `json:"status"`
	SaleEnded bool   `json:"sale_ended"`

	// Shipping fields are all nil/empty when SaleEnded is true, so that
	// the diff logic preserves whatever is already on file instead of
	// overwriting it with stale data.
	ShippingPrice   *string  `json:"shipping_price"` // decimal string, nil when unknown
	ShippingDisplay string   `json:"shipping_display"`
	ShippingRegion  string   `json:"shipping_region"`
	ShipsToCanada   *bool    `json:"ships_to_canada"`
	ShippingRegions []string `json:"shipping_regions"`

	OffersEnabled bool `json:"offers_enabled"`

	CreatedAt   string `json:"created_at"`   // YYYY-MM-DD, UTC-normalised
	PublishedAt string `json:"published_at"` // YYYY-MM-DD, UTC-normalised

	Seller      string   `json:"seller"`
	Location    string   `json:"location"`
	Description string   `json:"description"` // HTML-stripped
	Views       int      `json:"views"`
	Watchers    int      `json:"watchers"`
	Categories  []string `json:"categories"`
	PhotoURL    string   `json:"photo_url"`
}

// IsError reports whether the listing is an error marker rather than a
// normalised record.
func (l *Listing) IsError() bool { return l.Error != "" }

// ErrorListing builds the error marker emitted when a fetch or parse
// fails for a single URL.
func ErrorListing(url, msg string) *Listing {
	return &Listing{URL: url, Error: msg}
}

// Category is one entry of Reverb's flat category list.
type Category struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	RootSlug string `json:"root_slug"`
	UUID     string `json:"uuid"`
}
