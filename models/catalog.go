package models

// Odoo field names for the x_guitar model. Changes and CreateVals maps
// are keyed by these names because they go to the RPC layer verbatim.
const (
	FieldName        = "x_name"
	FieldURL         = "x_studio_url"
	FieldModels      = "x_studio_models"
	FieldModelType   = "x_studio_model_type"
	FieldValue       = "x_studio_value"
	FieldShipping    = "x_studio_shipping"
	FieldIsAvailable = "x_studio_is_available"
	FieldActive      = "x_studio_active"
	FieldOffers      = "x_studio_accept_offers"
	FieldTaxed       = "x_studio_taxed"
	FieldPublishedAt = "x_studio_published_at_1"
)

// GuitarEntry is an existing x_guitar record in Odoo. Entries are
// created by a prior sync or by hand; this tool only ever updates them,
// never deletes.
type GuitarEntry struct {
	ID           int64
	Name         string
	URL          string
	ModelID      int64
	Value        float64
	Shipping     float64
	IsAvailable  bool
	Active       bool
	AcceptOffers bool
	Taxed        bool
	PublishedAt  string // "YYYY-MM-DD 00:00:00" storage format
}

// ModelInfo describes one x_models record together with its resolved
// Reverb category slug and per-category default shipping.
type ModelInfo struct {
	ID              int64
	Name            string
	CategorySlug    string
	DefaultShipping float64
}

// Action classifies one report item.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionOK     Action = "ok"
	ActionSkip   Action = "skip"
)

// ReportItem is the output unit of reconciliation.
//
// Invariants: create ⇒ Entry nil and CreateVals non-empty; update ⇒
// Entry set and Changes non-empty; ok ⇒ Entry set and Changes empty;
// skip ⇒ no write is ever issued and Warnings explains why.
type ReportItem struct {
	Action     Action
	Listing    *Listing
	Entry      *GuitarEntry
	Changes    map[string]any
	CreateVals map[string]any
	Warnings   []string
}

// SyncData is the result of the I/O-heavy collect phase for one model.
type SyncData struct {
	Model         ModelInfo
	ReverbResults []*Listing
	OdooEntries   []*GuitarEntry
	Report        []*ReportItem
	UpdateCount   int
	CreateCount   int
}
