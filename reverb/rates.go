package reverb

// Region codes used by Reverb for Canada. The API's region codes are
// not hierarchical, so the continental sub-code has to be tried
// explicitly after an exact match fails.
var canadaRegionCodes = []string{"CA", "CA_CON"}

// Catch-all codes meaning "everywhere else", in preference order.
var catchAllRegionCodes = []string{"XX", "EVERYWHERE_ELSE"}

// ShippingRate is one region-tagged rate from a listing's shipping block.
type ShippingRate struct {
	RegionCode string
	Amount     string // decimal string, e.g. "250.00"
	Display    string
}

// FindShippingRate picks the applicable rate for targetRegion from an
// ordered rate list, or returns nil when nothing applies.
//
// Priority is fixed: exact region match, then the Canadian variant
// codes when the target is Canada, then a catch-all code. Trying the
// tiers in this order keeps resolution deterministic no matter how the
// API orders the rate list.
func FindShippingRate(rates []ShippingRate, targetRegion string) *ShippingRate {
	for i := range rates {
		if rates[i].RegionCode == targetRegion {
			return &rates[i]
		}
	}

	if targetRegion == "CA" {
		for i := range rates {
			for _, code := range canadaRegionCodes {
				if rates[i].RegionCode == code {
					return &rates[i]
				}
			}
		}
	}

	for _, code := range catchAllRegionCodes {
		for i := range rates {
			if rates[i].RegionCode == code {
				return &rates[i]
			}
		}
	}

	return nil
}
