package reverb

import (
	"fmt"

	"reverb-sync/models"
)

// Defensive accessors over the loosely-typed API payload. Absence of a
// key or a nested structure is never an error; lookups degrade to the
// zero value so normalisation can never panic.

func rawMap(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

func rawList(m map[string]any, key string) []any {
	if v, ok := m[key].([]any); ok {
		return v
	}
	return nil
}

func rawString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		// Reverb returns year as a number on some listings.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

func rawBool(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func rawInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// shippingRates extracts the region-tagged rate list from a raw payload.
func shippingRates(raw models.RawListing) []ShippingRate {
	var rates []ShippingRate
	for _, item := range rawList(rawMap(raw, "shipping"), "rates") {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rate := rawMap(entry, "rate")
		rates = append(rates, ShippingRate{
			RegionCode: rawString(entry, "region_code"),
			Amount:     rawString(rate, "amount"),
			Display:    rawString(rate, "display"),
		})
	}
	return rates
}
