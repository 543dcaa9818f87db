package odoo

// Decoding helpers for Odoo search_read records. Odoo's JSON layer
// returns false for empty scalar fields and [id, display_name] pairs
// for many2one references, so every field read has to tolerate both.

func recString(rec map[string]any, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func recFloat(rec map[string]any, key string) float64 {
	switch v := rec[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func recInt64(rec map[string]any, key string) int64 {
	switch v := rec[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

func recBool(rec map[string]any, key string) bool {
	if v, ok := rec[key].(bool); ok {
		return v
	}
	return false
}

// recRef resolves a many2one reference to its id, accepting both the
// [id, display_name] pair shape and a bare numeric id.
func recRef(rec map[string]any, key string) int64 {
	switch v := rec[key].(type) {
	case []any:
		if len(v) > 0 {
			if id, ok := v[0].(float64); ok {
				return int64(id)
			}
		}
		return 0
	case float64:
		return int64(v)
	default:
		return 0
	}
}
