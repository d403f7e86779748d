// Package mapsafe reads typed values out of loosely typed parameter maps.
// Parameters come from YAML (int, float64) and JSON (float64) and are merged
// before they reach a backend, so numeric kinds are converted freely.
package mapsafe

import "strconv"

// Get retrieves a typed value from a map[string]any.
// If the key is missing or the value cannot be converted, it returns defaultValue.
func Get[T any](m map[string]any, key string, defaultValue T) T {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case int:
		if n, ok := toFloat(val); ok {
			return any(int(n)).(T)
		}
	case float64:
		if n, ok := toFloat(val); ok {
			return any(n).(T)
		}
	case string:
		switch x := val.(type) {
		case string:
			return any(x).(T)
		case int, int64, float64:
			if n, ok := toFloat(x); ok {
				return any(strconv.FormatFloat(n, 'f', -1, 64)).(T)
			}
		}
	case bool:
		switch x := val.(type) {
		case bool:
			return any(x).(T)
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return any(b).(T)
			}
		}
	case []string:
		if list, ok := val.([]any); ok {
			out := make([]string, 0, len(list))
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return defaultValue
				}
				out = append(out, s)
			}
			return any(out).(T)
		}
	}

	if v, ok := val.(T); ok {
		return v
	}
	return defaultValue
}

func toFloat(val any) (float64, bool) {
	switch x := val.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case string:
		n, err := strconv.ParseFloat(x, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
