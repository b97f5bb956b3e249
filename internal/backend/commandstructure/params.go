package commandstructure

import (
	"strings"
)

// GetIntParam extracts an int parameter; YAML and JSON numbers are accepted
func GetIntParam(params map[string]any, key string, defaultValue int) int {
	if val, ok := params[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultValue
}

// GetBoolParam extracts a bool parameter. YAML yields real booleans; strings
// "true"/"yes"/"on" and "false"/"no"/"off" are accepted as well.
func GetBoolParam(params map[string]any, key string, defaultValue bool) bool {
	val, ok := params[key]
	if !ok {
		return defaultValue
	}
	switch v := val.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on":
			return true
		case "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

// GetStringSliceParam extracts a list of strings. YAML sequences arrive as []any.
func GetStringSliceParam(params map[string]any, key string, defaultValue []string) []string {
	val, ok := params[key]
	if !ok {
		return defaultValue
	}
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return defaultValue
			}
			out = append(out, s)
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
