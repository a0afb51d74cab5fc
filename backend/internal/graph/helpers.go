package graph

import "fmt"

// ============================================================================
// Helper Functions
// ============================================================================

// NormalizeFragments coerces a stored fragment field into an ordered list.
// Older snapshots hold a single value instead of a list.
func NormalizeFragments(val interface{}) []string {
	switch v := val.(type) {
	case nil:
		return []string{}
	case string:
		if v == "" {
			return []string{}
		}
		return []string{v}
	case []string:
		result := make([]string, len(v))
		copy(result, v)
		return result
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if str, ok := item.(string); ok {
				result = append(result, str)
				continue
			}
			result = append(result, fmt.Sprint(item))
		}
		return result
	default:
		return []string{fmt.Sprint(v)}
	}
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
