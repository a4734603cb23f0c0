package matching

import (
	"fmt"
	"reflect"

	"github.com/ohler55/ojg/jp"
)

// ExtractPath returns every value the JSONPath expression selects from data.
// Data is expected in decoded-JSON shape (maps, slices, scalars).
func ExtractPath(data any, path string) ([]any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}
	return expr.Get(data), nil
}

// ValidatePath checks a JSONPath expression at configuration time.
func ValidatePath(path string) error {
	if _, err := jp.ParseString(path); err != nil {
		return fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}
	return nil
}

// Leaves collects every scalar value reachable in data, depth-first. Used for
// trigger-equals-input-value matching when no path narrows the search.
func Leaves(data any) []any {
	var out []any
	collectLeaves(data, &out)
	return out
}

func collectLeaves(data any, out *[]any) {
	switch v := data.(type) {
	case map[string]any:
		for _, item := range v {
			collectLeaves(item, out)
		}
	case []any:
		for _, item := range v {
			collectLeaves(item, out)
		}
	default:
		if v != nil {
			*out = append(*out, v)
		}
	}
}

// HasValue reports whether any leaf of data equals want under coercion.
func HasValue(data any, want any) bool {
	for _, leaf := range Leaves(data) {
		if ValuesEqual(leaf, want) {
			return true
		}
	}
	return false
}

// ValuesEqual compares two values, coercing numerics so that decoded-JSON
// float64 values match native ints.
func ValuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	if reflect.DeepEqual(actual, expected) {
		return true
	}

	actualNum, actualIsNum := toFloat64(actual)
	expectedNum, expectedIsNum := toFloat64(expected)
	if actualIsNum && expectedIsNum {
		return actualNum == expectedNum
	}

	actualStr, actualIsStr := actual.(string)
	expectedStr, expectedIsStr := expected.(string)
	if actualIsStr && expectedIsStr {
		return actualStr == expectedStr
	}

	actualBool, actualIsBool := actual.(bool)
	expectedBool, expectedIsBool := expected.(bool)
	if actualIsBool && expectedIsBool {
		return actualBool == expectedBool
	}

	return false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	default:
		return 0, false
	}
}
