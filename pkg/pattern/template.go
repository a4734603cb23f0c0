package pattern

import (
	"fmt"
	"regexp"
	"strconv"
)

// placeholderRegex matches {field} placeholders with optional whitespace.
// Dotted names are allowed so flattened nested-context keys resolve.
var placeholderRegex = regexp.MustCompile(`\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}`)

// substitute replaces every {name} placeholder with the string form of
// values[name]. Placeholders without a value stay verbatim.
func substitute(template string, values map[string]any) string {
	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		inner := placeholderRegex.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}
		val, ok := values[inner[1]]
		if !ok {
			return match
		}
		return formatValue(val)
	})
}

// placeholders lists the distinct placeholder names in template, in first
// appearance order.
func placeholders(template string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderRegex.FindAllStringSubmatch(template, -1) {
		if len(m) > 1 && !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// formatValue converts an arbitrary context value to its message form.
func formatValue(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// flatten exposes one level of nested maps: a nested key appears both as
// "parent.child" and, when it does not clash with a top-level key, as plain
// "child".
func flatten(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	for k, v := range ctx {
		nested, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for nk, nv := range nested {
			out[k+"."+nk] = nv
			if _, exists := out[nk]; !exists {
				out[nk] = nv
			}
		}
	}
	return out
}
