package transport

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// apply narrows value with the transform keys this transport understands:
// "select" is a JSONPath expression and "limit" truncates a collection.
// Other keys are left for downstream consumers.
func apply(value any, transform map[string]any) (any, error) {
	if len(transform) == 0 || value == nil {
		return value, nil
	}

	if raw, ok := transform["select"]; ok {
		selector, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("transport: select must be a string, got %T", raw)
		}
		x, err := jp.ParseString(selector)
		if err != nil {
			return nil, fmt.Errorf("transport: invalid select %q: %w", selector, err)
		}
		results := x.Get(value)
		switch {
		case multiValued(selector):
			value = results
		case len(results) == 0:
			value = nil
		default:
			value = results[0]
		}
	}

	if raw, ok := transform["limit"]; ok {
		limit, err := toInt(raw)
		if err != nil {
			return nil, err
		}
		if items, ok := value.([]any); ok && limit >= 0 && len(items) > limit {
			value = items[:limit]
		}
	}
	return value, nil
}

// multiValued reports whether a selector can yield several nodes, in which
// case the results are kept as a list even when only one matched.
func multiValued(selector string) bool {
	return strings.Contains(selector, "*") ||
		strings.Contains(selector, "..") ||
		strings.Contains(selector, "[?") ||
		strings.Contains(selector, ":") ||
		strings.Contains(selector, ",")
}

func toInt(raw any) (int, error) {
	switch n := raw.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("transport: limit must be a number, got %T", raw)
	}
}
