package datasource

import (
	"fmt"
	"maps"
)

// DynamicContext is attached to content rendered for a parameterized route.
// It names the collection driving the route and the item that the concrete
// path selects from it.
type DynamicContext struct {
	// Template is the parameterized route, e.g. "blog/:slug".
	Template string `json:"template"`
	// Params holds every captured placeholder value.
	Params map[string]string `json:"params,omitempty"`
	// ParamName and ParamValue drive the singular item lookup.
	ParamName  string `json:"paramName"`
	ParamValue string `json:"paramValue"`
	// Schema is the collection schema, Singular its singularized key.
	Schema   string `json:"schema,omitempty"`
	Singular string `json:"singular,omitempty"`
	// Item is the resolved current item, nil when it was not found.
	Item map[string]any `json:"item,omitempty"`
	// Items is the full collection the item was taken from.
	Items []any `json:"items,omitempty"`
}

// Clone returns a copy that does not share maps or slices with d.
func (d *DynamicContext) Clone() *DynamicContext {
	if d == nil {
		return nil
	}
	out := *d
	out.Params = maps.Clone(d.Params)
	if d.Item != nil {
		out.Item = cloneValue(d.Item).(map[string]any)
	}
	if d.Items != nil {
		out.Items = cloneValue(d.Items).([]any)
	}
	return &out
}

// SingularKey returns the bag key holding the current item.
func (d *DynamicContext) SingularKey() string {
	if d == nil {
		return ""
	}
	if d.Singular != "" {
		return d.Singular
	}
	return Singularize(d.Schema)
}

// Items normalizes a decoded collection into a slice. Values that are not a
// collection yield nil.
func Items(collection any) []any {
	switch typed := collection.(type) {
	case []any:
		return typed
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}

// FindItem scans collection for the first record whose field paramName,
// compared as a string, equals paramValue.
func FindItem(collection any, paramName, paramValue string) (map[string]any, bool) {
	if paramName == "" {
		return nil, false
	}
	for _, raw := range Items(collection) {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		value, ok := item[paramName]
		if !ok || value == nil {
			continue
		}
		if Stringify(value) == paramValue {
			return item, true
		}
	}
	return nil, false
}

// Stringify renders a decoded scalar the way it appears in a URL.
func Stringify(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case float64:
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
		return fmt.Sprint(typed)
	default:
		return fmt.Sprint(v)
	}
}
