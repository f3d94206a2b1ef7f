package routing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-sitecore/pkg/pagetree"
)

// LocaleTable translates routes between canonical and display form for one
// locale. Lookups try an exact match first, then the longest declared prefix,
// rewriting only that prefix so a translated section root carries over to
// all of its descendants.
type LocaleTable struct {
	toDisplay   map[string]string
	toCanonical map[string]string
	displayKeys []string
	canonKeys   []string
}

// NewLocaleTable builds a table from canonical→display pairs. Two canonical
// routes may not share a display route.
func NewLocaleTable(translations map[string]string) (*LocaleTable, error) {
	t := &LocaleTable{
		toDisplay:   make(map[string]string, len(translations)),
		toCanonical: make(map[string]string, len(translations)),
	}
	for canonical, display := range translations {
		canonical = pagetree.NormalizeRoute(canonical)
		display = pagetree.NormalizeRoute(display)
		if canonical == "" || display == "" {
			return nil, fmt.Errorf("routing: translation %q -> %q must not involve the root", canonical, display)
		}
		if other, exists := t.toCanonical[display]; exists && other != canonical {
			return nil, fmt.Errorf("routing: display route %q is claimed by %q and %q", display, other, canonical)
		}
		t.toDisplay[canonical] = display
		t.toCanonical[display] = canonical
	}
	t.canonKeys = longestFirst(t.toDisplay)
	t.displayKeys = longestFirst(t.toCanonical)
	return t, nil
}

// Translate maps a canonical route to its display form.
func (t *LocaleTable) Translate(canonical string) string {
	if t == nil {
		return pagetree.NormalizeRoute(canonical)
	}
	return rewrite(t.toDisplay, t.canonKeys, canonical)
}

// Reverse maps a display route back to canonical form.
func (t *LocaleTable) Reverse(display string) string {
	if t == nil {
		return pagetree.NormalizeRoute(display)
	}
	return rewrite(t.toCanonical, t.displayKeys, display)
}

func rewrite(table map[string]string, keys []string, route string) string {
	route = pagetree.NormalizeRoute(route)
	if mapped, ok := table[route]; ok {
		return mapped
	}
	for _, prefix := range keys {
		if strings.HasPrefix(route, prefix+"/") {
			return table[prefix] + route[len(prefix):]
		}
	}
	return route
}

func longestFirst(table map[string]string) []string {
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return keys
}
