package pagetree

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/goliatone/go-sitecore/pkg/visibility"
)

// NavItem is the navigation projection of a page.
type NavItem struct {
	ID          string       `json:"id"`
	Route       string       `json:"route"`
	Href        string       `json:"href"`
	Label       string       `json:"label"`
	Description string       `json:"description,omitempty"`
	HasContent  bool         `json:"hasContent"`
	Version     *VersionInfo `json:"version,omitempty"`
	Children    []NavItem    `json:"children,omitempty"`
}

// HierarchyOptions filters and shapes a Hierarchy projection.
type HierarchyOptions struct {
	// NavType hides pages that list it in HiddenIn (e.g. "header", "footer").
	NavType string
	// Nested returns root pages with nested children; otherwise a flat list.
	Nested bool
	// IncludeHidden keeps globally hidden pages.
	IncludeHidden bool
	// Predicate is a caller-supplied filter applied after the built-in ones.
	Predicate func(*Page) bool
	// Include and Exclude are doublestar patterns matched against the
	// canonical route, e.g. "docs/**".
	Include []string
	Exclude []string
	// Evaluator runs each page's Rule. Pages with a rule are kept when no
	// evaluator is configured.
	Evaluator visibility.Evaluator
	// Extras is passed to the evaluator.
	Extras map[string]any
	// Locale is handed to Href.
	Locale string
	// Href builds the display route for a canonical route. Defaults to
	// "/" + route.
	Href func(route, locale string) string
}

// Hierarchy projects the tree into navigation records. Template pages never
// appear. In nested mode a filtered-out page drops its subtree.
func (t *Tree) Hierarchy(opts HierarchyOptions) ([]NavItem, error) {
	for _, pattern := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("pagetree: invalid route pattern %q", pattern)
		}
	}

	if opts.Nested {
		return t.nested(t.roots, opts), nil
	}

	var out []NavItem
	t.Walk(func(page *Page, _ int) bool {
		if page.IsTemplate() {
			return false
		}
		if t.visible(page, opts) {
			out = append(out, t.project(page, opts))
		}
		return true
	})
	return out, nil
}

func (t *Tree) nested(indexes []int, opts HierarchyOptions) []NavItem {
	var out []NavItem
	for _, idx := range indexes {
		page := t.nodes[idx].page
		if page.IsTemplate() || !t.visible(page, opts) {
			continue
		}
		item := t.project(page, opts)
		item.Children = t.nested(t.nodes[idx].children, opts)
		out = append(out, item)
	}
	return out
}

func (t *Tree) visible(page *Page, opts HierarchyOptions) bool {
	if !opts.IncludeHidden && page.Hidden {
		return false
	}
	if opts.NavType != "" && slices.Contains(page.HiddenIn, opts.NavType) {
		return false
	}
	if len(opts.Include) > 0 && !matchAny(opts.Include, page.Route) {
		return false
	}
	if len(opts.Exclude) > 0 && matchAny(opts.Exclude, page.Route) {
		return false
	}
	if page.Rule != "" && opts.Evaluator != nil {
		ok, err := opts.Evaluator.Eval(page.Route, page.Rule, visibility.Context{
			Values: ruleValues(page),
			Extras: opts.Extras,
		})
		if err != nil {
			t.logger.Warn("visibility rule failed", slog.String("route", page.Route), slog.Any("error", err))
			return false
		}
		if !ok {
			return false
		}
	}
	if opts.Predicate != nil && !opts.Predicate(page) {
		return false
	}
	return true
}

func (t *Tree) project(page *Page, opts HierarchyOptions) NavItem {
	route := page.NavRoute()
	href := "/" + route
	if opts.Href != nil {
		href = opts.Href(route, opts.Locale)
	}
	return NavItem{
		ID:          page.Identifier(),
		Route:       page.Route,
		Href:        href,
		Label:       PlainText(page.NavLabel()),
		Description: PlainText(page.Description),
		HasContent:  page.HasContent(),
		Version:     page.Version,
	}
}

func matchAny(patterns []string, route string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, route); ok {
			return true
		}
	}
	return false
}

func ruleValues(page *Page) map[string]any {
	values := map[string]any{
		"route":   page.Route,
		"id":      page.Identifier(),
		"title":   page.Title,
		"index":   page.Index,
		"hidden":  page.Hidden,
		"content": page.HasContent(),
		"version": "",
	}
	if page.Version != nil {
		values["version"] = page.Version.ID
	}
	return values
}
