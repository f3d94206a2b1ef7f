package pagetree

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrDuplicateRoute is returned when two pages normalize to the same route.
var ErrDuplicateRoute = errors.New("pagetree: duplicate route")

// ErrParentCycle is returned when declared parents form a cycle.
var ErrParentCycle = errors.New("pagetree: parent cycle")

type node struct {
	page     *Page
	parent   int
	children []int
}

// Tree is an immutable page hierarchy. Lookups are safe for concurrent use.
type Tree struct {
	nodes  []node
	index  map[string]int
	roots  []int
	logger *slog.Logger
}

// Option customises Build.
type Option func(*Tree)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Build indexes pages by canonical route and links every page to its declared
// parent. Children keep declaration order. A page whose declared parent does
// not exist becomes a root.
func Build(pages []Page, options ...Option) (*Tree, error) {
	t := &Tree{
		nodes:  make([]node, 0, len(pages)),
		index:  make(map[string]int, len(pages)),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}

	for i := range pages {
		page := pages[i].Clone()
		page.Route = NormalizeRoute(page.Route)
		page.Parent = NormalizeRoute(page.Parent)
		if _, exists := t.index[page.Route]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRoute, page.Route)
		}
		t.index[page.Route] = len(t.nodes)
		t.nodes = append(t.nodes, node{page: page, parent: -1})
	}

	for i := range t.nodes {
		page := t.nodes[i].page
		if page.Parent == "" {
			t.roots = append(t.roots, i)
			continue
		}
		if page.Parent == page.Route {
			return nil, fmt.Errorf("%w: %q declares itself as parent", ErrParentCycle, page.Route)
		}
		parent, ok := t.index[page.Parent]
		if !ok {
			t.logger.Warn("declared parent not found", slog.String("route", page.Route), slog.String("parent", page.Parent))
			t.roots = append(t.roots, i)
			continue
		}
		t.nodes[i].parent = parent
		t.nodes[parent].children = append(t.nodes[parent].children, i)
	}

	for i := range t.nodes {
		steps := 0
		for cur := t.nodes[i].parent; cur >= 0; cur = t.nodes[cur].parent {
			steps++
			if steps > len(t.nodes) {
				return nil, fmt.Errorf("%w: through %q", ErrParentCycle, t.nodes[i].page.Route)
			}
		}
	}

	return t, nil
}

// Len returns the number of pages.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Page returns the page at the canonical route.
func (t *Tree) Page(route string) (*Page, bool) {
	idx, ok := t.index[NormalizeRoute(route)]
	if !ok {
		return nil, false
	}
	return t.nodes[idx].page, true
}

// Pages returns every page in declaration order.
func (t *Tree) Pages() []*Page {
	out := make([]*Page, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = n.page
	}
	return out
}

// Roots returns the top-level pages.
func (t *Tree) Roots() []*Page {
	return t.collect(t.roots)
}

// Parent returns the declared parent of the page at route.
func (t *Tree) Parent(route string) (*Page, bool) {
	idx, ok := t.index[NormalizeRoute(route)]
	if !ok || t.nodes[idx].parent < 0 {
		return nil, false
	}
	return t.nodes[t.nodes[idx].parent].page, true
}

// Children returns the children of the page at route in declaration order.
func (t *Tree) Children(route string) []*Page {
	idx, ok := t.index[NormalizeRoute(route)]
	if !ok {
		return nil
	}
	return t.collect(t.nodes[idx].children)
}

// Ancestors returns the parent chain of the page at route, nearest first.
func (t *Tree) Ancestors(route string) []*Page {
	idx, ok := t.index[NormalizeRoute(route)]
	if !ok {
		return nil
	}
	var out []*Page
	for cur := t.nodes[idx].parent; cur >= 0; cur = t.nodes[cur].parent {
		out = append(out, t.nodes[cur].page)
	}
	return out
}

// Chain returns the page at parent followed by its ancestors, nearest first.
// It is used for pages that are not part of the tree themselves, such as
// materialized dynamic pages that inherit a template's declared parent.
func (t *Tree) Chain(parent string) []*Page {
	page, ok := t.Page(parent)
	if !ok {
		return nil
	}
	return append([]*Page{page}, t.Ancestors(parent)...)
}

// Walk visits every page depth first in declaration order. Returning false
// from fn skips the page's subtree.
func (t *Tree) Walk(fn func(page *Page, depth int) bool) {
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		if !fn(t.nodes[idx].page, depth) {
			return
		}
		for _, child := range t.nodes[idx].children {
			visit(child, depth+1)
		}
	}
	for _, root := range t.roots {
		visit(root, 0)
	}
}

func (t *Tree) collect(indexes []int) []*Page {
	out := make([]*Page, len(indexes))
	for i, idx := range indexes {
		out[i] = t.nodes[idx].page
	}
	return out
}
