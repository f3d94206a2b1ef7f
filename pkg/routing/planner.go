package routing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-sitecore/pkg/pagetree"
)

// Config carries the site-wide routing tables.
type Config struct {
	// DefaultLocale is served without a path prefix.
	DefaultLocale string
	// Locales lists every supported locale, the default included.
	Locales []string
	// Translations maps locale → canonical route → display route.
	Translations map[string]map[string]string
	Versions     []VersionScope
}

type templateEntry struct {
	tmpl *Template
	page *pagetree.Page
}

// Planner maps incoming paths to pages and canonical routes to hrefs.
// Lookups are safe for concurrent use.
type Planner struct {
	tree          *pagetree.Tree
	defaultLocale string
	locales       map[string]struct{}
	tables        map[string]*LocaleTable
	versions      versionIndex
	templates     []templateEntry
	navIndex      map[string]*pagetree.Page
	ids           map[string]*pagetree.Page
	logger        *slog.Logger

	lookup CollectionLookup

	mu      sync.Mutex
	dynamic map[string]dynamicEntry
}

// CollectionLookup returns the collection schema already resolved for
// listing, or nil when it has not been resolved. It must not fetch.
type CollectionLookup func(listing *pagetree.Page, schema string) []any

// Option customises a Planner.
type Option func(*Planner)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCollectionLookup supplies listing collections that were resolved at
// runtime rather than declared in block data.
func WithCollectionLookup(lookup CollectionLookup) Option {
	return func(p *Planner) {
		p.lookup = lookup
	}
}

// New indexes tree for routing.
func New(tree *pagetree.Tree, cfg Config, options ...Option) (*Planner, error) {
	if tree == nil {
		return nil, errors.New("routing: tree is required")
	}
	p := &Planner{
		tree:          tree,
		defaultLocale: cfg.DefaultLocale,
		locales:       make(map[string]struct{}),
		tables:        make(map[string]*LocaleTable),
		navIndex:      make(map[string]*pagetree.Page),
		ids:           make(map[string]*pagetree.Page),
		dynamic:       make(map[string]dynamicEntry),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}

	for _, locale := range cfg.Locales {
		locale = strings.TrimSpace(locale)
		if locale == "" || locale == p.defaultLocale {
			continue
		}
		p.locales[locale] = struct{}{}
	}
	for locale, translations := range cfg.Translations {
		table, err := NewLocaleTable(translations)
		if err != nil {
			return nil, fmt.Errorf("routing: locale %q: %w", locale, err)
		}
		p.tables[locale] = table
	}

	versions, err := newVersionIndex(cfg.Versions)
	if err != nil {
		return nil, err
	}
	p.versions = versions

	pages := tree.Pages()
	for _, page := range pages {
		if page.IsTemplate() {
			tmpl, err := CompileTemplate(page.Route)
			if err != nil {
				return nil, err
			}
			p.templates = append(p.templates, templateEntry{tmpl: tmpl, page: page})
			continue
		}
		if page.Index {
			if _, taken := p.navIndex[page.NavRoute()]; !taken {
				p.navIndex[page.NavRoute()] = page
			}
		}
	}
	// Templates with more literal segments are tried first.
	slices.SortStableFunc(p.templates, func(a, b templateEntry) int {
		return b.tmpl.literal - a.tmpl.literal
	})

	// Explicit ids take precedence over route-derived ones.
	for _, page := range pages {
		if page.ID != "" {
			if _, dup := p.ids[page.ID]; dup {
				p.logger.Warn("duplicate page id", slog.String("id", page.ID), slog.String("route", page.Route))
				continue
			}
			p.ids[page.ID] = page
		}
	}
	for _, page := range pages {
		if page.IsTemplate() {
			continue
		}
		if _, taken := p.ids[pagetree.DerivedID(page.Route)]; !taken {
			p.ids[pagetree.DerivedID(page.Route)] = page
		}
	}
	return p, nil
}

// Tree returns the indexed page tree.
func (p *Planner) Tree() *pagetree.Tree {
	return p.tree
}

// DefaultLocale returns the unprefixed locale.
func (p *Planner) DefaultLocale() string {
	return p.defaultLocale
}

// Match is the outcome of resolving a path.
type Match struct {
	Page *pagetree.Page
	// Route is the canonical route the path resolved to.
	Route string
	// Locale is the locale selected by the path prefix.
	Locale string
	// Params holds template parameter values for dynamic pages.
	Params map[string]string
}

// Page resolves rawPath to the page it addresses, or false when nothing
// matches.
func (p *Planner) Page(rawPath string) (*pagetree.Page, bool) {
	m, ok := p.Match(rawPath)
	if !ok {
		return nil, false
	}
	return m.Page, true
}

// Match resolves rawPath. The locale prefix is stripped, display segments are
// translated back to canonical form, and the canonical route is matched
// against exact routes, index navigation routes, already materialized pages
// and templates, in that order.
func (p *Planner) Match(rawPath string) (Match, bool) {
	locale, canonical := p.Canonical(rawPath)
	m := Match{Route: canonical, Locale: locale}

	if page, ok := p.tree.Page(canonical); ok && !page.IsTemplate() {
		m.Page = page
		return m, true
	}
	if page, ok := p.navIndex[canonical]; ok {
		m.Page = page
		return m, true
	}
	if cached, ok := p.cached(canonical); ok {
		m.Page = cached.page
		m.Params = maps.Clone(cached.params)
		return m, true
	}
	for _, entry := range p.templates {
		params, ok := entry.tmpl.Match(canonical)
		if !ok {
			continue
		}
		m.Page = p.materialized(entry, canonical, params)
		m.Params = params
		return m, true
	}
	return m, false
}

// Canonical strips the locale prefix from rawPath and reverse translates the
// remainder. Query strings and fragments are dropped.
func (p *Planner) Canonical(rawPath string) (locale, route string) {
	if idx := strings.IndexAny(rawPath, "?#"); idx >= 0 {
		rawPath = rawPath[:idx]
	}
	locale, rest := p.SplitLocale(rawPath)
	return locale, p.Reverse(rest, locale)
}

// SplitLocale returns the locale named by the first path segment and the
// rest of the path. Paths without a known prefix belong to the default
// locale.
func (p *Planner) SplitLocale(rawPath string) (locale, rest string) {
	route := pagetree.NormalizeRoute(rawPath)
	first, remainder, _ := strings.Cut(route, "/")
	if _, ok := p.locales[first]; ok {
		return first, remainder
	}
	return p.defaultLocale, route
}

// Translate maps a canonical route to its display form in locale.
func (p *Planner) Translate(route, locale string) string {
	return p.tables[locale].Translate(route)
}

// Reverse maps a display route in locale to canonical form.
func (p *Planner) Reverse(route, locale string) string {
	return p.tables[locale].Reverse(route)
}

// Href builds the display path for a canonical route in locale.
func (p *Planner) Href(route, locale string) string {
	display := p.Translate(route, locale)
	if _, ok := p.locales[locale]; !ok {
		return "/" + display
	}
	if display == "" {
		return "/" + locale
	}
	return "/" + locale + "/" + display
}

// SwitchLocale returns the href of the page addressed by rawPath in target.
func (p *Planner) SwitchLocale(rawPath, target string) string {
	_, route := p.Canonical(rawPath)
	return p.Href(route, target)
}

// MakeHref resolves an internal reference of the form "page:<id>[#section]"
// to a display href in locale. Other values are returned unchanged, as are
// references to unknown ids.
func (p *Planner) MakeHref(ref, locale string) string {
	target, ok := strings.CutPrefix(ref, "page:")
	if !ok {
		return ref
	}
	id, section, hasSection := strings.Cut(target, "#")
	page, ok := p.ids[id]
	if !ok {
		p.logger.Warn("unresolved page reference", slog.String("ref", ref))
		return ref
	}
	href := p.Href(page.NavRoute(), locale)
	if hasSection && section != "" {
		href += "#" + section
	}
	return href
}

// PageByID looks up a page through the page-id index.
func (p *Planner) PageByID(id string) (*pagetree.Page, bool) {
	page, ok := p.ids[id]
	return page, ok
}

// Ancestors returns the ancestor chain of page, nearest first. Materialized
// pages use the chain of the template's declared parent.
func (p *Planner) Ancestors(page *pagetree.Page) []*pagetree.Page {
	if page == nil {
		return nil
	}
	if indexed, ok := p.tree.Page(page.Route); ok && indexed == page {
		return p.tree.Ancestors(page.Route)
	}
	return p.tree.Chain(page.Parent)
}

// ScopeFor returns the deepest version scope containing route.
func (p *Planner) ScopeFor(route string) (VersionScope, bool) {
	return p.versions.scopeFor(route)
}

// VersionOf returns the version a canonical route belongs to. Routes without
// a version segment belong to the scope's latest version.
func (p *Planner) VersionOf(route string) (string, bool) {
	scope, ok := p.versions.scopeFor(route)
	if !ok {
		return "", false
	}
	if _, version := scope.split(route); version != "" {
		return version, true
	}
	return scope.Latest, true
}

// SwitchVersion rewrites the version segment of route to target, keeping the
// path within the scope. Switching to the latest version removes the segment.
func (p *Planner) SwitchVersion(route, target string) (string, error) {
	scope, ok := p.versions.scopeFor(route)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoVersionScope, route)
	}
	if !scope.Has(target) {
		return "", fmt.Errorf("routing: scope %q has no version %q", scope.Route, target)
	}
	within, _ := scope.split(route)
	if target == scope.Latest {
		return scope.join(within, ""), nil
	}
	return scope.join(within, target), nil
}

// Versions returns the configured scopes, deepest first.
func (p *Planner) Versions() []VersionScope {
	return slices.Clone(p.versions)
}
