// Package sitecore wires the page tree, route planner, fetch cache and
// schema resolver for one site manifest into a Session.
package sitecore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-sitecore/pkg/datasource"
	"github.com/goliatone/go-sitecore/pkg/fetchcache"
	"github.com/goliatone/go-sitecore/pkg/manifest"
	"github.com/goliatone/go-sitecore/pkg/pagetree"
	"github.com/goliatone/go-sitecore/pkg/resolver"
	"github.com/goliatone/go-sitecore/pkg/routing"
	"github.com/goliatone/go-sitecore/pkg/visibility"
	visexpr "github.com/goliatone/go-sitecore/pkg/visibility/expr"
)

// ErrPageNotFound is returned by Load when no page matches the path.
var ErrPageNotFound = errors.New("sitecore: page not found")

// Option customises a Session.
type Option func(*config)

type config struct {
	transport   fetchcache.Transport
	logger      *slog.Logger
	registerer  prometheus.Registerer
	cache       *fetchcache.Cache
	depth       int
	concurrency int
	evaluator   visibility.Evaluator
}

// WithTransport registers the capability used to perform fetches.
func WithTransport(transport fetchcache.Transport) Option {
	return func(c *config) {
		c.transport = transport
	}
}

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegisterer registers fetch cache metrics with reg. It has no effect
// when WithCache supplies the cache.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}

// WithCache shares an existing cache, typically across sessions built from
// successive manifest reloads.
func WithCache(cache *fetchcache.Cache) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithAncestorDepth limits the container levels walked during discovery.
func WithAncestorDepth(depth int) Option {
	return func(c *config) {
		c.depth = depth
	}
}

// WithConcurrency bounds concurrent fetches per resolve.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}

// WithEvaluator replaces the expression evaluator used for page visibility
// rules.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(c *config) {
		if evaluator != nil {
			c.evaluator = evaluator
		}
	}
}

// Session is one site's routing and data state. It replaces process-wide
// singletons: callers hold a Session and share its cache explicitly.
type Session struct {
	id        string
	manifest  *manifest.Manifest
	logger    *slog.Logger
	cache     *fetchcache.Cache
	tree      *pagetree.Tree
	planner   *routing.Planner
	resolver  *resolver.Resolver
	evaluator visibility.Evaluator
}

// New builds a Session for m.
func New(m *manifest.Manifest, options ...Option) (*Session, error) {
	if m == nil {
		return nil, errors.New("sitecore: manifest is required")
	}
	cfg := config{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		evaluator: visexpr.New(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	s := &Session{
		id:        uuid.NewString(),
		manifest:  m,
		evaluator: cfg.evaluator,
	}
	s.logger = cfg.logger.With(slog.String("session", s.id))

	s.cache = cfg.cache
	if s.cache == nil {
		cacheOpts := []fetchcache.Option{fetchcache.WithLogger(s.logger)}
		if cfg.registerer != nil {
			cacheOpts = append(cacheOpts, fetchcache.WithMetrics(fetchcache.NewMetrics(cfg.registerer)))
		}
		s.cache = fetchcache.New(cacheOpts...)
	}
	if cfg.transport != nil {
		if err := s.cache.Register(cfg.transport); err != nil {
			if !errors.Is(err, fetchcache.ErrTransportRegistered) {
				return nil, fmt.Errorf("sitecore: register transport: %w", err)
			}
			s.logger.Debug("shared cache already has a transport")
		}
	}

	tree, err := m.Tree(pagetree.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("sitecore: build page tree: %w", err)
	}
	s.tree = tree

	planner, err := routing.New(tree, m.RoutingConfig(),
		routing.WithLogger(s.logger),
		routing.WithCollectionLookup(s.listingCollection),
	)
	if err != nil {
		return nil, fmt.Errorf("sitecore: build route planner: %w", err)
	}
	s.planner = planner

	s.resolver = resolver.New(s.cache,
		resolver.WithSiteDefaults(m.Sources...),
		resolver.WithAncestorDepth(cfg.depth),
		resolver.WithConcurrency(cfg.concurrency),
		resolver.WithLogger(s.logger),
	)

	s.logger.Debug("session ready", slog.Int("pages", tree.Len()), slog.String("manifest", m.Source))
	return s, nil
}

// ID returns the session identifier attached to log records.
func (s *Session) ID() string { return s.id }

// Manifest returns the manifest the session was built from.
func (s *Session) Manifest() *manifest.Manifest { return s.manifest }

// Tree returns the page hierarchy.
func (s *Session) Tree() *pagetree.Tree { return s.tree }

// Planner returns the route planner.
func (s *Session) Planner() *routing.Planner { return s.planner }

// Cache returns the fetch cache.
func (s *Session) Cache() *fetchcache.Cache { return s.cache }

// Resolver returns the schema resolver.
func (s *Session) Resolver() *resolver.Resolver { return s.resolver }

// Page resolves a raw path to its page.
func (s *Session) Page(rawPath string) (*pagetree.Page, bool) {
	return s.planner.Page(rawPath)
}

// Target builds the resolver target for a content node. path lists the
// enclosing blocks from the outermost down to the node itself. Containers are
// the enclosing blocks, the page, then the page's ancestors.
func (s *Session) Target(page *pagetree.Page, path ...pagetree.Block) resolver.Target {
	var target resolver.Target
	if page == nil {
		return target
	}
	target.Dynamic = page.Dynamic
	if len(path) > 0 {
		node := path[len(path)-1]
		target.Sources = node.Sources
		if node.Dynamic != nil {
			target.Dynamic = node.Dynamic
		}
		for i := len(path) - 2; i >= 0; i-- {
			target.Ancestors = append(target.Ancestors, path[i].Sources)
		}
		target.Ancestors = append(target.Ancestors, page.Sources)
	} else {
		target.Sources = page.Sources
	}
	for _, ancestor := range s.planner.Ancestors(page) {
		target.Ancestors = append(target.Ancestors, ancestor.Sources)
	}
	return target
}

// Resolve reports cache-only readiness for the node at the end of path.
func (s *Session) Resolve(page *pagetree.Page, path ...pagetree.Block) resolver.Resolution {
	return s.resolver.Resolve(s.Target(page, path...), requirementOf(path))
}

// Fetch satisfies the requirement of the node at the end of path.
func (s *Session) Fetch(ctx context.Context, page *pagetree.Page, path ...pagetree.Block) (resolver.Bag, error) {
	return s.resolver.Fetch(ctx, s.Target(page, path...), requirementOf(path))
}

// listingCollection reads a listing page's collection from the cache, as
// resolved for its first block that requires data. It never fetches.
func (s *Session) listingCollection(listing *pagetree.Page, schema string) []any {
	path := dataBlockPath(listing.Blocks)
	res := s.resolver.Resolve(s.Target(listing, path...), datasource.Specific(schema))
	if res.Status != resolver.StatusReady {
		return nil
	}
	return datasource.Items(res.Data[schema])
}

// dataBlockPath returns the enclosing blocks down to the first block that
// requires data, outermost first.
func dataBlockPath(blocks []pagetree.Block) []pagetree.Block {
	for _, block := range blocks {
		if !block.Requires.IsNone() {
			return []pagetree.Block{block}
		}
		if nested := dataBlockPath(block.Blocks); nested != nil {
			return append([]pagetree.Block{block}, nested...)
		}
	}
	return nil
}

func requirementOf(path []pagetree.Block) datasource.Requirement {
	if len(path) == 0 {
		return datasource.None()
	}
	return path[len(path)-1].Requires
}

// Href resolves an internal "page:<id>" reference for locale.
func (s *Session) Href(ref, locale string) string {
	return s.planner.MakeHref(ref, locale)
}

// Navigation projects the page tree with hrefs built by the planner. The
// session evaluator runs visibility rules unless opts supplies one.
func (s *Session) Navigation(opts pagetree.HierarchyOptions) ([]pagetree.NavItem, error) {
	if opts.Href == nil {
		opts.Href = s.planner.Href
	}
	if opts.Evaluator == nil {
		opts.Evaluator = s.evaluator
	}
	if opts.Locale == "" {
		opts.Locale = s.planner.DefaultLocale()
	}
	return s.tree.Hierarchy(opts)
}
