package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-sitecore/pkg/datasource"
	"github.com/goliatone/go-sitecore/pkg/fetchcache"
)

const defaultConcurrency = 8

// Option customises a Resolver.
type Option func(*Resolver)

// WithSiteDefaults sets the site-wide declarations consulted last.
func WithSiteDefaults(decls ...datasource.Declaration) Option {
	return func(r *Resolver) {
		r.siteDefaults = append(r.siteDefaults, decls...)
	}
}

// WithAncestorDepth limits how many container levels are walked. Zero or a
// negative value walks the full chain.
func WithAncestorDepth(depth int) Option {
	return func(r *Resolver) {
		r.depth = depth
	}
}

// WithConcurrency bounds the number of requests Fetch issues at once.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver discovers and satisfies data requirements. Several resolvers may
// share one cache.
type Resolver struct {
	cache        *fetchcache.Cache
	siteDefaults []datasource.Declaration
	depth        int
	concurrency  int
	logger       *slog.Logger
}

// New constructs a Resolver backed by cache.
func New(cache *fetchcache.Cache, options ...Option) *Resolver {
	r := &Resolver{
		cache:       cache,
		concurrency: defaultConcurrency,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Discover returns the declarations that satisfy req for target, in discovery
// order, keeping only the first declaration per schema.
func (r *Resolver) Discover(target Target, req datasource.Requirement) []datasource.Declaration {
	if req.IsNone() {
		return nil
	}

	levels := make([][]datasource.Declaration, 0, len(target.Ancestors)+2)
	levels = append(levels, target.Sources)
	ancestors := target.Ancestors
	if r.depth > 0 && len(ancestors) > r.depth {
		ancestors = ancestors[:r.depth]
	}
	levels = append(levels, ancestors...)
	levels = append(levels, r.siteDefaults)

	seen := make(map[string]struct{})
	var found []datasource.Declaration
	for _, level := range levels {
		for _, decl := range level {
			if decl.Schema == "" {
				continue
			}
			if _, ok := seen[decl.Schema]; ok {
				continue
			}
			if !req.Wants(decl.Schema) {
				continue
			}
			seen[decl.Schema] = struct{}{}
			found = append(found, decl)
		}
	}

	if req.Kind() == datasource.RequireSpecific {
		order := req.Schemas()
		slices.SortStableFunc(found, func(a, b datasource.Declaration) int {
			return slices.Index(order, a.Schema) - slices.Index(order, b.Schema)
		})
	}
	return found
}

// Resolve reports whether every discovered source is already cached. It never
// fetches.
func (r *Resolver) Resolve(target Target, req datasource.Requirement) Resolution {
	decls := r.Discover(target, req)
	if len(decls) == 0 {
		return Resolution{Status: StatusNone}
	}

	bag := make(Bag, len(decls))
	for _, rq := range r.plan(decls, target.Dynamic) {
		if value, ok := r.cache.Get(rq.decl.Signature()); ok {
			bag[rq.decl.Schema] = value
			continue
		}
		if rq.detail != nil {
			if value, ok := r.cache.Get(rq.detail.Signature()); ok {
				bag[rq.detail.Schema] = value
				continue
			}
		}
		return Resolution{Status: StatusPending}
	}

	DeriveItem(bag, target.Dynamic)
	return Resolution{Status: StatusReady, Data: bag}
}

// Fetch issues every missing request concurrently, waits for all of them and
// returns the merged bag. Requests that settle without data contribute
// nothing; transport errors are logged and any data they carry is kept. The
// error is non-nil only for configuration problems or when ctx ends.
func (r *Resolver) Fetch(ctx context.Context, target Target, req datasource.Requirement) (Bag, error) {
	if r.cache == nil {
		return nil, errors.New("resolver: cache is required")
	}
	decls := r.Discover(target, req)
	if len(decls) == 0 {
		return nil, nil
	}

	planned := r.plan(decls, target.Dynamic)
	keys := make([]string, len(planned))
	values := make([]any, len(planned))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency)
	for i, rq := range planned {
		group.Go(func() error {
			decl := rq.decl
			if rq.detail != nil && !r.cache.Has(rq.decl.Signature()) {
				decl = *rq.detail
			}
			result, err := r.cache.Fetch(groupCtx, decl)
			if err != nil {
				return err
			}
			if result.Err != nil {
				r.logger.Warn("data source reported an error",
					slog.String("schema", decl.Schema),
					slog.String("address", decl.Address),
					slog.Any("error", result.Err),
				)
			}
			if fetchcache.IsEmpty(result.Data) {
				return nil
			}
			keys[i] = decl.Schema
			values[i] = result.Data
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	bag := make(Bag, len(planned))
	for i, key := range keys {
		if key == "" {
			continue
		}
		bag[key] = values[i]
	}
	DeriveItem(bag, target.Dynamic)
	return bag, nil
}

// plan pairs each declaration with its detail request when the dynamic
// context drives that declaration's collection.
func (r *Resolver) plan(decls []datasource.Declaration, dyn *datasource.DynamicContext) []request {
	out := make([]request, 0, len(decls))
	for _, decl := range decls {
		rq := request{decl: decl}
		if dyn != nil && (dyn.Schema == "" || dyn.Schema == decl.Schema) {
			if detail, ok := datasource.DetailRequest(decl, dynamicParams(dyn), dyn.ParamName); ok {
				rq.detail = &detail
			}
		}
		out = append(out, rq)
	}
	return out
}

func dynamicParams(dyn *datasource.DynamicContext) map[string]string {
	if len(dyn.Params) > 0 {
		if _, ok := dyn.Params[dyn.ParamName]; ok {
			return dyn.Params
		}
	}
	if dyn.ParamName == "" {
		return dyn.Params
	}
	params := make(map[string]string, len(dyn.Params)+1)
	for k, v := range dyn.Params {
		params[k] = v
	}
	params[dyn.ParamName] = dyn.ParamValue
	return params
}

// DeriveItem adds the current item of a dynamic route to bag. When bag holds
// the context's collection and an item's paramName field matches paramValue,
// that item is stored under the singular key. Otherwise bag is unchanged.
func DeriveItem(bag Bag, dyn *datasource.DynamicContext) {
	if bag == nil || dyn == nil || dyn.Schema == "" {
		return
	}
	collection, ok := bag[dyn.Schema]
	if !ok {
		return
	}
	item, ok := datasource.FindItem(collection, dyn.ParamName, dyn.ParamValue)
	if !ok {
		return
	}
	bag[dyn.SingularKey()] = item
}
