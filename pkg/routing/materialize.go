package routing

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/goliatone/go-sitecore/pkg/datasource"
	"github.com/goliatone/go-sitecore/pkg/pagetree"
)

type dynamicEntry struct {
	page   *pagetree.Page
	params map[string]string
}

func (p *Planner) cached(route string) (dynamicEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.dynamic[route]
	return entry, ok
}

// materialized returns the cached page for route, building it on first use.
// The lock is held across the build so each route is materialized once.
func (p *Planner) materialized(entry templateEntry, route string, params map[string]string) *pagetree.Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.dynamic[route]; ok {
		return cached.page
	}
	page := p.materialize(entry, route, params)
	p.dynamic[route] = dynamicEntry{page: page, params: maps.Clone(params)}
	return page
}

// Materialized returns the number of cached dynamic pages.
func (p *Planner) Materialized() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dynamic)
}

func (p *Planner) materialize(entry templateEntry, route string, params map[string]string) *pagetree.Page {
	tmpl := entry.page
	names := entry.tmpl.Names()
	paramName := names[len(names)-1]

	listing, _ := p.tree.Parent(tmpl.Route)
	schema := collectionSchema(tmpl, listing)
	items := collectionItems(listing, schema)
	if items == nil && listing != nil && schema != "" && p.lookup != nil {
		items = p.lookup(listing, schema)
	}

	dyn := &datasource.DynamicContext{
		Template:   entry.tmpl.Route(),
		Params:     maps.Clone(params),
		ParamName:  paramName,
		ParamValue: params[paramName],
		Schema:     schema,
		Singular:   datasource.Singularize(schema),
	}
	if items != nil {
		dyn.Items = datasource.CloneValue(items).([]any)
		if item, ok := datasource.FindItem(dyn.Items, paramName, dyn.ParamValue); ok {
			dyn.Item = item
		}
	}

	page := tmpl.Clone()
	page.Route = route
	page.ID = ""
	page.Index = false
	page.Dynamic = dyn
	injectBlocks(page.Blocks, dyn)

	if dyn.Item != nil {
		if page.Title == "" {
			page.Title = fieldText(dyn.Item, "title", "name")
		}
		if page.Description == "" {
			page.Description = fieldText(dyn.Item, "description", "excerpt", "summary")
		}
	}

	p.logger.Debug("materialized dynamic page",
		slog.String("route", route),
		slog.String("template", dyn.Template),
		slog.String("schema", schema),
		slog.Bool("item_found", dyn.Item != nil),
	)
	return page
}

// injectBlocks exposes the collection and the current item to every block.
func injectBlocks(blocks []pagetree.Block, dyn *datasource.DynamicContext) {
	for i := range blocks {
		block := &blocks[i]
		if block.Data == nil {
			block.Data = make(map[string]any, 2)
		}
		if dyn.Schema != "" && dyn.Items != nil {
			block.Data[dyn.Schema] = dyn.Items
		}
		if key := dyn.SingularKey(); key != "" && dyn.Item != nil {
			block.Data[key] = dyn.Item
		}
		block.Dynamic = dyn
		injectBlocks(block.Blocks, dyn)
	}
}

// collectionSchema names the collection a template iterates: the template's
// own source, then the listing page's, then the first collection found in
// the listing page's prepared data.
func collectionSchema(tmpl, listing *pagetree.Page) string {
	if schema := firstSchema(tmpl.Sources); schema != "" {
		return schema
	}
	if listing == nil {
		return ""
	}
	if schema := firstSchema(listing.Sources); schema != "" {
		return schema
	}
	block, ok := firstDataBlock(listing.Blocks)
	if !ok {
		return ""
	}
	if schema := firstSchema(block.Sources); schema != "" {
		return schema
	}
	keys := slices.Sorted(maps.Keys(block.Data))
	for _, key := range keys {
		if datasource.Items(block.Data[key]) != nil {
			return key
		}
	}
	return ""
}

// collectionItems reads the collection declared in the listing page's first
// data-bearing block.
func collectionItems(listing *pagetree.Page, schema string) []any {
	if listing == nil || schema == "" {
		return nil
	}
	block, ok := firstDataBlock(listing.Blocks)
	if !ok {
		return nil
	}
	return datasource.Items(block.Data[schema])
}

func firstDataBlock(blocks []pagetree.Block) (*pagetree.Block, bool) {
	for i := range blocks {
		if len(blocks[i].Data) > 0 {
			return &blocks[i], true
		}
		if nested, ok := firstDataBlock(blocks[i].Blocks); ok {
			return nested, true
		}
	}
	return nil, false
}

func firstSchema(decls []datasource.Declaration) string {
	for _, decl := range decls {
		if decl.Schema != "" {
			return decl.Schema
		}
	}
	return ""
}

// fieldText returns the first present field as plain text.
func fieldText(item map[string]any, names ...string) string {
	for _, name := range names {
		if value, ok := item[name]; ok && value != nil {
			return pagetree.PlainText(datasource.Stringify(value))
		}
	}
	return ""
}
