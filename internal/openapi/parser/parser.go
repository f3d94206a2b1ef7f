package parser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-sitecore/pkg/datasource"
	pkgopenapi "github.com/goliatone/go-sitecore/pkg/openapi"
)

// Parser implements pkgopenapi.Extractor using kin-openapi.
type Parser struct {
	options pkgopenapi.ExtractOptions
}

var _ pkgopenapi.Extractor = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgopenapi.ExtractOptions) pkgopenapi.Extractor {
	return &Parser{options: options}
}

// Declarations returns one declaration per collection endpoint: a GET
// without path parameters whose JSON response is an array, or an object
// wrapping a single array. Results are ordered by path.
func (p *Parser) Declarations(ctx context.Context, doc pkgopenapi.Document) ([]datasource.Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi parser: document does not contain any paths")
	}

	base := p.baseURL(spec)
	items := spec.Paths.Map()
	paths := make([]string, 0, len(items))
	for route := range items {
		paths = append(paths, route)
	}
	slices.Sort(paths)

	var out []datasource.Declaration
	for _, route := range paths {
		item := items[route]
		if item == nil || item.Get == nil || strings.Contains(route, "{") {
			continue
		}
		selector, ok := collectionSelector(item.Get)
		if !ok {
			continue
		}
		schema := schemaName(route, item.Get)
		if schema == "" {
			continue
		}

		decl := datasource.Declaration{
			Address: joinURL(base, route),
			Schema:  schema,
		}
		if selector != "" {
			decl.Transform = map[string]any{"select": selector}
		}
		if hasItemEndpoint(route, paths, items) {
			decl.Detail = datasource.Detail{Mode: datasource.DetailREST}
		}
		out = append(out, decl)
	}
	return out, nil
}

func (p *Parser) baseURL(spec *openapi3.T) string {
	if p.options.BaseURL != "" {
		return p.options.BaseURL
	}
	if p.options.IgnoreServers || len(spec.Servers) == 0 || spec.Servers[0] == nil {
		return ""
	}
	return spec.Servers[0].URL
}

// collectionSelector reports whether op returns a collection. For an object
// wrapping one array property it returns the JSONPath selecting that array.
func collectionSelector(op *openapi3.Operation) (string, bool) {
	schema := successSchema(op)
	if schema == nil {
		return "", false
	}
	switch {
	case schema.Type.Is(openapi3.TypeArray):
		return "", true
	case schema.Type.Is(openapi3.TypeObject):
		var arrays []string
		for name, prop := range schema.Properties {
			if prop != nil && prop.Value != nil && prop.Value.Type.Is(openapi3.TypeArray) {
				arrays = append(arrays, name)
			}
		}
		if len(arrays) == 1 {
			return "$." + arrays[0], true
		}
	}
	return "", false
}

// successSchema returns the JSON schema of the first 2xx response.
func successSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.Responses == nil {
		return nil
	}
	responses := op.Responses.Map()
	codes := make([]string, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		if !strings.HasPrefix(code, "2") {
			continue
		}
		ref := responses[code]
		if ref == nil || ref.Value == nil {
			continue
		}
		mt := ref.Value.Content.Get("application/json")
		if mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
			continue
		}
		return mt.Schema.Value
	}
	return nil
}

func schemaName(route string, op *openapi3.Operation) string {
	if raw, ok := op.Extensions[pkgopenapi.SchemaExtension]; ok {
		if name, ok := raw.(string); ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	name := path.Base(strings.TrimRight(route, "/"))
	if name == "/" || name == "." {
		return ""
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// hasItemEndpoint reports whether a GET "<route>/{param}" sibling exists.
func hasItemEndpoint(route string, paths []string, items map[string]*openapi3.PathItem) bool {
	prefix := strings.TrimRight(route, "/") + "/{"
	for _, candidate := range paths {
		rest, ok := strings.CutPrefix(candidate, prefix)
		if !ok || !strings.HasSuffix(rest, "}") || strings.Contains(rest, "/") {
			continue
		}
		if item := items[candidate]; item != nil && item.Get != nil {
			return true
		}
	}
	return false
}

func joinURL(base, route string) string {
	if base == "" {
		return route
	}
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimRight(base, "/") + route
	}
	u.Path = strings.TrimRight(u.Path, "/") + route
	return u.String()
}
