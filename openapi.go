package sitecore

import (
	"context"
	"time"

	internalLoader "github.com/goliatone/go-sitecore/internal/openapi/loader"
	internalParser "github.com/goliatone/go-sitecore/internal/openapi/parser"
	"github.com/goliatone/go-sitecore/pkg/datasource"
	pkgopenapi "github.com/goliatone/go-sitecore/pkg/openapi"
)

// NewLoader constructs an OpenAPI loader using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	return internalLoader.New(pkgopenapi.NewLoaderOptions(options...))
}

// NewExtractor constructs a declaration extractor backed by kin-openapi.
func NewExtractor(options ...pkgopenapi.ExtractOption) pkgopenapi.Extractor {
	return internalParser.New(pkgopenapi.NewExtractOptions(options...))
}

// DeclarationsFromOpenAPI loads the document at src and derives data source
// declarations from its collection endpoints.
func DeclarationsFromOpenAPI(ctx context.Context, src pkgopenapi.Source, options ...pkgopenapi.ExtractOption) ([]datasource.Declaration, error) {
	doc, err := NewLoader(pkgopenapi.WithHTTPFallback(10 * time.Second)).Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return NewExtractor(options...).Declarations(ctx, doc)
}
