package openapi

import (
	"context"

	"github.com/goliatone/go-sitecore/pkg/datasource"
)

// SchemaExtension names the operation extension that overrides the schema
// name derived from the path.
const SchemaExtension = "x-sitecore-schema"

// Extractor turns an OpenAPI document into data source declarations.
type Extractor interface {
	Declarations(ctx context.Context, doc Document) ([]datasource.Declaration, error)
}

// ExtractOptions tunes extraction.
type ExtractOptions struct {
	// BaseURL prefixes every derived address. When empty the first server
	// declared by the document is used, if any.
	BaseURL string

	// IgnoreServers keeps addresses relative even when the document declares
	// servers.
	IgnoreServers bool

	// Validate runs kin-openapi validation before extraction.
	Validate bool
}

// ExtractOption mutates ExtractOptions during construction.
type ExtractOption func(*ExtractOptions)

// WithBaseURL sets the address prefix.
func WithBaseURL(base string) ExtractOption {
	return func(opts *ExtractOptions) {
		opts.BaseURL = base
	}
}

// WithoutServers keeps addresses relative to the document.
func WithoutServers() ExtractOption {
	return func(opts *ExtractOptions) {
		opts.IgnoreServers = true
	}
}

// WithValidation toggles document validation.
func WithValidation(enabled bool) ExtractOption {
	return func(opts *ExtractOptions) {
		opts.Validate = enabled
	}
}

// NewExtractOptions applies ExtractOption functions and returns the resulting
// configuration.
func NewExtractOptions(options ...ExtractOption) ExtractOptions {
	cfg := ExtractOptions{Validate: true}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
