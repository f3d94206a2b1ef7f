package sitecore

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-sitecore/pkg/manifest"
	"github.com/goliatone/go-sitecore/pkg/transport"
)

//go:embed examples/site
var embeddedExampleSite embed.FS

// ExampleManifestName is the manifest file inside ExampleSiteFS.
const ExampleManifestName = "site.yaml"

// ExampleSiteFS exposes the bundled demo site: a manifest plus the data files
// its declarations address.
//
// Typical use from the CLI:
//
//	sitecore --example routes
func ExampleSiteFS() fs.FS {
	sub, err := fs.Sub(embeddedExampleSite, "examples/site")
	if err != nil {
		return embeddedExampleSite
	}
	return sub
}

// OpenExample builds a Session over the demo site. Local addresses are served
// from ExampleSiteFS; extra options are applied after the defaults.
func OpenExample(options ...Option) (*Session, error) {
	m, err := manifest.LoadFS(ExampleSiteFS(), ExampleManifestName)
	if err != nil {
		return nil, fmt.Errorf("sitecore: load example site: %w", err)
	}
	defaults := []Option{
		WithTransport(transport.New(transport.WithFS(ExampleSiteFS()), transport.WithoutHTTP())),
	}
	return New(m, append(defaults, options...)...)
}
