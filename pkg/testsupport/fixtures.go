package testsupport

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-sitecore/pkg/datasource"
	"github.com/goliatone/go-sitecore/pkg/fetchcache"
	"github.com/goliatone/go-sitecore/pkg/manifest"
)

//go:embed testdata/site.yaml
var siteManifest []byte

// SiteManifestBytes returns the raw sample site manifest.
func SiteManifestBytes() []byte {
	return bytes.Clone(siteManifest)
}

// SiteManifest parses the sample site manifest shared by package tests.
func SiteManifest(t *testing.T) *manifest.Manifest {
	t.Helper()

	m, err := manifest.Parse(siteManifest, "site.yaml")
	if err != nil {
		t.Fatalf("parse site manifest: %v", err)
	}
	return m
}

// LoadManifest reads a manifest fixture from disk.
func LoadManifest(t *testing.T, path string) *manifest.Manifest {
	t.Helper()

	m, err := LoadManifestFromPath(path)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	return m
}

// LoadManifestFromPath returns a manifest without requiring testing.T so
// callers can wire fixtures in setup functions.
func LoadManifestFromPath(path string) (*manifest.Manifest, error) {
	if path == "" {
		return nil, errors.New("testsupport: manifest path is required")
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: %w", err)
	}
	return m, nil
}

// SiteData is the payload served by SiteTransport, keyed by address.
func SiteData() map[string]any {
	return map[string]any{
		"/data/authors.json": []any{
			map[string]any{"name": "ada", "title": "Ada Lovelace"},
			map[string]any{"name": "grace", "title": "Grace Hopper"},
		},
		"/data/nav.yaml": []any{
			map[string]any{"route": "docs/intro", "label": "Introduction"},
		},
		"https://api.example.com/posts": []any{
			map[string]any{"slug": "hello-world", "title": "Hello World"},
			map[string]any{"slug": "second", "title": "Second"},
		},
		"https://api.example.com/posts/hello-world": map[string]any{
			"slug": "hello-world", "title": "Hello World", "body": "<p>Hi</p>",
		},
	}
}

// StaticTransport serves fixed payloads by address and counts calls. Unknown
// addresses fail with a not-found error carried in the result.
type StaticTransport struct {
	mu    sync.Mutex
	data  map[string]any
	calls map[string]int
}

// NewStaticTransport returns a transport serving data.
func NewStaticTransport(data map[string]any) *StaticTransport {
	return &StaticTransport{data: data, calls: make(map[string]int)}
}

// SiteTransport serves SiteData.
func SiteTransport() *StaticTransport {
	return NewStaticTransport(SiteData())
}

// Fetch implements fetchcache.Transport.
func (s *StaticTransport) Fetch(_ context.Context, decl datasource.Declaration) fetchcache.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[decl.Address]++
	value, ok := s.data[decl.Address]
	if !ok {
		return fetchcache.Result{Err: fmt.Errorf("testsupport: %s not found", decl.Address)}
	}
	return fetchcache.Result{Data: datasource.CloneValue(value)}
}

// Calls returns how often address was fetched.
func (s *StaticTransport) Calls(address string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[address]
}

// Total returns the number of fetches across all addresses.
func (s *StaticTransport) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
