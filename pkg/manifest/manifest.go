package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-sitecore/pkg/datasource"
	"github.com/goliatone/go-sitecore/pkg/pagetree"
	"github.com/goliatone/go-sitecore/pkg/routing"
)

// Manifest is the declared structure of a site.
type Manifest struct {
	DefaultLocale string                       `json:"defaultLocale,omitempty" yaml:"defaultLocale,omitempty"`
	Locales       []string                     `json:"locales,omitempty" yaml:"locales,omitempty"`
	Translations  map[string]map[string]string `json:"translations,omitempty" yaml:"translations,omitempty"`
	Versions      []routing.VersionScope       `json:"versions,omitempty" yaml:"versions,omitempty"`
	// Sources are the site-wide default declarations consulted last.
	Sources []datasource.Declaration `json:"sources,omitempty" yaml:"sources,omitempty"`
	Pages   []pagetree.Page          `json:"pages" yaml:"pages"`

	// Source records where the manifest was read from.
	Source string `json:"-" yaml:"-"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("manifest: path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS reads and validates the manifest named name from fsys.
func LoadFS(fsys fs.FS, name string) (*Manifest, error) {
	if fsys == nil {
		return nil, errors.New("manifest: filesystem is required")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", name, err)
	}
	return Parse(data, name)
}

// Parse decodes a JSON or YAML manifest and validates it. source names the
// document in error messages; its extension selects the decoder when it is
// .json, .yaml or .yml.
func Parse(data []byte, source string) (*Manifest, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("manifest: file %s is empty", source)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(source)) {
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("manifest: parse %s: %w", source, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("manifest: parse %s: %w", source, err)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			m = Manifest{}
			if err := yaml.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("manifest: parse %s: invalid JSON or YAML", source)
			}
		}
	}

	m.Source = source
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks locale, version and declaration consistency. Structural
// page errors (duplicate routes, parent cycles) surface from Tree.
func (m *Manifest) Validate() error {
	if m == nil {
		return errors.New("manifest: manifest is nil")
	}
	var errs []error

	if len(m.Locales) > 0 && m.DefaultLocale == "" {
		errs = append(errs, errors.New("manifest: defaultLocale is required when locales are declared"))
	}
	if m.DefaultLocale != "" && len(m.Locales) > 0 && !slices.Contains(m.Locales, m.DefaultLocale) {
		errs = append(errs, fmt.Errorf("manifest: defaultLocale %q is not in locales", m.DefaultLocale))
	}
	for locale := range m.Translations {
		if !slices.Contains(m.Locales, locale) {
			errs = append(errs, fmt.Errorf("manifest: translations for undeclared locale %q", locale))
		}
	}
	for _, scope := range m.Versions {
		if err := scope.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for i, decl := range m.Sources {
		if err := decl.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("manifest: sources[%d]: %w", i, err))
		}
	}
	for _, page := range m.Pages {
		label := pagetree.NormalizeRoute(page.Route)
		if label == "" {
			label = "/"
		}
		for i, decl := range page.Sources {
			if err := decl.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("manifest: page %s sources[%d]: %w", label, i, err))
			}
		}
		errs = append(errs, validateBlocks(label, page.Blocks)...)
	}
	return errors.Join(errs...)
}

func validateBlocks(page string, blocks []pagetree.Block) []error {
	var errs []error
	for _, block := range blocks {
		for i, decl := range block.Sources {
			if err := decl.Validate(); err != nil {
				name := block.ID
				if name == "" {
					name = block.Type
				}
				errs = append(errs, fmt.Errorf("manifest: page %s block %q sources[%d]: %w", page, name, i, err))
			}
		}
		errs = append(errs, validateBlocks(page, block.Blocks)...)
	}
	return errs
}

// Tree builds the page hierarchy declared by the manifest.
func (m *Manifest) Tree(options ...pagetree.Option) (*pagetree.Tree, error) {
	return pagetree.Build(m.Pages, options...)
}

// RoutingConfig returns the locale and version tables for a routing.Planner.
func (m *Manifest) RoutingConfig() routing.Config {
	return routing.Config{
		DefaultLocale: m.DefaultLocale,
		Locales:       slices.Clone(m.Locales),
		Translations:  m.Translations,
		Versions:      slices.Clone(m.Versions),
	}
}
