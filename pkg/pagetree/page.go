package pagetree

import (
	"path"
	"slices"

	"github.com/goliatone/go-sitecore/pkg/datasource"
)

// VersionInfo describes the snapshot a page belongs to.
type VersionInfo struct {
	ID         string `json:"id" yaml:"id"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
	Latest     bool   `json:"latest,omitempty" yaml:"latest,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

// Block is a content section of a page. Blocks nest.
type Block struct {
	ID      string                   `json:"id,omitempty" yaml:"id,omitempty"`
	Type    string                   `json:"type,omitempty" yaml:"type,omitempty"`
	Sources []datasource.Declaration `json:"sources,omitempty" yaml:"sources,omitempty"`
	// Requires is the block's data requirement.
	Requires datasource.Requirement `json:"requires" yaml:"requires"`
	// Data is the bag resolved ahead of time by the build step, or injected
	// while materializing a dynamic page.
	Data   map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Blocks []Block        `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	// Dynamic is set on blocks of materialized dynamic pages.
	Dynamic *datasource.DynamicContext `json:"-" yaml:"-"`
}

// Clone deep copies the block and its children.
func (b Block) Clone() Block {
	out := b
	if b.Sources != nil {
		out.Sources = make([]datasource.Declaration, len(b.Sources))
		for i, decl := range b.Sources {
			out.Sources[i] = decl.Clone()
		}
	}
	if b.Data != nil {
		out.Data = datasource.CloneValue(b.Data).(map[string]any)
	}
	if b.Blocks != nil {
		out.Blocks = make([]Block, len(b.Blocks))
		for i, child := range b.Blocks {
			out.Blocks[i] = child.Clone()
		}
	}
	out.Dynamic = b.Dynamic.Clone()
	return out
}

// Page is one declared page.
type Page struct {
	// ID is an explicit stable identifier used by internal references.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
	// Route is canonical: normalized, no locale prefix.
	Route string `json:"route" yaml:"route"`
	// Parent is the declared parent route; empty for top-level pages.
	Parent      string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Index       bool     `json:"index,omitempty" yaml:"index,omitempty"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Hidden      bool     `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	HiddenIn    []string `json:"hiddenIn,omitempty" yaml:"hiddenIn,omitempty"`
	// Rule is an optional visibility expression evaluated by Hierarchy.
	Rule    string                   `json:"rule,omitempty" yaml:"rule,omitempty"`
	Sources []datasource.Declaration `json:"sources,omitempty" yaml:"sources,omitempty"`
	Blocks  []Block                  `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Version *VersionInfo             `json:"version,omitempty" yaml:"version,omitempty"`
	// Dynamic is set on pages materialized from a template route.
	Dynamic *datasource.DynamicContext `json:"-" yaml:"-"`
}

// Identifier returns the explicit id or the route-derived one.
func (p *Page) Identifier() string {
	if p.ID != "" {
		return p.ID
	}
	return DerivedID(p.Route)
}

// NavRoute is the route the page is reached at in navigation. Index pages are
// reached at their parent directory.
func (p *Page) NavRoute() string {
	if p.Index {
		return ParentRoute(p.Route)
	}
	return NormalizeRoute(p.Route)
}

// IsTemplate reports whether the page's route is parameterized.
func (p *Page) IsTemplate() bool {
	return IsTemplateRoute(p.Route)
}

// HasContent reports whether the page carries content blocks.
func (p *Page) HasContent() bool {
	return len(p.Blocks) > 0
}

// HiddenFor reports whether the page is hidden globally or for navType.
func (p *Page) HiddenFor(navType string) bool {
	if p.Hidden {
		return true
	}
	return navType != "" && slices.Contains(p.HiddenIn, navType)
}

// NavLabel returns the label shown in navigation.
func (p *Page) NavLabel() string {
	switch {
	case p.Label != "":
		return p.Label
	case p.Title != "":
		return p.Title
	case p.Route == "":
		return "Home"
	default:
		return path.Base(p.Route)
	}
}

// Clone deep copies the page.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := *p
	out.HiddenIn = slices.Clone(p.HiddenIn)
	if p.Sources != nil {
		out.Sources = make([]datasource.Declaration, len(p.Sources))
		for i, decl := range p.Sources {
			out.Sources[i] = decl.Clone()
		}
	}
	if p.Blocks != nil {
		out.Blocks = make([]Block, len(p.Blocks))
		for i, block := range p.Blocks {
			out.Blocks[i] = block.Clone()
		}
	}
	if p.Version != nil {
		version := *p.Version
		out.Version = &version
	}
	out.Dynamic = p.Dynamic.Clone()
	return &out
}
