package routing

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-sitecore/pkg/pagetree"
)

// ErrNoVersionScope is returned when a route lies outside every scope.
var ErrNoVersionScope = errors.New("routing: route is not in a versioned scope")

// Version is one labeled snapshot of a scope.
type Version struct {
	ID         string `json:"id" yaml:"id"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

// VersionScope is a route subtree with historical snapshots. The latest
// snapshot lives at the unprefixed routes; every other version lives under
// "<scope>/<version id>/...".
type VersionScope struct {
	Route    string    `json:"route" yaml:"route"`
	Versions []Version `json:"versions" yaml:"versions"`
	Latest   string    `json:"latest" yaml:"latest"`
}

// Has reports whether id names one of the scope's versions.
func (s VersionScope) Has(id string) bool {
	return slices.ContainsFunc(s.Versions, func(v Version) bool { return v.ID == id })
}

// Contains reports whether route lies inside the scope. The root scope
// contains every route.
func (s VersionScope) Contains(route string) bool {
	return pagetree.IsAncestorRoute(s.Route, route)
}

// Validate checks that the latest version is declared.
func (s VersionScope) Validate() error {
	if len(s.Versions) == 0 {
		return fmt.Errorf("routing: version scope %q has no versions", s.Route)
	}
	if !s.Has(s.Latest) {
		return fmt.Errorf("routing: version scope %q: latest %q is not a declared version", s.Route, s.Latest)
	}
	return nil
}

// split returns the path inside the scope and the version segment found at
// its start, if any.
func (s VersionScope) split(route string) (within string, version string) {
	route = pagetree.NormalizeRoute(route)
	scope := pagetree.NormalizeRoute(s.Route)
	within = route
	if scope != "" {
		within = strings.TrimPrefix(strings.TrimPrefix(route, scope), "/")
	}
	first, rest, _ := strings.Cut(within, "/")
	if first != "" && first != s.Latest && s.Has(first) {
		return rest, first
	}
	return within, ""
}

func (s VersionScope) join(within, version string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{pagetree.NormalizeRoute(s.Route), version, within} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "/")
}

type versionIndex []VersionScope

func newVersionIndex(scopes []VersionScope) (versionIndex, error) {
	out := make(versionIndex, 0, len(scopes))
	for _, scope := range scopes {
		scope.Route = pagetree.NormalizeRoute(scope.Route)
		if err := scope.Validate(); err != nil {
			return nil, err
		}
		out = append(out, scope)
	}
	slices.SortStableFunc(out, func(a, b VersionScope) int {
		return len(b.Route) - len(a.Route)
	})
	return out, nil
}

// scopeFor returns the deepest scope containing route.
func (idx versionIndex) scopeFor(route string) (VersionScope, bool) {
	for _, scope := range idx {
		if scope.Contains(route) {
			return scope, true
		}
	}
	return VersionScope{}, false
}
