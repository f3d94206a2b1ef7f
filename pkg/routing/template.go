package routing

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/goliatone/go-sitecore/pkg/pagetree"
)

// Template is a compiled parameterized route such as "blog/:slug".
type Template struct {
	route   string
	names   []string
	literal int
	re      *regexp.Regexp
}

// CompileTemplate compiles route. Each `:name` segment captures exactly one
// path segment; every other character is matched literally, so a placeholder
// inside a segment such as "item.:id" is plain text.
func CompileTemplate(route string) (*Template, error) {
	route = pagetree.NormalizeRoute(route)
	segments := strings.Split(route, "/")
	parts := make([]string, len(segments))
	t := &Template{route: route}
	seen := make(map[string]struct{})
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") && len(segment) > 1 {
			name := segment[1:]
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("routing: template %q repeats parameter %q", route, name)
			}
			seen[name] = struct{}{}
			t.names = append(t.names, name)
			parts[i] = "([^/]+)"
			continue
		}
		t.literal++
		parts[i] = regexp.QuoteMeta(segment)
	}
	if len(t.names) == 0 {
		return nil, fmt.Errorf("routing: %q has no parameters", route)
	}
	re, err := regexp.Compile("^" + strings.Join(parts, "/") + "$")
	if err != nil {
		return nil, fmt.Errorf("routing: compile template %q: %w", route, err)
	}
	t.re = re
	return t, nil
}

// Route returns the normalized template route.
func (t *Template) Route() string { return t.route }

// Names returns the parameter names in route order.
func (t *Template) Names() []string {
	return append([]string(nil), t.names...)
}

// Match tests a concrete route and returns the decoded parameter values.
func (t *Template) Match(route string) (map[string]string, bool) {
	m := t.re.FindStringSubmatch(pagetree.NormalizeRoute(route))
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(t.names))
	for i, name := range t.names {
		raw := m[i+1]
		value, err := url.PathUnescape(raw)
		if err != nil {
			value = raw
		}
		params[name] = value
	}
	return params, true
}

// Normalize trims slashes and collapses empty segments.
func Normalize(route string) string {
	return pagetree.NormalizeRoute(route)
}
