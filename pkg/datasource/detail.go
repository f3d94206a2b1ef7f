package datasource

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DetailMode enumerates the supported detail conventions.
type DetailMode int

const (
	DetailNone DetailMode = iota
	// DetailREST appends the parameter value as a path segment.
	DetailREST
	// DetailQuery appends the parameter as a query string pair.
	DetailQuery
	// DetailTemplate substitutes {name} placeholders in a custom address.
	DetailTemplate
)

func (m DetailMode) String() string {
	switch m {
	case DetailREST:
		return "rest"
	case DetailQuery:
		return "query"
	case DetailTemplate:
		return "template"
	default:
		return "none"
	}
}

// Detail is the convention used to derive a single-record request from a
// collection declaration.
type Detail struct {
	Mode     DetailMode
	Template string
}

// ParseDetail converts a manifest value into a Detail. Anything that is not
// one of the keywords is treated as a template.
func ParseDetail(raw string) Detail {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "":
		return Detail{}
	case "rest":
		return Detail{Mode: DetailREST}
	case "query":
		return Detail{Mode: DetailQuery}
	default:
		return Detail{Mode: DetailTemplate, Template: trimmed}
	}
}

// IsZero reports whether no convention was declared.
func (d Detail) IsZero() bool {
	return d.Mode == DetailNone
}

func (d Detail) String() string {
	if d.Mode == DetailTemplate {
		return d.Template
	}
	if d.Mode == DetailNone {
		return ""
	}
	return d.Mode.String()
}

// MarshalJSON writes the manifest spelling.
func (d Detail) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON reads the manifest spelling.
func (d *Detail) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Detail{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("datasource: detail must be a string: %w", err)
	}
	*d = ParseDetail(raw)
	return nil
}

// MarshalYAML writes the manifest spelling.
func (d Detail) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML reads the manifest spelling.
func (d *Detail) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("datasource: detail must be a string: %w", err)
	}
	*d = ParseDetail(raw)
	return nil
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// DetailRequest synthesizes the single-record declaration for decl using the
// route parameter named paramName. It returns false when decl has no detail
// convention or the parameter is missing, in which case callers fall back to
// the collection.
func DetailRequest(decl Declaration, params map[string]string, paramName string) (Declaration, bool) {
	if decl.Detail.IsZero() || paramName == "" {
		return Declaration{}, false
	}
	value, ok := params[paramName]
	if !ok || value == "" {
		return Declaration{}, false
	}

	var address string
	switch decl.Detail.Mode {
	case DetailREST:
		if decl.Address == "" {
			return Declaration{}, false
		}
		base, query, hasQuery := strings.Cut(decl.Address, "?")
		address = strings.TrimRight(base, "/") + "/" + url.PathEscape(value)
		if hasQuery {
			address += "?" + query
		}
	case DetailQuery:
		if decl.Address == "" {
			return Declaration{}, false
		}
		sep := "?"
		if strings.Contains(decl.Address, "?") {
			sep = "&"
		}
		address = decl.Address + sep + url.QueryEscape(paramName) + "=" + url.QueryEscape(value)
	case DetailTemplate:
		address = placeholderPattern.ReplaceAllStringFunc(decl.Detail.Template, func(match string) string {
			name := match[1 : len(match)-1]
			if v, ok := params[name]; ok {
				return url.PathEscape(v)
			}
			return match
		})
	default:
		return Declaration{}, false
	}

	return Declaration{
		Address: address,
		Schema:  Singularize(decl.Schema),
	}, true
}
