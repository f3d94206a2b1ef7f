package datasource

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// RequirementKind tags the Requirement union.
type RequirementKind int

const (
	// RequireNone means the node needs no data.
	RequireNone RequirementKind = iota
	// RequireAll means every schema discovered along the chain is wanted.
	RequireAll
	// RequireSpecific limits the lookup to an explicit list of schemas.
	RequireSpecific
)

func (k RequirementKind) String() string {
	switch k {
	case RequireAll:
		return "all"
	case RequireSpecific:
		return "specific"
	default:
		return "none"
	}
}

// Requirement is the data a content node asks for.
type Requirement struct {
	kind    RequirementKind
	schemas []string
}

// None returns the empty requirement.
func None() Requirement { return Requirement{} }

// All requests every discoverable schema.
func All() Requirement { return Requirement{kind: RequireAll} }

// Specific requests the named schemas in order. Blank and duplicate names are
// dropped; an empty list collapses to None.
func Specific(names ...string) Requirement {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return None()
	}
	return Requirement{kind: RequireSpecific, schemas: out}
}

// Kind returns the union tag.
func (r Requirement) Kind() RequirementKind { return r.kind }

// IsNone reports whether nothing is requested.
func (r Requirement) IsNone() bool { return r.kind == RequireNone }

// Schemas returns a copy of the explicit schema list (nil unless Specific).
func (r Requirement) Schemas() []string {
	return slices.Clone(r.schemas)
}

// Wants reports whether schema is covered by the requirement.
func (r Requirement) Wants(schema string) bool {
	switch r.kind {
	case RequireAll:
		return true
	case RequireSpecific:
		return slices.Contains(r.schemas, schema)
	default:
		return false
	}
}

func (r Requirement) String() string {
	if r.kind == RequireSpecific {
		return "specific(" + strings.Join(r.schemas, ",") + ")"
	}
	return r.kind.String()
}

// MarshalJSON writes the manifest spelling: a boolean or a list.
func (r Requirement) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.manifestValue())
}

// MarshalYAML writes the manifest spelling.
func (r Requirement) MarshalYAML() (any, error) {
	return r.manifestValue(), nil
}

func (r Requirement) manifestValue() any {
	switch r.kind {
	case RequireAll:
		return true
	case RequireSpecific:
		return r.Schemas()
	default:
		return false
	}
}

// UnmarshalJSON decodes `true`, `false`, a schema name, or a list of names.
func (r *Requirement) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("datasource: decode requirement: %w", err)
	}
	parsed, err := ParseRequirement(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (r *Requirement) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("datasource: decode requirement: %w", err)
	}
	parsed, err := ParseRequirement(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRequirement converts a decoded manifest value into a Requirement.
func ParseRequirement(raw any) (Requirement, error) {
	switch typed := raw.(type) {
	case nil:
		return None(), nil
	case bool:
		if typed {
			return All(), nil
		}
		return None(), nil
	case string:
		return Specific(typed), nil
	case []string:
		return Specific(typed...), nil
	case []any:
		names := make([]string, 0, len(typed))
		for _, item := range typed {
			name, ok := item.(string)
			if !ok {
				return None(), fmt.Errorf("datasource: requirement list must contain strings, got %T", item)
			}
			names = append(names, name)
		}
		return Specific(names...), nil
	default:
		return None(), fmt.Errorf("datasource: unsupported requirement value %T", raw)
	}
}
