package datasource

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrSchemaRequired is returned when a declaration omits its schema name.
var ErrSchemaRequired = errors.New("datasource: schema is required")

// AddressKind enumerates where a declaration's data lives.
type AddressKind string

const (
	AddressLocal  AddressKind = "local"
	AddressRemote AddressKind = "remote"
)

// Declaration describes one data source attached to a content node, a
// container, or the site defaults.
type Declaration struct {
	Address   string         `json:"address,omitempty" yaml:"address,omitempty"`
	Schema    string         `json:"schema" yaml:"schema"`
	Transform map[string]any `json:"transform,omitempty" yaml:"transform,omitempty"`
	Detail    Detail         `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Kind reports whether the address points at a remote URL or a local path.
func (d Declaration) Kind() AddressKind {
	lower := strings.ToLower(strings.TrimSpace(d.Address))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return AddressRemote
	}
	return AddressLocal
}

// Validate checks the fields every declaration must carry.
func (d Declaration) Validate() error {
	if strings.TrimSpace(d.Schema) == "" {
		return ErrSchemaRequired
	}
	if strings.TrimSpace(d.Address) == "" {
		return fmt.Errorf("datasource: schema %q: address is required", d.Schema)
	}
	return nil
}

// Signature returns the request signature for the declaration.
func (d Declaration) Signature() Signature {
	return SignatureOf(d)
}

// Clone returns a copy that shares no maps with the receiver.
func (d Declaration) Clone() Declaration {
	out := d
	if d.Transform != nil {
		out.Transform = cloneValue(d.Transform).(map[string]any)
	}
	return out
}

// UnmarshalJSON accepts the manifest spellings `path` and `url` as aliases of
// `address`.
func (d *Declaration) UnmarshalJSON(data []byte) error {
	var raw rawDeclaration
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("datasource: decode declaration: %w", err)
	}
	*d = raw.declaration()
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML manifests.
func (d *Declaration) UnmarshalYAML(node *yaml.Node) error {
	var raw rawDeclaration
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("datasource: decode declaration: %w", err)
	}
	*d = raw.declaration()
	return nil
}

type rawDeclaration struct {
	Address   string         `json:"address" yaml:"address"`
	Path      string         `json:"path" yaml:"path"`
	URL       string         `json:"url" yaml:"url"`
	Schema    string         `json:"schema" yaml:"schema"`
	Transform map[string]any `json:"transform" yaml:"transform"`
	Detail    Detail         `json:"detail" yaml:"detail"`
}

func (r rawDeclaration) declaration() Declaration {
	address := strings.TrimSpace(r.Address)
	if address == "" {
		address = strings.TrimSpace(r.URL)
	}
	if address == "" {
		address = strings.TrimSpace(r.Path)
	}
	return Declaration{
		Address:   address,
		Schema:    strings.TrimSpace(r.Schema),
		Transform: r.Transform,
		Detail:    r.Detail,
	}
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = cloneValue(value)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = cloneValue(value)
		}
		return out
	case map[string]string:
		return maps.Clone(typed)
	default:
		return v
	}
}

// CloneValue deep copies maps and slices produced by JSON/YAML decoding.
// Scalars are returned as is.
func CloneValue(v any) any {
	return cloneValue(v)
}
