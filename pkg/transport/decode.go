package transport

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

type format int

const (
	formatUnknown format = iota
	formatJSON
	formatYAML
)

// decode parses a payload as JSON or YAML. The content type wins over the
// address extension; when neither decides, JSON is tried before YAML.
func decode(data []byte, address, contentType string) (any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var value any
	switch detect(address, contentType) {
	case formatJSON:
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("transport: decode %s: %w", address, err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("transport: decode %s: %w", address, err)
		}
	default:
		if err := json.Unmarshal(data, &value); err == nil {
			return value, nil
		}
		value = nil
		if err := yaml.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("transport: decode %s: invalid JSON or YAML", address)
		}
	}
	return value, nil
}

func detect(address, contentType string) format {
	if contentType != "" {
		if media, _, err := mime.ParseMediaType(contentType); err == nil {
			switch {
			case media == "application/json" || strings.HasSuffix(media, "+json"):
				return formatJSON
			case strings.Contains(media, "yaml"):
				return formatYAML
			}
		}
	}

	p := address
	if u, err := url.Parse(address); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return formatJSON
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatUnknown
	}
}
