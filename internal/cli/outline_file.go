package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/outline/pkg/wire"
	"gopkg.in/yaml.v3"
)

// LoadNodeFile reads a node in the authority's wire shape from a YAML or JSON file.
// Nested nodes may be listed under "children" as a shorthand for child_info.children.
func LoadNodeFile(path string) (wire.XBlockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wire.XBlockInfo{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseNode(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

// ParseNode decodes a node from YAML, or from JSON when isJSON is set.
func ParseNode(data []byte, isJSON bool) (wire.XBlockInfo, error) {
	var raw map[string]any
	if isJSON {
		err := json.Unmarshal(data, &raw)
		if err != nil {
			return wire.XBlockInfo{}, fmt.Errorf("invalid json: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return wire.XBlockInfo{}, fmt.Errorf("invalid yaml: %w", err)
	}
	if raw == nil {
		return wire.XBlockInfo{}, fmt.Errorf("empty document")
	}
	return wire.DecodeXBlockMap(normalize(raw).(map[string]any))
}

// normalize converts YAML timestamps to RFC 3339 text and expands the children shorthand.
func normalize(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339)
	case []any:
		for i := range val {
			val[i] = normalize(val[i])
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		if children, ok := val["children"]; ok {
			if _, has := val["child_info"]; !has {
				val["child_info"] = map[string]any{"children": children}
			}
			delete(val, "children")
		}
		return val
	default:
		return v
	}
}
