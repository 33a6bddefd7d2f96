package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// The config schema is declared once, as JSON struct tags on Config. YAML
// files are accepted by decoding them into a generic tree and re-encoding
// as JSON, so both formats go through the same strict decoder in Parse().

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// decodeToJSON returns data as JSON bytes. JSON files pass through
// untouched; YAML files are converted.
func decodeToJSON(path string, data []byte) ([]byte, error) {
	if !isYAMLPath(path) {
		return data, nil
	}
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	jb, err := json.Marshal(stringifyKeys(tree))
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return jb, nil
}

// stringifyKeys rewrites map[any]any nodes, which the YAML decoder can
// produce for non-scalar keys, into map[string]any so json.Marshal
// accepts the tree.
func stringifyKeys(v any) any {
	switch node := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, val := range node {
			out[fmt.Sprint(k)] = stringifyKeys(val)
		}
		return out
	case map[string]any:
		for k, val := range node {
			node[k] = stringifyKeys(val)
		}
		return node
	case []any:
		for i, val := range node {
			node[i] = stringifyKeys(val)
		}
		return node
	default:
		return v
	}
}
