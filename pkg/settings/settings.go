package settings

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envPattern = regexp.MustCompile(`%env:([A-Za-z_][A-Za-z0-9_]*)%`)

// Settings is an immutable settings tree. Safe for concurrent use.
type Settings struct {
	tree map[string]any
}

// New wraps an already built tree. Nested maps are normalized so every
// map in the tree is a map[string]any.
func New(tree map[string]any) *Settings {
	normalized, _ := normalize(tree).(map[string]any)
	if normalized == nil {
		normalized = map[string]any{}
	}
	return &Settings{tree: normalized}
}

// Load reads and merges YAML files in order.
func Load(paths ...string) (*Settings, error) {
	docs := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("settings: reading %q: %w", p, err)
		}
		docs = append(docs, data)
	}
	return Parse(docs...)
}

// Parse merges YAML documents in order.
func Parse(docs ...[]byte) (*Settings, error) {
	tree := map[string]any{}
	for i, data := range docs {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: document %d: %s", ErrInvalidFile, i, err)
		}
		if raw == nil {
			continue
		}
		m, ok := normalize(raw).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: document %d: top level must be a map", ErrInvalidFile, i)
		}
		merge(tree, m)
	}
	return &Settings{tree: tree}, nil
}

// Get returns the value at a dotted path. An empty path returns the whole tree.
func (s *Settings) Get(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	if path == "" {
		return s.tree, true
	}

	var current any = s.tree
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String returns the value at path formatted as a string, or "" when absent.
func (s *Settings) String(path string) string {
	v, ok := s.Get(path)
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// Decode decodes the value at path into out using its yaml tags.
func (s *Settings) Decode(path string, out any) error {
	v, ok := s.Get(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return DecodeValue(v, out)
}

// DecodeValue decodes an arbitrary settings value into out.
func DecodeValue(v, out any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDecodeFailed, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s", ErrDecodeFailed, err)
	}
	return nil
}

// normalize converts map[any]any to map[string]any and substitutes
// environment references in strings.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case string:
		return substituteEnv(val)
	default:
		return v
	}
}

func substituteEnv(s string) string {
	if !strings.Contains(s, "%env:") {
		return s
	}
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			merge(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}
