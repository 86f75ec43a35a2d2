// Package yamlutil wraps YAML parsing to isolate the external dependency.
// CV documents, theme manifests, locale catalogs and the CLI config file all
// go through it.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/parser"

	"github.com/alnah/go-cv2pdf/internal/ordered"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
	ErrNotMapping     = errors.New("yamlutil: document root is not a mapping")
	ErrPathNotFound   = errors.New("yamlutil: path not found")
)

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// UnmarshalOrdered decodes a YAML document whose root is a mapping, keeping
// key order at every nesting level. Nested mappings become ordered.Map,
// sequences become []any.
func UnmarshalOrdered(data []byte) (ordered.Map, error) {
	var raw any
	if err := validateInput(data, &raw); err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	m, ok := convert(raw).(ordered.Map)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, raw)
	}
	return m, nil
}

// Replace sets the node at path, such as "$.cv.name", to value. The rest of
// the document keeps its order and comments. The path must already exist.
func Replace(data []byte, path string, value any) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrNilData
	}
	p, err := yaml.PathString(path)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	file, err := parser.ParseBytes(data, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	if _, err := p.FilterFile(file); err != nil {
		if errors.Is(err, yaml.ErrNotFoundNode) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, fmt.Errorf("yamlutil: %s: %w", path, err)
	}
	node, err := yaml.ValueToNode(value)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	if err := p.ReplaceWithNode(file, node); err != nil {
		return nil, fmt.Errorf("yamlutil: %s: %w", path, err)
	}
	return []byte(file.String() + "\n"), nil
}

func convert(v any) any {
	switch t := v.(type) {
	case yaml.MapSlice:
		m := make(ordered.Map, 0, len(t))
		for _, item := range t {
			m = append(m, ordered.Pair{Key: fmt.Sprint(item.Key), Value: convert(item.Value)})
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = convert(e)
		}
		return out
	default:
		return v
	}
}
