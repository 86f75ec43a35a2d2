package themes

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/yamlutil"
)

// OptionKind is the value type of a theme option.
type OptionKind string

const (
	KindColor     OptionKind = "color"
	KindDimension OptionKind = "dimension"
	KindEnum      OptionKind = "enum"
	KindString    OptionKind = "string"
	KindBool      OptionKind = "bool"
	KindNumber    OptionKind = "number"
)

var optionKinds = []string{
	string(KindColor), string(KindDimension), string(KindEnum),
	string(KindString), string(KindBool), string(KindNumber),
}

// OptionSpec declares one design option a theme understands.
type OptionSpec struct {
	Kind        OptionKind `yaml:"kind"`
	Default     any        `yaml:"default"`
	Values      []string   `yaml:"values,omitempty"`
	Description string     `yaml:"description,omitempty"`
}

// Manifest is the content of theme.yaml.
type Manifest struct {
	Name        string                `yaml:"name"`
	Version     string                `yaml:"version"`
	Description string                `yaml:"description,omitempty"`
	Extends     string                `yaml:"extends,omitempty"`
	Options     map[string]OptionSpec `yaml:"options,omitempty"`
}

// Normalize validates v against the option kind and returns the canonical
// value: "#rrggbb" colors, unit-suffixed dimensions, float64 numbers.
func (o OptionSpec) Normalize(v any) (any, error) {
	switch o.Kind {
	case KindColor:
		s, err := field.NonEmpty(v)
		if err != nil {
			return nil, err
		}
		return field.Color(s)
	case KindDimension:
		s, err := field.NonEmpty(v)
		if err != nil {
			return nil, err
		}
		return field.Dimension(s)
	case KindEnum:
		s, err := field.NonEmpty(v)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(o.Values, s) {
			return nil, diag.Newf("", "invalid value %q", s).WithAllowed(o.Values...)
		}
		return s, nil
	case KindString:
		return field.NonEmpty(v)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, diag.Newf("", "must be true or false, got %v", v)
		}
		return b, nil
	case KindNumber:
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case uint64:
			return float64(n), nil
		case float64:
			if math.IsNaN(n) || math.IsInf(n, 0) {
				break
			}
			return n, nil
		}
		return nil, diag.Newf("", "must be a number, got %v", v)
	}
	return nil, diag.Newf("", "unknown option kind %q", o.Kind).WithAllowed(optionKinds...)
}

// parseManifest decodes and checks a manifest. The manifest name, when
// set, must match the directory name.
func parseManifest(dir string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := yamlutil.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, dir, err)
	}
	if m.Name == "" {
		m.Name = dir
	}
	if m.Name != dir {
		return nil, fmt.Errorf("%w: %s: name %q does not match directory", ErrInvalidManifest, dir, m.Name)
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
	if m.Extends != "" {
		if err := ValidateThemeName(m.Extends); err != nil {
			return nil, fmt.Errorf("%w: %s: extends: %v", ErrInvalidManifest, dir, err)
		}
	}

	var problems []string
	for _, name := range sortedKeys(m.Options) {
		spec := m.Options[name]
		if spec.Kind == KindEnum && len(spec.Values) == 0 {
			problems = append(problems, name+": enum without values")
			continue
		}
		norm, err := spec.Normalize(spec.Default)
		if err != nil {
			problems = append(problems, name+": default: "+err.Error())
			continue
		}
		spec.Default = norm
		m.Options[name] = spec
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidManifest, dir, strings.Join(problems, "; "))
	}
	return &m, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
