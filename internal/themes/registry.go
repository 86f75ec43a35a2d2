package themes

import (
	"fmt"
	"slices"
)

// DefaultThemeName is the theme used when a CV names none.
const DefaultThemeName = "default"

// Registry resolves theme names to bundles. Built-in themes are loaded and
// checked once by NewRegistry; custom themes are read from disk on each
// Resolve. A Registry never changes after construction and is safe for
// concurrent use.
type Registry struct {
	builtin map[string]*theme
	names   []string
	custom  *FilesystemSource // nil if no custom path configured
}

// NewRegistry loads the built-in themes.
// If customPath is empty, only built-in themes are available.
// If customPath is set, custom themes take precedence over built-ins.
// Returns an error if customPath is set but invalid, or if a built-in theme
// is broken.
func NewRegistry(customPath string) (*Registry, error) {
	embedded := NewEmbeddedSource()
	names, err := embedded.Themes()
	if err != nil {
		return nil, err
	}

	r := &Registry{builtin: make(map[string]*theme, len(names)), names: names}
	l := loader{sources: []Source{embedded}}
	for _, name := range names {
		t, err := l.load(name)
		if err != nil {
			return nil, fmt.Errorf("built-in theme %q: %w", name, err)
		}
		r.builtin[name] = t
	}

	if customPath != "" {
		fsSource, err := NewFilesystemSource(customPath)
		if err != nil {
			return nil, err
		}
		r.custom = fsSource
	}
	return r, nil
}

// Resolve returns the bundle for name. A custom theme is tried first; only
// when the custom path has no such theme does the built-in one apply.
// Errors of an existing custom theme (incomplete, invalid) are returned
// as-is rather than hidden by the fallback.
func (r *Registry) Resolve(name string) (Bundle, error) {
	if err := ValidateThemeName(name); err != nil {
		return nil, err
	}

	if r.custom != nil {
		_, err := r.custom.ReadFile(name, ManifestFile)
		switch {
		case err == nil:
			l := loader{sources: []Source{r.custom, NewEmbeddedSource()}}
			return l.load(name)
		case !isNotFound(err):
			return nil, err
		}
	}

	if t, ok := r.builtin[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
}

// Names returns every resolvable theme name: built-ins plus custom
// themes, sorted and without duplicates.
func (r *Registry) Names() []string {
	names := slices.Clone(r.names)
	if custom, err := r.CustomNames(); err == nil {
		names = append(names, custom...)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// BuiltinNames returns the built-in theme names, sorted.
func (r *Registry) BuiltinNames() []string {
	return slices.Clone(r.names)
}

// CustomNames lists the custom themes found under the custom path.
func (r *Registry) CustomNames() ([]string, error) {
	if r.custom == nil {
		return nil, nil
	}
	return r.custom.Themes()
}

// HasCustomSource returns true if a custom theme path is configured.
func (r *Registry) HasCustomSource() bool {
	return r.custom != nil
}
