package themes

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"slices"
	"strings"
	"text/template"

	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/entry"
	"github.com/alnah/go-cv2pdf/internal/markup"
)

// DocumentFragment is the template name of the document wrapper.
const DocumentFragment = "document"

// Bundle is a resolved, complete theme: one document template and one
// fragment per entry variant for every grammar, plus option declarations.
// A Bundle is immutable and safe for concurrent use.
type Bundle interface {
	Name() string
	Version() string
	Description() string
	// Extends names the parent theme, or "".
	Extends() string
	// OptionNames lists the declared options, sorted.
	OptionNames() []string
	Option(name string) (OptionSpec, bool)
	// Defaults returns a fresh map of every option's default value.
	Defaults() map[string]any
	Document(g markup.Grammar) *template.Template
	Fragment(g markup.Grammar, v entry.Variant) *template.Template
}

// theme is the Bundle implementation.
type theme struct {
	manifest  Manifest
	files     map[string]string // "<grammar>/<fragment>.tmpl" -> source
	templates map[string]*template.Template
}

func (t *theme) Name() string        { return t.manifest.Name }
func (t *theme) Version() string     { return t.manifest.Version }
func (t *theme) Description() string { return t.manifest.Description }
func (t *theme) Extends() string     { return t.manifest.Extends }

func (t *theme) OptionNames() []string { return sortedKeys(t.manifest.Options) }

func (t *theme) Option(name string) (OptionSpec, bool) {
	o, ok := t.manifest.Options[name]
	return o, ok
}

func (t *theme) Defaults() map[string]any {
	out := make(map[string]any, len(t.manifest.Options))
	for k, o := range t.manifest.Options {
		out[k] = o.Default
	}
	return out
}

func (t *theme) Document(g markup.Grammar) *template.Template {
	return t.templates[fileName(g, DocumentFragment)]
}

func (t *theme) Fragment(g markup.Grammar, v entry.Variant) *template.Template {
	return t.templates[fileName(g, string(v))]
}

// RequiredFiles lists every template file a complete theme provides.
func RequiredFiles() []string {
	var out []string
	for _, g := range markup.Grammars() {
		out = append(out, fileName(g, DocumentFragment))
		for _, v := range entry.Variants() {
			out = append(out, fileName(g, string(v)))
		}
	}
	return out
}

func fileName(g markup.Grammar, fragment string) string {
	return string(g) + "/" + fragment + ".tmpl"
}

// funcs are available to every template.
var funcs = template.FuncMap{
	"join": strings.Join,
	"last": func(i, n int) bool { return i == n-1 },
}

// loader builds themes from an ordered list of sources. The first source
// that has a theme wins.
type loader struct {
	sources []Source
}

func (l loader) load(name string) (*theme, error) {
	t, err := l.loadChain(name, 0, nil)
	if err != nil {
		return nil, err
	}
	if err := t.compile(); err != nil {
		return nil, err
	}
	return t, nil
}

// link is one step of an inheritance chain: a theme name and the index of
// the source it was read from.
type link struct {
	name string
	src  int
}

// loadChain reads name, searching sources from index from on, then its
// ancestors, and merges files and options. A theme that extends its own
// name inherits from the next source that has it, so a custom "default"
// can refine the built-in one. Completeness is checked once the whole
// chain is merged.
func (l loader) loadChain(name string, from int, chain []link) (*theme, error) {
	if err := ValidateThemeName(name); err != nil {
		return nil, err
	}

	idx, data, err := l.find(name, from)
	if err != nil {
		return nil, err
	}
	here := link{name: name, src: idx}
	if slices.Contains(chain, here) {
		names := make([]string, 0, len(chain)+1)
		for _, c := range append(chain, here) {
			names = append(names, c.name)
		}
		return nil, fmt.Errorf("%w: %s", ErrInheritanceCycle, strings.Join(names, " -> "))
	}
	m, err := parseManifest(name, data)
	if err != nil {
		return nil, err
	}

	t := &theme{manifest: *m, files: map[string]string{}}
	if m.Extends != "" {
		next := 0
		if m.Extends == name {
			next = idx + 1
		}
		parent, err := l.loadChain(m.Extends, next, append(slices.Clone(chain), here))
		if errors.Is(err, ErrThemeNotFound) {
			return nil, fmt.Errorf("%w: %s: parent theme %q not found", ErrInvalidManifest, name, m.Extends)
		}
		if err != nil {
			return nil, fmt.Errorf("theme %q extends %q: %w", name, m.Extends, err)
		}
		maps.Copy(t.files, parent.files)
		options := maps.Clone(parent.manifest.Options)
		if options == nil {
			options = map[string]OptionSpec{}
		}
		maps.Copy(options, m.Options)
		t.manifest.Options = options
	}

	src := l.sources[idx]
	for _, file := range RequiredFiles() {
		content, err := src.ReadFile(name, file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		t.files[file] = string(content)
	}
	return t, nil
}

// find returns the index of the first source at or after from that has
// the theme, with its manifest.
func (l loader) find(name string, from int) (int, []byte, error) {
	for i := from; i < len(l.sources); i++ {
		data, err := l.sources[i].ReadFile(name, ManifestFile)
		if err == nil {
			return i, data, nil
		}
		if !isNotFound(err) {
			return 0, nil, err
		}
	}
	return 0, nil, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
}

// compile checks completeness, parses every template and executes it
// against sample data.
func (t *theme) compile() error {
	var missing []string
	for _, file := range RequiredFiles() {
		if _, ok := t.files[file]; !ok {
			missing = append(missing, strings.TrimSuffix(file, ".tmpl"))
		}
	}
	if len(missing) > 0 {
		ve := &diag.ValidationError{
			Path:    "design.theme",
			Reason:  fmt.Sprintf("incomplete theme %q", t.manifest.Name),
			Missing: missing,
		}
		return fmt.Errorf("%w: %w", ErrIncompleteTheme, ve)
	}

	t.templates = make(map[string]*template.Template, len(t.files))
	defaults := t.Defaults()
	for _, g := range markup.Grammars() {
		file := fileName(g, DocumentFragment)
		tmpl, err := t.parse(file)
		if err != nil {
			return err
		}
		empty := DocumentData{Options: defaults, Contacts: nil, Sections: nil}
		if err := dryRun(tmpl, sampleDocumentData(defaults), empty); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrInvalidTemplate, t.manifest.Name, file, err)
		}
		t.templates[file] = tmpl

		for _, v := range entry.Variants() {
			file := fileName(g, string(v))
			tmpl, err := t.parse(file)
			if err != nil {
				return err
			}
			if err := dryRun(tmpl, sampleEntryView(v), NewEntryView(v)); err != nil {
				return fmt.Errorf("%w: %s %s: %v", ErrInvalidTemplate, t.manifest.Name, file, err)
			}
			t.templates[file] = tmpl
		}
	}
	return nil
}

func (t *theme) parse(file string) (*template.Template, error) {
	tmpl, err := template.New(file).Funcs(funcs).Option("missingkey=error").Parse(t.files[file])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, t.manifest.Name, err)
	}
	return tmpl, nil
}

func dryRun(tmpl *template.Template, data ...any) error {
	for _, d := range data {
		if err := tmpl.Execute(io.Discard, d); err != nil {
			return err
		}
	}
	return nil
}

// Compile-time interface check.
var _ Bundle = (*theme)(nil)
