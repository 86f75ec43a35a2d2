package cv2pdf

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/locale"
	"github.com/alnah/go-cv2pdf/internal/markup"
	"github.com/alnah/go-cv2pdf/internal/model"
	"github.com/alnah/go-cv2pdf/internal/render"
	"github.com/alnah/go-cv2pdf/internal/themes"
)

// Converter validates CVs and renders them through a theme.
// Create with NewConverter, use Convert for conversion, and Close when done.
//
// The theme registry and locale catalog are loaded once by NewConverter
// and shared read-only, so a Converter is safe for concurrent use.
type Converter struct {
	cfg        converterConfig
	themes     *themes.Registry
	locales    *locale.Catalog
	backend    *backend
	compiler   Compiler
	rasterizer Rasterizer
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithThemePath, WithPhoneRegion).
// Returns an error if the theme path is invalid or a built-in asset is broken.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout: defaultTimeout,
			policy:  field.DefaultPolicy(),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	registry, err := themes.NewRegistry(c.cfg.themePath)
	if err != nil {
		if c.cfg.themePath != "" {
			return nil, fmt.Errorf("%w: %w", ErrInvalidThemePath, err)
		}
		return nil, fmt.Errorf("loading built-in themes: %w", err)
	}
	c.themes = registry

	catalog, err := locale.NewCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading locale catalog: %w", err)
	}
	c.locales = catalog

	// Adapters not injected by the caller share one backend.
	if c.compiler == nil || c.rasterizer == nil {
		c.backend = newBackend(c.cfg)
		if c.compiler == nil {
			c.compiler = c.backend
		}
		if c.rasterizer == nil {
			c.rasterizer = c.backend
		}
	}

	return c, nil
}

// Convert validates the CV, renders the requested grammars and, if asked,
// compiles a PDF and page images.
//
// Invalid input returns ValidationErrors listing every problem found. A
// theme defect returns an error matching ErrRenderIntegrity. Recovers from
// internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if err := validateInput(input); err != nil {
		return nil, err
	}

	doc, warnings, err := model.Load(input.YAML, c.context())
	if err != nil {
		return nil, err
	}

	artifacts, err := renderAll(ctx, doc, input.grammars())
	if err != nil {
		return nil, err
	}

	res := &Result{
		Name:      doc.CV.Name,
		Artifacts: artifacts,
		Warnings:  warnings,
	}

	source := artifacts[input.source()]
	if input.PDF {
		cctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
		compiled, err := c.compiler.Compile(cctx, source, input.source())
		cancel()
		if err != nil {
			return nil, fmt.Errorf("compiling PDF: %w", err)
		}
		res.PDF = compiled.PDF
		res.CompileLog = compiled.Log
	}

	if input.PNG {
		rctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
		pages, err := c.rasterizer.Rasterize(rctx, source, input.source())
		cancel()
		if err != nil {
			return nil, fmt.Errorf("rasterizing pages: %w", err)
		}
		res.PNG = pages
	}

	return res, nil
}

// Validate checks a CV without rendering it. It returns the warnings of a
// valid CV, or ValidationErrors listing every problem found.
func (c *Converter) Validate(yaml []byte) ([]Warning, error) {
	if len(yaml) == 0 {
		return nil, ErrEmptyInput
	}
	_, warnings, err := model.Load(yaml, c.context())
	if err != nil {
		return nil, err
	}
	return warnings, nil
}

// Themes lists every resolvable theme, sorted by name. A broken custom
// theme is listed with an empty description rather than hidden.
func (c *Converter) Themes() []ThemeInfo {
	custom, _ := c.themes.CustomNames()
	builtin := c.themes.BuiltinNames()

	var out []ThemeInfo
	for _, name := range c.themes.Names() {
		info := ThemeInfo{
			Name:    name,
			Builtin: slices.Contains(builtin, name),
			Custom:  slices.Contains(custom, name),
		}
		if b, err := c.themes.Resolve(name); err == nil {
			info.Version = b.Version()
			info.Description = b.Description()
			info.Extends = b.Extends()
		}
		out = append(out, info)
	}
	return out
}

// Languages lists the locale languages with a built-in catalog entry.
func (c *Converter) Languages() []string {
	return c.locales.Languages()
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.backend != nil {
		return c.backend.Close()
	}
	return nil
}

func (c *Converter) context() model.Context {
	return model.Context{
		Themes:  c.themes,
		Locales: c.locales,
		Policy:  c.cfg.policy,
		Now:     c.cfg.now,
	}
}

// validateInput checks the request itself; the CV content is checked by
// the model.
func validateInput(input Input) error {
	if len(input.YAML) == 0 {
		return ErrEmptyInput
	}
	for _, g := range append(slices.Clone(input.Grammars), input.CompileFrom) {
		if g == "" {
			continue
		}
		if !slices.Contains(markup.Grammars(), g) {
			return fmt.Errorf("%w: %q (supported: typst, markdown, html)", ErrUnknownGrammar, g)
		}
	}
	return nil
}

// renderAll renders each grammar of doc concurrently. The first failure
// cancels the others.
func renderAll(ctx context.Context, doc *model.Document, grammars []Grammar) (map[Grammar]string, error) {
	out := make([]string, len(grammars))

	g, gctx := errgroup.WithContext(ctx)
	for i, gr := range grammars {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: rendering %s: %v", ErrInternal, gr, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i], err = render.Render(doc, gr)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	artifacts := make(map[Grammar]string, len(grammars))
	for i, gr := range grammars {
		artifacts[gr] = out[i]
	}
	return artifacts, nil
}
