package cv2pdf

import (
	"slices"
	"time"

	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/markup"
)

// Grammar identifies an output text format.
type Grammar = markup.Grammar

// Supported output grammars.
const (
	Typst    = markup.Typst
	Markdown = markup.Markdown
	HTML     = markup.HTML
)

// Grammars returns every supported grammar in rendering order.
func Grammars() []Grammar { return markup.Grammars() }

// ParseGrammar resolves a grammar name or file extension ("typ", "md").
func ParseGrammar(s string) (Grammar, error) { return markup.ParseGrammar(s) }

// ValidationError is a single input problem located by a dotted field path,
// such as "cv.sections.experience[2].start_date".
type ValidationError = diag.ValidationError

// ValidationErrors aggregates every independently detectable input problem.
// It is returned as the error of Convert and Validate; use errors.As to
// inspect it.
type ValidationErrors = diag.Errors

// Warning is a non-fatal diagnostic, such as an unknown locale language.
type Warning = diag.Warning

// Input is the per-conversion request.
type Input struct {
	// YAML is the CV document. Required.
	YAML []byte

	// Grammars lists the text artifacts to render. Empty means all.
	Grammars []Grammar

	// PDF requests a compiled PDF; PNG requests one image per page.
	PDF bool
	PNG bool

	// CompileFrom selects the artifact handed to the compiler and the
	// rasterizer. Empty means Typst.
	CompileFrom Grammar
}

// source returns the grammar compiled for PDF and PNG output.
func (in Input) source() Grammar {
	if in.CompileFrom == "" {
		return Typst
	}
	return in.CompileFrom
}

// grammars returns the grammars to render, including the compile source
// when a binary output is requested.
func (in Input) grammars() []Grammar {
	gs := slices.Clone(in.Grammars)
	if len(gs) == 0 {
		gs = Grammars()
	}
	if (in.PDF || in.PNG) && !slices.Contains(gs, in.source()) {
		gs = append(gs, in.source())
	}
	return gs
}

// Result holds the outputs of one conversion.
type Result struct {
	// Name is the CV holder's name, useful for naming output files.
	Name string

	// Artifacts maps each rendered grammar to its text.
	Artifacts map[Grammar]string

	// PDF and PNG are set only when requested. PNG holds one image per page.
	PDF []byte
	PNG [][]byte

	// CompileLog holds compiler diagnostics, such as missing-font warnings.
	CompileLog string

	Warnings []Warning
}

// ThemeInfo describes a resolvable theme.
type ThemeInfo struct {
	Name        string
	Version     string
	Description string
	Extends     string
	Builtin     bool
	Custom      bool // custom themes shadow a built-in of the same name
}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout     time.Duration
	themePath   string
	policy      field.Policy
	now         func() time.Time
	typstBinary string
	fontPaths   []string
}

// defaultTimeout bounds a single compile or rasterize call.
const defaultTimeout = 60 * time.Second

// WithTimeout sets the compile and rasterize timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("cv2pdf: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithThemePath sets a directory of custom themes. Custom themes take
// precedence over built-ins of the same name.
func WithThemePath(path string) Option {
	return func(c *Converter) {
		c.cfg.themePath = path
	}
}

// WithBareURLScheme sets the scheme prepended to URLs written without one,
// such as "example.com". An empty scheme rejects them. Defaults to https.
func WithBareURLScheme(scheme string) Option {
	return func(c *Converter) {
		c.cfg.policy.DefaultScheme = scheme
	}
}

// WithPhoneRegion sets the ISO 3166-1 region used for phone numbers written
// without a country code, such as "FR". By default they are rejected.
func WithPhoneRegion(region string) Option {
	return func(c *Converter) {
		c.cfg.policy.PhoneRegion = region
	}
}

// WithClock sets the clock used for "present" and the last-updated date
// when a CV sets no settings.current_date.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.cfg.now = now
	}
}

// WithTypstBinary sets the typst executable used by the default compiler.
func WithTypstBinary(path string) Option {
	return func(c *Converter) {
		c.cfg.typstBinary = path
	}
}

// WithFontPaths adds font directories for the default typst compiler.
func WithFontPaths(paths ...string) Option {
	return func(c *Converter) {
		c.cfg.fontPaths = append(c.cfg.fontPaths, paths...)
	}
}

// WithCompiler replaces the PDF compiler for every grammar.
func WithCompiler(compiler Compiler) Option {
	return func(c *Converter) {
		c.compiler = compiler
	}
}

// WithRasterizer replaces the PNG rasterizer for every grammar.
func WithRasterizer(rasterizer Rasterizer) Option {
	return func(c *Converter) {
		c.rasterizer = rasterizer
	}
}
