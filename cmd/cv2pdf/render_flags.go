package main

import (
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-cv2pdf/internal/config"
)

// outputFlags holds output destination flags.
type outputFlags struct {
	dir     string
	formats []string
	stdout  bool // Print the single rendered grammar instead of writing files
}

// compileFlags holds PDF and PNG generation flags.
type compileFlags struct {
	pdf       bool
	png       bool
	from      string
	typst     string
	fontPaths []string
	timeout   time.Duration
}

// fieldFlags holds contact field normalization flags.
type fieldFlags struct {
	phoneRegion   string
	noAssumeHTTPS bool
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	output  outputFlags
	compile compileFlags
	fields  fieldFlags
	themes  string
	workers int
}

// addOutputFlags adds output flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.dir, "output", "o", "", "output directory (default: next to each CV)")
	fs.StringSliceVarP(&f.formats, "format", "f", nil, "grammars to write: typst, markdown, html (default: all)")
	fs.BoolVar(&f.stdout, "stdout", false, "print the single requested format instead of writing files")
}

// addCompileFlags adds compile flags to a FlagSet.
func addCompileFlags(fs *flag.FlagSet, f *compileFlags) {
	fs.BoolVar(&f.pdf, "pdf", false, "compile a PDF")
	fs.BoolVar(&f.png, "png", false, "render one PNG per page")
	fs.StringVar(&f.from, "from", "", "compile from: typst (default), html")
	fs.StringVar(&f.typst, "typst", "", "typst executable (default: typst in PATH)")
	fs.StringSliceVar(&f.fontPaths, "font-path", nil, "extra font directory for typst (repeatable)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "compile timeout per CV (e.g., 30s, 2m)")
}

// addFieldFlags adds contact field flags to a FlagSet.
func addFieldFlags(fs *flag.FlagSet, f *fieldFlags) {
	fs.StringVar(&f.phoneRegion, "phone-region", "", "region for phone numbers without country code (e.g., FR)")
	fs.BoolVar(&f.noAssumeHTTPS, "no-assume-https", false, "reject URLs written without a scheme")
}

// addThemeFlags adds the custom theme directory flag to a FlagSet.
func addThemeFlags(fs *flag.FlagSet, path *string) {
	fs.StringVar(path, "themes", "", "custom theme directory")
}

// mergeRenderFlags applies the flags set on the command line to cfg and
// validates the result. Unset flags keep the env and config values.
func mergeRenderFlags(fs *flag.FlagSet, f *renderFlags, cfg *config.Config) error {
	if fs.Changed("output") {
		cfg.Output.DefaultDir = f.output.dir
	}
	if fs.Changed("format") {
		cfg.Formats = f.output.formats
	}
	if fs.Changed("pdf") {
		cfg.Compile.PDF = f.compile.pdf
	}
	if fs.Changed("png") {
		cfg.Compile.PNG = f.compile.png
	}
	if fs.Changed("from") {
		cfg.Compile.From = f.compile.from
	}
	if fs.Changed("typst") {
		cfg.Compile.TypstBinary = f.compile.typst
	}
	if fs.Changed("font-path") {
		cfg.Compile.FontPaths = f.compile.fontPaths
	}
	if fs.Changed("timeout") {
		if f.compile.timeout <= 0 {
			return fmt.Errorf("%w: --timeout must be positive, got %v", ErrUsage, f.compile.timeout)
		}
		cfg.Compile.Timeout = f.compile.timeout.String()
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	mergeFieldFlags(fs, &f.fields, cfg)
	mergeThemeFlags(fs, f.themes, cfg)

	return cfg.Validate()
}

// mergeFieldFlags applies the contact field flags to cfg.
func mergeFieldFlags(fs *flag.FlagSet, f *fieldFlags, cfg *config.Config) {
	if fs.Changed("phone-region") {
		cfg.Fields.PhoneRegion = strings.ToUpper(f.phoneRegion)
	}
	if fs.Changed("no-assume-https") {
		assume := !f.noAssumeHTTPS
		cfg.Fields.AssumeHTTPS = &assume
	}
}

// mergeThemeFlags applies --themes to cfg.
func mergeThemeFlags(fs *flag.FlagSet, path string, cfg *config.Config) {
	if fs.Changed("themes") {
		cfg.Themes.Path = path
	}
}
