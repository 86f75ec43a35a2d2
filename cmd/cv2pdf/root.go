package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	cv2pdf "github.com/alnah/go-cv2pdf"
	"github.com/alnah/go-cv2pdf/internal/config"
	"github.com/alnah/go-cv2pdf/internal/fileutil"
	"github.com/alnah/go-cv2pdf/internal/hints"
)

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	config  string
	envFile string
	quiet   bool
	verbose bool
}

// infof writes progress unless --quiet is set.
func (g *globalFlags) infof(w io.Writer, format string, args ...any) {
	if !g.quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// debugf writes details only with --verbose.
func (g *globalFlags) debugf(w io.Writer, format string, args ...any) {
	if g.verbose {
		fmt.Fprintf(w, format, args...)
	}
}

func newRootCmd(env *Environment) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "cv2pdf",
		Short: "Render a YAML CV to typst, markdown, HTML and PDF",
		Long: `cv2pdf validates a CV written in YAML and renders it through a theme
to typst, markdown and HTML. With --pdf or --png the typst (or HTML)
output is compiled as well.

Settings come from flags, then CV2PDF_* environment variables (also read
from .env), then the config file, then defaults.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadSettings(env, g)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.config, "config", "c", "", "config file name or path")
	pf.StringVar(&g.envFile, "env-file", "", "read CV2PDF_* variables from this file (default .env if present)")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "only show errors")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "show detailed timing")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	root.AddCommand(
		newRenderCmd(env, g),
		newValidateCmd(env, g),
		newNewCmd(env, g),
		newThemesCmd(env, g),
		newDoctorCmd(env),
	)
	return root
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return nil
	}
}

// loadSettings reads the .env file and the config file, and applies
// CV2PDF_* overrides to env.Config.
func loadSettings(env *Environment, g *globalFlags) error {
	// Checked here rather than with cobra flag groups, whose error bypasses
	// the flag error func.
	if g.quiet && g.verbose {
		return fmt.Errorf("%w: --quiet and --verbose cannot be used together", ErrUsage)
	}

	dotenv, err := loadDotEnv(g.envFile)
	if err != nil {
		return err
	}
	env.dotenv = dotenv

	if !g.quiet {
		var environ []string
		if env.Environ != nil {
			environ = env.Environ()
		}
		warnUnknownEnvVars(env.Stderr, environ, dotenv)
	}

	name := g.config
	if name == "" {
		name, _ = env.lookup("CV2PDF_CONFIG")
	}

	cfg := config.DefaultConfig()
	if name != "" {
		cfg, err = config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
				return fmt.Errorf("%w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return err
		}
		g.debugf(env.Stderr, "Config: %s\n", name)
	}

	if err := applyEnvConfig(cfg, env.lookup); err != nil {
		return err
	}
	env.Config = cfg
	return nil
}

// converterOptions maps the effective configuration to converter options.
func converterOptions(env *Environment) []cv2pdf.Option {
	cfg := env.Config
	opts := []cv2pdf.Option{
		cv2pdf.WithBareURLScheme(cfg.Fields.BareURLScheme()),
	}
	if env.Now != nil {
		opts = append(opts, cv2pdf.WithClock(env.Now))
	}
	if cfg.Themes.Path != "" {
		opts = append(opts, cv2pdf.WithThemePath(cfg.Themes.Path))
	}
	if cfg.Fields.PhoneRegion != "" {
		opts = append(opts, cv2pdf.WithPhoneRegion(cfg.Fields.PhoneRegion))
	}
	if cfg.Compile.TypstBinary != "" {
		opts = append(opts, cv2pdf.WithTypstBinary(cfg.Compile.TypstBinary))
	}
	if len(cfg.Compile.FontPaths) > 0 {
		opts = append(opts, cv2pdf.WithFontPaths(cfg.Compile.FontPaths...))
	}
	if d := cfg.Compile.TimeoutDuration(); d > 0 {
		opts = append(opts, cv2pdf.WithTimeout(d))
	}
	return append(opts, env.ConverterOptions...)
}
