package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	cv2pdf "github.com/alnah/go-cv2pdf"
	"github.com/alnah/go-cv2pdf/internal/config"
)

func newRenderCmd(env *Environment, g *globalFlags) *cobra.Command {
	f := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render [flags] FILE|DIR...",
		Short: "Render CVs to typst, markdown and HTML, optionally PDF and PNG",
		Long: `Render validates each CV and writes one file per grammar next to it
(or under --output): NAME.typ, NAME.md and NAME.html. A directory
argument renders every .yaml and .yml file directly inside it.

--pdf and --png compile the typst output with the typst CLI, or the
HTML output with headless Chrome when --from html is given.`,
		Example: `  cv2pdf render cv.yaml
  cv2pdf render --pdf -o out/ cvs/
  cv2pdf render -f html --stdout cv.yaml > cv.html`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := mergeRenderFlags(cmd.Flags(), f, env.Config); err != nil {
				return err
			}
			plan, err := newRenderPlan(env.Config)
			if err != nil {
				return err
			}
			if f.output.stdout {
				return renderToStdout(cmd, env, plan, args)
			}
			return renderFiles(cmd, env, g, plan, args)
		},
	}

	fs := cmd.Flags()
	addOutputFlags(fs, &f.output)
	addCompileFlags(fs, &f.compile)
	addFieldFlags(fs, &f.fields)
	addThemeFlags(fs, &f.themes)
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	return cmd
}

// renderPlan is the effective per-CV request after flags, env and config
// are merged.
type renderPlan struct {
	grammars  []cv2pdf.Grammar // written text artifacts
	pdf       bool
	png       bool
	from      cv2pdf.Grammar
	outputDir string
	workers   int
}

// newRenderPlan resolves grammar names from a validated config.
func newRenderPlan(cfg *config.Config) (renderPlan, error) {
	plan := renderPlan{
		pdf:       cfg.Compile.PDF,
		png:       cfg.Compile.PNG,
		outputDir: cfg.Output.DefaultDir,
		workers:   cv2pdf.ResolvePoolSize(cfg.Workers),
	}

	for _, name := range cfg.Formats {
		g, err := cv2pdf.ParseGrammar(name)
		if err != nil {
			return plan, err
		}
		if !slices.Contains(plan.grammars, g) {
			plan.grammars = append(plan.grammars, g)
		}
	}
	if len(plan.grammars) == 0 {
		plan.grammars = cv2pdf.Grammars()
	}

	if cfg.Compile.From != "" {
		g, err := cv2pdf.ParseGrammar(cfg.Compile.From)
		if err != nil {
			return plan, err
		}
		plan.from = g
	}
	return plan, nil
}

// input returns the converter request for one CV.
func (p renderPlan) input(yaml []byte) cv2pdf.Input {
	return cv2pdf.Input{
		YAML:        yaml,
		Grammars:    p.grammars,
		PDF:         p.pdf,
		PNG:         p.png,
		CompileFrom: p.from,
	}
}

// renderToStdout prints one grammar of one CV. Warnings go to stderr.
func renderToStdout(cmd *cobra.Command, env *Environment, plan renderPlan, args []string) error {
	if len(args) != 1 || len(plan.grammars) != 1 {
		return fmt.Errorf("%w: --stdout needs exactly one FILE and one --format", ErrUsage)
	}
	if plan.pdf || plan.png {
		return fmt.Errorf("%w: --stdout cannot be combined with --pdf or --png", ErrUsage)
	}

	data, err := os.ReadFile(args[0]) // #nosec G304 -- user-provided path
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	conv, err := cv2pdf.NewConverter(converterOptions(env)...)
	if err != nil {
		return err
	}
	defer func() { _ = conv.Close() }()

	result, err := conv.Convert(cmd.Context(), plan.input(data))
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(env.Stderr, "warning: %s: %s\n", args[0], w)
	}
	_, err = fmt.Fprint(env.Stdout, result.Artifacts[plan.grammars[0]])
	return err
}

// renderFiles renders every discovered CV through a converter pool and
// reports each outcome.
func renderFiles(cmd *cobra.Command, env *Environment, g *globalFlags, plan renderPlan, args []string) error {
	files, err := discoverFiles(args, plan.outputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %v", ErrNoInput, args)
	}

	size := min(plan.workers, len(files))
	g.debugf(env.Stderr, "Pool size: %d\n", size)

	pool := newPoolAdapter(cv2pdf.NewConverterPool(size, converterOptions(env)...))
	defer func() { _ = pool.Close() }()

	results := renderBatch(cmd.Context(), pool, files, plan)
	return reportResults(results, g, env)
}
