package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cv2pdf "github.com/alnah/go-cv2pdf"
)

func newValidateCmd(env *Environment, g *globalFlags) *cobra.Command {
	var (
		fields fieldFlags
		themes string
	)

	cmd := &cobra.Command{
		Use:   "validate [flags] FILE|DIR...",
		Short: "Check CVs without rendering them",
		Long: `Validate reports every problem of each CV at once, with the path of
the offending field (e.g. cv.sections.experience[0].start_date).
Nothing is written.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			mergeFieldFlags(fs, &fields, env.Config)
			mergeThemeFlags(fs, themes, env.Config)
			if err := env.Config.Validate(); err != nil {
				return err
			}

			files, err := discoverFiles(args, "")
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("%w in %v", ErrNoInput, args)
			}

			conv, err := cv2pdf.NewConverter(converterOptions(env)...)
			if err != nil {
				return err
			}
			defer func() { _ = conv.Close() }()

			results := make([]RenderOutcome, len(files))
			for i, f := range files {
				results[i] = validateFile(conv, f.InputPath)
			}
			return reportValidation(results, g, env)
		},
	}

	addFieldFlags(cmd.Flags(), &fields)
	addThemeFlags(cmd.Flags(), &themes)
	return cmd
}

func validateFile(conv *cv2pdf.Converter, path string) RenderOutcome {
	outcome := RenderOutcome{InputPath: path}
	data, err := os.ReadFile(path) // #nosec G304 -- discovered path
	if err != nil {
		outcome.Err = fmt.Errorf("%w: %w", ErrReadInput, err)
		return outcome
	}
	outcome.Warnings, outcome.Err = conv.Validate(data)
	return outcome
}

// reportValidation prints one line per valid CV and the full error list
// of each invalid one.
func reportValidation(results []RenderOutcome, g *globalFlags, env *Environment) error {
	var failed []RenderOutcome
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}
		if !g.quiet {
			for _, w := range r.Warnings {
				fmt.Fprintf(env.Stderr, "warning: %s: %s\n", r.InputPath, w)
			}
		}
		g.infof(env.Stdout, "OK %s\n", r.InputPath)
	}

	if len(failed) == 0 {
		return nil
	}
	if hint := hintFor(failed[0].Err); hint != "" {
		fmt.Fprintln(env.Stderr, hint[1:])
	}
	return &batchError{failed: len(failed), total: len(results), first: failed[0].Err}
}
