package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	cv2pdf "github.com/alnah/go-cv2pdf"
	"github.com/alnah/go-cv2pdf/internal/hints"
	"github.com/alnah/go-cv2pdf/internal/themes"
)

// defaultThemeDir is used by `themes new` when no theme path is configured.
const defaultThemeDir = "themes"

func newThemesCmd(env *Environment, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List or create themes",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newThemesListCmd(env), newThemesNewCmd(env, g))
	return cmd
}

func newThemesListCmd(env *Environment) *cobra.Command {
	var themePath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom themes",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			mergeThemeFlags(cmd.Flags(), themePath, env.Config)

			conv, err := cv2pdf.NewConverter(converterOptions(env)...)
			if err != nil {
				return err
			}
			defer func() { _ = conv.Close() }()

			tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tVERSION\tSOURCE\tDESCRIPTION")
			for _, t := range conv.Themes() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, t.Version, themeSource(t), t.Description)
			}
			return tw.Flush()
		},
	}
	addThemeFlags(cmd.Flags(), &themePath)
	return cmd
}

// themeSource describes where a theme comes from.
func themeSource(t cv2pdf.ThemeInfo) string {
	var parts []string
	switch {
	case t.Custom && t.Builtin:
		parts = append(parts, "custom (overrides built-in)")
	case t.Custom:
		parts = append(parts, "custom")
	default:
		parts = append(parts, "built-in")
	}
	if t.Extends != "" {
		parts = append(parts, "extends "+t.Extends)
	}
	return strings.Join(parts, ", ")
}

func newThemesNewCmd(env *Environment, g *globalFlags) *cobra.Command {
	var (
		base string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a theme extending another one",
		Long: `New creates DIR/NAME/theme.yaml extending the base theme, and a copy of
the base typst document template to edit. Every other template is
inherited until a file with the same name is added.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("dir") {
				dir = env.Config.Themes.Path
			}
			if dir == "" {
				dir = defaultThemeDir
			}

			// The configured path may not exist before the first theme.
			customPath := env.Config.Themes.Path
			if info, err := os.Stat(customPath); err != nil || !info.IsDir() {
				customPath = ""
			}
			registry, err := themes.NewRegistry(customPath)
			if err != nil {
				return fmt.Errorf("%w: %w", cv2pdf.ErrInvalidThemePath, err)
			}
			parent, err := registry.Resolve(base)
			if err != nil {
				if errors.Is(err, themes.ErrThemeNotFound) {
					return fmt.Errorf("%w%s", err, hints.ForUnknownTheme(registry.Names()))
				}
				return err
			}

			root, err := themes.Scaffold(dir, args[0], parent)
			if err != nil {
				return err
			}
			g.infof(env.Stdout, "Created %s\n", root)
			g.infof(env.Stdout, "Use it with: design.theme: %s and --themes %s\n", args[0], dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "from", themes.DefaultThemeName, "theme to extend")
	cmd.Flags().StringVar(&dir, "dir", "", "directory holding custom themes (default: configured theme path, or ./themes)")
	return cmd
}
