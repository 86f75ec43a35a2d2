package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	cv2pdf "github.com/alnah/go-cv2pdf"
	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/fileutil"
	"github.com/alnah/go-cv2pdf/internal/yamlutil"
)

const defaultCVFile = "cv.yaml"

func newNewCmd(env *Environment, g *globalFlags) *cobra.Command {
	var (
		force       bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "new [FILE]",
		Short: "Write a sample CV to start from",
		Long: `New writes a complete sample CV (default cv.yaml) using every section
type. With --interactive it asks for your name, contact details, theme
and language first.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultCVFile
			if len(args) == 1 {
				path = args[0]
			}
			ctx := cmd.Context()

			if fileutil.FileExists(path) && !force {
				if !interactive {
					return fmt.Errorf("%w: %s already exists (use --force to overwrite)", ErrUsage, path)
				}
				ok, err := env.Prompter.Confirm(ctx, ConfirmConfig{Message: path + " exists. Overwrite?"})
				if err != nil {
					return err
				}
				if !ok {
					return ErrAborted
				}
			}

			data := cv2pdf.Sample()
			if interactive {
				conv, err := cv2pdf.NewConverter(converterOptions(env)...)
				if err != nil {
					return err
				}
				defer func() { _ = conv.Close() }()

				if data, err = askCV(ctx, env.Prompter, conv, data, env.Config.Fields.PhoneRegion); err != nil {
					return err
				}
				if _, err := conv.Validate(data); err != nil {
					return err
				}
			}

			if err := fileutil.WriteFileAtomic(path, data, filePermissions); err != nil {
				return fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}
			g.infof(env.Stdout, "Created %s\n", path)
			g.infof(env.Stdout, "Next: cv2pdf render %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask for the main fields")
	return cmd
}

// askCV prompts for the identity fields, theme and language, and writes
// the answers into the sample document.
func askCV(ctx context.Context, p Prompter, conv *cv2pdf.Converter, data []byte, phoneRegion string) ([]byte, error) {
	questions := []struct {
		path string
		cfg  InputConfig
	}{
		{"$.cv.name", InputConfig{
			Message:   "Full name:",
			Validator: required,
		}},
		{"$.cv.headline", InputConfig{
			Message: "Headline:",
			Default: "Software Engineer",
		}},
		{"$.cv.email", InputConfig{
			Message: "Email:",
			Validator: func(s string) error {
				_, err := field.Email(s)
				return err
			},
		}},
		{"$.cv.phone", InputConfig{
			Message: "Phone:",
			Help:    "international format, e.g. +33 1 23 45 67 89",
			Validator: func(s string) error {
				_, err := field.Phone(s, phoneRegion)
				return err
			},
		}},
		{"$.cv.location", InputConfig{
			Message:   "Location:",
			Validator: required,
		}},
	}

	for _, q := range questions {
		answer, err := p.Input(ctx, q.cfg)
		if err != nil {
			return nil, err
		}
		if data, err = yamlutil.Replace(data, q.path, answer); err != nil {
			return nil, err
		}
	}

	var themeNames []string
	for _, t := range conv.Themes() {
		themeNames = append(themeNames, t.Name)
	}
	idx, err := p.Select(ctx, SelectConfig{
		Message:      "Theme:",
		Options:      themeNames,
		DefaultIndex: max(slices.Index(themeNames, "default"), 0),
	})
	if err != nil {
		return nil, err
	}
	if data, err = yamlutil.Replace(data, "$.design.theme", themeNames[idx]); err != nil {
		return nil, err
	}

	languages := conv.Languages()
	idx, err = p.Select(ctx, SelectConfig{
		Message: "Language:",
		Options: languages,
	})
	if err != nil {
		return nil, err
	}
	return yamlutil.Replace(data, "$.locale.language", languages[idx])
}

func required(s string) error {
	if s == "" {
		return errors.New("value is required")
	}
	return nil
}
