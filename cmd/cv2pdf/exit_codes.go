package main

import (
	"context"
	"errors"
	"os"

	cv2pdf "github.com/alnah/go-cv2pdf"
	"github.com/alnah/go-cv2pdf/internal/config"
	"github.com/alnah/go-cv2pdf/internal/themes"
)

// Exit codes for the cv2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // All files converted
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or CV validation
	ExitIO       = 3 // File not found, permission denied
	ExitCompiler = 4 // typst or Chrome errors
	ExitInternal = 5 // Theme defect or recovered panic
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, cv2pdf.ErrRenderIntegrity) ||
		errors.Is(err, cv2pdf.ErrInternal) {
		return ExitInternal
	}

	if errors.Is(err, cv2pdf.ErrCompilerNotFound) ||
		errors.Is(err, cv2pdf.ErrCompile) ||
		errors.Is(err, cv2pdf.ErrRasterize) ||
		errors.Is(err, cv2pdf.ErrBrowserConnect) ||
		errors.Is(err, cv2pdf.ErrPageCreate) ||
		errors.Is(err, cv2pdf.ErrPageLoad) ||
		errors.Is(err, cv2pdf.ErrPDFGeneration) ||
		errors.Is(err, cv2pdf.ErrScreenshot) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitCompiler
	}

	// Checked before I/O: an invalid theme path wraps os.ErrNotExist.
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrEnvFile) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, cv2pdf.ErrEmptyInput) ||
		errors.Is(err, cv2pdf.ErrInvalidInput) ||
		errors.Is(err, cv2pdf.ErrValidation) ||
		errors.Is(err, cv2pdf.ErrUnknownGrammar) ||
		errors.Is(err, cv2pdf.ErrUnsupportedGrammar) ||
		errors.Is(err, cv2pdf.ErrInvalidThemePath) ||
		errors.Is(err, cv2pdf.ErrThemeNotFound) ||
		errors.Is(err, themes.ErrInvalidThemeName) ||
		errors.Is(err, themes.ErrThemeExists) {
		return ExitUsage
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrOutputDir) {
		return ExitIO
	}

	return ExitGeneral
}
