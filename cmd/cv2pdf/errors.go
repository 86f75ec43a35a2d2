package main

import (
	"context"
	"errors"

	cv2pdf "github.com/alnah/go-cv2pdf"
	"github.com/alnah/go-cv2pdf/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage            = errors.New("invalid usage")
	ErrEnvFile          = errors.New("failed to read env file")
	ErrNoInput          = errors.New("no CV files found")
	ErrInvalidExtension = errors.New("file must have .yaml or .yml extension")
	ErrReadInput        = errors.New("failed to read CV file")
	ErrWriteOutput      = errors.New("failed to write output")
	ErrOutputDir        = errors.New("failed to create output directory")
	ErrAborted          = errors.New("aborted")
	ErrNotReady         = errors.New("environment not ready")
)

// hintFor returns the hints matching err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, cv2pdf.ErrCompilerNotFound):
		return hints.ForTypstNotFound()
	case errors.Is(err, cv2pdf.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, cv2pdf.ErrInvalidThemePath):
		return hints.ForThemePath()
	case errors.Is(err, ErrOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, cv2pdf.ErrValidation), errors.Is(err, cv2pdf.ErrInvalidInput):
		return hints.ForValidation()
	}
	return ""
}
