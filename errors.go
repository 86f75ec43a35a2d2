package cv2pdf

import (
	"errors"

	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/markup"
	"github.com/alnah/go-cv2pdf/internal/model"
	"github.com/alnah/go-cv2pdf/internal/render"
	"github.com/alnah/go-cv2pdf/internal/themes"
)

// Sentinel errors for library operations.
var (
	ErrEmptyInput = errors.New("CV input cannot be empty")
	ErrInternal   = errors.New("internal error")

	// Input errors. Validation failures are reported as *ValidationErrors,
	// each of which matches ErrValidation.
	ErrInvalidInput   = model.ErrInvalidInput
	ErrValidation     = diag.ErrValidation
	ErrUnknownGrammar = markup.ErrUnknownGrammar

	// ErrRenderIntegrity marks a theme defect found while rendering a valid
	// document. It is never caused by CV content.
	ErrRenderIntegrity = render.ErrIntegrity

	// Theme errors.
	ErrInvalidThemePath = errors.New("invalid theme path")
	ErrThemeNotFound    = themes.ErrThemeNotFound

	// Compiler errors.
	ErrUnsupportedGrammar = errors.New("grammar not supported by compiler")
	ErrCompilerNotFound   = errors.New("typst compiler not found")
	ErrCompile            = errors.New("compilation failed")
	ErrRasterize          = errors.New("rasterization failed")

	// Browser errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrScreenshot     = errors.New("page screenshot failed")
)
