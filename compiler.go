package cv2pdf

import (
	"context"
	"fmt"
)

// Compiler turns a rendered artifact into a PDF.
type Compiler interface {
	Compile(ctx context.Context, source string, g Grammar) (*CompileResult, error)
}

// Rasterizer turns a rendered artifact into one PNG image per page.
type Rasterizer interface {
	Rasterize(ctx context.Context, source string, g Grammar) ([][]byte, error)
}

// CompileResult holds a compiled PDF and the compiler's diagnostics.
type CompileResult struct {
	PDF []byte
	Log string
}

// Compile-time interface implementation checks.
var (
	_ Compiler   = (*TypstCompiler)(nil)
	_ Rasterizer = (*TypstCompiler)(nil)
	_ Compiler   = (*BrowserCompiler)(nil)
	_ Rasterizer = (*BrowserCompiler)(nil)
	_ Compiler   = (*backend)(nil)
	_ Rasterizer = (*backend)(nil)
)

// backend routes typst sources to the typst CLI and HTML sources to
// headless Chrome. Markdown has no compiler.
type backend struct {
	typst   *TypstCompiler
	browser *BrowserCompiler
}

func newBackend(cfg converterConfig) *backend {
	typst := NewTypstCompiler(cfg.typstBinary)
	typst.FontPaths = cfg.fontPaths
	return &backend{
		typst:   typst,
		browser: NewBrowserCompiler(cfg.timeout),
	}
}

func (b *backend) Compile(ctx context.Context, source string, g Grammar) (*CompileResult, error) {
	switch g {
	case Typst:
		return b.typst.Compile(ctx, source, g)
	case HTML:
		return b.browser.Compile(ctx, source, g)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedGrammar, g)
}

func (b *backend) Rasterize(ctx context.Context, source string, g Grammar) ([][]byte, error) {
	switch g {
	case Typst:
		return b.typst.Rasterize(ctx, source, g)
	case HTML:
		return b.browser.Rasterize(ctx, source, g)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedGrammar, g)
}

// Close releases the browser, if one was started.
func (b *backend) Close() error {
	return b.browser.Close()
}
