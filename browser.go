package cv2pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-cv2pdf/internal/fileutil"
	"github.com/alnah/go-cv2pdf/internal/process"
)

// BrowserCompiler prints HTML sources to PDF and PNG with headless Chrome
// via go-rod. Rod downloads Chromium on first run if none is found.
//
// The browser starts on first use and is shared by concurrent calls; each
// call opens its own page. Call Close to stop the browser.
type BrowserCompiler struct {
	timeout time.Duration

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowserCompiler creates a compiler whose page loads wait at most
// timeout unless the context has an earlier deadline.
func NewBrowserCompiler(timeout time.Duration) *BrowserCompiler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &BrowserCompiler{timeout: timeout}
}

// Compile prints an HTML source to PDF. Page size and margins come from
// the source's CSS @page rule.
func (b *BrowserCompiler) Compile(ctx context.Context, source string, g Grammar) (*CompileResult, error) {
	if g != HTML {
		return nil, fmt.Errorf("%w: browser cannot compile %s", ErrUnsupportedGrammar, g)
	}

	page, cleanup, err := b.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return &CompileResult{PDF: pdf}, nil
}

// Rasterize captures an HTML source as a single full-page PNG. A browser
// has no page breaks on screen, so the result always holds one image.
func (b *BrowserCompiler) Rasterize(ctx context.Context, source string, g Grammar) ([][]byte, error) {
	if g != HTML {
		return nil, fmt.Errorf("%w: browser cannot rasterize %s", ErrUnsupportedGrammar, g)
	}

	page, cleanup, err := b.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	img, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
	}
	return [][]byte{img}, nil
}

// open writes source to a temporary file and loads it in a new page.
// The cleanup function closes the page and removes the file.
func (b *BrowserCompiler) open(ctx context.Context, source string) (*rod.Page, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	browser, err := b.ensureBrowser()
	if err != nil {
		return nil, nil, err
	}

	path, removeFile, err := fileutil.WriteTempFile(source, "html")
	if err != nil {
		return nil, nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		removeFile()
		return nil, nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	cleanup := func() {
		_ = page.Close()
		removeFile()
	}

	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			cleanup()
			return nil, nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		cleanup()
		return nil, nil, err
	}
	return page, cleanup, nil
}

// ensureBrowser lazily launches and connects to the browser.
func (b *BrowserCompiler) ensureBrowser() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b.launcher = l
	b.browser = browser
	return browser, nil
}

// Close stops the browser and its child processes. It is safe to call
// more than once, and on a compiler that never started a browser.
func (b *BrowserCompiler) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}

	err := b.browser.Close()
	if pid := b.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	b.launcher.Kill()

	b.browser = nil
	b.launcher = nil
	return err
}
