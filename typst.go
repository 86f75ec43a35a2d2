package cv2pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-cv2pdf/internal/process"
)

const (
	defaultTypstBinary = "typst"
	defaultPPI         = 144

	// typstWaitDelay bounds how long Wait blocks on the output pipes after
	// the process group was killed.
	typstWaitDelay = 2 * time.Second

	typstSource = "main.typ"
	typstPDF    = "out.pdf"
	pagePrefix  = "page-"
)

// TypstCompiler compiles typst sources with the typst CLI. Each call runs
// in a fresh temporary directory, so a TypstCompiler is safe for
// concurrent use. Cancelling the context kills the compiler's whole
// process group.
type TypstCompiler struct {
	// Binary is the typst executable, looked up in PATH. Empty means "typst".
	Binary string

	// FontPaths are extra font directories passed with --font-path.
	FontPaths []string

	// PPI is the resolution of rasterized pages. Zero means 144.
	PPI int
}

// NewTypstCompiler creates a compiler for the given executable.
func NewTypstCompiler(binary string) *TypstCompiler {
	return &TypstCompiler{Binary: binary}
}

// Compile compiles a typst source to PDF. The compiler's warnings are
// returned in CompileResult.Log.
func (c *TypstCompiler) Compile(ctx context.Context, source string, g Grammar) (*CompileResult, error) {
	if g != Typst {
		return nil, fmt.Errorf("%w: typst compiler cannot compile %s", ErrUnsupportedGrammar, g)
	}

	dir, cleanup, err := typstWorkspace(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	defer cleanup()

	log, err := c.run(ctx, dir, ErrCompile, typstSource, typstPDF)
	if err != nil {
		return nil, err
	}

	pdf, err := os.ReadFile(filepath.Join(dir, typstPDF)) // #nosec G304 -- path inside our temp dir
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrCompile, err)
	}
	return &CompileResult{PDF: pdf, Log: log}, nil
}

// Rasterize compiles a typst source to one PNG per page, in page order.
func (c *TypstCompiler) Rasterize(ctx context.Context, source string, g Grammar) ([][]byte, error) {
	if g != Typst {
		return nil, fmt.Errorf("%w: typst compiler cannot rasterize %s", ErrUnsupportedGrammar, g)
	}

	dir, cleanup, err := typstWorkspace(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	defer cleanup()

	ppi := c.PPI
	if ppi <= 0 {
		ppi = defaultPPI
	}
	_, err = c.run(ctx, dir, ErrRasterize,
		"--format", "png", "--ppi", strconv.Itoa(ppi), typstSource, pagePrefix+"{p}.png")
	if err != nil {
		return nil, err
	}

	return readPages(dir)
}

// run executes "typst compile" with args in dir and returns its output.
// Failures wrap sentinel.
func (c *TypstCompiler) run(ctx context.Context, dir string, sentinel error, args ...string) (string, error) {
	name := c.Binary
	if name == "" {
		name = defaultTypstBinary
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrCompilerNotFound, name, err)
	}

	full := []string{"compile"}
	for _, p := range c.FontPaths {
		full = append(full, "--font-path", p)
	}
	full = append(full, args...)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, full...) // #nosec G204 -- binary chosen by the caller
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &out
	process.Isolate(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = typstWaitDelay

	runErr := cmd.Run()
	log := strings.TrimSpace(out.String())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return log, fmt.Errorf("%w: %w", sentinel, ctxErr)
	}
	if runErr != nil {
		if log == "" {
			log = runErr.Error()
		}
		return log, fmt.Errorf("%w: %s", sentinel, log)
	}
	return log, nil
}

// typstWorkspace writes source into a fresh temporary directory.
func typstWorkspace(source string) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "cv2pdf-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	if err := os.WriteFile(filepath.Join(dir, typstSource), []byte(source), 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("writing source: %w", err)
	}
	return dir, cleanup, nil
}

// readPages reads the page-N.png files of dir ordered by N. Typst pads N
// with zeros only when there are ten pages or more, so names are not
// sorted lexically.
func readPages(dir string) ([][]byte, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pagePrefix+"*.png"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: compiler produced no pages", ErrRasterize)
	}

	slices.SortFunc(matches, func(a, b string) int {
		return pageNumber(a) - pageNumber(b)
	})

	pages := make([][]byte, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m) // #nosec G304 -- path inside our temp dir
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrRasterize, filepath.Base(m), err)
		}
		pages = append(pages, data)
	}
	return pages, nil
}

// pageNumber extracts N from ".../page-N.png"; unparsable names sort first.
func pageNumber(path string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), pagePrefix), ".png")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
