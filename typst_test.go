package cv2pdf

// Notes:
// - The typst CLI is replaced by a shell script written to t.TempDir(), so
//   these tests check argument passing, output collection and process
//   cleanup without a real typst install. They are skipped on Windows.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestTypstCompiler - Compile
// ---------------------------------------------------------------------------

func TestTypstCompiler_Compile(t *testing.T) {
	t.Parallel()

	// Writes its arguments as the PDF body so the test can inspect them.
	bin := fakeTypst(t, `
for a; do out="$a"; done
echo "warning: font not found" >&2
printf '%s ' "$@" > "$out"
`)
	c := NewTypstCompiler(bin)
	c.FontPaths = []string{"/fonts/a", "/fonts/b"}

	res, err := c.Compile(context.Background(), "= Hello", Typst)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	args := string(res.PDF)
	for _, want := range []string{"compile ", "--font-path /fonts/a", "--font-path /fonts/b", "main.typ out.pdf"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
	if res.Log != "warning: font not found" {
		t.Errorf("Log = %q, want compiler stderr", res.Log)
	}
}

func TestTypstCompiler_CompileReceivesSource(t *testing.T) {
	t.Parallel()

	bin := fakeTypst(t, `
for a; do out="$a"; done
cp main.typ "$out"
`)

	res, err := NewTypstCompiler(bin).Compile(context.Background(), "#set page(\"a4\")\n= Ünïcode", Typst)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if string(res.PDF) != "#set page(\"a4\")\n= Ünïcode" {
		t.Errorf("source seen by compiler = %q", res.PDF)
	}
}

func TestTypstCompiler_CompileFailure(t *testing.T) {
	t.Parallel()

	bin := fakeTypst(t, `
echo "error: unknown variable: foo" >&2
exit 1
`)

	_, err := NewTypstCompiler(bin).Compile(context.Background(), "#foo", Typst)
	if !errors.Is(err, ErrCompile) {
		t.Fatalf("Compile() error = %v, want ErrCompile", err)
	}
	if !strings.Contains(err.Error(), "unknown variable: foo") {
		t.Errorf("error %q does not carry compiler output", err)
	}
}

func TestTypstCompiler_NotFound(t *testing.T) {
	t.Parallel()

	c := NewTypstCompiler(filepath.Join(t.TempDir(), "no-typst"))
	_, err := c.Compile(context.Background(), "", Typst)
	if !errors.Is(err, ErrCompilerNotFound) {
		t.Fatalf("Compile() error = %v, want ErrCompilerNotFound", err)
	}
}

func TestTypstCompiler_UnsupportedGrammar(t *testing.T) {
	t.Parallel()

	c := NewTypstCompiler("")
	for _, g := range []Grammar{Markdown, HTML} {
		if _, err := c.Compile(context.Background(), "", g); !errors.Is(err, ErrUnsupportedGrammar) {
			t.Errorf("Compile(%s) error = %v, want ErrUnsupportedGrammar", g, err)
		}
		if _, err := c.Rasterize(context.Background(), "", g); !errors.Is(err, ErrUnsupportedGrammar) {
			t.Errorf("Rasterize(%s) error = %v, want ErrUnsupportedGrammar", g, err)
		}
	}
}

func TestTypstCompiler_Timeout(t *testing.T) {
	t.Parallel()

	// The child sleep must die with the shell for Run to return in time.
	bin := fakeTypst(t, `
sleep 30 &
wait
`)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewTypstCompiler(bin).Compile(ctx, "", Typst)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Compile() error = %v, want context.DeadlineExceeded", err)
	}
	if !errors.Is(err, ErrCompile) {
		t.Errorf("Compile() error = %v, want ErrCompile", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Compile() returned after %v, process group not killed", elapsed)
	}
}

// ---------------------------------------------------------------------------
// TestTypstCompiler - Rasterize
// ---------------------------------------------------------------------------

func TestTypstCompiler_RasterizeOrdersPages(t *testing.T) {
	t.Parallel()

	// Eleven pages: lexical order would put page-10 before page-2.
	bin := fakeTypst(t, `
for a; do out="$a"; done
i=1
while [ $i -le 11 ]; do
  printf 'page %d' $i > "$(echo "$out" | sed "s/{p}/$i/")"
  i=$((i+1))
done
`)
	c := NewTypstCompiler(bin)
	c.PPI = 300

	pages, err := c.Rasterize(context.Background(), "", Typst)
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if len(pages) != 11 {
		t.Fatalf("len(pages) = %d, want 11", len(pages))
	}
	for i, p := range pages {
		if want := "page " + strconv.Itoa(i+1); string(p) != want {
			t.Errorf("pages[%d] = %q, want %q", i, p, want)
		}
	}
}

func TestTypstCompiler_RasterizePassesFormat(t *testing.T) {
	t.Parallel()

	bin := fakeTypst(t, `
for a; do out="$a"; done
printf '%s ' "$@" > "$(echo "$out" | sed 's/{p}/1/')"
`)
	c := NewTypstCompiler(bin)

	pages, err := c.Rasterize(context.Background(), "", Typst)
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if args := string(pages[0]); !strings.Contains(args, "--format png --ppi 144") {
		t.Errorf("args %q missing png format and default ppi", args)
	}
}

func TestTypstCompiler_RasterizeNoPages(t *testing.T) {
	t.Parallel()

	bin := fakeTypst(t, "exit 0\n")

	_, err := NewTypstCompiler(bin).Rasterize(context.Background(), "", Typst)
	if !errors.Is(err, ErrRasterize) {
		t.Fatalf("Rasterize() error = %v, want ErrRasterize", err)
	}
}

func TestPageNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want int
	}{
		{"/tmp/x/page-1.png", 1},
		{"/tmp/x/page-07.png", 7},
		{"page-12.png", 12},
		{"page-x.png", 0},
	}

	for _, tt := range tests {
		if got := pageNumber(tt.path); got != tt.want {
			t.Errorf("pageNumber(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fakeTypst writes an executable shell script standing in for typst.
func fakeTypst(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake typst is a shell script")
	}

	path := filepath.Join(t.TempDir(), "typst")
	// #nosec G306 -- test script must be executable
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o700); err != nil {
		t.Fatal(err)
	}
	return path
}
