package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	cv2pdf "github.com/alnah/go-cv2pdf"
	"github.com/alnah/go-cv2pdf/internal/fileutil"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// RenderOutcome holds the result of rendering a single CV.
type RenderOutcome struct {
	InputPath  string
	Written    []string
	Warnings   []cv2pdf.Warning
	CompileLog string
	Err        error
	Duration   time.Duration
}

// batchError reports that some CVs failed. Each failure has already been
// printed; Unwrap exposes the first one for the exit code.
type batchError struct {
	failed int
	total  int
	first  error
}

func (e *batchError) Error() string {
	if e.total == 1 {
		return "rendering failed"
	}
	return fmt.Sprintf("%d of %d CVs failed", e.failed, e.total)
}

func (e *batchError) Unwrap() error { return e.first }

// renderBatch processes files concurrently using the converter pool.
// Results keep the order of files.
func renderBatch(ctx context.Context, pool Pool, files []cvFile, plan renderPlan) []RenderOutcome {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]RenderOutcome, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire()
			if err != nil {
				// Converter creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = RenderOutcome{InputPath: files[idx].InputPath, Err: err}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = RenderOutcome{InputPath: files[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = renderFile(ctx, conv, files[idx], plan)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// renderFile converts one CV and writes its artifacts.
func renderFile(ctx context.Context, conv CLIConverter, f cvFile, plan renderPlan) (outcome RenderOutcome) {
	start := time.Now()
	outcome.InputPath = f.InputPath
	defer func() { outcome.Duration = time.Since(start) }()

	data, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		outcome.Err = fmt.Errorf("%w: %w", ErrReadInput, err)
		return outcome
	}

	result, err := conv.Convert(ctx, plan.input(data))
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Warnings = result.Warnings
	outcome.CompileLog = result.CompileLog

	if err := os.MkdirAll(filepath.Dir(f.OutputBase), dirPermissions); err != nil {
		outcome.Err = fmt.Errorf("%w: %w", ErrOutputDir, err)
		return outcome
	}

	outcome.Written, outcome.Err = writeArtifacts(f.OutputBase, result, plan.grammars)
	return outcome
}

// writeArtifacts writes the requested grammars, the PDF and the PNG pages
// next to base. A single page is written as base.png, several as
// base-1.png, base-2.png and so on.
func writeArtifacts(base string, result *cv2pdf.Result, grammars []cv2pdf.Grammar) ([]string, error) {
	type artifact struct {
		path string
		data []byte
	}

	var out []artifact
	for _, g := range grammars {
		out = append(out, artifact{base + g.Extension(), []byte(result.Artifacts[g])})
	}
	if result.PDF != nil {
		out = append(out, artifact{base + ".pdf", result.PDF})
	}
	for i, page := range result.PNG {
		path := base + ".png"
		if len(result.PNG) > 1 {
			path = base + "-" + strconv.Itoa(i+1) + ".png"
		}
		out = append(out, artifact{path, page})
	}

	written := make([]string, 0, len(out))
	for _, a := range out {
		if err := fileutil.WriteFileAtomic(a.path, a.data, filePermissions); err != nil {
			return written, fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		written = append(written, a.path)
	}
	return written, nil
}

// reportResults prints each outcome and returns a *batchError when any
// CV failed.
func reportResults(results []RenderOutcome, g *globalFlags, env *Environment) error {
	var failed []RenderOutcome

	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err))
			continue
		}

		if !g.quiet {
			for _, w := range r.Warnings {
				fmt.Fprintf(env.Stderr, "warning: %s: %s\n", r.InputPath, w)
			}
		}
		if g.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, strings.Join(r.Written, ", "), r.Duration.Round(time.Millisecond))
			if r.CompileLog != "" {
				fmt.Fprintf(env.Stderr, "%s: compiler output:\n%s\n", r.InputPath, r.CompileLog)
			}
			continue
		}
		for _, path := range r.Written {
			g.infof(env.Stdout, "Created %s\n", path)
		}
	}

	if len(results) > 1 {
		g.infof(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-len(failed), len(failed))
	}

	if len(failed) == 0 {
		return nil
	}
	return &batchError{failed: len(failed), total: len(results), first: failed[0].Err}
}
