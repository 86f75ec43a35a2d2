package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"

	cv2pdf "github.com/alnah/go-cv2pdf"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	env := DefaultEnv()

	// Cobra parses flags later; -v is only needed here to decide whether
	// maxprocs may log.
	args := os.Args[1:]
	setMaxProcs(env, slices.Contains(args, "-v") || slices.Contains(args, "--verbose"))

	os.Exit(run(args, env))
}

// setMaxProcs configures GOMAXPROCS for container CPU quotas.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func setMaxProcs(env *Environment, verbose bool) {
	logf := func(string, ...interface{}) {}
	if verbose {
		logf = func(format string, args ...interface{}) {
			fmt.Fprintf(env.Stderr, format+"\n", args...)
		}
	}
	_, _ = maxprocs.Set(maxprocs.Logger(logf))
}

// run executes the command line and returns the process exit code.
func run(args []string, env *Environment) int {
	ctx, stop := notifyContext(context.Background())
	defer stop()

	root := newRootCmd(env)
	root.SetArgs(args)
	root.SetIn(env.Stdin)
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintln(env.Stderr, "error: "+formatError(err))
	return exitCodeFor(err)
}

// formatError renders err for the terminal with its hints. Theme defects
// and recovered panics are flagged as internal errors.
func formatError(err error) string {
	msg := err.Error()

	var batch *batchError
	if errors.As(err, &batch) {
		return msg
	}

	if errors.Is(err, cv2pdf.ErrRenderIntegrity) || errors.Is(err, cv2pdf.ErrInternal) {
		if !strings.HasPrefix(msg, "internal error") {
			msg = "internal error: " + msg
		}
	}
	return msg + hintFor(err)
}
