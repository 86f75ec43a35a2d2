package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"

	"github.com/alnah/go-cv2pdf/internal/hints"
	"github.com/alnah/go-cv2pdf/internal/markup"
	"github.com/alnah/go-cv2pdf/internal/themes"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// versionTimeout bounds each "--version" call.
const versionTimeout = 5 * time.Second

// doctorReport holds all diagnostic information.
type doctorReport struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Typst    toolInfo    `json:"typst"`
	Browser  browserInfo `json:"browser"`
	Themes   themesInfo  `json:"themes"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// toolInfo describes an external program. Required is set when the
// configured compile source needs it.
type toolInfo struct {
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
}

type browserInfo struct {
	toolInfo
	Sandbox bool `json:"sandbox"`
}

type themesInfo struct {
	Path   string   `json:"path,omitempty"`
	Custom []string `json:"custom,omitempty"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

type systemInfo struct {
	TempWritable bool     `json:"temp_writable"`
	FontPaths    []string `json:"font_paths,omitempty"`
}

func newDoctorCmd(env *Environment) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check typst, Chrome and custom themes",
		Long: `Doctor reports whether the tools needed for PDF and PNG output are
installed. The compiler for the configured source (typst by default, Chrome
with --from html) is required; the other one only draws a warning.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := runDoctor(cmd.Context(), env)

			if jsonOutput {
				enc := json.NewEncoder(env.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("%w: %v", ErrWriteOutput, err)
				}
			} else {
				printDoctorReport(env.Stdout, report)
			}

			if report.Status == statusErrors {
				return fmt.Errorf("%w: %d problem(s) found", ErrNotReady, len(report.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	return cmd
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, env *Environment) *doctorReport {
	noSandbox, _ := env.lookup("ROD_NO_SANDBOX")
	browserBin, _ := env.lookup("ROD_BROWSER_BIN")
	r := &doctorReport{
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  noSandbox,
			BrowserBin: browserBin,
		},
	}

	fromHTML := env.Config.Compile.From == string(markup.HTML)
	checkTypst(ctx, env, r, !fromHTML)
	checkBrowser(ctx, r, fromHTML)
	checkThemes(env, r)
	checkEnvironment(env, r)
	checkSystem(env, r)

	switch {
	case len(r.Errors) > 0:
		r.Status = statusErrors
	case len(r.Warnings) > 0:
		r.Status = statusWarnings
	default:
		r.Status = statusReady
	}
	return r
}

// problem records msg as an error when required, as a warning otherwise.
func (r *doctorReport) problem(required bool, msg string) {
	if required {
		r.Errors = append(r.Errors, msg)
	} else {
		r.Warnings = append(r.Warnings, msg)
	}
}

func checkTypst(ctx context.Context, env *Environment, r *doctorReport, required bool) {
	r.Typst.Required = required

	bin := env.Config.Compile.TypstBinary
	if bin == "" {
		bin = "typst"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		r.problem(required, fmt.Sprintf("typst not found (%s)", bin))
		return
	}
	r.Typst.Found = true
	r.Typst.Path = path

	if v, err := toolVersion(ctx, path); err == nil {
		r.Typst.Version = v
	} else {
		r.Warnings = append(r.Warnings, fmt.Sprintf("could not get typst version: %v", err))
	}
}

func checkBrowser(ctx context.Context, r *doctorReport, required bool) {
	r.Browser.Required = required

	path := r.Env.BrowserBin
	if path == "" {
		var found bool
		path, found = launcher.LookPath()
		if !found {
			r.problem(required, "Chrome/Chromium not found; install it or set ROD_BROWSER_BIN")
			return
		}
	}
	if _, err := os.Stat(path); err != nil {
		r.problem(required, fmt.Sprintf("Chrome not found at %s", path))
		return
	}
	r.Browser.Found = true
	r.Browser.Path = path
	r.Browser.Sandbox = r.Env.NoSandbox != "1"

	if v, err := toolVersion(ctx, path); err == nil {
		r.Browser.Version = v
	} else {
		r.Warnings = append(r.Warnings, fmt.Sprintf("could not get Chrome version: %v", err))
	}
}

// checkThemes loads the configured theme directory and every custom theme
// in it, so broken manifests show up before a render.
func checkThemes(env *Environment, r *doctorReport) {
	path := env.Config.Themes.Path
	if path == "" {
		return
	}
	r.Themes.Path = path

	registry, err := themes.NewRegistry(path)
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("theme path: %v", err))
		return
	}
	names, err := registry.CustomNames()
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("theme path: %v", err))
		return
	}
	r.Themes.Custom = names
	for _, name := range names {
		if _, err := registry.Resolve(name); err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("theme %s: %v", name, err))
		}
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(env *Environment, r *doctorReport) {
	r.Env.Container, r.Env.ContainerHint = detectContainer(env)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if val, _ := env.lookup(v); val != "" {
			r.Env.CI = true
			break
		}
	}

	if (r.Env.Container || r.Env.CI) && r.Env.NoSandbox != "1" && r.Browser.Found {
		r.Warnings = append(r.Warnings, "container/CI detected but ROD_NO_SANDBOX not set; set ROD_NO_SANDBOX=1")
	}
}

// detectContainer returns whether cv2pdf runs in a container and which
// signal said so. Variables win over the /.dockerenv marker.
func detectContainer(env *Environment) (bool, string) {
	if v, _ := env.lookup("CV2PDF_CONTAINER"); v == "1" {
		return true, "CV2PDF_CONTAINER=1"
	}
	if v, _ := env.lookup("container"); v != "" {
		return true, "container=" + v
	}
	if v, _ := env.lookup("KUBERNETES_SERVICE_HOST"); v != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	return false, ""
}

func checkSystem(env *Environment, r *doctorReport) {
	f, err := os.CreateTemp("", "cv2pdf-doctor-*")
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("temp directory not writable: %s", os.TempDir()))
	} else {
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		r.System.TempWritable = true
	}

	for _, p := range env.Config.Compile.FontPaths {
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			r.Warnings = append(r.Warnings, fmt.Sprintf("font path %s is not a directory", p))
			continue
		}
		r.System.FontPaths = append(r.System.FontPaths, p)
	}
}

func toolVersion(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// printDoctorReport outputs human-readable diagnostic results.
func printDoctorReport(w io.Writer, r *doctorReport) {
	fmt.Fprintln(w, "cv2pdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "typst")
	printTool(w, r.Typst, "needed for --from typst")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	printTool(w, r.Browser.toolInfo, "needed for --from html")
	if r.Browser.Found {
		if r.Browser.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	}
	fmt.Fprintln(w)

	if r.Themes.Path != "" {
		fmt.Fprintln(w, "Themes")
		fmt.Fprintf(w, "  [OK] Path: %s\n", r.Themes.Path)
		if len(r.Themes.Custom) > 0 {
			fmt.Fprintf(w, "  [OK] Custom: %s\n", strings.Join(r.Themes.Custom, ", "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		var hint string
		switch {
		case r.Typst.Required && !r.Typst.Found:
			hint = hints.ForTypstNotFound()
		case r.Browser.Required && !r.Browser.Found:
			hint = hints.ForBrowserConnect()
		}
		if hint != "" {
			fmt.Fprintln(w, strings.TrimPrefix(hint, "\n"))
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to render")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

func printTool(w io.Writer, t toolInfo, purpose string) {
	if !t.Found {
		if t.Required {
			fmt.Fprintln(w, "  [ERROR] Not found")
		} else {
			fmt.Fprintf(w, "  [WARN] Not found (%s)\n", purpose)
		}
		return
	}
	fmt.Fprintf(w, "  [OK] Found at %s\n", t.Path)
	if t.Version != "" {
		fmt.Fprintf(w, "  [OK] Version: %s\n", t.Version)
	}
}
