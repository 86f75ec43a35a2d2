// Package cv2pdf renders a YAML curriculum vitae to typst, markdown and
// HTML through a theme, and compiles the result to PDF and PNG.
//
// # Quick Start
//
// Create a converter, convert a CV, and close when done:
//
//	conv, err := cv2pdf.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, cv2pdf.Input{
//	    YAML: data,
//	    PDF:  true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("cv.pdf", result.PDF, 0644)
//
// The result holds every rendered text artifact (result.Artifacts) next to
// the compiled bytes. Omit PDF and PNG to render text only; no external
// tool is needed then.
//
// # Conversion Pipeline
//
//  1. YAML parsing, keeping the order of sections and entries
//  2. Schema check of the document shape
//  3. Field validation (email, phone, URL, dates, colors, dimensions),
//     reporting every problem at once as ValidationErrors
//  4. Rendering of each grammar through the theme's templates
//  5. Compilation via the typst CLI or headless Chrome (go-rod)
//
// # Input
//
//	cv:
//	  name: Jane Doe
//	  email: jane@example.com
//	  sections:
//	    experience:
//	      - company: ACME
//	        position: Engineer
//	        start_date: 2021-03
//	        end_date: present
//	design:
//	  theme: classic
//	locale:
//	  language: de
//
// Sample returns a complete example.
//
// # Themes
//
// A theme is a directory holding theme.yaml and one template per grammar
// and entry variant. A theme may extend another and override only some
// templates and options:
//
//	themes/
//	└── mine/
//	    ├── theme.yaml        # name, extends, options
//	    └── typst/
//	        └── document.tmpl
//
// Use WithThemePath to make such themes available; they take precedence
// over the built-ins default, classic and compact.
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool to share converters, and their
// browsers, across goroutines:
//
//	pool := cv2pdf.NewConverterPool(cv2pdf.ResolvePoolSize(0))
//	defer pool.Close()
//
//	conv, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
//
// # External Tools
//
// PDF and PNG output from typst requires the typst CLI in PATH, or set
// with WithTypstBinary. Output from HTML requires Chrome/Chromium; go-rod
// downloads a managed Chromium on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
//
// # Command Line
//
// The cv2pdf command (cmd/cv2pdf) wraps this package: render, validate,
// new, themes list/new and doctor.
package cv2pdf
