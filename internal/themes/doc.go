// Package themes provides the template bundles used to render a CV.
//
// # Registry Architecture
//
// The package implements a layered loading system:
//
//	Source (interface)
//	    │
//	    ├── EmbeddedSource    - built-in themes compiled in with go:embed
//	    └── FilesystemSource  - custom themes in a directory on disk
//
//	Registry                  - built-ins loaded once, custom themes
//	                            discovered on Resolve, custom first
//
// Built-in themes are parsed and checked when the Registry is created.
// Custom themes are looked up at resolution time; a custom theme with the
// name of a built-in one replaces it.
//
// # Directory Structure
//
// A theme is a directory:
//
//	{name}/
//	├── theme.yaml               # manifest: name, version, extends, options
//	├── typst/
//	│   ├── document.tmpl        # document wrapper
//	│   └── {variant}.tmpl       # one fragment per entry variant
//	├── markdown/
//	│   └── ...
//	└── html/
//	    └── ...
//
// A theme may extend another one; files it does not provide are inherited.
// After inheritance every grammar must have a document template and one
// fragment per entry variant, or loading fails with ErrIncompleteTheme.
//
// # Integrity
//
// Templates use text/template with missingkey=error. Every template is
// executed once against sample data when loaded, so a reference to an
// unknown field fails at load time rather than while rendering a CV.
//
// # Security
//
// Theme names are validated to prevent path traversal attacks.
// FilesystemSource resolves symlinks and verifies paths stay within its base.
package themes
