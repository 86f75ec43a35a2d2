// Package markup knows the three output grammars: typst source, Markdown
// and HTML. It escapes user text for each of them and converts the small
// inline rich-text syntax allowed in CV fields (bold, italic, links, code)
// into the equivalent syntax of a grammar.
package markup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGrammar indicates a grammar name outside the supported set.
var ErrUnknownGrammar = errors.New("unknown output grammar")

// Grammar identifies an output text format.
type Grammar string

const (
	Typst    Grammar = "typst"
	Markdown Grammar = "markdown"
	HTML     Grammar = "html"
)

// Grammars returns every supported grammar in rendering order.
func Grammars() []Grammar {
	return []Grammar{Typst, Markdown, HTML}
}

// ParseGrammar resolves a grammar name, accepting the file extensions
// "typ", "md" and "htm" as aliases.
func ParseGrammar(s string) (Grammar, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "typst", "typ":
		return Typst, nil
	case "markdown", "md":
		return Markdown, nil
	case "html", "htm":
		return HTML, nil
	}
	return "", fmt.Errorf("%w: %q (supported: typst, markdown, html)", ErrUnknownGrammar, s)
}

// Extension returns the file extension of g, with the leading dot.
func (g Grammar) Extension() string {
	switch g {
	case Typst:
		return ".typ"
	case Markdown:
		return ".md"
	case HTML:
		return ".html"
	}
	return ".txt"
}

func (g Grammar) String() string { return string(g) }
