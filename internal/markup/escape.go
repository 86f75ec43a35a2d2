package markup

import (
	"html"
	"strings"
	"unicode/utf8"
)

// typstSpecial are the characters with a meaning in typst markup mode.
// Quotes are included so typst does not turn them into smart quotes.
const typstSpecial = "\\#$*_`<>@[]~=-+/'\""

// markdownSpecial are the CommonMark punctuation characters that can start
// inline or block syntax mid-line or after a list marker. '=' underlines a
// setext heading.
const markdownSpecial = "\\`*_[]<>#!|~&-+="

// escaper backslash-escapes special everywhere. A digit run at the start
// of a line followed by one of markers is an enumeration, so the marker is
// escaped too. With dotRuns, dots next to another dot are escaped to keep
// typst from reading "..." as an ellipsis.
type escaper struct {
	special string
	markers string
	dotRuns bool
}

var (
	typstEscaper    = escaper{special: typstSpecial, markers: ".", dotRuns: true}
	markdownEscaper = escaper{special: markdownSpecial, markers: ".)"}
)

// unescapable lists every character escape may prefix with a backslash.
func (e escaper) unescapable() string {
	if e.dotRuns {
		return e.special + e.markers + "."
	}
	return e.special + e.markers
}

// Escape makes s safe to embed as literal text in g. Typst and Markdown
// control characters are backslash-escaped; HTML uses entity references.
func Escape(g Grammar, s string) string {
	switch g {
	case Typst:
		return typstEscaper.escape(s)
	case Markdown:
		return markdownEscaper.escape(s)
	default:
		return html.EscapeString(s)
	}
}

// Unescape reverses Escape.
func Unescape(g Grammar, s string) string {
	switch g {
	case Typst:
		return backslashUnescape(s, typstEscaper.unescapable())
	case Markdown:
		return backslashUnescape(s, markdownEscaper.unescapable())
	default:
		return html.UnescapeString(s)
	}
}

// EscapeLiteral makes s safe inside a quoted value of g: a typst string
// literal, an HTML attribute, or a Markdown <destination>.
func EscapeLiteral(g Grammar, s string) string {
	switch g {
	case Typst:
		r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
		return r.Replace(s)
	case Markdown:
		r := strings.NewReplacer(`\`, `\\`, "<", `\<`, ">", `\>`, "\n", " ")
		return r.Replace(s)
	default:
		return html.EscapeString(s)
	}
}

func (e escaper) escape(s string) string {
	if !strings.ContainsAny(s, e.unescapable()) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	lineStart := true
	for i := 0; i < len(s); {
		if lineStart && isDigit(s[i]) {
			j := i
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			b.WriteString(s[i:j])
			if j < len(s) && strings.IndexByte(e.markers, s[j]) >= 0 {
				b.WriteByte('\\')
				b.WriteByte(s[j])
				j++
			}
			i = j
			lineStart = false
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '\n':
			lineStart = true
		case ' ', '\t', '\r':
		default:
			lineStart = false
		}
		switch {
		case r < utf8.RuneSelf && strings.ContainsRune(e.special, r):
			b.WriteByte('\\')
		case r == '.' && e.dotRuns && adjacentDot(s, i):
			b.WriteByte('\\')
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func adjacentDot(s string, i int) bool {
	return (i > 0 && s[i-1] == '.') || (i+1 < len(s) && s[i+1] == '.')
}

func backslashUnescape(s, special string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(special, s[i+1]) >= 0 {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
