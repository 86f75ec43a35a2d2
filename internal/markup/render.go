package markup

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// htmlPolicy admits exactly the elements the inline converter emits.
var htmlPolicy = sync.OnceValue(func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong", "em", "code")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto", "tel")
	p.RequireParseableURLs(true)
	return p
})

// Render converts t into g. Text content is escaped for g; links outside
// http, https, mailto and tel never reach the output.
func Render(t Text, g Grammar) string {
	var b strings.Builder
	renderNodes(&b, t.Nodes, g)
	if g == HTML {
		return htmlPolicy().Sanitize(b.String())
	}
	return b.String()
}

// RenderString parses s and renders it into g.
func RenderString(s string, g Grammar) string {
	return Render(Parse(s), g)
}

func renderNodes(b *strings.Builder, nodes []Node, g Grammar) {
	for i, n := range nodes {
		if g == Typst && i > 0 && nodes[i-1].Kind != NodeText && continuesExpr(n) {
			// A typst embedded expression followed by "(", "[" or "." would
			// absorb the text as a call or field access.
			b.WriteString(";")
		}
		switch n.Kind {
		case NodeText:
			b.WriteString(Escape(g, n.Text))
		case NodeStrong:
			wrap(b, n.Children, g, "#strong[", "]", "**", "**", "<strong>", "</strong>")
		case NodeEmph:
			wrap(b, n.Children, g, "#emph[", "]", "*", "*", "<em>", "</em>")
		case NodeLink:
			renderLink(b, n, g)
		case NodeCode:
			renderCode(b, n.Text, g)
		}
	}
}

func wrap(b *strings.Builder, children []Node, g Grammar, typOpen, typClose, mdOpen, mdClose, htmlOpen, htmlClose string) {
	open, closing := htmlOpen, htmlClose
	switch g {
	case Typst:
		open, closing = typOpen, typClose
	case Markdown:
		open, closing = mdOpen, mdClose
	}
	b.WriteString(open)
	renderNodes(b, children, g)
	b.WriteString(closing)
}

func renderLink(b *strings.Builder, n Node, g Grammar) {
	switch g {
	case Typst:
		b.WriteString(`#link("`)
		b.WriteString(EscapeLiteral(g, n.URL))
		b.WriteString(`")[`)
		renderNodes(b, n.Children, g)
		b.WriteString("]")
	case Markdown:
		b.WriteString("[")
		renderNodes(b, n.Children, g)
		b.WriteString("](<")
		b.WriteString(EscapeLiteral(g, n.URL))
		b.WriteString(">)")
	default:
		b.WriteString(`<a href="`)
		b.WriteString(EscapeLiteral(g, n.URL))
		b.WriteString(`">`)
		renderNodes(b, n.Children, g)
		b.WriteString("</a>")
	}
}

func renderCode(b *strings.Builder, code string, g Grammar) {
	switch g {
	case Typst:
		b.WriteString(`#raw("`)
		b.WriteString(EscapeLiteral(g, code))
		b.WriteString(`")`)
	case Markdown:
		fence := strings.Repeat("`", longestRun(code, '`')+1)
		pad := ""
		if strings.HasPrefix(code, "`") || strings.HasSuffix(code, "`") {
			pad = " "
		}
		b.WriteString(fence + pad + code + pad + fence)
	default:
		b.WriteString("<code>")
		b.WriteString(Escape(g, code))
		b.WriteString("</code>")
	}
}

func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}

func continuesExpr(n Node) bool {
	return n.Kind == NodeText && n.Text != "" && strings.ContainsAny(n.Text[:1], "([.")
}
