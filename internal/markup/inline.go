package markup

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// NodeKind tags an inline node.
type NodeKind int

const (
	NodeText NodeKind = iota
	NodeStrong
	NodeEmph
	NodeLink
	NodeCode
)

// Node is one element of the inline rich-text tree. Text and Code nodes
// carry Text; Strong, Emph and Link nodes carry Children.
type Node struct {
	Kind     NodeKind
	Text     string
	URL      string
	Children []Node
}

// Text is a rich-text field value: the source as written and its parsed
// inline tree. It stays grammar-neutral until rendered.
type Text struct {
	Source string
	Nodes  []Node
}

// linkSchemes are the link targets kept as links. Other targets render as
// their label only.
var linkSchemes = []string{"http://", "https://", "mailto:", "tel:"}

// inlineParser recognizes paragraphs with code spans, links, autolinks and
// emphasis only. Headings, lists and raw HTML stay literal text.
var inlineParser = sync.OnceValue(func() parser.Parser {
	return parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewCodeSpanParser(), 100),
			util.Prioritized(parser.NewLinkParser(), 200),
			util.Prioritized(parser.NewAutoLinkParser(), 300),
			util.Prioritized(parser.NewEmphasisParser(), 500),
		),
	)
})

// Parse reads the inline syntax of s: **bold**, *italic* or _italic_,
// [label](url), <url>, and `code`. Line breaks and blank lines collapse to
// single spaces.
func Parse(s string) Text {
	src := []byte(s)
	doc := inlineParser().Parse(text.NewReader(src))

	var nodes []Node
	for p := doc.FirstChild(); p != nil; p = p.NextSibling() {
		if len(nodes) > 0 {
			nodes = appendText(nodes, " ")
		}
		nodes = append(nodes, convertChildren(p, src)...)
	}
	return Text{Source: s, Nodes: mergeText(nodes)}
}

// Plain returns the text content without markup.
func (t Text) Plain() string {
	var b strings.Builder
	writePlain(&b, t.Nodes)
	return b.String()
}

// IsZero reports whether t holds no content.
func (t Text) IsZero() bool { return len(t.Nodes) == 0 }

func writePlain(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n.Kind {
		case NodeText, NodeCode:
			b.WriteString(n.Text)
		default:
			writePlain(b, n.Children)
		}
	}
}

func convertChildren(parent ast.Node, src []byte) []Node {
	var out []Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, convert(c, src)...)
	}
	return out
}

func convert(n ast.Node, src []byte) []Node {
	switch t := n.(type) {
	case *ast.Text:
		v := unescapeText(t.Segment.Value(src))
		if t.SoftLineBreak() || t.HardLineBreak() {
			v += " "
		}
		return []Node{{Kind: NodeText, Text: v}}
	case *ast.String:
		return []Node{{Kind: NodeText, Text: unescapeText(t.Value)}}
	case *ast.CodeSpan:
		var b strings.Builder
		for c := t.FirstChild(); c != nil; c = c.NextSibling() {
			switch ct := c.(type) {
			case *ast.Text:
				b.Write(ct.Segment.Value(src))
			case *ast.String:
				b.Write(ct.Value)
			}
		}
		return []Node{{Kind: NodeCode, Text: strings.ReplaceAll(b.String(), "\n", " ")}}
	case *ast.Emphasis:
		kind := NodeEmph
		if t.Level >= 2 {
			kind = NodeStrong
		}
		return []Node{{Kind: kind, Children: mergeText(convertChildren(t, src))}}
	case *ast.Link:
		return linkNode(string(util.UnescapePunctuations(t.Destination)), convertChildren(t, src))
	case *ast.AutoLink:
		label := string(t.Label(src))
		url := string(t.URL(src))
		if t.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(url, "mailto:") {
			url = "mailto:" + url
		}
		return linkNode(url, []Node{{Kind: NodeText, Text: label}})
	default:
		return convertChildren(n, src)
	}
}

func linkNode(url string, children []Node) []Node {
	children = mergeText(children)
	if !allowedLink(url) {
		return children
	}
	return []Node{{Kind: NodeLink, URL: url, Children: children}}
}

func allowedLink(url string) bool {
	lower := strings.ToLower(url)
	for _, s := range linkSchemes {
		if strings.HasPrefix(lower, s) && len(lower) > len(s) {
			return true
		}
	}
	return false
}

func unescapeText(b []byte) string {
	b = util.UnescapePunctuations(b)
	b = util.ResolveNumericReferences(b)
	b = util.ResolveEntityNames(b)
	return string(bytes.TrimRight(b, "\r\n"))
}

func appendText(nodes []Node, s string) []Node {
	return append(nodes, Node{Kind: NodeText, Text: s})
}

// mergeText joins adjacent text nodes and trims the outer whitespace.
func mergeText(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		if n.Kind == NodeText {
			if n.Text == "" {
				continue
			}
			if last := len(out) - 1; last >= 0 && out[last].Kind == NodeText {
				out[last].Text += n.Text
				continue
			}
		}
		out = append(out, n)
	}
	if len(out) > 0 && out[0].Kind == NodeText {
		out[0].Text = strings.TrimLeft(out[0].Text, " ")
	}
	if last := len(out) - 1; last >= 0 && out[last].Kind == NodeText {
		out[last].Text = strings.TrimRight(out[last].Text, " ")
	}
	out = dropEmptyText(out)
	return out
}

func dropEmptyText(nodes []Node) []Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Kind == NodeText && n.Text == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}
