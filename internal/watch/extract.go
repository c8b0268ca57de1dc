package watch

import (
	"strings"

	"golang.org/x/net/html"
)

// Classifier decides whether a node is a trackable answer block
type Classifier func(*Node) bool

// Extractor produces the normalized text of an answer block
type Extractor func(*Node) string

// skippedKinds are substructures with no semantic answer text
var skippedKinds = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"code":     true,
	"pre":      true,
}

// TextContent walks the subtree rooted at n, skips non-semantic regions
// and collapses whitespace
func TextContent(n *Node) string {
	var buf strings.Builder

	var walk func(*Node)
	walk = func(n *Node) {
		if skippedKinds[n.Kind] {
			return
		}
		if text := strings.TrimSpace(n.Text); text != "" {
			buf.WriteString(text)
			buf.WriteString(" ")
		}
		for _, c := range n.Children {
			walk(c)
		}
	}

	walk(n)
	return strings.TrimSpace(CollapseWhitespace(buf.String()))
}

// CollapseWhitespace folds runs of whitespace into single spaces
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseFragment converts an HTML fragment into a watchable subtree.
// Hosts that observe real markup feed snapshots through this.
func ParseFragment(fragment string) (*Node, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}
	return fromHTML(doc, nil), nil
}

// fromHTML maps an html.Node tree onto watch nodes
func fromHTML(h *html.Node, parent *Node) *Node {
	n := &Node{Parent: parent}

	switch h.Type {
	case html.TextNode:
		n.Kind = "#text"
		n.Text = h.Data
	case html.ElementNode:
		n.Kind = h.Data
		if len(h.Attr) > 0 {
			n.Attrs = make(map[string]string, len(h.Attr))
			for _, a := range h.Attr {
				n.Attrs[a.Key] = a.Val
			}
		}
	default:
		n.Kind = "#" + h.Data
	}

	for c := h.FirstChild; c != nil; c = c.NextSibling {
		n.Children = append(n.Children, fromHTML(c, n))
	}

	return n
}
