package annotate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrParseFailed is returned when content cannot be parsed even with error recovery
	ErrParseFailed = errors.New("annotate: parse failed")

	// ErrSerializationFailed is returned when a tree cannot be rendered back to HTML
	ErrSerializationFailed = errors.New("annotate: serialization failed")
)

// Context element used for fragments that do not start with a table part
const defaultContext = "body"

// tableContexts maps a leading table-part tag to the element it must be
// parsed inside, otherwise the parser drops it
var tableContexts = map[string]string{
	"td":       "tr",
	"th":       "tr",
	"tr":       "tbody",
	"tbody":    "table",
	"thead":    "table",
	"tfoot":    "table",
	"caption":  "table",
	"colgroup": "table",
	"col":      "colgroup",
}

// Tree is a parsed HTML document or fragment owned by a single annotation pass
type Tree struct {
	Root     *html.Node
	fragment bool
	context  string              // fragment context tag, wrapped around the rendered output
	implicit map[*html.Node]bool // document nodes rendered as their children only
}

// ParseTree parses possibly-malformed HTML using browser-style error recovery.
// Content is a document only when its first significant token is a doctype or
// an <html>, <head> or <body> tag. Anything else is a fragment, parsed in a
// <body> context (or the table element its leading tag needs) and hung under
// a synthetic root of that element.
func ParseTree(content string) (*Tree, error) {
	shape := scanInput(content)
	if shape.document {
		return parseDocument(content, shape.tags)
	}

	tag := defaultContext
	if ctx, ok := tableContexts[shape.first]; ok {
		tag = ctx
	}
	root := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	nodes, err := html.ParseFragment(strings.NewReader(content), root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	return &Tree{Root: root, fragment: true, context: tag}, nil
}

func parseDocument(content string, tags map[string]bool) (*Tree, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	// The parser always builds html, head and body. Those the input never
	// opened are rendered as their children only.
	implicit := map[*html.Node]bool{doc: true}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode || n.DataAtom != atom.Html {
			continue
		}
		if !tags["html"] {
			implicit[n] = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if (c.DataAtom == atom.Head || c.DataAtom == atom.Body) && !tags[c.Data] {
				implicit[c] = true
			}
		}
	}

	return &Tree{Root: doc, implicit: implicit}, nil
}

// inputShape is what a token scan learns about raw content
type inputShape struct {
	document bool            // starts with a doctype or document-level tag
	first    string          // first start tag when the content is a fragment
	tags     map[string]bool // html, head and body start tags present anywhere
}

// scanInput tokenizes content without building a tree. Leading whitespace
// and comments are skipped when deciding between document and fragment.
func scanInput(content string) inputShape {
	shape := inputShape{tags: make(map[string]bool)}
	decided := false

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return shape
		case html.CommentToken:
			continue
		case html.DoctypeToken:
			if !decided {
				shape.document, decided = true, true
			}
		case html.TextToken:
			if !decided && strings.Trim(string(z.Text()), " \t\r\n\f\ufeff") != "" {
				decided = true
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch tag {
			case "html", "head", "body":
				shape.tags[tag] = true
				if !decided {
					shape.document, decided = true, true
				}
			default:
				if !decided {
					shape.first, decided = tag, true
				}
			}
		default:
			decided = true
		}
	}
}

// Render serializes the tree. In fragment mode the context wrapper is
// stripped. In document mode html, head and body elements the input did not
// contain are left out.
func (t *Tree) Render() (string, error) {
	var buf bytes.Buffer
	if err := t.render(&buf, t.Root); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}

	out := buf.String()
	if t.fragment {
		out = stripWrapper(out, t.context)
	}
	return out, nil
}

func (t *Tree) render(buf *bytes.Buffer, n *html.Node) error {
	if !t.implicit[n] {
		return html.Render(buf, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := t.render(buf, c); err != nil {
			return err
		}
	}
	return nil
}

// StripImplicitWrapper removes the <body>...</body> tokens added around a
// rendered fragment. Only an exact leading/trailing pair is removed.
func StripImplicitWrapper(rendered string) string {
	return stripWrapper(rendered, defaultContext)
}

func stripWrapper(rendered, tag string) string {
	inner, ok := strings.CutPrefix(rendered, "<"+tag+">")
	if !ok {
		return rendered
	}
	inner, ok = strings.CutSuffix(inner, "</"+tag+">")
	if !ok {
		return rendered
	}
	return inner
}

// getAttribute gets an attribute value from a node
func getAttribute(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// hasClass checks if a node has a specific CSS class
func hasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(getAttribute(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// hasAncestor reports whether any ancestor element has the given tag name
func hasAncestor(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && strings.EqualFold(p.Data, tag) {
			return true
		}
	}
	return false
}

// replaceNode swaps old for the given nodes, preserving sibling order
func replaceNode(old *html.Node, nodes []*html.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	for _, n := range nodes {
		parent.InsertBefore(n, old)
	}
	parent.RemoveChild(old)
}
