package annotate

import (
	"errors"
	"testing"

	"golang.org/x/net/html"
)

func TestParseTree_FragmentRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello", "hello"},
		{"paragraphs", "<p>a</p>b", "<p>a</p>b"},
		{"unclosed div", "<div>unterminated", "<div>unterminated</div>"},
		{"head-only tags stay in place", "<title>t</title>x", "<title>t</title>x"},
		{"attributes", `<span class="c">x</span>`, `<span class="c">x</span>`},
		{"commented body marker", "<!-- old <body> marker --><p>foo</p>", "<!-- old <body> marker --><p>foo</p>"},
		{"late body tag", `<p>foo</p><body class="x">`, "<p>foo</p>"},
		{"leading whitespace and comment", " <!-- c --><p>x</p>", " <!-- c --><p>x</p>"},
		{"table cells", "<td>a</td><td>b</td>", "<td>a</td><td>b</td>"},
		{"table row", "<tr><td>a</td></tr>", "<tr><td>a</td></tr>"},
		{"table section", "<tbody><tr><td>a</td></tr></tbody>", "<tbody><tr><td>a</td></tr></tbody>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := ParseTree(tt.input)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !tree.fragment {
				t.Error("Expected fragment mode")
			}

			got, err := tree.Render()
			if err != nil {
				t.Fatalf("Expected no render error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseTree_DocumentMode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"explicit wrappers", "<html><body><p>x</p></body></html>", "<html><body><p>x</p></body></html>"},
		{"doctype only", "<!DOCTYPE html><title>t</title><p>x</p>", "<!DOCTYPE html><title>t</title><p>x</p>"},
		{
			"full document after comment",
			`<!-- header --><html><head><title>t</title></head><body class="b">x</body></html>`,
			`<!-- header --><html><head><title>t</title></head><body class="b">x</body></html>`,
		},
		{"body without html", "<body><p>x</p></body>", "<body><p>x</p></body>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := ParseTree(tt.input)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if tree.fragment {
				t.Error("Expected document mode")
			}
			if tree.Root.Type != html.DocumentNode {
				t.Errorf("Expected document root, got %v", tree.Root.Type)
			}

			got, err := tree.Render()
			if err != nil {
				t.Fatalf("Expected no render error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestScanInput(t *testing.T) {
	tests := []struct {
		input    string
		document bool
		first    string
	}{
		{"<p>x</p>", false, "p"},
		{"  \n<!-- <html> --><div>x</div>", false, "div"},
		{"text <body>", false, ""},
		{"<!doctype html><p>x</p>", true, ""},
		{"<!-- c --> <HTML lang=en>", true, ""},
		{"<td>x</td>", false, "td"},
		{"", false, ""},
	}

	for _, tt := range tests {
		shape := scanInput(tt.input)
		if shape.document != tt.document || shape.first != tt.first {
			t.Errorf("scanInput(%q) = (%v, %q), want (%v, %q)", tt.input, shape.document, shape.first, tt.document, tt.first)
		}
	}
}

func TestTree_RenderErrorIsSerializationFailure(t *testing.T) {
	tree := &Tree{Root: &html.Node{Type: html.ErrorNode}, fragment: true}

	_, err := tree.Render()
	if !errors.Is(err, ErrSerializationFailed) {
		t.Errorf("Expected ErrSerializationFailed, got %v", err)
	}
}

func TestStripImplicitWrapper(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<body>x</body>", "x"},
		{"<body></body>", ""},
		{"<body>x", "<body>x"},
		{"x</body>", "x</body>"},
		{`<body class="a">x</body>`, `<body class="a">x</body>`},
		{"<body><body>x</body></body>", "<body>x</body>"},
	}

	for _, tt := range tests {
		if got := StripImplicitWrapper(tt.input); got != tt.want {
			t.Errorf("StripImplicitWrapper(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestHasClass(t *testing.T) {
	n := &html.Node{
		Type: html.ElementNode,
		Data: "span",
		Attr: []html.Attribute{{Key: "class", Val: "one wpgh-tooltip two"}},
	}

	if !hasClass(n, "wpgh-tooltip") {
		t.Error("Expected class to be found")
	}
	if hasClass(n, "wpgh") {
		t.Error("Expected partial class name not to match")
	}
	if hasClass(&html.Node{Type: html.TextNode, Data: "x"}, "x") {
		t.Error("Expected text nodes to have no classes")
	}
}
