package annotate

import (
	"strings"

	"golang.org/x/net/html"
)

// builtinExcluded are never annotated regardless of configuration
var builtinExcluded = []string{"script", "code", "strike"}

// rawTextElements hold text the browser never parses as markup
var rawTextElements = []string{
	"style", "textarea", "title", "xmp", "iframe",
	"noembed", "noframes", "noscript", "plaintext", "template",
}

// excludedTags builds the lower-cased union of built-in and configured exclusions
func excludedTags(disabled []string) map[string]bool {
	set := make(map[string]bool, len(builtinExcluded)+len(rawTextElements)+len(disabled))
	for _, tag := range builtinExcluded {
		set[tag] = true
	}
	for _, tag := range rawTextElements {
		set[tag] = true
	}
	for _, tag := range disabled {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			set[tag] = true
		}
	}
	return set
}

// EligibleTextNodes returns, in document order, every text node that may
// receive tooltips. The list is fully resolved before the caller mutates the
// tree, so replacing one node never skips or repeats another.
func EligibleTextNodes(root *html.Node, disabled []string) []*html.Node {
	excluded := excludedTags(disabled)
	var nodes []*html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if excluded[strings.ToLower(n.Data)] {
				return
			}
			// Already annotated
			if hasClass(n, TooltipClass) {
				return
			}
		}

		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			nodes = append(nodes, n)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(root)
	return nodes
}
