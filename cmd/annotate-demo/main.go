// Demo program showing the tooltip rewrite on a sample post
// under each render mode
package main

import (
	"fmt"
	"strings"

	"github.com/ppiankov/glosshover/internal/annotate"
	"github.com/ppiankov/glosshover/internal/model"
)

const samplePost = `<h2>Brewing an API client</h2>
<p>An API returns JSON. Every api call has latency, and JSON is cheap to parse.</p>
<p>See <a href="/docs">the API docs</a> and <code>api.Get()</code>.</p>
<blockquote>Latency is the API's tax.</blockquote>`

func main() {
	fmt.Println("=== Glossary Tooltip Demo ===")
	fmt.Println()

	terms := []model.Term{
		{ID: "api", Term: "API", Definition: "Application <b>programming</b> interface: the contract a service exposes.", Permalink: "/glossary/api"},
		{ID: "json", Term: "JSON", Definition: "JavaScript Object Notation, a text format for structured data."},
		{ID: "latency", Term: "latency", Definition: "The delay between a request and its response."},
	}

	defaults := model.DefaultRenderConfig()

	insensitive := defaults
	insensitive.CaseSensitive = false

	firstOnly := insensitive
	firstOnly.HighlightFirstOccurrence = true
	firstOnly.DefinitionCharLimit = 24

	linked := defaults
	linked.LinkMode = true

	modes := []struct {
		name string
		cfg  model.RenderConfig
	}{
		{"defaults (case-sensitive, every occurrence)", defaults},
		{"case-insensitive", insensitive},
		{"first occurrence only, 24 char limit", firstOnly},
		{"link mode", linked},
	}

	annotator := annotate.NewAnnotator()
	for _, mode := range modes {
		fmt.Printf("Mode: %s\n", mode.name)
		fmt.Println(strings.Repeat("-", 60))

		result := annotator.AnnotateWithResult(samplePost, terms, mode.cfg)
		fmt.Println(result.HTML)
		fmt.Printf("\n  state: %s, tooltips: %d, terms hit: %v\n\n", result.State, result.Matches, result.Highlighted)
	}

	fmt.Println("=== Demo Complete ===")
	fmt.Println("\nHeadings, links, code and blockquotes are excluded by default.")
}
