package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// StdinSource is the path that selects standard input
const StdinSource = "-"

// LoadContent reads a local document. Markdown files are rendered to HTML first.
func LoadContent(path string) (string, error) {
	if path == StdinSource {
		return ReadContent(os.Stdin, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open content: %w", err)
	}
	defer file.Close()

	return ReadContent(file, path)
}

// ReadContent reads content from r; name decides whether it is Markdown
func ReadContent(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}

	if IsMarkdown(name) {
		return RenderMarkdown(data), nil
	}
	return string(data), nil
}

// IsMarkdown reports whether name has a Markdown extension
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

// RenderMarkdown converts Markdown to an HTML fragment
func RenderMarkdown(data []byte) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse(data)

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return string(markdown.Render(doc, renderer))
}
