package annotate

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Ellipsis marks a definition that was cut to the character limit
const Ellipsis = "…"

// breakingTags separate words when markup is stripped
var breakingTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "ul": true, "ol": true,
	"tr": true, "td": true, "th": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "blockquote": true, "pre": true, "hr": true,
}

// CleanDefinition turns a user-authored definition into a single-line plain
// text tooltip. When limit > 0 and the text is longer than limit characters
// it is cut, trailing punctuation is dropped and Ellipsis is appended.
//
// Quote characters are left as-is; the renderer entity-encodes them when the
// value is written into the title attribute.
func CleanDefinition(definition string, limit int) string {
	text := strings.Join(strings.Fields(stripMarkup(definition)), " ")
	if limit > 0 {
		text = truncate(text, limit)
	}
	return text
}

// stripMarkup extracts unescaped text from an HTML snippet, skipping scripts and styles
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var buf strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return buf.String()

		case html.TextToken:
			if skip == 0 {
				buf.Write(z.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				skip++
			case breakingTags[tag]:
				buf.WriteByte(' ')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case (tag == "script" || tag == "style") && skip > 0:
				skip--
			case breakingTags[tag]:
				buf.WriteByte(' ')
			}
		}
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	for len(cut) > 0 && !isAlphanumeric(cut[len(cut)-1]) {
		cut = cut[:len(cut)-1]
	}
	return string(cut) + Ellipsis
}

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
