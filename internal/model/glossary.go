package model

import "strings"

// Term is a single glossary entry supplied by a term source
type Term struct {
	ID         string `json:"id" yaml:"id"`                                                            // Opaque identifier, unique per glossary
	Term       string `json:"term" yaml:"term" validate:"required"`                                    // Word or phrase to highlight
	Definition string `json:"definition" yaml:"definition"`                                            // User-authored definition (may contain markup)
	Permalink  string `json:"permalink,omitempty" yaml:"permalink,omitempty" validate:"omitempty,uri"` // Optional glossary page URL
}

// HasPermalink reports whether the term links to a glossary page
func (t Term) HasPermalink() bool {
	return strings.TrimSpace(t.Permalink) != ""
}

// RenderConfig controls how a single annotation pass behaves
type RenderConfig struct {
	CaseSensitive            bool     `json:"case_sensitive" yaml:"case_sensitive" mapstructure:"case_sensitive"`
	HighlightFirstOccurrence bool     `json:"highlight_first_occurrence" yaml:"highlight_first_occurrence" mapstructure:"highlight_first_occurrence"`
	DisabledTags             []string `json:"disabled_tags" yaml:"disabled_tags" mapstructure:"disabled_tags"`
	DefinitionCharLimit      int      `json:"definition_char_limit" yaml:"definition_char_limit" mapstructure:"definition_char_limit"` // 0 = unlimited
	LinkMode                 bool     `json:"link_mode" yaml:"link_mode" mapstructure:"link_mode"`
}

// DefaultDisabledTags are the tags excluded from annotation unless re-enabled
var DefaultDisabledTags = []string{
	"a", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "object", "blockquote",
}

// DefaultRenderConfig returns the stock render settings
func DefaultRenderConfig() RenderConfig {
	tags := make([]string, len(DefaultDisabledTags))
	copy(tags, DefaultDisabledTags)

	return RenderConfig{
		CaseSensitive:            true,
		HighlightFirstOccurrence: false,
		DisabledTags:             tags,
		DefinitionCharLimit:      0,
		LinkMode:                 false,
	}
}
