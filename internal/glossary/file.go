package glossary

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/glosshover/internal/model"
	"gopkg.in/yaml.v3"
)

// File is the on-disk glossary layout. JSON files parse as YAML.
type File struct {
	Render *RenderOverrides `yaml:"render,omitempty"`
	Terms  []model.Term     `yaml:"terms"`
}

// RenderOverrides are optional per-glossary render settings; nil fields keep the base value
type RenderOverrides struct {
	CaseSensitive            *bool    `yaml:"case_sensitive,omitempty"`
	HighlightFirstOccurrence *bool    `yaml:"highlight_first_occurrence,omitempty"`
	DisabledTags             []string `yaml:"disabled_tags,omitempty"`
	DefinitionCharLimit      *int     `yaml:"definition_char_limit,omitempty"`
	LinkMode                 *bool    `yaml:"link_mode,omitempty"`
}

// Apply returns base with the overrides set
func (o *RenderOverrides) Apply(base model.RenderConfig) model.RenderConfig {
	if o == nil {
		return base
	}
	if o.CaseSensitive != nil {
		base.CaseSensitive = *o.CaseSensitive
	}
	if o.HighlightFirstOccurrence != nil {
		base.HighlightFirstOccurrence = *o.HighlightFirstOccurrence
	}
	if o.DisabledTags != nil {
		base.DisabledTags = append([]string(nil), o.DisabledTags...)
	}
	if o.DefinitionCharLimit != nil {
		base.DefinitionCharLimit = *o.DefinitionCharLimit
	}
	if o.LinkMode != nil {
		base.LinkMode = *o.LinkMode
	}
	return base
}

// FileSource reads terms from a YAML or JSON glossary file
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the glossary file path
func (s *FileSource) Path() string {
	return s.path
}

// Terms loads, validates and returns the glossary terms in file order
func (s *FileSource) Terms(ctx context.Context) ([]model.Term, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}
	return f.Terms, nil
}

// Load reads the whole glossary file, including render overrides
func (s *FileSource) Load() (*File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read glossary: %w", err)
	}

	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return f, nil
}

// ParseFile decodes glossary data. A bare list of terms is accepted as well.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		var list []model.Term
		if listErr := yaml.Unmarshal(data, &list); listErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGlossary, err)
		}
		f = File{Terms: list}
	}

	terms, err := Prepare(f.Terms)
	if err != nil {
		return nil, err
	}
	f.Terms = terms
	return &f, nil
}

// WriteFile stores terms as a YAML glossary
func WriteFile(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode glossary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write glossary: %w", err)
	}
	return nil
}
