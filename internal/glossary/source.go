// Package glossary loads and stores the terms fed to the annotator.
package glossary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ppiankov/glosshover/internal/model"
)

// ErrInvalidGlossary is returned when a glossary file or term fails validation
var ErrInvalidGlossary = errors.New("invalid glossary")

// Source supplies the ordered term list for an annotation pass.
// Order is authoritative: earlier terms win overlapping spans.
type Source interface {
	Terms(ctx context.Context) ([]model.Term, error)
}

// StaticSource serves a fixed term list
type StaticSource []model.Term

// Terms returns a copy of the list
func (s StaticSource) Terms(ctx context.Context) ([]model.Term, error) {
	out := make([]model.Term, len(s))
	copy(out, s)
	return out, nil
}

// termNamespace derives stable ids for terms that arrive without one
var termNamespace = uuid.MustParse("6f1c2b7e-3d4a-5e8f-9a0b-1c2d3e4f5a6b")

var validate = validator.New()

// Validate checks a single term
func Validate(t model.Term) error {
	if strings.TrimSpace(t.Term) == "" {
		return fmt.Errorf("%w: term text is required", ErrInvalidGlossary)
	}
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: term %q: %v", ErrInvalidGlossary, t.Term, err)
	}
	return nil
}

// Normalize trims the term fields and assigns an id when missing.
// Generated ids are derived from the term text so reloads are stable.
func Normalize(t model.Term) model.Term {
	t.ID = strings.TrimSpace(t.ID)
	t.Term = strings.TrimSpace(t.Term)
	t.Permalink = strings.TrimSpace(t.Permalink)
	if t.ID == "" && t.Term != "" {
		t.ID = uuid.NewSHA1(termNamespace, []byte(t.Term)).String()
	}
	return t
}

// Prepare normalizes and validates a term list, failing on the first bad entry
func Prepare(terms []model.Term) ([]model.Term, error) {
	out := make([]model.Term, 0, len(terms))
	for i, t := range terms {
		t = Normalize(t)
		if err := Validate(t); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// SortForMatching returns a copy of terms ordered longest first, so phrases
// claim their spans before the single words they contain. Ties keep their
// original order. Sources never apply this on their own.
func SortForMatching(terms []model.Term) []model.Term {
	out := make([]model.Term, len(terms))
	copy(out, terms)
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].Term) > utf8.RuneCountInString(out[j].Term)
	})
	return out
}
