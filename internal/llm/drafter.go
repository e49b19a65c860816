package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/glosshover/internal/model"
	"github.com/sirupsen/logrus"
)

// Drafter fills in missing glossary definitions
type Drafter struct {
	provider Provider
	maxChars int
	context  string
	log      *logrus.Logger
}

// NewDrafter creates a drafter. provider must not be nil.
func NewDrafter(provider Provider, maxChars int, log *logrus.Logger) *Drafter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Drafter{provider: provider, maxChars: maxChars, log: log}
}

// WithContext describes the glossary's subject area to the model
func (d *Drafter) WithContext(subject string) *Drafter {
	d.context = subject
	return d
}

// DraftResult summarizes a FillMissing run
type DraftResult struct {
	Terms   []model.Term // Input terms with drafted definitions filled in
	Drafted []string     // Ids of terms that received a draft
	Tokens  int
}

// FillMissing drafts definitions for terms whose definition is empty.
// Terms that already have a definition are never touched. Failed drafts
// leave the term as it was; their errors are joined into the returned error.
func (d *Drafter) FillMissing(ctx context.Context, terms []model.Term) (*DraftResult, error) {
	result := &DraftResult{Terms: make([]model.Term, len(terms))}
	copy(result.Terms, terms)

	var errs []error
	for i, t := range result.Terms {
		if strings.TrimSpace(t.Definition) != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		resp, err := d.provider.Define(ctx, DefineRequest{
			Term:     t.Term,
			Context:  d.context,
			MaxChars: d.maxChars,
		})
		if err != nil {
			d.log.WithError(err).WithField("term", t.Term).Warn("definition draft failed")
			errs = append(errs, fmt.Errorf("%s: %w", t.Term, err))
			continue
		}

		result.Terms[i].Definition = resp.Definition
		result.Drafted = append(result.Drafted, t.ID)
		result.Tokens += resp.TokensUsed
		d.log.WithFields(logrus.Fields{
			"term":     t.Term,
			"provider": d.provider.Name(),
			"model":    resp.Model,
		}).Info("definition drafted")
	}

	return result, errors.Join(errs...)
}
