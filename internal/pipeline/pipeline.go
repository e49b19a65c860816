package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/glosshover/internal/annotate"
	"github.com/ppiankov/glosshover/internal/cache"
	"github.com/ppiankov/glosshover/internal/glossary"
	"github.com/ppiankov/glosshover/internal/model"
	"github.com/sirupsen/logrus"
)

// Pipeline loads content, annotates it and reports on the pass
type Pipeline struct {
	annotator *annotate.Annotator
	source    glossary.Source
	fetcher   *Fetcher
	cache     cache.Cache // nil disables caching
	cacheTTL  time.Duration
	render    model.RenderConfig
	longest   bool     // order terms longest first before matching
	kinds     []string // content kinds that are annotated
	log       *logrus.Logger
}

// NewPipeline creates a pipeline. c may be nil.
func NewPipeline(cfg *model.Config, source glossary.Source, c cache.Cache, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		annotator: annotate.NewAnnotator(),
		source:    source,
		fetcher:   NewFetcher(cfg.HTTP),
		cache:     c,
		cacheTTL:  cfg.Cache.TTL,
		render:    cfg.Render,
		longest:   cfg.Glossary.LongestFirst,
		kinds:     cfg.Content.EnabledKinds,
		log:       log,
	}
}

// Render returns a copy of the pipeline's default render settings
func (p *Pipeline) Render() model.RenderConfig {
	r := p.render
	r.DisabledTags = append([]string(nil), p.render.DisabledTags...)
	return r
}

// StateSkipped is the report state of content whose kind is not enabled
const StateSkipped = "skipped"

// Request is a single annotation job
type Request struct {
	Source  string              // Label for the report
	Kind    string              // Content kind, "" for content without one
	Content string              // HTML fragment or document
	Terms   []model.Term        // nil loads terms from the pipeline source
	Render  *model.RenderConfig // nil uses the pipeline render settings
}

// Output is the annotated document with its report
type Output struct {
	HTML   string
	Report *model.Report
}

// cachedPass is what the output cache stores per key
type cachedPass struct {
	HTML        string   `json:"html"`
	State       string   `json:"state"`
	Matches     int      `json:"matches"`
	Highlighted []string `json:"highlighted,omitempty"`
}

// Annotate runs one request. Errors are only returned when terms cannot be
// loaded; annotation itself is fail-open and reports its failure instead.
func (p *Pipeline) Annotate(ctx context.Context, req Request) (*Output, error) {
	start := time.Now()

	if !p.KindEnabled(req.Kind) {
		p.log.WithFields(logrus.Fields{"source": req.Source, "kind": req.Kind}).Debug("content kind not enabled")
		return &Output{HTML: req.Content, Report: &model.Report{
			Source:      req.Source,
			Kind:        req.Kind,
			AnnotatedAt: start.UTC(),
			State:       StateSkipped,
		}}, nil
	}

	terms := req.Terms
	if terms == nil {
		if p.source == nil {
			return nil, fmt.Errorf("no term source configured")
		}
		loaded, err := p.source.Terms(ctx)
		if err != nil {
			return nil, fmt.Errorf("load terms: %w", err)
		}
		terms = loaded
	}
	if p.longest {
		terms = glossary.SortForMatching(terms)
	}

	render := p.render
	if req.Render != nil {
		render = *req.Render
	}

	report := &model.Report{
		Source:      req.Source,
		Kind:        req.Kind,
		AnnotatedAt: start.UTC(),
		TermCount:   len(terms),
	}

	key := ""
	if p.cache != nil {
		key = passKey(req.Content, terms, render)
		if data, ok := p.cache.Get(key); ok {
			var hit cachedPass
			if err := json.Unmarshal(data, &hit); err == nil {
				report.State = hit.State
				report.Matches = hit.Matches
				report.Changed = hit.Matches > 0
				report.Highlighted = hit.Highlighted
				report.Cached = true
				report.DurationMS = time.Since(start).Milliseconds()
				p.log.WithField("source", req.Source).Debug("served from cache")
				return &Output{HTML: hit.HTML, Report: report}, nil
			}
		}
	}

	result := p.annotator.AnnotateWithResult(req.Content, terms, render)

	report.State = result.State.String()
	report.Matches = result.Matches
	report.Changed = result.Changed()
	report.Highlighted = result.Highlighted
	report.DurationMS = time.Since(start).Milliseconds()

	entry := p.log.WithFields(logrus.Fields{
		"source":  req.Source,
		"terms":   len(terms),
		"matches": result.Matches,
	})
	if result.Err != nil {
		report.Error = result.Err.Error()
		entry.WithError(result.Err).Warn("annotation failed, returning content unchanged")
	} else {
		entry.Debug("annotated")
	}

	// Failed passes are not cached so a later fix to the input is picked up
	if p.cache != nil && result.State == annotate.StateDone {
		data, err := json.Marshal(cachedPass{
			HTML:        result.HTML,
			State:       report.State,
			Matches:     result.Matches,
			Highlighted: result.Highlighted,
		})
		if err == nil {
			if err := p.cache.Set(key, data, p.cacheTTL); err != nil {
				entry.WithError(err).Warn("cache write failed")
			}
		}
	}

	return &Output{HTML: result.HTML, Report: report}, nil
}

// KindEnabled reports whether content of the given kind is annotated.
// An empty kind is always enabled.
func (p *Pipeline) KindEnabled(kind string) bool {
	if kind == "" {
		return true
	}
	for _, k := range p.kinds {
		if strings.EqualFold(strings.TrimSpace(k), kind) {
			return true
		}
	}
	return false
}

// AnnotateString annotates in-memory content with the pipeline terms
func (p *Pipeline) AnnotateString(ctx context.Context, source, content string) (*Output, error) {
	return p.Annotate(ctx, Request{Source: source, Content: content})
}

// AnnotateFile annotates a local file, or stdin for "-"
func (p *Pipeline) AnnotateFile(ctx context.Context, path string) (*Output, error) {
	content, err := LoadContent(path)
	if err != nil {
		return nil, err
	}
	return p.AnnotateString(ctx, path, content)
}

// AnnotateURL fetches and annotates a remote document
func (p *Pipeline) AnnotateURL(ctx context.Context, rawURL string) (*Output, error) {
	fetched, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	out, err := p.AnnotateString(ctx, rawURL, fetched.HTML)
	if err != nil {
		return nil, err
	}
	meta := fetched.Meta
	out.Report.FetchMeta = &meta
	return out, nil
}

// AnnotateTarget dispatches to AnnotateURL or AnnotateFile
func (p *Pipeline) AnnotateTarget(ctx context.Context, target string) (*Output, error) {
	if IsURL(target) {
		return p.AnnotateURL(ctx, target)
	}
	return p.AnnotateFile(ctx, target)
}

// WriteOutput writes the HTML to htmlPath (stdout when empty or "-") and,
// if reportPath is set, the JSON report
func WriteOutput(out *Output, htmlPath, reportPath string, stdout io.Writer) error {
	if htmlPath == "" || htmlPath == StdinSource {
		if _, err := io.WriteString(stdout, out.HTML); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
	} else if err := os.WriteFile(htmlPath, []byte(out.HTML), 0644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}

	if reportPath == "" {
		return nil
	}

	data, err := json.MarshalIndent(out.Report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(reportPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// IsURL reports whether target is an http(s) URL rather than a path
func IsURL(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// passKey identifies a pass by everything that influences its output
func passKey(content string, terms []model.Term, render model.RenderConfig) string {
	termData, _ := json.Marshal(terms)
	renderData, _ := json.Marshal(render)
	return cache.Key(content, string(termData), string(renderData))
}
