// Package annotate wraps glossary term occurrences in HTML text with tooltip
// elements. It is fail-open: any pipeline failure returns the input unchanged.
package annotate

import (
	"net/url"
	"sort"
	"strings"

	"github.com/ppiankov/glosshover/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TooltipClass marks every inserted annotation element
const TooltipClass = "wpgh-tooltip"

// State is a step of the annotation pass
type State int

const (
	StateIdle State = iota
	StateParsed
	StateScanning
	StateRewriting
	StateSerialized
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsed:
		return "parsed"
	case StateScanning:
		return "scanning"
	case StateRewriting:
		return "rewriting"
	case StateSerialized:
		return "serialized"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes a finished annotation pass
type Result struct {
	HTML        string   // Annotated output, or the input on failure / no change
	State       State    // StateDone or StateFailed
	Matches     int      // Tooltips inserted
	Highlighted []string // Ledger keys of terms that produced a tooltip, in first-hit order
	Err         error    // Reason for StateFailed
}

// Changed reports whether any tooltip was inserted
func (r Result) Changed() bool {
	return r.Matches > 0
}

// Annotator inserts glossary tooltips into HTML content
type Annotator struct{}

// NewAnnotator creates a new annotator
func NewAnnotator() *Annotator {
	return &Annotator{}
}

// Annotate returns content with tooltips around term occurrences.
// On any failure the original content is returned byte-for-byte.
func (a *Annotator) Annotate(content string, terms []model.Term, cfg model.RenderConfig) string {
	return a.AnnotateWithResult(content, terms, cfg).HTML
}

// AnnotateWithResult is Annotate with pass details for callers that log or report
func (a *Annotator) AnnotateWithResult(content string, terms []model.Term, cfg model.RenderConfig) Result {
	p := newPass(terms, cfg)
	return p.run(content)
}

// Annotate runs a single pass with a fresh annotator
func Annotate(content string, terms []model.Term, cfg model.RenderConfig) string {
	return NewAnnotator().Annotate(content, terms, cfg)
}

// pass holds the state of one annotation call. Nothing in it outlives the call.
type pass struct {
	cfg         model.RenderConfig
	matchers    []*matcher
	state       State
	ledger      map[string]bool
	highlighted []string
	titles      map[int]string
}

func newPass(terms []model.Term, cfg model.RenderConfig) *pass {
	return &pass{
		cfg:      cfg,
		matchers: compileMatchers(terms, cfg.CaseSensitive),
		state:    StateIdle,
		ledger:   make(map[string]bool),
		titles:   make(map[int]string),
	}
}

func (p *pass) run(content string) Result {
	unchanged := Result{HTML: content, State: StateDone}

	if strings.TrimSpace(content) == "" || len(p.matchers) == 0 {
		return unchanged
	}

	// Idle -> Parsed
	tree, err := ParseTree(content)
	if err != nil {
		p.state = StateFailed
		return Result{HTML: content, State: p.state, Err: err}
	}
	p.state = StateParsed

	// Parsed -> Scanning
	nodes := EligibleTextNodes(tree.Root, p.cfg.DisabledTags)
	p.state = StateScanning
	if len(nodes) == 0 {
		return unchanged
	}

	// Scanning -> Rewriting
	p.state = StateRewriting
	matches := 0
	for _, n := range nodes {
		matches += p.rewrite(n)
	}
	if matches == 0 {
		return unchanged
	}

	// Rewriting -> Serialized
	out, err := tree.Render()
	if err != nil {
		p.state = StateFailed
		return Result{HTML: content, State: p.state, Err: err}
	}
	p.state = StateSerialized

	p.state = StateDone
	return Result{
		HTML:        out,
		State:       p.state,
		Matches:     matches,
		Highlighted: p.highlighted,
	}
}

// rewrite wraps term occurrences in one text node and returns how many were wrapped.
// Nodes without matches are left in place untouched.
func (p *pass) rewrite(n *html.Node) int {
	text := n.Data
	firstOnly := p.cfg.HighlightFirstOccurrence

	var claimed []span
	for _, m := range p.matchers {
		key := ledgerKey(m.term)
		if firstOnly && p.ledger[key] {
			continue
		}

		limit := 0
		if firstOnly {
			limit = 1
		}

		found := m.find(text, claimed, limit)
		if len(found) == 0 {
			continue
		}
		claimed = append(claimed, found...)
		p.record(key)
	}

	if len(claimed) == 0 {
		return 0
	}

	sort.Slice(claimed, func(i, j int) bool {
		return claimed[i].start < claimed[j].start
	})

	inAnchor := hasAncestor(n, "a")
	var replacement []*html.Node
	pos := 0
	for _, s := range claimed {
		if s.start > pos {
			replacement = append(replacement, textNode(text[pos:s.start]))
		}
		replacement = append(replacement, p.wrapper(s.matcher, text[s.start:s.end], inAnchor))
		pos = s.end
	}
	if pos < len(text) {
		replacement = append(replacement, textNode(text[pos:]))
	}

	replaceNode(n, replacement)
	return len(claimed)
}

// record adds a term to the ledger and the highlighted list
func (p *pass) record(key string) {
	if p.ledger[key] {
		return
	}
	p.ledger[key] = true
	p.highlighted = append(p.highlighted, key)
}

// wrapper builds the tooltip element around matched text
func (p *pass) wrapper(m *matcher, matched string, inAnchor bool) *html.Node {
	el := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: TooltipClass}},
	}

	// Anchors cannot nest, so links degrade to spans inside existing links
	if p.cfg.LinkMode && !inAnchor {
		if href, ok := safePermalink(m.term.Permalink); ok {
			el.Data = "a"
			el.DataAtom = atom.A
			el.Attr = append(el.Attr, html.Attribute{Key: "href", Val: href})
		}
	}

	el.Attr = append(el.Attr, html.Attribute{Key: "title", Val: p.title(m)})
	el.AppendChild(textNode(matched))
	return el
}

// title returns the cleaned definition for a term, computed once per pass
func (p *pass) title(m *matcher) string {
	if t, ok := p.titles[m.index]; ok {
		return t
	}
	t := CleanDefinition(m.term.Definition, p.cfg.DefinitionCharLimit)
	p.titles[m.index] = t
	return t
}

// ledgerKey identifies a term in the highlight ledger. Terms without an id
// fall back to their literal text.
func ledgerKey(t model.Term) string {
	if t.ID != "" {
		return t.ID
	}
	return "term:" + t.Term
}

// safePermalink accepts http(s) and relative URLs only
func safePermalink(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
		return raw, true
	default:
		return "", false
	}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
