package annotate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/glosshover/internal/model"
	"golang.org/x/text/unicode/norm"
)

// whitespaceClass matches any run of spacing between the words of a phrase
const whitespaceClass = `[\s\p{Zs}]+`

// matcher finds whole-word occurrences of one glossary term
type matcher struct {
	index   int
	term    model.Term
	pattern *regexp.Regexp
}

// span is a claimed region of a text node
type span struct {
	start, end int
	matcher    *matcher
}

// compileMatchers builds one matcher per usable term, preserving caller order.
// Empty terms cannot be matched as whole words and are dropped.
func compileMatchers(terms []model.Term, caseSensitive bool) []*matcher {
	matchers := make([]*matcher, 0, len(terms))

	for i, t := range terms {
		expr := termExpression(t.Term)
		if expr == "" {
			continue
		}
		if !caseSensitive {
			expr = "(?i)" + expr
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		matchers = append(matchers, &matcher{index: i, term: t, pattern: re})
	}

	return matchers
}

// termExpression quotes a term literal so that only its words are significant:
// metacharacters are escaped and inner whitespace matches any spacing run.
func termExpression(term string) string {
	words := strings.Fields(norm.NFC.String(term))
	if len(words) == 0 {
		return ""
	}

	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, whitespaceClass)
}

// find returns up to limit (0 = all) whole-word matches in text that do not
// overlap any claimed span. Matching always runs against the original text.
func (m *matcher) find(text string, claimed []span, limit int) []span {
	var found []span

	pos := 0
	for pos < len(text) {
		loc := m.pattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}

		start, end := pos+loc[0], pos+loc[1]
		if end > start && isWholeWord(text, start, end) && !overlaps(claimed, start, end) {
			found = append(found, span{start: start, end: end, matcher: m})
			if limit > 0 && len(found) >= limit {
				break
			}
			pos = end
			continue
		}

		// Retry one rune further so shifted candidates are not lost
		_, size := utf8.DecodeRuneInString(text[start:])
		if size == 0 {
			size = 1
		}
		pos = start + size
	}

	return found
}

// isWordRune reports whether r belongs to a word under Unicode rules
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// isWholeWord checks that text[start:end] is not glued to neighbouring word runes.
// Edges of the match that are not word runes (e.g. "C++") need no boundary.
func isWholeWord(text string, start, end int) bool {
	if start > 0 {
		first, _ := utf8.DecodeRuneInString(text[start:])
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(first) && isWordRune(prev) {
			return false
		}
	}

	if end < len(text) {
		last, _ := utf8.DecodeLastRuneInString(text[:end])
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(last) && isWordRune(next) {
			return false
		}
	}

	return true
}

func overlaps(claimed []span, start, end int) bool {
	for _, s := range claimed {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}
