package classifier

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// text is lowercased, stripped of punctuation and padded with single spaces so that phrase lookups
// only match whole words.
type text string

func normalize(s string) text {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')

	space := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}

	return text(b.String())
}

// normalizeTerm turns a configured keyword into the padded form used by contains.
func normalizeTerm(term string) string {
	return string(normalize(term))
}

func (t text) contains(term string) bool {
	if term == "" || term == " " {
		return false
	}
	return strings.Contains(string(t), term)
}

func (t text) containsAny(terms []string) bool {
	for _, term := range terms {
		if t.contains(term) {
			return true
		}
	}
	return false
}

func (t text) empty() bool {
	return strings.TrimSpace(string(t)) == ""
}

type sanitizer struct {
	policy *bluemonday.Policy
}

func newSanitizer() *sanitizer {
	policy := bluemonday.StrictPolicy()
	policy.AddSpaceWhenStrippingTag(true)
	return &sanitizer{policy: policy}
}

// plain strips markup from job descriptions that arrive as HTML.
func (s *sanitizer) plain(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return raw
	}
	return html.UnescapeString(s.policy.Sanitize(raw))
}
