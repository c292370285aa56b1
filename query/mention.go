package query

import "strings"

// Mention is an n-gram of a query hypothesised to refer to an entity.
type Mention struct {
	Text string
	// Source names where the surface forms of the mention are looked up.
	Source string
}

// NewMention creates a lower-cased mention.
func NewMention(text, source string) Mention {
	return Mention{Text: strings.ToLower(text), Source: source}
}

// Tokens are the whitespace delimited tokens of the mention.
func (m Mention) Tokens() []string {
	return strings.Fields(m.Text)
}

// Overlapping reports whether a token occurs in more than one of the mentions. A token repeated
// within a single mention does not count.
func Overlapping(mentions []string) bool {
	seen := make(map[string]int)
	for i, m := range mentions {
		for _, t := range strings.Fields(m) {
			if j, ok := seen[t]; ok && j != i {
				return true
			}
			seen[t] = i
		}
	}
	return false
}

// Overlaps reports whether two mentions share a token.
func Overlaps(a, b string) bool {
	return Overlapping([]string{a, b})
}
