package stats

import (
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
	"github.com/dan-locke/clean-html"
	"github.com/hscells/go-unidecode"
	"github.com/reiver/go-porterstemmer"
)

// Analyser turns field text into index terms.
type Analyser func(text string) []string

// Tokenise transliterates text to ASCII, drops markup and lower-cases it, then splits on every
// character that is not a letter or a digit. It produces the same terms as query normalisation.
func Tokenise(text string) []string {
	txt := unidecode.Unidecode(strings.ToLower(text))
	if !strings.ContainsRune(txt, '<') {
		return splitAlphanumeric(txt)
	}

	portions, err := clean_html.TextPos([]byte(txt))
	if err != nil || len(portions.Positions) == 0 {
		return splitAlphanumeric(txt)
	}

	var tokens []string
	for _, pos := range portions.Positions {
		tokens = append(tokens, splitAlphanumeric(txt[pos[0]:pos[1]])...)
	}
	return tokens
}

func splitAlphanumeric(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// PorterAnalyser tokenises and then stems every term.
func PorterAnalyser(text string) []string {
	tokens := Tokenise(text)
	for i, t := range tokens {
		tokens[i] = porterstemmer.StemString(t)
	}
	return tokens
}

// StopAnalyser removes English stop words before tokenising.
func StopAnalyser(text string) []string {
	return Tokenise(stopwords.CleanString(text, "en", false))
}
