package query

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Query is a normalised search query.
type Query struct {
	ID      string
	Content string
}

// New creates a query; the content is preprocessed and lower-cased.
func New(id, content string) Query {
	return Query{ID: id, Content: strings.ToLower(Preprocess(content))}
}

// Preprocess replaces non-alphanumeric characters with spaces, removes the Boolean
// operators OR and AND, and collapses whitespace.
func Preprocess(s string) string {
	s = nonAlphanumeric.ReplaceAllString(s, " ")
	s = strings.Replace(s, " OR ", " ", -1)
	s = strings.Replace(s, " AND ", " ", -1)
	return strings.Join(strings.Fields(s), " ")
}

// Terms are the whitespace delimited tokens of the query.
func (q Query) Terms() []string {
	return strings.Fields(q.Content)
}

// NGrams returns every n-gram of the query, shortest first and left to right.
func (q Query) NGrams() []string {
	terms := q.Terms()
	var ngrams []string
	for n := 1; n <= len(terms); n++ {
		for start := 0; start+n <= len(terms); start++ {
			ngrams = append(ngrams, strings.Join(terms[start:start+n], " "))
		}
	}
	return ngrams
}

// Mentions are the n-grams of the query, in the order of NGrams, as mentions looked up in the
// given surface form source.
func (q Query) Mentions(source string) []Mention {
	ngrams := q.NGrams()
	mentions := make([]Mention, len(ngrams))
	for i, ngram := range ngrams {
		mentions[i] = NewMention(ngram, source)
	}
	return mentions
}

// Session is the query id up to its last underscore, so that "trec-1_2" belongs to "trec-1".
func (q Query) Session() string {
	return Session(q.ID)
}

// Session derives a session id from a query id.
func Session(qid string) string {
	if i := strings.LastIndex(qid, "_"); i != -1 {
		return qid[:i]
	}
	return qid
}

// Context is the query with the first occurrence of the mention removed. The second return value
// is false when the mention does not occur in the query.
func (q Query) Context(mention string) (string, bool) {
	i := strings.Index(q.Content, mention)
	if i == -1 {
		return "", false
	}
	return strings.TrimSpace(q.Content[:i] + q.Content[i+len(mention):]), true
}
