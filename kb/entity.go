// Package kb looks up knowledge base entities, their surface forms and how often they co-occur in
// an annotated corpus.
package kb

import (
	"net/url"
	"sort"
	"strings"

	"github.com/hscells/elq"
	"github.com/pkg/errors"
)

// Entity is a DBpedia entity: its prefixed URI and the values of each of its predicates.
type Entity struct {
	ID         string
	Predicates map[string][]string
}

// NewEntity creates an entity with no predicates.
func NewEntity(id string) *Entity {
	return &Entity{ID: id, Predicates: make(map[string][]string)}
}

// Add appends values to a predicate.
func (e *Entity) Add(predicate string, values ...string) *Entity {
	e.Predicates[predicate] = append(e.Predicates[predicate], values...)
	return e
}

// Values are the values of a predicate, nil when the entity does not have it.
func (e *Entity) Values(predicate string) []string {
	if e == nil {
		return nil
	}
	return e.Predicates[predicate]
}

func (e *Entity) first(predicate string) string {
	if v := e.Values(predicate); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Title is the name of the entity.
func (e *Entity) Title() string {
	return e.first(elq.FieldTitle)
}

// ShortAbstract is the entity description.
func (e *Entity) ShortAbstract() string {
	return e.first(elq.FieldShortAbstract)
}

// LongAbstract is the first paragraph of the entity article.
func (e *Entity) LongAbstract() string {
	return e.first(elq.FieldLongAbstract)
}

// InverseRedirects are the unique pages redirecting to the entity.
func (e *Entity) InverseRedirects() []string {
	return unique(e.Values(elq.FieldInverseRedirect))
}

// WikiLinks are the unique entities the entity links to.
func (e *Entity) WikiLinks() []string {
	return unique(e.Values(elq.FieldWikiLinks))
}

// Categories of the entity.
func (e *Entity) Categories() []string {
	return e.Values(elq.FieldCategories)
}

// SameAs are the URIs of the same entity in other knowledge bases.
func (e *Entity) SameAs() []string {
	return e.Values(elq.FieldSameAs)
}

// IsRedirect reports whether the entity is only a redirect to another entity.
func (e *Entity) IsRedirect() bool {
	return len(e.Values(elq.FieldRedirect)) > 0
}

// FreebaseID is the Freebase id of the first Freebase sameAs link, or the empty string.
func (e *Entity) FreebaseID() string {
	for _, uri := range e.SameAs() {
		if id, err := FreebaseURIToID(uri); err == nil {
			return id
		}
	}
	return ""
}

// Document turns the entity into the fields of an entity document: every predicate with URIs
// resolved to their names, names holding the title and redirects, and contents holding every
// value.
func (e *Entity) Document() map[string][]string {
	doc := make(map[string][]string, len(e.Predicates)+2)
	predicates := make([]string, 0, len(e.Predicates))
	for p := range e.Predicates {
		predicates = append(predicates, p)
	}
	sort.Strings(predicates)

	for _, p := range predicates {
		for _, v := range e.Predicates[p] {
			r := ResolveURI(v)
			if len(r) == 0 {
				continue
			}
			doc[p] = append(doc[p], r)
			doc[elq.FieldContents] = append(doc[elq.FieldContents], r)
			switch p {
			case elq.FieldTitle, elq.FieldInverseRedirect:
				doc[elq.FieldNames] = append(doc[elq.FieldNames], r)
			}
		}
	}
	return doc
}

// ResolveURI turns a prefixed URI such as <dbpedia:Charleston,_South_Carolina> into the text
// "Charleston, South Carolina". Values that are not URIs are returned as they are.
func ResolveURI(v string) string {
	if u, err := url.PathUnescape(v); err == nil {
		v = u
	}
	if strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">") {
		return strings.Replace(v[strings.LastIndex(v, ":")+1:len(v)-1], "_", " ", -1)
	}
	return v
}

// IsDBpediaURI reports whether v looks like <dbpedia:...>.
func IsDBpediaURI(v string) bool {
	return strings.HasPrefix(v, "<dbpedia:") && strings.HasSuffix(v, ">")
}

// FreebaseIDToURI translates "/m/02_286" to "<fb:m.02_286>".
func FreebaseIDToURI(id string) (string, error) {
	if !strings.HasPrefix(id, "/m/") {
		return "", errors.Errorf("invalid freebase id %q", id)
	}
	return "<fb:m." + id[3:] + ">", nil
}

// FreebaseURIToID translates "<fb:m.02_286>" to "/m/02_286".
func FreebaseURIToID(uri string) (string, error) {
	if !strings.HasPrefix(uri, "<fb:m.") || !strings.HasSuffix(uri, ">") {
		return "", errors.Errorf("invalid freebase uri %q", uri)
	}
	return "/m/" + uri[6:len(uri)-1], nil
}

func unique(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	u := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		u = append(u, v)
	}
	return u
}
