package kb

import (
	"fmt"
	"sort"

	"github.com/mailru/easyjson/jlexer"
)

// idField holds the id of stored documents.
const idField = "_id"

// decodeEntity reads an entity document of the form
// {"_id": "<dbpedia:X>", "<rdfs:label>": "X", "<dbo:wikiPageWikiLink>": ["<dbpedia:Y>", ...]}.
// Single values and lists are both accepted. The id argument is used when the document has no
// _id of its own.
func decodeEntity(id string, data []byte) (*Entity, error) {
	in := jlexer.Lexer{Data: data}
	e := NewEntity(id)
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		if key == idField {
			e.ID = in.String()
		} else {
			e.Predicates[key] = append(e.Predicates[key], values(in.Interface())...)
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()
	if err := in.Error(); err != nil {
		return nil, err
	}
	return e, nil
}

func values(v interface{}) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return []string{x}
	case []interface{}:
		s := make([]string, 0, len(x))
		for _, y := range x {
			s = append(s, values(y)...)
		}
		return s
	default:
		return []string{fmt.Sprint(x)}
	}
}

// SurfaceForm maps a predicate (the source of the surface form, e.g. facc12 or <rdfs:label>) to
// the entity URIs and how often the surface form refers to them.
type SurfaceForm map[string]map[string]float64

// decodeSurfaceForm reads {"_id": "charleston", "facc12": {"<fb:m.0fsb8>": 42}, ...}.
func decodeSurfaceForm(data []byte) (string, SurfaceForm, error) {
	in := jlexer.Lexer{Data: data}
	var text string
	sf := make(SurfaceForm)
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		if key == idField {
			text = in.String()
			in.WantComma()
			continue
		}
		counts := make(map[string]float64)
		in.Delim('{')
		for !in.IsDelim('}') {
			uri := in.String()
			in.WantColon()
			counts[uri] += in.Float64()
			in.WantComma()
		}
		in.Delim('}')
		sf[key] = counts
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()
	if err := in.Error(); err != nil {
		return "", nil, err
	}
	return text, sf, nil
}

// Predicates are the sources of the surface form in a fixed order.
func (sf SurfaceForm) Predicates() []string {
	p := make([]string, 0, len(sf))
	for k := range sf {
		p = append(p, k)
	}
	sort.Strings(p)
	return p
}
