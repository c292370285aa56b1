// Package features extracts the features of candidate entities and of interpretation sets.
package features

import (
	"sort"
	"strings"

	"github.com/hscells/elq"
	"github.com/hscells/elq/kb"
	"github.com/hscells/elq/query"
	"github.com/hscells/elq/stats"
)

// Features maps feature names to values.
type Features map[string]float64

// Add copies every feature of o into f.
func (f Features) Add(o Features) Features {
	for k, v := range o {
		f[k] = v
	}
	return f
}

// Names are the feature names in sorted order.
func (f Features) Names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NotFound is the value of pos1 when the mention is not in the short abstract.
const NotFound = 1000

// LMFields are the fields scored for the LM features, keyed by the feature name suffix.
var LMFields = map[string]string{
	"title":    elq.FieldTitle,
	"sAbs":     elq.FieldShortAbstract,
	"lAbs":     elq.FieldLongAbstract,
	"links":    elq.FieldWikiLinks,
	"cats":     elq.FieldCategories,
	"catchall": elq.FieldContents,
}

// TitleContentsWeights are the MLM weights of the mlm-tc feature.
var TitleContentsWeights = map[string]float64{
	elq.FieldNames:    0.2,
	elq.FieldContents: 0.8,
}

// Extractor computes the features of candidate entities.
type Extractor struct {
	entities     kb.EntityStore
	surfaceForms kb.SurfaceFormStore
	scorer       *stats.Scorer
}

// NewExtractor creates an extractor.
func NewExtractor(entities kb.EntityStore, surfaceForms kb.SurfaceFormStore, scorer *stats.Scorer) *Extractor {
	return &Extractor{entities: entities, surfaceForms: surfaceForms, scorer: scorer}
}

// Scorer is the language model scorer of the extractor.
func (x *Extractor) Scorer() *stats.Scorer {
	return x.scorer
}

// Entity looks up an entity; an entity missing from the store is returned empty.
func (x *Extractor) Entity(id string) (*kb.Entity, error) {
	e, err := x.entities.Entity(id)
	if elq.IsLookupMiss(err) {
		return kb.NewEntity(id), nil
	}
	return e, err
}

// titles is the number of entities whose title equals the text.
func (x *Extractor) titles(text string) (int, error) {
	sf, err := x.surfaceForms.SurfaceForm(text)
	if elq.IsLookupMiss(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(sf[elq.FieldTitle]), nil
}

// Mention computes len, ntem, smil, matches and len_ratio.
func (x *Extractor) Mention(mention, q string, matches int) (Features, error) {
	ntem, err := x.titles(mention)
	if err != nil {
		return nil, err
	}
	var smil int
	for _, ngram := range query.New("", mention).NGrams() {
		n, err := x.titles(ngram)
		if err != nil {
			return nil, err
		}
		smil += n
	}
	length := float64(len(strings.Fields(mention)))
	var ratio float64
	if ql := len(strings.Fields(query.Preprocess(q))); ql > 0 {
		ratio = length / float64(ql)
	}
	return Features{
		"len":       length,
		"ntem":      float64(ntem),
		"smil":      float64(smil),
		"matches":   float64(matches),
		"len_ratio": ratio,
	}, nil
}

// EntityFeatures are the number of unique redirects to and links from the entity.
func EntityFeatures(e *kb.Entity) Features {
	return Features{
		"redirects": float64(len(e.InverseRedirects())),
		"links":     float64(len(e.WikiLinks())),
	}
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// containment compares the normalised title of the entity with the text: text contains title,
// title contains text, and title equals text. An entity without a title matches nothing.
func containment(e *kb.Entity, text string) (float64, float64, float64) {
	title := strings.ToLower(query.Preprocess(e.Title()))
	if len(title) == 0 {
		return 0, 0, 0
	}
	text = strings.ToLower(text)
	return indicator(strings.Contains(text, title)),
		indicator(strings.Contains(title, text)),
		indicator(title == text)
}

// EntityMention computes commonness, mct, tcm, tem and pos1.
func EntityMention(e *kb.Entity, mention string, commonness float64) Features {
	mct, tcm, tem := containment(e, mention)
	pos := float64(NotFound)
	if i := strings.Index(strings.ToLower(e.ShortAbstract()), strings.ToLower(mention)); i != -1 {
		pos = float64(i)
	}
	return Features{
		"commonness": commonness,
		"mct":        mct,
		"tcm":        tcm,
		"tem":        tem,
		"pos1":       pos,
	}
}

// EntityQuery computes qct, tcq and teq.
func EntityQuery(e *kb.Entity, q string) Features {
	qct, tcq, teq := containment(e, q)
	return Features{
		"qct": qct,
		"tcq": tcq,
		"teq": teq,
	}
}

// LM scores the text against every field of LMFields; no evidence scores 0.
func (x *Extractor) LM(entityID, text, prefix string) (Features, error) {
	f := make(Features, len(LMFields))
	for name, field := range LMFields {
		score, ok, err := x.scorer.NLLRLM(text, entityID, field)
		if err != nil {
			return nil, err
		}
		if !ok {
			score = 0
		}
		f[prefix+name] = score
	}
	return f, nil
}

// TitleContents is the mlm-tc score of the query; no evidence scores 0.
func (x *Extractor) TitleContents(entityID, q string) (float64, error) {
	score, ok, err := x.scorer.NLLRMLM(q, entityID, TitleContentsWeights)
	if err != nil || !ok {
		return 0, err
	}
	return score, nil
}

// CER computes every feature of a candidate entity of a mention in a query.
func (x *Extractor) CER(q query.Query, mention, entityID string, commonness float64, matches int) (Features, error) {
	e, err := x.Entity(entityID)
	if err != nil {
		return nil, err
	}
	f, err := x.Mention(mention, q.Content, matches)
	if err != nil {
		return nil, err
	}
	f.Add(EntityFeatures(e)).
		Add(EntityMention(e, mention, commonness)).
		Add(EntityQuery(e, q.Content))

	m, err := x.LM(entityID, mention, "m")
	if err != nil {
		return nil, err
	}
	f.Add(m)
	ql, err := x.LM(entityID, q.Content, "q")
	if err != nil {
		return nil, err
	}
	f.Add(ql)
	f["mlm-tc"], err = x.TitleContents(entityID, q.Content)
	if err != nil {
		return nil, err
	}
	return f, nil
}
