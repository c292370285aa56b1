package isf

import (
	"log"
	"strings"

	"github.com/hscells/elq"
	"github.com/hscells/elq/features"
	"github.com/hscells/elq/kb"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/query"
)

// SetDetector classifies interpretation sets with a model trained on set features.
type SetDetector struct {
	extractor    *features.Extractor
	cooccurrence kb.CoOccurrenceSource
	progress     bool
}

// NewSetDetector creates a set detector. Entities are resolved and scored through the extractor;
// corpus features are counted in the co-occurrence source.
func NewSetDetector(c *elq.Config, extractor *features.Extractor, cooccurrence kb.CoOccurrenceSource) *SetDetector {
	return &SetDetector{extractor: extractor, cooccurrence: cooccurrence, progress: c.Progress}
}

// Features computes the features of an interpretation set.
func (d *SetDetector) Features(e *learning.ISFEntry) (features.Features, error) {
	ids := e.Entities()
	entities := make([]*kb.Entity, len(ids))
	fbIDs := make([]string, len(ids))
	for i, id := range ids {
		en, err := d.extractor.Entity(id)
		if err != nil {
			return nil, err
		}
		entities[i] = en
		fbIDs[i] = e.CER[id].FreebaseID
		if len(fbIDs[i]) == 0 {
			fbIDs[i] = en.FreebaseID()
		}
	}

	f := features.Graph(entities)
	cooc, err := features.CoOccurrence(d.cooccurrence, fbIDs)
	if err != nil {
		return nil, err
	}
	f.Add(cooc)

	var mentionLength float64
	for _, m := range e.Set {
		mentionLength += float64(len(strings.Fields(m)))
	}
	if n := len(strings.Fields(e.QueryContent)); n > 0 {
		f["len_ratio_set"] = mentionLength / float64(n)
	}

	scorer := d.extractor.Scorer()
	f["set_sim"], err = scorer.QuerySetSimilarity(e.QueryContent, ids, features.TitleContentsWeights)
	if err != nil {
		return nil, err
	}

	var (
		links, commonness, scores, iranks, mlmtc, contexts []float64
		learned                                            = true
	)
	q := query.Query{ID: e.QueryID, Content: e.QueryContent}
	for i, id := range ids {
		a := e.CER[id]
		links = append(links, features.EntityFeatures(entities[i])["links"])
		commonness = append(commonness, a.Commonness)
		var s, ir float64
		if a.Score != nil {
			s = *a.Score
		}
		if a.Rank > 0 {
			ir = 1 / float64(a.Rank)
		}
		scores = append(scores, s)
		iranks = append(iranks, ir)
		if a.MLMTC == nil {
			learned = false
		} else {
			mlmtc = append(mlmtc, *a.MLMTC)
		}

		var sim float64
		if context, ok := q.Context(e.Set[id]); ok {
			sim, err = scorer.ContextSimilarity(context, id, elq.FieldContents)
			if err != nil {
				return nil, err
			}
		} else {
			log.Printf("mention %q does not occur in query %s (%s)\n", e.Set[id], e.QueryID, e.QueryContent)
		}
		contexts = append(contexts, sim)
	}

	f.Add(Aggregate("links", links)).
		Add(Aggregate("commonness", commonness)).
		Add(Aggregate("score", scores)).
		Add(Aggregate("irank", iranks)).
		Add(Aggregate("context_sim", contexts))
	if learned {
		f.Add(Aggregate("mlm-tc", mlmtc))
	}
	return f, nil
}

// AddFeatures computes the features of every entry.
func (d *SetDetector) AddFeatures(entries []*learning.ISFEntry) error {
	bar := elq.NewProgress(len(entries), d.progress)
	for _, e := range entries {
		f, err := d.Features(e)
		if err != nil {
			return err
		}
		e.Features = f
		bar.Increment()
	}
	bar.Finish()
	return nil
}

// Detect labels every entry with the model, extracting features first when the entries have
// none. Accepted sets have target 1 and are scored with the probability of acceptance.
func (d *SetDetector) Detect(model learning.Model, entries []*learning.ISFEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if len(entries[0].Features) == 0 {
		if err := d.AddFeatures(entries); err != nil {
			return err
		}
	}
	return Apply(model, entries)
}

// Apply labels entries that already have features with the model.
func Apply(model learning.Model, entries []*learning.ISFEntry) error {
	ins := learning.ISFEntries(entries)
	if err := learning.Apply(model, ins, elq.CategoryClassification); err != nil {
		return err
	}
	for _, e := range entries {
		i, _ := ins.Get(e.ID)
		e.Score = i.Score()
		e.Target = i.Target
	}
	return nil
}

// Train trains a set classifier of the configured model kind on labelled entries.
func Train(c *elq.Config, entries []*learning.ISFEntry) (learning.Model, error) {
	cc := *c
	cc.ModelCategory = elq.CategoryClassification
	model, err := learning.NewModel(&cc)
	if err != nil {
		return nil, err
	}
	if err := learning.Train(model, learning.ISFEntries(entries)); err != nil {
		return nil, err
	}
	return model, nil
}
