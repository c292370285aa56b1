package rank

import (
	"log"
	"math"
	"strings"

	"github.com/hscells/elq"
	"github.com/hscells/elq/features"
	"github.com/hscells/elq/kb"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/query"
	"github.com/hscells/elq/stats"
)

// CommonnessFloor replaces a commonness of 0 before it is combined with a score in log space.
const CommonnessFloor = 1e-5

// Ranker ranks the candidate entities of a query.
type Ranker interface {
	Rank(q query.Query) ([]*learning.CEREntry, error)
}

// RankQueries ranks every query and joins the entries, renumbered from 0.
func RankQueries(r Ranker, queries []query.Query, progress bool) ([]*learning.CEREntry, error) {
	var all []*learning.CEREntry
	bar := elq.NewProgress(len(queries), progress)
	for _, q := range queries {
		entries, err := r.Rank(q)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
		bar.Increment()
	}
	bar.Finish()
	log.Printf("ranked %d candidate entities for %d queries\n", len(all), len(queries))
	return Renumber(all), nil
}

// MLMRanker scores candidate entities with the NLLR of the query under a mixture of the
// entity's field language models, optionally multiplied by the commonness of the mention.
type MLMRanker struct {
	lookup     *kb.CandidateLookup
	scorer     *stats.Scorer
	weights    map[string]float64
	threshold  float64
	filter     bool
	commonness bool
}

// NewMLMRanker creates an MLM ranker from the run configuration.
func NewMLMRanker(c *elq.Config, lookup *kb.CandidateLookup, scorer *stats.Scorer) (*MLMRanker, error) {
	if c.CommonnessThreshold == nil {
		return nil, elq.ConfigurationError("commonness threshold is required")
	}
	if err := elq.ValidateWeights(c.Weights); err != nil {
		return nil, err
	}
	return &MLMRanker{
		lookup:     lookup,
		scorer:     scorer,
		weights:    c.FieldWeights(),
		threshold:  *c.CommonnessThreshold,
		filter:     c.Filter,
		commonness: c.CombineCommonness,
	}, nil
}

// Score scores the entries. Entries with no evidence get a nil score.
func (r *MLMRanker) Score(entries []*learning.CEREntry) error {
	for _, e := range entries {
		score, ok, err := r.scorer.NLLRMLM(e.QueryContent, e.EntityID, r.weights)
		if err != nil {
			return err
		}
		if !ok {
			e.Score = nil
			continue
		}
		if r.commonness {
			cmn := e.Commonness
			if cmn == 0 {
				cmn = CommonnessFloor
			}
			score = math.Exp(math.Log(score) + math.Log(cmn))
		}
		e.Score = &score
	}
	return nil
}

// Rank generates, scores and ranks the candidate entities of a query.
func (r *MLMRanker) Rank(q query.Query) ([]*learning.CEREntry, error) {
	entries, err := GenInstances(q, r.lookup, r.threshold, r.filter)
	if err != nil {
		return nil, err
	}
	if err := r.Score(entries); err != nil {
		return nil, err
	}
	Sort(entries)
	return entries, nil
}

// LTRRanker scores candidate entities with a model trained on their features.
type LTRRanker struct {
	lookup    *kb.CandidateLookup
	extractor *features.Extractor
	model     learning.Model
	category  string
	threshold float64
	filter    bool
	progress  bool
}

// NewLTRRanker creates a learned ranker from the run configuration. The model may be nil when
// the ranker is only used to extract features.
func NewLTRRanker(c *elq.Config, lookup *kb.CandidateLookup, extractor *features.Extractor, model learning.Model) (*LTRRanker, error) {
	if c.CommonnessThreshold == nil {
		return nil, elq.ConfigurationError("commonness threshold is required")
	}
	return &LTRRanker{
		lookup:    lookup,
		extractor: extractor,
		model:     model,
		category:  c.ModelCategory,
		threshold: *c.CommonnessThreshold,
		filter:    c.Filter,
		progress:  c.Progress,
	}, nil
}

// AddFeatures extracts the features of every entry.
func (r *LTRRanker) AddFeatures(entries []*learning.CEREntry) error {
	bar := elq.NewProgress(len(entries), r.progress)
	for _, e := range entries {
		f, err := r.extractor.CER(query.Query{ID: e.QueryID, Content: e.QueryContent}, e.Mention, e.EntityID, e.Commonness, e.Matches)
		if err != nil {
			return err
		}
		e.Features = f
		bar.Increment()
	}
	bar.Finish()
	return nil
}

// Train trains a model of the configured kind on labelled entries.
func Train(c *elq.Config, entries []*learning.CEREntry) (learning.Model, error) {
	model, err := learning.NewModel(c)
	if err != nil {
		return nil, err
	}
	if err := learning.Train(model, learning.CEREntries(entries)); err != nil {
		return nil, err
	}
	return model, nil
}

// Score applies a model to entries that already have features.
func Score(model learning.Model, category string, entries []*learning.CEREntry) error {
	ins := learning.CEREntries(entries)
	if err := learning.Apply(model, ins, category); err != nil {
		return err
	}
	for _, e := range entries {
		i, _ := ins.Get(e.ID)
		e.Score = i.Score()
		e.Target = i.Target
	}
	return nil
}

// Rank generates the candidate entities of a query, extracts their features and scores them
// with the model.
func (r *LTRRanker) Rank(q query.Query) ([]*learning.CEREntry, error) {
	entries, err := GenInstances(q, r.lookup, r.threshold, r.filter)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}
	if err := r.AddFeatures(entries); err != nil {
		return nil, err
	}
	if err := Score(r.model, r.category, entries); err != nil {
		return nil, err
	}
	Sort(entries)
	return entries, nil
}

// CommonnessRanker is a baseline that links the longest n-grams of a query that have candidate
// entities and scores the entities by their commonness.
type CommonnessRanker struct {
	lookup    *kb.CandidateLookup
	threshold float64
	filter    bool
}

// NewCommonnessRanker creates the baseline ranker from the run configuration.
func NewCommonnessRanker(c *elq.Config, lookup *kb.CandidateLookup) (*CommonnessRanker, error) {
	if c.CommonnessThreshold == nil {
		return nil, elq.ConfigurationError("commonness threshold is required")
	}
	return &CommonnessRanker{lookup: lookup, threshold: *c.CommonnessThreshold, filter: c.Filter}, nil
}

// Rank looks up the n-grams of the query from the longest down and stops at the first length
// for which any n-gram has candidates.
func (r *CommonnessRanker) Rank(q query.Query) ([]*learning.CEREntry, error) {
	byLength := make(map[int][]string)
	for _, ngram := range q.NGrams() {
		n := len(strings.Fields(ngram))
		byLength[n] = append(byLength[n], ngram)
	}

	var entries []*learning.CEREntry
	for n := len(q.Terms()); n > 0 && len(entries) == 0; n-- {
		for _, ngram := range byLength[n] {
			c, err := r.lookup.Candidates(ngram, r.threshold, r.filter)
			if err != nil {
				return nil, err
			}
			for _, pair := range c.Pairs() {
				score := c.Entities[pair]
				entries = append(entries, &learning.CEREntry{
					ID:           len(entries),
					QueryID:      q.ID,
					QueryContent: q.Content,
					Mention:      ngram,
					EntityID:     pair.URI,
					FreebaseID:   pair.FreebaseID,
					Commonness:   score,
					Matches:      c.Matches,
					Score:        &score,
				})
			}
		}
	}
	if len(entries) == 0 {
		log.Printf("no candidate entities for query %s (%s)\n", q.ID, q.Content)
	}
	Sort(entries)
	return entries, nil
}
