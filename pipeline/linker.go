// Package pipeline links the entities of queries end to end. A Linker ranks the candidate
// entities of every query and then groups them into interpretation sets, either greedily or with
// a trained set detector. It also produces the training and cross-validation runs of both stages.
package pipeline

import (
	"log"

	"github.com/hscells/elq"
	"github.com/hscells/elq/features"
	"github.com/hscells/elq/isf"
	"github.com/hscells/elq/kb"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/query"
	"github.com/hscells/elq/rank"
	"github.com/hscells/elq/stats"
)

// Linker contains everything needed for linking the entities of queries.
type Linker struct {
	config       *elq.Config
	scorer       *stats.Scorer
	lookup       *kb.CandidateLookup
	extractor    *features.Extractor
	cooccurrence kb.CoOccurrenceSource
	cerModel     learning.Model
	snapshot     kb.Snapshot
}

// LinkerCoOccurrence sets the corpus the set detector counts co-occurrences in. Linking with a
// set detector is not possible without it.
func LinkerCoOccurrence(source kb.CoOccurrenceSource) func(*Linker) {
	return func(l *Linker) {
		l.cooccurrence = source
	}
}

// LinkerCERModel ranks candidate entities with a learned model instead of MLM scores.
func LinkerCERModel(model learning.Model) func(*Linker) {
	return func(l *Linker) {
		l.cerModel = model
	}
}

// LinkerSnapshot restricts candidate entities to those in the snapshot when filtering is enabled.
func LinkerSnapshot(s kb.Snapshot) func(*Linker) {
	return func(l *Linker) {
		l.snapshot = s
	}
}

// NewLinker creates a linker over a statistics source and the stores of the knowledge base. The
// configuration is validated once here.
func NewLinker(c *elq.Config, source stats.Source, entities kb.EntityStore, surfaceForms kb.SurfaceFormStore, options ...func(*Linker)) (*Linker, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	smoothing, err := stats.SmoothingOption(c.Smoothing, c.SmoothingParam)
	if err != nil {
		return nil, err
	}

	l := &Linker{config: c, scorer: stats.NewScorer(source, smoothing)}
	for _, option := range options {
		option(l)
	}

	lookupOptions := []func(*kb.CandidateLookup){kb.LookupSource(c.SurfaceFormSource)}
	if l.snapshot != nil {
		lookupOptions = append(lookupOptions, kb.LookupSnapshot(l.snapshot))
	}
	l.lookup = kb.NewCandidateLookup(entities, surfaceForms, lookupOptions...)
	l.extractor = features.NewExtractor(entities, surfaceForms, l.scorer)
	return l, nil
}

// Ranker is the candidate entity ranker of the linker: the learned ranker when a model was
// given, otherwise the MLM ranker.
func (l *Linker) Ranker() (rank.Ranker, error) {
	if l.cerModel != nil {
		return rank.NewLTRRanker(l.config, l.lookup, l.extractor, l.cerModel)
	}
	return rank.NewMLMRanker(l.config, l.lookup, l.scorer)
}

// RankQueries ranks the candidate entities of every query.
func (l *Linker) RankQueries(queries []query.Query) ([]*learning.CEREntry, error) {
	r, err := l.Ranker()
	if err != nil {
		return nil, err
	}
	return rank.RankQueries(r, queries, l.config.Progress)
}

// LinkGreedy ranks the queries and links them with the greedy policy.
func (l *Linker) LinkGreedy(queries []query.Query) ([]*learning.ISFEntry, error) {
	ranked, err := l.RankQueries(queries)
	if err != nil {
		return nil, err
	}
	return isf.NewGreedy(l.config).Link(ranked), nil
}

func (l *Linker) detector() (*isf.SetDetector, error) {
	if l.cooccurrence == nil {
		return nil, elq.ConfigurationError("set detection requires a co-occurrence source")
	}
	return isf.NewSetDetector(l.config, l.extractor, l.cooccurrence), nil
}

// LinkSets ranks the queries, generates the interpretation sets of the top ranked entities and
// labels them with a set classifier. Every generated set is returned; accepted sets have target 1.
func (l *Linker) LinkSets(queries []query.Query, model learning.Model) ([]*learning.ISFEntry, error) {
	d, err := l.detector()
	if err != nil {
		return nil, err
	}
	ranked, err := l.RankQueries(queries)
	if err != nil {
		return nil, err
	}
	sets := isf.NewSetGen(ranked, l.config.TopK, isf.SetGenProgress(l.config.Progress)).Generate()
	if err := d.Detect(model, sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (l *Linker) ltr() (*rank.LTRRanker, error) {
	return rank.NewLTRRanker(l.config, l.lookup, l.extractor, nil)
}

// CERTrainSet builds the labelled and featured training set of the learned ranker.
func (l *Linker) CERTrainSet(gt []*learning.CEREntry, queries []query.Query) ([]*learning.CEREntry, error) {
	r, err := l.ltr()
	if err != nil {
		return nil, err
	}
	return r.TrainSet(gt, queries, true)
}

// TrainCER trains the model of the learned ranker on the ground truth.
func (l *Linker) TrainCER(gt []*learning.CEREntry, queries []query.Query) (learning.Model, error) {
	train, err := l.CERTrainSet(gt, queries)
	if err != nil {
		return nil, err
	}
	log.Printf("training entity ranker on %d entries\n", len(train))
	return rank.Train(l.config, train)
}

// ISFTrainSet ranks the queries and builds the labelled and featured training set of the set
// detector.
func (l *Linker) ISFTrainSet(gt []*learning.CEREntry, queries []query.Query) ([]*learning.ISFEntry, error) {
	d, err := l.detector()
	if err != nil {
		return nil, err
	}
	ranked, err := l.RankQueries(queries)
	if err != nil {
		return nil, err
	}
	train := isf.TrainSet(gt, ranked, l.config.TopK)
	if err := d.AddFeatures(train); err != nil {
		return nil, err
	}
	return train, nil
}

// TrainISF trains the set detector on the ground truth.
func (l *Linker) TrainISF(gt []*learning.CEREntry, queries []query.Query) (learning.Model, error) {
	train, err := l.ISFTrainSet(gt, queries)
	if err != nil {
		return nil, err
	}
	log.Printf("training set detector on %d sets\n", len(train))
	return isf.Train(l.config, train)
}

// crossValidation sets up the folds of the instances. Instances are grouped by session unless
// another property is configured, and folds are read from or saved to the configured file.
func (l *Linker) crossValidation(ins *learning.Instances) (*learning.CrossValidation, error) {
	c := l.config
	group := c.GroupBy
	if len(group) == 0 {
		group = learning.PropertySession
	}
	cv, err := learning.NewCrossValidation(c.Folds, ins,
		learning.GroupBy(group),
		learning.Seed(c.Seed),
		learning.ShowProgress(c.Progress))
	if err != nil {
		return nil, err
	}
	if len(c.FoldsPath) > 0 {
		if _, err := cv.GetFolds(c.FoldsPath); err != nil {
			return nil, err
		}
	}
	return cv, nil
}

// runFolds trains a model of the given category on every training partition and applies it to
// the testing partition.
func (l *Linker) runFolds(ins *learning.Instances, category string) (*learning.Instances, error) {
	cv, err := l.crossValidation(ins)
	if err != nil {
		return nil, err
	}
	c := *l.config
	c.ModelCategory = category
	return cv.Run(
		func(training *learning.Instances) (learning.Model, error) {
			model, err := learning.NewModel(&c)
			if err != nil {
				return nil, err
			}
			return model, learning.Train(model, training)
		},
		func(testing *learning.Instances, model learning.Model) (*learning.Instances, error) {
			return testing, learning.Apply(model, testing, category)
		})
}

// CrossValidateCER cross-validates the learned ranker over the candidate entities of the queries.
// The entries are returned scored by the model of the fold that held them out and ranked.
func (l *Linker) CrossValidateCER(gt []*learning.CEREntry, queries []query.Query) ([]*learning.CEREntry, error) {
	r, err := l.ltr()
	if err != nil {
		return nil, err
	}
	entries, err := r.CVSet(gt, queries)
	if err != nil {
		return nil, err
	}
	predicted, err := l.runFolds(learning.CEREntries(entries), l.config.ModelCategory)
	if err != nil {
		return nil, err
	}
	ranked := learning.CEREntriesFromInstances(predicted)
	rank.Sort(ranked)
	return ranked, nil
}

// CrossValidateISF cross-validates the set detector over the interpretation sets of the ranked
// queries. The sets are returned labelled by the model of the fold that held them out.
func (l *Linker) CrossValidateISF(gt []*learning.CEREntry, queries []query.Query) ([]*learning.ISFEntry, error) {
	d, err := l.detector()
	if err != nil {
		return nil, err
	}
	ranked, err := l.RankQueries(queries)
	if err != nil {
		return nil, err
	}
	sets := isf.CVSet(gt, ranked, l.config.TopK)
	if err := d.AddFeatures(sets); err != nil {
		return nil, err
	}
	predicted, err := l.runFolds(learning.ISFEntries(sets), elq.CategoryClassification)
	if err != nil {
		return nil, err
	}
	return learning.ISFEntriesFromInstances(predicted), nil
}
