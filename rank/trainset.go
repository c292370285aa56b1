package rank

import (
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/query"
)

// groundTruthEntities maps each query to the entities labelled relevant for it.
func groundTruthEntities(gt []*learning.CEREntry) map[string]map[string]bool {
	m := make(map[string]map[string]bool)
	for _, e := range gt {
		if e.Target != learning.PositiveLabel {
			continue
		}
		if _, ok := m[e.QueryID]; !ok {
			m[e.QueryID] = make(map[string]bool)
		}
		m[e.QueryID][e.EntityID] = true
	}
	return m
}

// TrainSet builds a training set for the learned ranker: the candidate entities of every query
// that are not in the ground truth, plus every ground truth entry of the query. Ground truth
// entries without a commonness take the commonness of their mention. Features are extracted
// when requested.
func (r *LTRRanker) TrainSet(gt []*learning.CEREntry, queries []query.Query, withFeatures bool) ([]*learning.CEREntry, error) {
	gtByQuery := ByQuery(gt)
	var train []*learning.CEREntry
	for _, q := range queries {
		cands, err := GenInstances(q, r.lookup, r.threshold, r.filter)
		if err != nil {
			return nil, err
		}
		relevant := make(map[string]bool)
		for _, e := range gtByQuery[q.ID] {
			relevant[e.EntityID] = true
		}
		for _, e := range cands {
			if !relevant[e.EntityID] {
				train = append(train, e)
			}
		}
		for _, g := range gtByQuery[q.ID] {
			e := *g
			if e.Commonness == 0 {
				c, err := r.lookup.Candidates(e.Mention, 0, false)
				if err != nil {
					return nil, err
				}
				for pair, cmn := range c.Entities {
					if pair.URI == e.EntityID {
						e.Commonness = cmn
					}
				}
			}
			if len(e.QueryContent) == 0 {
				e.QueryContent = q.Content
			}
			train = append(train, &e)
		}
	}
	Renumber(train)
	if withFeatures {
		if err := r.AddFeatures(train); err != nil {
			return nil, err
		}
	}
	return train, nil
}

// CVSet builds the set used for cross-validating the learned ranker: only the candidate
// entities of every query, with features, labelled 1 when the ground truth holds them.
func (r *LTRRanker) CVSet(gt []*learning.CEREntry, queries []query.Query) ([]*learning.CEREntry, error) {
	relevant := groundTruthEntities(gt)
	var entries []*learning.CEREntry
	for _, q := range queries {
		cands, err := GenInstances(q, r.lookup, r.threshold, r.filter)
		if err != nil {
			return nil, err
		}
		entries = append(entries, cands...)
	}
	Renumber(entries)
	if err := r.AddFeatures(entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		e.Target = learning.DefaultTarget
		if relevant[e.QueryID][e.EntityID] {
			e.Target = learning.PositiveLabel
		}
	}
	return entries, nil
}
