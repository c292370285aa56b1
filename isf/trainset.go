package isf

import (
	"sort"

	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/rank"
)

// GroundTruthSets turns ground truth entries into interpretation sets: the entries of a query
// with the same set id form one accepted set. Sets are numbered from 0, by query and set id.
func GroundTruthSets(gt []*learning.CEREntry) []*learning.ISFEntry {
	var sets []*learning.ISFEntry
	groups := rank.ByQuery(gt)
	for _, qid := range rank.Queries(gt) {
		bySet := make(map[string]map[string]string)
		for _, e := range groups[qid] {
			if e.SetID == learning.NoSet {
				continue
			}
			if _, ok := bySet[e.SetID]; !ok {
				bySet[e.SetID] = make(map[string]string)
			}
			bySet[e.SetID][e.EntityID] = e.Mention
		}
		ids := make([]string, 0, len(bySet))
		for id := range bySet {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			sets = append(sets, &learning.ISFEntry{
				ID:           len(sets),
				QueryID:      qid,
				QueryContent: groups[qid][0].QueryContent,
				Set:          bySet[id],
				Target:       learning.PositiveLabel,
			})
		}
	}
	return sets
}

// sameSet reports whether two sets link the same entities to the same mentions.
func sameSet(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for en, m := range a {
		if n, ok := b[en]; !ok || n != m {
			return false
		}
	}
	return true
}

func find(e *learning.ISFEntry, gt []*learning.ISFEntry) *learning.ISFEntry {
	for _, g := range gt {
		if sameSet(e.Set, g.Set) {
			return g
		}
	}
	return nil
}

func inTopK(e *learning.ISFEntry, k int) bool {
	if k <= 0 {
		return true
	}
	for _, a := range e.CER {
		if a.Rank > k {
			return false
		}
	}
	return true
}

// TrainSet builds the training set of the set detector from ranked entries. Every interpretation
// set of a query is generated without a top-k cutoff; sets in the ground truth take its label and
// the others are kept, as negatives, only when all their entities are ranked k or better.
func TrainSet(gt, ranked []*learning.CEREntry, k int) []*learning.ISFEntry {
	gtSets := groupSets(GroundTruthSets(gt))
	var train []*learning.ISFEntry
	groups := rank.ByQuery(ranked)
	for _, qid := range rank.Queries(ranked) {
		for _, e := range NewSetGen(groups[qid], 0).Generate() {
			if g := find(e, gtSets[qid]); g != nil {
				e.Target = g.Target
			} else if !inTopK(e, k) {
				continue
			}
			e.ID = len(train)
			train = append(train, e)
		}
	}
	return train
}

// CVSet builds the cross-validation set of the set detector: the interpretation sets of the top
// k ranked entities, labelled 1 when the ground truth holds them.
func CVSet(gt, ranked []*learning.CEREntry, k int) []*learning.ISFEntry {
	gtSets := groupSets(GroundTruthSets(gt))
	sets := NewSetGen(ranked, k).Generate()
	for _, e := range sets {
		if g := find(e, gtSets[e.QueryID]); g != nil {
			e.Target = g.Target
		}
	}
	return sets
}

func groupSets(sets []*learning.ISFEntry) map[string][]*learning.ISFEntry {
	m := make(map[string][]*learning.ISFEntry)
	for _, s := range sets {
		m[s.QueryID] = append(m[s.QueryID], s)
	}
	return m
}
