// Package rank ranks the candidate entities of queries, either with a mixture of language models
// or with a learned model over entity features.
package rank

import (
	"log"
	"sort"

	"github.com/hscells/elq/kb"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/query"
)

// GenInstances creates one entry per candidate entity of every n-gram of the query. Entries are
// numbered from 0, n-grams shortest first and entities in a fixed order.
func GenInstances(q query.Query, lookup *kb.CandidateLookup, threshold float64, filter bool) ([]*learning.CEREntry, error) {
	cands, err := lookup.QueryCandidates(q, threshold, filter)
	if err != nil {
		return nil, err
	}
	var entries []*learning.CEREntry
	seen := make(map[string]bool)
	for _, m := range lookup.Mentions(q) {
		mention := m.Text
		if seen[mention] {
			continue
		}
		seen[mention] = true
		c := cands[mention]
		for _, pair := range c.Pairs() {
			entries = append(entries, &learning.CEREntry{
				ID:           len(entries),
				QueryID:      q.ID,
				QueryContent: q.Content,
				Mention:      mention,
				EntityID:     pair.URI,
				FreebaseID:   pair.FreebaseID,
				Commonness:   c.Entities[pair],
				Matches:      c.Matches,
			})
		}
	}
	if len(entries) == 0 {
		log.Printf("no candidate entities for query %s (%s)\n", q.ID, q.Content)
	}
	return entries, nil
}

// Renumber gives the entries consecutive ids from 0.
func Renumber(entries []*learning.CEREntry) []*learning.CEREntry {
	for i, e := range entries {
		e.ID = i
	}
	return entries
}

// ByQuery groups entries by query id, keeping their order.
func ByQuery(entries []*learning.CEREntry) map[string][]*learning.CEREntry {
	groups := make(map[string][]*learning.CEREntry)
	for _, e := range entries {
		groups[e.QueryID] = append(groups[e.QueryID], e)
	}
	return groups
}

// Queries are the query ids of the entries in sorted order.
func Queries(entries []*learning.CEREntry) []string {
	groups := ByQuery(entries)
	qids := make([]string, 0, len(groups))
	for qid := range groups {
		qids = append(qids, qid)
	}
	sort.Strings(qids)
	return qids
}

// byScore orders the scored entries by decreasing score, then by id.
func byScore(entries []*learning.CEREntry) []*learning.CEREntry {
	scored := make([]*learning.CEREntry, 0, len(entries))
	for _, e := range entries {
		if e.Score != nil {
			scored = append(scored, e)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if *scored[i].Score == *scored[j].Score {
			return scored[i].ID < scored[j].ID
		}
		return *scored[i].Score > *scored[j].Score
	})
	return scored
}

// Sort ranks the entries of every query by decreasing score. Ranks count distinct entities:
// an entity ranked before keeps its earlier rank, every new entity takes the next rank.
// Entries without a score are not ranked and have rank 0.
func Sort(entries []*learning.CEREntry) {
	for _, group := range ByQuery(entries) {
		for _, e := range group {
			e.Rank = 0
		}
		ranks := make(map[string]int)
		for _, e := range byScore(group) {
			r, ok := ranks[e.FreebaseID]
			if !ok {
				r = len(ranks) + 1
				ranks[e.FreebaseID] = r
			}
			e.Rank = r
		}
	}
}

// Normalise min-max normalises the scores of every query. When all the scores of a query are
// equal they become 0.5.
func Normalise(entries []*learning.CEREntry) {
	for _, group := range ByQuery(entries) {
		scored := byScore(group)
		if len(scored) == 0 {
			continue
		}
		max, min := *scored[0].Score, *scored[len(scored)-1].Score
		for _, e := range scored {
			v := 0.5
			if max != min {
				v = (*e.Score - min) / (max - min)
			}
			e.Score = &v
		}
	}
}

// TopK ranks the entries and keeps those ranked k or better. A k of 0 or less keeps every entry.
func TopK(entries []*learning.CEREntry, k int) []*learning.CEREntry {
	Sort(entries)
	if k <= 0 {
		return entries
	}
	var top []*learning.CEREntry
	for _, e := range entries {
		if e.Rank > 0 && e.Rank <= k {
			top = append(top, e)
		}
	}
	return top
}
