package isf

import (
	"github.com/hscells/elq"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/query"
	"github.com/hscells/elq/rank"
)

// Greedy links queries without a set classifier: entities scoring below a threshold are dropped,
// overlapping mentions are resolved in favour of the higher score, and the remaining entities
// are grouped into interpretations.
type Greedy struct {
	threshold float64
}

// NewGreedy creates a greedy linker with the score threshold of the configuration.
func NewGreedy(c *elq.Config) *Greedy {
	return &Greedy{threshold: c.ScoreThreshold}
}

// Link produces the accepted interpretation sets of every query. Each set is scored with the
// mean score of its entities.
func (g *Greedy) Link(entries []*learning.CEREntry) []*learning.ISFEntry {
	var sets []*learning.ISFEntry
	groups := rank.ByQuery(entries)
	for _, qid := range rank.Queries(entries) {
		pruned := rank.Containment()(rank.ByScore(g.threshold)(groups[qid]))
		for _, inter := range interpretations(pruned) {
			sets = append(sets, interpretationSet(len(sets), inter))
		}
	}
	return sets
}

// interpretations places each entry, in order, into the first interpretation none of whose
// mentions it overlaps, starting a new interpretation when there is none.
func interpretations(entries []*learning.CEREntry) [][]*learning.CEREntry {
	var (
		groups   [][]*learning.CEREntry
		mentions [][]string
	)
	for _, e := range entries {
		placed := false
		for i := range groups {
			if !query.Overlapping(append(append([]string(nil), mentions[i]...), e.Mention)) {
				groups[i] = append(groups[i], e)
				mentions[i] = append(mentions[i], e.Mention)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []*learning.CEREntry{e})
			mentions = append(mentions, []string{e.Mention})
		}
	}
	return groups
}

func interpretationSet(id int, inter []*learning.CEREntry) *learning.ISFEntry {
	set := &learning.ISFEntry{
		ID:           id,
		QueryID:      inter[0].QueryID,
		QueryContent: inter[0].QueryContent,
		Set:          make(map[string]string, len(inter)),
		CER:          make(map[string]learning.CERAttributes, len(inter)),
		Target:       learning.PositiveLabel,
	}
	var total float64
	for _, e := range inter {
		set.Set[e.EntityID] = e.Mention
		set.CER[e.EntityID] = learning.CERAttributes{
			FreebaseID: e.FreebaseID,
			Score:      e.Score,
			Rank:       e.Rank,
			Commonness: e.Commonness,
		}
		total += *e.Score
	}
	score := total / float64(len(inter))
	set.Score = &score
	return set
}
