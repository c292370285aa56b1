package rank

import (
	"strings"

	"github.com/hscells/elq/learning"
)

// Pruner removes candidate entities of a single query.
type Pruner func(entries []*learning.CEREntry) []*learning.CEREntry

// Prune applies the pruners, in order, to the entries of every query.
func Prune(entries []*learning.CEREntry, pruners ...Pruner) []*learning.CEREntry {
	var out []*learning.CEREntry
	groups := ByQuery(entries)
	for _, qid := range Queries(entries) {
		group := groups[qid]
		for _, p := range pruners {
			group = p(group)
		}
		out = append(out, group...)
	}
	return out
}

// ByScore keeps the entries scoring at least th.
func ByScore(th float64) Pruner {
	return func(entries []*learning.CEREntry) []*learning.CEREntry {
		var out []*learning.CEREntry
		for _, e := range entries {
			if e.Score != nil && *e.Score >= th {
				out = append(out, e)
			}
		}
		return out
	}
}

// ByThreshold keeps the entries scoring more than th.
func ByThreshold(th float64) Pruner {
	return func(entries []*learning.CEREntry) []*learning.CEREntry {
		var out []*learning.CEREntry
		for _, e := range entries {
			if e.Score != nil && *e.Score > th {
				out = append(out, e)
			}
		}
		return out
	}
}

// ByRank keeps the entries ranked k or better.
func ByRank(k int) Pruner {
	return func(entries []*learning.CEREntry) []*learning.CEREntry {
		return TopK(entries, k)
	}
}

// Delta keeps the top scoring entries down to the largest gap between consecutive scores.
// Queries with two entries or fewer are kept whole.
func Delta() Pruner {
	return func(entries []*learning.CEREntry) []*learning.CEREntry {
		if len(entries) <= 2 {
			return entries
		}
		sorted := byScore(entries)
		if len(sorted) < 2 {
			return sorted
		}
		out := []*learning.CEREntry{sorted[0]}
		max := *sorted[0].Score - *sorted[1].Score
		for i := 1; i < len(sorted); i++ {
			if i == len(sorted)-1 {
				out = append(out, sorted[i])
				break
			}
			delta := *sorted[i].Score - *sorted[i+1].Score
			if delta < max {
				break
			}
			out = append(out, sorted[i])
			max = delta
		}
		return out
	}
}

// Containment keeps, from the highest score down, the entries whose mention neither contains
// nor is contained in the mention of an entry already kept. Every mention keeps at most one
// entity.
func Containment() Pruner {
	return func(entries []*learning.CEREntry) []*learning.CEREntry {
		var (
			out      []*learning.CEREntry
			mentions []string
		)
		for _, e := range byScore(entries) {
			contained := false
			for _, m := range mentions {
				if strings.Contains(m, e.Mention) || strings.Contains(e.Mention, m) {
					contained = true
					break
				}
			}
			if !contained {
				out = append(out, e)
				mentions = append(mentions, e.Mention)
			}
		}
		return out
	}
}
