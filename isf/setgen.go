// Package isf finds the interpretation sets of queries: the ways of linking non-overlapping
// mentions of a query to ranked entities, and the choice among them.
package isf

import (
	"log"

	"github.com/hscells/elq"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/query"
	"github.com/hscells/elq/rank"
)

// SetGen generates the candidate interpretation sets of ranked queries.
type SetGen struct {
	entries  []*learning.CEREntry
	k        int
	learned  bool
	progress bool
}

// SetGenProgress shows a progress bar over the queries.
func SetGenProgress(progress bool) func(*SetGen) {
	return func(g *SetGen) {
		g.progress = progress
	}
}

// NewSetGen creates a set generator over ranked entries, keeping the top k entities of every
// query; k of 0 or less keeps them all. The entries are copied.
func NewSetGen(entries []*learning.CEREntry, k int, options ...func(*SetGen)) *SetGen {
	g := &SetGen{k: k}
	for _, e := range entries {
		c := *e
		g.entries = append(g.entries, &c)
		if len(e.Features) > 0 {
			g.learned = true
		}
	}
	for _, option := range options {
		option(g)
	}
	return g
}

// Generate creates one entry per interpretation set of every query, numbered from 0. Scores of
// entries ranked without features are min-max normalised first.
func (g *SetGen) Generate() []*learning.ISFEntry {
	if !g.learned {
		rank.Normalise(g.entries)
	}
	entries := rank.TopK(g.entries, g.k)
	groups := rank.ByQuery(entries)

	var sets []*learning.ISFEntry
	qids := rank.Queries(entries)
	bar := elq.NewProgress(len(qids), g.progress)
	for _, qid := range qids {
		group := groups[qid]
		q := query.Query{ID: qid, Content: group[0].QueryContent}

		ranked := make(map[[2]string]*learning.CEREntry, len(group))
		mentionEntities := make(map[string][]string)
		for _, e := range group {
			if e.Score == nil {
				log.Printf("ignoring unscored entity %s of query %s\n", e.EntityID, qid)
				continue
			}
			ranked[[2]string{e.EntityID, e.Mention}] = e
			mentionEntities[e.Mention] = append(mentionEntities[e.Mention], e.EntityID)
		}
		mentions := make([]string, 0, len(mentionEntities))
		for m := range mentionEntities {
			mentions = append(mentions, m)
		}

		for _, seg := range Segmentations(q, mentions) {
			for _, set := range Expand(seg, mentionEntities) {
				sets = append(sets, &learning.ISFEntry{
					ID:           len(sets),
					QueryID:      qid,
					QueryContent: q.Content,
					Set:          set,
					CER:          g.attributes(set, ranked),
					Target:       learning.DefaultTarget,
				})
			}
		}
		bar.Increment()
	}
	bar.Finish()
	log.Printf("generated %d interpretation sets for %d queries\n", len(sets), len(qids))
	return sets
}

// attributes carries the ranking attributes of each entity of the set over from its entry.
func (g *SetGen) attributes(set map[string]string, ranked map[[2]string]*learning.CEREntry) map[string]learning.CERAttributes {
	atts := make(map[string]learning.CERAttributes, len(set))
	for en, mention := range set {
		e := ranked[[2]string{en, mention}]
		a := learning.CERAttributes{
			FreebaseID: e.FreebaseID,
			Score:      e.Score,
			Rank:       e.Rank,
			Commonness: e.Commonness,
		}
		if v, ok := e.Features["mlm-tc"]; ok && g.learned {
			a.MLMTC = &v
		}
		atts[en] = a
	}
	return atts
}
