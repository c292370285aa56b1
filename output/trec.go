package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/hscells/elq/eval"
	"github.com/hscells/elq/learning"
	"github.com/hscells/trecresults"
)

// TrecResults builds a ranking run from ranked entries: one result per query and entity, the
// best scoring entry of the entity, ordered by query and rank. Entries without a score are left
// out. Entities are named by their Freebase id unless useDBpedia is set.
func TrecResults(entries []*learning.CEREntry, runID string, useDBpedia bool) trecresults.ResultList {
	best := make(map[[2]string]*learning.CEREntry)
	for _, e := range entries {
		if e.Score == nil {
			continue
		}
		k := [2]string{e.QueryID, e.FreebaseID}
		if b, ok := best[k]; !ok || *b.Score < *e.Score {
			best[k] = e
		}
	}

	results := make(trecresults.ResultList, 0, len(best))
	for _, e := range best {
		id := e.FreebaseID
		if useDBpedia {
			id = e.EntityID
		}
		results = append(results, &trecresults.Result{
			Topic:     e.QueryID,
			Iteration: "Q0",
			DocId:     id,
			Rank:      int64(e.Rank),
			Score:     *e.Score,
			RunName:   runID,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Topic != results[j].Topic {
			return results[i].Topic < results[j].Topic
		}
		if results[i].Rank != results[j].Rank {
			return results[i].Rank < results[j].Rank
		}
		return results[i].DocId < results[j].DocId
	})
	return results
}

// TrecEval writes ranked entries in the tab separated trec_eval run format.
func TrecEval(w io.Writer, entries []*learning.CEREntry, runID string, useDBpedia bool) error {
	for _, r := range TrecResults(entries, runID, useDBpedia) {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", r.Topic, r.Iteration, r.DocId, r.Rank, strconv.FormatFloat(r.Score, 'f', -1, 64), r.RunName)
		if err != nil {
			return err
		}
	}
	return nil
}

// Qrels writes the relevant entities of the ground truth as trec_eval relevance assessments,
// once per query and entity.
func Qrels(w io.Writer, gt []*learning.CEREntry) error {
	seen := make(map[[2]string]bool)
	for _, e := range gt {
		k := [2]string{e.QueryID, e.FreebaseID}
		if e.Target != learning.PositiveLabel || seen[k] {
			continue
		}
		seen[k] = true
		q := trecresults.Qrel{Topic: e.QueryID, Iteration: "0", DocId: e.FreebaseID, Score: 1}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", q.Topic, q.Iteration, q.DocId, q.Score); err != nil {
			return err
		}
	}
	return nil
}

// ERDEval writes the accepted interpretation sets of every query, one line of the query id, the
// score and the Freebase ids of the set. Sets are written from the highest score down and a set
// with the same entities as one already written is skipped.
func ERDEval(w io.Writer, entries []*learning.ISFEntry) error {
	groups := make(map[string][]*learning.ISFEntry)
	for _, e := range entries {
		groups[e.QueryID] = append(groups[e.QueryID], e)
	}
	qids := make([]string, 0, len(groups))
	for qid := range groups {
		qids = append(qids, qid)
	}
	sort.Strings(qids)

	for _, qid := range qids {
		group := groups[qid]
		sort.SliceStable(group, func(i, j int) bool {
			return scoreOf(group[i]) > scoreOf(group[j])
		})
		written := make(map[string]bool)
		for _, e := range group {
			if e.Target != learning.PositiveLabel || written[e.Key()] {
				continue
			}
			written[e.Key()] = true
			score := "None"
			if e.Score != nil {
				score = strconv.FormatFloat(*e.Score, 'f', -1, 64)
			}
			if _, err := fmt.Fprintf(w, "%s\t%s", qid, score); err != nil {
				return err
			}
			for _, id := range e.FreebaseIDs() {
				if _, err := fmt.Fprintf(w, "\t%s", id); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}

func scoreOf(e *learning.ISFEntry) float64 {
	if e.Score == nil {
		return 0
	}
	return *e.Score
}

// QrelSets writes the interpretation sets of the ground truth, one line of the query id, the label
// 1 and the Freebase ids of the set. Queries in qids without any set are written as a bare id.
func QrelSets(w io.Writer, gt []*learning.CEREntry, qids []string) error {
	sets := make(eval.Sets)
	for _, qid := range qids {
		sets[qid] = nil
	}
	bySet := make(map[[2]string][]string)
	var order [][2]string
	for _, e := range gt {
		if e.SetID == learning.NoSet || e.Target != learning.PositiveLabel {
			continue
		}
		k := [2]string{e.QueryID, e.SetID}
		if _, ok := bySet[k]; !ok {
			order = append(order, k)
		}
		bySet[k] = append(bySet[k], e.FreebaseID)
	}
	for _, k := range order {
		sets[k[0]] = append(sets[k[0]], eval.NewSet(bySet[k]...))
	}

	for _, qid := range sets.Queries() {
		if len(sets[qid]) == 0 {
			if _, err := fmt.Fprintln(w, qid); err != nil {
				return err
			}
			continue
		}
		for _, s := range sets[qid] {
			if _, err := fmt.Fprintf(w, "%s\t1\t%s\n", qid, strings.Join(s, "\t")); err != nil {
				return err
			}
		}
	}
	return nil
}

