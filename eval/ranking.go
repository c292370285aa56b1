package eval

import (
	"fmt"
	"math"
	"sort"

	"github.com/hscells/trecresults"
)

// RankingEvaluator measures the ranked entities of one query against its relevance assessments.
// Entities are relevant when their assessment is positive.
type RankingEvaluator interface {
	Score(results trecresults.ResultList, qrels trecresults.Qrels) float64
	Name() string
}

// PrecisionAtK is the fraction of relevant entities in the top k.
type PrecisionAtK struct{ K int }

// DCG is the discounted cumulative gain of the top k, or of the whole ranking when k is 0.
type DCG struct{ K int }

// NDCG is DCG normalised by the DCG of the ideal ranking.
type NDCG struct{ K int }

type ap struct{}

// AP is average precision.
var AP = ap{}

func relevant(qrels trecresults.Qrels, id string) bool {
	q, ok := qrels[id]
	return ok && float64(q.Score) > 0
}

func (e PrecisionAtK) Score(results trecresults.ResultList, qrels trecresults.Qrels) float64 {
	if e.K <= 0 {
		return 0
	}
	var rel float64
	for i, res := range results {
		if i >= e.K {
			break
		}
		if relevant(qrels, res.DocId) {
			rel++
		}
	}
	return rel / float64(e.K)
}

func (e PrecisionAtK) Name() string {
	return fmt.Sprintf("P@%d", e.K)
}

func (ap) Score(results trecresults.ResultList, qrels trecresults.Qrels) float64 {
	var r float64
	for id := range qrels {
		if relevant(qrels, id) {
			r++
		}
	}
	if r == 0 {
		return 0
	}
	var sum, rel float64
	for i, res := range results {
		if relevant(qrels, res.DocId) {
			rel++
			sum += rel / float64(i+1)
		}
	}
	return sum / r
}

func (ap) Name() string {
	return "AP"
}

func (e DCG) Score(results trecresults.ResultList, qrels trecresults.Qrels) float64 {
	var score float64
	for i, item := range results {
		if e.K != 0 && i >= e.K {
			break
		}
		if q, ok := qrels[item.DocId]; ok {
			score += float64(q.Score) / math.Log2(float64(i)+2)
		}
	}
	return score
}

func (e DCG) Name() string {
	return "DCG"
}

func (e NDCG) Score(results trecresults.ResultList, qrels trecresults.Qrels) float64 {
	ideal := make(trecresults.ResultList, 0, len(qrels))
	for _, rel := range qrels {
		ideal = append(ideal, &trecresults.Result{
			Topic: rel.Topic,
			DocId: rel.DocId,
			Score: float64(rel.Score),
		})
	}
	sort.Slice(ideal, func(i, j int) bool {
		return ideal[i].Score > ideal[j].Score
	})

	idcg := DCG{K: e.K}.Score(ideal, qrels)
	if idcg == 0 {
		return 0
	}
	return DCG{K: e.K}.Score(results, qrels) / idcg
}

func (e NDCG) Name() string {
	if e.K > 0 {
		return fmt.Sprintf("nDCG@%d", e.K)
	}
	return "nDCG"
}

// EvaluateRanking macro-averages ranking evaluators over the topics of the relevance assessments.
// The results of every topic are ordered by rank first; topics without results score 0.
func EvaluateRanking(evaluators []RankingEvaluator, results map[string]trecresults.ResultList, qrels trecresults.QrelsFile) map[string]float64 {
	scores := make(map[string]float64, len(evaluators))
	if len(qrels.Qrels) == 0 {
		return scores
	}
	for topic, rels := range qrels.Qrels {
		ranked := append(trecresults.ResultList(nil), results[topic]...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Rank < ranked[j].Rank
		})
		for _, e := range evaluators {
			scores[e.Name()] += e.Score(ranked, rels)
		}
	}
	for name := range scores {
		scores[name] /= float64(len(qrels.Qrels))
	}
	return scores
}
