package eval

import (
	"github.com/hscells/trecresults"
)

// ResidualEvaluator measures a ranking as if every ranked entity without an assessment were
// relevant. It bounds how much a ranking could gain once unjudged entities are assessed.
type ResidualEvaluator struct {
	RankingEvaluator
}

// NewResidualEvaluator wraps a ranking evaluator.
func NewResidualEvaluator(evaluator RankingEvaluator) ResidualEvaluator {
	return ResidualEvaluator{RankingEvaluator: evaluator}
}

// Residual adds the unjudged entities of the ranking to a copy of the assessments as relevant.
func (r ResidualEvaluator) Residual(results trecresults.ResultList, qrels trecresults.Qrels) trecresults.Qrels {
	unjudged := make(trecresults.Qrels, len(qrels))
	for k, v := range qrels {
		unjudged[k] = v
	}
	for _, result := range results {
		if _, ok := unjudged[result.DocId]; !ok {
			unjudged[result.DocId] = &trecresults.Qrel{
				Topic:     result.Topic,
				Iteration: "0",
				DocId:     result.DocId,
				Score:     1,
			}
		}
	}
	return unjudged
}

func (r ResidualEvaluator) Name() string {
	return "Residual" + r.RankingEvaluator.Name()
}

func (r ResidualEvaluator) Score(results trecresults.ResultList, qrels trecresults.Qrels) float64 {
	return r.RankingEvaluator.Score(results, r.Residual(results, qrels))
}
