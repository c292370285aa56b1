// Package eval evaluates the interpretation sets found for queries against the relevant sets.
package eval

import (
	"github.com/hscells/elq"
	"gonum.org/v1/gonum/stat"
)

// Evaluator is an interface for evaluating the interpretation sets found for a query.
type Evaluator interface {
	Score(qrels, results []Set) float64
	Name() string
}

// Evaluate scores every query of the qrels using the supplied evaluation measurements. Queries
// with no results are scored against no sets.
func Evaluate(evaluators []Evaluator, qrels, results Sets) map[string]map[string]float64 {
	scores := map[string]map[string]float64{}
	for qid, relevant := range qrels {
		scores[qid] = map[string]float64{}
		for _, evaluator := range evaluators {
			scores[qid][evaluator.Name()] = evaluator.Score(relevant, results[qid])
		}
	}
	return scores
}

// Measures are the macro averaged measures of a run.
type Measures struct {
	Precision float64
	Recall    float64
	F1        float64
	Queries   int
	// PerQuery holds the precision, recall and f-measure of every query.
	PerQuery map[string]map[string]float64
}

// Strict macro averages precision and recall over the queries of the qrels; a set is found only
// when exactly its entities were found. F1 is computed from the averages. Runs that share no query
// with the qrels are a data integrity error.
func Strict(qrels, results Sets) (Measures, error) {
	overlap := false
	for qid := range results {
		if _, ok := qrels[qid]; ok {
			overlap = true
			break
		}
	}
	if !overlap || len(qrels) == 0 {
		return Measures{}, elq.DataIntegrityError("no query of the run is in the qrels")
	}

	evaluators := []Evaluator{Precision, Recall, F1Measure}
	scores := Evaluate(evaluators, qrels, results)
	var precision, recall []float64
	for _, qid := range qrels.Queries() {
		precision = append(precision, scores[qid][Precision.Name()])
		recall = append(recall, scores[qid][Recall.Name()])
	}
	m := Measures{
		Precision: stat.Mean(precision, nil),
		Recall:    stat.Mean(recall, nil),
		Queries:   len(qrels),
		PerQuery:  scores,
	}
	m.F1 = fmeasure(1, m.Precision, m.Recall)
	return m, nil
}
