package eval

import (
	"fmt"
	"math"
)

type recallEvaluator struct{}
type precisionEvaluator struct{}
type numRel struct{}
type numRet struct{}
type numRelRet struct{}

// FMeasure computes f-measure, with the beta parameter controlling the precision and recall trade-off.
type FMeasure struct {
	beta float64
}

var (
	// Recall is the share of the relevant interpretation sets that were found.
	Recall = recallEvaluator{}
	// Precision is the share of the found interpretation sets that are relevant.
	Precision = precisionEvaluator{}
	// NumRel is the number of relevant sets.
	NumRel = numRel{}
	// NumRet is the number of sets found.
	NumRet = numRet{}
	// NumRelRet is the number of relevant sets found.
	NumRelRet = numRelRet{}

	// F1Measure is f-measure with beta=1.
	F1Measure = FMeasure{beta: 1}
)

// counts compares the sets found for a query with its relevant sets.
func counts(qrels, results []Set) (tp, fp, fn float64) {
	for _, s := range qrels {
		if contains(results, s) {
			tp++
		} else {
			fn++
		}
	}
	for _, s := range results {
		if !contains(qrels, s) {
			fp++
		}
	}
	return
}

// noSets scores a query without relevant sets: 1 when nothing was found for it, 0 otherwise.
func noSets(results []Set) float64 {
	if len(results) == 0 {
		return 1
	}
	return 0
}

func (recallEvaluator) Name() string {
	return "Recall"
}

func (recallEvaluator) Score(qrels, results []Set) float64 {
	if len(qrels) == 0 {
		return noSets(results)
	}
	tp, _, fn := counts(qrels, results)
	return tp / (tp + fn)
}

func (precisionEvaluator) Name() string {
	return "Precision"
}

func (precisionEvaluator) Score(qrels, results []Set) float64 {
	if len(qrels) == 0 {
		return noSets(results)
	}
	tp, fp, _ := counts(qrels, results)
	if tp+fp == 0 {
		return 0
	}
	return tp / (tp + fp)
}

func (numRel) Score(qrels, results []Set) float64 {
	return float64(len(qrels))
}

func (numRel) Name() string {
	return "NumRel"
}

func (numRet) Score(qrels, results []Set) float64 {
	return float64(len(results))
}

func (numRet) Name() string {
	return "NumRet"
}

func (numRelRet) Score(qrels, results []Set) float64 {
	tp, _, _ := counts(qrels, results)
	return tp
}

func (numRelRet) Name() string {
	return "NumRelRet"
}

// Score uses the beta parameter to compute f-measure.
func (f FMeasure) Score(qrels, results []Set) float64 {
	precision := Precision.Score(qrels, results)
	recall := Recall.Score(qrels, results)
	return fmeasure(f.beta, precision, recall)
}

func fmeasure(beta, precision, recall float64) float64 {
	if precision == 0 || recall == 0 {
		return 0
	}
	betaSquared := math.Pow(beta, 2)
	return ((1 + betaSquared) * (precision * recall)) / ((betaSquared * precision) + recall)
}

// Name calculates the name of the f-measure with beta parameter.
func (f FMeasure) Name() string {
	return fmt.Sprintf("F%vMeasure", f.beta)
}
