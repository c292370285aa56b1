package features

import (
	"math"

	"github.com/hscells/elq/kb"
)

// CoOccurrence computes features of how often the entities are annotated together in a corpus:
// P is their joint probability, H its entropy, j_corpora the Jaccard coefficient of the documents
// annotated with all and with any of them, and rel_mw their Milne-Witten relatedness. Pairwise
// features of a single entity are Sentinel.
func CoOccurrence(source kb.CoOccurrenceSource, fbIDs []string) (Features, error) {
	ids := sortedSet(fbIDs)
	n, err := source.NumDocs()
	if err != nil {
		return nil, err
	}
	and, err := source.Frequency(kb.And(ids))
	if err != nil {
		return nil, err
	}

	var p float64
	if n > 0 {
		p = and / n
	}
	f := Features{
		"P":         p,
		"H":         entropy(p),
		"j_corpora": Sentinel,
		"rel_mw":    Sentinel,
	}
	if len(ids) < 2 {
		return f, nil
	}

	f["j_corpora"] = 0
	if and > 0 {
		or, err := source.Frequency(kb.Or(ids))
		if err != nil {
			return nil, err
		}
		f["j_corpora"] = and / or
	}

	f["rel_mw"], err = relatedness(source, ids, and, n)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func entropy(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return -(p * math.Log(p)) - ((1 - p) * math.Log(1-p))
}

// relatedness is 1 - (log max(f) - log f(all)) / (log N - log min(f)) over the document
// frequencies f of each entity, bounded to [0,1].
func relatedness(source kb.CoOccurrenceSource, ids []string, and, n float64) (float64, error) {
	if and == 0 {
		return 0, nil
	}
	min, max := math.Inf(1), 0.0
	for _, id := range ids {
		freq, err := source.Frequency(kb.And([]string{id}))
		if err != nil {
			return 0, err
		}
		min = math.Min(min, freq)
		max = math.Max(max, freq)
	}
	if min == 0 {
		return 0, nil
	}
	denominator := math.Log(n) - math.Log(min)
	if denominator <= 0 {
		return 0, nil
	}
	rel := 1 - (math.Log(max)-math.Log(and))/denominator
	return math.Max(0, math.Min(1, rel)), nil
}
