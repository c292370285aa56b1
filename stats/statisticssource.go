// Package stats provides the text statistics of entity documents and the language models that
// score queries against them.
package stats

// Source represents the way statistics are calculated for a collection of fielded entity
// documents.
type Source interface {
	// DocumentID resolves an entity id to the id of its document in the index. The boolean is false
	// when the entity is not indexed.
	DocumentID(entityID string) (string, bool, error)
	// TermFrequencies are the term frequencies of one field of a document.
	TermFrequencies(docID, field string) (map[string]float64, error)
	// CollectionTermFrequency is the number of times the term occurs in the field across the
	// collection.
	CollectionTermFrequency(term, field string) (float64, error)
	// CollectionLength is the total number of terms in the field across the collection.
	CollectionLength(field string) (float64, error)
	// AverageLength is the average length of the field over documents that have it.
	AverageLength(field string) (float64, error)
}

// FieldStatistics are the counts needed to estimate the probability of a term in a document field.
type FieldStatistics struct {
	TermFrequency           float64
	DocumentLength          float64
	CollectionTermFrequency float64
	CollectionLength        float64
	AverageLength           float64
}

// TermProbability returns a smoothed term probability for a document field.
type TermProbability func(s FieldStatistics) float64

// collectionProbability is tf(t,C)/|C|, or zero for an empty field.
func collectionProbability(s FieldStatistics) float64 {
	if s.CollectionLength > 0 {
		return s.CollectionTermFrequency / s.CollectionLength
	}
	return 0
}

// JelinekMercerTermProbability computes (1-λ)·tf(t,d)/|d| + λ·tf(t,C)/|C|.
func JelinekMercerTermProbability(lambda float64) TermProbability {
	return func(s FieldStatistics) float64 {
		var ptd float64
		if s.DocumentLength > 0 {
			ptd = s.TermFrequency / s.DocumentLength
		}
		return (1-lambda)*ptd + lambda*collectionProbability(s)
	}
}

// DirichletTermProbability computes (tf(t,d) + μ·P(t|C)) / (|d| + μ).
func DirichletTermProbability(mu float64) TermProbability {
	return func(s FieldStatistics) float64 {
		return dirichlet(s, mu)
	}
}

// DirichletAverageLengthTermProbability is Dirichlet smoothing with μ set to the average length of
// the field.
func DirichletAverageLengthTermProbability() TermProbability {
	return func(s FieldStatistics) float64 {
		return dirichlet(s, s.AverageLength)
	}
}

func dirichlet(s FieldStatistics, mu float64) float64 {
	// The field has no content anywhere in the collection.
	if mu == 0 {
		return 0
	}
	return (s.TermFrequency + mu*collectionProbability(s)) / (s.DocumentLength + mu)
}
