package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/hscells/elq"
)

// DefaultLambda is the Jelinek-Mercer smoothing parameter used unless configured otherwise.
const DefaultLambda = 0.1

// Scorer computes language model similarities between queries and entity documents.
//
// Scores are returned as (score, ok, err); ok is false when no query term has any probability in
// the document, which means there is no evidence for the entity. No evidence is never a zero score.
type Scorer struct {
	source      Source
	probability TermProbability
	average     bool
}

// ScorerSmoothing sets the smoothing method of the scorer.
func ScorerSmoothing(p TermProbability) func(*Scorer) {
	return func(s *Scorer) {
		s.probability = p
		s.average = false
	}
}

// ScorerAverageLength uses Dirichlet smoothing with μ set to the average field length.
func ScorerAverageLength() func(*Scorer) {
	return func(s *Scorer) {
		s.probability = DirichletAverageLengthTermProbability()
		s.average = true
	}
}

// SmoothingOption translates a configured smoothing method and optional parameter into a scorer
// option.
func SmoothingOption(method string, param *float64) (func(*Scorer), error) {
	switch strings.ToLower(method) {
	case "", elq.SmoothingJelinekMercer:
		lambda := DefaultLambda
		if param != nil {
			lambda = *param
		}
		return ScorerSmoothing(JelinekMercerTermProbability(lambda)), nil
	case elq.SmoothingDirichlet:
		if param != nil {
			return ScorerSmoothing(DirichletTermProbability(*param)), nil
		}
		return ScorerAverageLength(), nil
	}
	return nil, elq.ConfigurationError("%s smoothing method is not supported", method)
}

// NewScorer creates a scorer over a statistics source. Without options it uses Jelinek-Mercer
// smoothing with λ=0.1.
func NewScorer(source Source, options ...func(*Scorer)) *Scorer {
	s := &Scorer{
		source:      source,
		probability: JelinekMercerTermProbability(DefaultLambda),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Source is the statistics source of the scorer.
func (s *Scorer) Source() Source {
	return s.source
}


// TermProbability is the smoothed probability P(t|θ_d,f) of a term in a document field.
func (s *Scorer) TermProbability(docID, field, term string) (float64, error) {
	var tf map[string]float64
	if len(docID) > 0 {
		var err error
		tf, err = s.source.TermFrequencies(docID, field)
		if err != nil {
			return 0, err
		}
	}

	var st FieldStatistics
	for _, v := range tf {
		st.DocumentLength += v
	}
	st.TermFrequency = tf[term]

	var err error
	st.CollectionLength, err = s.source.CollectionLength(field)
	if err != nil {
		return 0, err
	}
	st.CollectionTermFrequency, err = s.source.CollectionTermFrequency(term, field)
	if err != nil {
		return 0, err
	}
	if s.average {
		st.AverageLength, err = s.source.AverageLength(field)
		if err != nil {
			return 0, err
		}
	}
	return s.probability(st), nil
}

// MLMTermProbability is Σ_f w_f·P(t|θ_d,f).
func (s *Scorer) MLMTermProbability(docID string, weights map[string]float64, term string) (float64, error) {
	var p float64
	for _, field := range sortedFields(weights) {
		ptf, err := s.TermProbability(docID, field, term)
		if err != nil {
			return 0, err
		}
		p += weights[field] * ptf
	}
	return p, nil
}

// termProbabilities computes the MLM probability of every unique query term.
func (s *Scorer) termProbabilities(docID string, terms []string, weights map[string]float64) (map[string]float64, error) {
	probs := make(map[string]float64, len(terms))
	for _, t := range terms {
		if _, ok := probs[t]; ok {
			continue
		}
		p, err := s.MLMTermProbability(docID, weights, t)
		if err != nil {
			return nil, err
		}
		probs[t] = p
	}
	return probs, nil
}

// LM is the query likelihood exp(Σ_t log P(t|θ_d,f)) of the query for one field.
func (s *Scorer) LM(query, entityID, field string) (float64, bool, error) {
	return s.MLM(query, entityID, map[string]float64{field: 1})
}

// MLM is the query likelihood under a mixture of field language models. Terms with zero
// probability are skipped.
func (s *Scorer) MLM(query, entityID string, weights map[string]float64) (float64, bool, error) {
	docID, ok, err := s.source.DocumentID(entityID)
	if err != nil || !ok {
		return 0, false, err
	}
	terms := strings.Fields(query)
	probs, err := s.termProbabilities(docID, terms, weights)
	if err != nil {
		return 0, false, err
	}
	if sum(probs) == 0 {
		return 0, false, nil
	}
	var logLikelihood float64
	for _, t := range terms {
		if probs[t] == 0 {
			continue
		}
		logLikelihood += math.Log(probs[t])
	}
	return math.Exp(logLikelihood), true, nil
}

// NLLRLM is the NLLR score of the query against a single field.
func (s *Scorer) NLLRLM(query, entityID, field string) (float64, bool, error) {
	return s.NLLRMLM(query, entityID, map[string]float64{field: 1})
}

// NLLRMLM is the exponentiated normalised log-likelihood ratio of the query under a mixture of
// field language models. An entity missing from the index has no evidence.
func (s *Scorer) NLLRMLM(query, entityID string, weights map[string]float64) (float64, bool, error) {
	docID, ok, err := s.source.DocumentID(entityID)
	if err != nil || !ok {
		return 0, false, err
	}
	probs, err := s.termProbabilities(docID, strings.Fields(query), weights)
	if err != nil {
		return 0, false, err
	}
	return s.NLLR(query, probs, weights)
}

// ContextSimilarity scores the context of a mention, the query with the mention removed, against
// one field of the entity. No evidence scores 0.
func (s *Scorer) ContextSimilarity(context, entityID, field string) (float64, error) {
	score, ok, err := s.NLLRLM(context, entityID, field)
	if err != nil || !ok {
		return 0, err
	}
	return score, nil
}

// QuerySetSimilarity scores a query against a set of entities: the probability of each query term
// is the sum of its MLM probabilities over the entities. Entities missing from the index add
// nothing. No evidence scores 0.
func (s *Scorer) QuerySetSimilarity(query string, entityIDs []string, weights map[string]float64) (float64, error) {
	terms := strings.Fields(query)
	probs := make(map[string]float64, len(terms))
	for _, t := range terms {
		probs[t] = 0
	}
	for _, e := range entityIDs {
		docID, ok, err := s.source.DocumentID(e)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		for t := range probs {
			p, err := s.MLMTermProbability(docID, weights, t)
			if err != nil {
				return 0, err
			}
			probs[t] += p
		}
	}
	score, ok, err := s.NLLR(query, probs, weights)
	if err != nil || !ok {
		return 0, err
	}
	return score, nil
}

// NLLR computes exp(Σ_t P(t|q)·log P(t|θ_d) − Σ_t P(t|q)·log P(t|C)) over the terms in probs,
// where P(t|q) = n(t,q)/|q| and P(t|C) = Σ_f w_f·P(t|C_f).
func (s *Scorer) NLLR(query string, probs map[string]float64, weights map[string]float64) (float64, bool, error) {
	if sum(probs) == 0 {
		return 0, false, nil
	}
	terms := strings.Fields(query)
	counts := make(map[string]float64, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	queryLength := float64(len(terms))

	var left, right float64
	for _, t := range sortedFields(probs) {
		ptd := probs[t]
		if ptd == 0 {
			continue
		}
		ptc, err := s.collectionProbability(t, weights)
		if err != nil {
			return 0, false, err
		}
		if ptc == 0 {
			continue
		}
		ptq := counts[t] / queryLength
		left += ptq * math.Log(ptd)
		right += ptq * math.Log(ptc)
	}
	return math.Exp(left - right), true, nil
}

// collectionProbability is P(t|C) = Σ_f w_f·tf(t,C_f)/|C_f|.
func (s *Scorer) collectionProbability(term string, weights map[string]float64) (float64, error) {
	var p float64
	for _, field := range sortedFields(weights) {
		length, err := s.source.CollectionLength(field)
		if err != nil {
			return 0, err
		}
		if length == 0 {
			continue
		}
		tf, err := s.source.CollectionTermFrequency(term, field)
		if err != nil {
			return 0, err
		}
		p += weights[field] * (tf / length)
	}
	return p, nil
}

func sum(m map[string]float64) float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

// sortedFields gives map iteration a fixed order so that floating point sums are reproducible.
func sortedFields(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
