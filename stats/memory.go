package stats

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// MemoryIndex is a small fielded index held in memory. It suits test collections and knowledge
// base samples; large collections belong in Elasticsearch.
type MemoryIndex struct {
	analyser Analyser
	// document -> field -> term -> tf
	docs map[string]map[string]map[string]float64
	// field -> term -> tf(t,C)
	collection map[string]map[string]float64
	// field -> |C_f|
	lengths map[string]float64
	// field -> number of documents with the field
	counts map[string]float64
}

// MemoryAnalyser sets the analyser used for indexing document fields.
func MemoryAnalyser(analyser Analyser) func(*MemoryIndex) {
	return func(m *MemoryIndex) {
		m.analyser = analyser
	}
}

// NewMemoryIndex creates an empty index. Fields are tokenised with Tokenise unless another
// analyser is given.
func NewMemoryIndex(options ...func(*MemoryIndex)) *MemoryIndex {
	m := &MemoryIndex{
		analyser:   Tokenise,
		docs:       make(map[string]map[string]map[string]float64),
		collection: make(map[string]map[string]float64),
		lengths:    make(map[string]float64),
		counts:     make(map[string]float64),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Add indexes a document given as field -> values. Adding an existing id replaces it.
func (m *MemoryIndex) Add(id string, fields map[string][]string) {
	if _, ok := m.docs[id]; ok {
		m.remove(id)
	}
	doc := make(map[string]map[string]float64, len(fields))
	for field, values := range fields {
		tf := make(map[string]float64)
		for _, v := range values {
			for _, t := range m.analyser(v) {
				tf[t]++
			}
		}
		if len(tf) == 0 {
			continue
		}
		doc[field] = tf
		if _, ok := m.collection[field]; !ok {
			m.collection[field] = make(map[string]float64)
		}
		for t, n := range tf {
			m.collection[field][t] += n
			m.lengths[field] += n
		}
		m.counts[field]++
	}
	m.docs[id] = doc
}

func (m *MemoryIndex) remove(id string) {
	for field, tf := range m.docs[id] {
		for t, n := range tf {
			m.collection[field][t] -= n
			m.lengths[field] -= n
		}
		m.counts[field]--
	}
	delete(m.docs, id)
}

// Len is the number of indexed documents.
func (m *MemoryIndex) Len() int {
	return len(m.docs)
}

// DocumentID returns the entity id itself when the entity is indexed.
func (m *MemoryIndex) DocumentID(entityID string) (string, bool, error) {
	_, ok := m.docs[entityID]
	return entityID, ok, nil
}

// TermFrequencies are the term frequencies of one field of a document.
func (m *MemoryIndex) TermFrequencies(docID, field string) (map[string]float64, error) {
	doc, ok := m.docs[docID]
	if !ok {
		return nil, nil
	}
	return doc[field], nil
}

// CollectionTermFrequency is tf(t,C_f).
func (m *MemoryIndex) CollectionTermFrequency(term, field string) (float64, error) {
	return m.collection[field][term], nil
}

// CollectionLength is |C_f|.
func (m *MemoryIndex) CollectionLength(field string) (float64, error) {
	return m.lengths[field], nil
}

// AverageLength is |C_f| divided by the number of documents having the field.
func (m *MemoryIndex) AverageLength(field string) (float64, error) {
	if m.counts[field] == 0 {
		return 0, nil
	}
	return m.lengths[field] / m.counts[field], nil
}

// memoryDocument is one line of a JSON lines collection file.
type memoryDocument struct {
	ID     string              `json:"id"`
	Fields map[string][]string `json:"fields"`
}

// ReadDocuments indexes a JSON lines stream of {"id": ..., "fields": {field: [values]}} documents.
func (m *MemoryIndex) ReadDocuments(r io.Reader) error {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	line := 0
	for s.Scan() {
		line++
		if len(s.Bytes()) == 0 {
			continue
		}
		var doc memoryDocument
		if err := json.Unmarshal(s.Bytes(), &doc); err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		m.Add(doc.ID, doc.Fields)
	}
	return s.Err()
}
