package kb

import (
	"bufio"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/hashicorp/golang-lru"
	"github.com/hscells/cqr"
	"github.com/hscells/elq"
	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
)

// CoOccurrenceField is the field of annotated corpus documents holding the Freebase ids of the
// entities annotated in them.
const CoOccurrenceField = "content"

// CoOccurrenceSource counts documents of an entity annotated corpus.
type CoOccurrenceSource interface {
	// NumDocs is the number of documents in the corpus.
	NumDocs() (float64, error)
	// Frequency is the number of documents matching a Boolean query of entity ids.
	Frequency(q cqr.CommonQueryRepresentation) (float64, error)
}

func keywords(fbIDs []string) []cqr.CommonQueryRepresentation {
	ids := unique(fbIDs)
	sort.Strings(ids)
	k := make([]cqr.CommonQueryRepresentation, len(ids))
	for i, id := range ids {
		k[i] = cqr.NewKeyword(id, CoOccurrenceField)
	}
	return k
}

// And matches documents annotated with every entity.
func And(fbIDs []string) cqr.CommonQueryRepresentation {
	return cqr.NewBooleanQuery(cqr.AND, keywords(fbIDs))
}

// Or matches documents annotated with at least one of the entities.
func Or(fbIDs []string) cqr.CommonQueryRepresentation {
	return cqr.NewBooleanQuery(cqr.OR, keywords(fbIDs))
}

// queryKey is a canonical string of a query, used for caching.
func queryKey(q cqr.CommonQueryRepresentation) string {
	switch x := q.(type) {
	case cqr.Keyword:
		return x.QueryString + "@" + strings.Join(x.Fields, ",")
	case cqr.BooleanQuery:
		children := make([]string, len(x.Children))
		for i, c := range x.Children {
			children[i] = queryKey(c)
		}
		return x.Operator + "(" + strings.Join(children, " ") + ")"
	}
	return ""
}

// MemoryCoOccurrence is a corpus of annotated documents held in memory.
type MemoryCoOccurrence struct {
	docs []map[string]struct{}
}

// NewMemoryCoOccurrence creates an empty corpus.
func NewMemoryCoOccurrence() *MemoryCoOccurrence {
	return &MemoryCoOccurrence{}
}

// AddDocument adds a document annotated with the given entities.
func (m *MemoryCoOccurrence) AddDocument(fbIDs ...string) {
	doc := make(map[string]struct{}, len(fbIDs))
	for _, id := range fbIDs {
		doc[id] = struct{}{}
	}
	m.docs = append(m.docs, doc)
}

// ReadDocuments adds one document per line of whitespace separated Freebase ids.
func (m *MemoryCoOccurrence) ReadDocuments(r io.Reader) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		if ids := strings.Fields(s.Text()); len(ids) > 0 {
			m.AddDocument(ids...)
		}
	}
	return s.Err()
}

// NumDocs is the number of documents.
func (m *MemoryCoOccurrence) NumDocs() (float64, error) {
	return float64(len(m.docs)), nil
}

// Frequency evaluates the query against every document.
func (m *MemoryCoOccurrence) Frequency(q cqr.CommonQueryRepresentation) (float64, error) {
	var n float64
	for _, doc := range m.docs {
		ok, err := matches(doc, q)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func matches(doc map[string]struct{}, q cqr.CommonQueryRepresentation) (bool, error) {
	switch x := q.(type) {
	case cqr.Keyword:
		_, ok := doc[x.QueryString]
		return ok, nil
	case cqr.BooleanQuery:
		switch x.Operator {
		case cqr.AND:
			for _, c := range x.Children {
				ok, err := matches(doc, c)
				if err != nil || !ok {
					return false, err
				}
			}
			return len(x.Children) > 0, nil
		case cqr.OR:
			for _, c := range x.Children {
				ok, err := matches(doc, c)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
			return false, nil
		}
		return false, errors.Errorf("unsupported operator %s", x.Operator)
	}
	return false, errors.Errorf("unsupported query type %T", q)
}

// ElasticsearchCoOccurrence counts documents of an annotated corpus indexed in Elasticsearch.
// Frequencies are cached, since the same entity sets are counted for many candidate sets.
type ElasticsearchCoOccurrence struct {
	client *elastic.Client
	index  string
	cache  *lru.Cache
	ctx    context.Context
}

// NewElasticsearchCoOccurrence creates a source over the index.
func NewElasticsearchCoOccurrence(client *elastic.Client, index string, cacheSize int) (*ElasticsearchCoOccurrence, error) {
	if len(index) == 0 {
		return nil, elq.ConfigurationError("co-occurrence source requires an index")
	}
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &ElasticsearchCoOccurrence{client: client, index: index, cache: cache, ctx: context.Background()}, nil
}

// NumDocs counts every document of the index.
func (es *ElasticsearchCoOccurrence) NumDocs() (float64, error) {
	if v, ok := es.cache.Get(""); ok {
		return v.(float64), nil
	}
	n, err := es.client.Count(es.index).Do(es.ctx)
	if err != nil {
		return 0, err
	}
	es.cache.Add("", float64(n))
	return float64(n), nil
}

// Frequency counts the documents matching the query.
func (es *ElasticsearchCoOccurrence) Frequency(q cqr.CommonQueryRepresentation) (float64, error) {
	key := queryKey(q)
	if v, ok := es.cache.Get(key); ok {
		return v.(float64), nil
	}
	query, err := toElasticsearch(q)
	if err != nil {
		return 0, err
	}
	n, err := es.client.Count(es.index).Query(query).Do(es.ctx)
	if err != nil {
		return 0, err
	}
	es.cache.Add(key, float64(n))
	return float64(n), nil
}

// toElasticsearch transforms a cqr query of entity ids into term queries combined with bool
// queries.
func toElasticsearch(q cqr.CommonQueryRepresentation) (elastic.Query, error) {
	switch x := q.(type) {
	case cqr.Keyword:
		if len(x.Fields) == 1 {
			return elastic.NewTermQuery(x.Fields[0], x.QueryString), nil
		}
		b := elastic.NewBoolQuery().MinimumNumberShouldMatch(1)
		for _, f := range x.Fields {
			b.Should(elastic.NewTermQuery(f, x.QueryString))
		}
		return b, nil
	case cqr.BooleanQuery:
		children := make([]elastic.Query, len(x.Children))
		for i, c := range x.Children {
			eq, err := toElasticsearch(c)
			if err != nil {
				return nil, err
			}
			children[i] = eq
		}
		switch x.Operator {
		case cqr.AND:
			return elastic.NewBoolQuery().Must(children...), nil
		case cqr.OR:
			return elastic.NewBoolQuery().Should(children...).MinimumNumberShouldMatch(1), nil
		}
		return nil, errors.Errorf("unsupported operator %s", x.Operator)
	}
	return nil, errors.Errorf("unsupported query type %T", q)
}
