package stats

import (
	"context"

	"github.com/google/uuid"
	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
)

// ElasticsearchSource gathers statistics of entity documents stored in an Elasticsearch index.
// Document ids are entity ids, and every field must be indexed with term vectors.
type ElasticsearchSource struct {
	client *elastic.Client
	index  string
	ctx    context.Context
}

// ElasticsearchHosts creates the client of the source; with no hosts, localhost is used.
func ElasticsearchHosts(hosts ...string) func(*ElasticsearchSource) error {
	return func(es *ElasticsearchSource) error {
		if len(hosts) == 0 {
			hosts = []string{"http://localhost:9200"}
		}
		client, err := elastic.NewClient(elastic.SetURL(hosts...), elastic.SetSniff(false))
		if err != nil {
			return err
		}
		es.client = client
		return nil
	}
}

// ElasticsearchClient uses an existing client.
func ElasticsearchClient(client *elastic.Client) func(*ElasticsearchSource) error {
	return func(es *ElasticsearchSource) error {
		es.client = client
		return nil
	}
}

// ElasticsearchIndex sets the index of the entity documents.
func ElasticsearchIndex(index string) func(*ElasticsearchSource) error {
	return func(es *ElasticsearchSource) error {
		es.index = index
		return nil
	}
}

// NewElasticsearchSource creates a statistics source using functional options.
func NewElasticsearchSource(options ...func(*ElasticsearchSource) error) (*ElasticsearchSource, error) {
	es := &ElasticsearchSource{ctx: context.Background()}
	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}
	if es.client == nil {
		if err := ElasticsearchHosts()(es); err != nil {
			return nil, err
		}
	}
	if len(es.index) == 0 {
		return nil, errors.New("an index is required for the elasticsearch statistics source")
	}
	return es, nil
}

// Client exposes the underlying client so that other stores can share the connection.
func (es *ElasticsearchSource) Client() *elastic.Client {
	return es.client
}

// DocumentID checks that a document exists for the entity.
func (es *ElasticsearchSource) DocumentID(entityID string) (string, bool, error) {
	ok, err := es.client.Exists().Index(es.index).Id(entityID).Do(es.ctx)
	if err != nil {
		return "", false, err
	}
	return entityID, ok, nil
}

// TermFrequencies reads the term vector of one field of a document.
func (es *ElasticsearchSource) TermFrequencies(docID, field string) (map[string]float64, error) {
	resp, err := es.client.TermVectors(es.index).
		Id(docID).
		Fields(field).
		FieldStatistics(false).
		TermStatistics(false).
		Offsets(false).
		Positions(false).
		Payloads(false).
		Do(es.ctx)
	if err != nil {
		return nil, err
	}
	tf := make(map[string]float64)
	if tv, ok := resp.TermVectors[field]; ok {
		for term, info := range tv.Terms {
			tf[term] = float64(info.TermFreq)
		}
	}
	return tf, nil
}

// artificial asks for the statistics of a term by analysing a document that contains only the
// term; the term and field statistics returned are those of the whole index. Field statistics are
// read off a random term so that the response always carries the field.
func (es *ElasticsearchSource) artificial(term, field string) (*elastic.TermvectorsResponse, error) {
	return es.client.TermVectors(es.index).
		Doc(map[string]string{field: term}).
		FieldStatistics(true).
		TermStatistics(true).
		Offsets(false).
		Positions(false).
		Payloads(false).
		Fields(field).
		PerFieldAnalyzer(map[string]string{field: "keyword"}).
		Do(es.ctx)
}

// CollectionTermFrequency is the total term frequency of the term in the field.
func (es *ElasticsearchSource) CollectionTermFrequency(term, field string) (float64, error) {
	resp, err := es.artificial(term, field)
	if err != nil {
		return 0, err
	}
	if tv, ok := resp.TermVectors[field]; ok {
		return float64(tv.Terms[term].Ttf), nil
	}
	return 0, nil
}

// CollectionLength is the sum of total term frequencies of the field.
func (es *ElasticsearchSource) CollectionLength(field string) (float64, error) {
	resp, err := es.artificial(uuid.New().String(), field)
	if err != nil {
		return 0, err
	}
	if tv, ok := resp.TermVectors[field]; ok {
		return float64(tv.FieldStatistics.SumTtf), nil
	}
	return 0, nil
}

// AverageLength is the sum of total term frequencies divided by the number of documents with the
// field.
func (es *ElasticsearchSource) AverageLength(field string) (float64, error) {
	resp, err := es.artificial(uuid.New().String(), field)
	if err != nil {
		return 0, err
	}
	if tv, ok := resp.TermVectors[field]; ok && tv.FieldStatistics.DocCount > 0 {
		return float64(tv.FieldStatistics.SumTtf) / float64(tv.FieldStatistics.DocCount), nil
	}
	return 0, nil
}
