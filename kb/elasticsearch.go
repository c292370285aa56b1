package kb

import (
	"context"

	"github.com/hscells/elq"
	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
)

// ElasticsearchStore reads entity and surface form documents stored in Elasticsearch. Entity
// documents use the entity URI as their id; surface form documents use the lower-cased surface
// form. The sameAs predicate of entity documents must be mapped as a keyword.
type ElasticsearchStore struct {
	client       *elastic.Client
	entities     string
	surfaceForms string
	ctx          context.Context
}

// ElasticsearchStoreClient sets the client of the store.
func ElasticsearchStoreClient(client *elastic.Client) func(*ElasticsearchStore) {
	return func(es *ElasticsearchStore) {
		es.client = client
	}
}

// ElasticsearchEntityIndex sets the index of entity documents.
func ElasticsearchEntityIndex(index string) func(*ElasticsearchStore) {
	return func(es *ElasticsearchStore) {
		es.entities = index
	}
}

// ElasticsearchSurfaceFormIndex sets the index of surface form documents.
func ElasticsearchSurfaceFormIndex(index string) func(*ElasticsearchStore) {
	return func(es *ElasticsearchStore) {
		es.surfaceForms = index
	}
}

// NewElasticsearchStore creates a store; a client and an entity index are required.
func NewElasticsearchStore(options ...func(*ElasticsearchStore)) (*ElasticsearchStore, error) {
	es := &ElasticsearchStore{ctx: context.Background()}
	for _, option := range options {
		option(es)
	}
	if es.client == nil {
		return nil, elq.ConfigurationError("elasticsearch store requires a client")
	}
	if len(es.entities) == 0 {
		return nil, elq.ConfigurationError("elasticsearch store requires an entity index")
	}
	return es, nil
}

func (es *ElasticsearchStore) get(index, id string) ([]byte, error) {
	resp, err := es.client.Get().Index(index).Id(id).Do(es.ctx)
	if elastic.IsNotFound(err) {
		return nil, errors.Wrapf(elq.ErrLookupMiss, "%s/%s", index, id)
	}
	if err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, errors.Wrapf(elq.ErrLookupMiss, "%s/%s", index, id)
	}
	return resp.Source, nil
}

// Entity gets an entity document by URI.
func (es *ElasticsearchStore) Entity(id string) (*Entity, error) {
	source, err := es.get(es.entities, id)
	if err != nil {
		return nil, err
	}
	return decodeEntity(id, source)
}

// FreebaseToDBpedia searches for entities whose sameAs links to the Freebase id and returns the
// first that is not a redirect.
func (es *ElasticsearchStore) FreebaseToDBpedia(fbID string) (string, error) {
	uri, err := FreebaseIDToURI(fbID)
	if err != nil {
		return "", err
	}
	resp, err := es.client.Search(es.entities).
		Query(elastic.NewTermQuery(elq.FieldSameAs, uri)).
		Size(10).
		Do(es.ctx)
	if err != nil {
		return "", err
	}
	if resp.Hits == nil || len(resp.Hits.Hits) == 0 {
		return "", errors.Wrapf(elq.ErrLookupMiss, "freebase id %s", fbID)
	}
	hits := resp.Hits.Hits
	if len(hits) == 1 {
		return hits[0].Id, nil
	}
	for _, hit := range hits {
		e, err := decodeEntity(hit.Id, hit.Source)
		if err != nil {
			return "", err
		}
		if !e.IsRedirect() {
			return e.ID, nil
		}
	}
	return "", errors.Wrapf(elq.ErrLookupMiss, "freebase id %s only links to redirects", fbID)
}

// DBpediaToFreebase reads the Freebase id from the sameAs links of the entity.
func (es *ElasticsearchStore) DBpediaToFreebase(uri string) (string, error) {
	e, err := es.Entity(uri)
	if err != nil {
		return "", err
	}
	if id := e.FreebaseID(); len(id) > 0 {
		return id, nil
	}
	return "", errors.Wrapf(elq.ErrLookupMiss, "%s has no freebase id", uri)
}

// SurfaceForm gets a surface form document.
func (es *ElasticsearchStore) SurfaceForm(text string) (SurfaceForm, error) {
	if len(es.surfaceForms) == 0 {
		return nil, elq.ConfigurationError("no surface form index configured")
	}
	source, err := es.get(es.surfaceForms, text)
	if err != nil {
		return nil, err
	}
	_, sf, err := decodeSurfaceForm(source)
	return sf, err
}
