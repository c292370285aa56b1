package pipeline

import (
	"log"

	"github.com/hscells/elq"
	"github.com/hscells/elq/kb"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/stats"
)

// Open creates a linker over the Elasticsearch indices of the configuration. Text statistics are
// cached in memory, and on disk when a cache path is configured. The snapshot and the
// co-occurrence index are optional. A CER model file, when given, switches ranking to the
// learned ranker.
func Open(c *elq.Config, cerModel string) (*Linker, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	es, err := stats.NewElasticsearchSource(
		stats.ElasticsearchHosts(c.ElasticsearchHosts...),
		stats.ElasticsearchIndex(c.EntityIndex))
	if err != nil {
		return nil, err
	}

	var cacheOptions []func(*stats.CachedSource)
	if len(c.CachePath) > 0 {
		cacheOptions = append(cacheOptions, stats.CacheDiskv(stats.NewDiskv(c.CachePath)))
	}
	source, err := stats.NewCachedSource(es, c.CacheSize, cacheOptions...)
	if err != nil {
		return nil, err
	}

	store, err := kb.NewElasticsearchStore(
		kb.ElasticsearchStoreClient(es.Client()),
		kb.ElasticsearchEntityIndex(c.EntityIndex),
		kb.ElasticsearchSurfaceFormIndex(c.SurfaceFormIndex))
	if err != nil {
		return nil, err
	}

	var options []func(*Linker)
	if len(c.SnapshotPath) > 0 {
		snapshot, err := kb.LoadSnapshotFile(c.SnapshotPath)
		if err != nil {
			return nil, err
		}
		log.Printf("loaded snapshot of %d entities\n", len(snapshot))
		options = append(options, LinkerSnapshot(snapshot))
	}
	if len(c.CoOccurrenceIndex) > 0 {
		cooccurrence, err := kb.NewElasticsearchCoOccurrence(es.Client(), c.CoOccurrenceIndex, c.CacheSize)
		if err != nil {
			return nil, err
		}
		options = append(options, LinkerCoOccurrence(cooccurrence))
	}
	if len(cerModel) > 0 {
		model, err := learning.LoadModel(c, cerModel)
		if err != nil {
			return nil, err
		}
		options = append(options, LinkerCERModel(model))
	}
	return NewLinker(c, source, store, store, options...)
}
