package stats

import (
	"hash/fnv"
	"strconv"

	"github.com/hashicorp/golang-lru"
	"github.com/peterbourgon/diskv"
)

// BlockTransform determines how diskv should partition folders.
func BlockTransform(blockSize int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = len(s) / blockSize
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

// NewDiskv creates an on-disk store for collection statistics rooted at path.
func NewDiskv(path string) *diskv.Diskv {
	return diskv.New(diskv.Options{
		BasePath:     path,
		Transform:    BlockTransform(8),
		CacheSizeMax: 4096 * 1024,
	})
}

type documentKey struct {
	doc, field string
}

type collectionKey struct {
	kind, field, term string
}

// CachedSource wraps a statistics source with an LRU cache. Collection statistics, which do not
// change during a run, can additionally be persisted with diskv so that later runs skip the index.
type CachedSource struct {
	Source
	documents  *lru.Cache
	ids        *lru.Cache
	collection *lru.Cache
	disk       *diskv.Diskv
}

// CacheDiskv persists collection statistics in the given store.
func CacheDiskv(d *diskv.Diskv) func(*CachedSource) {
	return func(c *CachedSource) {
		c.disk = d
	}
}

// NewCachedSource caches up to size entries of each kind of statistic.
func NewCachedSource(source Source, size int, options ...func(*CachedSource)) (*CachedSource, error) {
	documents, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	ids, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	collection, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	c := &CachedSource{
		Source:     source,
		documents:  documents,
		ids:        ids,
		collection: collection,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

type resolvedID struct {
	id string
	ok bool
}

// DocumentID resolves and caches document ids.
func (c *CachedSource) DocumentID(entityID string) (string, bool, error) {
	if v, ok := c.ids.Get(entityID); ok {
		r := v.(resolvedID)
		return r.id, r.ok, nil
	}
	id, ok, err := c.Source.DocumentID(entityID)
	if err != nil {
		return "", false, err
	}
	c.ids.Add(entityID, resolvedID{id: id, ok: ok})
	return id, ok, nil
}

// TermFrequencies caches document term frequencies.
func (c *CachedSource) TermFrequencies(docID, field string) (map[string]float64, error) {
	key := documentKey{doc: docID, field: field}
	if v, ok := c.documents.Get(key); ok {
		return v.(map[string]float64), nil
	}
	tf, err := c.Source.TermFrequencies(docID, field)
	if err != nil {
		return nil, err
	}
	c.documents.Add(key, tf)
	return tf, nil
}

// CollectionTermFrequency caches tf(t,C_f).
func (c *CachedSource) CollectionTermFrequency(term, field string) (float64, error) {
	return c.collectionStatistic(collectionKey{kind: "ctf", field: field, term: term}, func() (float64, error) {
		return c.Source.CollectionTermFrequency(term, field)
	})
}

// CollectionLength caches |C_f|.
func (c *CachedSource) CollectionLength(field string) (float64, error) {
	return c.collectionStatistic(collectionKey{kind: "len", field: field}, func() (float64, error) {
		return c.Source.CollectionLength(field)
	})
}

// AverageLength caches the average field length.
func (c *CachedSource) AverageLength(field string) (float64, error) {
	return c.collectionStatistic(collectionKey{kind: "avg", field: field}, func() (float64, error) {
		return c.Source.AverageLength(field)
	})
}

func (c *CachedSource) collectionStatistic(key collectionKey, compute func() (float64, error)) (float64, error) {
	if v, ok := c.collection.Get(key); ok {
		return v.(float64), nil
	}

	var diskKey string
	if c.disk != nil {
		diskKey = strconv.FormatUint(hashKey(key), 10)
		if b, err := c.disk.Read(diskKey); err == nil {
			if v, err := strconv.ParseFloat(string(b), 64); err == nil {
				c.collection.Add(key, v)
				return v, nil
			}
		}
	}

	v, err := compute()
	if err != nil {
		return 0, err
	}
	c.collection.Add(key, v)
	if c.disk != nil {
		if err := c.disk.Write(diskKey, []byte(strconv.FormatFloat(v, 'g', -1, 64))); err != nil {
			return 0, err
		}
	}
	return v, nil
}

// hashKey is FNV-1a over the parts of a key.
func hashKey(key collectionKey) uint64 {
	h := fnv.New64a()
	for _, part := range []string{key.kind, key.field, key.term} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
