package kb

import (
	"log"
	"sort"

	"github.com/hscells/elq"
	"github.com/hscells/elq/query"
)

// Surface form predicates holding Freebase annotation counts of the two ClueWeb corpora.
const (
	PredicateFACC09 = "facc09"
	PredicateFACC12 = "facc12"
)

// EntityPair identifies a candidate entity in both knowledge bases.
type EntityPair struct {
	URI        string
	FreebaseID string
}

// Candidates are the candidate entities of a mention with their commonness. Matches is the number
// of candidates before filtering against the snapshot.
type Candidates struct {
	Entities map[EntityPair]float64
	Matches  int
}

// Pairs are the candidate entities in a fixed order.
func (c Candidates) Pairs() []EntityPair {
	pairs := make([]EntityPair, 0, len(c.Entities))
	for p := range c.Entities {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].URI == pairs[j].URI {
			return pairs[i].FreebaseID < pairs[j].FreebaseID
		}
		return pairs[i].URI < pairs[j].URI
	})
	return pairs
}

// CandidateLookup finds candidate entities for mentions.
type CandidateLookup struct {
	entities     EntityStore
	surfaceForms SurfaceFormStore
	source       string
	snapshot     Snapshot
}

// LookupSnapshot sets the snapshot used for filtering.
func LookupSnapshot(s Snapshot) func(*CandidateLookup) {
	return func(c *CandidateLookup) {
		c.snapshot = s
	}
}

// LookupSource sets the surface form source mentions are looked up in.
func LookupSource(source string) func(*CandidateLookup) {
	return func(c *CandidateLookup) {
		c.source = source
	}
}

// NewCandidateLookup creates a candidate lookup over the given stores. Mentions are looked up in
// the FACC surface forms unless another source is set.
func NewCandidateLookup(entities EntityStore, surfaceForms SurfaceFormStore, options ...func(*CandidateLookup)) *CandidateLookup {
	c := &CandidateLookup{entities: entities, surfaceForms: surfaceForms, source: elq.SourceFACC}
	for _, option := range options {
		option(c)
	}
	return c
}

// Entities is the store the lookup resolves entities with.
func (c *CandidateLookup) Entities() EntityStore {
	return c.entities
}

// mergedFACC adds up the annotation counts of both corpora; the total is the commonness
// denominator.
func mergedFACC(sf SurfaceForm) (map[string]float64, float64) {
	merged := make(map[string]float64)
	var total float64
	for _, p := range []string{PredicateFACC09, PredicateFACC12} {
		for uri, n := range sf[p] {
			merged[uri] += n
			total += n
		}
	}
	return merged, total
}

// Candidates looks up the candidate entities of a mention. Entities annotated with the mention
// are kept when their commonness is at least the threshold and they have a DBpedia URI; entities
// whose DBpedia names match the mention are added with their commonness, which may be zero. When
// filter is set, only entities in the snapshot are returned.
func (c *CandidateLookup) Candidates(mention string, threshold float64, filter bool) (Candidates, error) {
	cands := Candidates{Entities: make(map[EntityPair]float64)}
	sf, err := c.surfaceForms.SurfaceForm(mention)
	if elq.IsLookupMiss(err) {
		return cands, nil
	}
	if err != nil {
		return cands, err
	}

	merged, total := mergedFACC(sf)
	commonness := func(fbURI string) float64 {
		if total == 0 {
			return 0
		}
		return merged[fbURI] / total
	}

	matched := make(map[string]struct{})
	fbURIs := make([]string, 0, len(merged))
	for uri := range merged {
		fbURIs = append(fbURIs, uri)
	}
	sort.Strings(fbURIs)
	for _, fbURI := range fbURIs {
		cmn := commonness(fbURI)
		if cmn < threshold {
			continue
		}
		fbID, err := FreebaseURIToID(fbURI)
		if err != nil {
			log.Printf("skipping annotation of %q: %v\n", mention, err)
			continue
		}
		uri, err := c.entities.FreebaseToDBpedia(fbID)
		if elq.IsLookupMiss(err) {
			continue
		}
		if err != nil {
			return cands, err
		}
		cands.Entities[EntityPair{URI: uri, FreebaseID: fbID}] = cmn
		matched[uri] = struct{}{}
	}

	for _, p := range sf.Predicates() {
		if p == PredicateFACC09 || p == PredicateFACC12 {
			continue
		}
		uris := make([]string, 0, len(sf[p]))
		for uri := range sf[p] {
			uris = append(uris, uri)
		}
		sort.Strings(uris)
		for _, uri := range uris {
			if _, ok := matched[uri]; ok {
				continue
			}
			fbID, err := c.entities.DBpediaToFreebase(uri)
			if elq.IsLookupMiss(err) {
				continue
			}
			if err != nil {
				return cands, err
			}
			fbURI, err := FreebaseIDToURI(fbID)
			if err != nil {
				continue
			}
			cands.Entities[EntityPair{URI: uri, FreebaseID: fbID}] = commonness(fbURI)
			matched[uri] = struct{}{}
		}
	}

	cands.Matches = len(cands.Entities)
	if filter {
		cands.Entities = c.filter(cands.Entities)
	}
	return cands, nil
}

// filter keeps the entities in the snapshot. Without a snapshot nothing is filtered.
func (c *CandidateLookup) filter(entities map[EntityPair]float64) map[EntityPair]float64 {
	if c.snapshot == nil {
		return entities
	}
	filtered := make(map[EntityPair]float64, len(entities))
	for p, cmn := range entities {
		if c.snapshot.Contains(p.FreebaseID) {
			filtered[p] = cmn
		}
	}
	return filtered
}

// Mentions are the mentions of the query in the surface form source of the lookup.
func (c *CandidateLookup) Mentions(q query.Query) []query.Mention {
	return q.Mentions(c.source)
}

// QueryCandidates looks up the candidates of every mention of the query. Only FACC mentions have
// surface forms.
func (c *CandidateLookup) QueryCandidates(q query.Query, threshold float64, filter bool) (map[string]Candidates, error) {
	if c.source != elq.SourceFACC {
		return nil, elq.ConfigurationError("unsupported surface form source %q", c.source)
	}
	cands := make(map[string]Candidates)
	for _, m := range c.Mentions(q) {
		cs, err := c.Candidates(m.Text, threshold, filter)
		if err != nil {
			return nil, err
		}
		cands[m.Text] = cs
	}
	return cands, nil
}
