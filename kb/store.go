package kb

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/hscells/elq"
	"github.com/pkg/errors"
)

// EntityStore resolves entity ids to entities and translates between DBpedia URIs and Freebase
// ids. Missing entities are reported with elq.ErrLookupMiss.
type EntityStore interface {
	Entity(id string) (*Entity, error)
	FreebaseToDBpedia(fbID string) (string, error)
	DBpediaToFreebase(uri string) (string, error)
}

// SurfaceFormStore looks up the entities a (lower-cased) surface form refers to. Unknown surface
// forms are reported with elq.ErrLookupMiss.
type SurfaceFormStore interface {
	SurfaceForm(text string) (SurfaceForm, error)
}

// MemoryStore is an EntityStore and SurfaceFormStore held in memory.
type MemoryStore struct {
	entities     map[string]*Entity
	surfaceForms map[string]SurfaceForm
	// freebase uri -> dbpedia uris in the order they were added
	sameAs map[string][]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entities:     make(map[string]*Entity),
		surfaceForms: make(map[string]SurfaceForm),
		sameAs:       make(map[string][]string),
	}
}

// AddEntity stores an entity and indexes its Freebase sameAs links.
func (m *MemoryStore) AddEntity(e *Entity) {
	m.entities[e.ID] = e
	for _, uri := range e.SameAs() {
		if strings.HasPrefix(uri, "<fb:") {
			m.sameAs[uri] = append(m.sameAs[uri], e.ID)
		}
	}
}

// AddSurfaceForm stores the entities of a surface form.
func (m *MemoryStore) AddSurfaceForm(text string, sf SurfaceForm) {
	m.surfaceForms[strings.ToLower(text)] = sf
}

// Entities are all the stored entities.
func (m *MemoryStore) Entities() []*Entity {
	e := make([]*Entity, 0, len(m.entities))
	for _, v := range m.entities {
		e = append(e, v)
	}
	return e
}

// Entity returns a stored entity.
func (m *MemoryStore) Entity(id string) (*Entity, error) {
	if e, ok := m.entities[id]; ok {
		return e, nil
	}
	return nil, errors.Wrapf(elq.ErrLookupMiss, "entity %s", id)
}

// FreebaseToDBpedia returns the first DBpedia entity linked to the Freebase id that is not a
// redirect. When only one entity is linked it is returned regardless.
func (m *MemoryStore) FreebaseToDBpedia(fbID string) (string, error) {
	uri, err := FreebaseIDToURI(fbID)
	if err != nil {
		return "", err
	}
	uris := m.sameAs[uri]
	switch len(uris) {
	case 0:
		return "", errors.Wrapf(elq.ErrLookupMiss, "freebase id %s", fbID)
	case 1:
		return uris[0], nil
	}
	for _, u := range uris {
		if !m.entities[u].IsRedirect() {
			return u, nil
		}
	}
	return "", errors.Wrapf(elq.ErrLookupMiss, "freebase id %s only links to redirects", fbID)
}

// DBpediaToFreebase returns the Freebase id of a DBpedia entity.
func (m *MemoryStore) DBpediaToFreebase(uri string) (string, error) {
	e, err := m.Entity(uri)
	if err != nil {
		return "", err
	}
	if id := e.FreebaseID(); len(id) > 0 {
		return id, nil
	}
	return "", errors.Wrapf(elq.ErrLookupMiss, "%s has no freebase id", uri)
}

// SurfaceForm returns the entities of a surface form.
func (m *MemoryStore) SurfaceForm(text string) (SurfaceForm, error) {
	if sf, ok := m.surfaceForms[strings.ToLower(text)]; ok {
		return sf, nil
	}
	return nil, errors.Wrapf(elq.ErrLookupMiss, "surface form %q", text)
}

// ReadEntities adds a JSON lines stream of entity documents.
func (m *MemoryStore) ReadEntities(r io.Reader) error {
	return readLines(r, func(line []byte) error {
		e, err := decodeEntity("", line)
		if err != nil {
			return err
		}
		if len(e.ID) == 0 {
			return errors.New("entity document without an _id")
		}
		m.AddEntity(e)
		return nil
	})
}

// ReadSurfaceForms adds a JSON lines stream of surface form documents.
func (m *MemoryStore) ReadSurfaceForms(r io.Reader) error {
	return readLines(r, func(line []byte) error {
		text, sf, err := decodeSurfaceForm(line)
		if err != nil {
			return err
		}
		m.AddSurfaceForm(text, sf)
		return nil
	})
}

// LoadMemoryStore reads entities and surface forms from two JSON lines files.
func LoadMemoryStore(entities, surfaceForms string) (*MemoryStore, error) {
	m := NewMemoryStore()
	for _, f := range []struct {
		path string
		read func(io.Reader) error
	}{{entities, m.ReadEntities}, {surfaceForms, m.ReadSurfaceForms}} {
		if len(f.path) == 0 {
			continue
		}
		file, err := os.Open(f.path)
		if err != nil {
			return nil, err
		}
		err = f.read(file)
		file.Close()
		if err != nil {
			return nil, errors.Wrap(err, f.path)
		}
	}
	return m, nil
}

func readLines(r io.Reader, fn func(line []byte) error) error {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	n := 0
	for s.Scan() {
		n++
		line := s.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
	}
	return s.Err()
}
