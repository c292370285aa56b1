package stats_test

import (
	"io/ioutil"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/hscells/elq/stats"
)

func TestMemoryIndexStatistics(t *testing.T) {
	idx := testIndex()
	if idx.Len() != 2 {
		t.Fatalf("expected 2 documents, got %d", idx.Len())
	}
	if l, _ := idx.CollectionLength("title"); l != 6 {
		t.Errorf("collection length %f", l)
	}
	if ctf, _ := idx.CollectionTermFrequency("charleston", "title"); ctf != 2 {
		t.Errorf("collection tf %f", ctf)
	}
	if avg, _ := idx.AverageLength("contents"); avg != 5 {
		t.Errorf("average length %f", avg)
	}
	if _, ok, _ := idx.DocumentID("e3"); ok {
		t.Error("e3 is not indexed")
	}

	// Replacing a document updates the collection statistics.
	idx.Add("e2", map[string][]string{"title": {"charleston"}})
	if l, _ := idx.CollectionLength("title"); l != 4 {
		t.Errorf("collection length after replace %f", l)
	}
	if l, _ := idx.CollectionLength("contents"); l != 6 {
		t.Errorf("contents length after replace %f", l)
	}
}

func TestReadDocuments(t *testing.T) {
	idx := stats.NewMemoryIndex()
	err := idx.ReadDocuments(strings.NewReader(`{"id": "<dbpedia:Audi_A4>", "fields": {"<rdfs:label>": ["Audi A4"]}}
{"id": "<dbpedia:Audi>", "fields": {"<rdfs:label>": ["Audi"], "contents": ["Audi AG, German car maker"]}}
`))
	if err != nil {
		t.Fatal(err)
	}
	tf, _ := idx.TermFrequencies("<dbpedia:Audi>", "contents")
	want := map[string]float64{"audi": 1, "ag": 1, "german": 1, "car": 1, "maker": 1}
	if !reflect.DeepEqual(tf, want) {
		t.Errorf("got %v", tf)
	}
}

func TestTokenise(t *testing.T) {
	got := stats.Tokenise("Charleston, South Carolina (1670)")
	want := []string{"charleston", "south", "carolina", "1670"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v", got)
	}
	stemmed := stats.PorterAnalyser("running cities")
	if len(stemmed) != 2 || stemmed[0] != "run" {
		t.Errorf("got %v", stemmed)
	}
}

type countingSource struct {
	stats.Source
	calls int
}

func (c *countingSource) CollectionLength(field string) (float64, error) {
	c.calls++
	return c.Source.CollectionLength(field)
}

func (c *countingSource) TermFrequencies(docID, field string) (map[string]float64, error) {
	c.calls++
	return c.Source.TermFrequencies(docID, field)
}

func TestCachedSource(t *testing.T) {
	counting := &countingSource{Source: testIndex()}
	cached, err := stats.NewCachedSource(counting, 16)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if l, _ := cached.CollectionLength("title"); l != 6 {
			t.Fatalf("got %f", l)
		}
		if _, err := cached.TermFrequencies("e1", "title"); err != nil {
			t.Fatal(err)
		}
	}
	if counting.calls != 2 {
		t.Errorf("expected 2 calls to the wrapped source, got %d", counting.calls)
	}
}

func TestCachedSourceDiskv(t *testing.T) {
	dir, err := ioutil.TempDir("", "elq-cache")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	first := &countingSource{Source: testIndex()}
	cached, err := stats.NewCachedSource(first, 16, stats.CacheDiskv(stats.NewDiskv(dir)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cached.CollectionLength("title"); err != nil {
		t.Fatal(err)
	}

	// A fresh cache over the same directory reads the persisted value.
	second := &countingSource{Source: testIndex()}
	cached, err = stats.NewCachedSource(second, 16, stats.CacheDiskv(stats.NewDiskv(dir)))
	if err != nil {
		t.Fatal(err)
	}
	if l, _ := cached.CollectionLength("title"); l != 6 {
		t.Fatalf("got %f", l)
	}
	if second.calls != 0 {
		t.Errorf("expected the persisted value to be used, got %d calls", second.calls)
	}
}
