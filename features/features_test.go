package features_test

import (
	"math"
	"testing"

	"github.com/hscells/elq"
	"github.com/hscells/elq/features"
	"github.com/hscells/elq/kb"
	"github.com/hscells/elq/query"
	"github.com/hscells/elq/stats"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func charleston() *kb.Entity {
	return kb.NewEntity("<dbpedia:Charleston,_South_Carolina>").
		Add(elq.FieldTitle, "Charleston, South Carolina").
		Add(elq.FieldShortAbstract, "Charleston is the oldest city in South Carolina.").
		Add(elq.FieldInverseRedirect, "<dbpedia:Charleston,_SC>", "<dbpedia:Charleston,_SC>").
		Add(elq.FieldWikiLinks, "<dbpedia:South_Carolina>", "<dbpedia:USS_Yorktown_(CV-10)>").
		Add(elq.FieldSameAs, "<fb:m.0fsb8>")
}

func testExtractor() *features.Extractor {
	store := kb.NewMemoryStore()
	idx := stats.NewMemoryIndex()
	for _, e := range []*kb.Entity{
		charleston(),
		kb.NewEntity("<dbpedia:Charleston_(dance)>").Add(elq.FieldTitle, "Charleston (dance)"),
	} {
		store.AddEntity(e)
		idx.Add(e.ID, e.Document())
	}
	store.AddSurfaceForm("charleston", kb.SurfaceForm{
		"facc12":       {"<fb:m.0fsb8>": 9},
		elq.FieldTitle: {"<dbpedia:Charleston_(dance)>": 1},
	})
	store.AddSurfaceForm("charleston sc", kb.SurfaceForm{"facc12": {"<fb:m.0fsb8>": 1}})
	return features.NewExtractor(store, store, stats.NewScorer(idx))
}

func TestEntityMention(t *testing.T) {
	f := features.EntityMention(charleston(), "charleston", 0.9)
	want := features.Features{"commonness": 0.9, "mct": 0, "tcm": 1, "tem": 0, "pos1": 0}
	for k, v := range want {
		if f[k] != v {
			t.Errorf("%s: got %f, want %f", k, f[k], v)
		}
	}
	if f := features.EntityMention(charleston(), "boston", 0); f["pos1"] != features.NotFound {
		t.Errorf("pos1 %f", f["pos1"])
	}
	// An entity without a title contains nothing.
	if f := features.EntityMention(kb.NewEntity("<dbpedia:X>"), "x", 0); f["mct"] != 0 || f["tcm"] != 0 {
		t.Errorf("got %v", f)
	}
}

func TestEntityQuery(t *testing.T) {
	f := features.EntityQuery(charleston(), "charleston south carolina")
	if f["qct"] != 1 || f["tcq"] != 1 || f["teq"] != 1 {
		t.Errorf("got %v", f)
	}
	f = features.EntityQuery(charleston(), "uss yorktown charleston south carolina")
	if f["qct"] != 1 || f["tcq"] != 0 || f["teq"] != 0 {
		t.Errorf("got %v", f)
	}
}

func TestEntityFeatures(t *testing.T) {
	f := features.EntityFeatures(charleston())
	if f["redirects"] != 1 || f["links"] != 2 {
		t.Errorf("got %v", f)
	}
}

func TestMention(t *testing.T) {
	f, err := testExtractor().Mention("charleston sc", "USS Yorktown, Charleston SC", 3)
	if err != nil {
		t.Fatal(err)
	}
	want := features.Features{"len": 2, "ntem": 0, "smil": 1, "matches": 3, "len_ratio": 0.5}
	for k, v := range want {
		if f[k] != v {
			t.Errorf("%s: got %f, want %f", k, f[k], v)
		}
	}
}

func TestCER(t *testing.T) {
	x := testExtractor()
	q := query.New("q1", "uss yorktown charleston sc")
	f, err := x.CER(q, "charleston", "<dbpedia:Charleston,_South_Carolina>", 0.9, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(f) != 28 {
		t.Errorf("expected 28 features, got %d: %v", len(f), f.Names())
	}
	if f["mtitle"] <= 0 || f["mcatchall"] <= 0 {
		t.Errorf("the mention should match the title, got %v", f)
	}
	if f["mlinks"] != 0 {
		t.Errorf("the entity has no indexed link matching the mention, got %f", f["mlinks"])
	}

	// Entities missing from the store still get features.
	f, err = x.CER(q, "sc", "<dbpedia:Nowhere>", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if f["redirects"] != 0 || f["pos1"] != features.NotFound {
		t.Errorf("got %v", f)
	}
}

func TestGraph(t *testing.T) {
	a := kb.NewEntity("A").Add(elq.FieldWikiLinks, "B", "X")
	b := kb.NewEntity("B").Add(elq.FieldWikiLinks, "X", "A", "X")
	c := kb.NewEntity("C").Add(elq.FieldWikiLinks, "Y", "X")

	f := features.Graph([]*kb.Entity{a, b, c})
	want := features.Features{"common_links": 1, "total_links": 4, "j_kb": 0.25, "completeness": 1.0 / 3.0}
	for k, v := range want {
		if !near(f[k], v) {
			t.Errorf("%s: got %f, want %f", k, f[k], v)
		}
	}

	f = features.Graph([]*kb.Entity{c})
	want = features.Features{"common_links": features.Sentinel, "total_links": 2, "j_kb": features.Sentinel, "completeness": 1}
	for k, v := range want {
		if f[k] != v {
			t.Errorf("singleton %s: got %f, want %f", k, f[k], v)
		}
	}

	f = features.Graph([]*kb.Entity{kb.NewEntity("D"), kb.NewEntity("E")})
	if f["j_kb"] != 0 || f["completeness"] != 0 {
		t.Errorf("unlinked: got %v", f)
	}
}

func TestCoOccurrence(t *testing.T) {
	co := kb.NewMemoryCoOccurrence()
	co.AddDocument("a", "b")
	co.AddDocument("a", "b")
	co.AddDocument("a")
	for _, id := range []string{"c", "d", "e", "f", "g"} {
		co.AddDocument(id)
	}

	f, err := features.CoOccurrence(co, []string{"b", "a", "a"})
	if err != nil {
		t.Fatal(err)
	}
	p := 2.0 / 8.0
	want := features.Features{
		"P":         p,
		"H":         -(p * math.Log(p)) - ((1 - p) * math.Log(1-p)),
		"j_corpora": 2.0 / 3.0,
		"rel_mw":    1 - (math.Log(3)-math.Log(2))/(math.Log(8)-math.Log(2)),
	}
	for k, v := range want {
		if !near(f[k], v) {
			t.Errorf("%s: got %f, want %f", k, f[k], v)
		}
	}

	f, err = features.CoOccurrence(co, []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	if f["j_corpora"] != features.Sentinel || f["rel_mw"] != features.Sentinel || !near(f["P"], 3.0/8.0) {
		t.Errorf("singleton: got %v", f)
	}

	f, err = features.CoOccurrence(co, []string{"c", "d"})
	if err != nil {
		t.Fatal(err)
	}
	if f["P"] != 0 || f["H"] != 0 || f["j_corpora"] != 0 || f["rel_mw"] != 0 {
		t.Errorf("disjoint: got %v", f)
	}
}
