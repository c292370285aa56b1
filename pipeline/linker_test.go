package pipeline_test

import (
	"math"
	"testing"

	"github.com/hscells/elq"
	"github.com/hscells/elq/kb"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/pipeline"
	"github.com/hscells/elq/query"
	"github.com/hscells/elq/stats"
	"github.com/pkg/errors"
)

const charlestonSC = "<dbpedia:Charleston,_South_Carolina>"

var queries = []query.Query{
	query.New("q1_1", "Charleston SC"),
	query.New("q1_2", "charleston"),
	query.New("q2", "USS Yorktown"),
}

var groundTruth = []*learning.CEREntry{
	{QueryID: "q1_1", Mention: "charleston sc", EntityID: charlestonSC, FreebaseID: "/m/0fsb8", SetID: "0", Target: learning.PositiveLabel},
	{QueryID: "q1_2", Mention: "charleston", EntityID: charlestonSC, FreebaseID: "/m/0fsb8", SetID: "0", Target: learning.PositiveLabel},
	{QueryID: "q2", Mention: "uss yorktown", EntityID: "<dbpedia:USS_Yorktown_(CV-10)>", FreebaseID: "/m/01fk7z", SetID: "0", Target: learning.PositiveLabel},
}

func testLinker(t *testing.T, c *elq.Config) *pipeline.Linker {
	store, err := kb.LoadMemoryStore("../kb/testdata/entities.jsonl", "../kb/testdata/surfaceforms.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	idx := stats.NewMemoryIndex()
	for _, e := range store.Entities() {
		idx.Add(e.ID, e.Document())
	}
	cooc := kb.NewMemoryCoOccurrence()
	cooc.AddDocument("/m/0fsb8", "/m/01fk7z")
	cooc.AddDocument("/m/0fsb8")
	cooc.AddDocument("/m/0ftxw")

	l, err := pipeline.NewLinker(c, idx, store, store, pipeline.LinkerCoOccurrence(cooc))
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func testConfig(options ...func(*elq.Config)) *elq.Config {
	return elq.NewConfig(append([]func(*elq.Config){
		elq.CommonnessThreshold(0.1),
		elq.ScoreThreshold(math.Inf(-1)),
		elq.Folds(2),
		func(c *elq.Config) {
			c.Trees = 5
		},
	}, options...)...)
}

func TestNewLinkerValidates(t *testing.T) {
	_, err := pipeline.NewLinker(elq.NewConfig(), stats.NewMemoryIndex(), kb.NewMemoryStore(), kb.NewMemoryStore())
	if errors.Cause(err) != elq.ErrConfiguration {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestRankQueries(t *testing.T) {
	entries, err := testLinker(t, testConfig()).RankQueries(queries)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("expected candidate entities")
	}
	top := make(map[string]bool)
	for i, e := range entries {
		if e.ID != i {
			t.Errorf("entry %d has id %d", i, e.ID)
		}
		if e.Rank == 1 {
			top[e.QueryID] = true
		}
	}
	for _, q := range queries {
		if !top[q.ID] {
			t.Errorf("query %s has no entity at rank 1", q.ID)
		}
	}
}

func TestLinkGreedy(t *testing.T) {
	sets, err := testLinker(t, testConfig()).LinkGreedy(queries)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) == 0 {
		t.Fatal("expected interpretation sets")
	}
	for _, s := range sets {
		var mentions []string
		for _, m := range s.Set {
			mentions = append(mentions, m)
		}
		if query.Overlapping(mentions) {
			t.Errorf("set %d has overlapping mentions %v", s.ID, mentions)
		}
		if s.Target != learning.PositiveLabel || s.Score == nil {
			t.Errorf("set %d is not an accepted, scored set", s.ID)
		}
	}
}

func TestLinkSetsRequiresCoOccurrence(t *testing.T) {
	l, err := pipeline.NewLinker(testConfig(), stats.NewMemoryIndex(), kb.NewMemoryStore(), kb.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.LinkSets(queries, learning.NewForest()); errors.Cause(err) != elq.ErrConfiguration {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestTrainISFAndLinkSets(t *testing.T) {
	l := testLinker(t, testConfig())
	model, err := l.TrainISF(groundTruth, queries)
	if err != nil {
		t.Fatal(err)
	}
	sets, err := l.LinkSets(queries, model)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) == 0 {
		t.Fatal("expected interpretation sets")
	}
	for _, s := range sets {
		if s.Score == nil {
			t.Errorf("set %d was not scored", s.ID)
		}
		if s.Target != learning.PositiveLabel && s.Target != learning.DefaultTarget {
			t.Errorf("set %d has label %q", s.ID, s.Target)
		}
		if len(s.Features) == 0 {
			t.Errorf("set %d has no features", s.ID)
		}
	}
}

func TestCrossValidateCER(t *testing.T) {
	l := testLinker(t, testConfig())
	entries, err := l.CrossValidateCER(groundTruth, queries)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("expected cross-validated entries")
	}
	positives := 0
	for _, e := range entries {
		if e.Score == nil || e.Rank == 0 {
			t.Errorf("entry %d was not ranked", e.ID)
		}
		if e.Target == learning.PositiveLabel {
			positives++
		}
	}
	if positives == 0 {
		t.Error("expected labelled ground truth entities")
	}
}

func TestCrossValidateISF(t *testing.T) {
	l := testLinker(t, testConfig())
	sets, err := l.CrossValidateISF(groundTruth, queries)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) == 0 {
		t.Fatal("expected cross-validated sets")
	}
	for _, s := range sets {
		if s.Score == nil {
			t.Errorf("set %d was not scored", s.ID)
		}
	}
}
