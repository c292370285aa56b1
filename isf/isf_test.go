package isf_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/hscells/elq"
	"github.com/hscells/elq/features"
	"github.com/hscells/elq/isf"
	"github.com/hscells/elq/kb"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/query"
	"github.com/hscells/elq/stats"
)

func score(v float64) *float64 {
	return &v
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSegmentations(t *testing.T) {
	q := query.New("yahoo-111_1", "jon gruden rumors")
	segments := isf.Segmentations(q, []string{"jon gruden", "gruden", "rumors", "jon"})
	if len(segments) != 9 {
		t.Errorf("expected 9 segmentations, got %d: %v", len(segments), segments)
	}

	has := func(want ...string) bool {
		for _, s := range segments {
			if reflect.DeepEqual(s, want) {
				return true
			}
		}
		return false
	}
	for _, want := range [][]string{
		{"jon gruden"},
		{"jon gruden", "rumors"},
		{"gruden", "jon", "rumors"},
	} {
		if !has(want...) {
			t.Errorf("missing segmentation %v", want)
		}
	}
	for _, s := range segments {
		if query.Overlapping(s) {
			t.Errorf("overlapping segmentation %v", s)
		}
	}
}

func TestExpand(t *testing.T) {
	sets := isf.Expand([]string{"gruden", "jon"}, map[string][]string{
		"gruden": {"E1"},
		"jon":    {"E2", "E3"},
	})
	expected := []map[string]string{
		{"E1": "gruden", "E2": "jon"},
		{"E1": "gruden", "E3": "jon"},
	}
	if !reflect.DeepEqual(sets, expected) {
		t.Errorf("got %v, expected %v", sets, expected)
	}

	// Both mentions can only be linked to the same entity.
	sets = isf.Expand([]string{"tweets", "twitter"}, map[string][]string{
		"tweets":  {"Twitter", "Breaking_Tweets"},
		"twitter": {"Twitter"},
	})
	if len(sets) != 1 || sets[0]["Breaking_Tweets"] != "tweets" {
		t.Errorf("got %v", sets)
	}

	if sets := isf.Expand([]string{"a", "b"}, map[string][]string{"a": {"E1"}}); len(sets) != 0 {
		t.Errorf("a mention without entities produced %v", sets)
	}
}

func TestAggregate(t *testing.T) {
	f := isf.Aggregate("score", []float64{1, 2, 6})
	expected := features.Features{"score_min": 1, "score_max": 6, "score_avg": 3}
	if !reflect.DeepEqual(f, expected) {
		t.Errorf("got %v", f)
	}
	if f := isf.Aggregate("score", nil); len(f) != 0 {
		t.Errorf("got %v", f)
	}
}

func grudenEntries() []*learning.CEREntry {
	entry := func(id int, mention, en string, s *float64) *learning.CEREntry {
		return &learning.CEREntry{
			ID:           id,
			QueryID:      "q1",
			QueryContent: "jon gruden rumors",
			Mention:      mention,
			EntityID:     en,
			FreebaseID:   "/m/" + en,
			Commonness:   0.5,
			Score:        s,
		}
	}
	return []*learning.CEREntry{
		entry(0, "jon gruden", "E1", score(4)),
		entry(1, "gruden", "E1", score(2)),
		entry(2, "jon", "E2", score(1)),
		entry(3, "jon", "E3", score(3)),
		entry(4, "rumors", "E4", nil),
	}
}

func TestSetGen(t *testing.T) {
	entries := grudenEntries()
	sets := isf.NewSetGen(entries, 0).Generate()
	if len(sets) != 6 {
		t.Fatalf("expected 6 sets, got %d", len(sets))
	}
	for i, s := range sets {
		if s.ID != i || s.QueryID != "q1" || s.Target != learning.DefaultTarget {
			t.Errorf("unexpected set %+v", s)
		}
		if _, ok := s.Set["E4"]; ok {
			t.Errorf("set %d holds an unscored entity", i)
		}
		for en, mention := range s.Set {
			a := s.CER[en]
			if a.FreebaseID != "/m/"+en || a.Rank == 0 || a.Score == nil || a.MLMTC != nil {
				t.Errorf("%s (%s): unexpected attributes %+v", en, mention, a)
			}
			if en == "E1" && mention == "jon gruden" && *a.Score != 1 {
				t.Errorf("expected the normalised maximum, got %f", *a.Score)
			}
		}
	}
	if *entries[0].Score != 4 {
		t.Error("the ranked entries were modified")
	}

	// Only the best ranked entity survives a cutoff of 1.
	sets = isf.NewSetGen(grudenEntries(), 1).Generate()
	if len(sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(sets))
	}
	for _, s := range sets {
		if len(s.Set) != 1 || s.Set["E1"] == "" {
			t.Errorf("unexpected set %v", s.Set)
		}
	}
}

func TestSetGenLearned(t *testing.T) {
	entries := grudenEntries()
	for _, e := range entries {
		e.Features = map[string]float64{"mlm-tc": 0.25}
	}
	for _, s := range isf.NewSetGen(entries, 0).Generate() {
		for en := range s.Set {
			a := s.CER[en]
			if a.MLMTC == nil || *a.MLMTC != 0.25 {
				t.Errorf("%s: missing mlm-tc", en)
			}
			if en == "E1" && s.Set[en] == "jon gruden" && *a.Score != 4 {
				t.Errorf("learned scores were normalised: %f", *a.Score)
			}
		}
	}
}

func TestGreedy(t *testing.T) {
	entries := []*learning.CEREntry{
		{ID: 0, QueryID: "q1", Mention: "jon gruden", EntityID: "E1", Score: score(0.9)},
		{ID: 1, QueryID: "q1", Mention: "gruden", EntityID: "E1", Score: score(0.5)},
		{ID: 2, QueryID: "q1", Mention: "rumors", EntityID: "E4", Score: score(0.6)},
		{ID: 3, QueryID: "q1", Mention: "jon", EntityID: "E2", Score: score(0.2)},
		{ID: 4, QueryID: "q1", Mention: "gruden rumors", EntityID: "E5", Score: score(0.7)},
		{ID: 5, QueryID: "q2", Mention: "uss yorktown", EntityID: "E6", Score: score(0.8)},
		{ID: 6, QueryID: "q2", Mention: "charleston", EntityID: "E7", Score: score(0.4)},
		{ID: 7, QueryID: "q2", Mention: "sc", EntityID: "E8", Score: nil},
	}
	sets := isf.NewGreedy(elq.NewConfig(elq.ScoreThreshold(0.3))).Link(entries)
	if len(sets) != 3 {
		t.Fatalf("expected 3 sets, got %d", len(sets))
	}
	expected := []map[string]string{
		{"E1": "jon gruden"},
		{"E5": "gruden rumors"},
		{"E6": "uss yorktown", "E7": "charleston"},
	}
	scores := []float64{0.9, 0.7, 0.6}
	for i, s := range sets {
		if !reflect.DeepEqual(s.Set, expected[i]) {
			t.Errorf("set %d: got %v, expected %v", i, s.Set, expected[i])
		}
		if !near(*s.Score, scores[i]) {
			t.Errorf("set %d: score %f, expected %f", i, *s.Score, scores[i])
		}
		if s.Target != learning.PositiveLabel || s.ID != i {
			t.Errorf("set %d: target %s id %d", i, s.Target, s.ID)
		}
	}
}

func groundTruth() []*learning.CEREntry {
	return []*learning.CEREntry{
		{QueryID: "q1", QueryContent: "jon gruden rumors", Mention: "jon gruden", EntityID: "E1", SetID: "0", Target: "1"},
		{QueryID: "q1", QueryContent: "jon gruden rumors", Mention: "gruden", EntityID: "E1", SetID: "1", Target: "1"},
		{QueryID: "q1", QueryContent: "jon gruden rumors", Mention: "jon", EntityID: "E3", SetID: "1", Target: "1"},
		{QueryID: "q1", QueryContent: "jon gruden rumors", Mention: "rumors", EntityID: "E9", SetID: learning.NoSet, Target: "1"},
	}
}

func TestGroundTruthSets(t *testing.T) {
	sets := isf.GroundTruthSets(groundTruth())
	if len(sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(sets))
	}
	if !reflect.DeepEqual(sets[1].Set, map[string]string{"E1": "gruden", "E3": "jon"}) {
		t.Errorf("got %v", sets[1].Set)
	}
	for _, s := range sets {
		if s.Target != learning.PositiveLabel || s.QueryContent != "jon gruden rumors" {
			t.Errorf("unexpected set %+v", s)
		}
	}
}

func TestCVAndTrainSets(t *testing.T) {
	cv := isf.CVSet(groundTruth(), grudenEntries(), 0)
	if len(cv) != 6 {
		t.Fatalf("expected 6 sets, got %d", len(cv))
	}
	var positives int
	for _, s := range cv {
		if s.Target == learning.PositiveLabel {
			positives++
		}
	}
	if positives != 2 {
		t.Errorf("expected both ground truth sets to be labelled, got %d", positives)
	}

	// With k=1 the negatives holding lower ranked entities are dropped but the positives stay.
	train := isf.TrainSet(groundTruth(), grudenEntries(), 1)
	positives = 0
	for i, s := range train {
		if s.ID != i {
			t.Errorf("set %d has id %d", i, s.ID)
		}
		if s.Target == learning.PositiveLabel {
			positives++
			continue
		}
		for en, a := range s.CER {
			if a.Rank > 1 {
				t.Errorf("negative set holds %s ranked %d", en, a.Rank)
			}
		}
	}
	if positives != 2 || len(train) != 3 {
		t.Errorf("expected 2 positives in 3 sets, got %d in %d", positives, len(train))
	}
}

func TestSetDetectorFeatures(t *testing.T) {
	store, err := kb.LoadMemoryStore("../kb/testdata/entities.jsonl", "../kb/testdata/surfaceforms.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	idx := stats.NewMemoryIndex()
	for _, e := range store.Entities() {
		idx.Add(e.ID, e.Document())
	}
	co := kb.NewMemoryCoOccurrence()
	co.AddDocument("/m/0fsb8", "/m/01fk7z")
	co.AddDocument("/m/0fsb8")

	sc, yorktown := "<dbpedia:Charleston,_South_Carolina>", "<dbpedia:USS_Yorktown_(CV-10)>"
	e := &learning.ISFEntry{
		QueryID:      "q1",
		QueryContent: "uss yorktown charleston sc",
		Set:          map[string]string{sc: "charleston sc", yorktown: "uss yorktown"},
		CER: map[string]learning.CERAttributes{
			sc:       {FreebaseID: "/m/0fsb8", Score: score(0.8), Rank: 1, Commonness: 1},
			yorktown: {FreebaseID: "/m/01fk7z", Score: score(0.4), Rank: 2, Commonness: 0.8},
		},
	}
	d := isf.NewSetDetector(elq.NewConfig(), features.NewExtractor(store, store, stats.NewScorer(idx)), co)
	f, err := d.Features(e)
	if err != nil {
		t.Fatal(err)
	}
	expected := map[string]float64{
		"len_ratio_set":  1,
		"completeness":   1,
		"P":              0.5,
		"j_corpora":      0.5,
		"irank_min":      0.5,
		"irank_max":      1,
		"score_avg":      0.6,
		"commonness_min": 0.8,
		"commonness_max": 1,
	}
	for k, v := range expected {
		if !near(f[k], v) {
			t.Errorf("%s: got %f, expected %f", k, f[k], v)
		}
	}
	for _, k := range []string{"common_links", "total_links", "j_kb", "rel_mw", "H", "set_sim", "links_avg", "context_sim_max"} {
		if _, ok := f[k]; !ok {
			t.Errorf("missing feature %s", k)
		}
	}
	if _, ok := f["mlm-tc_avg"]; ok {
		t.Error("mlm-tc was aggregated without ranking features")
	}
	if f["set_sim"] <= 0 {
		t.Errorf("set_sim %f", f["set_sim"])
	}
}

func TestTrainAndApply(t *testing.T) {
	var train []*learning.ISFEntry
	for i := 0; i < 20; i++ {
		x := float64(i % 10)
		target := learning.DefaultTarget
		if x > 5 {
			target = learning.PositiveLabel
		}
		train = append(train, &learning.ISFEntry{ID: i, QueryID: "q", Target: target, Features: map[string]float64{"x": x}})
	}
	c := elq.NewConfig()
	c.Trees, c.FeatureRatio, c.Seed = 10, 1, 3
	model, err := isf.Train(c, train)
	if err != nil {
		t.Fatal(err)
	}
	test := []*learning.ISFEntry{
		{ID: 0, QueryID: "q", Features: map[string]float64{"x": 1}},
		{ID: 1, QueryID: "q", Features: map[string]float64{"x": 9}},
	}
	if err := isf.Apply(model, test); err != nil {
		t.Fatal(err)
	}
	if test[0].Target != learning.DefaultTarget || test[1].Target != learning.PositiveLabel {
		t.Errorf("unexpected labels %s and %s", test[0].Target, test[1].Target)
	}
	if test[1].Score == nil || *test[1].Score <= *test[0].Score {
		t.Error("the accepted set should be more probable")
	}
	if c.ModelCategory != elq.CategoryRegression {
		t.Error("training changed the configuration")
	}
}
