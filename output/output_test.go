package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hscells/elq/eval"
	"github.com/hscells/elq/learning"
	"github.com/hscells/elq/output"
)

func score(v float64) *float64 {
	return &v
}

func TestTrecEval(t *testing.T) {
	entries := []*learning.CEREntry{
		{QueryID: "q2", EntityID: "<dbpedia:A>", FreebaseID: "/m/a", Rank: 1, Score: score(0.5)},
		{QueryID: "q1", EntityID: "<dbpedia:B>", FreebaseID: "/m/b", Rank: 2, Score: score(0.25)},
		{QueryID: "q1", EntityID: "<dbpedia:B>", FreebaseID: "/m/b", Rank: 2, Score: score(0.125)},
		{QueryID: "q1", EntityID: "<dbpedia:C>", FreebaseID: "/m/c", Rank: 1, Score: score(0.75)},
		{QueryID: "q1", EntityID: "<dbpedia:D>", FreebaseID: "/m/d"},
	}
	var buf bytes.Buffer
	if err := output.TrecEval(&buf, entries, "run", false); err != nil {
		t.Fatal(err)
	}
	expected := "q1\tQ0\t/m/c\t1\t0.75\trun\n" +
		"q1\tQ0\t/m/b\t2\t0.25\trun\n" +
		"q2\tQ0\t/m/a\t1\t0.5\trun\n"
	if buf.String() != expected {
		t.Errorf("got\n%s\nexpected\n%s", buf.String(), expected)
	}

	buf.Reset()
	if err := output.TrecEval(&buf, entries[:1], "run", true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<dbpedia:A>") {
		t.Errorf("got %s", buf.String())
	}
}

func TestERDEval(t *testing.T) {
	cer := map[string]learning.CERAttributes{
		"<dbpedia:A>": {FreebaseID: "/m/a"},
		"<dbpedia:B>": {FreebaseID: "/m/b"},
	}
	entries := []*learning.ISFEntry{
		{ID: 0, QueryID: "q1", Set: map[string]string{"<dbpedia:A>": "a", "<dbpedia:B>": "b"}, CER: cer, Score: score(0.5), Target: "1"},
		{ID: 1, QueryID: "q1", Set: map[string]string{"<dbpedia:B>": "b b", "<dbpedia:A>": "a"}, CER: cer, Score: score(0.75), Target: "1"},
		{ID: 2, QueryID: "q1", Set: map[string]string{"<dbpedia:A>": "a"}, CER: cer, Score: score(0.9), Target: "0"},
		{ID: 3, QueryID: "q0", Set: map[string]string{"<dbpedia:B>": "b"}, CER: cer, Score: score(0.25), Target: "1"},
	}
	var buf bytes.Buffer
	if err := output.ERDEval(&buf, entries); err != nil {
		t.Fatal(err)
	}
	expected := "q0\t0.25\t/m/b\n" +
		"q1\t0.75\t/m/a\t/m/b\n"
	if buf.String() != expected {
		t.Errorf("got\n%s\nexpected\n%s", buf.String(), expected)
	}
}

func TestQrelSets(t *testing.T) {
	gt := []*learning.CEREntry{
		{QueryID: "q1", FreebaseID: "/m/b", SetID: "0", Target: "1"},
		{QueryID: "q1", FreebaseID: "/m/a", SetID: "0", Target: "1"},
		{QueryID: "q1", FreebaseID: "/m/c", SetID: "1", Target: "1"},
		{QueryID: "q1", FreebaseID: "/m/d", SetID: learning.NoSet, Target: "1"},
	}
	var buf bytes.Buffer
	if err := output.QrelSets(&buf, gt, []string{"q1", "q2"}); err != nil {
		t.Fatal(err)
	}
	expected := "q1\t1\t/m/a\t/m/b\nq1\t1\t/m/c\nq2\n"
	if buf.String() != expected {
		t.Errorf("got\n%s\nexpected\n%s", buf.String(), expected)
	}

	// The written sets read back as the same sets.
	sets, err := eval.ReadSets(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets["q1"]) != 2 || len(sets["q2"]) != 0 {
		t.Errorf("got %v", sets)
	}
}

func TestMeasurements(t *testing.T) {
	m := eval.Measures{
		Precision: 0.5,
		Recall:    0.25,
		F1:        1.0 / 3,
		Queries:   1,
		PerQuery:  map[string]map[string]float64{"q1": {"Precision": 0.5, "Recall": 0.25, "F1Measure": 1.0 / 3}},
	}
	var buf bytes.Buffer
	if err := output.Measurements(&buf, m, output.FormatCSV); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "Topic,Precision,Recall,F1Measure" || !strings.HasPrefix(lines[2], "all,0.5,0.25,") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	if err := output.Measurements(&buf, m, output.FormatJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"all"`) {
		t.Errorf("got %s", buf.String())
	}
	if err := output.Measurements(&buf, m, "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestRankingMeasurements(t *testing.T) {
	var buf bytes.Buffer
	err := output.RankingMeasurements(&buf, map[string]float64{"nDCG": 0.5, "AP": 0.25}, output.FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	expected := "Topic,AP,nDCG\nall,0.25,0.5\n"
	if buf.String() != expected {
		t.Errorf("got %q, expected %q", buf.String(), expected)
	}
}
