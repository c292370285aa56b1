package eval_test

import (
	"math"
	"strings"
	"testing"

	"github.com/hscells/elq"
	"github.com/hscells/elq/eval"
	"github.com/hscells/trecresults"
	"github.com/pkg/errors"
)

const qrels = `q1	1	/m/a	/m/b
q1	1	/m/c
q2	1	/m/d
q3
`

const run = `q1	0.9	/m/b	/m/a
q1	0.4	/m/e
q2	0.5	/m/d
q4	0.2	/m/f
`

func read(t *testing.T, s string) eval.Sets {
	sets, err := eval.ReadSets(strings.NewReader(s))
	if err != nil {
		t.Fatal(err)
	}
	return sets
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestReadSets(t *testing.T) {
	sets := read(t, qrels)
	if len(sets) != 3 || len(sets["q1"]) != 2 || len(sets["q3"]) != 0 {
		t.Errorf("unexpected sets %v", sets)
	}
	if _, ok := sets["q3"]; !ok {
		t.Error("a query without sets was dropped")
	}
	if got := sets.Queries(); strings.Join(got, ",") != "q1,q2,q3" {
		t.Errorf("queries %v", got)
	}

	_, err := eval.ReadSets(strings.NewReader("q1\t1\t/m/a\t/m/b\nq1\t1\t/m/b\t/m/a\n"))
	if errors.Cause(err) != elq.ErrDataIntegrity {
		t.Errorf("expected a data integrity error, got %v", err)
	}
}

func TestNewSetRepeatedEntities(t *testing.T) {
	s := eval.NewSet("/m/b", "/m/a", "/m/b")
	if strings.Join(s, ",") != "/m/a,/m/b" {
		t.Errorf("got %v", s)
	}

	// A set listing an entity twice is the same interpretation.
	m, err := eval.Strict(read(t, "q1\t1\t/m/a\n"), read(t, "q1\t0.5\t/m/a\t/m/a\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !near(m.Precision, 1) || !near(m.Recall, 1) {
		t.Errorf("got %+v", m)
	}
}

func TestStrict(t *testing.T) {
	m, err := eval.Strict(read(t, qrels), read(t, run))
	if err != nil {
		t.Fatal(err)
	}
	// q1: P 1/2 R 1/2, q2: P 1 R 1, q3: nothing found for no sets, P 1 R 1.
	precision, recall := (0.5+1+1)/3, (0.5+1+1)/3
	if !near(m.Precision, precision) || !near(m.Recall, recall) {
		t.Errorf("precision %f recall %f", m.Precision, m.Recall)
	}
	if !near(m.F1, 2*precision*recall/(precision+recall)) {
		t.Errorf("f1 %f", m.F1)
	}
	if m.Queries != 3 {
		t.Errorf("queries %d", m.Queries)
	}
	if !near(m.PerQuery["q1"]["Precision"], 0.5) {
		t.Errorf("q1 %v", m.PerQuery["q1"])
	}

	_, err = eval.Strict(read(t, qrels), read(t, "q9\t1\t/m/a\n"))
	if errors.Cause(err) != elq.ErrDataIntegrity {
		t.Errorf("expected a data integrity error, got %v", err)
	}
}

func TestEmptyQuery(t *testing.T) {
	if eval.Precision.Score(nil, nil) != 1 || eval.Recall.Score(nil, nil) != 1 {
		t.Error("finding nothing for a query without sets is correct")
	}
	found := []eval.Set{eval.NewSet("/m/a")}
	if eval.Precision.Score(nil, found) != 0 || eval.F1Measure.Score(nil, found) != 0 {
		t.Error("finding a set for a query without sets is wrong")
	}
	if eval.NumRelRet.Score(found, found) != 1 {
		t.Error("expected one relevant set found")
	}
}

func TestEvaluateRanking(t *testing.T) {
	results := map[string]trecresults.ResultList{
		"q1": {
			{Topic: "q1", DocId: "c", Rank: 3, Score: 0.2},
			{Topic: "q1", DocId: "a", Rank: 1, Score: 0.9},
			{Topic: "q1", DocId: "b", Rank: 2, Score: 0.5},
		},
		"q3": {{Topic: "q3", DocId: "a", Rank: 1, Score: 1}},
	}
	qrels := trecresults.QrelsFile{Qrels: map[string]trecresults.Qrels{
		"q1": {
			"a": {Topic: "q1", DocId: "a", Score: 1},
			"c": {Topic: "q1", DocId: "c", Score: 1},
			"d": {Topic: "q1", DocId: "d", Score: 1},
		},
		"q2": {
			"e": {Topic: "q2", DocId: "e", Score: 1},
		},
	}}

	scores := eval.EvaluateRanking([]eval.RankingEvaluator{eval.AP, eval.PrecisionAtK{K: 2}, eval.NDCG{}}, results, qrels)
	idcg := 1 + 1/math.Log2(3) + 0.5
	expected := map[string]float64{
		"AP":   (5.0 / 9) / 2,
		"P@2":  0.5 / 2,
		"nDCG": (1.5 / idcg) / 2,
	}
	for name, v := range expected {
		if math.Abs(scores[name]-v) > 1e-9 {
			t.Errorf("%s: got %f, expected %f", name, scores[name], v)
		}
	}
}

func TestResidual(t *testing.T) {
	results := trecresults.ResultList{
		{Topic: "q1", DocId: "a", Rank: 1},
		{Topic: "q1", DocId: "b", Rank: 2},
	}
	rels := trecresults.Qrels{"b": {Topic: "q1", DocId: "b", Score: 1}}
	r := eval.NewResidualEvaluator(eval.PrecisionAtK{K: 2})
	if r.Name() != "ResidualP@2" {
		t.Errorf("unexpected name %s", r.Name())
	}
	if p := r.Score(results, rels); p != 1 {
		t.Errorf("got %f", p)
	}
	if len(rels) != 1 {
		t.Error("the assessments were modified")
	}
}
