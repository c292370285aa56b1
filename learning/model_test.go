package learning_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/hscells/elq"
	"github.com/hscells/elq/learning"
)

// separable labels instances "1" when x > 5.
func separable() *learning.Instances {
	ins := learning.NewInstances()
	for id := 0; id < 20; id++ {
		i := learning.NewInstance(id)
		x := float64(id % 10)
		i.Features["x"] = x
		i.Features["noise"] = float64((id * 7) % 3)
		if x > 5 {
			i.Target = "1"
		}
		ins.Add(i)
	}
	return ins
}

func TestForestClassification(t *testing.T) {
	f := learning.NewForest(
		learning.ForestCategory(elq.CategoryClassification),
		learning.ForestTrees(15),
		learning.ForestFeatureRatio(1),
		learning.ForestSeed(7),
	)
	if err := learning.Train(f, separable()); err != nil {
		t.Fatal(err)
	}

	test := learning.NewInstances()
	for id, x := range []float64{0, 2, 8, 9} {
		i := learning.NewInstance(id)
		i.Features["x"] = x
		i.Features["noise"] = 1
		test.Add(i)
	}
	if err := learning.Apply(f, test, elq.CategoryClassification); err != nil {
		t.Fatal(err)
	}
	for _, i := range test.All() {
		expected := "0"
		if i.Features["x"] > 5 {
			expected = "1"
		}
		if i.Target != expected {
			t.Errorf("x=%v: predicted %s, expected %s", i.Features["x"], i.Target, expected)
		}
		s := i.Score()
		if s == nil || *s < 0 || *s > 1 {
			t.Errorf("x=%v: score %v is not a probability", i.Features["x"], s)
		}
	}
}

func TestForestRegression(t *testing.T) {
	ins := learning.NewInstances()
	for id := 0; id < 10; id++ {
		i := learning.NewInstance(id)
		i.Features["x"] = float64(id)
		i.Target = "2"
		if id >= 5 {
			i.Target = "4"
		}
		ins.Add(i)
	}
	f := learning.NewForest(learning.ForestTrees(10), learning.ForestFeatureRatio(1), learning.ForestSeed(1))
	if err := learning.Train(f, ins); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := f.Save(&buf); err != nil {
		t.Fatal(err)
	}
	loaded := learning.NewForest()
	if err := loaded.Load(&buf); err != nil {
		t.Fatal(err)
	}

	d := learning.Dataset{Features: []string{"x"}, X: [][]float64{{0}, {9}}}
	predictions, err := loaded.Predict(d)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range predictions {
		if p.Score < 2 || p.Score > 4 {
			t.Errorf("prediction %v is outside the range of the targets", p.Score)
		}
	}
	if predictions[0].Score >= predictions[1].Score {
		t.Errorf("expected x=0 (%v) to score below x=9 (%v)", predictions[0].Score, predictions[1].Score)
	}
}

func TestForestMissingFeature(t *testing.T) {
	f := learning.NewForest(learning.ForestTrees(3))
	if err := learning.Train(f, separable()); err != nil {
		t.Fatal(err)
	}
	d := learning.Dataset{Features: []string{"other"}, X: [][]float64{{1}}}
	predictions, err := f.Predict(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(predictions) != 1 || math.IsNaN(predictions[0].Score) {
		t.Errorf("unexpected predictions %v", predictions)
	}
}

func TestReadPredictions(t *testing.T) {
	p, err := learning.ReadPredictions(strings.NewReader("# scores\n0.5\n\n1.5\n"), elq.CategoryRegression)
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 2 || p[1].Score != 1.5 {
		t.Errorf("unexpected predictions %v", p)
	}
	p, err = learning.ReadPredictions(strings.NewReader("1 0.9\n0 0.2\n"), elq.CategoryClassification)
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 2 || p[0].Label != "1" || p[1].Score != 0.2 {
		t.Errorf("unexpected predictions %v", p)
	}
	if _, err := learning.ReadPredictions(strings.NewReader("1\n"), elq.CategoryClassification); err == nil {
		t.Errorf("expected an error for a missing probability")
	}
}
