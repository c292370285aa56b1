package elq_test

import (
	"testing"

	"github.com/hscells/elq"
	"github.com/magiconair/properties"
	"github.com/pkg/errors"
)

func TestValidateRequiresCommonness(t *testing.T) {
	c := elq.NewConfig()
	err := c.Validate()
	if errors.Cause(err) != elq.ErrConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}

	c = elq.NewConfig(elq.CommonnessThreshold(0.1))
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestValidateSurfaceFormSource(t *testing.T) {
	c := elq.NewConfig(elq.CommonnessThreshold(0.1))
	if c.SurfaceFormSource != elq.SourceFACC {
		t.Errorf("default source %q", c.SurfaceFormSource)
	}
	c.SurfaceFormSource = "wiki"
	if err := c.Validate(); errors.Cause(err) != elq.ErrConfiguration {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestValidateFolds(t *testing.T) {
	for _, k := range []int{-2, 0, 1} {
		c := elq.NewConfig(elq.CommonnessThreshold(0.1), elq.Folds(k))
		if err := c.Validate(); errors.Cause(err) != elq.ErrConfiguration {
			t.Errorf("folds %d: expected configuration error, got %v", k, err)
		}
	}
	for _, k := range []int{-1, 2, 10} {
		c := elq.NewConfig(elq.CommonnessThreshold(0.1), elq.Folds(k))
		if err := c.Validate(); err != nil {
			t.Errorf("folds %d: %v", k, err)
		}
	}
}

func TestValidateWeights(t *testing.T) {
	cases := []struct {
		weights []float64
		ok      bool
	}{
		{[]float64{0.2, 0.0, 0.8}, true},
		{[]float64{0.2, 0.8}, false},
		{[]float64{0, 0, 0}, false},
		{[]float64{-0.1, 0.3, 0.8}, false},
	}
	for _, c := range cases {
		err := elq.ValidateWeights(c.weights)
		if c.ok && err != nil {
			t.Errorf("%v: unexpected error %v", c.weights, err)
		}
		if !c.ok && errors.Cause(err) != elq.ErrConfiguration {
			t.Errorf("%v: expected configuration error, got %v", c.weights, err)
		}
	}
}

func TestFieldWeightsSkipsZeros(t *testing.T) {
	w := elq.FieldWeights([]float64{0.2, 0, 0.8})
	if len(w) != 2 {
		t.Fatalf("expected 2 fields, got %v", w)
	}
	if w[elq.FieldNames] != 0.2 || w[elq.FieldContents] != 0.8 {
		t.Errorf("unexpected weights %v", w)
	}
}

func TestConfigFromProperties(t *testing.T) {
	p := properties.MustLoadString(`
cer.commonness = 0.1
cer.weights = 0.4, 0.4, 0.2
cer.cmn = true
scorer.smoothing = Dirichlet
isf.k = 10
cv.folds = -1
run.id = test-run
`)
	c, err := elq.ConfigFromProperties(p)
	if err != nil {
		t.Fatal(err)
	}
	if *c.CommonnessThreshold != 0.1 {
		t.Errorf("commonness: %v", *c.CommonnessThreshold)
	}
	if c.Weights[0] != 0.4 || c.Weights[1] != 0.4 || c.Weights[2] != 0.2 {
		t.Errorf("weights: %v", c.Weights)
	}
	if !c.CombineCommonness || c.Smoothing != elq.SmoothingDirichlet || c.TopK != 10 || c.Folds != -1 || c.RunID != "test-run" {
		t.Errorf("unexpected config %+v", c)
	}
}

func TestConfigFromPropertiesBadWeights(t *testing.T) {
	p := properties.MustLoadString("cer.commonness = 0.1\ncer.weights = 0.4,x,0.2\n")
	if _, err := elq.ConfigFromProperties(p); errors.Cause(err) != elq.ErrConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
