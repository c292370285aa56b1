package isf

import (
	"github.com/hscells/elq/features"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregate summarises a feature of every entity of a set as its minimum, maximum and mean, named
// name_min, name_max and name_avg. Sums and products are left out so that sets of different
// sizes stay comparable. Nothing is aggregated from no values.
func Aggregate(name string, values []float64) features.Features {
	if len(values) == 0 {
		return features.Features{}
	}
	return features.Features{
		name + "_min": floats.Min(values),
		name + "_max": floats.Max(values),
		name + "_avg": stat.Mean(values, nil),
	}
}
