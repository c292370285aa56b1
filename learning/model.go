package learning

import (
	"io"
	"os"
	"strconv"

	"github.com/hscells/elq"
	"github.com/pkg/errors"
)

// PositiveLabel is the class whose probability becomes the score of a classified instance.
const PositiveLabel = "1"

// Dataset is a feature matrix with one row per instance. Columns follow Features.
type Dataset struct {
	Features []string
	IDs      []int
	X        [][]float64
	Y        []string
}

// NewDataset builds the feature matrix of the instances over the given features, the sorted
// feature names of the instances when features is nil. Missing features are 0.
func NewDataset(ins *Instances, features []string) Dataset {
	if features == nil {
		features = ins.FeatureNames()
	}
	d := Dataset{Features: features}
	for _, i := range ins.All() {
		row := make([]float64, len(features))
		for j, f := range features {
			row[j] = i.Features[f]
		}
		d.IDs = append(d.IDs, i.ID)
		d.X = append(d.X, row)
		d.Y = append(d.Y, i.Target)
	}
	return d
}

// Len is the number of rows.
func (d Dataset) Len() int {
	return len(d.X)
}

// Targets parses the targets as numbers for regression.
func (d Dataset) Targets() ([]float64, error) {
	y := make([]float64, len(d.Y))
	for i, t := range d.Y {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "target of instance %d", d.IDs[i])
		}
		y[i] = v
	}
	return y, nil
}

// columns gives the position in given of every trained feature, or -1 when it is missing.
func columns(trained, given []string) []int {
	pos := make(map[string]int, len(given))
	for i, f := range given {
		pos[f] = i
	}
	cols := make([]int, len(trained))
	for i, f := range trained {
		if p, ok := pos[f]; ok {
			cols[i] = p
		} else {
			cols[i] = -1
		}
	}
	return cols
}

// Prediction is the output of a model for one row. For regression Score is the predicted value
// and Label is empty; for classification Label is the predicted class and Score is the
// probability of PositiveLabel.
type Prediction struct {
	Label string
	Score float64
}

// Model can be trained on a dataset and then predict the rows of other datasets. Models are
// persisted with Save and restored with Load.
type Model interface {
	Train(d Dataset) error
	Predict(d Dataset) ([]Prediction, error)
	Save(w io.Writer) error
	Load(r io.Reader) error
}

// NewModel creates an untrained model of the configured kind and category.
func NewModel(c *elq.Config) (Model, error) {
	switch c.ModelKind {
	case elq.ModelForest:
		return NewForest(
			ForestCategory(c.ModelCategory),
			ForestTrees(c.Trees),
			ForestMaxDepth(c.MaxDepth),
			ForestMinLeaf(c.MinLeaf),
			ForestFeatureRatio(c.FeatureRatio),
			ForestSeed(c.Seed),
		), nil
	case elq.ModelExternal:
		return NewExternal(c.ModelBinary, c.ModelCategory, c.ModelArgs...), nil
	}
	return nil, elq.ConfigurationError("unknown model kind %q", c.ModelKind)
}

// Train trains the model on the instances over their sorted feature names.
func Train(model Model, ins *Instances) error {
	return model.Train(NewDataset(ins, nil))
}

// Apply predicts the instances and writes the predictions back: regression sets the score,
// classification sets the target to the predicted class and the score to the probability of
// the positive class.
func Apply(model Model, ins *Instances, category string) error {
	d := NewDataset(ins, nil)
	predictions, err := model.Predict(d)
	if err != nil {
		return err
	}
	if len(predictions) != d.Len() {
		return errors.Errorf("model predicted %d rows for %d instances", len(predictions), d.Len())
	}
	for n, id := range d.IDs {
		i, _ := ins.Get(id)
		p := predictions[n]
		score := p.Score
		i.SetScore(&score)
		if category == elq.CategoryClassification {
			i.Target = p.Label
		}
	}
	return nil
}

// SaveModel writes a trained model to a file.
func SaveModel(model Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return model.Save(f)
}

// LoadModel restores a model of the configured kind from a file written by SaveModel.
func LoadModel(c *elq.Config, path string) (Model, error) {
	model, err := NewModel(c)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := model.Load(f); err != nil {
		return nil, errors.Wrapf(err, "loading model %s", path)
	}
	return model, nil
}
