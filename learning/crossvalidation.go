package learning

import (
	"io"
	"io/ioutil"
	"log"
	"math/rand"
	"os"
	"sort"
	"strconv"

	"github.com/hscells/elq"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"github.com/pkg/errors"
)

// LeaveOneOut is the number of folds that puts every group in a fold of its own.
const LeaveOneOut = -1

// Fold is one split of the instances into training and testing ids.
type Fold struct {
	Training []int
	Testing  []int
}

// TrainFunc trains a model on the training partition of a fold.
type TrainFunc func(training *Instances) (Model, error)

// PredictFunc applies a model to the testing partition of a fold and returns the predicted
// instances.
type PredictFunc func(testing *Instances, model Model) (*Instances, error)

// CrossValidation runs k-fold cross-validation over a collection of instances. Instances can
// be grouped by a property so that correlated instances, such as queries of the same session,
// never end up on both sides of a fold.
type CrossValidation struct {
	k         int
	instances *Instances
	groupBy   string
	seed      int64
	progress  bool
	folds     []Fold
}

// GroupBy groups instances by a property when creating folds. Without it every instance is a
// group of its own.
func GroupBy(property string) func(*CrossValidation) {
	return func(cv *CrossValidation) {
		cv.groupBy = property
	}
}

// Seed seeds the shuffle of the groups.
func Seed(seed int64) func(*CrossValidation) {
	return func(cv *CrossValidation) {
		cv.seed = seed
	}
}

// ShowProgress reports progress over the folds.
func ShowProgress(progress bool) func(*CrossValidation) {
	return func(cv *CrossValidation) {
		cv.progress = progress
	}
}

// NewCrossValidation creates a k-fold cross-validation; k of LeaveOneOut uses one fold per
// group.
func NewCrossValidation(k int, instances *Instances, options ...func(*CrossValidation)) (*CrossValidation, error) {
	if k < 2 && k != LeaveOneOut {
		return nil, elq.ConfigurationError("invalid number of folds %d", k)
	}
	cv := &CrossValidation{
		k:         k,
		instances: instances,
	}
	for _, option := range options {
		option(cv)
	}
	return cv, nil
}

// Folds are the current folds, nil before they have been created or loaded.
func (cv *CrossValidation) Folds() []Fold {
	return cv.folds
}

func (cv *CrossValidation) groups() (map[string][]int, []string) {
	var groups map[string][]int
	if len(cv.groupBy) > 0 {
		groups = cv.instances.GroupBy(cv.groupBy)
	} else {
		groups = make(map[string][]int, cv.instances.Len())
		for _, id := range cv.instances.IDs() {
			groups[strconv.Itoa(id)] = []int{id}
		}
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return groups, keys
}

func (cv *CrossValidation) numFolds(groups int) int {
	if cv.k == LeaveOneOut {
		return groups
	}
	return cv.k
}

// CreateFolds shuffles the groups and deals them into folds: the group at position i of the
// shuffled order is tested in fold i mod k and used for training in every other fold.
func (cv *CrossValidation) CreateFolds() []Fold {
	groups, keys := cv.groups()
	r := rand.New(rand.NewSource(cv.seed))
	r.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})

	n := cv.numFolds(len(keys))
	cv.folds = make([]Fold, n)
	for f := 0; f < n; f++ {
		fold := Fold{Training: []int{}, Testing: []int{}}
		for i, key := range keys {
			if i%n == f {
				fold.Testing = append(fold.Testing, groups[key]...)
			} else {
				fold.Training = append(fold.Training, groups[key]...)
			}
		}
		sort.Ints(fold.Training)
		sort.Ints(fold.Testing)
		cv.folds[f] = fold
	}
	return cv.folds
}

// SaveFolds writes the folds as JSON: {"0": {"training": [...], "testing": [...]}, ...}.
func (cv *CrossValidation) SaveFolds(w io.Writer) error {
	jw := &jwriter.Writer{}
	jw.RawByte('{')
	for f, fold := range cv.folds {
		if f > 0 {
			jw.RawByte(',')
		}
		jw.String(strconv.Itoa(f))
		jw.RawString(`:{"training":`)
		writeInts(jw, fold.Training)
		jw.RawString(`,"testing":`)
		writeInts(jw, fold.Testing)
		jw.RawByte('}')
	}
	jw.RawByte('}')
	if jw.Error != nil {
		return jw.Error
	}
	_, err := jw.DumpTo(w)
	return err
}

func writeInts(jw *jwriter.Writer, ids []int) {
	jw.RawByte('[')
	for n, id := range ids {
		if n > 0 {
			jw.RawByte(',')
		}
		jw.Int(id)
	}
	jw.RawByte(']')
}

// LoadFolds reads folds written by SaveFolds. The number of folds must match the number the
// cross-validation was created with, and the folds must test every instance exactly once.
func (cv *CrossValidation) LoadFolds(r io.Reader) error {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	l := &jlexer.Lexer{Data: data}
	folds := make(map[int]Fold)
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.String()
		l.WantColon()
		f, err := strconv.Atoi(key)
		if err != nil {
			l.AddError(errors.Wrapf(err, "fold %q", key))
			break
		}
		var fold Fold
		l.Delim('{')
		for !l.IsDelim('}') {
			part := l.String()
			l.WantColon()
			var ids []int
			l.Delim('[')
			for !l.IsDelim(']') {
				ids = append(ids, l.Int())
				l.WantComma()
			}
			l.Delim(']')
			switch part {
			case "training":
				fold.Training = ids
			case "testing":
				fold.Testing = ids
			}
			l.WantComma()
		}
		l.Delim('}')
		folds[f] = fold
		l.WantComma()
	}
	l.Delim('}')
	l.Consumed()
	if err := l.Error(); err != nil {
		return err
	}

	_, keys := cv.groups()
	if n := cv.numFolds(len(keys)); len(folds) != n {
		return elq.ConfigurationError("folds file has %d folds, expected %d", len(folds), n)
	}
	loaded := make([]Fold, len(folds))
	for f := range loaded {
		fold, ok := folds[f]
		if !ok {
			return elq.ConfigurationError("folds file is missing fold %d", f)
		}
		loaded[f] = fold
	}
	if err := cv.checkFolds(loaded); err != nil {
		return err
	}
	cv.folds = loaded
	return nil
}

// checkFolds verifies that folds cover the instances: every instance is tested in exactly one
// fold and every training id is a known instance.
func (cv *CrossValidation) checkFolds(folds []Fold) error {
	tested := make(map[int]int)
	for f, fold := range folds {
		for _, id := range fold.Testing {
			if !cv.instances.Has(id) {
				return elq.DataIntegrityError("fold %d tests unknown instance %d", f, id)
			}
			if g, ok := tested[id]; ok {
				return elq.DataIntegrityError("instance %d is tested in folds %d and %d", id, g, f)
			}
			tested[id] = f
		}
		for _, id := range fold.Training {
			if !cv.instances.Has(id) {
				return elq.DataIntegrityError("fold %d trains on unknown instance %d", f, id)
			}
		}
	}
	for _, id := range cv.instances.IDs() {
		if _, ok := tested[id]; !ok {
			return elq.DataIntegrityError("instance %d is not tested in any fold", id)
		}
	}
	return nil
}

// GetFolds loads the folds from path when the file exists, and otherwise creates the folds and
// saves them there.
func (cv *CrossValidation) GetFolds(path string) ([]Fold, error) {
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := cv.LoadFolds(f); err != nil {
			return nil, err
		}
		log.Printf("loaded %d folds from %s\n", len(cv.folds), path)
		return cv.folds, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cv.CreateFolds()
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := cv.SaveFolds(f); err != nil {
		return nil, err
	}
	log.Printf("saved %d folds to %s\n", len(cv.folds), path)
	return cv.folds, nil
}

// Run trains a model on the training partition of every fold and applies it to the testing
// partition. Folds are created with CreateFolds when none have been created or loaded. The
// result is the union of the predicted testing instances of all folds.
func (cv *CrossValidation) Run(train TrainFunc, predict PredictFunc) (*Instances, error) {
	if cv.folds == nil {
		cv.CreateFolds()
	}
	predicted := NewInstances()
	bar := elq.NewProgress(len(cv.folds), cv.progress)
	for f, fold := range cv.folds {
		log.Printf("cross-validation fold %d/%d: %d training, %d testing\n", f+1, len(cv.folds), len(fold.Training), len(fold.Testing))
		model, err := train(cv.instances.Subset(fold.Training))
		if err != nil {
			return nil, errors.Wrapf(err, "training fold %d", f)
		}
		out, err := predict(cv.instances.Subset(fold.Testing), model)
		if err != nil {
			return nil, errors.Wrapf(err, "testing fold %d", f)
		}
		for _, i := range out.All() {
			predicted.Add(i)
		}
		bar.Increment()
	}
	bar.Finish()
	return predicted, nil
}
