package learning

import (
	"encoding/gob"
	"io"
	"math"
	"math/rand"
	"sort"

	"github.com/hscells/elq"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Node is a node of a decision tree. Leaves carry the mean target (regression) or the class
// distribution (classification).
type Node struct {
	Leaf         bool
	Feature      int
	Threshold    float64
	Left, Right  *Node
	Value        float64
	Distribution []float64
}

func (n *Node) leaf(x []float64, cols []int) *Node {
	for !n.Leaf {
		var v float64
		if c := cols[n.Feature]; c >= 0 {
			v = x[c]
		}
		if v <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

// Forest is a random forest of CART trees: every tree is grown on a bootstrap sample of the
// rows and considers a random subset of the features at each split. Regression trees split on
// variance, classification trees on gini impurity.
type Forest struct {
	Category     string
	Trees        int
	MaxDepth     int
	MinLeaf      int
	FeatureRatio float64
	Seed         int64

	Features []string
	Classes  []string
	Forest   []*Node
}

// ForestCategory sets whether the forest does regression or classification.
func ForestCategory(category string) func(*Forest) {
	return func(f *Forest) {
		f.Category = category
	}
}

// ForestTrees sets the number of trees.
func ForestTrees(n int) func(*Forest) {
	return func(f *Forest) {
		f.Trees = n
	}
}

// ForestMaxDepth limits the depth of every tree.
func ForestMaxDepth(depth int) func(*Forest) {
	return func(f *Forest) {
		f.MaxDepth = depth
	}
}

// ForestMinLeaf sets the minimum number of rows in a leaf.
func ForestMinLeaf(n int) func(*Forest) {
	return func(f *Forest) {
		f.MinLeaf = n
	}
}

// ForestFeatureRatio sets the share of features considered at each split.
func ForestFeatureRatio(ratio float64) func(*Forest) {
	return func(f *Forest) {
		f.FeatureRatio = ratio
	}
}

// ForestSeed seeds the bootstrap samples and feature subsets.
func ForestSeed(seed int64) func(*Forest) {
	return func(f *Forest) {
		f.Seed = seed
	}
}

// NewForest creates an untrained regression forest of 100 trees.
func NewForest(options ...func(*Forest)) *Forest {
	f := &Forest{
		Category:     elq.CategoryRegression,
		Trees:        100,
		MaxDepth:     12,
		MinLeaf:      1,
		FeatureRatio: 0.3,
	}
	for _, option := range options {
		option(f)
	}
	return f
}

func (f *Forest) classification() bool {
	return f.Category == elq.CategoryClassification
}

// Train grows the trees.
func (f *Forest) Train(d Dataset) error {
	if d.Len() == 0 {
		return errors.New("cannot train a forest without instances")
	}
	if f.Trees <= 0 {
		return elq.ConfigurationError("a forest needs at least one tree")
	}
	f.Features = append([]string(nil), d.Features...)

	var (
		y   []float64
		err error
	)
	if f.classification() {
		y = f.encodeClasses(d.Y)
	} else {
		y, err = d.Targets()
		if err != nil {
			return err
		}
	}

	b := &builder{
		forest: f,
		x:      d.X,
		y:      y,
		r:      rand.New(rand.NewSource(f.Seed)),
		mtry:   int(math.Ceil(f.FeatureRatio * float64(len(d.Features)))),
	}
	if b.mtry < 1 {
		b.mtry = 1
	}
	if b.mtry > len(d.Features) {
		b.mtry = len(d.Features)
	}

	f.Forest = make([]*Node, f.Trees)
	for t := range f.Forest {
		sample := make([]int, d.Len())
		for i := range sample {
			sample[i] = b.r.Intn(d.Len())
		}
		f.Forest[t] = b.grow(sample, 0)
	}
	return nil
}

// encodeClasses turns labels into class indexes over the sorted class labels.
func (f *Forest) encodeClasses(labels []string) []float64 {
	seen := make(map[string]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	f.Classes = make([]string, 0, len(seen))
	for l := range seen {
		f.Classes = append(f.Classes, l)
	}
	sort.Strings(f.Classes)
	index := make(map[string]int, len(f.Classes))
	for i, l := range f.Classes {
		index[l] = i
	}
	y := make([]float64, len(labels))
	for i, l := range labels {
		y[i] = float64(index[l])
	}
	return y
}

// Predict averages the trees: the mean of the leaf values for regression, the mean of the leaf
// distributions for classification.
func (f *Forest) Predict(d Dataset) ([]Prediction, error) {
	if len(f.Forest) == 0 {
		return nil, errors.New("forest has not been trained")
	}
	cols := columns(f.Features, d.Features)
	predictions := make([]Prediction, d.Len())
	for i, x := range d.X {
		if !f.classification() {
			values := make([]float64, len(f.Forest))
			for t, tree := range f.Forest {
				values[t] = tree.leaf(x, cols).Value
			}
			predictions[i] = Prediction{Score: stat.Mean(values, nil)}
			continue
		}

		dist := make([]float64, len(f.Classes))
		for _, tree := range f.Forest {
			floats.Add(dist, tree.leaf(x, cols).Distribution)
		}
		floats.Scale(1/float64(len(f.Forest)), dist)
		p := Prediction{Label: f.Classes[floats.MaxIdx(dist)]}
		for c, l := range f.Classes {
			if l == PositiveLabel {
				p.Score = dist[c]
			}
		}
		predictions[i] = p
	}
	return predictions, nil
}

// Save writes the trained forest with gob.
func (f *Forest) Save(w io.Writer) error {
	return gob.NewEncoder(w).Encode(f)
}

// Load reads a forest written by Save.
func (f *Forest) Load(r io.Reader) error {
	return gob.NewDecoder(r).Decode(f)
}

type builder struct {
	forest *Forest
	x      [][]float64
	y      []float64
	r      *rand.Rand
	mtry   int
}

func (b *builder) leaf(rows []int) *Node {
	n := &Node{Leaf: true}
	if !b.forest.classification() {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = b.y[r]
		}
		n.Value = stat.Mean(values, nil)
		return n
	}
	n.Distribution = make([]float64, len(b.forest.Classes))
	for _, r := range rows {
		n.Distribution[int(b.y[r])]++
	}
	floats.Scale(1/floats.Sum(n.Distribution), n.Distribution)
	return n
}

func (b *builder) grow(rows []int, depth int) *Node {
	minLeaf := b.forest.MinLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}
	if depth >= b.forest.MaxDepth || len(rows) < 2*minLeaf {
		return b.leaf(rows)
	}
	parent := b.impurity(rows)
	if parent == 0 {
		return b.leaf(rows)
	}

	best := split{impurity: parent}
	for _, feature := range b.r.Perm(len(b.x[0]))[:b.mtry] {
		if s, ok := b.bestSplit(rows, feature, minLeaf); ok && s.impurity < best.impurity {
			best = s
		}
	}
	if best.left == nil {
		return b.leaf(rows)
	}
	return &Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      b.grow(best.left, depth+1),
		Right:     b.grow(best.right, depth+1),
	}
}

type split struct {
	feature     int
	threshold   float64
	impurity    float64
	left, right []int
}

// impurity is the total squared error of the rows (regression) or their size-weighted gini
// impurity (classification).
func (b *builder) impurity(rows []int) float64 {
	if b.forest.classification() {
		counts := make([]float64, len(b.forest.Classes))
		for _, r := range rows {
			counts[int(b.y[r])]++
		}
		return gini(counts, float64(len(rows)))
	}
	var sum, sq float64
	for _, r := range rows {
		sum += b.y[r]
		sq += b.y[r] * b.y[r]
	}
	return sse(sum, sq, float64(len(rows)))
}

func (b *builder) bestSplit(rows []int, feature, minLeaf int) (split, bool) {
	sorted := append([]int(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return b.x[sorted[i]][feature] < b.x[sorted[j]][feature]
	})
	n := float64(len(sorted))

	var leftCounts, rightCounts []float64
	var leftSum, leftSq, sum, sq float64
	if b.forest.classification() {
		leftCounts = make([]float64, len(b.forest.Classes))
		rightCounts = make([]float64, len(b.forest.Classes))
		for _, r := range sorted {
			rightCounts[int(b.y[r])]++
		}
	} else {
		for _, r := range sorted {
			sum += b.y[r]
			sq += b.y[r] * b.y[r]
		}
	}

	best := split{feature: feature, impurity: math.Inf(1)}
	found := false
	for k := 0; k < len(sorted)-1; k++ {
		y := b.y[sorted[k]]
		if b.forest.classification() {
			leftCounts[int(y)]++
			rightCounts[int(y)]--
		} else {
			leftSum += y
			leftSq += y * y
		}
		nl := float64(k + 1)
		nr := n - nl
		if k+1 < minLeaf || len(sorted)-k-1 < minLeaf {
			continue
		}
		lo, hi := b.x[sorted[k]][feature], b.x[sorted[k+1]][feature]
		if lo == hi {
			continue
		}

		var imp float64
		if b.forest.classification() {
			imp = gini(leftCounts, nl) + gini(rightCounts, nr)
		} else {
			imp = sse(leftSum, leftSq, nl) + sse(sum-leftSum, sq-leftSq, nr)
		}
		if imp < best.impurity {
			best.impurity = imp
			best.threshold = (lo + hi) / 2
			best.left = append([]int(nil), sorted[:k+1]...)
			best.right = append([]int(nil), sorted[k+1:]...)
			found = true
		}
	}
	return best, found
}

// gini is n·(1 − Σ p_c²).
func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	var s float64
	for _, c := range counts {
		p := c / n
		s += p * p
	}
	return n * (1 - s)
}

// sse is the sum of squared errors from the mean, Σy² − (Σy)²/n.
func sse(sum, sq, n float64) float64 {
	if n == 0 {
		return 0
	}
	v := sq - sum*sum/n
	if v < 0 {
		return 0
	}
	return v
}
