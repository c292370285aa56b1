// Package elq links entities in search queries. The root package holds the run configuration,
// the error taxonomy and the field names shared by the ranking and set-finding packages.
package elq

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/magiconair/properties"
	"github.com/pkg/errors"
)

// Knowledge base fields used throughout the entity documents and the text index.
const (
	FieldTitle           = "<rdfs:label>"
	FieldInverseRedirect = "!<dbo:wikiPageRedirects>"
	FieldRedirect        = "<dbo:wikiPageRedirects>"
	FieldWikiLinks       = "<dbo:wikiPageWikiLink>"
	FieldShortAbstract   = "<rdfs:comment>"
	FieldLongAbstract    = "<dbo:abstract>"
	FieldCategories      = "<dcterms:subject>"
	FieldSameAs          = "<owl:sameAs>"
	FieldNames           = "names"
	FieldContents        = "contents"
)

// SourceFACC is the only supported surface form source: commonness is estimated from the Freebase
// annotations of ClueWeb.
const SourceFACC = "facc"

// Smoothing methods understood by the scorer.
const (
	SmoothingJelinekMercer = "jm"
	SmoothingDirichlet     = "dirichlet"
)

// Model backends and categories.
const (
	ModelForest   = "forest"
	ModelExternal = "external"

	CategoryRegression     = "regression"
	CategoryClassification = "classification"
)

// DefaultWeights are the MLM weights for the names, wikilinks and contents fields.
var DefaultWeights = []float64{0.2, 0.0, 0.8}

// Config is the configuration of a single run. It is created once, validated, and then passed
// to every ranker, generator and detector that needs it.
type Config struct {
	ElasticsearchHosts []string
	EntityIndex        string
	SurfaceFormIndex   string
	CoOccurrenceIndex  string
	SnapshotPath       string

	// CommonnessThreshold is required; nil means it was never set.
	CommonnessThreshold *float64
	Filter              bool
	SurfaceFormSource   string
	Weights             []float64
	CombineCommonness   bool

	Smoothing      string
	SmoothingParam *float64

	// TopK limits the entities per query that survive into segmentation. Zero disables it.
	TopK           int
	ScoreThreshold float64

	Folds     int
	FoldsPath string
	GroupBy   string
	Seed      int64

	ModelKind     string
	ModelCategory string
	Trees         int
	MaxDepth      int
	MinLeaf       int
	FeatureRatio  float64
	ModelBinary   string
	ModelArgs     []string

	CachePath string
	CacheSize int

	RunID    string
	Progress bool
}

// NewConfig creates a configuration with default values which can be changed through the
// functional arguments.
func NewConfig(options ...func(*Config)) *Config {
	c := &Config{
		Filter:            true,
		SurfaceFormSource: SourceFACC,
		Weights:           append([]float64(nil), DefaultWeights...),
		Smoothing:         SmoothingJelinekMercer,
		Folds:             5,
		ModelKind:         ModelForest,
		ModelCategory:     CategoryRegression,
		Trees:             100,
		MaxDepth:          12,
		MinLeaf:           1,
		FeatureRatio:      0.3,
		CacheSize:         100000,
		RunID:             uuid.New().String(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// CommonnessThreshold sets the minimum commonness of a candidate entity.
func CommonnessThreshold(th float64) func(*Config) {
	return func(c *Config) {
		c.CommonnessThreshold = &th
	}
}

// Weights sets the MLM weights for the names, wikilinks and contents fields.
func Weights(weights ...float64) func(*Config) {
	return func(c *Config) {
		c.Weights = weights
	}
}

// CombineCommonness multiplies MLM scores with the commonness prior.
func CombineCommonness(cmn bool) func(*Config) {
	return func(c *Config) {
		c.CombineCommonness = cmn
	}
}

// Filter restricts candidate entities to the knowledge base snapshot.
func Filter(filter bool) func(*Config) {
	return func(c *Config) {
		c.Filter = filter
	}
}

// TopK sets the number of ranked entities per query used for set generation.
func TopK(k int) func(*Config) {
	return func(c *Config) {
		c.TopK = k
	}
}

// ScoreThreshold sets the pruning threshold of the greedy policy.
func ScoreThreshold(th float64) func(*Config) {
	return func(c *Config) {
		c.ScoreThreshold = th
	}
}

// Folds sets the number of cross-validation folds, at least 2; -1 is leave-one-out.
func Folds(k int) func(*Config) {
	return func(c *Config) {
		c.Folds = k
	}
}

// RunID names the run in ranking reports.
func RunID(id string) func(*Config) {
	return func(c *Config) {
		c.RunID = id
	}
}

// FieldWeights converts the weight vector into a field->weight map, skipping zero weights.
func (c *Config) FieldWeights() map[string]float64 {
	return FieldWeights(c.Weights)
}

// FieldWeights converts a [names, wikilinks, contents] weight vector into a field->weight map.
func FieldWeights(weights []float64) map[string]float64 {
	fields := []string{FieldNames, FieldWikiLinks, FieldContents}
	m := make(map[string]float64)
	for i, w := range weights {
		if i < len(fields) && w != 0 {
			m[fields[i]] = w
		}
	}
	return m
}

// Validate checks the configuration before any processing begins.
func (c *Config) Validate() error {
	if c.CommonnessThreshold == nil {
		return ConfigurationError("commonness threshold is required")
	}
	if c.SurfaceFormSource != SourceFACC {
		return ConfigurationError("unsupported surface form source %q", c.SurfaceFormSource)
	}
	if err := ValidateWeights(c.Weights); err != nil {
		return err
	}
	switch c.Smoothing {
	case SmoothingJelinekMercer, SmoothingDirichlet:
	default:
		return ConfigurationError("unknown smoothing method %q", c.Smoothing)
	}
	if c.Folds < 2 && c.Folds != -1 {
		return ConfigurationError("invalid number of folds %d", c.Folds)
	}
	switch c.ModelKind {
	case ModelForest:
	case ModelExternal:
		if len(c.ModelBinary) == 0 {
			return ConfigurationError("external model requires a binary")
		}
	default:
		return ConfigurationError("unknown model kind %q", c.ModelKind)
	}
	switch c.ModelCategory {
	case CategoryRegression, CategoryClassification:
	default:
		return ConfigurationError("unknown model category %q", c.ModelCategory)
	}
	if c.TopK < 0 {
		return ConfigurationError("top-k must not be negative")
	}
	return nil
}

// ValidateWeights checks an MLM weight vector.
func ValidateWeights(weights []float64) error {
	if len(weights) != 3 {
		return ConfigurationError("expected 3 weights (names, wikilinks, contents), got %d", len(weights))
	}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return ConfigurationError("negative weight %f", w)
		}
		sum += w
	}
	if sum == 0 {
		return ConfigurationError("all weights are zero")
	}
	return nil
}

// ParseWeights parses a comma separated weight vector such as "0.2,0.0,0.8".
func ParseWeights(s string) ([]float64, error) {
	parts := strings.Split(strings.Replace(s, " ", "", -1), ",")
	weights := make([]float64, len(parts))
	for i, p := range parts {
		w, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errors.Wrap(ErrConfiguration, err.Error())
		}
		weights[i] = w
	}
	return weights, nil
}

// LoadConfig reads a properties file into a configuration. Keys that are not present keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, err
	}
	return ConfigFromProperties(p)
}

// ConfigFromProperties builds a configuration out of already loaded properties.
func ConfigFromProperties(p *properties.Properties) (*Config, error) {
	c := NewConfig()

	if hosts, ok := p.Get("elastic.hosts"); ok && len(hosts) > 0 {
		c.ElasticsearchHosts = strings.Split(hosts, ",")
	}
	c.EntityIndex = p.GetString("elastic.entity.index", c.EntityIndex)
	c.SurfaceFormIndex = p.GetString("elastic.surfaceform.index", c.SurfaceFormIndex)
	c.CoOccurrenceIndex = p.GetString("elastic.cooccurrence.index", c.CoOccurrenceIndex)
	c.SnapshotPath = p.GetString("kb.snapshot", c.SnapshotPath)

	if v, ok := p.Get("cer.commonness"); ok {
		th, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, ConfigurationError("cer.commonness: %v", err)
		}
		c.CommonnessThreshold = &th
	}
	c.Filter = p.GetBool("cer.filter", c.Filter)
	c.SurfaceFormSource = p.GetString("cer.sfsource", c.SurfaceFormSource)
	if v, ok := p.Get("cer.weights"); ok {
		w, err := ParseWeights(v)
		if err != nil {
			return nil, err
		}
		c.Weights = w
	}
	c.CombineCommonness = p.GetBool("cer.cmn", c.CombineCommonness)

	c.Smoothing = strings.ToLower(p.GetString("scorer.smoothing", c.Smoothing))
	if v, ok := p.Get("scorer.param"); ok {
		param, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, ConfigurationError("scorer.param: %v", err)
		}
		c.SmoothingParam = &param
	}

	c.TopK = p.GetInt("isf.k", c.TopK)
	c.ScoreThreshold = p.GetFloat64("isf.threshold", c.ScoreThreshold)

	c.Folds = p.GetInt("cv.folds", c.Folds)
	c.FoldsPath = p.GetString("cv.file", c.FoldsPath)
	c.GroupBy = p.GetString("cv.group", c.GroupBy)
	c.Seed = p.GetInt64("cv.seed", c.Seed)

	c.ModelKind = p.GetString("model.kind", c.ModelKind)
	c.ModelCategory = p.GetString("model.category", c.ModelCategory)
	c.Trees = p.GetInt("model.trees", c.Trees)
	c.MaxDepth = p.GetInt("model.depth", c.MaxDepth)
	c.MinLeaf = p.GetInt("model.leaf", c.MinLeaf)
	c.FeatureRatio = p.GetFloat64("model.features", c.FeatureRatio)
	c.ModelBinary = p.GetString("model.binary", c.ModelBinary)
	if args, ok := p.Get("model.args"); ok && len(args) > 0 {
		c.ModelArgs = strings.Fields(args)
	}

	c.CachePath = p.GetString("cache.path", c.CachePath)
	c.CacheSize = p.GetInt("cache.size", c.CacheSize)
	c.RunID = p.GetString("run.id", c.RunID)
	c.Progress = p.GetBool("run.progress", c.Progress)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
