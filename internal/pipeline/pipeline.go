// Package pipeline wires the four batch stages together: load, preprocess,
// train/evaluate, predict/write. Stages run strictly in order and the first
// failure aborts the run before any output file is produced.
package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/fluscope/fluscope/internal/dataset"
	"github.com/fluscope/fluscope/internal/eval"
	"github.com/fluscope/fluscope/internal/forest"
	"github.com/fluscope/fluscope/internal/preprocess"
	"github.com/fluscope/fluscope/internal/submission"
)

// DefaultTargets are the two label columns scored by the pipeline.
var DefaultTargets = []string{"xyz_vaccine", "seasonal_vaccine"}

// Config selects inputs, output, and model hyperparameters for a run.
type Config struct {
	TrainFeatures string
	TrainLabels   string
	TestFeatures  string
	OutPath       string

	Targets         []string
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int
	Folds           int
	Seed            int64
	SkipEval        bool
}

func (c *Config) withDefaults() {
	if len(c.Targets) == 0 {
		c.Targets = DefaultTargets
	}
	if c.Trees == 0 {
		c.Trees = 100
	}
	if c.MinSamplesSplit == 0 {
		c.MinSamplesSplit = 2
	}
	if c.Folds == 0 {
		c.Folds = 5
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
}

// ProgressFunc receives a short description of the stage about to run.
type ProgressFunc func(stage string)

// TargetResult is the per-label outcome of a run.
type TargetResult struct {
	Target string       `json:"target" yaml:"target"`
	CV     *eval.Scores `json:"cross_validation,omitempty" yaml:"cross_validation,omitempty"`
}

// Result summarises a completed run.
type Result struct {
	TrainRows      int            `json:"train_rows" yaml:"train_rows"`
	TestRows       int            `json:"test_rows" yaml:"test_rows"`
	Features       int            `json:"features" yaml:"features"`
	Targets        []TargetResult `json:"targets" yaml:"targets"`
	SubmissionPath string         `json:"submission,omitempty" yaml:"submission,omitempty"`
	Duration       time.Duration  `json:"duration" yaml:"duration"`
}

// Run executes the full pipeline and writes the submission file. The
// cross-validation scores are informational; the submission models are always
// refit on the complete training set.
func Run(cfg Config, progress ProgressFunc) (*Result, error) {
	cfg.withDefaults()
	if progress == nil {
		progress = func(string) {}
	}
	start := time.Now()

	train, labels, test, err := loadInputs(cfg, progress)
	if err != nil {
		return nil, err
	}

	progress("preprocessing features")
	ct := preprocess.NewColumnTransformer()
	xTrain, err := ct.FitTransform(train)
	if err != nil {
		return nil, fmt.Errorf("preprocessing training features: %w", err)
	}
	xTest, err := ct.Transform(test)
	if err != nil {
		return nil, fmt.Errorf("preprocessing test features: %w", err)
	}
	_, features := xTrain.Dims()
	log.Info().Int("features", features).Msg("preprocessed feature matrices")

	ids, err := test.RespondentIDs()
	if err != nil {
		return nil, fmt.Errorf("reading test respondent ids: %w", err)
	}

	result := &Result{
		TrainRows: train.NumRows(),
		TestRows:  test.NumRows(),
		Features:  features,
	}

	probs := make([][]float64, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		tr, p, err := scoreTarget(cfg, target, labels, xTrain, xTest, progress)
		if err != nil {
			return nil, err
		}
		result.Targets = append(result.Targets, *tr)
		probs = append(probs, p)
	}

	progress("writing submission")
	table, err := submission.New(ids, cfg.Targets, probs)
	if err != nil {
		return nil, err
	}
	if err := table.Write(cfg.OutPath); err != nil {
		return nil, err
	}
	result.SubmissionPath = cfg.OutPath
	result.Duration = time.Since(start)

	log.Info().
		Str("path", cfg.OutPath).
		Int("rows", result.TestRows).
		Dur("duration", result.Duration).
		Msg("pipeline complete")
	return result, nil
}

// Evaluate runs load, preprocess, and cross-validation without producing a
// submission. Used by the score subcommand while tuning.
func Evaluate(cfg Config, progress ProgressFunc) (*Result, error) {
	cfg.withDefaults()
	if progress == nil {
		progress = func(string) {}
	}
	start := time.Now()

	train, labels, err := loadTraining(cfg, progress)
	if err != nil {
		return nil, err
	}

	progress("preprocessing features")
	ct := preprocess.NewColumnTransformer()
	xTrain, err := ct.FitTransform(train)
	if err != nil {
		return nil, fmt.Errorf("preprocessing training features: %w", err)
	}
	_, features := xTrain.Dims()

	result := &Result{TrainRows: train.NumRows(), Features: features}
	for _, target := range cfg.Targets {
		y, err := labels.LabelVector(target)
		if err != nil {
			return nil, err
		}
		progress("cross-validating " + target)
		scores, err := crossValidate(cfg, xTrain, y)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s: %w", target, err)
		}
		result.Targets = append(result.Targets, TargetResult{Target: target, CV: scores})
	}
	result.Duration = time.Since(start)
	return result, nil
}

func loadInputs(cfg Config, progress ProgressFunc) (train, labels, test *dataset.Table, err error) {
	train, labels, err = loadTraining(cfg, progress)
	if err != nil {
		return nil, nil, nil, err
	}
	test, err = dataset.Load(cfg.TestFeatures)
	if err != nil {
		return nil, nil, nil, err
	}
	return train, labels, test, nil
}

func loadTraining(cfg Config, progress ProgressFunc) (train, labels *dataset.Table, err error) {
	progress("loading datasets")
	train, err = dataset.Load(cfg.TrainFeatures)
	if err != nil {
		return nil, nil, err
	}
	labels, err = dataset.Load(cfg.TrainLabels)
	if err != nil {
		return nil, nil, err
	}
	if err := dataset.CheckAligned(train, labels); err != nil {
		return nil, nil, fmt.Errorf("training features and labels misaligned: %w", err)
	}
	return train, labels, nil
}

func scoreTarget(cfg Config, target string, labels *dataset.Table, xTrain, xTest *mat.Dense, progress ProgressFunc) (*TargetResult, []float64, error) {
	y, err := labels.LabelVector(target)
	if err != nil {
		return nil, nil, err
	}

	tr := &TargetResult{Target: target}
	if !cfg.SkipEval {
		progress("cross-validating " + target)
		scores, err := crossValidate(cfg, xTrain, y)
		if err != nil {
			return nil, nil, fmt.Errorf("evaluating %s: %w", target, err)
		}
		tr.CV = scores
		log.Info().Str("target", target).Float64("mean_auc", scores.Mean).Msg("cross-validated")
	}

	progress("training " + target)
	model := newForest(cfg)
	if err := model.Fit(xTrain, y); err != nil {
		return nil, nil, fmt.Errorf("training %s: %w", target, err)
	}
	probs, err := model.PredictProba(xTest)
	if err != nil {
		return nil, nil, fmt.Errorf("predicting %s: %w", target, err)
	}
	return tr, probs, nil
}

func crossValidate(cfg Config, x *mat.Dense, y []int) (*eval.Scores, error) {
	return eval.CrossValidate(func() eval.Classifier {
		return newForest(cfg)
	}, x, y, cfg.Folds, cfg.Seed)
}

func newForest(cfg Config) *forest.RandomForest {
	return forest.New(
		forest.WithTrees(cfg.Trees),
		forest.WithMaxDepth(cfg.MaxDepth),
		forest.WithMinSamplesSplit(cfg.MinSamplesSplit),
		forest.WithMaxFeatures(cfg.MaxFeatures),
		forest.WithSeed(cfg.Seed),
	)
}
