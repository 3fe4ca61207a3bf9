// Package eval estimates classifier quality with stratified k-fold
// cross-validation scored by ROC AUC. Evaluation is informational only: the
// caller refits the submission model on the full training set afterwards.
package eval

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Classifier is the slice of the forest API cross-validation needs.
type Classifier interface {
	Fit(x *mat.Dense, y []int) error
	PredictProba(x mat.Matrix) ([]float64, error)
}

// Scores holds per-fold ROC AUC values and their mean.
type Scores struct {
	Folds []float64 `json:"folds" yaml:"folds"`
	Mean  float64   `json:"mean" yaml:"mean"`
}

// StratifiedFolds shuffles indices within each class and deals them
// round-robin into k folds, so class balance is preserved as far as the label
// counts allow. Deterministic for a given seed.
func StratifiedFolds(y []int, k int, seed int64) [][]int {
	rng := rand.New(rand.NewSource(seed))
	byClass := map[int][]int{}
	for i, l := range y {
		byClass[l] = append(byClass[l], i)
	}

	folds := make([][]int, k)
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	next := 0
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		for _, i := range idx {
			folds[next%k] = append(folds[next%k], i)
			next++
		}
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds
}

// ROCAUC computes the area under the ROC curve for predicted probabilities
// against true 0/1 labels. A single-class label slice is a
// DegenerateLabelError: AUC is undefined there and must not be faked.
func ROCAUC(probs []float64, y []int) (float64, error) {
	if len(probs) != len(y) {
		return 0, fmt.Errorf("eval: %d probabilities but %d labels", len(probs), len(y))
	}
	pos := 0
	for _, l := range y {
		pos += l
	}
	if pos == 0 || pos == len(y) {
		return 0, &DegenerateLabelError{Class: y[0]}
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return probs[order[a]] < probs[order[b]] })

	sorted := make([]float64, len(probs))
	classes := make([]bool, len(probs))
	for i, o := range order {
		sorted[i] = probs[o]
		classes[i] = y[o] == 1
	}

	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// CrossValidate fits a fresh model per fold and scores its held-out
// predictions by ROC AUC. Any fold whose training or validation labels
// collapse to one class fails the whole evaluation; fewer than k rows is an
// InsufficientDataError.
func CrossValidate(newModel func() Classifier, x *mat.Dense, y []int, k int, seed int64) (*Scores, error) {
	rows, _ := x.Dims()
	if k < 2 {
		return nil, fmt.Errorf("eval: need at least 2 folds, got %d", k)
	}
	if rows < k {
		return nil, &InsufficientDataError{Rows: rows, Folds: k}
	}
	if len(y) != rows {
		return nil, fmt.Errorf("eval: %d rows but %d labels", rows, len(y))
	}

	folds := StratifiedFolds(y, k, seed)
	scores := &Scores{Folds: make([]float64, 0, k)}

	for fi, holdout := range folds {
		train := make([]int, 0, rows-len(holdout))
		inHoldout := map[int]bool{}
		for _, i := range holdout {
			inHoldout[i] = true
		}
		for i := 0; i < rows; i++ {
			if !inHoldout[i] {
				train = append(train, i)
			}
		}

		trainY := subsetLabels(y, train)
		holdY := subsetLabels(y, holdout)
		if oneClass(trainY) {
			return nil, &DegenerateLabelError{Fold: fi, Class: trainY[0], Split: "training"}
		}
		if oneClass(holdY) {
			return nil, &DegenerateLabelError{Fold: fi, Class: holdY[0], Split: "validation"}
		}

		model := newModel()
		if err := model.Fit(subsetRows(x, train), trainY); err != nil {
			return nil, fmt.Errorf("eval: fold %d fit: %w", fi, err)
		}
		probs, err := model.PredictProba(subsetRows(x, holdout))
		if err != nil {
			return nil, fmt.Errorf("eval: fold %d predict: %w", fi, err)
		}
		auc, err := ROCAUC(probs, holdY)
		if err != nil {
			return nil, fmt.Errorf("eval: fold %d: %w", fi, err)
		}
		log.Debug().Int("fold", fi).Float64("auc", auc).Msg("scored fold")
		scores.Folds = append(scores.Folds, auc)
	}

	scores.Mean = stat.Mean(scores.Folds, nil)
	return scores, nil
}

func oneClass(y []int) bool {
	for _, l := range y[1:] {
		if l != y[0] {
			return false
		}
	}
	return true
}

func subsetLabels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}

func subsetRows(x *mat.Dense, idx []int) *mat.Dense {
	_, cols := x.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	for i, r := range idx {
		out.SetRow(i, mat.Row(nil, r, x))
	}
	return out
}
