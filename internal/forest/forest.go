// Package forest implements a random-forest binary classifier that emits
// class probabilities rather than hard votes: each tree contributes the
// positive-class fraction of the leaf a row lands in, and the forest reports
// the mean across trees.
package forest

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// RandomForest is a bagged ensemble of CART trees for 0/1 labels.
type RandomForest struct {
	NumTrees        int
	MaxDepth        int // 0 = unlimited
	MinSamplesSplit int
	MaxFeatures     int // 0 = sqrt(feature count)
	Seed            int64

	trees []*decisionTree
	cols  int
}

// Option configures a RandomForest.
type Option func(*RandomForest)

func WithTrees(n int) Option           { return func(rf *RandomForest) { rf.NumTrees = n } }
func WithMaxDepth(d int) Option        { return func(rf *RandomForest) { rf.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option { return func(rf *RandomForest) { rf.MinSamplesSplit = n } }
func WithMaxFeatures(n int) Option     { return func(rf *RandomForest) { rf.MaxFeatures = n } }
func WithSeed(s int64) Option          { return func(rf *RandomForest) { rf.Seed = s } }

// New returns a forest with sensible defaults: 100 trees, unlimited depth,
// bootstrap sampling, and a fixed seed for reproducible runs.
func New(opts ...Option) *RandomForest {
	rf := &RandomForest{
		NumTrees:        100,
		MinSamplesSplit: 2,
		Seed:            1,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the forest. Each tree gets a bootstrap sample drawn from its own
// seeded source, so results are reproducible regardless of goroutine
// scheduling.
func (rf *RandomForest) Fit(x *mat.Dense, y []int) error {
	rows, cols := x.Dims()
	if rows == 0 {
		return errors.New("forest: empty feature matrix")
	}
	if len(y) != rows {
		return fmt.Errorf("forest: %d rows but %d labels", rows, len(y))
	}
	for i, l := range y {
		if l != 0 && l != 1 {
			return fmt.Errorf("forest: non-binary label %d at row %d", l, i)
		}
	}

	rf.cols = cols
	rf.trees = make([]*decisionTree, rf.NumTrees)

	var wg sync.WaitGroup
	for i := 0; i < rf.NumTrees; i++ {
		wg.Add(1)
		go func(ti int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(rf.Seed + int64(ti)))
			sample := make([]int, rows)
			for j := range sample {
				sample[j] = rng.Intn(rows)
			}
			tree := &decisionTree{
				maxDepth:        rf.MaxDepth,
				minSamplesSplit: rf.MinSamplesSplit,
				maxFeatures:     rf.MaxFeatures,
				rng:             rng,
			}
			tree.fit(x, y, sample)
			rf.trees[ti] = tree
		}(i)
	}
	wg.Wait()

	log.Debug().
		Int("trees", rf.NumTrees).
		Int("rows", rows).
		Int("features", cols).
		Msg("fitted random forest")
	return nil
}

// PredictProba returns the positive-class probability for every row of x.
// Values are means of per-tree leaf fractions and therefore always in [0,1].
func (rf *RandomForest) PredictProba(x mat.Matrix) ([]float64, error) {
	if rf.trees == nil {
		return nil, errors.New("forest: predict before fit")
	}
	rows, cols := x.Dims()
	if cols != rf.cols {
		return nil, fmt.Errorf("forest: fitted on %d features, got %d", rf.cols, cols)
	}

	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for _, t := range rf.trees {
			sum += t.predictRow(x, i)
		}
		out[i] = sum / float64(len(rf.trees))
	}
	return out, nil
}
