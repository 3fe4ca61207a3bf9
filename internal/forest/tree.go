package forest

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// treeNode is one node of a fitted CART tree. Internal nodes route on
// feature/threshold; leaves hold the positive-class fraction of their
// training samples.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	prob      float64
}

// decisionTree is a binary CART classifier with Gini splits. It is only used
// inside RandomForest and always fits on a caller-supplied index sample.
type decisionTree struct {
	maxDepth        int // 0 = unlimited
	minSamplesSplit int
	maxFeatures     int // features considered per split
	rng             *rand.Rand
	root            *treeNode
}

func (t *decisionTree) fit(x *mat.Dense, y []int, idx []int) {
	t.root = t.build(x, y, idx, 0)
}

func (t *decisionTree) build(x *mat.Dense, y []int, idx []int, depth int) *treeNode {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	prob := float64(pos) / float64(len(idx))

	if pos == 0 || pos == len(idx) ||
		len(idx) < t.minSamplesSplit ||
		(t.maxDepth > 0 && depth >= t.maxDepth) {
		return &treeNode{leaf: true, prob: prob}
	}

	feature, threshold, ok := t.bestSplit(x, y, idx)
	if !ok {
		return &treeNode{leaf: true, prob: prob}
	}

	var left, right []int
	for _, i := range idx {
		if x.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{leaf: true, prob: prob}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.build(x, y, left, depth+1),
		right:     t.build(x, y, right, depth+1),
	}
}

// bestSplit scans a random feature subset for the threshold minimising the
// weighted Gini impurity of the two children.
func (t *decisionTree) bestSplit(x *mat.Dense, y []int, idx []int) (feature int, threshold float64, ok bool) {
	_, p := x.Dims()
	m := t.maxFeatures
	if m <= 0 {
		m = int(math.Sqrt(float64(p)))
		if m < 1 {
			m = 1
		}
	}
	if m > p {
		m = p
	}
	candidates := t.rng.Perm(p)[:m]

	n := len(idx)
	vals := make([]float64, n)
	labels := make([]int, n)
	order := make([]int, n)

	best := math.Inf(1)
	for _, f := range candidates {
		for i, r := range idx {
			vals[i] = x.At(r, f)
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return vals[order[a]] < vals[order[b]] })
		for i, o := range order {
			labels[i] = y[idx[o]]
		}

		totalPos := 0
		for _, l := range labels {
			totalPos += l
		}

		leftPos := 0
		for s := 1; s < n; s++ {
			leftPos += labels[s-1]
			lo, hi := vals[order[s-1]], vals[order[s]]
			if lo == hi {
				continue
			}
			impurity := weightedGini(s, leftPos, n-s, totalPos-leftPos)
			if impurity < best {
				best = impurity
				feature = f
				threshold = lo + (hi-lo)/2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// weightedGini is the size-weighted Gini impurity of a binary split.
func weightedGini(ln, lpos, rn, rpos int) float64 {
	return float64(ln)*gini(lpos, ln) + float64(rn)*gini(rpos, rn)
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

func (t *decisionTree) predictRow(x mat.Matrix, row int) float64 {
	node := t.root
	for !node.leaf {
		if x.At(row, node.feature) <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.prob
}
