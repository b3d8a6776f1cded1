package anomaly

import (
	"fmt"
	"math"
	"math/rand"
)

// IsolationForest scores global anomalies by average isolation depth across
// randomized split trees: outliers isolate in fewer splits.
type IsolationForest struct {
	Trees      int
	SampleSize int
	Seed       int64
}

// NewIsolationForest returns a forest with the reference configuration.
// The fixed seed keeps scoring deterministic per call.
func NewIsolationForest() *IsolationForest {
	return &IsolationForest{Trees: 50, SampleSize: 64, Seed: 42}
}

func (f *IsolationForest) Name() string { return "isolation_forest" }

type isoNode struct {
	feature int
	split   float64
	left    *isoNode
	right   *isoNode
	size    int
}

// ScoreAll fits the forest on rows and returns the isolation score per row.
func (f *IsolationForest) ScoreAll(rows [][]float64) ([]float64, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("isolation forest: empty input")
	}

	rng := rand.New(rand.NewSource(f.Seed))
	sample := f.SampleSize
	if sample > n {
		sample = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample)))) + 1

	trees := make([]*isoNode, f.Trees)
	for t := range trees {
		idx := rng.Perm(n)[:sample]
		subset := make([][]float64, sample)
		for i, j := range idx {
			subset[i] = rows[j]
		}
		trees[t] = buildIsoTree(subset, 0, maxDepth, rng)
	}

	norm := avgPathLength(sample)
	scores := make([]float64, n)
	for i, row := range rows {
		var depth float64
		for _, tree := range trees {
			depth += isoPathLength(tree, row, 0)
		}
		depth /= float64(len(trees))
		scores[i] = math.Pow(2, -depth/norm)
	}
	return scores, nil
}

func buildIsoTree(rows [][]float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	n := len(rows)
	if n <= 1 || depth >= maxDepth {
		return &isoNode{size: n}
	}

	dim := len(rows[0])
	feature := rng.Intn(dim)

	lo, hi := rows[0][feature], rows[0][feature]
	for _, row := range rows {
		if row[feature] < lo {
			lo = row[feature]
		}
		if row[feature] > hi {
			hi = row[feature]
		}
	}
	if lo == hi {
		return &isoNode{size: n}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, row := range rows {
		if row[feature] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &isoNode{
		feature: feature,
		split:   split,
		left:    buildIsoTree(left, depth+1, maxDepth, rng),
		right:   buildIsoTree(right, depth+1, maxDepth, rng),
	}
}

func isoPathLength(node *isoNode, row []float64, depth int) float64 {
	if node.left == nil && node.right == nil {
		return float64(depth) + avgPathLength(node.size)
	}
	if row[node.feature] < node.split {
		return isoPathLength(node.left, row, depth+1)
	}
	return isoPathLength(node.right, row, depth+1)
}

// avgPathLength is the expected path length of an unsuccessful BST search,
// the standard isolation forest normalization term.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649
	return 2*h - 2*float64(n-1)/float64(n)
}
