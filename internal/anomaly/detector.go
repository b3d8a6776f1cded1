package anomaly

import (
	"math"
	"sort"
)

// Detector is a single unsupervised anomaly scorer. ScoreAll fits on the
// given rows and returns one raw anomaly score per row; higher means more
// anomalous. The scale of raw scores is detector-specific; the ensemble
// min-max normalizes each detector against its own distribution.
type Detector interface {
	Name() string
	ScoreAll(rows [][]float64) ([]float64, error)
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// pairwiseDistances returns the full symmetric distance matrix.
func pairwiseDistances(rows [][]float64) [][]float64 {
	n := len(rows)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := euclidean(rows[i], rows[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// nearestNeighbors returns, for each row, the indices of its k nearest other
// rows ordered by increasing distance (lower index first on ties).
func nearestNeighbors(dist [][]float64, k int) [][]int {
	n := len(dist)
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		idx := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				idx = append(idx, j)
			}
		}
		sort.SliceStable(idx, func(a, b int) bool {
			if dist[i][idx[a]] != dist[i][idx[b]] {
				return dist[i][idx[a]] < dist[i][idx[b]]
			}
			return idx[a] < idx[b]
		})
		if k < len(idx) {
			idx = idx[:k]
		}
		neighbors[i] = idx
	}
	return neighbors
}
