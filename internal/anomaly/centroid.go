package anomaly

import (
	"fmt"
	"math/rand"
)

// ClusterDistance scores anomalies by distance to the nearest k-means
// centroid: points far from every cluster are outliers.
type ClusterDistance struct {
	Clusters   int
	Iterations int
	Seed       int64
}

// NewClusterDistance returns a cluster detector with the reference
// configuration. The fixed seed keeps centroid init deterministic.
func NewClusterDistance() *ClusterDistance {
	return &ClusterDistance{Clusters: 8, Iterations: 10, Seed: 42}
}

func (c *ClusterDistance) Name() string { return "cblof" }

// ScoreAll runs k-means on rows and returns each row's distance to its
// nearest centroid.
func (c *ClusterDistance) ScoreAll(rows [][]float64) ([]float64, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("cblof: empty input")
	}

	k := c.Clusters
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(c.Seed))
	dim := len(rows[0])

	// Seeded init: pick k distinct rows.
	centroids := make([][]float64, k)
	for i, j := range rng.Perm(n)[:k] {
		centroids[i] = append([]float64(nil), rows[j]...)
	}

	assign := make([]int, n)
	for iter := 0; iter < c.Iterations; iter++ {
		changed := false
		for i, row := range rows {
			best, bestDist := 0, euclidean(row, centroids[0])
			for ci := 1; ci < k; ci++ {
				if d := euclidean(row, centroids[ci]); d < bestDist {
					best, bestDist = ci, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		// Recompute centroids; empty clusters keep their previous position.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for ci := range sums {
			sums[ci] = make([]float64, dim)
		}
		for i, row := range rows {
			ci := assign[i]
			counts[ci]++
			for j, v := range row {
				sums[ci][j] += v
			}
		}
		for ci := 0; ci < k; ci++ {
			if counts[ci] == 0 {
				continue
			}
			for j := range sums[ci] {
				centroids[ci][j] = sums[ci][j] / float64(counts[ci])
			}
		}

		if !changed {
			break
		}
	}

	scores := make([]float64, n)
	for i, row := range rows {
		best := euclidean(row, centroids[0])
		for ci := 1; ci < k; ci++ {
			if d := euclidean(row, centroids[ci]); d < best {
				best = d
			}
		}
		scores[i] = best
	}
	return scores, nil
}
