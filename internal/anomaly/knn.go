package anomaly

import "fmt"

// KNNDistance scores anomalies by mean distance to the k nearest neighbors.
type KNNDistance struct {
	Neighbors int
}

// NewKNNDistance returns a kNN detector with the reference k.
func NewKNNDistance() *KNNDistance {
	return &KNNDistance{Neighbors: 5}
}

func (d *KNNDistance) Name() string { return "knn" }

// ScoreAll computes the mean kNN distance for every row.
func (d *KNNDistance) ScoreAll(rows [][]float64) ([]float64, error) {
	n := len(rows)
	if n < 2 {
		return nil, fmt.Errorf("knn: need at least 2 samples, got %d", n)
	}

	k := d.Neighbors
	if k > n-1 {
		k = n - 1
	}

	dist := pairwiseDistances(rows)
	neighbors := nearestNeighbors(dist, k)

	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for _, j := range neighbors[i] {
			sum += dist[i][j]
		}
		scores[i] = sum / float64(len(neighbors[i]))
	}
	return scores, nil
}
