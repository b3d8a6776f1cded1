package anomaly

import "fmt"

// LocalOutlierFactor scores local density anomalies: points whose local
// reachability density is low relative to their neighbors'.
type LocalOutlierFactor struct {
	Neighbors int
}

// NewLocalOutlierFactor returns an LOF detector with the reference k.
func NewLocalOutlierFactor() *LocalOutlierFactor {
	return &LocalOutlierFactor{Neighbors: 20}
}

func (l *LocalOutlierFactor) Name() string { return "lof" }

// ScoreAll computes the LOF value for every row.
func (l *LocalOutlierFactor) ScoreAll(rows [][]float64) ([]float64, error) {
	n := len(rows)
	if n < 3 {
		return nil, fmt.Errorf("lof: need at least 3 samples, got %d", n)
	}

	k := l.Neighbors
	if k > n-1 {
		k = n - 1
	}

	dist := pairwiseDistances(rows)
	neighbors := nearestNeighbors(dist, k)

	// k-distance of each point is the distance to its k-th neighbor.
	kdist := make([]float64, n)
	for i := range kdist {
		kdist[i] = dist[i][neighbors[i][len(neighbors[i])-1]]
	}

	// Local reachability density.
	lrd := make([]float64, n)
	for i := 0; i < n; i++ {
		var reachSum float64
		for _, j := range neighbors[i] {
			reach := dist[i][j]
			if kdist[j] > reach {
				reach = kdist[j]
			}
			reachSum += reach
		}
		if reachSum == 0 {
			// Coincident points: treat density as very high.
			lrd[i] = 1e9
			continue
		}
		lrd[i] = float64(len(neighbors[i])) / reachSum
	}

	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		var ratioSum float64
		for _, j := range neighbors[i] {
			ratioSum += lrd[j] / lrd[i]
		}
		scores[i] = ratioSum / float64(len(neighbors[i]))
	}
	return scores, nil
}
