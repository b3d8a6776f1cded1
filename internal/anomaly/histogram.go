package anomaly

import (
	"fmt"
	"math"
)

// HistogramScore is an HBOS-style detector: per-feature histograms over the
// fit window, scoring each row by the summed negative log frequency of the
// bins it lands in. Values outside the window range clamp to the edge bins.
type HistogramScore struct {
	Bins int
}

// NewHistogramScore returns a histogram detector with the reference bins.
func NewHistogramScore() *HistogramScore {
	return &HistogramScore{Bins: 10}
}

func (h *HistogramScore) Name() string { return "hbos" }

// ScoreAll fits per-feature histograms on rows and scores every row.
func (h *HistogramScore) ScoreAll(rows [][]float64) ([]float64, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("hbos: empty input")
	}

	dim := len(rows[0])
	bins := h.Bins
	const eps = 1e-9

	lo := make([]float64, dim)
	hi := make([]float64, dim)
	copy(lo, rows[0])
	copy(hi, rows[0])
	for _, row := range rows {
		for j, v := range row {
			if v < lo[j] {
				lo[j] = v
			}
			if v > hi[j] {
				hi[j] = v
			}
		}
	}

	counts := make([][]float64, dim)
	for j := range counts {
		counts[j] = make([]float64, bins)
	}
	for _, row := range rows {
		for j, v := range row {
			counts[j][h.binFor(v, lo[j], hi[j])]++
		}
	}

	scores := make([]float64, n)
	for i, row := range rows {
		var score float64
		for j, v := range row {
			freq := counts[j][h.binFor(v, lo[j], hi[j])] / float64(n)
			score += -math.Log(freq + eps)
		}
		scores[i] = score
	}
	return scores, nil
}

func (h *HistogramScore) binFor(v, lo, hi float64) int {
	if hi == lo {
		return 0
	}
	bin := int(float64(h.Bins) * (v - lo) / (hi - lo))
	if bin < 0 {
		bin = 0
	}
	if bin >= h.Bins {
		bin = h.Bins - 1
	}
	return bin
}
