// Package anomaly implements the multi-detector anomaly ensemble that
// produces the fraud score.
package anomaly

import "math"

// Scaler standardizes feature columns to zero mean and unit variance.
// Fit on a reference window; with fewer than two samples (or a zero-variance
// column) scaling degrades to a neutral passthrough for that column.
type Scaler struct {
	mean []float64
	std  []float64
}

// FitScaler computes column statistics over the given rows.
func FitScaler(rows [][]float64) *Scaler {
	if len(rows) == 0 {
		return &Scaler{}
	}

	dim := len(rows[0])
	mean := make([]float64, dim)
	std := make([]float64, dim)

	for _, row := range rows {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(rows))
	}

	for _, row := range rows {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(len(rows)))
		if std[j] == 0 || len(rows) < 2 {
			// Neutral scaling for degenerate columns.
			std[j] = 1
		}
	}

	return &Scaler{mean: mean, std: std}
}

// Transform standardizes a single row.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	if len(s.mean) == 0 {
		copy(out, row)
		return out
	}
	for j, v := range row {
		out[j] = (v - s.mean[j]) / s.std[j]
	}
	return out
}

// TransformAll standardizes every row.
func (s *Scaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.Transform(row)
	}
	return out
}
