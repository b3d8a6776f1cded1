package anomaly

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/features"
)

// ModelVersion tags every assessment produced by this ensemble.
const ModelVersion = "harrier-ensemble-1.0"

// DefaultWeights are the fixed per-detector ensemble weights; they sum to 1.
var DefaultWeights = map[string]float64{
	"isolation_forest": 0.30,
	"lof":              0.25,
	"knn":              0.20,
	"cblof":            0.15,
	"hbos":             0.10,
}

// Score thresholds are the lower bound of each risk tier.
const (
	ThresholdMedium   = 0.5
	ThresholdHigh     = 0.7
	ThresholdCritical = 0.85
)

// Scorer runs the detector ensemble over feature vectors.
type Scorer struct {
	detectors  []Detector
	weights    map[string]float64
	window     [][]float64
	maxWorkers int
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithDetectors replaces the default detector set.
func WithDetectors(detectors ...Detector) Option {
	return func(s *Scorer) { s.detectors = detectors }
}

// WithWeights replaces the default ensemble weights.
func WithWeights(weights map[string]float64) Option {
	return func(s *Scorer) { s.weights = weights }
}

// WithReferenceWindow sets the fit window. An empty window degrades every
// detector to the neutral 0.5 score.
func WithReferenceWindow(window [][]float64) Option {
	return func(s *Scorer) { s.window = window }
}

// WithMaxWorkers bounds detector concurrency.
func WithMaxWorkers(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxWorkers = n
		}
	}
}

// NewScorer creates the reference five-detector ensemble.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		detectors: []Detector{
			NewIsolationForest(),
			NewLocalOutlierFactor(),
			NewKNNDistance(),
			NewClusterDistance(),
			NewHistogramScore(),
		},
		weights:    DefaultWeights,
		window:     DefaultReferenceWindow(),
		maxWorkers: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score runs every detector over the scaled sample against the reference
// window and combines the normalized scores into a fraud assessment.
// Detectors run concurrently under a bounded semaphore; a failing detector
// contributes zero and is recorded, never propagated.
func (s *Scorer) Score(ctx context.Context, vec features.Vector) *domain.FraudAssessment {
	sample := vec.Slice()

	scaler := FitScaler(s.window)
	rows := scaler.TransformAll(s.window)
	rows = append(rows, scaler.Transform(sample))
	sampleIdx := len(rows) - 1

	results := make([]domain.DetectorScore, len(s.detectors))
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.maxWorkers)

	for i, det := range s.detectors {
		wg.Add(1)
		go func(idx int, d Detector) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = s.runDetector(ctx, d, rows, sampleIdx)
		}(i, det)
	}
	wg.Wait()

	var overall float64
	var failed int
	succeeded := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Failed {
			failed++
			continue
		}
		overall += r.Score * s.weights[r.Detector]
		succeeded = append(succeeded, r.Score)
	}
	overall = clamp01(overall)

	// Failed detectors enter the confidence distribution as zeros, so a
	// failure widens the spread and lowers confidence instead of vanishing
	// from it.
	confidence := 0.0
	if len(succeeded) >= 2 {
		spread := append(succeeded, make([]float64, failed)...)
		confidence = clamp01(1 - stddev(spread))
	}

	return &domain.FraudAssessment{
		OverallScore: overall,
		RiskLevel:    RiskLevelFor(overall),
		ModelScores:  results,
		RiskFactors:  []string{},
		Confidence:   confidence,
		ModelVersion: ModelVersion,
	}
}

// runDetector executes one detector and normalizes its sample score against
// the detector's own score distribution. Panics are captured as failures.
func (s *Scorer) runDetector(ctx context.Context, d Detector, rows [][]float64, sampleIdx int) (out domain.DetectorScore) {
	out = domain.DetectorScore{Detector: d.Name()}

	defer func() {
		if r := recover(); r != nil {
			out = domain.DetectorScore{
				Detector: d.Name(),
				Failed:   true,
				Reason:   fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Failed = true
		out.Reason = err.Error()
		return out
	}

	raw, err := d.ScoreAll(rows)
	if err != nil {
		out.Failed = true
		out.Reason = err.Error()
		return out
	}
	if len(raw) != len(rows) {
		out.Failed = true
		out.Reason = fmt.Sprintf("detector returned %d scores for %d rows", len(raw), len(rows))
		return out
	}

	out.Score = normalize(raw, sampleIdx)
	return out
}

// normalize min-max scales scores[sampleIdx] against the whole distribution.
// A degenerate (zero range) distribution normalizes to the neutral 0.5.
func normalize(scores []float64, sampleIdx int) float64 {
	lo, hi := scores[0], scores[0]
	for _, v := range scores {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return 0.5
	}
	return clamp01((scores[sampleIdx] - lo) / (hi - lo))
}

// RiskLevelFor maps an overall score to its risk tier. Each threshold is
// the inclusive lower bound of its tier; scores below ThresholdMedium are
// LOW.
func RiskLevelFor(score float64) domain.RiskLevel {
	switch {
	case score >= ThresholdCritical:
		return domain.RiskCritical
	case score >= ThresholdHigh:
		return domain.RiskHigh
	case score >= ThresholdMedium:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// Detectors returns the detector names in a stable order.
func (s *Scorer) Detectors() []string {
	names := make([]string, len(s.detectors))
	for i, d := range s.detectors {
		names[i] = d.Name()
	}
	sort.Strings(names)
	return names
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func stddev(vals []float64) float64 {
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	var sum float64
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)))
}
