// Package fraud composes feature extraction, the anomaly ensemble, and the
// risk factor rules into a single fraud assessment step.
package fraud

import (
	"context"
	"log/slog"
	"time"

	"github.com/opensource-finance/harrier/internal/anomaly"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/features"
	"github.com/opensource-finance/harrier/internal/riskrules"
)

// VelocityProvider supplies per-user velocity hints for feature extraction.
type VelocityProvider interface {
	Observe(ctx context.Context, rec *domain.TransactionRecord) features.VelocityHints
}

// neutralVelocity stands in when no tracker is wired.
type neutralVelocity struct{}

func (neutralVelocity) Observe(_ context.Context, rec *domain.TransactionRecord) features.VelocityHints {
	return features.VelocityHints{DailyCount: 1, DailyVolume: rec.Amount}
}

// Service produces fraud assessments. The assessment is assembled once and
// not mutated afterwards; risk factors are attached before it leaves Assess.
type Service struct {
	scorer   *anomaly.Scorer
	rules    *riskrules.Engine
	velocity VelocityProvider
	logger   *slog.Logger
}

// NewService creates a fraud service. A nil velocity provider degrades to
// neutral hints.
func NewService(scorer *anomaly.Scorer, rules *riskrules.Engine, velocity VelocityProvider, logger *slog.Logger) *Service {
	if velocity == nil {
		velocity = neutralVelocity{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		scorer:   scorer,
		rules:    rules,
		velocity: velocity,
		logger:   logger,
	}
}

// Assess scores the transaction through the ensemble and evaluates the risk
// factor rules. Rule evaluation failures leave the factors empty; the score
// stands on its own.
func (s *Service) Assess(ctx context.Context, rec *domain.TransactionRecord) (*domain.FraudAssessment, error) {
	hints := s.velocity.Observe(ctx, rec)
	vec := features.Extract(rec, hints)

	assessment := s.scorer.Score(ctx, vec)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ts := rec.Timestamp.UTC()
	assessment.RiskFactors = s.rules.Evaluate(ctx, &riskrules.Input{
		Amount:        rec.Amount,
		Hour:          ts.Hour(),
		Weekday:       (int(ts.Weekday()) + 6) % 7,
		IsWeekend:     ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday,
		VelocityCount: hints.DailyCount,
		Merchant:      rec.Merchant,
		Category:      rec.Category,
	})

	s.logger.Debug("fraud assessment complete",
		"transaction_id", rec.ID,
		"score", assessment.OverallScore,
		"risk_level", assessment.RiskLevel,
		"factors", len(assessment.RiskFactors))
	return assessment, nil
}
