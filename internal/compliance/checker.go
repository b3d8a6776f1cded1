// Package compliance aggregates sanctions screening, policy retrieval, and
// violation rules into a single compliance assessment.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/policy"
	"github.com/opensource-finance/harrier/internal/sanctions"
)

const (
	sanctionsRiskWeight = 0.8
	pepRiskWeight       = 0.3
	violationRiskWeight = 0.1
)

// Checker runs the compliance side of the screening pipeline.
type Checker struct {
	screener *sanctions.Screener
	index    *policy.Index
	topK     int
	logger   *slog.Logger
}

// NewChecker creates a compliance checker. topK controls how many policies
// are retrieved for review context per transaction.
func NewChecker(screener *sanctions.Screener, index *policy.Index, topK int, logger *slog.Logger) *Checker {
	if topK <= 0 {
		topK = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		screener: screener,
		index:    index,
		topK:     topK,
		logger:   logger,
	}
}

// Check screens the transaction's merchant, retrieves relevant policies, and
// checks the transaction against them. Policy retrieval failures degrade to
// an empty policy list, which also suppresses violation findings; that leans
// permissive, so retrieval failures are logged and sanctions screening still
// runs locally.
func (c *Checker) Check(ctx context.Context, rec *domain.TransactionRecord) *domain.ComplianceAssessment {
	screen := c.screener.Screen(rec.Merchant, rec.Description)

	reviewed := c.retrievePolicies(ctx, rec)
	violations := policyViolations(rec, reviewed)

	risk := riskScore(screen, len(violations))
	status := statusFor(screen, len(violations), risk)

	return &domain.ComplianceAssessment{
		Status:           status,
		SanctionsHit:     screen.SanctionsHit,
		SanctionsMatches: screen.SanctionsMatches,
		PEPHit:           screen.PEPHit,
		PEPMatches:       screen.PEPMatches,
		PolicyViolations: violations,
		RiskScore:        risk,
		ReviewedPolicies: reviewed,
		Recommendations:  recommendations(rec, screen, status, violations),
		Timestamp:        time.Now().UTC(),
	}
}

func (c *Checker) retrievePolicies(ctx context.Context, rec *domain.TransactionRecord) []string {
	query := fmt.Sprintf("Transaction amount $%.2f Category: %s Merchant: %s",
		rec.Amount, rec.Category, rec.Merchant)

	matches, err := c.index.Retrieve(ctx, query, c.topK)
	if err != nil {
		c.logger.Warn("policy retrieval failed, continuing without policy context",
			"transaction_id", rec.ID, "error", err)
		return []string{}
	}
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return texts
}

func riskScore(screen domain.ScreenResult, violations int) float64 {
	var risk float64
	if screen.SanctionsHit {
		risk += sanctionsRiskWeight
	}
	if screen.PEPHit {
		risk += pepRiskWeight
	}
	risk += violationRiskWeight * float64(violations)
	if risk > 1 {
		risk = 1
	}
	return risk
}

// statusFor applies the decision precedence: a sanctions match always
// rejects; any PEP hit, elevated risk, or violation routes to review.
func statusFor(screen domain.ScreenResult, violations int, risk float64) domain.ComplianceStatus {
	switch {
	case screen.SanctionsHit:
		return domain.ComplianceRejected
	case screen.PEPHit, violations > 2, risk > 0.7, violations > 0:
		return domain.ComplianceReview
	default:
		return domain.ComplianceApproved
	}
}

func recommendations(rec *domain.TransactionRecord, screen domain.ScreenResult, status domain.ComplianceStatus, violations []string) []string {
	var recs []string
	if screen.SanctionsHit {
		recs = append(recs, "Escalate to compliance officer immediately: sanctions list match")
		recs = append(recs, screen.SanctionsMatches...)
	}
	if screen.PEPHit {
		recs = append(recs, "Apply enhanced due diligence: politically exposed person indicators")
		recs = append(recs, screen.PEPMatches...)
	}
	if len(violations) > 0 {
		recs = append(recs, "Resolve policy violations before processing")
	}
	if status == domain.ComplianceApproved && rec.Amount > 5000 {
		recs = append(recs, "Maintain audit trail documentation for high-value transaction")
	}
	return recs
}
