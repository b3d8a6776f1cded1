package domain

import "time"

// RiskLevel is the ordinal risk tier derived from the fraud score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// riskOrder gives LOW < MEDIUM < HIGH < CRITICAL.
var riskOrder = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the ordinal position of the risk level.
func (r RiskLevel) Rank() int {
	return riskOrder[r]
}

// AtLeast reports whether r is at or above the given level.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return riskOrder[r] >= riskOrder[other]
}

// DetectorScore is the explicit per-detector outcome: either a normalized
// score in [0,1] or a failure reason. A failed detector contributes zero to
// the ensemble but is still visible to callers.
type DetectorScore struct {
	Detector string  `json:"detector"`
	Score    float64 `json:"score"`
	Failed   bool    `json:"failed,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// FraudAssessment is the output of the anomaly ensemble.
// Created fresh per call and never mutated afterwards.
type FraudAssessment struct {
	OverallScore float64         `json:"overall_score"` // [0,1]
	RiskLevel    RiskLevel       `json:"risk_level"`
	ModelScores  []DetectorScore `json:"model_scores"`
	RiskFactors  []string        `json:"risk_factors"`
	Confidence   float64         `json:"confidence"` // [0,1]
	ModelVersion string          `json:"model_version"`
}

// ComplianceStatus is the compliance screening outcome.
type ComplianceStatus string

const (
	ComplianceApproved ComplianceStatus = "APPROVED"
	ComplianceReview   ComplianceStatus = "REVIEW_REQUIRED"
	ComplianceRejected ComplianceStatus = "REJECTED"
)

// ComplianceAssessment is the output of sanctions/PEP screening plus policy
// evaluation. Immutable once constructed.
type ComplianceAssessment struct {
	Status           ComplianceStatus `json:"status"`
	SanctionsHit     bool             `json:"sanctions_hit"`
	SanctionsMatches []string         `json:"sanctions_matches,omitempty"`
	PEPHit           bool             `json:"pep_hit"`
	PEPMatches       []string         `json:"pep_matches,omitempty"`
	PolicyViolations []string         `json:"policy_violations"`
	RiskScore        float64          `json:"risk_score"` // [0,1]
	ReviewedPolicies []string         `json:"reviewed_policies"`
	Recommendations  []string         `json:"recommendations"`
	Timestamp        time.Time        `json:"timestamp"`
}

// SpendSignals is the output of the external spend/vendor analytics
// collaborator, merged into aggregation as advisory context.
type SpendSignals struct {
	OverBudget        bool    `json:"over_budget"`
	BudgetUtilization float64 `json:"budget_utilization"`
	Category          string  `json:"category"`
	TotalSpend        float64 `json:"total_spend"`
}
