package domain

import "time"

// Disposition is the final categorical outcome of the pipeline.
type Disposition string

const (
	DispositionApproved Disposition = "APPROVED"
	DispositionReview   Disposition = "REVIEW_REQUIRED"
	DispositionFlagged  Disposition = "FLAGGED_FOR_REVIEW"
	DispositionRejected Disposition = "REJECTED"
)

// StepDecision is one append-only entry in the per-transaction decision log.
// Exactly one of Result or Error is populated.
type StepDecision struct {
	Step      string    `json:"step"`
	Timestamp time.Time `json:"timestamp"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// OK reports whether the step completed without error.
func (d StepDecision) OK() bool {
	return d.Error == ""
}

// OrchestrationState is the mutable container threaded through one
// transaction's pipeline run. It is exclusively owned by that run and
// discarded (or persisted by a collaborator) after the orchestrator returns.
type OrchestrationState struct {
	Record     *TransactionRecord    `json:"record"`
	Fraud      *FraudAssessment      `json:"fraud,omitempty"`
	Compliance *ComplianceAssessment `json:"compliance,omitempty"`
	Spend      *SpendSignals         `json:"spend,omitempty"`
	Decisions  []StepDecision        `json:"decisions"`
	Overall    Disposition           `json:"overall_status"`
	Degraded   bool                  `json:"degraded"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
}

// AppendDecision records a step outcome in the decision log.
func (s *OrchestrationState) AppendDecision(step string, result any, err error) {
	d := StepDecision{
		Step:      step,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		d.Error = err.Error()
		s.Degraded = true
	} else {
		d.Result = result
	}
	s.Decisions = append(s.Decisions, d)
}

// ScreenResponse is the JSON shape returned to callers.
type ScreenResponse struct {
	TransactionID string         `json:"transaction_id"`
	FraudAnalysis FraudSummary   `json:"fraud_analysis"`
	Compliance    ComplSummary   `json:"compliance_check"`
	SpendAnalysis *SpendSignals  `json:"spend_analysis,omitempty"`
	OverallStatus Disposition    `json:"overall_status"`
	Degraded      bool           `json:"degraded"`
	DecisionLog   []StepDecision `json:"decision_log,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// FraudSummary is the fraud portion of the response.
type FraudSummary struct {
	RiskLevel   RiskLevel `json:"risk_level"`
	Score       float64   `json:"score"`
	Confidence  float64   `json:"confidence"`
	RiskFactors []string  `json:"risk_factors"`
}

// ComplSummary is the compliance portion of the response.
type ComplSummary struct {
	Status       ComplianceStatus `json:"status"`
	SanctionsHit bool             `json:"sanctions_hit"`
	PEPHit       bool             `json:"pep_hit"`
	RiskScore    float64          `json:"risk_score"`
	Violations   []string         `json:"violations"`
}

// ToResponse flattens the final state into the caller-facing shape.
// Missing assessments render with their fail-safe substitutes so callers
// always receive a complete object.
func (s *OrchestrationState) ToResponse() *ScreenResponse {
	resp := &ScreenResponse{
		TransactionID: s.Record.ID,
		OverallStatus: s.Overall,
		Degraded:      s.Degraded,
		DecisionLog:   s.Decisions,
		SpendAnalysis: s.Spend,
		Timestamp:     s.FinishedAt,
	}

	if s.Fraud != nil {
		resp.FraudAnalysis = FraudSummary{
			RiskLevel:   s.Fraud.RiskLevel,
			Score:       s.Fraud.OverallScore,
			Confidence:  s.Fraud.Confidence,
			RiskFactors: s.Fraud.RiskFactors,
		}
	} else {
		resp.FraudAnalysis = FraudSummary{
			RiskLevel:   RiskMedium,
			RiskFactors: []string{},
		}
	}

	if s.Compliance != nil {
		resp.Compliance = ComplSummary{
			Status:       s.Compliance.Status,
			SanctionsHit: s.Compliance.SanctionsHit,
			PEPHit:       s.Compliance.PEPHit,
			RiskScore:    s.Compliance.RiskScore,
			Violations:   s.Compliance.PolicyViolations,
		}
	} else {
		resp.Compliance = ComplSummary{
			Status:     ComplianceReview,
			Violations: []string{},
		}
	}

	return resp
}
