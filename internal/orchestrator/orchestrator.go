// Package orchestrator drives a transaction through the screening pipeline:
// fraud scoring, compliance checking, spend analysis, and final aggregation.
// Each step is isolated; a step failure is recorded in the decision log and
// replaced by its fail-safe substitute instead of failing the transaction.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

// FraudAssessor scores a transaction for fraud risk.
type FraudAssessor interface {
	Assess(ctx context.Context, rec *domain.TransactionRecord) (*domain.FraudAssessment, error)
}

// ComplianceChecker runs the compliance side of the pipeline.
type ComplianceChecker interface {
	Check(ctx context.Context, rec *domain.TransactionRecord) *domain.ComplianceAssessment
}

// SpendAnalyzer produces advisory budget signals.
type SpendAnalyzer interface {
	Analyze(rec *domain.TransactionRecord) *domain.SpendSignals
}

// Orchestrator runs the screening state machine for one transaction at a
// time. It is safe for concurrent use; all per-run state lives in the
// OrchestrationState.
type Orchestrator struct {
	fraud       FraudAssessor
	compliance  ComplianceChecker
	spend       SpendAnalyzer
	stepTimeout time.Duration
	logger      *slog.Logger
}

// New creates an orchestrator. spend may be nil; the spend step is then
// skipped. stepTimeout bounds each pipeline step independently.
func New(fraud FraudAssessor, compliance ComplianceChecker, spend SpendAnalyzer, stepTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	if stepTimeout <= 0 {
		stepTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		fraud:       fraud,
		compliance:  compliance,
		spend:       spend,
		stepTimeout: stepTimeout,
		logger:      logger,
	}
}

// Screen validates the request and runs the pipeline. The only error a
// caller can receive is an input validation error; everything downstream is
// absorbed into the degraded response.
func (o *Orchestrator) Screen(ctx context.Context, req *domain.ScreenRequest) (*domain.ScreenResponse, error) {
	rec, err := req.ToRecord()
	if err != nil {
		return nil, err
	}
	state := o.Run(ctx, rec)
	return state.ToResponse(), nil
}

// Run executes the state machine over an already-validated record and
// returns the final state, decision log included.
func (o *Orchestrator) Run(ctx context.Context, rec *domain.TransactionRecord) *domain.OrchestrationState {
	state := &domain.OrchestrationState{
		Record:    rec,
		StartedAt: time.Now().UTC(),
	}

	current := StatePending
	for !terminal(current) {
		next, err := advance(current)
		if err != nil {
			// Unreachable with the static transition table; treated as a
			// pipeline failure rather than a panic.
			state.AppendDecision("fsm", nil, err)
			current = StateFailed
			break
		}
		o.runStep(ctx, next, state)
		current = next
	}

	state.FinishedAt = time.Now().UTC()
	o.logger.Info("screening complete",
		"transaction_id", rec.ID,
		"overall_status", state.Overall,
		"degraded", state.Degraded,
		"duration_ms", state.FinishedAt.Sub(state.StartedAt).Milliseconds())
	return state
}

func (o *Orchestrator) runStep(ctx context.Context, s State, state *domain.OrchestrationState) {
	switch s {
	case StateFraudScored:
		o.fraudStep(ctx, state)
	case StateComplianceChecked:
		o.complianceStep(ctx, state)
	case StateAggregated:
		o.spendStep(state)
		o.aggregate(state)
	}
}

func (o *Orchestrator) fraudStep(ctx context.Context, state *domain.OrchestrationState) {
	stepCtx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()

	assessment, err := o.assessWithRecover(stepCtx, state.Record)
	if err != nil {
		o.logger.Warn("fraud step failed, continuing with fail-safe",
			"transaction_id", state.Record.ID, "error", err)
		state.AppendDecision("fraud_scoring", nil, err)
		return
	}
	state.Fraud = assessment
	state.AppendDecision("fraud_scoring", map[string]any{
		"risk_level": assessment.RiskLevel,
		"score":      assessment.OverallScore,
	}, nil)
}

func (o *Orchestrator) assessWithRecover(ctx context.Context, rec *domain.TransactionRecord) (a *domain.FraudAssessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("fraud assessor panic: %v", r)
		}
	}()
	return o.fraud.Assess(ctx, rec)
}

func (o *Orchestrator) complianceStep(ctx context.Context, state *domain.OrchestrationState) {
	stepCtx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()

	assessment, err := o.checkWithRecover(stepCtx, state.Record)
	if err != nil {
		o.logger.Warn("compliance step failed, continuing with fail-safe",
			"transaction_id", state.Record.ID, "error", err)
		state.AppendDecision("compliance_check", nil, err)
		return
	}
	state.Compliance = assessment
	state.AppendDecision("compliance_check", map[string]any{
		"status":        assessment.Status,
		"sanctions_hit": assessment.SanctionsHit,
	}, nil)
}

func (o *Orchestrator) checkWithRecover(ctx context.Context, rec *domain.TransactionRecord) (a *domain.ComplianceAssessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("compliance checker panic: %v", r)
		}
	}()
	a = o.compliance.Check(ctx, rec)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

func (o *Orchestrator) spendStep(state *domain.OrchestrationState) {
	if o.spend == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			state.AppendDecision("spend_analysis", nil, fmt.Errorf("spend analyzer panic: %v", r))
		}
	}()
	state.Spend = o.spend.Analyze(state.Record)
	state.AppendDecision("spend_analysis", map[string]any{
		"over_budget": state.Spend.OverBudget,
	}, nil)
}

// aggregate folds the step outcomes into the overall disposition. Missing
// assessments use fail-safe substitutes: absent fraud is treated as MEDIUM
// risk, absent compliance as REVIEW_REQUIRED. Precedence is REJECTED, then
// fraud flagging, then review, then approval.
func (o *Orchestrator) aggregate(state *domain.OrchestrationState) {
	complianceStatus := domain.ComplianceReview
	if state.Compliance != nil {
		complianceStatus = state.Compliance.Status
	}
	fraudLevel := domain.RiskMedium
	if state.Fraud != nil {
		fraudLevel = state.Fraud.RiskLevel
	}

	switch {
	case complianceStatus == domain.ComplianceRejected:
		state.Overall = domain.DispositionRejected
	case fraudLevel.AtLeast(domain.RiskHigh):
		state.Overall = domain.DispositionFlagged
	case complianceStatus == domain.ComplianceReview:
		state.Overall = domain.DispositionReview
	default:
		state.Overall = domain.DispositionApproved
	}

	state.AppendDecision("aggregation", map[string]any{
		"overall_status": state.Overall,
	}, nil)
}
