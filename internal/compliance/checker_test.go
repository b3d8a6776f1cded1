package compliance

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/policy"
	"github.com/opensource-finance/harrier/internal/sanctions"
)

const (
	approvalPolicy      = "All transactions above $10,000 require manager approval and enhanced due diligence documentation."
	biddingPolicy       = "All vendor payments above $25,000 require competitive bidding documentation with at least three bids."
	entertainmentPolicy = "Entertainment expenses must not exceed $500 per person per event without executive approval."
	travelPolicy        = "Travel expenses must be booked through the corporate travel system with itemized receipts."
)

// newTestChecker seeds the index with the given policies and retrieves all of
// them, so violation checks see a deterministic policy set.
func newTestChecker(t *testing.T, policies []string) *Checker {
	t.Helper()
	ix := policy.NewIndex(policy.NewHashEmbedder(64))
	if err := ix.Add(context.Background(), policies); err != nil {
		t.Fatalf("seed policies: %v", err)
	}
	screener := sanctions.NewScreener(sanctions.DefaultWatchlist(), sanctions.DefaultPEPTerms())
	return NewChecker(screener, ix, len(policies), slog.Default())
}

func testRecord(amount float64, merchant string) *domain.TransactionRecord {
	return &domain.TransactionRecord{
		ID:        "tx-test-1",
		UserID:    "user-9",
		Amount:    amount,
		Merchant:  merchant,
		Category:  "office_supplies",
		Timestamp: time.Date(2026, 3, 4, 14, 30, 0, 0, time.UTC),
	}
}

func TestCheckCleanTransaction(t *testing.T) {
	c := newTestChecker(t, policy.DefaultPolicies())

	a := c.Check(context.Background(), testRecord(450, "Office Depot"))
	if a.Status != domain.ComplianceApproved {
		t.Errorf("expected APPROVED, got %s", a.Status)
	}
	if a.SanctionsHit || a.PEPHit {
		t.Error("unexpected screening hit for clean merchant")
	}
	if len(a.PolicyViolations) != 0 {
		t.Errorf("unexpected violations: %v", a.PolicyViolations)
	}
	if a.RiskScore != 0 {
		t.Errorf("expected zero risk, got %g", a.RiskScore)
	}
	if len(a.ReviewedPolicies) != len(policy.DefaultPolicies()) {
		t.Errorf("expected %d reviewed policies, got %d",
			len(policy.DefaultPolicies()), len(a.ReviewedPolicies))
	}
}

func TestCheckRetrievesTopK(t *testing.T) {
	ix := policy.NewIndex(policy.NewHashEmbedder(64))
	if err := ix.Add(context.Background(), policy.DefaultPolicies()); err != nil {
		t.Fatalf("seed policies: %v", err)
	}
	screener := sanctions.NewScreener(nil, nil)
	c := NewChecker(screener, ix, 3, slog.Default())

	a := c.Check(context.Background(), testRecord(450, "Office Depot"))
	if len(a.ReviewedPolicies) != 3 {
		t.Errorf("expected 3 reviewed policies, got %d", len(a.ReviewedPolicies))
	}
}

func TestCheckSanctionsRejects(t *testing.T) {
	c := newTestChecker(t, policy.DefaultPolicies())

	rec := testRecord(50000, "Suspicious Corp International")
	rec.ManagerApproval = true
	rec.CompetitiveBids = true

	a := c.Check(context.Background(), rec)
	if a.Status != domain.ComplianceRejected {
		t.Fatalf("expected REJECTED on sanctions hit, got %s", a.Status)
	}
	if !a.SanctionsHit {
		t.Error("expected sanctions_hit true")
	}
	if a.RiskScore < sanctionsRiskWeight {
		t.Errorf("expected risk >= %g, got %g", sanctionsRiskWeight, a.RiskScore)
	}
	if len(a.Recommendations) == 0 {
		t.Error("expected escalation recommendation")
	}
}

func TestCheckSanctionsPrecedesViolations(t *testing.T) {
	c := newTestChecker(t, []string{approvalPolicy, biddingPolicy})

	// Sanctions hit plus multiple violations must still reject, not review.
	a := c.Check(context.Background(), testRecord(50000, "Blocked Vendor LLC"))
	if a.Status != domain.ComplianceRejected {
		t.Errorf("sanctions must take precedence, got %s", a.Status)
	}
	if len(a.PolicyViolations) != 2 {
		t.Errorf("expected approval and bidding violations alongside the sanctions hit, got %v",
			a.PolicyViolations)
	}
}

func TestCheckPEPRequiresReview(t *testing.T) {
	c := newTestChecker(t, policy.DefaultPolicies())

	rec := testRecord(200, "Acme Consulting")
	rec.Description = "Advisory retainer, beneficial owner is a senator"

	a := c.Check(context.Background(), rec)
	if a.Status != domain.ComplianceReview {
		t.Errorf("expected REVIEW_REQUIRED on PEP hit, got %s", a.Status)
	}
	if !a.PEPHit {
		t.Error("expected pep_hit true")
	}
	if a.RiskScore != pepRiskWeight {
		t.Errorf("expected risk %g, got %g", pepRiskWeight, a.RiskScore)
	}
}

func TestCheckViolationsRequireReview(t *testing.T) {
	c := newTestChecker(t, []string{approvalPolicy})

	a := c.Check(context.Background(), testRecord(12000, "Acme Industrial"))
	if a.Status != domain.ComplianceReview {
		t.Errorf("expected REVIEW_REQUIRED on violation, got %s", a.Status)
	}
	if len(a.PolicyViolations) != 1 {
		t.Fatalf("expected 1 violation, got %v", a.PolicyViolations)
	}
	if a.RiskScore != violationRiskWeight {
		t.Errorf("expected risk %g, got %g", violationRiskWeight, a.RiskScore)
	}
}

func TestCheckApprovalsClearViolations(t *testing.T) {
	c := newTestChecker(t, []string{approvalPolicy, biddingPolicy})

	rec := testRecord(30000, "Acme Industrial")
	rec.ManagerApproval = true
	rec.CompetitiveBids = true

	a := c.Check(context.Background(), rec)
	if a.Status != domain.ComplianceApproved {
		t.Errorf("expected APPROVED with approvals in place, got %s", a.Status)
	}
	// High-value approved transactions still get an audit reminder.
	found := false
	for _, r := range a.Recommendations {
		if r == "Maintain audit trail documentation for high-value transaction" {
			found = true
		}
	}
	if !found {
		t.Error("expected audit trail recommendation for approved high-value transaction")
	}
}

func TestPolicyViolations(t *testing.T) {
	all := []string{approvalPolicy, biddingPolicy, entertainmentPolicy, travelPolicy}

	tests := []struct {
		name     string
		rec      domain.TransactionRecord
		policies []string
		want     int
	}{
		{"under all thresholds", domain.TransactionRecord{Amount: 450, Category: "office_supplies"}, all, 0},
		{"needs manager approval", domain.TransactionRecord{Amount: 15000, Category: "equipment"}, all, 1},
		{"needs approval and bids", domain.TransactionRecord{Amount: 30000, Category: "equipment"}, all, 2},
		{"entertainment over limit", domain.TransactionRecord{Amount: 800, Category: "entertainment"}, all, 1},
		{"entertainment under limit", domain.TransactionRecord{Amount: 300, Category: "entertainment"}, all, 0},
		{"travel without corporate booking", domain.TransactionRecord{Amount: 1200, Category: "travel"}, all, 1},
		{"travel with corporate booking", domain.TransactionRecord{Amount: 1200, Category: "travel", CorporateBooking: true}, all, 0},
		{"category case-insensitive", domain.TransactionRecord{Amount: 800, Category: "Entertainment"}, all, 1},
		{"policy not retrieved, no violation", domain.TransactionRecord{Amount: 15000, Category: "equipment"}, []string{travelPolicy}, 0},
		{"no policies retrieved", domain.TransactionRecord{Amount: 30000, Category: "entertainment"}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policyViolations(&tt.rec, tt.policies)
			if len(got) != tt.want {
				t.Errorf("expected %d violations, got %v", tt.want, got)
			}
		})
	}
}

func TestPolicyViolationsCarryPolicyText(t *testing.T) {
	rec := domain.TransactionRecord{Amount: 15000, Category: "equipment"}
	got := policyViolations(&rec, []string{approvalPolicy})
	if len(got) != 1 {
		t.Fatalf("expected 1 violation, got %v", got)
	}
	if got[0] != "Policy violation: "+approvalPolicy {
		t.Errorf("violation = %q, want the violated policy verbatim", got[0])
	}
}

func TestRiskScoreClamped(t *testing.T) {
	screen := domain.ScreenResult{SanctionsHit: true, PEPHit: true}
	if risk := riskScore(screen, 5); risk != 1 {
		t.Errorf("expected clamped risk 1.0, got %g", risk)
	}
}
