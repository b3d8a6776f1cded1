//go:build integration
// +build integration

// Package integration provides end-to-end tests for the Harrier screening
// pipeline against a running instance.
//
// These tests exercise the COMPLETE screening path:
//
//	Transaction → Fraud Ensemble → Sanctions/Policy Compliance → Aggregation
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// The tests assume a Harrier instance with the default watchlist and default
// policies (what cmd/harrier starts with). Point HARRIER_TEST_URL elsewhere
// to target another deployment.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if url := os.Getenv("HARRIER_TEST_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// ScreenRequest is the transaction sent to POST /screen
type ScreenRequest struct {
	TransactionID   string  `json:"transaction_id"`
	UserID          string  `json:"user_id"`
	Amount          float64 `json:"amount"`
	Merchant        string  `json:"merchant"`
	Category        string  `json:"category,omitempty"`
	Description     string  `json:"description,omitempty"`
	Timestamp       string  `json:"timestamp,omitempty"`
	ManagerApproval bool    `json:"manager_approval,omitempty"`
	CompetitiveBids bool    `json:"competitive_bids,omitempty"`
}

// ScreenResponse is the disposition returned by POST /screen
type ScreenResponse struct {
	TransactionID string `json:"transaction_id"`
	FraudAnalysis struct {
		RiskLevel   string   `json:"risk_level"`
		Score       float64  `json:"score"`
		RiskFactors []string `json:"risk_factors"`
	} `json:"fraud_analysis"`
	Compliance struct {
		Status       string   `json:"status"`
		SanctionsHit bool     `json:"sanctions_hit"`
		Violations   []string `json:"violations"`
	} `json:"compliance_check"`
	OverallStatus string `json:"overall_status"`
	Degraded      bool   `json:"degraded"`
}

func screen(t *testing.T, req ScreenRequest) (*ScreenResponse, int) {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(baseURL()+"/screen", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /screen: %v (is Harrier running at %s?)", err, baseURL())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode
	}

	var out ScreenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &out, resp.StatusCode
}

func requireHealthy(t *testing.T) {
	t.Helper()
	resp, err := http.Get(baseURL() + "/health")
	if err != nil {
		t.Skipf("Harrier not reachable at %s: %v", baseURL(), err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Skipf("Harrier unhealthy at %s: status %d", baseURL(), resp.StatusCode)
	}
}

func TestScreenCleanTransactionApproved(t *testing.T) {
	requireHealthy(t)

	resp, status := screen(t, ScreenRequest{
		TransactionID: fmt.Sprintf("it-clean-%d", time.Now().UnixNano()),
		UserID:        "emp-integration",
		Amount:        450,
		Merchant:      "Office Depot",
		Category:      "office_supplies",
		Description:   "printer paper and toner",
		Timestamp:     "2026-03-04T14:30:00Z",
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	if resp.OverallStatus != "APPROVED" {
		t.Errorf("overall = %s, want APPROVED", resp.OverallStatus)
	}
	if resp.Compliance.SanctionsHit {
		t.Error("clean merchant reported as sanctions hit")
	}
	if len(resp.Compliance.Violations) != 0 {
		t.Errorf("unexpected violations: %v", resp.Compliance.Violations)
	}
	if resp.Degraded {
		t.Error("healthy run reported degraded")
	}
}

func TestScreenSanctionedMerchantRejected(t *testing.T) {
	requireHealthy(t)

	resp, status := screen(t, ScreenRequest{
		TransactionID: fmt.Sprintf("it-sanc-%d", time.Now().UnixNano()),
		UserID:        "emp-integration",
		Amount:        50000,
		Merchant:      "Suspicious Corp International",
		Category:      "consulting",
		Timestamp:     "2026-03-04T14:30:00Z",
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	if resp.OverallStatus != "REJECTED" {
		t.Errorf("overall = %s, want REJECTED", resp.OverallStatus)
	}
	if !resp.Compliance.SanctionsHit {
		t.Error("sanctions hit not reported")
	}
	if resp.Compliance.Status != "REJECTED" {
		t.Errorf("compliance status = %s, want REJECTED", resp.Compliance.Status)
	}
}

func TestScreenPEPIndicatorsRequireReview(t *testing.T) {
	requireHealthy(t)

	resp, status := screen(t, ScreenRequest{
		TransactionID: fmt.Sprintf("it-pep-%d", time.Now().UnixNano()),
		UserID:        "emp-integration",
		Amount:        900,
		Merchant:      "Acme Advisory Group",
		Category:      "consulting",
		Description:   "retainer, beneficial owner is a former minister of finance",
		Timestamp:     "2026-03-04T14:30:00Z",
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	if resp.Compliance.Status != "REVIEW_REQUIRED" {
		t.Errorf("compliance status = %s, want REVIEW_REQUIRED for PEP indicators",
			resp.Compliance.Status)
	}
	if resp.OverallStatus == "APPROVED" {
		t.Errorf("overall = APPROVED despite PEP indicators")
	}
}

func TestScreenOutlierCarriesRiskFactors(t *testing.T) {
	requireHealthy(t)

	resp, status := screen(t, ScreenRequest{
		TransactionID: fmt.Sprintf("it-outl-%d", time.Now().UnixNano()),
		UserID:        "emp-integration",
		Amount:        45000,
		Merchant:      "Offshore Consulting LLC",
		Category:      "consulting",
		Timestamp:     "2026-03-07T03:00:00Z", // Saturday, 3am
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	var hasAmount, hasTime, hasWeekend bool
	for _, f := range resp.FraudAnalysis.RiskFactors {
		switch {
		case strings.HasPrefix(f, "High transaction amount"):
			hasAmount = true
		case strings.HasPrefix(f, "Unusual transaction time"):
			hasTime = true
		case f == "Weekend transaction":
			hasWeekend = true
		}
	}
	if !hasAmount || !hasTime || !hasWeekend {
		t.Errorf("risk factors = %v, want amount, time and weekend factors",
			resp.FraudAnalysis.RiskFactors)
	}
}

func TestScreenRepeatHitsDecisionCache(t *testing.T) {
	requireHealthy(t)

	req := ScreenRequest{
		TransactionID: fmt.Sprintf("it-cache-%d", time.Now().UnixNano()),
		UserID:        "emp-integration",
		Amount:        300,
		Merchant:      "Office Depot",
		Category:      "office_supplies",
		Timestamp:     "2026-03-04T14:30:00Z",
	}

	first, status := screen(t, req)
	if status != http.StatusOK {
		t.Fatalf("first screen status = %d", status)
	}

	body, _ := json.Marshal(req)
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(baseURL()+"/screen", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("repeat POST /screen: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("X-Cache") != "hit" {
		t.Error("repeat screen of the same transaction did not hit the decision cache")
	}

	var second ScreenResponse
	if err := json.NewDecoder(resp.Body).Decode(&second); err != nil {
		t.Fatalf("decode repeat response: %v", err)
	}
	if second.OverallStatus != first.OverallStatus {
		t.Errorf("cached disposition %s differs from original %s",
			second.OverallStatus, first.OverallStatus)
	}
}

func TestScreenRejectsMalformedInput(t *testing.T) {
	requireHealthy(t)

	_, status := screen(t, ScreenRequest{
		TransactionID: "",
		Amount:        100,
		Merchant:      "Office Depot",
	})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing transaction_id", status)
	}

	_, status = screen(t, ScreenRequest{
		TransactionID: "it-bad-amount",
		Amount:        -5,
		Merchant:      "Office Depot",
	})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for negative amount", status)
	}
}

func TestDispositionPersistedAfterScreen(t *testing.T) {
	requireHealthy(t)

	txID := fmt.Sprintf("it-disp-%d", time.Now().UnixNano())
	_, status := screen(t, ScreenRequest{
		TransactionID: txID,
		UserID:        "emp-integration",
		Amount:        450,
		Merchant:      "Office Depot",
		Category:      "office_supplies",
		Timestamp:     "2026-03-04T14:30:00Z",
	})
	if status != http.StatusOK {
		t.Fatalf("screen status = %d", status)
	}

	resp, err := http.Get(baseURL() + "/dispositions/" + txID)
	if err != nil {
		t.Fatalf("GET /dispositions/%s: %v", txID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("disposition lookup status = %d, want 200", resp.StatusCode)
	}

	var disp struct {
		TxID          string `json:"tx_id"`
		OverallStatus string `json:"overall_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&disp); err != nil {
		t.Fatalf("decode disposition: %v", err)
	}
	if disp.TxID != txID {
		t.Errorf("tx_id = %q, want %q", disp.TxID, txID)
	}
}
