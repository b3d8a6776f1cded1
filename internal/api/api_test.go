package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/anomaly"
	"github.com/opensource-finance/harrier/internal/bus"
	"github.com/opensource-finance/harrier/internal/cache"
	"github.com/opensource-finance/harrier/internal/compliance"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/fraud"
	"github.com/opensource-finance/harrier/internal/orchestrator"
	"github.com/opensource-finance/harrier/internal/policy"
	"github.com/opensource-finance/harrier/internal/repository"
	"github.com/opensource-finance/harrier/internal/riskrules"
	"github.com/opensource-finance/harrier/internal/sanctions"
	"github.com/opensource-finance/harrier/internal/spend"
	"github.com/opensource-finance/harrier/internal/velocity"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.Default()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "api.db"),
	})
	if err != nil {
		t.Fatalf("repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	c := cache.NewLRUCache(1000)
	eventBus := bus.NewChannelBus(100)
	t.Cleanup(func() { eventBus.Close() })

	rules, err := riskrules.NewEngine()
	if err != nil {
		t.Fatalf("rules engine: %v", err)
	}
	if err := rules.LoadRules(riskrules.BuiltinFactorRules()); err != nil {
		t.Fatalf("rules: %v", err)
	}
	fraudSvc := fraud.NewService(anomaly.NewScorer(), rules, velocity.NewTracker(c, logger), logger)

	index := policy.NewIndex(policy.NewHashEmbedder(64))
	if err := index.Add(context.Background(), policy.DefaultPolicies()); err != nil {
		t.Fatalf("policies: %v", err)
	}
	screener := sanctions.NewScreener(sanctions.DefaultWatchlist(), sanctions.DefaultPEPTerms())
	checker := compliance.NewChecker(screener, index, 3, logger)

	pipeline := orchestrator.New(fraudSvc, checker, spend.NewAnalyzer(nil), 10*time.Second, logger)

	return NewServer(domain.ServerConfig{Port: 8080}, pipeline, repo, c, eventBus, index, screener, "test")
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func screenBody(txID string, amount float64, merchant string) map[string]any {
	return map[string]any{
		"transaction_id": txID,
		"user_id":        "user-1",
		"amount":         amount,
		"merchant":       merchant,
		"category":       "office_supplies",
		"timestamp":      "2026-03-04T14:30:00Z",
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %q", body["status"])
	}
}

func TestScreenApproved(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/screen", screenBody("tx-api-1", 450, "Office Depot"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.ScreenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OverallStatus != domain.DispositionApproved {
		t.Errorf("expected APPROVED, got %s", resp.OverallStatus)
	}
	if resp.TransactionID != "tx-api-1" {
		t.Errorf("unexpected transaction id %q", resp.TransactionID)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request id header")
	}
}

func TestScreenSanctionsRejected(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/screen", screenBody("tx-api-2", 50000, "Suspicious Corp International"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp domain.ScreenResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.OverallStatus != domain.DispositionRejected {
		t.Errorf("expected REJECTED, got %s", resp.OverallStatus)
	}
	if !resp.Compliance.SanctionsHit {
		t.Error("expected sanctions_hit true")
	}
}

func TestScreenValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing transaction id", screenBody("", 450, "Office Depot")},
		{"non-positive amount", screenBody("tx-v1", -10, "Office Depot")},
		{"missing merchant", screenBody("tx-v2", 450, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/screen", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestScreenMalformedJSON(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/screen", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestScreenCachedDecision(t *testing.T) {
	srv := newTestServer(t)

	first := doJSON(t, srv, http.MethodPost, "/screen", screenBody("tx-cache", 450, "Office Depot"))
	if first.Code != http.StatusOK {
		t.Fatalf("first screen: %d", first.Code)
	}
	if first.Header().Get("X-Cache") == "hit" {
		t.Fatal("first screening must not be a cache hit")
	}

	second := doJSON(t, srv, http.MethodPost, "/screen", screenBody("tx-cache", 450, "Office Depot"))
	if second.Code != http.StatusOK {
		t.Fatalf("second screen: %d", second.Code)
	}
	if second.Header().Get("X-Cache") != "hit" {
		t.Error("expected cached decision on repeat submission")
	}
}

func TestDispositionRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/screen", screenBody("tx-disp", 450, "Office Depot"))

	rec := doJSON(t, srv, http.MethodGet, "/dispositions/tx-disp", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got domain.DispositionRecord
	json.NewDecoder(rec.Body).Decode(&got)
	if got.TxID != "tx-disp" || got.OverallStatus != domain.DispositionApproved {
		t.Errorf("unexpected disposition: %+v", got)
	}

	missing := doJSON(t, srv, http.MethodGet, "/dispositions/tx-none", nil)
	if missing.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown disposition, got %d", missing.Code)
	}
}

func TestListDispositionsByStatus(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/screen", screenBody("tx-l1", 450, "Office Depot"))
	doJSON(t, srv, http.MethodPost, "/screen", screenBody("tx-l2", 50000, "Suspicious Corp International"))

	rec := doJSON(t, srv, http.MethodGet, "/dispositions?status=REJECTED", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Count != 1 {
		t.Errorf("expected 1 rejected disposition, got %d", body.Count)
	}

	bad := doJSON(t, srv, http.MethodGet, "/dispositions?limit=abc", nil)
	if bad.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", bad.Code)
	}
}

func TestPolicyManagement(t *testing.T) {
	srv := newTestServer(t)

	before := doJSON(t, srv, http.MethodGet, "/policies", nil)
	var listing struct {
		Count int `json:"count"`
	}
	json.NewDecoder(before.Body).Decode(&listing)
	seed := listing.Count

	rec := doJSON(t, srv, http.MethodPost, "/policies", map[string]any{
		"policies": []string{"Gift cards above $100 require finance team approval."},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	after := doJSON(t, srv, http.MethodGet, "/policies", nil)
	json.NewDecoder(after.Body).Decode(&listing)
	if listing.Count != seed+1 {
		t.Errorf("expected %d policies, got %d", seed+1, listing.Count)
	}

	empty := doJSON(t, srv, http.MethodPost, "/policies", map[string]any{"policies": []string{}})
	if empty.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty policies, got %d", empty.Code)
	}
}

func TestWatchlistManagement(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/watchlist", map[string]any{
		"entries": []map[string]any{{
			"name":        "Newly Listed Corp",
			"entity_type": "organization",
			"list_source": "UN_CONSOLIDATED",
		}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// The new entry takes effect immediately.
	screen := doJSON(t, srv, http.MethodPost, "/screen", screenBody("tx-wl", 450, "Newly Listed Corp"))
	var resp domain.ScreenResponse
	json.NewDecoder(screen.Body).Decode(&resp)
	if resp.OverallStatus != domain.DispositionRejected {
		t.Errorf("expected REJECTED after watchlist update, got %s", resp.OverallStatus)
	}

	invalid := doJSON(t, srv, http.MethodPost, "/watchlist", map[string]any{
		"entries": []map[string]any{{"name": ""}},
	})
	if invalid.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid entry, got %d", invalid.Code)
	}
}
