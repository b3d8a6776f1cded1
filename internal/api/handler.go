package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opensource-finance/harrier/internal/cache"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/orchestrator"
	"github.com/opensource-finance/harrier/internal/policy"
	"github.com/opensource-finance/harrier/internal/repository"
	"github.com/opensource-finance/harrier/internal/sanctions"
)

const decisionCacheTTL = time.Hour

// Handler holds dependencies for API handlers.
type Handler struct {
	pipeline *orchestrator.Orchestrator
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	policies *policy.Index
	screener *sanctions.Screener
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(pipeline *orchestrator.Orchestrator, repo domain.Repository, c domain.Cache, bus domain.EventBus, policies *policy.Index, screener *sanctions.Screener, version string) *Handler {
	return &Handler{
		pipeline: pipeline,
		repo:     repo,
		cache:    c,
		bus:      bus,
		policies: policies,
		screener: screener,
		version:  version,
	}
}

// Screen handles POST /screen: runs the full pipeline synchronously and
// returns the screening decision. Repeat submissions of the same
// transaction ID return the cached decision.
func (h *Handler) Screen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if h.cache != nil && req.TransactionID != "" {
		if cached, err := cache.GetDecision(ctx, h.cache, req.TransactionID); err == nil && cached != nil {
			w.Header().Set("X-Cache", "hit")
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	resp, err := h.pipeline.Screen(ctx, &req)
	if err != nil {
		var inputErr *domain.InputError
		if errors.As(err, &inputErr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": inputErr.Error(),
			})
			return
		}
		slog.Error("screening failed", "transaction_id", req.TransactionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "screening failed",
		})
		return
	}

	h.recordDecision(r, resp)

	writeJSON(w, http.StatusOK, resp)
}

// recordDecision persists the disposition, caches the decision, and
// publishes the decision event. All three are best-effort; the caller
// already has the response.
func (h *Handler) recordDecision(r *http.Request, resp *domain.ScreenResponse) {
	ctx := r.Context()

	if h.repo != nil {
		rec := dispositionFromResponse(resp)
		if err := h.repo.SaveDisposition(ctx, rec); err != nil {
			slog.Error("failed to save disposition",
				"transaction_id", resp.TransactionID, "error", err)
		}
	}

	if h.cache != nil {
		if err := cache.SetDecision(ctx, h.cache, resp, decisionCacheTTL); err != nil {
			slog.Warn("failed to cache decision",
				"transaction_id", resp.TransactionID, "error", err)
		}
	}

	if h.bus != nil {
		payload, _ := json.Marshal(resp)
		if err := h.bus.Publish(ctx, domain.TopicDecision, payload); err != nil {
			slog.Warn("failed to publish decision",
				"transaction_id", resp.TransactionID, "error", err)
		}
		if resp.OverallStatus == domain.DispositionRejected || resp.OverallStatus == domain.DispositionFlagged {
			if err := h.bus.Publish(ctx, domain.TopicAlert, payload); err != nil {
				slog.Warn("failed to publish alert",
					"transaction_id", resp.TransactionID, "error", err)
			}
		}
	}
}

func dispositionFromResponse(resp *domain.ScreenResponse) *domain.DispositionRecord {
	return &domain.DispositionRecord{
		ID:               uuid.New().String(),
		TxID:             resp.TransactionID,
		OverallStatus:    resp.OverallStatus,
		RiskLevel:        resp.FraudAnalysis.RiskLevel,
		FraudScore:       resp.FraudAnalysis.Score,
		Confidence:       resp.FraudAnalysis.Confidence,
		ComplianceStatus: resp.Compliance.Status,
		ComplianceRisk:   resp.Compliance.RiskScore,
		SanctionsHit:     resp.Compliance.SanctionsHit,
		PEPHit:           resp.Compliance.PEPHit,
		Degraded:         resp.Degraded,
		DecisionLog:      resp.DecisionLog,
		CreatedAt:        resp.Timestamp,
	}
}

// GetDisposition handles GET /dispositions/{id}.
func (h *Handler) GetDisposition(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "id")
	if txID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transaction id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	rec, err := h.repo.GetDisposition(r.Context(), txID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "disposition not found",
			})
			return
		}
		slog.Error("failed to get disposition", "tx_id", txID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get disposition",
		})
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// ListDispositions handles GET /dispositions with optional status and
// limit query parameters.
func (h *Handler) ListDispositions(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	status := domain.Disposition(r.URL.Query().Get("status"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a non-negative integer",
			})
			return
		}
		limit = n
	}

	records, err := h.repo.ListDispositions(r.Context(), status, limit)
	if err != nil {
		slog.Error("failed to list dispositions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list dispositions",
		})
		return
	}
	if records == nil {
		records = []*domain.DispositionRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"dispositions": records,
		"count":        len(records),
	})
}

// PolicyRequest is the request body for POST /policies.
type PolicyRequest struct {
	Policies []string `json:"policies"`
}

// AddPolicies handles POST /policies: embeds and indexes new policy texts.
func (h *Handler) AddPolicies(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if len(req.Policies) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "policies must be a non-empty array",
		})
		return
	}
	for _, p := range req.Policies {
		if p == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "policy text must not be empty",
			})
			return
		}
	}

	if err := h.policies.Add(r.Context(), req.Policies); err != nil {
		slog.Error("failed to index policies", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to index policies",
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"added": len(req.Policies),
		"total": h.policies.Size(),
	})
}

// ListPolicies handles GET /policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	texts := h.policies.Texts()
	writeJSON(w, http.StatusOK, map[string]any{
		"policies": texts,
		"count":    len(texts),
	})
}

// WatchlistRequest is the request body for POST /watchlist.
type WatchlistRequest struct {
	Entries []domain.SanctionsEntry `json:"entries"`
}

// AddWatchlistEntries handles POST /watchlist: appends sanctions entries.
func (h *Handler) AddWatchlistEntries(w http.ResponseWriter, r *http.Request) {
	var req WatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if len(req.Entries) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "entries must be a non-empty array",
		})
		return
	}
	for _, e := range req.Entries {
		if e.Name == "" || e.ListSource == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "each entry requires name and list_source",
			})
			return
		}
	}

	h.screener.AddEntries(req.Entries)

	writeJSON(w, http.StatusCreated, map[string]any{
		"added": len(req.Entries),
		"total": h.screener.Size(),
	})
}

// ListWatchlist handles GET /watchlist.
func (h *Handler) ListWatchlist(w http.ResponseWriter, r *http.Request) {
	entries := h.screener.Entries()
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
