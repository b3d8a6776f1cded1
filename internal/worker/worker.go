// Package worker provides async screening of transactions from the EventBus.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/orchestrator"
)

// Worker consumes ingested transactions from the bus, screens them, and
// publishes the decisions. It serves deployments where callers submit
// transactions through NATS or Kafka instead of the HTTP API.
type Worker struct {
	bus      domain.EventBus
	repo     domain.Repository
	pipeline *orchestrator.Orchestrator
	logger   *slog.Logger

	subscription domain.Subscription
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewWorker creates an async screening worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, pipeline *orchestrator.Orchestrator, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		repo:     repo,
		pipeline: pipeline,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the transaction ingestion topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicTransactionIngested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscription = sub

	w.logger.Info("screening worker started",
		"topic", domain.TopicTransactionIngested,
	)
	return nil
}

// handleMessage screens one ingested transaction. Malformed payloads are
// logged and dropped; screening outcomes are persisted and re-published.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	var req domain.ScreenRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		w.logger.Error("malformed transaction message dropped",
			"message_id", msg.ID,
			"error", err,
		)
		return nil
	}

	resp, err := w.pipeline.Screen(ctx, &req)
	if err != nil {
		var inputErr *domain.InputError
		if errors.As(err, &inputErr) {
			w.logger.Warn("invalid transaction dropped",
				"message_id", msg.ID,
				"transaction_id", req.TransactionID,
				"error", err,
			)
			return nil
		}
		return err
	}

	if w.repo != nil {
		rec := &domain.DispositionRecord{
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
		if err := w.repo.SaveDisposition(ctx, rec); err != nil {
			w.logger.Error("failed to save disposition",
				"transaction_id", resp.TransactionID,
				"error", err,
			)
		}
	}

	payload, _ := json.Marshal(resp)
	if err := w.bus.Publish(ctx, domain.TopicDecision, payload); err != nil {
		w.logger.Error("failed to publish decision",
			"transaction_id", resp.TransactionID,
			"error", err,
		)
	}
	if resp.OverallStatus == domain.DispositionRejected || resp.OverallStatus == domain.DispositionFlagged {
		if err := w.bus.Publish(ctx, domain.TopicAlert, payload); err != nil {
			w.logger.Error("failed to publish alert",
				"transaction_id", resp.TransactionID,
				"error", err,
			)
		}
	}

	w.logger.Info("transaction screened",
		"transaction_id", resp.TransactionID,
		"overall_status", resp.OverallStatus,
	)
	return nil
}

// Stop cancels the subscription and stops the worker.
func (w *Worker) Stop() {
	w.cancel()
	if w.subscription != nil {
		_ = w.subscription.Unsubscribe()
	}
	// Give in-flight handlers a moment to finish logging.
	time.Sleep(10 * time.Millisecond)
	w.logger.Info("screening worker stopped")
}
