package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()
	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleDisposition(id, txID string, status domain.Disposition) *domain.DispositionRecord {
	return &domain.DispositionRecord{
		ID:               id,
		TxID:             txID,
		Merchant:         "Office Depot",
		Category:         "office_supplies",
		Amount:           450,
		OverallStatus:    status,
		RiskLevel:        domain.RiskLow,
		FraudScore:       0.12,
		Confidence:       0.91,
		ComplianceStatus: domain.ComplianceApproved,
		ComplianceRisk:   0,
		DecisionLog: []domain.StepDecision{
			{Step: "fraud_scoring", Timestamp: time.Now().UTC(), Result: map[string]any{"score": 0.12}},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestSaveAndGetDisposition(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := sampleDisposition("d-1", "tx-1", domain.DispositionApproved)
	rec.SanctionsHit = false
	rec.Degraded = true

	if err := repo.SaveDisposition(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetDisposition(ctx, "tx-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "d-1" || got.OverallStatus != domain.DispositionApproved {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.Degraded {
		t.Error("expected degraded flag persisted")
	}
	if len(got.DecisionLog) != 1 || got.DecisionLog[0].Step != "fraud_scoring" {
		t.Errorf("unexpected decision log: %+v", got.DecisionLog)
	}
}

func TestGetDispositionNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetDisposition(context.Background(), "tx-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveDispositionValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveDisposition(ctx, &domain.DispositionRecord{TxID: "tx-1"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing id, got %v", err)
	}
	if err := repo.SaveDisposition(ctx, &domain.DispositionRecord{ID: "d-1"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing tx id, got %v", err)
	}
}

func TestListDispositionsFiltered(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.SaveDisposition(ctx, sampleDisposition("d-1", "tx-1", domain.DispositionApproved))
	repo.SaveDisposition(ctx, sampleDisposition("d-2", "tx-2", domain.DispositionRejected))
	repo.SaveDisposition(ctx, sampleDisposition("d-3", "tx-3", domain.DispositionApproved))

	approved, err := repo.ListDispositions(ctx, domain.DispositionApproved, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(approved) != 2 {
		t.Errorf("expected 2 approved, got %d", len(approved))
	}

	all, err := repo.ListDispositions(ctx, "", 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 total, got %d", len(all))
	}
}

func TestListDispositionsLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := sampleDisposition(
			"d-"+string(rune('a'+i)),
			"tx-"+string(rune('a'+i)),
			domain.DispositionApproved,
		)
		rec.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := repo.SaveDisposition(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := repo.ListDispositions(ctx, "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit 2, got %d", len(got))
	}
	// Newest first.
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Error("expected newest-first ordering")
	}
}

func TestGetDispositionLatestWins(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := sampleDisposition("d-1", "tx-1", domain.DispositionReview)
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	repo.SaveDisposition(ctx, first)

	second := sampleDisposition("d-2", "tx-1", domain.DispositionApproved)
	repo.SaveDisposition(ctx, second)

	got, err := repo.GetDisposition(ctx, "tx-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "d-2" {
		t.Errorf("expected most recent disposition, got %s", got.ID)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := New(domain.RepositoryConfig{Driver: "oracle"})
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}
