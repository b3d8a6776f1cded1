package spend

import (
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
)

func TestAnalyzeAccumulates(t *testing.T) {
	a := NewAnalyzer(map[string]float64{"travel": 1000})

	s1 := a.Analyze(&domain.TransactionRecord{Amount: 400, Category: "travel"})
	if s1.TotalSpend != 400 || s1.OverBudget {
		t.Errorf("unexpected first signal: %+v", s1)
	}
	if s1.BudgetUtilization != 0.4 {
		t.Errorf("expected utilization 0.4, got %g", s1.BudgetUtilization)
	}

	s2 := a.Analyze(&domain.TransactionRecord{Amount: 700, Category: "travel"})
	if s2.TotalSpend != 1100 {
		t.Errorf("expected total 1100, got %g", s2.TotalSpend)
	}
	if !s2.OverBudget {
		t.Error("expected over-budget after exceeding the limit")
	}
}

func TestAnalyzeUnknownCategoryUsesDefault(t *testing.T) {
	a := NewAnalyzer(nil)
	s := a.Analyze(&domain.TransactionRecord{Amount: 100, Category: "cryptids"})
	if s.OverBudget {
		t.Error("small spend in unknown category should not be over budget")
	}
	if s.BudgetUtilization != 100.0/defaultBudget {
		t.Errorf("expected default-budget utilization, got %g", s.BudgetUtilization)
	}
}

func TestAnalyzeNormalizesCategory(t *testing.T) {
	a := NewAnalyzer(nil)
	a.Analyze(&domain.TransactionRecord{Amount: 100, Category: "Travel"})
	a.Analyze(&domain.TransactionRecord{Amount: 50, Category: " travel "})
	if got := a.TotalFor("travel"); got != 150 {
		t.Errorf("expected merged category total 150, got %g", got)
	}
}

func TestAnalyzeEmptyCategory(t *testing.T) {
	a := NewAnalyzer(nil)
	s := a.Analyze(&domain.TransactionRecord{Amount: 10})
	if s.Category != "uncategorized" {
		t.Errorf("expected uncategorized, got %q", s.Category)
	}
}
