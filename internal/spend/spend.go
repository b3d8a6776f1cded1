// Package spend tracks running per-category spend against budgets and
// produces advisory budget signals. Signals are informational: they appear
// in the screening response but never change the disposition.
package spend

import (
	"strings"
	"sync"

	"github.com/opensource-finance/harrier/internal/domain"
)

const defaultBudget = 25000

// DefaultBudgets is the seed per-category budget table in dollars.
func DefaultBudgets() map[string]float64 {
	return map[string]float64{
		"travel":          50000,
		"entertainment":   10000,
		"office_supplies": 20000,
		"equipment":       75000,
		"software":        40000,
		"consulting":      100000,
		"marketing":       60000,
	}
}

// Analyzer accumulates category spend in memory for the current budget
// period. A RESET of the period is an operational concern left to restarts.
type Analyzer struct {
	mu      sync.Mutex
	budgets map[string]float64
	totals  map[string]float64
}

// NewAnalyzer creates an analyzer with the given budgets. A nil map uses
// the defaults.
func NewAnalyzer(budgets map[string]float64) *Analyzer {
	if budgets == nil {
		budgets = DefaultBudgets()
	}
	return &Analyzer{
		budgets: budgets,
		totals:  make(map[string]float64),
	}
}

// Analyze records the transaction against its category total and returns
// the updated budget signals. Unknown categories fall back to the default
// budget.
func (a *Analyzer) Analyze(rec *domain.TransactionRecord) *domain.SpendSignals {
	category := strings.ToLower(strings.TrimSpace(rec.Category))
	if category == "" {
		category = "uncategorized"
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.totals[category] += rec.Amount
	total := a.totals[category]

	budget, ok := a.budgets[category]
	if !ok {
		budget = defaultBudget
	}

	return &domain.SpendSignals{
		Category:          category,
		TotalSpend:        total,
		BudgetUtilization: total / budget,
		OverBudget:        total > budget,
	}
}

// TotalFor returns the accumulated spend for a category.
func (a *Analyzer) TotalFor(category string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totals[strings.ToLower(strings.TrimSpace(category))]
}
