package riskrules

import (
	"context"
	"strings"
	"testing"
)

func newBuiltinEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	if err := engine.LoadRules(BuiltinFactorRules()); err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	return engine
}

func quietInput() *Input {
	return &Input{
		Amount:        180,
		Hour:          11,
		Weekday:       2,
		IsWeekend:     false,
		VelocityCount: 2,
		Merchant:      "Office Depot",
		Category:      "office_supplies",
	}
}

func TestEvaluateQuietInputNoFactors(t *testing.T) {
	engine := newBuiltinEngine(t)

	factors := engine.Evaluate(context.Background(), quietInput())
	if len(factors) != 0 {
		t.Errorf("quiet input triggered factors: %v", factors)
	}
}

func TestEvaluateBuiltinRules(t *testing.T) {
	engine := newBuiltinEngine(t)

	tests := []struct {
		name   string
		mutate func(in *Input)
		want   string
	}{
		{
			name:   "high amount",
			mutate: func(in *Input) { in.Amount = 15000 },
			want:   "High transaction amount: $15000.00",
		},
		{
			name:   "early morning",
			mutate: func(in *Input) { in.Hour = 3 },
			want:   "Unusual transaction time: 03:00",
		},
		{
			name:   "late night",
			mutate: func(in *Input) { in.Hour = 23 },
			want:   "Unusual transaction time: 23:00",
		},
		{
			name:   "weekend",
			mutate: func(in *Input) { in.IsWeekend = true },
			want:   "Weekend transaction",
		},
		{
			name:   "round amount",
			mutate: func(in *Input) { in.Amount = 5000 },
			want:   "Round number amount (potential test transaction)",
		},
		{
			name:   "high velocity",
			mutate: func(in *Input) { in.VelocityCount = 15 },
			want:   "High transaction velocity: 15 transactions today",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := quietInput()
			tt.mutate(in)

			factors := engine.Evaluate(context.Background(), in)
			found := false
			for _, f := range factors {
				if f == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("factors = %v, want to contain %q", factors, tt.want)
			}
		})
	}
}

func TestEvaluateRoundAmountEdges(t *testing.T) {
	engine := newBuiltinEngine(t)

	in := quietInput()
	in.Amount = 5001
	for _, f := range engine.Evaluate(context.Background(), in) {
		if strings.Contains(f, "Round number") {
			t.Errorf("$5001 flagged as round amount")
		}
	}

	in.Amount = 5000.50
	for _, f := range engine.Evaluate(context.Background(), in) {
		if strings.Contains(f, "Round number") {
			t.Errorf("$5000.50 flagged as round amount")
		}
	}
}

func TestEvaluateFactorOrderFollowsLoadOrder(t *testing.T) {
	engine := newBuiltinEngine(t)

	in := &Input{
		Amount:        45000,
		Hour:          3,
		Weekday:       5,
		IsWeekend:     true,
		VelocityCount: 15,
		Merchant:      "Offshore Consulting LLC",
		Category:      "consulting",
	}

	factors := engine.Evaluate(context.Background(), in)
	if len(factors) != 5 {
		t.Fatalf("factor count = %d, want 5: %v", len(factors), factors)
	}

	prefixes := []string{
		"High transaction amount",
		"Unusual transaction time",
		"Weekend transaction",
		"Round number amount",
		"High transaction velocity",
	}
	for i, prefix := range prefixes {
		if !strings.HasPrefix(factors[i], prefix) {
			t.Errorf("factors[%d] = %q, want prefix %q", i, factors[i], prefix)
		}
	}
}

func TestLoadRulesReplacesSet(t *testing.T) {
	engine := newBuiltinEngine(t)

	err := engine.LoadRules([]*FactorRule{
		{ID: "only", Expression: "amount > 1.0", Reason: "always"},
	})
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if engine.RulesCount() != 1 {
		t.Errorf("rules count = %d, want 1", engine.RulesCount())
	}

	factors := engine.Evaluate(context.Background(), quietInput())
	if len(factors) != 1 || factors[0] != "always" {
		t.Errorf("factors = %v, want [always]", factors)
	}
}

func TestLoadRulesRejectsBadExpression(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	err = engine.LoadRules([]*FactorRule{
		{ID: "broken", Expression: "amount >>> 10", Reason: "nope"},
	})
	if err == nil {
		t.Error("expected compile error for malformed expression")
	}
}

func TestLoadRulesRejectsNonBoolExpression(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	err = engine.LoadRules([]*FactorRule{
		{ID: "numeric", Expression: "amount * 2.0", Reason: "nope"},
	})
	if err == nil {
		t.Error("expected error for non-bool expression")
	}
	if err != nil && !strings.Contains(err.Error(), "must return bool") {
		t.Errorf("error = %v, want bool type complaint", err)
	}
}

func TestCloseClearsRules(t *testing.T) {
	engine := newBuiltinEngine(t)

	if err := engine.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if engine.RulesCount() != 0 {
		t.Errorf("rules count after close = %d, want 0", engine.RulesCount())
	}
	if factors := engine.Evaluate(context.Background(), quietInput()); len(factors) != 0 {
		t.Errorf("closed engine produced factors: %v", factors)
	}
}
