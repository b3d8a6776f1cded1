// Package riskrules provides the CEL-Go based risk factor engine.
// Risk factors are deterministic rule checks over transaction attributes,
// evaluated independently of the anomaly ensemble.
package riskrules

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Engine evaluates compiled CEL factor rules against transactions.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled []*compiledRule
}

type compiledRule struct {
	rule    *FactorRule
	program cel.Program
}

// FactorRule is a single risk factor check. The expression must evaluate to
// a bool; when true, Describe (or the static Reason) supplies the factor
// string appended to the assessment.
type FactorRule struct {
	ID         string
	Expression string
	Reason     string
	Describe   func(in *Input) string
}

// Input holds the transaction attributes visible to factor expressions.
type Input struct {
	Amount        float64
	Hour          int
	Weekday       int // Monday=0..Sunday=6
	IsWeekend     bool
	VelocityCount int64
	Merchant      string
	Category      string
}

// NewEngine creates a risk factor engine with an empty rule set.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("hour", cel.IntType),
		cel.Variable("weekday", cel.IntType),
		cel.Variable("is_weekend", cel.BoolType),
		cel.Variable("velocity_count", cel.IntType),
		cel.Variable("merchant", cel.StringType),
		cel.Variable("category", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{env: env}, nil
}

// LoadRules compiles and installs the given rules, replacing any loaded set.
// Rule order is preserved; factor output order follows load order.
func (e *Engine) LoadRules(rules []*FactorRule) error {
	compiled := make([]*compiledRule, 0, len(rules))
	for _, rule := range rules {
		c, err := e.compileRule(rule)
		if err != nil {
			return err
		}
		compiled = append(compiled, c)
	}

	e.mu.Lock()
	e.compiled = compiled
	e.mu.Unlock()
	return nil
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// Evaluate runs every loaded rule against the input and returns the ordered
// list of triggered factor descriptions. Rules that error are skipped; a
// broken rule must never abort factor evaluation.
func (e *Engine) Evaluate(ctx context.Context, in *Input) []string {
	e.mu.RLock()
	rules := e.compiled
	e.mu.RUnlock()

	activation := map[string]any{
		"amount":         in.Amount,
		"hour":           int64(in.Hour),
		"weekday":        int64(in.Weekday),
		"is_weekend":     in.IsWeekend,
		"velocity_count": in.VelocityCount,
		"merchant":       in.Merchant,
		"category":       in.Category,
	}

	factors := make([]string, 0, len(rules))
	for _, rule := range rules {
		out, _, err := rule.program.Eval(activation)
		if err != nil {
			continue
		}
		hit, ok := out.(types.Bool)
		if !ok || !bool(hit) {
			continue
		}
		if rule.rule.Describe != nil {
			factors = append(factors, rule.rule.Describe(in))
		} else {
			factors = append(factors, rule.rule.Reason)
		}
	}

	return factors
}

// Close clears the loaded rules.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = nil
	return nil
}

func (e *Engine) compileRule(rule *FactorRule) (*compiledRule, error) {
	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}

	return &compiledRule{rule: rule, program: program}, nil
}
