package riskrules

import "fmt"

// Fixed thresholds for the builtin factor rules.
const (
	highAmountThreshold = 10000.0
	roundAmountUnit     = 1000
	velocityCountLimit  = 10
	businessHoursOpen   = 6
	businessHoursClose  = 22
)

// BuiltinFactorRules returns the standard risk factor checks, in the order
// their descriptions appear in assessments.
func BuiltinFactorRules() []*FactorRule {
	return []*FactorRule{
		{
			ID:         "high-amount",
			Expression: fmt.Sprintf("amount > %.1f", highAmountThreshold),
			Describe: func(in *Input) string {
				return fmt.Sprintf("High transaction amount: $%.2f", in.Amount)
			},
		},
		{
			ID:         "off-hours",
			Expression: fmt.Sprintf("hour < %d || hour > %d", businessHoursOpen, businessHoursClose),
			Describe: func(in *Input) string {
				return fmt.Sprintf("Unusual transaction time: %02d:00", in.Hour)
			},
		},
		{
			ID:         "weekend",
			Expression: "is_weekend",
			Reason:     "Weekend transaction",
		},
		{
			ID: "round-amount",
			Expression: fmt.Sprintf(
				"amount >= %d.0 && amount == double(int(amount)) && int(amount) %% %d == 0",
				roundAmountUnit, roundAmountUnit),
			Reason: "Round number amount (potential test transaction)",
		},
		{
			ID:         "high-velocity",
			Expression: fmt.Sprintf("velocity_count > %d", velocityCountLimit),
			Describe: func(in *Input) string {
				return fmt.Sprintf("High transaction velocity: %d transactions today", in.VelocityCount)
			},
		},
	}
}
