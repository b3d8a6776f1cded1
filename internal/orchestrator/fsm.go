package orchestrator

import "fmt"

// State is a stage in the screening pipeline's finite state machine.
type State string

const (
	StatePending           State = "PENDING"
	StateFraudScored       State = "FRAUD_SCORED"
	StateComplianceChecked State = "COMPLIANCE_CHECKED"
	StateAggregated        State = "AGGREGATED"
	StateDone              State = "DONE"
	StateFailed            State = "FAILED"
)

// transitions is the allowed forward edge per state. FAILED is reachable
// from any non-terminal state and has no outgoing edge.
var transitions = map[State]State{
	StatePending:           StateFraudScored,
	StateFraudScored:       StateComplianceChecked,
	StateComplianceChecked: StateAggregated,
	StateAggregated:        StateDone,
}

// advance moves the machine along its single forward edge.
func advance(current State) (State, error) {
	next, ok := transitions[current]
	if !ok {
		return current, fmt.Errorf("no transition from state %s", current)
	}
	return next, nil
}

// terminal reports whether the state has no outgoing transitions.
func terminal(s State) bool {
	return s == StateDone || s == StateFailed
}
