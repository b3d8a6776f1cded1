package compliance

import (
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

const (
	managerApprovalThreshold = 10000
	competitiveBidThreshold  = 25000
	entertainmentLimit       = 500
)

// policyViolations checks the transaction against each retrieved policy.
// Rules key on clauses in the policy text, so only policies relevant enough
// to be retrieved can produce violations. Each finding carries the violated
// policy verbatim.
func policyViolations(rec *domain.TransactionRecord, policies []string) []string {
	var violations []string
	category := strings.ToLower(rec.Category)

	for _, p := range policies {
		policyLower := strings.ToLower(p)

		if strings.Contains(policyLower, "above $10,000") &&
			rec.Amount > managerApprovalThreshold && !rec.ManagerApproval {
			violations = append(violations, "Policy violation: "+p)
		}

		if strings.Contains(policyLower, "above $25,000") &&
			rec.Amount > competitiveBidThreshold && !rec.CompetitiveBids {
			violations = append(violations, "Policy violation: "+p)
		}

		if strings.Contains(policyLower, "entertainment") &&
			strings.Contains(category, "entertainment") && rec.Amount > entertainmentLimit {
			violations = append(violations, "Policy violation: "+p)
		}

		if strings.Contains(policyLower, "travel") &&
			strings.Contains(category, "travel") && !rec.CorporateBooking {
			violations = append(violations, "Policy violation: "+p)
		}
	}

	return violations
}
