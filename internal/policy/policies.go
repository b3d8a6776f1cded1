package policy

// DefaultPolicies is the seed compliance policy corpus loaded at startup.
// Deployments extend it through the policy management API.
func DefaultPolicies() []string {
	return []string{
		"All transactions above $10,000 require manager approval and enhanced due diligence documentation.",
		"Transactions with entities on OFAC sanctions lists are strictly prohibited and must be rejected immediately.",
		"Politically exposed persons (PEPs) require enhanced due diligence and senior management approval.",
		"Cash transactions above $10,000 must be reported via Currency Transaction Report (CTR).",
		"Suspicious activity including structuring, unusual patterns, or high-risk jurisdictions must be reported via SAR.",
		"Entertainment expenses must not exceed $500 per person per event without executive approval.",
		"All vendor payments above $25,000 require competitive bidding documentation with at least three bids.",
		"Travel expenses must be booked through the corporate travel system with itemized receipts.",
		"Wire transfers to high-risk jurisdictions require compliance officer pre-approval.",
		"Cross-border transactions must comply with local currency control regulations and reporting requirements.",
	}
}
