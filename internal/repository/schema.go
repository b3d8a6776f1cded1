package repository

// dispositionsSchema is the audit table for screening outcomes. Booleans
// are stored as integers for SQLite compatibility; the decision log is a
// JSON column.
const dispositionsSchema = `
CREATE TABLE IF NOT EXISTS dispositions (
	id                TEXT PRIMARY KEY,
	tx_id             TEXT NOT NULL,
	merchant          TEXT NOT NULL,
	category          TEXT,
	amount            REAL NOT NULL,
	overall_status    TEXT NOT NULL,
	risk_level        TEXT NOT NULL,
	fraud_score       REAL NOT NULL,
	confidence        REAL NOT NULL,
	compliance_status TEXT NOT NULL,
	compliance_risk   REAL NOT NULL,
	sanctions_hit     INTEGER NOT NULL DEFAULT 0,
	pep_hit           INTEGER NOT NULL DEFAULT 0,
	degraded          INTEGER NOT NULL DEFAULT 0,
	decision_log      TEXT,
	created_at        TIMESTAMP NOT NULL
);
`

const dispositionsTxIndex = `
CREATE INDEX IF NOT EXISTS idx_dispositions_tx_id ON dispositions(tx_id);
`

const dispositionsStatusIndex = `
CREATE INDEX IF NOT EXISTS idx_dispositions_status_created
ON dispositions(overall_status, created_at);
`

// AllSchemas returns the migration statements in execution order.
func AllSchemas() []string {
	return []string{
		dispositionsSchema,
		dispositionsTxIndex,
		dispositionsStatusIndex,
	}
}
