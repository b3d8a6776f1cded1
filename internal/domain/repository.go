package domain

import (
	"context"
	"time"
)

// DispositionRecord is the persisted audit row for one screening outcome.
// The raw transaction is not stored; only the summary columns needed to
// reconstruct the decision trail.
type DispositionRecord struct {
	ID               string           `json:"id"`
	TxID             string           `json:"tx_id"`
	Merchant         string           `json:"merchant"`
	Category         string           `json:"category"`
	Amount           float64          `json:"amount"`
	OverallStatus    Disposition      `json:"overall_status"`
	RiskLevel        RiskLevel        `json:"risk_level"`
	FraudScore       float64          `json:"fraud_score"`
	Confidence       float64          `json:"confidence"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
	ComplianceRisk   float64          `json:"compliance_risk"`
	SanctionsHit     bool             `json:"sanctions_hit"`
	PEPHit           bool             `json:"pep_hit"`
	Degraded         bool             `json:"degraded"`
	DecisionLog      []StepDecision   `json:"decision_log"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Repository defines the interface for disposition audit persistence.
type Repository interface {
	// SaveDisposition stores the final outcome of a screening run.
	SaveDisposition(ctx context.Context, rec *DispositionRecord) error

	// GetDisposition retrieves a disposition by transaction ID.
	GetDisposition(ctx context.Context, txID string) (*DispositionRecord, error)

	// ListDispositions returns recent dispositions, optionally filtered by
	// overall status. A zero limit defaults to 100.
	ListDispositions(ctx context.Context, status Disposition, limit int) ([]*DispositionRecord, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `yaml:"driver"`

	// SQLite specific
	SQLitePath string `yaml:"sqlite_path"`

	// PostgreSQL specific
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     int    `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	// Connection pool settings
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}
