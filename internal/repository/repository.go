// Package repository provides disposition audit persistence.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opensource-finance/harrier/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

const defaultListLimit = 100

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveDisposition stores the final outcome of a screening run.
func (r *SQLRepository) SaveDisposition(ctx context.Context, rec *domain.DispositionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: disposition id is required", ErrInvalidInput)
	}
	if rec.TxID == "" {
		return fmt.Errorf("%w: transaction id is required", ErrInvalidInput)
	}

	decisionLog, _ := json.Marshal(rec.DecisionLog)

	query := `
		INSERT INTO dispositions (
			id, tx_id, merchant, category, amount,
			overall_status, risk_level, fraud_score, confidence,
			compliance_status, compliance_risk, sanctions_hit, pep_hit,
			degraded, decision_log, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rec.ID, rec.TxID, rec.Merchant, rec.Category, rec.Amount,
		rec.OverallStatus, rec.RiskLevel, rec.FraudScore, rec.Confidence,
		rec.ComplianceStatus, rec.ComplianceRisk,
		boolToInt(rec.SanctionsHit), boolToInt(rec.PEPHit),
		boolToInt(rec.Degraded), string(decisionLog), rec.CreatedAt,
	)
	return err
}

// GetDisposition retrieves the most recent disposition for a transaction.
func (r *SQLRepository) GetDisposition(ctx context.Context, txID string) (*domain.DispositionRecord, error) {
	if txID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tx_id, merchant, category, amount,
			   overall_status, risk_level, fraud_score, confidence,
			   compliance_status, compliance_risk, sanctions_hit, pep_hit,
			   degraded, decision_log, created_at
		FROM dispositions
		WHERE tx_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	rec, err := r.scanDisposition(r.db.QueryRowContext(ctx, r.rebind(query), txID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListDispositions returns recent dispositions, newest first, optionally
// filtered by overall status.
func (r *SQLRepository) ListDispositions(ctx context.Context, status domain.Disposition, limit int) ([]*domain.DispositionRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, tx_id, merchant, category, amount,
			   overall_status, risk_level, fraud_score, confidence,
			   compliance_status, compliance_risk, sanctions_hit, pep_hit,
			   degraded, decision_log, created_at
		FROM dispositions
	`
	args := []any{}
	if status != "" {
		query += " WHERE overall_status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.DispositionRecord
	for rows.Next() {
		rec, err := r.scanDisposition(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepository) scanDisposition(row rowScanner) (*domain.DispositionRecord, error) {
	var rec domain.DispositionRecord
	var sanctionsHit, pepHit, degraded int
	var decisionLog string

	err := row.Scan(
		&rec.ID, &rec.TxID, &rec.Merchant, &rec.Category, &rec.Amount,
		&rec.OverallStatus, &rec.RiskLevel, &rec.FraudScore, &rec.Confidence,
		&rec.ComplianceStatus, &rec.ComplianceRisk, &sanctionsHit, &pepHit,
		&degraded, &decisionLog, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.SanctionsHit = sanctionsHit == 1
	rec.PEPHit = pepHit == 1
	rec.Degraded = degraded == 1
	if decisionLog != "" {
		json.Unmarshal([]byte(decisionLog), &rec.DecisionLog)
	}

	return &rec, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
