// Package domain defines the core interfaces and types for Harrier.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransactionRecord is a transaction submitted for screening.
// Immutable once it enters the pipeline.
type TransactionRecord struct {
	// Core identifiers
	ID     string `json:"transaction_id"`
	UserID string `json:"user_id"`

	// Financial details
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant"`
	Category string  `json:"category"`

	// Temporal
	Timestamp time.Time `json:"timestamp"`

	// Optional context
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`

	// Supporting approvals checked by policy rules
	ManagerApproval  bool `json:"manager_approval,omitempty"`
	CompetitiveBids  bool `json:"competitive_bids,omitempty"`
	CorporateBooking bool `json:"corporate_booking,omitempty"`
}

// ScreenRequest is the API/worker payload for transaction screening.
// Timestamps without a zone are treated as UTC.
type ScreenRequest struct {
	TransactionID    string  `json:"transaction_id"`
	Amount           float64 `json:"amount"`
	Merchant         string  `json:"merchant"`
	Category         string  `json:"category"`
	UserID           string  `json:"user_id"`
	Timestamp        string  `json:"timestamp"`
	Location         string  `json:"location,omitempty"`
	Description      string  `json:"description,omitempty"`
	ManagerApproval  bool    `json:"manager_approval,omitempty"`
	CompetitiveBids  bool    `json:"competitive_bids,omitempty"`
	CorporateBooking bool    `json:"corporate_booking,omitempty"`
}

// InputError marks a malformed or incomplete transaction rejected at the
// boundary, before it enters the pipeline.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid transaction input: %s %s", e.Field, e.Reason)
}

// timestamp layouts accepted from callers, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ToRecord validates the request and converts it to a TransactionRecord.
// Returns *InputError for missing or malformed required fields.
func (r *ScreenRequest) ToRecord() (*TransactionRecord, error) {
	if strings.TrimSpace(r.TransactionID) == "" {
		return nil, &InputError{Field: "transaction_id", Reason: "is required"}
	}
	if r.Amount <= 0 {
		return nil, &InputError{Field: "amount", Reason: "must be positive"}
	}
	if strings.TrimSpace(r.Merchant) == "" {
		return nil, &InputError{Field: "merchant", Reason: "is required"}
	}

	ts := time.Now().UTC()
	if r.Timestamp != "" {
		parsed, err := parseTimestamp(r.Timestamp)
		if err != nil {
			return nil, &InputError{Field: "timestamp", Reason: "is not a recognized format"}
		}
		ts = parsed
	}

	return &TransactionRecord{
		ID:               r.TransactionID,
		UserID:           r.UserID,
		Amount:           r.Amount,
		Merchant:         r.Merchant,
		Category:         r.Category,
		Timestamp:        ts,
		Location:         r.Location,
		Description:      r.Description,
		ManagerApproval:  r.ManagerApproval,
		CompetitiveBids:  r.CompetitiveBids,
		CorporateBooking: r.CorporateBooking,
	}, nil
}

// parseTimestamp parses a caller timestamp. Naive timestamps are UTC.
func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}
