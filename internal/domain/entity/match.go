package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchStrategy identifies which strategy produced a match.
type MatchStrategy string

const (
	StrategyReference   MatchStrategy = "reference"
	StrategyExactAmount MatchStrategy = "exact_amount"
	StrategyFuzzy       MatchStrategy = "fuzzy"
	StrategyManual      MatchStrategy = "manual"
	StrategyReversal    MatchStrategy = "reversal"
)

// Match represents a committed allocation of (part of) a receipt against
// (part of) an invoice. Match rows are append-only: corrections are recorded
// as new negative-adjustment rows referencing the original, never in-place
// edits, so the audit trail is preserved.
type Match struct {
	ID               uuid.UUID
	InvoiceID        uuid.UUID
	ReceiptID        uuid.UUID
	MatchedAmount    decimal.Decimal // negative only on reversal rows
	Confidence       float64         // [0,1]
	Strategy         MatchStrategy
	ReversesMatchID  *uuid.UUID // set on reversal rows
	Note             string     // operator note on manual and reversal rows
	CreatedAt        time.Time
}

// NewMatch creates a new Match entity for an accepted allocation.
func NewMatch(invoiceID, receiptID uuid.UUID, amount decimal.Decimal, confidence float64, strategy MatchStrategy) *Match {
	return &Match{
		ID:            uuid.New(),
		InvoiceID:     invoiceID,
		ReceiptID:     receiptID,
		MatchedAmount: amount,
		Confidence:    confidence,
		Strategy:      strategy,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewReversal creates a negative-adjustment Match row that undoes the
// original match while keeping it in the audit trail.
func NewReversal(original *Match, note string) *Match {
	originalID := original.ID
	return &Match{
		ID:              uuid.New(),
		InvoiceID:       original.InvoiceID,
		ReceiptID:       original.ReceiptID,
		MatchedAmount:   original.MatchedAmount.Neg(),
		Confidence:      original.Confidence,
		Strategy:        StrategyReversal,
		ReversesMatchID: &originalID,
		Note:            note,
		CreatedAt:       time.Now().UTC(),
	}
}

// IsReversal reports whether the match is a negative-adjustment row.
func (m *Match) IsReversal() bool {
	return m.Strategy == StrategyReversal
}
