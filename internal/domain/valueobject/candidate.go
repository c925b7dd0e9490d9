package valueobject

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// MatchCandidate is a proposed (invoice, receipt) pairing produced by a
// matching strategy. Candidates are not yet committed; the allocation ledger
// decides the amount actually allocated when a candidate is accepted.
type MatchCandidate struct {
	InvoiceID      uuid.UUID
	ReceiptID      uuid.UUID
	Confidence     float64
	Strategy       entity.MatchStrategy
	InvoiceDueDate time.Time
	InvoiceNumber  string
}

// Suggestion is a ranked candidate returned by the suggestion engine for
// manual reconciliation. Below-threshold candidates are included with their
// scores unchanged and labelled accordingly.
type Suggestion struct {
	InvoiceID       uuid.UUID
	InvoiceNumber   string
	InvoiceAmount   decimal.Decimal
	RemainingAmount decimal.Decimal
	Confidence      float64
	BelowThreshold  bool
	MatchReason     string
}
