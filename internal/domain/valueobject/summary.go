package valueobject

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// DateRange bounds a reconciliation pass or a query.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range (inclusive).
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ReconciliationConflict records a candidate that kept losing the optimistic
// version race after the configured retry limit. Conflicts are surfaced for
// operator review, never silently dropped.
type ReconciliationConflict struct {
	InvoiceID uuid.UUID
	ReceiptID uuid.UUID
	Strategy  entity.MatchStrategy
	Reason    string
}

// PartitionError records a customer partition that failed to process. The
// failure is isolated: the rest of the batch still completes.
type PartitionError struct {
	CustomerID uuid.UUID
	Reason     string
}

// ReconciliationSummary describes the reconciled state of a date range
// after a pass. Counts are derived from persisted range state, not from
// the pass's own writes, so re-running an unchanged range reports the
// same numbers apart from the timestamps.
type ReconciliationSummary struct {
	MatchedInvoiceCount   int
	PartialInvoiceCount   int
	UnmatchedInvoiceCount int
	UnmatchedReceiptCount int
	TotalMatchedAmount    decimal.Decimal // net over match rows, reversals included
	MatchCount            int
	DiscrepancyCount      int // unresolved discrepancies on invoices in the range
	Conflicts             []ReconciliationConflict
	PartitionErrors       []PartitionError
	StartedAt             time.Time
	FinishedAt            time.Time
}
