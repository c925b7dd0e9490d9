package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgingBucket classifies an open invoice by time since its due date.
type AgingBucket string

const (
	AgingBucketCurrent AgingBucket = "current"
	AgingBucket31To60  AgingBucket = "d31_60"
	AgingBucket61To90  AgingBucket = "d61_90"
	AgingBucket90Plus  AgingBucket = "d90_plus"
)

// AgingSnapshot is one row of the accounts-receivable aging read model:
// the outstanding balance a customer holds in one aging bucket. Snapshots
// are recomputed in full on every reconciliation run, never incrementally
// mutated, so the read model cannot drift from the invoice ledger.
type AgingSnapshot struct {
	ID                    uuid.UUID
	CustomerID            uuid.UUID
	Bucket                AgingBucket
	OutstandingAmount     decimal.Decimal
	OldestOpenInvoiceDate time.Time
	ComputedAt            time.Time
}

// BucketForAge returns the aging bucket for the number of days an invoice
// is past due. Invoices not yet due fall into the current bucket.
func BucketForAge(daysPastDue int) AgingBucket {
	switch {
	case daysPastDue <= 30:
		return AgingBucketCurrent
	case daysPastDue <= 60:
		return AgingBucket31To60
	case daysPastDue <= 90:
		return AgingBucket61To90
	default:
		return AgingBucket90Plus
	}
}
