package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscrepancyType classifies an amount mismatch on a settled or partially
// settled invoice.
type DiscrepancyType string

const (
	DiscrepancyOverpayment  DiscrepancyType = "overpayment"
	DiscrepancyUnderpayment DiscrepancyType = "underpayment"
)

// Discrepancy represents a flagged mismatch between the expected and
// received amount on an invoice. Discrepancies are advisory: they are
// created only by the discrepancy detector, and resolution is an external
// human workflow that sets Resolved with a note.
type Discrepancy struct {
	ID             uuid.UUID
	InvoiceID      uuid.UUID
	ExpectedAmount decimal.Decimal
	ReceivedAmount decimal.Decimal
	Delta          decimal.Decimal // received - expected
	Type           DiscrepancyType
	DetectedAt     time.Time
	Resolved       bool
	ResolutionNote string
}

// NewDiscrepancy creates a Discrepancy for the given invoice amounts.
// The type is derived from the sign of the delta.
func NewDiscrepancy(invoiceID uuid.UUID, expected, received decimal.Decimal) *Discrepancy {
	delta := received.Sub(expected)
	dType := DiscrepancyUnderpayment
	if delta.IsPositive() {
		dType = DiscrepancyOverpayment
	}
	return &Discrepancy{
		ID:             uuid.New(),
		InvoiceID:      invoiceID,
		ExpectedAmount: expected,
		ReceivedAmount: received,
		Delta:          delta,
		Type:           dType,
		DetectedAt:     time.Now().UTC(),
	}
}
