package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptStatus represents the allocation state of a receipt.
type ReceiptStatus string

const (
	ReceiptStatusUnmatched          ReceiptStatus = "unmatched"
	ReceiptStatusPartiallyAllocated ReceiptStatus = "partially_allocated"
	ReceiptStatusFullyAllocated     ReceiptStatus = "fully_allocated"
)

// PaymentMethod represents how a receipt was paid.
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheque       PaymentMethod = "cheque"
)

// Receipt represents a recorded incoming customer payment awaiting
// reconciliation against one or more invoices.
type Receipt struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	PaymentDate     time.Time
	Amount          decimal.Decimal
	Method          PaymentMethod
	RawMemoText     string
	AllocatedAmount decimal.Decimal
	Status          ReceiptStatus
	Version         int64 // optimistic concurrency counter
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Remaining returns the unallocated balance of the receipt.
func (r *Receipt) Remaining() decimal.Decimal {
	return r.Amount.Sub(r.AllocatedAmount)
}

// StatusForAllocated derives the allocation status for a given allocated
// amount. Amounts within epsilon of the receipt amount count as fully
// allocated.
func (r *Receipt) StatusForAllocated(allocated, epsilon decimal.Decimal) ReceiptStatus {
	if allocated.GreaterThanOrEqual(r.Amount.Sub(epsilon)) {
		return ReceiptStatusFullyAllocated
	}
	if allocated.IsPositive() {
		return ReceiptStatusPartiallyAllocated
	}
	return ReceiptStatusUnmatched
}
