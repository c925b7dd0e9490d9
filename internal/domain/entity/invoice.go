// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the settlement state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusOpen             InvoiceStatus = "open"
	InvoiceStatusPartiallyMatched InvoiceStatus = "partially_matched"
	InvoiceStatusMatched          InvoiceStatus = "matched"
	InvoiceStatusOverdue          InvoiceStatus = "overdue"
	InvoiceStatusCancelled        InvoiceStatus = "cancelled"
)

// Invoice represents a billable obligation owed by a customer.
// Invoices are created by the invoicing system; this service only mutates
// AllocatedAmount, Status and Version through the match recorder.
type Invoice struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	Number          string // human-readable reference, e.g. "INV-2025-000123"
	IssueDate       time.Time
	DueDate         time.Time
	NetAmount       decimal.Decimal
	AllocatedAmount decimal.Decimal
	Status          InvoiceStatus
	Version         int64 // optimistic concurrency counter
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Remaining returns the unallocated balance of the invoice.
func (i *Invoice) Remaining() decimal.Decimal {
	return i.NetAmount.Sub(i.AllocatedAmount)
}

// IsSettleable reports whether the invoice can still receive allocations.
func (i *Invoice) IsSettleable() bool {
	switch i.Status {
	case InvoiceStatusOpen, InvoiceStatusPartiallyMatched, InvoiceStatusOverdue:
		return true
	}
	return false
}

// StatusForAllocated derives the settlement status for a given allocated
// amount. Amounts within epsilon of the net amount count as fully matched.
func (i *Invoice) StatusForAllocated(allocated, epsilon decimal.Decimal) InvoiceStatus {
	if allocated.GreaterThanOrEqual(i.NetAmount.Sub(epsilon)) {
		return InvoiceStatusMatched
	}
	if allocated.IsPositive() {
		return InvoiceStatusPartiallyMatched
	}
	if i.Status == InvoiceStatusOverdue {
		return InvoiceStatusOverdue
	}
	return InvoiceStatusOpen
}
