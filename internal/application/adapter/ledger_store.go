// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// InvoiceAllocationUpdate describes a conditional write to an invoice's
// settlement state. The write only succeeds if the persisted version still
// equals ExpectedVersion.
type InvoiceAllocationUpdate struct {
	InvoiceID       uuid.UUID
	ExpectedVersion int64
	AllocatedAmount decimal.Decimal
	Status          entity.InvoiceStatus
}

// ReceiptAllocationUpdate describes a conditional write to a receipt's
// allocation state, with the same optimistic-version semantics.
type ReceiptAllocationUpdate struct {
	ReceiptID       uuid.UUID
	ExpectedVersion int64
	AllocatedAmount decimal.Decimal
	Status          entity.ReceiptStatus
}

// LedgerStore defines the persistence interface for invoices, receipts and
// matches. Invoice and receipt CRUD belongs to external systems; this
// service reads unsettled pools and writes allocations.
type LedgerStore interface {
	// LoadUnsettledInvoices returns invoices in the range whose status is
	// open, partially_matched or overdue.
	LoadUnsettledInvoices(ctx context.Context, r valueobject.DateRange) ([]*entity.Invoice, error)

	// LoadUnsettledReceipts returns receipts in the range whose status is
	// unmatched or partially_allocated.
	LoadUnsettledReceipts(ctx context.Context, r valueobject.DateRange) ([]*entity.Receipt, error)

	// LoadInvoices returns every invoice issued within the range regardless
	// of status. Used to summarize a range after a pass.
	LoadInvoices(ctx context.Context, r valueobject.DateRange) ([]*entity.Invoice, error)

	// LoadReceipts returns every receipt paid within the range regardless
	// of status.
	LoadReceipts(ctx context.Context, r valueobject.DateRange) ([]*entity.Receipt, error)

	// LoadOpenInvoicesByCustomer returns a customer's settleable invoices,
	// ordered by due date ascending. Used by the suggestion engine.
	LoadOpenInvoicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Invoice, error)

	// LoadOpenInvoices returns every settleable invoice regardless of range.
	// Used by the AR aging recompute.
	LoadOpenInvoices(ctx context.Context) ([]*entity.Invoice, error)

	// GetInvoice retrieves an invoice by ID.
	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*entity.Invoice, error)

	// GetReceipt retrieves a receipt by ID.
	GetReceipt(ctx context.Context, receiptID uuid.UUID) (*entity.Receipt, error)

	// GetMatch retrieves a match by ID.
	GetMatch(ctx context.Context, matchID uuid.UUID) (*entity.Match, error)

	// HasReversal reports whether a reversal row already references the match.
	HasReversal(ctx context.Context, matchID uuid.UUID) (bool, error)

	// ListMatches returns matches whose receipt was paid within the range,
	// reversal rows included.
	ListMatches(ctx context.Context, r valueobject.DateRange) ([]*entity.Match, error)

	// RecordMatch durably writes a match row and applies both allocation
	// updates in a single transaction. Returns ErrVersionConflict (wrapped)
	// if either record's version moved since it was read.
	RecordMatch(
		ctx context.Context,
		match *entity.Match,
		invoice InvoiceAllocationUpdate,
		receipt ReceiptAllocationUpdate,
	) error
}
