// Package reconciliation contains the payment reconciliation use cases:
// the matching strategy chain, the allocation ledger and match recorder,
// and the suggestion, confirmation and reversal entry points.
package reconciliation

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// PendingAllocation is an allocation the ledger has accepted but the
// recorder has not yet persisted.
type PendingAllocation struct {
	InvoiceID  uuid.UUID
	ReceiptID  uuid.UUID
	Amount     decimal.Decimal
	Confidence float64
	Strategy   entity.MatchStrategy
	Note       string // operator note, manual strategy only
}

type ledgerInvoice struct {
	invoice   *entity.Invoice
	remaining decimal.Decimal
}

type ledgerReceipt struct {
	receipt   *entity.Receipt
	remaining decimal.Decimal
}

// AllocationLedger tracks the remaining balance of every invoice and
// receipt in one reconciliation pass (or one customer partition of it).
// It is seeded from persisted allocated amounts at pass start, mutated only
// through Accept, and discarded once the match recorder has flushed its
// pending allocations. It holds no identity beyond a single pass and is
// never shared between partitions.
type AllocationLedger struct {
	invoices map[uuid.UUID]*ledgerInvoice
	receipts map[uuid.UUID]*ledgerReceipt
	pending  []PendingAllocation
	epsilon  decimal.Decimal
}

// NewAllocationLedger seeds a ledger from the unsettled pools.
func NewAllocationLedger(invoices []*entity.Invoice, receipts []*entity.Receipt, epsilon decimal.Decimal) *AllocationLedger {
	l := &AllocationLedger{
		invoices: make(map[uuid.UUID]*ledgerInvoice, len(invoices)),
		receipts: make(map[uuid.UUID]*ledgerReceipt, len(receipts)),
		epsilon:  epsilon,
	}
	for _, inv := range invoices {
		l.invoices[inv.ID] = &ledgerInvoice{invoice: inv, remaining: inv.Remaining()}
	}
	for _, rcp := range receipts {
		l.receipts[rcp.ID] = &ledgerReceipt{receipt: rcp, remaining: rcp.Remaining()}
	}
	return l
}

// Accept allocates min(remaining(invoice), remaining(receipt)) to the pair
// and returns the amount actually allocated. A candidate whose allocatable
// amount is no longer positive is rejected silently: it was settled by an
// earlier, higher-priority strategy and is simply stale.
func (l *AllocationLedger) Accept(invoiceID, receiptID uuid.UUID, confidence float64, strategy entity.MatchStrategy) (decimal.Decimal, bool) {
	return l.AcceptAmount(invoiceID, receiptID, decimal.Decimal{}, confidence, strategy)
}

// AcceptAmount is Accept with an explicit cap on the allocated amount, used
// by the manual confirmation path where the operator names the amount. A
// zero cap means "as much as both balances allow".
func (l *AllocationLedger) AcceptAmount(invoiceID, receiptID uuid.UUID, cap decimal.Decimal, confidence float64, strategy entity.MatchStrategy) (decimal.Decimal, bool) {
	inv, ok := l.invoices[invoiceID]
	if !ok {
		return decimal.Zero, false
	}
	rcp, ok := l.receipts[receiptID]
	if !ok {
		return decimal.Zero, false
	}

	amount := decimal.Min(inv.remaining, rcp.remaining)
	if cap.IsPositive() && cap.LessThan(amount) {
		amount = cap
	}
	if !amount.IsPositive() {
		return decimal.Zero, false
	}

	inv.remaining = inv.remaining.Sub(amount)
	rcp.remaining = rcp.remaining.Sub(amount)
	l.pending = append(l.pending, PendingAllocation{
		InvoiceID:  invoiceID,
		ReceiptID:  receiptID,
		Amount:     amount,
		Confidence: confidence,
		Strategy:   strategy,
	})
	return amount, true
}

// RemainingInvoice returns the unallocated balance of an invoice in this pass.
func (l *AllocationLedger) RemainingInvoice(invoiceID uuid.UUID) decimal.Decimal {
	if inv, ok := l.invoices[invoiceID]; ok {
		return inv.remaining
	}
	return decimal.Zero
}

// RemainingReceipt returns the unallocated balance of a receipt in this pass.
func (l *AllocationLedger) RemainingReceipt(receiptID uuid.UUID) decimal.Decimal {
	if rcp, ok := l.receipts[receiptID]; ok {
		return rcp.remaining
	}
	return decimal.Zero
}

// OpenInvoices returns invoices that can still receive allocations, ordered
// by due date ascending (oldest first) and then by number for determinism.
func (l *AllocationLedger) OpenInvoices() []*entity.Invoice {
	result := make([]*entity.Invoice, 0, len(l.invoices))
	for _, li := range l.invoices {
		if li.remaining.GreaterThan(l.epsilon) {
			result = append(result, li.invoice)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DueDate.Equal(result[j].DueDate) {
			return result[i].DueDate.Before(result[j].DueDate)
		}
		return result[i].Number < result[j].Number
	})
	return result
}

// OpenReceipts returns receipts with a positive remaining balance, ordered
// by payment date ascending and then by ID for determinism.
func (l *AllocationLedger) OpenReceipts() []*entity.Receipt {
	result := make([]*entity.Receipt, 0, len(l.receipts))
	for _, lr := range l.receipts {
		if lr.remaining.GreaterThan(l.epsilon) {
			result = append(result, lr.receipt)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].PaymentDate.Equal(result[j].PaymentDate) {
			return result[i].PaymentDate.Before(result[j].PaymentDate)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result
}

// Invoice returns the seeded invoice entity for an ID, or nil.
func (l *AllocationLedger) Invoice(invoiceID uuid.UUID) *entity.Invoice {
	if inv, ok := l.invoices[invoiceID]; ok {
		return inv.invoice
	}
	return nil
}

// Receipt returns the seeded receipt entity for an ID, or nil.
func (l *AllocationLedger) Receipt(receiptID uuid.UUID) *entity.Receipt {
	if rcp, ok := l.receipts[receiptID]; ok {
		return rcp.receipt
	}
	return nil
}

// Invoices returns all seeded invoice entities.
func (l *AllocationLedger) Invoices() []*entity.Invoice {
	result := make([]*entity.Invoice, 0, len(l.invoices))
	for _, li := range l.invoices {
		result = append(result, li.invoice)
	}
	return result
}

// Receipts returns all seeded receipt entities.
func (l *AllocationLedger) Receipts() []*entity.Receipt {
	result := make([]*entity.Receipt, 0, len(l.receipts))
	for _, lr := range l.receipts {
		result = append(result, lr.receipt)
	}
	return result
}

// Pending returns the accepted allocations awaiting persistence, in
// acceptance order.
func (l *AllocationLedger) Pending() []PendingAllocation {
	return l.pending
}
