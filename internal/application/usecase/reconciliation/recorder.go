package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// RecorderResult is the durable outcome of flushing one ledger.
type RecorderResult struct {
	Matches   []*entity.Match
	Conflicts []valueobject.ReconciliationConflict

	// Invoices and Receipts carry the post-flush state of every record the
	// recorder touched, keyed by ID. The discrepancy detector consumes these.
	Invoices map[uuid.UUID]*entity.Invoice
	Receipts map[uuid.UUID]*entity.Receipt
}

// MatchRecorder is the single writer of a reconciliation pass. It persists
// accepted allocations as append-only Match rows and applies the paired
// invoice/receipt updates conditionally on the versions read at pass start.
// A version conflict means another writer advanced the record concurrently;
// the candidate is then recomputed against fresh state up to the configured
// retry limit before it is escalated as a ReconciliationConflict.
type MatchRecorder struct {
	store adapter.LedgerStore
	cfg   valueobject.MatchingConfig

	// local view of record state, advanced as writes succeed so that
	// several allocations against the same record within one flush do not
	// trip over each other's version bumps
	invoices map[uuid.UUID]*entity.Invoice
	receipts map[uuid.UUID]*entity.Receipt
}

// NewMatchRecorder creates a recorder for one flush. Recorders are
// single-use, like the ledger they flush.
func NewMatchRecorder(store adapter.LedgerStore, cfg valueobject.MatchingConfig) *MatchRecorder {
	return &MatchRecorder{
		store:    store,
		cfg:      cfg,
		invoices: make(map[uuid.UUID]*entity.Invoice),
		receipts: make(map[uuid.UUID]*entity.Receipt),
	}
}

// Flush persists every pending allocation of the ledger. Each match commit
// is independently durable: a context cancellation mid-flush leaves the
// already-written matches valid and the pass resumable.
func (r *MatchRecorder) Flush(ctx context.Context, ledger *AllocationLedger) (*RecorderResult, error) {
	result := &RecorderResult{
		Invoices: r.invoices,
		Receipts: r.receipts,
	}

	for _, pending := range ledger.Pending() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		invoice := r.invoiceState(ledger.Invoice(pending.InvoiceID))
		receipt := r.receiptState(ledger.Receipt(pending.ReceiptID))
		if invoice == nil || receipt == nil {
			// Ledger invariant violation rather than a business outcome.
			return result, fmt.Errorf("pending allocation references unknown record (invoice %s, receipt %s)", pending.InvoiceID, pending.ReceiptID)
		}

		match, conflict, err := r.record(ctx, pending, invoice, receipt)
		if err != nil {
			return result, err
		}
		if conflict != nil {
			result.Conflicts = append(result.Conflicts, *conflict)
			continue
		}
		if match != nil {
			result.Matches = append(result.Matches, match)
		}
	}

	return result, nil
}

// Record persists a single allocation outside a chain pass. Used by the
// manual confirmation and reversal paths, which re-enter the same
// conditional-write discipline.
func (r *MatchRecorder) Record(ctx context.Context, pending PendingAllocation, invoice *entity.Invoice, receipt *entity.Receipt) (*entity.Match, *valueobject.ReconciliationConflict, error) {
	return r.record(ctx, pending, r.invoiceState(invoice), r.receiptState(receipt))
}

// RecordReversal persists a prepared reversal row with the same
// version-conditional semantics as a forward allocation.
func (r *MatchRecorder) RecordReversal(ctx context.Context, reversal *entity.Match, invoice *entity.Invoice, receipt *entity.Receipt) error {
	adjusted := reversal.MatchedAmount // negative
	newInvoiceAllocated := maxZero(invoice.AllocatedAmount.Add(adjusted))
	newReceiptAllocated := maxZero(receipt.AllocatedAmount.Add(adjusted))

	err := r.store.RecordMatch(ctx, reversal,
		adapter.InvoiceAllocationUpdate{
			InvoiceID:       invoice.ID,
			ExpectedVersion: invoice.Version,
			AllocatedAmount: newInvoiceAllocated,
			Status:          invoice.StatusForAllocated(newInvoiceAllocated, r.cfg.AmountEpsilon),
		},
		adapter.ReceiptAllocationUpdate{
			ReceiptID:       receipt.ID,
			ExpectedVersion: receipt.Version,
			AllocatedAmount: newReceiptAllocated,
			Status:          receipt.StatusForAllocated(newReceiptAllocated, r.cfg.AmountEpsilon),
		},
	)
	return err
}

func (r *MatchRecorder) record(ctx context.Context, pending PendingAllocation, invoice *entity.Invoice, receipt *entity.Receipt) (*entity.Match, *valueobject.ReconciliationConflict, error) {
	amount := pending.Amount

	for attempt := 0; attempt <= r.cfg.ConflictRetryLimit; attempt++ {
		// Recompute against current state: concurrent writers may have
		// shrunk either balance since the candidate was scored.
		allocatable := decimal.Min(invoice.Remaining(), receipt.Remaining())
		if amount.GreaterThan(allocatable) {
			amount = allocatable
		}
		if !amount.IsPositive() {
			// Fully settled elsewhere in the meantime: the candidate is
			// stale, not in conflict.
			return nil, nil, nil
		}

		newInvoiceAllocated := invoice.AllocatedAmount.Add(amount)
		newReceiptAllocated := receipt.AllocatedAmount.Add(amount)

		match := entity.NewMatch(pending.InvoiceID, pending.ReceiptID, amount, pending.Confidence, pending.Strategy)
		match.Note = pending.Note
		err := r.store.RecordMatch(ctx, match,
			adapter.InvoiceAllocationUpdate{
				InvoiceID:       invoice.ID,
				ExpectedVersion: invoice.Version,
				AllocatedAmount: newInvoiceAllocated,
				Status:          invoice.StatusForAllocated(newInvoiceAllocated, r.cfg.AmountEpsilon),
			},
			adapter.ReceiptAllocationUpdate{
				ReceiptID:       receipt.ID,
				ExpectedVersion: receipt.Version,
				AllocatedAmount: newReceiptAllocated,
				Status:          receipt.StatusForAllocated(newReceiptAllocated, r.cfg.AmountEpsilon),
			},
		)
		if err == nil {
			invoice.AllocatedAmount = newInvoiceAllocated
			invoice.Status = invoice.StatusForAllocated(newInvoiceAllocated, r.cfg.AmountEpsilon)
			invoice.Version++
			receipt.AllocatedAmount = newReceiptAllocated
			receipt.Status = receipt.StatusForAllocated(newReceiptAllocated, r.cfg.AmountEpsilon)
			receipt.Version++
			return match, nil, nil
		}
		if !errors.Is(err, domainerror.ErrVersionConflict) {
			return nil, nil, err
		}

		// Lost the version race: reload both records and retry.
		fresh, reloadErr := r.reload(ctx, invoice.ID, receipt.ID)
		if reloadErr != nil {
			return nil, nil, reloadErr
		}
		invoice, receipt = fresh.invoice, fresh.receipt
	}

	return nil, &valueobject.ReconciliationConflict{
		InvoiceID: pending.InvoiceID,
		ReceiptID: pending.ReceiptID,
		Strategy:  pending.Strategy,
		Reason:    fmt.Sprintf("version conflict persisted after %d retries", r.cfg.ConflictRetryLimit),
	}, nil
}

type freshPair struct {
	invoice *entity.Invoice
	receipt *entity.Receipt
}

func (r *MatchRecorder) reload(ctx context.Context, invoiceID, receiptID uuid.UUID) (*freshPair, error) {
	invoice, err := r.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	receipt, err := r.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	r.invoices[invoiceID] = invoice
	r.receipts[receiptID] = receipt
	return &freshPair{invoice: invoice, receipt: receipt}, nil
}

// invoiceState returns the recorder's working copy of an invoice, creating
// it from the seed entity on first touch.
func (r *MatchRecorder) invoiceState(seed *entity.Invoice) *entity.Invoice {
	if seed == nil {
		return nil
	}
	if state, ok := r.invoices[seed.ID]; ok {
		return state
	}
	copied := *seed
	r.invoices[seed.ID] = &copied
	return &copied
}

func (r *MatchRecorder) receiptState(seed *entity.Receipt) *entity.Receipt {
	if seed == nil {
		return nil
	}
	if state, ok := r.receipts[seed.ID]; ok {
		return state
	}
	copied := *seed
	r.receipts[seed.ID] = &copied
	return &copied
}

func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
