// Package discrepancy contains discrepancy detection and review use cases.
package discrepancy

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// PassState is the post-flush view of one customer partition that the
// detector scans: final invoice and receipt states plus, per receipt, the
// invoice that received its largest allocation in the pass.
type PassState struct {
	Invoices          []*entity.Invoice
	Receipts          []*entity.Receipt
	ReceiptTopInvoice map[uuid.UUID]uuid.UUID
}

// Detector compares allocated against expected amounts after the strategy
// chain and recorder complete, emitting over/underpayment records. It is
// advisory only: it never mutates invoices, receipts or matches, and
// resolution is an external human workflow.
type Detector struct {
	discrepancies adapter.DiscrepancyRepository
	cfg           valueobject.MatchingConfig
}

// NewDetector creates a new Detector instance.
func NewDetector(discrepancies adapter.DiscrepancyRepository, cfg valueobject.MatchingConfig) *Detector {
	return &Detector{
		discrepancies: discrepancies,
		cfg:           cfg,
	}
}

// Detect scans one partition's pass state. Re-detection of a mismatch that
// already has an unresolved discrepancy row is a no-op, so re-running a
// pass over an unchanged range does not duplicate records.
func (d *Detector) Detect(ctx context.Context, state PassState) ([]*entity.Discrepancy, error) {
	var detected []*entity.Discrepancy

	openReceiptBalance := decimal.Zero
	for _, receipt := range state.Receipts {
		openReceiptBalance = openReceiptBalance.Add(receipt.Remaining())
	}
	invoicesExhausted := true
	for _, invoice := range state.Invoices {
		if invoice.Remaining().GreaterThan(d.cfg.AmountEpsilon) {
			invoicesExhausted = false
			break
		}
	}

	for _, invoice := range state.Invoices {
		// Overpayment: allocation exceeds the invoice net amount.
		if invoice.AllocatedAmount.GreaterThan(invoice.NetAmount.Add(d.cfg.AmountEpsilon)) {
			created, err := d.create(ctx, invoice.ID, invoice.NetAmount, invoice.AllocatedAmount)
			if err != nil {
				return detected, err
			}
			if created != nil {
				detected = append(detected, created)
			}
			continue
		}

		// Underpayment: the invoice is settled short and the customer has
		// no open receipts left that any strategy could still attribute.
		underAllocated := invoice.AllocatedAmount.LessThan(invoice.NetAmount.Sub(d.cfg.AmountEpsilon))
		settledStatus := invoice.Status == entity.InvoiceStatusMatched || invoice.Status == entity.InvoiceStatusPartiallyMatched
		if underAllocated && settledStatus && openReceiptBalance.LessThanOrEqual(d.cfg.AmountEpsilon) {
			created, err := d.create(ctx, invoice.ID, invoice.NetAmount, invoice.AllocatedAmount)
			if err != nil {
				return detected, err
			}
			if created != nil {
				detected = append(detected, created)
			}
		}
	}

	// Receipt residue: a receipt that could not be fully placed because the
	// customer's invoices are exhausted is a potential overpayment on the
	// invoice it mostly settled.
	if invoicesExhausted {
		for _, receipt := range state.Receipts {
			residual := receipt.Remaining()
			if residual.LessThanOrEqual(d.cfg.AmountEpsilon) {
				continue
			}
			invoiceID, ok := state.ReceiptTopInvoice[receipt.ID]
			if !ok {
				// Receipt never allocated in this pass: unmatched money is a
				// normal business outcome, not a discrepancy.
				continue
			}
			var invoice *entity.Invoice
			for _, candidate := range state.Invoices {
				if candidate.ID == invoiceID {
					invoice = candidate
					break
				}
			}
			if invoice == nil {
				continue
			}
			created, err := d.create(ctx, invoice.ID, invoice.NetAmount, invoice.AllocatedAmount.Add(residual))
			if err != nil {
				return detected, err
			}
			if created != nil {
				detected = append(detected, created)
			}
		}
	}

	return detected, nil
}

// Outstanding counts the unresolved discrepancies attached to the given
// invoices. The pass summary reports this instead of the pass's own
// detections so a re-run over an unchanged range reads the same.
func (d *Detector) Outstanding(ctx context.Context, invoices []*entity.Invoice) (int, error) {
	ids := make([]uuid.UUID, len(invoices))
	for i, invoice := range invoices {
		ids[i] = invoice.ID
	}
	return d.discrepancies.CountUnresolved(ctx, ids)
}

func (d *Detector) create(ctx context.Context, invoiceID uuid.UUID, expected, received decimal.Decimal) (*entity.Discrepancy, error) {
	discrepancy := entity.NewDiscrepancy(invoiceID, expected, received)

	existing, err := d.discrepancies.FindUnresolved(ctx, invoiceID, discrepancy.Type)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	if err := d.discrepancies.Create(ctx, discrepancy); err != nil {
		return nil, err
	}
	return discrepancy, nil
}
