package reconciliation

import (
	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// exactAmountStrategy matches a receipt to an invoice of the same customer
// whose net amount equals the receipt amount within epsilon.
type exactAmountStrategy struct {
	cfg valueobject.MatchingConfig
}

func (s *exactAmountStrategy) Name() entity.MatchStrategy {
	return entity.StrategyExactAmount
}

func (s *exactAmountStrategy) Propose(ledger *AllocationLedger) []valueobject.MatchCandidate {
	var candidates []valueobject.MatchCandidate
	invoices := ledger.OpenInvoices()

	for _, receipt := range ledger.OpenReceipts() {
		for _, invoice := range invoices {
			if invoice.CustomerID != receipt.CustomerID {
				continue
			}
			if !s.cfg.AmountsEqual(receipt.Amount, invoice.NetAmount) {
				continue
			}
			features := valueobject.MatchFeatures{SameCustomer: true, AmountEqual: true}
			candidates = append(candidates, valueobject.MatchCandidate{
				InvoiceID:      invoice.ID,
				ReceiptID:      receipt.ID,
				Confidence:     valueobject.Score(entity.StrategyExactAmount, features, s.cfg),
				Strategy:       entity.StrategyExactAmount,
				InvoiceDueDate: invoice.DueDate,
				InvoiceNumber:  invoice.Number,
			})
		}
	}
	return candidates
}
