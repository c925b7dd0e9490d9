package reconciliation

import (
	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// fuzzyStrategy scores same-customer pairs on a weighted combination of
// amount proximity and payment-date proximity. Restricting candidate
// generation to a single customer keeps the pass cheap and avoids
// cross-customer false positives. Only candidates at or above the
// acceptance threshold are proposed for commit; the suggestion engine
// reuses the same scoring without the threshold cut.
type fuzzyStrategy struct {
	cfg valueobject.MatchingConfig
}

func (s *fuzzyStrategy) Name() entity.MatchStrategy {
	return entity.StrategyFuzzy
}

func (s *fuzzyStrategy) Propose(ledger *AllocationLedger) []valueobject.MatchCandidate {
	// Index open invoices per customer once.
	byCustomer := make(map[uuid.UUID][]*entity.Invoice)
	for _, invoice := range ledger.OpenInvoices() {
		byCustomer[invoice.CustomerID] = append(byCustomer[invoice.CustomerID], invoice)
	}

	var candidates []valueobject.MatchCandidate
	for _, receipt := range ledger.OpenReceipts() {
		for _, invoice := range byCustomer[receipt.CustomerID] {
			features := pairFeatures(invoice, receipt, s.cfg)
			score := valueobject.Score(entity.StrategyFuzzy, features, s.cfg)
			if score < s.cfg.AcceptanceThreshold {
				continue
			}
			candidates = append(candidates, valueobject.MatchCandidate{
				InvoiceID:      invoice.ID,
				ReceiptID:      receipt.ID,
				Confidence:     score,
				Strategy:       entity.StrategyFuzzy,
				InvoiceDueDate: invoice.DueDate,
				InvoiceNumber:  invoice.Number,
			})
		}
	}
	return candidates
}
