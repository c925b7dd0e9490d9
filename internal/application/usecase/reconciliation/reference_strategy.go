package reconciliation

import (
	"strings"

	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// referenceStrategy matches receipts whose memo text contains an invoice
// number. A textual reference is the strongest signal available, so every
// candidate carries confidence 1.0 with no partial credit.
type referenceStrategy struct {
	cfg valueobject.MatchingConfig
}

func (s *referenceStrategy) Name() entity.MatchStrategy {
	return entity.StrategyReference
}

// Propose scans every unsettled pair in the ledger's pool. The memo is
// authoritative: no customer or amount restriction applies here.
func (s *referenceStrategy) Propose(ledger *AllocationLedger) []valueobject.MatchCandidate {
	var candidates []valueobject.MatchCandidate
	invoices := ledger.OpenInvoices()

	for _, receipt := range ledger.OpenReceipts() {
		if strings.TrimSpace(receipt.RawMemoText) == "" {
			continue
		}
		for _, invoice := range invoices {
			if !memoReferences(receipt.RawMemoText, invoice.Number) {
				continue
			}
			features := valueobject.MatchFeatures{ReferenceInMemo: true}
			candidates = append(candidates, valueobject.MatchCandidate{
				InvoiceID:      invoice.ID,
				ReceiptID:      receipt.ID,
				Confidence:     valueobject.Score(entity.StrategyReference, features, s.cfg),
				Strategy:       entity.StrategyReference,
				InvoiceDueDate: invoice.DueDate,
				InvoiceNumber:  invoice.Number,
			})
		}
	}
	return candidates
}

// memoReferences reports whether the memo mentions the invoice number.
// Matching is case-insensitive; invoice numbers are unique and long enough
// that substring containment does not produce collisions.
func memoReferences(memo, invoiceNumber string) bool {
	if invoiceNumber == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(memo), strings.ToUpper(invoiceNumber))
}
