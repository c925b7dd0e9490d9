package reconciliation

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// matchStrategy proposes candidate (invoice, receipt) pairs against the
// current ledger state. Strategies never allocate; acceptance goes through
// the ledger so that balances shrink consistently.
type matchStrategy interface {
	Name() entity.MatchStrategy
	Propose(ledger *AllocationLedger) []valueobject.MatchCandidate
}

// StrategyChain runs the matching strategies in fixed priority order:
// reference, then exact amount, then fuzzy. Each strategy operates on the
// pool the previous ones left unsettled.
type StrategyChain struct {
	strategies []matchStrategy
}

// NewStrategyChain builds the chain, optionally restricted to a subset of
// strategies. An empty subset means the full chain; priority order is fixed
// regardless of subset order.
func NewStrategyChain(cfg valueobject.MatchingConfig, subset []entity.MatchStrategy) (*StrategyChain, error) {
	all := []matchStrategy{
		&referenceStrategy{cfg: cfg},
		&exactAmountStrategy{cfg: cfg},
		&fuzzyStrategy{cfg: cfg},
	}

	if len(subset) == 0 {
		return &StrategyChain{strategies: all}, nil
	}

	wanted := make(map[entity.MatchStrategy]bool, len(subset))
	for _, s := range subset {
		switch s {
		case entity.StrategyReference, entity.StrategyExactAmount, entity.StrategyFuzzy:
			wanted[s] = true
		default:
			return nil, domainerror.NewReconciliationError(
				domainerror.ErrCodeUnknownStrategy,
				"unknown matching strategy: "+string(s),
				domainerror.ErrUnknownStrategy,
			)
		}
	}

	chain := make([]matchStrategy, 0, len(wanted))
	for _, s := range all {
		if wanted[s.Name()] {
			chain = append(chain, s)
		}
	}
	return &StrategyChain{strategies: chain}, nil
}

// Run executes the chain against the ledger. Candidates are sorted by
// confidence descending, then by allocatable amount descending so larger
// settlements win ties and fragmentation stays low, then by due date
// ascending so receipt splits favor the oldest invoice. Acceptance is
// greedy: an item that becomes fully allocated drops out of contention for
// later candidates automatically because the ledger rejects them as stale.
func (sc *StrategyChain) Run(ledger *AllocationLedger) {
	for _, strategy := range sc.strategies {
		candidates := strategy.Propose(ledger)
		sortCandidates(candidates, ledger)
		for _, c := range candidates {
			ledger.Accept(c.InvoiceID, c.ReceiptID, c.Confidence, c.Strategy)
		}
	}
}

func sortCandidates(candidates []valueobject.MatchCandidate, ledger *AllocationLedger) {
	allocatable := func(c valueobject.MatchCandidate) decimal.Decimal {
		return decimal.Min(ledger.RemainingInvoice(c.InvoiceID), ledger.RemainingReceipt(c.ReceiptID))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		ai, aj := allocatable(candidates[i]), allocatable(candidates[j])
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		if !candidates[i].InvoiceDueDate.Equal(candidates[j].InvoiceDueDate) {
			return candidates[i].InvoiceDueDate.Before(candidates[j].InvoiceDueDate)
		}
		return candidates[i].InvoiceNumber < candidates[j].InvoiceNumber
	})
}

// daysBetween returns the absolute whole-day distance between two dates.
func daysBetween(a, b time.Time) int {
	hours := a.Sub(b).Hours()
	return int(math.Abs(hours) / 24)
}

// pairFeatures computes the scorer feature set for an (invoice, receipt)
// pair. Reference detection is left to the reference strategy; here the
// memo check is a plain substring containment on the invoice number.
func pairFeatures(invoice *entity.Invoice, receipt *entity.Receipt, cfg valueobject.MatchingConfig) valueobject.MatchFeatures {
	return valueobject.MatchFeatures{
		SameCustomer:      invoice.CustomerID == receipt.CustomerID,
		ReferenceInMemo:   memoReferences(receipt.RawMemoText, invoice.Number),
		AmountEqual:       cfg.AmountsEqual(receipt.Amount, invoice.NetAmount),
		AmountWithin10Pct: cfg.AmountsWithinTolerance(receipt.Amount, invoice.NetAmount),
		DaysFromDueDate:   daysBetween(receipt.PaymentDate, invoice.DueDate),
	}
}
