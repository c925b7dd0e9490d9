package reconciliation

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// SuggestMatchesInput represents the input for the suggestion lookup.
type SuggestMatchesInput struct {
	ReceiptID uuid.UUID
}

// SuggestMatchesOutput represents the ranked candidates for one receipt.
type SuggestMatchesOutput struct {
	ReceiptID    uuid.UUID
	CustomerID   uuid.UUID
	CustomerName string
	Suggestions  []valueobject.Suggestion
}

// SuggestMatchesUseCase is the manual-reconciliation side channel: it runs
// the fuzzy scoring against a single receipt's customer invoices and
// returns every candidate ranked, including those below the acceptance
// threshold. It is strictly read-only and never touches the allocation
// ledger or the match recorder, so it can run at arbitrary concurrency
// alongside an active pass.
type SuggestMatchesUseCase struct {
	store     adapter.LedgerStore
	directory adapter.CustomerDirectory
	cfg       valueobject.MatchingConfig
}

// NewSuggestMatchesUseCase creates a new SuggestMatchesUseCase instance.
func NewSuggestMatchesUseCase(store adapter.LedgerStore, directory adapter.CustomerDirectory, cfg valueobject.MatchingConfig) *SuggestMatchesUseCase {
	return &SuggestMatchesUseCase{
		store:     store,
		directory: directory,
		cfg:       cfg,
	}
}

// Execute returns ranked suggestions for the receipt.
func (uc *SuggestMatchesUseCase) Execute(ctx context.Context, input SuggestMatchesInput) (*SuggestMatchesOutput, error) {
	receipt, err := uc.store.GetReceipt(ctx, input.ReceiptID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeReceiptNotFound,
			"receipt not found",
			domainerror.ErrReceiptNotFound,
		)
	}

	output := &SuggestMatchesOutput{
		ReceiptID:  receipt.ID,
		CustomerID: receipt.CustomerID,
	}
	if customer, lookupErr := uc.directory.Lookup(ctx, receipt.CustomerID); lookupErr == nil && customer != nil {
		output.CustomerName = customer.Name
	}

	// A fully allocated receipt has nothing left to place.
	if !receipt.Remaining().GreaterThan(uc.cfg.AmountEpsilon) {
		return output, nil
	}

	invoices, err := uc.store.LoadOpenInvoicesByCustomer(ctx, receipt.CustomerID)
	if err != nil {
		return nil, err
	}

	for _, invoice := range invoices {
		features := pairFeatures(invoice, receipt, uc.cfg)
		score := valueobject.Score(entity.StrategyFuzzy, features, uc.cfg)
		output.Suggestions = append(output.Suggestions, valueobject.Suggestion{
			InvoiceID:       invoice.ID,
			InvoiceNumber:   invoice.Number,
			InvoiceAmount:   invoice.NetAmount,
			RemainingAmount: invoice.Remaining(),
			Confidence:      score,
			BelowThreshold:  score < uc.cfg.AcceptanceThreshold,
			MatchReason:     valueobject.FuzzyReasons(features, uc.cfg),
		})
	}

	sort.SliceStable(output.Suggestions, func(i, j int) bool {
		if output.Suggestions[i].Confidence != output.Suggestions[j].Confidence {
			return output.Suggestions[i].Confidence > output.Suggestions[j].Confidence
		}
		return output.Suggestions[i].InvoiceNumber < output.Suggestions[j].InvoiceNumber
	})

	return output, nil
}
