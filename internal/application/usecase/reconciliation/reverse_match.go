package reconciliation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// ReverseMatchInput represents the input for reversing a recorded match.
type ReverseMatchInput struct {
	MatchID uuid.UUID
	Reason  string
}

// ReverseMatchUseCase undoes a match without editing it: a new
// negative-adjustment row referencing the original is appended and the
// invoice/receipt balances are restored under the same optimistic-version
// discipline as any other write. The original row stays untouched, so the
// audit trail records both the mistake and its correction.
type ReverseMatchUseCase struct {
	store adapter.LedgerStore
	cfg   valueobject.MatchingConfig
}

// NewReverseMatchUseCase creates a new ReverseMatchUseCase instance.
func NewReverseMatchUseCase(store adapter.LedgerStore, cfg valueobject.MatchingConfig) *ReverseMatchUseCase {
	return &ReverseMatchUseCase{store: store, cfg: cfg}
}

// Execute records the reversal row and returns it.
func (uc *ReverseMatchUseCase) Execute(ctx context.Context, input ReverseMatchInput) (*entity.Match, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeMissingResolutionNote,
			"reversal requires a reason",
			nil,
		)
	}

	original, err := uc.store.GetMatch(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeMatchNotFound,
			"match not found",
			domainerror.ErrMatchNotFound,
		)
	}
	if original.IsReversal() {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeReversalNotReversible,
			"cannot reverse a reversal row",
			domainerror.ErrReversalNotReversible,
		)
	}

	reversed, err := uc.store.HasReversal(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	if reversed {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeMatchAlreadyReversed,
			"match already reversed",
			domainerror.ErrMatchAlreadyReversed,
		)
	}

	reversal := entity.NewReversal(original, input.Reason)

	recorder := NewMatchRecorder(uc.store, uc.cfg)
	for attempt := 0; ; attempt++ {
		invoice, err := uc.store.GetInvoice(ctx, original.InvoiceID)
		if err != nil {
			return nil, err
		}
		receipt, err := uc.store.GetReceipt(ctx, original.ReceiptID)
		if err != nil {
			return nil, err
		}
		if invoice == nil || receipt == nil {
			return nil, domainerror.NewReconciliationError(
				domainerror.ErrCodeMatchNotFound,
				"matched records no longer exist",
				domainerror.ErrMatchNotFound,
			)
		}

		err = recorder.RecordReversal(ctx, reversal, invoice, receipt)
		if err == nil {
			return reversal, nil
		}
		if !errors.Is(err, domainerror.ErrVersionConflict) {
			return nil, err
		}
		if attempt >= uc.cfg.ConflictRetryLimit {
			return nil, domainerror.NewReconciliationError(
				domainerror.ErrCodeVersionConflict,
				"record changed concurrently, retry the reversal",
				domainerror.ErrVersionConflict,
			)
		}
	}
}
