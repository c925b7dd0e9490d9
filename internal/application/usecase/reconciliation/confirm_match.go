package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// ConfirmMatchInput represents an operator committing a suggestion.
type ConfirmMatchInput struct {
	InvoiceID uuid.UUID
	ReceiptID uuid.UUID
	Amount    decimal.Decimal
	Note      string
}

// ConfirmMatchUseCase commits a manual match. It re-enters the same
// allocation ledger and match recorder path the batch pass uses, under the
// manual strategy tag, so every invariant (amount within both remaining
// balances, version-conditional writes, append-only audit trail) holds for
// operator actions too.
type ConfirmMatchUseCase struct {
	store adapter.LedgerStore
	cfg   valueobject.MatchingConfig
}

// NewConfirmMatchUseCase creates a new ConfirmMatchUseCase instance.
func NewConfirmMatchUseCase(store adapter.LedgerStore, cfg valueobject.MatchingConfig) *ConfirmMatchUseCase {
	return &ConfirmMatchUseCase{store: store, cfg: cfg}
}

// Execute validates and commits the manual match, returning the recorded row.
func (uc *ConfirmMatchUseCase) Execute(ctx context.Context, input ConfirmMatchInput) (*entity.Match, error) {
	if !input.Amount.IsPositive() {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeNonPositiveAmount,
			"matched amount must be positive",
			domainerror.ErrNonPositiveAmount,
		)
	}

	invoice, err := uc.store.GetInvoice(ctx, input.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeInvoiceNotFound,
			"invoice not found",
			domainerror.ErrInvoiceNotFound,
		)
	}

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

	if invoice.CustomerID != receipt.CustomerID {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeCustomerMismatch,
			"invoice and receipt belong to different customers",
			domainerror.ErrCustomerMismatch,
		)
	}
	if !invoice.IsSettleable() {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeInvoiceNotSettleable,
			"invoice cannot receive further allocations",
			domainerror.ErrInvoiceNotSettleable,
		)
	}
	if input.Amount.GreaterThan(invoice.Remaining()) || input.Amount.GreaterThan(receipt.Remaining()) {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeAmountExceedsRemaining,
			"amount exceeds remaining balance on invoice or receipt",
			domainerror.ErrAmountExceedsRemaining,
		)
	}

	// Same path a batch pass takes: ledger acceptance, then a
	// version-conditional recorder write.
	ledger := NewAllocationLedger([]*entity.Invoice{invoice}, []*entity.Receipt{receipt}, uc.cfg.AmountEpsilon)
	amount, ok := ledger.AcceptAmount(input.InvoiceID, input.ReceiptID, input.Amount, valueobject.Score(entity.StrategyManual, valueobject.MatchFeatures{}, uc.cfg), entity.StrategyManual)
	if !ok {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeAmountExceedsRemaining,
			"nothing left to allocate on invoice or receipt",
			domainerror.ErrAmountExceedsRemaining,
		)
	}

	recorder := NewMatchRecorder(uc.store, uc.cfg)
	pending := ledger.Pending()[0]
	pending.Amount = amount
	pending.Note = input.Note
	match, conflict, err := recorder.Record(ctx, pending, invoice, receipt)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeVersionConflict,
			"record changed concurrently, retry the confirmation",
			domainerror.ErrVersionConflict,
		)
	}
	if match == nil {
		// Another writer settled the pair between validation and write.
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeAmountExceedsRemaining,
			"nothing left to allocate on invoice or receipt",
			domainerror.ErrAmountExceedsRemaining,
		)
	}

	return match, nil
}
