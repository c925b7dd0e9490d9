// Package aging contains the accounts-receivable aging use cases.
package aging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// RecomputeUseCase rebuilds the AR aging read model from scratch. The
// snapshot set is always a full recompute over every non-matched invoice,
// never an incremental mutation, so the read model cannot drift from the
// invoice ledger.
type RecomputeUseCase struct {
	store     adapter.LedgerStore
	agingRepo adapter.AgingRepository
	now       func() time.Time
}

// NewRecomputeUseCase creates a new RecomputeUseCase instance.
func NewRecomputeUseCase(store adapter.LedgerStore, agingRepo adapter.AgingRepository) *RecomputeUseCase {
	return &RecomputeUseCase{
		store:     store,
		agingRepo: agingRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Used by tests.
func (uc *RecomputeUseCase) WithClock(now func() time.Time) *RecomputeUseCase {
	uc.now = now
	return uc
}

// Execute recomputes and persists the full snapshot set, superseding the
// previous one, and returns the fresh snapshots.
func (uc *RecomputeUseCase) Execute(ctx context.Context) ([]*entity.AgingSnapshot, error) {
	invoices, err := uc.store.LoadOpenInvoices(ctx)
	if err != nil {
		return nil, err
	}

	snapshots := uc.compute(invoices)
	if err := uc.agingRepo.ReplaceAll(ctx, snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

type bucketKey struct {
	customerID uuid.UUID
	bucket     entity.AgingBucket
}

func (uc *RecomputeUseCase) compute(invoices []*entity.Invoice) []*entity.AgingSnapshot {
	today := uc.now()
	computedAt := today

	grouped := make(map[bucketKey]*entity.AgingSnapshot)
	var order []bucketKey

	for _, invoice := range invoices {
		outstanding := invoice.Remaining()
		if !outstanding.IsPositive() {
			continue
		}

		daysPastDue := int(today.Sub(invoice.DueDate).Hours() / 24)
		key := bucketKey{
			customerID: invoice.CustomerID,
			bucket:     entity.BucketForAge(daysPastDue),
		}

		snapshot, ok := grouped[key]
		if !ok {
			snapshot = &entity.AgingSnapshot{
				ID:                    uuid.New(),
				CustomerID:            key.customerID,
				Bucket:                key.bucket,
				OutstandingAmount:     decimal.Zero,
				OldestOpenInvoiceDate: invoice.IssueDate,
				ComputedAt:            computedAt,
			}
			grouped[key] = snapshot
			order = append(order, key)
		}

		snapshot.OutstandingAmount = snapshot.OutstandingAmount.Add(outstanding)
		if invoice.IssueDate.Before(snapshot.OldestOpenInvoiceDate) {
			snapshot.OldestOpenInvoiceDate = invoice.IssueDate
		}
	}

	snapshots := make([]*entity.AgingSnapshot, 0, len(order))
	for _, key := range order {
		snapshots = append(snapshots, grouped[key])
	}
	return snapshots
}
