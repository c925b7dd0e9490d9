package reconciliation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/application/usecase/aging"
	"github.com/travelbooks/backoffice/internal/application/usecase/discrepancy"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

type fakePassLock struct {
	mu       sync.Mutex
	held     bool
	busy     bool
	releases int
}

func (l *fakePassLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy || l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakePassLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.releases++
	return nil
}

type fakeDiscrepancyRepo struct {
	mu      sync.Mutex
	records []*entity.Discrepancy
}

func (r *fakeDiscrepancyRepo) Create(ctx context.Context, d *entity.Discrepancy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *d
	r.records = append(r.records, &copied)
	return nil
}

func (r *fakeDiscrepancyRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Discrepancy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.records {
		if d.ID == id {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeDiscrepancyRepo) ListByRange(ctx context.Context, rng valueobject.DateRange) ([]*entity.Discrepancy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Discrepancy
	for _, d := range r.records {
		copied := *d
		result = append(result, &copied)
	}
	return result, nil
}

func (r *fakeDiscrepancyRepo) CountUnresolved(ctx context.Context, invoiceIDs []uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, d := range r.records {
		if d.Resolved {
			continue
		}
		for _, id := range invoiceIDs {
			if d.InvoiceID == id {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *fakeDiscrepancyRepo) FindUnresolved(ctx context.Context, invoiceID uuid.UUID, dType entity.DiscrepancyType) (*entity.Discrepancy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.records {
		if d.InvoiceID == invoiceID && d.Type == dType && !d.Resolved {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeDiscrepancyRepo) Resolve(ctx context.Context, id uuid.UUID, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.records {
		if d.ID == id {
			d.Resolved = true
			d.ResolutionNote = note
		}
	}
	return nil
}

type fakeAgingRepo struct {
	mu        sync.Mutex
	snapshots []*entity.AgingSnapshot
	replaces  int
}

func (r *fakeAgingRepo) ReplaceAll(ctx context.Context, snapshots []*entity.AgingSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = snapshots
	r.replaces++
	return nil
}

func (r *fakeAgingRepo) List(ctx context.Context, customerFilter *uuid.UUID) ([]*entity.AgingSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots, nil
}

func newTriggerFixture(store *fakeLedgerStore, lock *fakePassLock) (*TriggerReconciliationUseCase, *fakeDiscrepancyRepo, *fakeAgingRepo) {
	cfg := valueobject.DefaultMatchingConfig()
	discrepancies := &fakeDiscrepancyRepo{}
	agingRepo := &fakeAgingRepo{}
	uc := NewTriggerReconciliationUseCase(
		store,
		lock,
		discrepancy.NewDetector(discrepancies, cfg),
		aging.NewRecomputeUseCase(store, agingRepo),
		cfg,
	)
	return uc, discrepancies, agingRepo
}

func passRange() valueobject.DateRange {
	return valueobject.DateRange{Start: day(-60), End: day(30)}
}

func TestTriggerReconciliationUseCase_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects an inverted date range", func(t *testing.T) {
		uc, _, _ := newTriggerFixture(newFakeLedgerStore(nil, nil), &fakePassLock{})
		_, err := uc.Execute(ctx, TriggerReconciliationInput{
			Range: valueobject.DateRange{Start: day(10), End: day(0)},
		})
		expectCode(t, err, domainerror.ErrCodeInvalidDateRange)
	})

	t.Run("refuses to run while another pass holds the lock", func(t *testing.T) {
		uc, _, _ := newTriggerFixture(newFakeLedgerStore(nil, nil), &fakePassLock{busy: true})
		_, err := uc.Execute(ctx, TriggerReconciliationInput{Range: passRange()})
		expectCode(t, err, domainerror.ErrCodePassInProgress)
	})

	t.Run("runs a full pass across customer partitions", func(t *testing.T) {
		alpha := uuid.New()
		beta := uuid.New()
		invoiceA := testInvoice(alpha, "INV-100", 1000.00, 0)
		invoiceB := testInvoice(beta, "INV-200", 500.00, 2)
		receiptA := testReceipt(alpha, 1000.00, 0, "wire transfer for INV-100")
		receiptB := testReceipt(beta, 800.00, 0, "")

		store := newFakeLedgerStore(
			[]*entity.Invoice{invoiceA, invoiceB},
			[]*entity.Receipt{receiptA, receiptB},
		)
		lock := &fakePassLock{}
		uc, discrepancies, agingRepo := newTriggerFixture(store, lock)

		summary, err := uc.Execute(ctx, TriggerReconciliationInput{Range: passRange()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if summary.MatchCount != 2 {
			t.Errorf("expected 2 matches, got %d", summary.MatchCount)
		}
		if !summary.TotalMatchedAmount.Equal(decimal.NewFromFloat(1500.00)) {
			t.Errorf("expected total matched 1500, got %s", summary.TotalMatchedAmount)
		}
		if summary.MatchedInvoiceCount != 2 {
			t.Errorf("expected 2 matched invoices, got %d", summary.MatchedInvoiceCount)
		}
		if summary.UnmatchedReceiptCount != 0 {
			t.Errorf("expected no unmatched receipts, got %d", summary.UnmatchedReceiptCount)
		}
		if len(summary.Conflicts) != 0 || len(summary.PartitionErrors) != 0 {
			t.Errorf("expected a clean pass, got conflicts=%v errors=%v", summary.Conflicts, summary.PartitionErrors)
		}

		// Beta's receipt exceeds its only invoice; the residue is flagged.
		if summary.DiscrepancyCount != 1 {
			t.Errorf("expected 1 discrepancy, got %d", summary.DiscrepancyCount)
		}
		if len(discrepancies.records) != 1 {
			t.Fatalf("expected 1 persisted discrepancy, got %d", len(discrepancies.records))
		}
		if discrepancies.records[0].InvoiceID != invoiceB.ID {
			t.Error("expected the discrepancy on beta's invoice")
		}

		if agingRepo.replaces != 1 {
			t.Errorf("expected one aging recompute, got %d", agingRepo.replaces)
		}
		if lock.releases != 1 {
			t.Errorf("expected the pass lock released once, got %d", lock.releases)
		}

		if store.invoiceState(invoiceA.ID).Status != entity.InvoiceStatusMatched {
			t.Error("expected alpha's invoice matched")
		}
		if store.receiptState(receiptB.ID).Status != entity.ReceiptStatusPartiallyAllocated {
			t.Error("expected beta's receipt partially allocated")
		}
	})

	t.Run("a second pass over the same range reports the same summary", func(t *testing.T) {
		alpha := uuid.New()
		beta := uuid.New()
		store := newFakeLedgerStore(
			[]*entity.Invoice{
				testInvoice(alpha, "INV-100", 1000.00, 0),
				testInvoice(beta, "INV-200", 500.00, 2),
			},
			[]*entity.Receipt{
				testReceipt(alpha, 1000.00, 0, "wire transfer for INV-100"),
				testReceipt(beta, 800.00, 0, ""),
			},
		)
		uc, discrepancies, _ := newTriggerFixture(store, &fakePassLock{})

		first, err := uc.Execute(ctx, TriggerReconciliationInput{Range: passRange()})
		if err != nil {
			t.Fatalf("unexpected error on first pass: %v", err)
		}
		second, err := uc.Execute(ctx, TriggerReconciliationInput{Range: passRange()})
		if err != nil {
			t.Fatalf("unexpected error on second pass: %v", err)
		}

		if first.MatchCount != 2 {
			t.Fatalf("expected 2 matches on the first pass, got %d", first.MatchCount)
		}
		if second.MatchCount != first.MatchCount {
			t.Errorf("match count changed on re-run: %d then %d", first.MatchCount, second.MatchCount)
		}
		if !second.TotalMatchedAmount.Equal(first.TotalMatchedAmount) {
			t.Errorf("matched amount changed on re-run: %s then %s", first.TotalMatchedAmount, second.TotalMatchedAmount)
		}
		if second.MatchedInvoiceCount != first.MatchedInvoiceCount ||
			second.PartialInvoiceCount != first.PartialInvoiceCount ||
			second.UnmatchedInvoiceCount != first.UnmatchedInvoiceCount ||
			second.UnmatchedReceiptCount != first.UnmatchedReceiptCount {
			t.Errorf("invoice and receipt counts changed on re-run: first=%+v second=%+v", first, second)
		}
		if second.DiscrepancyCount != first.DiscrepancyCount {
			t.Errorf("discrepancy count changed on re-run: %d then %d", first.DiscrepancyCount, second.DiscrepancyCount)
		}

		// The re-run must also leave the ledger untouched.
		if store.matchCount() != 2 {
			t.Errorf("expected 2 match rows after both passes, got %d", store.matchCount())
		}
		if len(discrepancies.records) != 1 {
			t.Errorf("expected the discrepancy recorded once, got %d", len(discrepancies.records))
		}
	})

	t.Run("restricting strategies skips the others", func(t *testing.T) {
		customerID := uuid.New()
		store := newFakeLedgerStore(
			[]*entity.Invoice{testInvoice(customerID, "INV-300", 250.00, 0)},
			[]*entity.Receipt{testReceipt(customerID, 250.00, 0, "")},
		)
		uc, _, _ := newTriggerFixture(store, &fakePassLock{})

		summary, err := uc.Execute(ctx, TriggerReconciliationInput{
			Range:      passRange(),
			Strategies: []entity.MatchStrategy{entity.StrategyReference},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.MatchCount != 0 {
			t.Errorf("expected no matches without the amount strategies, got %d", summary.MatchCount)
		}
		if summary.UnmatchedInvoiceCount != 1 {
			t.Errorf("expected the invoice left unmatched, got %d", summary.UnmatchedInvoiceCount)
		}
	})
}
