package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/application/usecase/aging"
	"github.com/travelbooks/backoffice/internal/application/usecase/discrepancy"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// passLockKey serializes reconciliation passes: the match recorder must be
// the only writer while a pass runs.
const passLockKey = "reconciliation:pass"

// passLockTTL is a crash guard; a healthy pass releases the lock explicitly.
const passLockTTL = 30 * time.Minute

// TriggerReconciliationInput represents the input for a reconciliation pass.
type TriggerReconciliationInput struct {
	Range valueobject.DateRange

	// Strategies optionally restricts the chain to a subset. Empty means
	// the full reference, exact-amount, fuzzy chain.
	Strategies []entity.MatchStrategy
}

// TriggerReconciliationUseCase runs one reconciliation pass: it loads the
// unsettled pools for a date range, partitions them by customer, runs the
// strategy chain per partition through partition-local allocation ledgers,
// flushes accepted allocations through the match recorder, detects
// discrepancies on the touched set, and finally recomputes AR aging.
type TriggerReconciliationUseCase struct {
	store          adapter.LedgerStore
	lock           adapter.PassLock
	detector       *discrepancy.Detector
	agingRecompute *aging.RecomputeUseCase
	cfg            valueobject.MatchingConfig
}

// NewTriggerReconciliationUseCase creates a new TriggerReconciliationUseCase instance.
func NewTriggerReconciliationUseCase(
	store adapter.LedgerStore,
	lock adapter.PassLock,
	detector *discrepancy.Detector,
	agingRecompute *aging.RecomputeUseCase,
	cfg valueobject.MatchingConfig,
) *TriggerReconciliationUseCase {
	return &TriggerReconciliationUseCase{
		store:          store,
		lock:           lock,
		detector:       detector,
		agingRecompute: agingRecompute,
		cfg:            cfg,
	}
}

// customerPartition is the per-customer slice of the unsettled pools. A
// record belongs to exactly one customer, so partitions never contend for
// the same invoice or receipt.
type customerPartition struct {
	customerID uuid.UUID
	invoices   []*entity.Invoice
	receipts   []*entity.Receipt
}

// partitionResult is what a worker sends back over the results channel.
// Workers share nothing; conflicts and failures are merged from these
// messages, while the summary counts come from persisted range state.
type partitionResult struct {
	customerID uuid.UUID
	conflicts  []valueobject.ReconciliationConflict
	err        error
}

// Execute runs the pass and returns its summary. Partition failures are
// isolated into the summary; the batch as a whole still completes.
func (uc *TriggerReconciliationUseCase) Execute(ctx context.Context, input TriggerReconciliationInput) (*valueobject.ReconciliationSummary, error) {
	if input.Range.End.Before(input.Range.Start) {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeInvalidDateRange,
			"date range end precedes start",
			domainerror.ErrInvalidDateRange,
		)
	}

	chain, err := NewStrategyChain(uc.cfg, input.Strategies)
	if err != nil {
		return nil, err
	}

	acquired, err := uc.lock.Acquire(ctx, passLockKey, passLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodePassInProgress,
			"another reconciliation pass is running",
			domainerror.ErrPassInProgress,
		)
	}
	defer func() {
		if releaseErr := uc.lock.Release(context.WithoutCancel(ctx), passLockKey); releaseErr != nil {
			slog.Error("Failed to release reconciliation pass lock", "error", releaseErr)
		}
	}()

	summary := &valueobject.ReconciliationSummary{
		TotalMatchedAmount: decimal.Zero,
		StartedAt:          time.Now().UTC(),
	}

	invoices, err := uc.store.LoadUnsettledInvoices(ctx, input.Range)
	if err != nil {
		return nil, err
	}
	receipts, err := uc.store.LoadUnsettledReceipts(ctx, input.Range)
	if err != nil {
		return nil, err
	}

	partitions := partitionByCustomer(invoices, receipts)
	slog.Info("Reconciliation pass started",
		"invoices", len(invoices),
		"receipts", len(receipts),
		"partitions", len(partitions),
	)

	results := uc.runPartitions(ctx, chain, partitions)
	for _, r := range results {
		if r.err != nil {
			summary.PartitionErrors = append(summary.PartitionErrors, valueobject.PartitionError{
				CustomerID: r.customerID,
				Reason:     r.err.Error(),
			})
			continue
		}
		summary.Conflicts = append(summary.Conflicts, r.conflicts...)
	}

	if err := uc.summarizeRange(ctx, input.Range, summary); err != nil {
		return nil, err
	}

	// AR aging is recomputed after every pass; the previous snapshot set is
	// superseded wholesale.
	if _, err := uc.agingRecompute.Execute(ctx); err != nil {
		return nil, err
	}

	summary.FinishedAt = time.Now().UTC()
	slog.Info("Reconciliation pass finished",
		"matches", summary.MatchCount,
		"matched_amount", summary.TotalMatchedAmount.String(),
		"conflicts", len(summary.Conflicts),
		"partition_errors", len(summary.PartitionErrors),
	)
	return summary, nil
}

// summarizeRange fills the summary counts from persisted state rather than
// from this pass's writes. Re-running an unchanged range therefore reports
// the same numbers, matches already on record included.
func (uc *TriggerReconciliationUseCase) summarizeRange(ctx context.Context, r valueobject.DateRange, summary *valueobject.ReconciliationSummary) error {
	invoices, err := uc.store.LoadInvoices(ctx, r)
	if err != nil {
		return err
	}
	receipts, err := uc.store.LoadReceipts(ctx, r)
	if err != nil {
		return err
	}
	matches, err := uc.store.ListMatches(ctx, r)
	if err != nil {
		return err
	}

	summary.MatchCount = len(matches)
	summary.TotalMatchedAmount = decimal.Zero
	for _, m := range matches {
		summary.TotalMatchedAmount = summary.TotalMatchedAmount.Add(m.MatchedAmount)
	}

	for _, invoice := range invoices {
		switch invoice.Status {
		case entity.InvoiceStatusMatched:
			summary.MatchedInvoiceCount++
		case entity.InvoiceStatusPartiallyMatched:
			summary.PartialInvoiceCount++
		case entity.InvoiceStatusCancelled:
			// Not part of the reconcilable population.
		default:
			summary.UnmatchedInvoiceCount++
		}
	}
	for _, receipt := range receipts {
		if receipt.Status == entity.ReceiptStatusUnmatched {
			summary.UnmatchedReceiptCount++
		}
	}

	outstanding, err := uc.detector.Outstanding(ctx, invoices)
	if err != nil {
		return err
	}
	summary.DiscrepancyCount = outstanding
	return nil
}

// runPartitions fans the partitions out over a bounded worker pool and
// collects the per-partition results.
func (uc *TriggerReconciliationUseCase) runPartitions(ctx context.Context, chain *StrategyChain, partitions []customerPartition) []partitionResult {
	workerCount := uc.cfg.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(partitions) {
		workerCount = len(partitions)
	}

	jobs := make(chan customerPartition)
	resultCh := make(chan partitionResult)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				resultCh <- uc.processPartition(ctx, chain, p)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range partitions {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var results []partitionResult
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

// processPartition runs the chain, the recorder and the detector for one
// customer. A panic from a malformed record is contained here so one bad
// partition cannot abort the batch.
func (uc *TriggerReconciliationUseCase) processPartition(ctx context.Context, chain *StrategyChain, p customerPartition) (result partitionResult) {
	result.customerID = p.customerID
	defer func() {
		if r := recover(); r != nil {
			result.err = fmt.Errorf("partition panicked: %v", r)
		}
	}()

	ledger := NewAllocationLedger(p.invoices, p.receipts, uc.cfg.AmountEpsilon)
	chain.Run(ledger)

	recorder := NewMatchRecorder(uc.store, uc.cfg)
	flushed, err := recorder.Flush(ctx, ledger)
	if err != nil {
		result.err = err
		return result
	}
	result.conflicts = flushed.Conflicts

	finalInvoices := make([]*entity.Invoice, 0, len(p.invoices))
	for _, seed := range p.invoices {
		finalInvoices = append(finalInvoices, finalInvoiceState(flushed, seed))
	}
	finalReceipts := make([]*entity.Receipt, 0, len(p.receipts))
	for _, seed := range p.receipts {
		finalReceipts = append(finalReceipts, finalReceiptState(flushed, seed))
	}

	_, err = uc.detector.Detect(ctx, discrepancy.PassState{
		Invoices:          finalInvoices,
		Receipts:          finalReceipts,
		ReceiptTopInvoice: topInvoicePerReceipt(flushed.Matches),
	})
	if err != nil {
		result.err = err
	}
	return result
}

func finalInvoiceState(flushed *RecorderResult, seed *entity.Invoice) *entity.Invoice {
	if state, ok := flushed.Invoices[seed.ID]; ok {
		return state
	}
	return seed
}

func finalReceiptState(flushed *RecorderResult, seed *entity.Receipt) *entity.Receipt {
	if state, ok := flushed.Receipts[seed.ID]; ok {
		return state
	}
	return seed
}

// topInvoicePerReceipt maps each receipt to the invoice that received its
// largest allocation in this pass.
func topInvoicePerReceipt(matches []*entity.Match) map[uuid.UUID]uuid.UUID {
	top := make(map[uuid.UUID]uuid.UUID)
	best := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range matches {
		if current, ok := best[m.ReceiptID]; !ok || m.MatchedAmount.GreaterThan(current) {
			best[m.ReceiptID] = m.MatchedAmount
			top[m.ReceiptID] = m.InvoiceID
		}
	}
	return top
}

// partitionByCustomer groups the unsettled pools by customer ID in a
// deterministic order.
func partitionByCustomer(invoices []*entity.Invoice, receipts []*entity.Receipt) []customerPartition {
	index := make(map[uuid.UUID]*customerPartition)
	var order []uuid.UUID

	partitionFor := func(customerID uuid.UUID) *customerPartition {
		if p, ok := index[customerID]; ok {
			return p
		}
		p := &customerPartition{customerID: customerID}
		index[customerID] = p
		order = append(order, customerID)
		return p
	}

	for _, invoice := range invoices {
		p := partitionFor(invoice.CustomerID)
		p.invoices = append(p.invoices, invoice)
	}
	for _, receipt := range receipts {
		p := partitionFor(receipt.CustomerID)
		p.receipts = append(p.receipts, receipt)
	}

	partitions := make([]customerPartition, 0, len(order))
	for _, customerID := range order {
		partitions = append(partitions, *index[customerID])
	}
	return partitions
}
