package reconciliation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

func day(offset int) time.Time {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func testInvoice(customerID uuid.UUID, number string, net float64, dueOffset int) *entity.Invoice {
	return &entity.Invoice{
		ID:              uuid.New(),
		CustomerID:      customerID,
		Number:          number,
		IssueDate:       day(dueOffset - 30),
		DueDate:         day(dueOffset),
		NetAmount:       decimal.NewFromFloat(net),
		AllocatedAmount: decimal.Zero,
		Status:          entity.InvoiceStatusOpen,
		Version:         1,
	}
}

func testReceipt(customerID uuid.UUID, amount float64, paidOffset int, memo string) *entity.Receipt {
	return &entity.Receipt{
		ID:              uuid.New(),
		CustomerID:      customerID,
		PaymentDate:     day(paidOffset),
		Amount:          decimal.NewFromFloat(amount),
		Method:          entity.PaymentMethodBankTransfer,
		RawMemoText:     memo,
		AllocatedAmount: decimal.Zero,
		Status:          entity.ReceiptStatusUnmatched,
		Version:         1,
	}
}

// fakeLedgerStore is an in-memory LedgerStore with real optimistic-version
// semantics, so recorder retry behavior can be exercised without a database.
type fakeLedgerStore struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*entity.Invoice
	receipts map[uuid.UUID]*entity.Receipt
	matches  []*entity.Match

	// forcedConflicts makes the next N RecordMatch calls fail with a version
	// conflict while silently advancing the stored invoice version, the way
	// a concurrent writer would.
	forcedConflicts int
}

func newFakeLedgerStore(invoices []*entity.Invoice, receipts []*entity.Receipt) *fakeLedgerStore {
	s := &fakeLedgerStore{
		invoices: make(map[uuid.UUID]*entity.Invoice),
		receipts: make(map[uuid.UUID]*entity.Receipt),
	}
	for _, inv := range invoices {
		copied := *inv
		s.invoices[inv.ID] = &copied
	}
	for _, rcp := range receipts {
		copied := *rcp
		s.receipts[rcp.ID] = &copied
	}
	return s
}

func (s *fakeLedgerStore) LoadUnsettledInvoices(ctx context.Context, r valueobject.DateRange) ([]*entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entity.Invoice
	for _, inv := range s.invoices {
		if inv.IsSettleable() && r.Contains(inv.IssueDate) {
			copied := *inv
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeLedgerStore) LoadUnsettledReceipts(ctx context.Context, r valueobject.DateRange) ([]*entity.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entity.Receipt
	for _, rcp := range s.receipts {
		if rcp.Status != entity.ReceiptStatusFullyAllocated && r.Contains(rcp.PaymentDate) {
			copied := *rcp
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeLedgerStore) LoadInvoices(ctx context.Context, r valueobject.DateRange) ([]*entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entity.Invoice
	for _, inv := range s.invoices {
		if r.Contains(inv.IssueDate) {
			copied := *inv
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeLedgerStore) LoadReceipts(ctx context.Context, r valueobject.DateRange) ([]*entity.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entity.Receipt
	for _, rcp := range s.receipts {
		if r.Contains(rcp.PaymentDate) {
			copied := *rcp
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeLedgerStore) LoadOpenInvoicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entity.Invoice
	for _, inv := range s.invoices {
		if inv.CustomerID == customerID && inv.IsSettleable() {
			copied := *inv
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeLedgerStore) LoadOpenInvoices(ctx context.Context) ([]*entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entity.Invoice
	for _, inv := range s.invoices {
		if inv.IsSettleable() {
			copied := *inv
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeLedgerStore) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, nil
	}
	copied := *inv
	return &copied, nil
}

func (s *fakeLedgerStore) GetReceipt(ctx context.Context, receiptID uuid.UUID) (*entity.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rcp, ok := s.receipts[receiptID]
	if !ok {
		return nil, nil
	}
	copied := *rcp
	return &copied, nil
}

func (s *fakeLedgerStore) GetMatch(ctx context.Context, matchID uuid.UUID) (*entity.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.ID == matchID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeLedgerStore) HasReversal(ctx context.Context, matchID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.ReversesMatchID != nil && *m.ReversesMatchID == matchID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeLedgerStore) ListMatches(ctx context.Context, r valueobject.DateRange) ([]*entity.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*entity.Match
	for _, m := range s.matches {
		rcp, ok := s.receipts[m.ReceiptID]
		if !ok || !r.Contains(rcp.PaymentDate) {
			continue
		}
		copied := *m
		result = append(result, &copied)
	}
	return result, nil
}

func (s *fakeLedgerStore) RecordMatch(
	ctx context.Context,
	match *entity.Match,
	invoice adapter.InvoiceAllocationUpdate,
	receipt adapter.ReceiptAllocationUpdate,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invoice.InvoiceID]
	if !ok {
		return fmt.Errorf("invoice %s does not exist", invoice.InvoiceID)
	}
	rcp, ok := s.receipts[receipt.ReceiptID]
	if !ok {
		return fmt.Errorf("receipt %s does not exist", receipt.ReceiptID)
	}

	if s.forcedConflicts > 0 {
		s.forcedConflicts--
		inv.Version++
		return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, domainerror.ErrVersionConflict)
	}

	if inv.Version != invoice.ExpectedVersion {
		return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, domainerror.ErrVersionConflict)
	}
	if rcp.Version != receipt.ExpectedVersion {
		return fmt.Errorf("receipt %s: %w", receipt.ReceiptID, domainerror.ErrVersionConflict)
	}

	copied := *match
	s.matches = append(s.matches, &copied)
	inv.AllocatedAmount = invoice.AllocatedAmount
	inv.Status = invoice.Status
	inv.Version++
	rcp.AllocatedAmount = receipt.AllocatedAmount
	rcp.Status = receipt.Status
	rcp.Version++
	return nil
}

func (s *fakeLedgerStore) invoiceState(id uuid.UUID) *entity.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoices[id]
}

func (s *fakeLedgerStore) receiptState(id uuid.UUID) *entity.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipts[id]
}

func (s *fakeLedgerStore) matchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}
