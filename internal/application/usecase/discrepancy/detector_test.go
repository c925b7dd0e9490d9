package discrepancy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

type memoryRepo struct {
	mu      sync.Mutex
	records []*entity.Discrepancy
}

func (r *memoryRepo) Create(ctx context.Context, d *entity.Discrepancy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *d
	r.records = append(r.records, &copied)
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Discrepancy, error) {
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

func (r *memoryRepo) ListByRange(ctx context.Context, rng valueobject.DateRange) ([]*entity.Discrepancy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Discrepancy
	for _, d := range r.records {
		if rng.Contains(d.DetectedAt) {
			copied := *d
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memoryRepo) CountUnresolved(ctx context.Context, invoiceIDs []uuid.UUID) (int, error) {
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

func (r *memoryRepo) FindUnresolved(ctx context.Context, invoiceID uuid.UUID, dType entity.DiscrepancyType) (*entity.Discrepancy, error) {
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

func (r *memoryRepo) Resolve(ctx context.Context, id uuid.UUID, note string) error {
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

func invoiceWith(customerID uuid.UUID, net, allocated float64, status entity.InvoiceStatus) *entity.Invoice {
	return &entity.Invoice{
		ID:              uuid.New(),
		CustomerID:      customerID,
		Number:          "INV-1",
		IssueDate:       time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		DueDate:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		NetAmount:       decimal.NewFromFloat(net),
		AllocatedAmount: decimal.NewFromFloat(allocated),
		Status:          status,
		Version:         2,
	}
}

func receiptWith(customerID uuid.UUID, amount, allocated float64) *entity.Receipt {
	status := entity.ReceiptStatusPartiallyAllocated
	if allocated == 0 {
		status = entity.ReceiptStatusUnmatched
	}
	return &entity.Receipt{
		ID:              uuid.New(),
		CustomerID:      customerID,
		PaymentDate:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:          decimal.NewFromFloat(amount),
		Method:          entity.PaymentMethodBankTransfer,
		AllocatedAmount: decimal.NewFromFloat(allocated),
		Status:          status,
		Version:         2,
	}
}

func TestDetector_Detect(t *testing.T) {
	ctx := context.Background()
	cfg := valueobject.DefaultMatchingConfig()
	customerID := uuid.New()

	t.Run("flags an over-allocated invoice", func(t *testing.T) {
		repo := &memoryRepo{}
		detector := NewDetector(repo, cfg)

		invoice := invoiceWith(customerID, 500.00, 620.00, entity.InvoiceStatusMatched)
		detected, err := detector.Detect(ctx, PassState{Invoices: []*entity.Invoice{invoice}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(detected) != 1 {
			t.Fatalf("expected 1 discrepancy, got %d", len(detected))
		}
		d := detected[0]
		if d.Type != entity.DiscrepancyOverpayment {
			t.Errorf("expected overpayment, got %s", d.Type)
		}
		if !d.Delta.Equal(decimal.NewFromFloat(120.00)) {
			t.Errorf("expected delta 120, got %s", d.Delta)
		}
	})

	t.Run("flags a short-settled invoice once no open receipts remain", func(t *testing.T) {
		repo := &memoryRepo{}
		detector := NewDetector(repo, cfg)

		invoice := invoiceWith(customerID, 1000.00, 800.00, entity.InvoiceStatusPartiallyMatched)
		receipt := receiptWith(customerID, 800.00, 800.00)
		receipt.Status = entity.ReceiptStatusFullyAllocated

		detected, err := detector.Detect(ctx, PassState{
			Invoices: []*entity.Invoice{invoice},
			Receipts: []*entity.Receipt{receipt},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(detected) != 1 {
			t.Fatalf("expected 1 discrepancy, got %d", len(detected))
		}
		if detected[0].Type != entity.DiscrepancyUnderpayment {
			t.Errorf("expected underpayment, got %s", detected[0].Type)
		}
		if !detected[0].Delta.Equal(decimal.NewFromFloat(-200.00)) {
			t.Errorf("expected delta -200, got %s", detected[0].Delta)
		}
	})

	t.Run("stays quiet while open receipts could still settle the invoice", func(t *testing.T) {
		repo := &memoryRepo{}
		detector := NewDetector(repo, cfg)

		invoice := invoiceWith(customerID, 1000.00, 800.00, entity.InvoiceStatusPartiallyMatched)
		openReceipt := receiptWith(customerID, 300.00, 0)

		detected, err := detector.Detect(ctx, PassState{
			Invoices: []*entity.Invoice{invoice},
			Receipts: []*entity.Receipt{openReceipt},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(detected) != 0 {
			t.Errorf("expected no discrepancies, got %d", len(detected))
		}
	})

	t.Run("attributes receipt residue to the invoice it mostly settled", func(t *testing.T) {
		repo := &memoryRepo{}
		detector := NewDetector(repo, cfg)

		invoice := invoiceWith(customerID, 500.00, 500.00, entity.InvoiceStatusMatched)
		receipt := receiptWith(customerID, 800.00, 500.00)

		detected, err := detector.Detect(ctx, PassState{
			Invoices:          []*entity.Invoice{invoice},
			Receipts:          []*entity.Receipt{receipt},
			ReceiptTopInvoice: map[uuid.UUID]uuid.UUID{receipt.ID: invoice.ID},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(detected) != 1 {
			t.Fatalf("expected 1 discrepancy, got %d", len(detected))
		}
		d := detected[0]
		if d.Type != entity.DiscrepancyOverpayment {
			t.Errorf("expected overpayment, got %s", d.Type)
		}
		if !d.ReceivedAmount.Equal(decimal.NewFromFloat(800.00)) {
			t.Errorf("expected received 800, got %s", d.ReceivedAmount)
		}
	})

	t.Run("leaves unallocated receipts alone", func(t *testing.T) {
		repo := &memoryRepo{}
		detector := NewDetector(repo, cfg)

		// No invoices at all for the customer; unmatched money is not a
		// discrepancy.
		receipt := receiptWith(customerID, 800.00, 0)
		detected, err := detector.Detect(ctx, PassState{Receipts: []*entity.Receipt{receipt}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(detected) != 0 {
			t.Errorf("expected no discrepancies, got %d", len(detected))
		}
	})

	t.Run("re-detection of an unresolved mismatch is a no-op", func(t *testing.T) {
		repo := &memoryRepo{}
		detector := NewDetector(repo, cfg)
		invoice := invoiceWith(customerID, 500.00, 620.00, entity.InvoiceStatusMatched)
		state := PassState{Invoices: []*entity.Invoice{invoice}}

		if _, err := detector.Detect(ctx, state); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		detected, err := detector.Detect(ctx, state)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(detected) != 0 {
			t.Errorf("expected no new discrepancies, got %d", len(detected))
		}
		if len(repo.records) != 1 {
			t.Errorf("expected a single persisted record, got %d", len(repo.records))
		}
	})

	t.Run("detects again after the earlier record was resolved", func(t *testing.T) {
		repo := &memoryRepo{}
		detector := NewDetector(repo, cfg)
		invoice := invoiceWith(customerID, 500.00, 620.00, entity.InvoiceStatusMatched)
		state := PassState{Invoices: []*entity.Invoice{invoice}}

		first, err := detector.Detect(ctx, state)
		if err != nil || len(first) != 1 {
			t.Fatalf("expected initial detection, got %v %v", first, err)
		}
		if err := repo.Resolve(ctx, first[0].ID, "refund issued"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		second, err := detector.Detect(ctx, state)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(second) != 1 {
			t.Errorf("expected a fresh discrepancy after resolution, got %d", len(second))
		}
	})
}
