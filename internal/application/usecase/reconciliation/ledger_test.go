package reconciliation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

func TestAllocationLedger_Accept(t *testing.T) {
	cfg := valueobject.DefaultMatchingConfig()
	customerID := uuid.New()

	t.Run("allocates the smaller of both balances", func(t *testing.T) {
		invoice := testInvoice(customerID, "INV-001", 1000.00, 0)
		receipt := testReceipt(customerID, 600.00, 0, "")
		ledger := NewAllocationLedger([]*entity.Invoice{invoice}, []*entity.Receipt{receipt}, cfg.AmountEpsilon)

		amount, ok := ledger.Accept(invoice.ID, receipt.ID, 0.9, entity.StrategyExactAmount)
		if !ok {
			t.Fatal("expected acceptance")
		}
		if !amount.Equal(decimal.NewFromFloat(600.00)) {
			t.Errorf("expected allocation 600.00, got %s", amount)
		}
		if !ledger.RemainingInvoice(invoice.ID).Equal(decimal.NewFromFloat(400.00)) {
			t.Errorf("expected invoice remaining 400.00, got %s", ledger.RemainingInvoice(invoice.ID))
		}
		if !ledger.RemainingReceipt(receipt.ID).IsZero() {
			t.Errorf("expected receipt remaining 0, got %s", ledger.RemainingReceipt(receipt.ID))
		}
	})

	t.Run("rejects exhausted pair silently", func(t *testing.T) {
		invoice := testInvoice(customerID, "INV-002", 500.00, 0)
		receipt := testReceipt(customerID, 500.00, 0, "")
		ledger := NewAllocationLedger([]*entity.Invoice{invoice}, []*entity.Receipt{receipt}, cfg.AmountEpsilon)

		if _, ok := ledger.Accept(invoice.ID, receipt.ID, 0.9, entity.StrategyExactAmount); !ok {
			t.Fatal("expected first acceptance")
		}
		if _, ok := ledger.Accept(invoice.ID, receipt.ID, 0.9, entity.StrategyExactAmount); ok {
			t.Error("expected stale candidate to be rejected")
		}
		if len(ledger.Pending()) != 1 {
			t.Errorf("expected a single pending allocation, got %d", len(ledger.Pending()))
		}
	})

	t.Run("rejects unknown records", func(t *testing.T) {
		ledger := NewAllocationLedger(nil, nil, cfg.AmountEpsilon)
		if _, ok := ledger.Accept(uuid.New(), uuid.New(), 1.0, entity.StrategyReference); ok {
			t.Error("expected rejection for unseeded pair")
		}
	})

	t.Run("cap limits the allocation", func(t *testing.T) {
		invoice := testInvoice(customerID, "INV-003", 1000.00, 0)
		receipt := testReceipt(customerID, 1000.00, 0, "")
		ledger := NewAllocationLedger([]*entity.Invoice{invoice}, []*entity.Receipt{receipt}, cfg.AmountEpsilon)

		amount, ok := ledger.AcceptAmount(invoice.ID, receipt.ID, decimal.NewFromFloat(250.00), 1.0, entity.StrategyManual)
		if !ok {
			t.Fatal("expected acceptance")
		}
		if !amount.Equal(decimal.NewFromFloat(250.00)) {
			t.Errorf("expected capped allocation 250.00, got %s", amount)
		}
		if !ledger.RemainingInvoice(invoice.ID).Equal(decimal.NewFromFloat(750.00)) {
			t.Errorf("expected invoice remaining 750.00, got %s", ledger.RemainingInvoice(invoice.ID))
		}
	})

	t.Run("seeds remaining from persisted allocations", func(t *testing.T) {
		invoice := testInvoice(customerID, "INV-004", 1000.00, 0)
		invoice.AllocatedAmount = decimal.NewFromFloat(900.00)
		invoice.Status = entity.InvoiceStatusPartiallyMatched
		receipt := testReceipt(customerID, 500.00, 0, "")
		ledger := NewAllocationLedger([]*entity.Invoice{invoice}, []*entity.Receipt{receipt}, cfg.AmountEpsilon)

		amount, ok := ledger.Accept(invoice.ID, receipt.ID, 0.7, entity.StrategyFuzzy)
		if !ok {
			t.Fatal("expected acceptance")
		}
		if !amount.Equal(decimal.NewFromFloat(100.00)) {
			t.Errorf("expected allocation 100.00, got %s", amount)
		}
	})
}

func TestAllocationLedger_Ordering(t *testing.T) {
	cfg := valueobject.DefaultMatchingConfig()
	customerID := uuid.New()

	t.Run("open invoices sorted by due date then number", func(t *testing.T) {
		later := testInvoice(customerID, "INV-200", 100.00, 10)
		earlier := testInvoice(customerID, "INV-300", 100.00, -5)
		tied := testInvoice(customerID, "INV-100", 100.00, 10)
		ledger := NewAllocationLedger([]*entity.Invoice{later, earlier, tied}, nil, cfg.AmountEpsilon)

		open := ledger.OpenInvoices()
		if len(open) != 3 {
			t.Fatalf("expected 3 open invoices, got %d", len(open))
		}
		if open[0].Number != "INV-300" || open[1].Number != "INV-100" || open[2].Number != "INV-200" {
			t.Errorf("unexpected order: %s, %s, %s", open[0].Number, open[1].Number, open[2].Number)
		}
	})

	t.Run("settled invoices drop out of the open pool", func(t *testing.T) {
		invoice := testInvoice(customerID, "INV-400", 100.00, 0)
		receipt := testReceipt(customerID, 100.00, 0, "")
		ledger := NewAllocationLedger([]*entity.Invoice{invoice}, []*entity.Receipt{receipt}, cfg.AmountEpsilon)

		ledger.Accept(invoice.ID, receipt.ID, 0.9, entity.StrategyExactAmount)

		if len(ledger.OpenInvoices()) != 0 {
			t.Error("expected no open invoices after full allocation")
		}
		if len(ledger.OpenReceipts()) != 0 {
			t.Error("expected no open receipts after full allocation")
		}
	})
}
