package reconciliation

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

func runChain(t *testing.T, invoices []*entity.Invoice, receipts []*entity.Receipt) *AllocationLedger {
	t.Helper()
	cfg := valueobject.DefaultMatchingConfig()
	chain, err := NewStrategyChain(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected chain error: %v", err)
	}
	ledger := NewAllocationLedger(invoices, receipts, cfg.AmountEpsilon)
	chain.Run(ledger)
	return ledger
}

func TestStrategyChain_ReferenceMatch(t *testing.T) {
	customerID := uuid.New()

	t.Run("memo reference settles the pair at full confidence", func(t *testing.T) {
		invoice := testInvoice(customerID, "INV-2025-000123", 1000.00, 0)
		receipt := testReceipt(customerID, 1000.00, 2, "payment for INV-2025-000123, thank you")

		ledger := runChain(t, []*entity.Invoice{invoice}, []*entity.Receipt{receipt})

		pending := ledger.Pending()
		if len(pending) != 1 {
			t.Fatalf("expected 1 allocation, got %d", len(pending))
		}
		if pending[0].Strategy != entity.StrategyReference {
			t.Errorf("expected reference strategy, got %s", pending[0].Strategy)
		}
		if pending[0].Confidence != 1.0 {
			t.Errorf("expected confidence 1.0, got %v", pending[0].Confidence)
		}
		if !pending[0].Amount.Equal(decimal.NewFromFloat(1000.00)) {
			t.Errorf("expected full allocation, got %s", pending[0].Amount)
		}
	})

	t.Run("memo match is case-insensitive", func(t *testing.T) {
		invoice := testInvoice(customerID, "INV-2025-000777", 400.00, 0)
		receipt := testReceipt(customerID, 400.00, 0, "ref inv-2025-000777")

		ledger := runChain(t, []*entity.Invoice{invoice}, []*entity.Receipt{receipt})
		if len(ledger.Pending()) != 1 {
			t.Fatalf("expected 1 allocation, got %d", len(ledger.Pending()))
		}
	})

	t.Run("reference wins over exact amount for the same receipt", func(t *testing.T) {
		referenced := testInvoice(customerID, "INV-2025-000500", 900.00, 0)
		amountTwin := testInvoice(customerID, "INV-2025-000501", 1000.00, 0)
		receipt := testReceipt(customerID, 1000.00, 0, "settling INV-2025-000500")

		ledger := runChain(t, []*entity.Invoice{referenced, amountTwin}, []*entity.Receipt{receipt})

		pending := ledger.Pending()
		if len(pending) == 0 {
			t.Fatal("expected allocations")
		}
		if pending[0].InvoiceID != referenced.ID {
			t.Error("expected referenced invoice to be settled first")
		}
		if pending[0].Strategy != entity.StrategyReference {
			t.Errorf("expected reference strategy first, got %s", pending[0].Strategy)
		}
	})
}

func TestStrategyChain_PartialPayment(t *testing.T) {
	customerID := uuid.New()

	// A receipt below the invoice amount and outside the exact window still
	// lands on the invoice via fuzzy scoring, leaving the invoice partially
	// matched and the receipt fully consumed.
	invoice := testInvoice(customerID, "INV-2025-000200", 1000.00, 0)
	receipt := testReceipt(customerID, 800.00, 3, "")

	ledger := runChain(t, []*entity.Invoice{invoice}, []*entity.Receipt{receipt})

	pending := ledger.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(pending))
	}
	if pending[0].Strategy != entity.StrategyFuzzy {
		t.Errorf("expected fuzzy strategy, got %s", pending[0].Strategy)
	}
	if !pending[0].Amount.Equal(decimal.NewFromFloat(800.00)) {
		t.Errorf("expected allocation 800.00, got %s", pending[0].Amount)
	}
	if !ledger.RemainingInvoice(invoice.ID).Equal(decimal.NewFromFloat(200.00)) {
		t.Errorf("expected invoice remaining 200.00, got %s", ledger.RemainingInvoice(invoice.ID))
	}
	if !ledger.RemainingReceipt(receipt.ID).IsZero() {
		t.Errorf("expected receipt fully consumed, got %s", ledger.RemainingReceipt(receipt.ID))
	}
}

func TestStrategyChain_ReceiptSplitAcrossInvoices(t *testing.T) {
	customerID := uuid.New()

	// One receipt covering several invoices splits across them, oldest due
	// date first.
	older := testInvoice(customerID, "INV-2025-000300", 1000.00, -5)
	newer := testInvoice(customerID, "INV-2025-000301", 700.00, 5)
	receipt := testReceipt(customerID, 1500.00, 0, "")

	ledger := runChain(t, []*entity.Invoice{older, newer}, []*entity.Receipt{receipt})

	pending := ledger.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(pending))
	}
	if pending[0].InvoiceID != older.ID {
		t.Error("expected oldest invoice settled first")
	}
	if !pending[0].Amount.Equal(decimal.NewFromFloat(1000.00)) {
		t.Errorf("expected first allocation 1000.00, got %s", pending[0].Amount)
	}
	if pending[1].InvoiceID != newer.ID {
		t.Error("expected remainder on the newer invoice")
	}
	if !pending[1].Amount.Equal(decimal.NewFromFloat(500.00)) {
		t.Errorf("expected second allocation 500.00, got %s", pending[1].Amount)
	}
	if !ledger.RemainingInvoice(newer.ID).Equal(decimal.NewFromFloat(200.00)) {
		t.Errorf("expected newer invoice remaining 200.00, got %s", ledger.RemainingInvoice(newer.ID))
	}
	if !ledger.RemainingReceipt(receipt.ID).IsZero() {
		t.Errorf("expected receipt fully consumed, got %s", ledger.RemainingReceipt(receipt.ID))
	}
}

func TestStrategyChain_AmbiguousCandidatesAreDeterministic(t *testing.T) {
	customerID := uuid.New()

	build := func() ([]*entity.Invoice, []*entity.Receipt) {
		first := testInvoice(customerID, "INV-2025-000400", 500.00, 0)
		second := testInvoice(customerID, "INV-2025-000401", 500.00, 0)
		receipt := testReceipt(customerID, 500.00, 0, "")
		return []*entity.Invoice{first, second}, []*entity.Receipt{receipt}
	}

	invoices, receipts := build()
	ledger := runChain(t, invoices, receipts)

	pending := ledger.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(pending))
	}
	// Equal confidence, equal allocatable amount, equal due date: the
	// invoice number breaks the tie.
	if pending[0].InvoiceID != invoices[0].ID {
		t.Error("expected lowest invoice number to win the tie")
	}

	// Same input ordering shuffled must yield the same winner.
	for i := 0; i < 5; i++ {
		shuffledInvoices := []*entity.Invoice{invoices[1], invoices[0]}
		cfg := valueobject.DefaultMatchingConfig()
		chain, err := NewStrategyChain(cfg, nil)
		if err != nil {
			t.Fatalf("unexpected chain error: %v", err)
		}
		reLedger := NewAllocationLedger(shuffledInvoices, receipts, cfg.AmountEpsilon)
		chain.Run(reLedger)
		rePending := reLedger.Pending()
		if len(rePending) != 1 {
			t.Fatalf("expected 1 allocation, got %d", len(rePending))
		}
		if rePending[0].InvoiceID != pending[0].InvoiceID {
			t.Fatal("expected deterministic winner across runs")
		}
	}
}

func TestStrategyChain_NoCrossCustomerFuzzyMatch(t *testing.T) {
	invoice := testInvoice(uuid.New(), "INV-2025-000600", 500.00, 0)
	receipt := testReceipt(uuid.New(), 500.00, 0, "")

	cfg := valueobject.DefaultMatchingConfig()
	chain, err := NewStrategyChain(cfg, []entity.MatchStrategy{entity.StrategyExactAmount, entity.StrategyFuzzy})
	if err != nil {
		t.Fatalf("unexpected chain error: %v", err)
	}
	ledger := NewAllocationLedger([]*entity.Invoice{invoice}, []*entity.Receipt{receipt}, cfg.AmountEpsilon)
	chain.Run(ledger)

	if len(ledger.Pending()) != 0 {
		t.Error("expected no allocation across customers without a memo reference")
	}
}

func TestNewStrategyChain_UnknownStrategy(t *testing.T) {
	cfg := valueobject.DefaultMatchingConfig()
	_, err := NewStrategyChain(cfg, []entity.MatchStrategy{"levenshtein"})
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	var recErr *domainerror.ReconciliationError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected typed error, got %v", err)
	}
	if recErr.Code != domainerror.ErrCodeUnknownStrategy {
		t.Errorf("expected code %s, got %s", domainerror.ErrCodeUnknownStrategy, recErr.Code)
	}
}
