package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMatchingConfig_AmountsEqual(t *testing.T) {
	cfg := DefaultMatchingConfig()

	t.Run("identical amounts are equal", func(t *testing.T) {
		if !cfg.AmountsEqual(decimal.NewFromFloat(100.00), decimal.NewFromFloat(100.00)) {
			t.Error("expected amounts to be equal")
		}
	})

	t.Run("difference within epsilon is equal", func(t *testing.T) {
		if !cfg.AmountsEqual(decimal.NewFromFloat(100.00), decimal.NewFromFloat(100.01)) {
			t.Error("expected amounts within epsilon to be equal")
		}
	})

	t.Run("difference beyond epsilon is not equal", func(t *testing.T) {
		if cfg.AmountsEqual(decimal.NewFromFloat(100.00), decimal.NewFromFloat(100.02)) {
			t.Error("expected amounts beyond epsilon to differ")
		}
	})
}

func TestMatchingConfig_AmountsWithinTolerance(t *testing.T) {
	cfg := DefaultMatchingConfig()

	t.Run("amount within ten percent of reference", func(t *testing.T) {
		if !cfg.AmountsWithinTolerance(decimal.NewFromFloat(905.00), decimal.NewFromFloat(1000.00)) {
			t.Error("expected amount within tolerance")
		}
	})

	t.Run("amount at exactly ten percent", func(t *testing.T) {
		if !cfg.AmountsWithinTolerance(decimal.NewFromFloat(900.00), decimal.NewFromFloat(1000.00)) {
			t.Error("expected boundary amount within tolerance")
		}
	})

	t.Run("amount beyond ten percent", func(t *testing.T) {
		if cfg.AmountsWithinTolerance(decimal.NewFromFloat(800.00), decimal.NewFromFloat(1000.00)) {
			t.Error("expected amount beyond tolerance")
		}
	})

	t.Run("zero reference only matches zero", func(t *testing.T) {
		if cfg.AmountsWithinTolerance(decimal.NewFromFloat(1.00), decimal.Zero) {
			t.Error("expected nonzero amount to miss zero reference")
		}
		if !cfg.AmountsWithinTolerance(decimal.Zero, decimal.Zero) {
			t.Error("expected zero amount to match zero reference")
		}
	})
}
