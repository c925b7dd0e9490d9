// Package valueobject contains domain value objects for the reconciliation system.
package valueobject

import "github.com/shopspring/decimal"

// MatchingConfig contains the tunable parameters of the matching engine.
// Epsilon and the retry ceiling are deliberately configuration rather than
// business constants.
type MatchingConfig struct {
	// AmountEpsilon is the tolerance for treating two amounts as equal.
	AmountEpsilon decimal.Decimal // default 0.01 currency unit

	// AcceptanceThreshold is the minimum confidence a candidate needs to be
	// committed as a match. Candidates below it are still returned by the
	// suggestion engine.
	AcceptanceThreshold float64 // default 0.6

	// FuzzyAmountTolerancePercent is the relative window for the reduced
	// amount credit in fuzzy scoring.
	FuzzyAmountTolerancePercent decimal.Decimal // 0.10 = 10%

	// Fuzzy date windows, in days around the invoice due date.
	FuzzyDateWindowNearDays int // default 7
	FuzzyDateWindowFarDays  int // default 30

	// ConflictRetryLimit bounds how often a version-conflicted candidate is
	// recomputed before it is escalated as a ReconciliationConflict.
	ConflictRetryLimit int // default 3

	// WorkerCount bounds the per-customer partition worker pool.
	WorkerCount int // default 4
}

// DefaultMatchingConfig returns the default matching configuration.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		AmountEpsilon:               decimal.NewFromFloat(0.01),
		AcceptanceThreshold:         0.6,
		FuzzyAmountTolerancePercent: decimal.NewFromFloat(0.10),
		FuzzyDateWindowNearDays:     7,
		FuzzyDateWindowFarDays:      30,
		ConflictRetryLimit:          3,
		WorkerCount:                 4,
	}
}

// AmountsEqual checks whether two amounts are equal within epsilon.
func (c MatchingConfig) AmountsEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(c.AmountEpsilon)
}

// AmountsWithinTolerance checks whether two amounts differ by at most the
// fuzzy percentage tolerance, relative to the reference amount.
func (c MatchingConfig) AmountsWithinTolerance(amount, reference decimal.Decimal) bool {
	if reference.IsZero() {
		return amount.IsZero()
	}
	diff := amount.Sub(reference).Abs()
	return diff.Div(reference.Abs()).LessThanOrEqual(c.FuzzyAmountTolerancePercent)
}
