package valueobject

import (
	"fmt"
	"strings"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// Fuzzy scoring weights. The weighted sum is capped at 1.0.
const (
	fuzzyWeightSameCustomer = 0.5
	fuzzyWeightAmountEqual  = 0.4
	fuzzyWeightAmountClose  = 0.2
	fuzzyWeightDateNear     = 0.1
	fuzzyWeightDateFar      = 0.05

	referenceConfidence   = 1.0
	exactAmountConfidence = 0.9
)

// MatchFeatures captures the facts about an (invoice, receipt) pair that the
// confidence scorer consumes. Features are computed by the strategies; the
// scorer itself performs no I/O and holds no state, so identical input
// always yields an identical score.
type MatchFeatures struct {
	SameCustomer      bool
	ReferenceInMemo   bool // invoice number appears in the receipt memo
	AmountEqual       bool // within epsilon
	AmountWithin10Pct bool // within the fuzzy amount tolerance
	DaysFromDueDate   int  // |payment_date - due_date| in days
}

// Score computes the deterministic match-quality score in [0,1] for the
// given strategy and feature set.
func Score(strategy entity.MatchStrategy, f MatchFeatures, cfg MatchingConfig) float64 {
	switch strategy {
	case entity.StrategyReference:
		// No partial credit: a textual reference either matches or it does not.
		if f.ReferenceInMemo {
			return referenceConfidence
		}
		return 0

	case entity.StrategyExactAmount:
		if f.SameCustomer && f.AmountEqual {
			return exactAmountConfidence
		}
		return 0

	case entity.StrategyFuzzy:
		score := 0.0
		if f.SameCustomer {
			score += fuzzyWeightSameCustomer
		}
		if f.AmountEqual {
			score += fuzzyWeightAmountEqual
		} else if f.AmountWithin10Pct {
			score += fuzzyWeightAmountClose
		}
		if f.DaysFromDueDate <= cfg.FuzzyDateWindowNearDays {
			score += fuzzyWeightDateNear
		} else if f.DaysFromDueDate <= cfg.FuzzyDateWindowFarDays {
			score += fuzzyWeightDateFar
		}
		if score > 1.0 {
			score = 1.0
		}
		return score

	case entity.StrategyManual:
		// Operator-confirmed matches carry full confidence.
		return 1.0
	}

	return 0
}

// FuzzyReasons renders the contributing fuzzy scoring factors as a
// human-readable reason string for manual review.
func FuzzyReasons(f MatchFeatures, cfg MatchingConfig) string {
	var reasons []string
	if f.SameCustomer {
		reasons = append(reasons, "same customer")
	}
	if f.AmountEqual {
		reasons = append(reasons, "amount matches exactly")
	} else if f.AmountWithin10Pct {
		reasons = append(reasons, "amount within 10%")
	}
	if f.DaysFromDueDate <= cfg.FuzzyDateWindowNearDays {
		reasons = append(reasons, fmt.Sprintf("paid within %d days of due date", cfg.FuzzyDateWindowNearDays))
	} else if f.DaysFromDueDate <= cfg.FuzzyDateWindowFarDays {
		reasons = append(reasons, fmt.Sprintf("paid within %d days of due date", cfg.FuzzyDateWindowFarDays))
	}
	if len(reasons) == 0 {
		return "no scoring factors matched"
	}
	return strings.Join(reasons, "; ")
}
