/*
evaluator.go - Target evaluation

PURPOSE:
  The single pure function every track delegates to: given an achieved
  value, a target, the two rates, and the base value, decide the tier
  (unmet / met / doubled) and the incentive amount.

TIER BOUNDARIES (inclusive):
  achieved <  target      -> unmet, zero incentive
  achieved >= target      -> Rate applies
  achieved >= 2 * target  -> DoubleRate replaces Rate

  Hitting the boundary exactly counts as crossing it.

NO SIDE EFFECTS:
  Evaluate reads nothing and writes nothing. The cumulative tracks rely
  on this purity: they call it twice (today, yesterday) and subtract.

SEE ALSO:
  - daily.go, cumulative.go: Callers
*/
package incentive

import (
	"github.com/shopspring/decimal"
)

// Evaluation is the outcome of measuring an achieved value against a target.
type Evaluation struct {
	Amount      Money
	TargetMet   bool
	AppliedRate decimal.Decimal
}

// Evaluate measures achieved against target and applies the matching rate
// to base. Amounts are rounded to the cent; because the cumulative tracks
// difference two Evaluate results, consistent rounding here is what makes
// daily deltas telescope exactly to the month-end figure.
func Evaluate(achieved, target Money, rate, doubleRate decimal.Decimal, base Money) Evaluation {
	if achieved.LessThan(target) {
		return Evaluation{Amount: ZeroMoney(), TargetMet: false, AppliedRate: decimal.Zero}
	}

	applied := rate
	if achieved.GreaterOrEqual(target.Mul(decimal.NewFromInt(2))) {
		applied = doubleRate
	}

	return Evaluation{
		Amount:      base.Mul(applied).Round2(),
		TargetMet:   true,
		AppliedRate: applied,
	}
}
