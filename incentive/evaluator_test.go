package incentive_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salonkit/incentive-engine/incentive"
)

// =============================================================================
// TEST HELPERS (shared across this package's tests)
// =============================================================================

func money(n float64) incentive.Money {
	return incentive.NewMoney(n)
}

func rate(n float64) decimal.Decimal {
	return decimal.NewFromFloat(n)
}

func date(year int, month time.Month, day int) incentive.Day {
	return incentive.NewDay(year, month, day)
}

// =============================================================================
// TARGET EVALUATOR
// =============================================================================

func TestEvaluate_BelowTarget(t *testing.T) {
	// GIVEN: achieved below target
	// WHEN: evaluating
	// THEN: zero incentive, target not met, zero applied rate

	ev := incentive.Evaluate(money(4999), money(5000), rate(0.05), rate(0.10), money(4999))

	if ev.TargetMet {
		t.Error("target should not be met below target value")
	}
	if !ev.Amount.IsZero() {
		t.Errorf("expected zero incentive, got %s", ev.Amount)
	}
	if !ev.AppliedRate.IsZero() {
		t.Errorf("expected zero applied rate, got %v", ev.AppliedRate)
	}
}

func TestEvaluate_ExactlyAtTarget(t *testing.T) {
	// GIVEN: achieved == target exactly
	// THEN: the standard rate applies (boundary is inclusive)

	ev := incentive.Evaluate(money(5000), money(5000), rate(0.05), rate(0.10), money(5000))

	if !ev.TargetMet {
		t.Error("hitting the target exactly should count as met")
	}
	if !ev.AppliedRate.Equal(rate(0.05)) {
		t.Errorf("expected standard rate, got %v", ev.AppliedRate)
	}
	if !ev.Amount.Equal(money(250)) {
		t.Errorf("expected 250.00, got %s", ev.Amount)
	}
}

func TestEvaluate_ExactlyAtDoubleTarget(t *testing.T) {
	// GIVEN: achieved == 2 * target exactly
	// THEN: the double rate replaces the standard rate

	ev := incentive.Evaluate(money(10000), money(5000), rate(0.05), rate(0.10), money(10000))

	if !ev.AppliedRate.Equal(rate(0.10)) {
		t.Errorf("expected double rate at exactly 2x target, got %v", ev.AppliedRate)
	}
	if !ev.Amount.Equal(money(1000)) {
		t.Errorf("expected 1000.00, got %s", ev.Amount)
	}
}

func TestEvaluate_JustUnderDoubleTarget(t *testing.T) {
	ev := incentive.Evaluate(money(9999.99), money(5000), rate(0.05), rate(0.10), money(9999.99))

	if !ev.AppliedRate.Equal(rate(0.05)) {
		t.Errorf("expected standard rate just under 2x target, got %v", ev.AppliedRate)
	}
}

func TestEvaluate_BaseValueIndependentOfAchieved(t *testing.T) {
	// GIVEN: a rule whose base is service-only (base differs from achieved)
	// THEN: the rate multiplies the base, while the tier comes from achieved

	ev := incentive.Evaluate(money(5500), money(5000), rate(0.05), rate(0.10), money(4000))

	if !ev.Amount.Equal(money(200)) {
		t.Errorf("expected 4000 * 0.05 = 200.00, got %s", ev.Amount)
	}
}

func TestEvaluate_Monotonic(t *testing.T) {
	// GIVEN: a fixed rule
	// WHEN: achieved value increases (base tracking achieved)
	// THEN: the incentive amount never decreases

	target := money(5000)
	prev := incentive.ZeroMoney()
	for v := 0.0; v <= 15000; v += 250 {
		achieved := money(v)
		ev := incentive.Evaluate(achieved, target, rate(0.05), rate(0.10), achieved)
		if ev.Amount.LessThan(prev) {
			t.Fatalf("incentive decreased at achieved=%v: %s < %s", v, ev.Amount, prev)
		}
		prev = ev.Amount
	}
}

func TestEvaluate_RoundsToCent(t *testing.T) {
	// 3333.33 * 0.075 = 249.99975 -> 250.00
	ev := incentive.Evaluate(money(3333.33), money(2000), rate(0.075), rate(0.15), money(3333.33))

	if !ev.Amount.Equal(money(250)) {
		t.Errorf("expected 250.00 after cent rounding, got %s", ev.Amount)
	}
}
