/*
cumulative.go - Month-to-date step-function tracks

PURPOSE:
  The monthly, package, and gift-card tracks evaluate a target against
  MONTH-TO-DATE cumulative sales, yet incentives must be attributed per
  day. The attribution is the marginal increase of a step function:

    delta(day) = cumulativeIncentive(day) - cumulativeIncentive(day - 1)

  where cumulativeIncentive(d) evaluates the month-start..d running total
  against the rule active at d's own resolution timestamp.

WHY DELTAS:
  - Sum of all daily deltas in a month telescopes exactly to
    cumulativeIncentive(month end). No drift, restart-safe, and trivially
    parallel across staff (no incremental mutable state).
  - A day that pushes the running total across the target (or the double
    target) earns exactly the marginal amount for crossing, not a
    recomputed full-month figure.

RULE RESOLUTION PER ENDPOINT:
  Each endpoint of the subtraction resolves its rule at its own historical
  timestamp. A rule change mid-month therefore never retroactively alters
  already-settled days: yesterday's cumulative stays what yesterday's rule
  said it was, and the difference lands on the day the change took effect.

NO RULE ACTIVE:
  An endpoint with no active rule contributes a zero cumulative, so days
  before the first rule version yield zero for the track. A day whose own
  endpoint has no active rule is reported not calculable.

SEE ALSO:
  - evaluator.go: The pure evaluation both endpoints use
  - daily.go: The snapshot-based (non-cumulative) track
*/
package incentive

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONTHLY ENGINE - Salary-multiple target over cumulative sales
// =============================================================================

// MonthlyEngine attributes the monthly-track incentive per day as the
// marginal increase of the cumulative step function.
type MonthlyEngine struct {
	Resolver *RuleResolver
}

// ComputeDelta returns the monthly-track result for one staff/day.
// facts must cover the month of day up to and including day (days without
// sales may simply be absent); extra days are ignored.
func (e *MonthlyEngine) ComputeDelta(ctx context.Context, staff Staff, day Day, facts []DailySalesFact) (TrackResult, error) {
	if !staff.Salary.IsPositive() {
		return NotCalculable(TrackMonthly, ReasonMissingSalary), nil
	}

	today, err := e.cumulativeAt(ctx, staff, day, facts)
	if err != nil {
		return TrackResult{}, err
	}
	if !today.ruleActive {
		return NotCalculable(TrackMonthly, ReasonNoActiveRule), nil
	}

	yesterdayAmount := ZeroMoney()
	if day.DayOfMonth() > 1 {
		yesterday, err := e.cumulativeAt(ctx, staff, day.AddDays(-1), facts)
		if err != nil {
			return TrackResult{}, err
		}
		yesterdayAmount = yesterday.amount
	}

	return TrackResult{
		Track:       TrackMonthly,
		Status:      StatusCalculated,
		Target:      today.target,
		Achieved:    today.achieved,
		Incentive:   today.amount.Sub(yesterdayAmount),
		TargetMet:   today.targetMet,
		AppliedRate: today.appliedRate,
	}, nil
}

// cumulative is one endpoint of the delta subtraction.
type cumulative struct {
	ruleActive  bool
	target      Money
	achieved    Money
	amount      Money
	targetMet   bool
	appliedRate decimal.Decimal
}

func (e *MonthlyEngine) cumulativeAt(ctx context.Context, staff Staff, upto Day, facts []DailySalesFact) (cumulative, error) {
	rule, err := e.Resolver.Resolve(ctx, staff.TenantID, TrackMonthly, resolutionTimeFor(upto, facts))
	if errors.Is(err, ErrNoActiveRule) {
		return cumulative{}, nil
	}
	if err != nil {
		return cumulative{}, err
	}

	target := staff.Salary.Mul(rule.SalaryMultiplier)

	achieved := ZeroMoney()
	netService := ZeroMoney()
	for _, f := range monthFactsUpTo(upto, facts) {
		achieved = achieved.Add(rule.AchievedValue(f))
		netService = netService.Add(f.NetServiceSale())
	}

	base := rule.BaseValue(achieved, netService)
	ev := Evaluate(achieved, target, rule.Rate, rule.DoubleRate, base)
	return cumulative{
		ruleActive:  true,
		target:      target,
		achieved:    achieved,
		amount:      ev.Amount,
		targetMet:   ev.TargetMet,
		appliedRate: ev.AppliedRate,
	}, nil
}

// =============================================================================
// FIXED-TARGET ENGINE - Absolute monthly target (package / gift-card)
// =============================================================================

// FixedTargetEngine is the cumulative-delta engine for the package and
// gift-card tracks: the target is an absolute monthly figure, salary does
// not enter, and a single sale category is both achieved value and base.
type FixedTargetEngine struct {
	Resolver *RuleResolver
	Track    Track // TrackPackage or TrackGiftCard
}

func (e *FixedTargetEngine) ComputeDelta(ctx context.Context, staff Staff, day Day, facts []DailySalesFact) (TrackResult, error) {
	if e.Track != TrackPackage && e.Track != TrackGiftCard {
		return TrackResult{}, ErrInvalidTrack
	}

	today, err := e.cumulativeAt(ctx, staff, day, facts)
	if err != nil {
		return TrackResult{}, err
	}
	if !today.ruleActive {
		return NotCalculable(e.Track, ReasonNoActiveRule), nil
	}

	yesterdayAmount := ZeroMoney()
	if day.DayOfMonth() > 1 {
		yesterday, err := e.cumulativeAt(ctx, staff, day.AddDays(-1), facts)
		if err != nil {
			return TrackResult{}, err
		}
		yesterdayAmount = yesterday.amount
	}

	return TrackResult{
		Track:       e.Track,
		Status:      StatusCalculated,
		Target:      today.target,
		Achieved:    today.achieved,
		Incentive:   today.amount.Sub(yesterdayAmount),
		TargetMet:   today.targetMet,
		AppliedRate: today.appliedRate,
	}, nil
}

func (e *FixedTargetEngine) cumulativeAt(ctx context.Context, staff Staff, upto Day, facts []DailySalesFact) (cumulative, error) {
	rule, err := e.Resolver.Resolve(ctx, staff.TenantID, e.Track, resolutionTimeFor(upto, facts))
	if errors.Is(err, ErrNoActiveRule) {
		return cumulative{}, nil
	}
	if err != nil {
		return cumulative{}, err
	}

	achieved := ZeroMoney()
	for _, f := range monthFactsUpTo(upto, facts) {
		achieved = achieved.Add(e.saleFor(f))
	}

	ev := Evaluate(achieved, rule.AbsoluteTarget, rule.Rate, rule.DoubleRate, achieved)
	return cumulative{
		ruleActive:  true,
		target:      rule.AbsoluteTarget,
		achieved:    achieved,
		amount:      ev.Amount,
		targetMet:   ev.TargetMet,
		appliedRate: ev.AppliedRate,
	}, nil
}

func (e *FixedTargetEngine) saleFor(f DailySalesFact) Money {
	if e.Track == TrackGiftCard {
		return f.GiftCardSale
	}
	return f.PackageSale
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// monthFactsUpTo filters facts to the month of upto, from month start
// through upto inclusive.
func monthFactsUpTo(upto Day, facts []DailySalesFact) []DailySalesFact {
	month := MonthOf(upto)
	var out []DailySalesFact
	for _, f := range facts {
		if f.Date.AfterOrEqual(month.Start) && f.Date.BeforeOrEqual(upto) {
			out = append(out, f)
		}
	}
	return out
}

// resolutionTimeFor picks the rule-resolution timestamp for a day: the
// day's fact sync time when a fact exists, otherwise the end of the day.
func resolutionTimeFor(day Day, facts []DailySalesFact) time.Time {
	for _, f := range facts {
		if f.Date.Equal(day) {
			return f.ResolutionTime()
		}
	}
	return day.EndOfDay()
}
