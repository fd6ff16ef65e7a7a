/*
daily.go - Daily-track incentive calculation

PURPOSE:
  Computes the daily-track incentive for one staff/day from the rule
  snapshot frozen onto the sales fact at sync time.

WHY THE SNAPSHOT:
  Re-resolving the rule at report time would silently rewrite history
  whenever rules change. A fact without a snapshot is therefore reported
  as not calculable - never calculated from whatever rule is active "now".

TARGET:
  target = salary * rule.SalaryMultiplier / daysInCalendarMonth(date)

ACHIEVED:
  Sum of the rule's included sale categories (net service sale, see
  discount.go) plus the per-review bonuses.

SEE ALSO:
  - evaluator.go: The tier/rate decision delegated to
  - aggregator.go: Composes this with the cumulative tracks
*/
package incentive

import (
	"github.com/shopspring/decimal"
)

// ComputeDaily produces the daily-track result for one staff/day.
// The fact's frozen AppliedRule is used; absence of a snapshot or of a
// positive salary makes the day not calculable for this track.
func ComputeDaily(staff Staff, fact DailySalesFact) TrackResult {
	if !staff.Salary.IsPositive() {
		return NotCalculable(TrackDaily, ReasonMissingSalary)
	}
	rule := fact.AppliedRule
	if rule == nil {
		return NotCalculable(TrackDaily, ReasonMissingRuleSnapshot)
	}

	daysInMonth := decimal.NewFromInt(int64(fact.Date.DaysInMonth()))
	target := staff.Salary.Mul(rule.SalaryMultiplier).Div(daysInMonth)

	achieved := rule.AchievedValue(fact)
	base := rule.BaseValue(achieved, fact.NetServiceSale())

	ev := Evaluate(achieved, target, rule.Rate, rule.DoubleRate, base)
	return TrackResult{
		Track:       TrackDaily,
		Status:      StatusCalculated,
		Target:      target,
		Achieved:    achieved,
		Incentive:   ev.Amount,
		TargetMet:   ev.TargetMet,
		AppliedRate: ev.AppliedRate,
	}
}
