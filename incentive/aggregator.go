/*
aggregator.go - Track composition and range summation

PURPOSE:
  Composes the four track engines into per-day breakdowns and month
  summaries. The aggregator preserves each track's calculable /
  not-calculable distinction: a report can always tell "no data" apart
  from "target missed".

TOTALS:
  A day's total sums the incentive of every calculable track. A track
  that is not calculable contributes nothing, but its status and reason
  stay on the breakdown.

MONTH SUMMARIES:
  The daily track's monthly achieved is the sum of daily achieved values.
  The cumulative tracks already carry the running total as each day's
  achieved value, so their monthly achieved is the last calculated day's
  figure, and their monthly incentive is the telescoped sum of deltas -
  exactly the month-end cumulative incentive.

SEE ALSO:
  - daily.go, cumulative.go: The per-track engines
  - ledger.go: Uses SumRange for earned-to-date
*/
package incentive

import (
	"context"
)

// Aggregator composes the four incentive tracks.
type Aggregator struct {
	Monthly  *MonthlyEngine
	Package  *FixedTargetEngine
	GiftCard *FixedTargetEngine
}

// NewAggregator wires the cumulative engines onto one resolver.
func NewAggregator(resolver *RuleResolver) *Aggregator {
	return &Aggregator{
		Monthly:  &MonthlyEngine{Resolver: resolver},
		Package:  &FixedTargetEngine{Resolver: resolver, Track: TrackPackage},
		GiftCard: &FixedTargetEngine{Resolver: resolver, Track: TrackGiftCard},
	}
}

// ComputeDay produces the full four-track breakdown for one staff/day.
// monthFacts must cover the month of day up to and including day; days
// without sales may be absent. A day without a fact has no frozen daily
// rule, so its daily track reports missing_rule_snapshot.
func (a *Aggregator) ComputeDay(ctx context.Context, staff Staff, day Day, monthFacts []DailySalesFact) (DayBreakdown, error) {
	fact, ok := factFor(day, monthFacts)
	if !ok {
		// No sales synchronized for this day: an empty fact with no
		// snapshot, so the daily track surfaces "no data".
		fact = DailySalesFact{StaffID: staff.ID, TenantID: staff.TenantID, Date: day}
	}

	breakdown := DayBreakdown{StaffID: staff.ID, Date: day}
	breakdown.Daily = ComputeDaily(staff, fact)

	var err error
	if breakdown.Monthly, err = a.Monthly.ComputeDelta(ctx, staff, day, monthFacts); err != nil {
		return DayBreakdown{}, err
	}
	if breakdown.Package, err = a.Package.ComputeDelta(ctx, staff, day, monthFacts); err != nil {
		return DayBreakdown{}, err
	}
	if breakdown.GiftCard, err = a.GiftCard.ComputeDelta(ctx, staff, day, monthFacts); err != nil {
		return DayBreakdown{}, err
	}

	total := ZeroMoney()
	for _, tr := range breakdown.Tracks() {
		if tr.Calculable() {
			total = total.Add(tr.Incentive)
		}
	}
	breakdown.Total = total
	return breakdown, nil
}

// SumRange computes breakdowns for every day in [from, to] and the grand
// total. facts must cover every month the range touches, from each month's
// start (the cumulative tracks need the running totals).
func (a *Aggregator) SumRange(ctx context.Context, staff Staff, from, to Day, facts []DailySalesFact) ([]DayBreakdown, Money, error) {
	var breakdowns []DayBreakdown
	total := ZeroMoney()

	for _, day := range (Period{Start: from, End: to}).Days() {
		b, err := a.ComputeDay(ctx, staff, day, facts)
		if err != nil {
			return nil, Money{}, err
		}
		breakdowns = append(breakdowns, b)
		total = total.Add(b.Total)
	}
	return breakdowns, total, nil
}

// MonthSummary aggregates a full calendar month per track.
func (a *Aggregator) MonthSummary(ctx context.Context, staff Staff, month Period, facts []DailySalesFact) (map[Track]TrackSummary, error) {
	breakdowns, _, err := a.SumRange(ctx, staff, month.Start, month.End, facts)
	if err != nil {
		return nil, err
	}

	summaries := make(map[Track]TrackSummary, len(AllTracks))
	for _, track := range AllTracks {
		summaries[track] = TrackSummary{Track: track, TotalAchieved: ZeroMoney(), TotalIncentive: ZeroMoney()}
	}

	for _, b := range breakdowns {
		for _, tr := range b.Tracks() {
			if !tr.Calculable() {
				continue
			}
			s := summaries[tr.Track]
			s.DaysCalculated++
			s.TotalIncentive = s.TotalIncentive.Add(tr.Incentive)
			if tr.Track == TrackDaily {
				s.TotalAchieved = s.TotalAchieved.Add(tr.Achieved)
			} else {
				// Cumulative tracks: achieved is already month-to-date.
				s.TotalAchieved = tr.Achieved
			}
			summaries[tr.Track] = s
		}
	}
	return summaries, nil
}

func factFor(day Day, facts []DailySalesFact) (DailySalesFact, bool) {
	for _, f := range facts {
		if f.Date.Equal(day) {
			return f, true
		}
	}
	return DailySalesFact{}, false
}
