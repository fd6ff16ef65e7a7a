/*
Package incentive provides the staff incentive calculation engine.

PURPOSE:
  This package turns raw sales and review facts into per-staff monetary
  incentive amounts across four independent tracks: daily, monthly
  (cumulative), package, and gift-card. Every calculation is reproducible
  after rules change, because each sales fact carries a frozen snapshot
  of the rule that was in effect when the fact was synchronized.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A decimal-backed monetary amount (never float64)
  - Staff: The subject of every calculation (id + salary)
  - DailySalesFact: One day of sales per staff, with the applied-rule snapshot
  - TrackResult: Outcome of one track for one staff/day
  - DayBreakdown: The four tracks composed, plus the day total

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all amounts, no floating-point drift
  2. Reproducibility: facts freeze the rule they were calculated with
  3. Calculability as a value: "no data" is a result, never an exception
  4. Purity: calculation never mutates facts, rules, or payouts

USAGE:
  achieved := incentive.NewMoney(5500)
  target := incentive.NewMoney(5000)
  ev := incentive.Evaluate(achieved, target, rate, doubleRate, achieved)

SEE ALSO:
  - rule.go: Rule versions and historical resolution
  - daily.go: Daily-track calculation from frozen snapshots
  - cumulative.go: Month-to-date step-function tracks
  - aggregator.go: Track composition and range summation
*/
package incentive

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal monetary amount
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

// ParseMoney parses a decimal string. Stores reading amount columns use
// this so a corrupted value surfaces as an error, never as a silent zero.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	return Money{Value: d}, nil
}

// MustParseMoney is ParseMoney for literals known good at compile time.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(b Money) Money              { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money              { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(s decimal.Decimal) Money    { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money    { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) Round2() Money                  { return Money{Value: m.Value.Round(2)} }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) Equal(b Money) bool             { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool       { return m.Value.GreaterThan(b.Value) }
func (m Money) GreaterOrEqual(b Money) bool    { return m.Value.GreaterThanOrEqual(b.Value) }
func (m Money) LessThan(b Money) bool          { return m.Value.LessThan(b.Value) }
func (m Money) String() string                 { return m.Value.StringFixed(2) }

// JSON carries money as a decimal string, never a float.
func (m Money) MarshalJSON() ([]byte, error) { return m.Value.MarshalJSON() }
func (m *Money) UnmarshalJSON(b []byte) error { return m.Value.UnmarshalJSON(b) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type StaffID string
type TenantID string
type RuleID string
type PayoutID string
type InvoiceID string

// =============================================================================
// TRACK - The four independent incentive tracks
// =============================================================================

type Track string

const (
	TrackDaily    Track = "daily"
	TrackMonthly  Track = "monthly"
	TrackPackage  Track = "package"
	TrackGiftCard Track = "gift_card"
)

// AllTracks in aggregation order.
var AllTracks = []Track{TrackDaily, TrackMonthly, TrackPackage, TrackGiftCard}

func (t Track) Valid() bool {
	switch t {
	case TrackDaily, TrackMonthly, TrackPackage, TrackGiftCard:
		return true
	}
	return false
}

// =============================================================================
// STAFF - Subject of every calculation
// =============================================================================

type Staff struct {
	ID       StaffID
	TenantID TenantID
	Name     string
	// Salary drives the daily and monthly targets (target = salary * multiplier).
	// A staff member without a positive salary is non-calculable on those tracks.
	Salary Money
}

// =============================================================================
// DAILY SALES FACT - One row per (staff, date)
// =============================================================================

// DailySalesFact holds one day of gross sales figures for one staff member,
// together with the daily-rule snapshot frozen at synchronization time.
//
// Facts are owned by the sync process: the calculation engine only reads them.
// DiscountShare is the staff member's portion of invoice-level manual discounts
// for the day, redistributed proportionally at sync time (see discount.go).
type DailySalesFact struct {
	StaffID  StaffID
	TenantID TenantID
	Date     Day

	ServiceSale  Money
	ProductSale  Money
	PackageSale  Money
	GiftCardSale Money

	// Per-staff share of invoice-level manual discounts for the day.
	DiscountShare Money

	ReviewsWithName  int
	ReviewsWithPhoto int

	// AppliedRule is the frozen copy of the daily rule resolved when this
	// fact was last synchronized. Nil means the fact predates any rule and
	// the daily track is non-calculable for this day. Never a live lookup.
	AppliedRule *Rule

	// SyncedAt is when the fact was last written by the sync process.
	// It is the resolution timestamp for month-track rule lookups on this day.
	SyncedAt time.Time
}

// NetServiceSale is the figure every downstream target calculation uses.
// The discount subtraction happens here, exactly once.
func (f DailySalesFact) NetServiceSale() Money {
	return f.ServiceSale.Sub(f.DiscountShare)
}

// ResolutionTime returns the timestamp rule resolution should use for this
// fact's day: the sync time when known, otherwise the end of the day.
func (f DailySalesFact) ResolutionTime() time.Time {
	if !f.SyncedAt.IsZero() {
		return f.SyncedAt
	}
	return f.Date.EndOfDay()
}

// =============================================================================
// INVOICE - Read-only input for discount redistribution
// =============================================================================

type LineItemType string

const (
	ItemService LineItemType = "service"
	ItemProduct LineItemType = "product"
	ItemPackage LineItemType = "package"
	ItemGiftCard LineItemType = "gift_card"
	ItemFee     LineItemType = "fee"
)

type InvoiceLineItem struct {
	ItemType   LineItemType
	StaffID    StaffID // empty when no staff is attributed
	FinalPrice Money
	Discount   Money // line-level discount, already reflected in FinalPrice
}

// Invoice is the projection the engine needs for discount redistribution:
// line items plus the invoice-level manual discount to spread across them.
type Invoice struct {
	ID             InvoiceID
	TenantID       TenantID
	Date           Day
	LineItems      []InvoiceLineItem
	ManualDiscount Money
}

// =============================================================================
// TRACK RESULT - Outcome of one track for one staff/day
// =============================================================================

// ResultStatus distinguishes "calculated" (possibly zero) from "no data".
// A missed target is Calculated with a zero incentive; a missing salary or
// rule is NotCalculable. Reports must be able to render the difference.
type ResultStatus string

const (
	StatusCalculated    ResultStatus = "calculated"
	StatusNotCalculable ResultStatus = "not_calculable"
)

// NotCalculableReason says why a track produced no figure.
type NotCalculableReason string

const (
	ReasonMissingSalary       NotCalculableReason = "missing_salary"
	ReasonMissingRuleSnapshot NotCalculableReason = "missing_rule_snapshot"
	ReasonNoActiveRule        NotCalculableReason = "no_active_rule"
)

type TrackResult struct {
	Track  Track
	Status ResultStatus
	Reason NotCalculableReason // set only when Status == StatusNotCalculable

	Target      Money
	Achieved    Money
	Incentive   Money
	TargetMet   bool
	AppliedRate decimal.Decimal
}

// NotCalculable constructs the explicit "no data" result for a track.
func NotCalculable(track Track, reason NotCalculableReason) TrackResult {
	return TrackResult{
		Track:  track,
		Status: StatusNotCalculable,
		Reason: reason,
	}
}

// Calculable reports whether the track produced a figure at all.
func (r TrackResult) Calculable() bool { return r.Status == StatusCalculated }

// =============================================================================
// DAY BREAKDOWN - The four tracks composed for one staff/day
// =============================================================================

type DayBreakdown struct {
	StaffID StaffID
	Date    Day

	Daily    TrackResult
	Monthly  TrackResult
	Package  TrackResult
	GiftCard TrackResult

	// Total sums the incentive of every calculable track.
	// Not-calculable tracks contribute nothing but stay visible above.
	Total Money
}

func (b DayBreakdown) Tracks() []TrackResult {
	return []TrackResult{b.Daily, b.Monthly, b.Package, b.GiftCard}
}

// TrackSummary aggregates one track over a month.
type TrackSummary struct {
	Track          Track
	TotalAchieved  Money
	TotalIncentive Money
	// DaysCalculated counts days that produced a figure on this track.
	DaysCalculated int
}

// =============================================================================
// PAYOUT - A claim against earned incentives
// =============================================================================

type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "pending"
	PayoutApproved PayoutStatus = "approved"
	PayoutRejected PayoutStatus = "rejected"
)

type Payout struct {
	ID        PayoutID
	StaffID   StaffID
	TenantID  TenantID
	Amount    Money
	Reason    string
	Status    PayoutStatus
	CreatedAt time.Time
	DecidedAt time.Time // zero until approved or rejected
	DecidedBy string
}

// Committed reports whether the payout counts against available balance.
// Pending payouts hold balance; rejected ones release it.
func (p Payout) Committed() bool {
	return p.Status == PayoutApproved || p.Status == PayoutPending
}

// Balance is the earned-vs-claimed position for one staff member.
type Balance struct {
	StaffID      StaffID
	AsOf         Day
	EarnedToDate Money
	Committed    Money // approved + pending payouts
}

func (b Balance) Available() Money {
	return b.EarnedToDate.Sub(b.Committed)
}
