/*
rule.go - Versioned incentive rules and historical resolution

PURPOSE:
  Defines the ruleset that governs each incentive track: what the target
  is, which sale categories count toward it, and which rates apply once
  the target (or double the target) is met.

VERSIONING:
  Rules are never edited in place. Every edit appends a new version with a
  later EffectiveFrom. Resolution answers "which version was in effect at
  instant T?" - callers always pass the timestamp relevant to the data
  being evaluated, never "now" implicitly. This is what keeps historical
  reports stable while rules evolve.

TARGET SHAPES:
  Daily/monthly tracks: target = salary * SalaryMultiplier
    (the daily track further divides by the days in the calendar month)
  Package/gift-card tracks: target = AbsoluteValue, a fixed monthly figure
    independent of salary.

RATES:
  Rate applies once achieved >= target.
  DoubleRate replaces it once achieved >= 2 * target.
  The rate multiplies the base value: either the total achieved value or
  the net service sale only, per Base.

EXAMPLE:
  rule := incentive.Rule{
      Track:            incentive.TrackDaily,
      SalaryMultiplier: decimal.NewFromInt(5),
      Rate:             decimal.NewFromFloat(0.05),
      DoubleRate:       decimal.NewFromFloat(0.10),
      Base:             incentive.BaseTotal,
      Inclusion:        incentive.SalesInclusion{Service: true, Product: true},
  }

SEE ALSO:
  - store.go: RuleVersionStore (append-only persistence)
  - daily.go: Consumes frozen snapshots of daily rules
  - cumulative.go: Resolves monthly/package/gift-card rules per endpoint
*/
package incentive

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RULE - One immutable version
// =============================================================================

// RuleBase selects the figure the incentive rate multiplies.
type RuleBase string

const (
	// BaseTotal applies the rate to the total achieved value.
	BaseTotal RuleBase = "total"
	// BaseServiceOnly applies the rate to the net service sale only.
	BaseServiceOnly RuleBase = "service_only"
)

// SalesInclusion flags which sale categories count toward the achieved value.
type SalesInclusion struct {
	Service  bool
	Product  bool
	Package  bool
	GiftCard bool
}

// Rule is one immutable version of an incentive rule, keyed by
// (tenant, track, effective-from). Editing a rule appends a new version.
type Rule struct {
	ID            RuleID
	TenantID      TenantID
	Track         Track
	EffectiveFrom time.Time

	// Target. SalaryMultiplier for daily/monthly; AbsoluteTarget for
	// package/gift-card. Exactly one is meaningful per track.
	SalaryMultiplier decimal.Decimal
	AbsoluteTarget   Money

	// Which sale categories count toward the achieved value.
	Inclusion SalesInclusion

	// Fixed per-review bonus amounts, daily track only.
	NameReviewBonus  Money
	PhotoReviewBonus Money

	// Rate once target is met; DoubleRate once double-target is met.
	Rate       decimal.Decimal
	DoubleRate decimal.Decimal

	// What the rate multiplies.
	Base RuleBase
}

// SalaryBased reports whether this rule's target scales with salary.
func (r Rule) SalaryBased() bool {
	return r.Track == TrackDaily || r.Track == TrackMonthly
}

// Snapshot returns a frozen copy suitable for stamping onto a sales fact.
// The copy shares no mutable state with the version log.
func (r Rule) Snapshot() *Rule {
	cp := r
	return &cp
}

// AchievedValue sums the included sale categories of a fact, using the net
// service sale, plus the per-review bonuses. This is the figure measured
// against the target.
func (r Rule) AchievedValue(f DailySalesFact) Money {
	achieved := ZeroMoney()
	if r.Inclusion.Service {
		achieved = achieved.Add(f.NetServiceSale())
	}
	if r.Inclusion.Product {
		achieved = achieved.Add(f.ProductSale)
	}
	if r.Inclusion.Package {
		achieved = achieved.Add(f.PackageSale)
	}
	if r.Inclusion.GiftCard {
		achieved = achieved.Add(f.GiftCardSale)
	}
	if !r.NameReviewBonus.IsZero() && f.ReviewsWithName > 0 {
		achieved = achieved.Add(r.NameReviewBonus.Mul(decimal.NewFromInt(int64(f.ReviewsWithName))))
	}
	if !r.PhotoReviewBonus.IsZero() && f.ReviewsWithPhoto > 0 {
		achieved = achieved.Add(r.PhotoReviewBonus.Mul(decimal.NewFromInt(int64(f.ReviewsWithPhoto))))
	}
	return achieved
}

// BaseValue picks the figure the rate multiplies, given the achieved total
// and the net service component of it.
func (r Rule) BaseValue(achieved, netService Money) Money {
	if r.Base == BaseServiceOnly {
		return netService
	}
	return achieved
}

// =============================================================================
// RULE VERSION STORE - Append-only version log (external collaborator)
// =============================================================================

// RuleVersionStore holds the append-only sequence of rule versions.
// Implementations must never mutate a stored version.
type RuleVersionStore interface {
	// Append adds a new rule version.
	Append(ctx context.Context, rule Rule) error

	// Versions returns all versions for a tenant+track, ordered by
	// EffectiveFrom ascending, ties by ID ascending.
	Versions(ctx context.Context, tenant TenantID, track Track) ([]Rule, error)
}

// =============================================================================
// RULE RESOLVER - (track, timestamp) -> version
// =============================================================================

// RuleResolver answers which rule version was in effect at an instant.
// There is deliberately no notion of "the current rule": callers pass the
// timestamp relevant to the data under evaluation (a fact's sync time for
// historical recompute, time.Now() only when freezing a fresh snapshot).
type RuleResolver struct {
	Store RuleVersionStore
}

func NewRuleResolver(store RuleVersionStore) *RuleResolver {
	return &RuleResolver{Store: store}
}

// Resolve returns the version with the latest EffectiveFrom <= asOf,
// ties broken by the latest ID. ErrNoActiveRule when none qualifies;
// the caller must propagate that as a not-calculable track, never
// substitute a default.
func (rr *RuleResolver) Resolve(ctx context.Context, tenant TenantID, track Track, asOf time.Time) (*Rule, error) {
	versions, err := rr.Store.Versions(ctx, tenant, track)
	if err != nil {
		return nil, err
	}

	var active *Rule
	for i := range versions {
		v := versions[i]
		if v.EffectiveFrom.After(asOf) {
			continue
		}
		if active == nil ||
			v.EffectiveFrom.After(active.EffectiveFrom) ||
			(v.EffectiveFrom.Equal(active.EffectiveFrom) && v.ID > active.ID) {
			active = &versions[i]
		}
	}
	if active == nil {
		return nil, ErrNoActiveRule
	}
	return active.Snapshot(), nil
}
