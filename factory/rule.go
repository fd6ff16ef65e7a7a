/*
Package factory provides JSON to Go incentive rule conversion.

PURPOSE:
  Converts JSON rule definitions into incentive.Rule versions. This
  enables rule configuration without code changes - an administrator can
  define rules in JSON, and the factory creates the proper Go structs to
  append to the version log.

WHY JSON?
  - Non-developers can modify rules
  - Easy integration with admin UI
  - Version control for rule definitions
  - Database storage of rule configs

JSON SCHEMA:
  {
    "id": "daily-2025-06",
    "track": "daily",
    "effective_from": "2025-06-01T00:00:00Z",
    "salary_multiplier": 5,
    "include": ["service", "product"],
    "rate": 0.05,
    "double_rate": 0.10,
    "base": "total",
    "name_review_bonus": 200,
    "photo_review_bonus": 300
  }

  Package and gift-card tracks use "target" (an absolute monthly figure)
  instead of "salary_multiplier".

VALIDATION:
  The factory rejects definitions that would poison the version log:
  unknown tracks, missing effective_from, targets of the wrong shape for
  the track, and rates outside (0, 1].

USAGE:
  factory := NewRuleFactory()
  rule, err := factory.ParseRule(tenantID, jsonString)
  if err != nil { ... }
  store.Append(ctx, rule)

SEE ALSO:
  - incentive/rule.go: Rule type definition and resolution
  - incentive/store.go: RuleVersionStore (append-only persistence)
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salonkit/incentive-engine/incentive"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleJSON is the JSON representation of one rule version.
type RuleJSON struct {
	ID            string   `json:"id"`
	Track         string   `json:"track"`
	EffectiveFrom string   `json:"effective_from"` // RFC 3339, or YYYY-MM-DD for midnight UTC

	// Target shape. SalaryMultiplier for daily/monthly tracks; Target
	// (absolute monthly figure) for package/gift-card tracks.
	SalaryMultiplier *float64 `json:"salary_multiplier,omitempty"`
	Target           *float64 `json:"target,omitempty"`

	// Sale categories counting toward the achieved value. Defaults to the
	// track's own category for package/gift-card; required for
	// daily/monthly.
	Include []string `json:"include,omitempty"`

	Rate       float64 `json:"rate"`
	DoubleRate float64 `json:"double_rate"`

	// "total" (default) or "service_only".
	Base string `json:"base,omitempty"`

	NameReviewBonus  *float64 `json:"name_review_bonus,omitempty"`
	PhotoReviewBonus *float64 `json:"photo_review_bonus,omitempty"`
}

// =============================================================================
// RULE FACTORY
// =============================================================================

// RuleFactory converts JSON rule definitions to incentive.Rule versions.
type RuleFactory struct{}

func NewRuleFactory() *RuleFactory {
	return &RuleFactory{}
}

// ParseRule parses a JSON string into a rule version for the tenant.
func (f *RuleFactory) ParseRule(tenant incentive.TenantID, jsonStr string) (incentive.Rule, error) {
	var rj RuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return incentive.Rule{}, fmt.Errorf("failed to parse rule JSON: %w", err)
	}
	return f.FromJSON(tenant, rj)
}

// FromJSON converts RuleJSON to an incentive.Rule.
func (f *RuleFactory) FromJSON(tenant incentive.TenantID, rj RuleJSON) (incentive.Rule, error) {
	track := incentive.Track(rj.Track)
	if !track.Valid() {
		return incentive.Rule{}, fmt.Errorf("unknown track %q", rj.Track)
	}

	effectiveFrom, err := parseEffectiveFrom(rj.EffectiveFrom)
	if err != nil {
		return incentive.Rule{}, err
	}

	if rj.Rate <= 0 || rj.Rate > 1 {
		return incentive.Rule{}, fmt.Errorf("rate %v outside (0, 1]", rj.Rate)
	}
	if rj.DoubleRate < rj.Rate || rj.DoubleRate > 1 {
		return incentive.Rule{}, fmt.Errorf("double_rate %v must be in [rate, 1]", rj.DoubleRate)
	}

	rule := incentive.Rule{
		ID:            incentive.RuleID(rj.ID),
		TenantID:      tenant,
		Track:         track,
		EffectiveFrom: effectiveFrom,
		Rate:          decimal.NewFromFloat(rj.Rate),
		DoubleRate:    decimal.NewFromFloat(rj.DoubleRate),
	}

	if err := applyTarget(&rule, rj); err != nil {
		return incentive.Rule{}, err
	}

	rule.Inclusion, err = parseInclusion(track, rj.Include)
	if err != nil {
		return incentive.Rule{}, err
	}

	rule.Base, err = parseBase(rj.Base)
	if err != nil {
		return incentive.Rule{}, err
	}

	if rj.NameReviewBonus != nil {
		rule.NameReviewBonus = incentive.NewMoney(*rj.NameReviewBonus)
	}
	if rj.PhotoReviewBonus != nil {
		rule.PhotoReviewBonus = incentive.NewMoney(*rj.PhotoReviewBonus)
	}

	return rule, nil
}

// ToJSON converts a rule back to its JSON representation.
func (f *RuleFactory) ToJSON(rule incentive.Rule) RuleJSON {
	rj := RuleJSON{
		ID:            string(rule.ID),
		Track:         string(rule.Track),
		EffectiveFrom: rule.EffectiveFrom.UTC().Format(time.RFC3339),
		Base:          string(rule.Base),
	}
	rj.Rate, _ = rule.Rate.Float64()
	rj.DoubleRate, _ = rule.DoubleRate.Float64()

	if rule.SalaryBased() {
		v, _ := rule.SalaryMultiplier.Float64()
		rj.SalaryMultiplier = &v
	} else {
		v, _ := rule.AbsoluteTarget.Value.Float64()
		rj.Target = &v
	}

	if rule.Inclusion.Service {
		rj.Include = append(rj.Include, "service")
	}
	if rule.Inclusion.Product {
		rj.Include = append(rj.Include, "product")
	}
	if rule.Inclusion.Package {
		rj.Include = append(rj.Include, "package")
	}
	if rule.Inclusion.GiftCard {
		rj.Include = append(rj.Include, "gift_card")
	}

	if !rule.NameReviewBonus.IsZero() {
		v, _ := rule.NameReviewBonus.Value.Float64()
		rj.NameReviewBonus = &v
	}
	if !rule.PhotoReviewBonus.IsZero() {
		v, _ := rule.PhotoReviewBonus.Value.Float64()
		rj.PhotoReviewBonus = &v
	}

	return rj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseEffectiveFrom(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("effective_from is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid effective_from %q: want RFC 3339 or YYYY-MM-DD", s)
}

func applyTarget(rule *incentive.Rule, rj RuleJSON) error {
	switch rule.Track {
	case incentive.TrackDaily, incentive.TrackMonthly:
		if rj.SalaryMultiplier == nil || *rj.SalaryMultiplier <= 0 {
			return fmt.Errorf("track %s requires a positive salary_multiplier", rule.Track)
		}
		if rj.Target != nil {
			return fmt.Errorf("track %s takes salary_multiplier, not target", rule.Track)
		}
		rule.SalaryMultiplier = decimal.NewFromFloat(*rj.SalaryMultiplier)

	case incentive.TrackPackage, incentive.TrackGiftCard:
		if rj.Target == nil || *rj.Target <= 0 {
			return fmt.Errorf("track %s requires a positive target", rule.Track)
		}
		if rj.SalaryMultiplier != nil {
			return fmt.Errorf("track %s takes target, not salary_multiplier", rule.Track)
		}
		rule.AbsoluteTarget = incentive.NewMoney(*rj.Target)
	}
	return nil
}

func parseInclusion(track incentive.Track, include []string) (incentive.SalesInclusion, error) {
	if len(include) == 0 {
		// Package/gift-card tracks measure their own category; the
		// salary-based tracks must say what counts.
		switch track {
		case incentive.TrackPackage:
			return incentive.SalesInclusion{Package: true}, nil
		case incentive.TrackGiftCard:
			return incentive.SalesInclusion{GiftCard: true}, nil
		default:
			return incentive.SalesInclusion{}, fmt.Errorf("track %s requires an include list", track)
		}
	}

	var inc incentive.SalesInclusion
	for _, category := range include {
		switch category {
		case "service":
			inc.Service = true
		case "product":
			inc.Product = true
		case "package":
			inc.Package = true
		case "gift_card":
			inc.GiftCard = true
		default:
			return incentive.SalesInclusion{}, fmt.Errorf("unknown sale category %q", category)
		}
	}
	return inc, nil
}

func parseBase(s string) (incentive.RuleBase, error) {
	switch s {
	case "", "total":
		return incentive.BaseTotal, nil
	case "service_only":
		return incentive.BaseServiceOnly, nil
	default:
		return "", fmt.Errorf("unknown base %q", s)
	}
}

// =============================================================================
// PRESET RULES
// =============================================================================

// StandardDailyJSON builds the common daily rule: service + product sales
// against salary * multiplier / days-in-month, rate on the total.
func StandardDailyJSON(id string, effectiveFrom string, multiplier, rate, doubleRate float64) string {
	rj := RuleJSON{
		ID:               id,
		Track:            string(incentive.TrackDaily),
		EffectiveFrom:    effectiveFrom,
		SalaryMultiplier: &multiplier,
		Include:          []string{"service", "product"},
		Rate:             rate,
		DoubleRate:       doubleRate,
	}
	raw, _ := json.Marshal(rj)
	return string(raw)
}

// StandardMonthlyJSON builds the common monthly cumulative rule.
func StandardMonthlyJSON(id string, effectiveFrom string, multiplier, rate, doubleRate float64) string {
	rj := RuleJSON{
		ID:               id,
		Track:            string(incentive.TrackMonthly),
		EffectiveFrom:    effectiveFrom,
		SalaryMultiplier: &multiplier,
		Include:          []string{"service", "product"},
		Rate:             rate,
		DoubleRate:       doubleRate,
	}
	raw, _ := json.Marshal(rj)
	return string(raw)
}

// FixedTargetJSON builds a package or gift-card rule with an absolute
// monthly target.
func FixedTargetJSON(id string, track incentive.Track, effectiveFrom string, target, rate, doubleRate float64) string {
	rj := RuleJSON{
		ID:            id,
		Track:         string(track),
		EffectiveFrom: effectiveFrom,
		Target:        &target,
		Rate:          rate,
		DoubleRate:    doubleRate,
	}
	raw, _ := json.Marshal(rj)
	return string(raw)
}
