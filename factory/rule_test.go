package factory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salonkit/incentive-engine/incentive"
)

func TestParseRule_Daily(t *testing.T) {
	f := NewRuleFactory()

	rule, err := f.ParseRule("tenant-1", `{
		"id": "daily-2025-06",
		"track": "daily",
		"effective_from": "2025-06-01",
		"salary_multiplier": 5,
		"include": ["service", "product"],
		"rate": 0.05,
		"double_rate": 0.10,
		"name_review_bonus": 200,
		"photo_review_bonus": 300
	}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if rule.Track != incentive.TrackDaily {
		t.Errorf("track: %s", rule.Track)
	}
	if !rule.EffectiveFrom.Equal(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("effective_from: %s", rule.EffectiveFrom)
	}
	if !rule.SalaryMultiplier.Equal(decimal.NewFromInt(5)) {
		t.Errorf("multiplier: %s", rule.SalaryMultiplier)
	}
	if !rule.Inclusion.Service || !rule.Inclusion.Product || rule.Inclusion.Package {
		t.Errorf("inclusion: %+v", rule.Inclusion)
	}
	if rule.Base != incentive.BaseTotal {
		t.Errorf("base should default to total, got %s", rule.Base)
	}
	if !rule.NameReviewBonus.Equal(incentive.NewMoney(200)) {
		t.Errorf("name bonus: %s", rule.NameReviewBonus)
	}
}

func TestParseRule_PackageDefaultsToOwnCategory(t *testing.T) {
	f := NewRuleFactory()

	rule, err := f.ParseRule("tenant-1", FixedTargetJSON("pkg-1", incentive.TrackPackage, "2025-06-01", 50000, 0.03, 0.06))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !rule.AbsoluteTarget.Equal(incentive.NewMoney(50000)) {
		t.Errorf("target: %s", rule.AbsoluteTarget)
	}
	if !rule.Inclusion.Package || rule.Inclusion.Service {
		t.Errorf("package track should default to its own category: %+v", rule.Inclusion)
	}
}

func TestParseRule_Rejections(t *testing.T) {
	f := NewRuleFactory()

	cases := []struct {
		name string
		json string
	}{
		{"unknown track", `{"id":"x","track":"hourly","effective_from":"2025-06-01","salary_multiplier":5,"include":["service"],"rate":0.05,"double_rate":0.10}`},
		{"missing effective_from", `{"id":"x","track":"daily","salary_multiplier":5,"include":["service"],"rate":0.05,"double_rate":0.10}`},
		{"zero rate", `{"id":"x","track":"daily","effective_from":"2025-06-01","salary_multiplier":5,"include":["service"],"rate":0,"double_rate":0.10}`},
		{"double rate below rate", `{"id":"x","track":"daily","effective_from":"2025-06-01","salary_multiplier":5,"include":["service"],"rate":0.10,"double_rate":0.05}`},
		{"daily without multiplier", `{"id":"x","track":"daily","effective_from":"2025-06-01","include":["service"],"rate":0.05,"double_rate":0.10}`},
		{"daily with absolute target", `{"id":"x","track":"daily","effective_from":"2025-06-01","salary_multiplier":5,"target":1000,"include":["service"],"rate":0.05,"double_rate":0.10}`},
		{"package without target", `{"id":"x","track":"package","effective_from":"2025-06-01","rate":0.03,"double_rate":0.06}`},
		{"monthly without include", `{"id":"x","track":"monthly","effective_from":"2025-06-01","salary_multiplier":5,"rate":0.05,"double_rate":0.10}`},
		{"unknown category", `{"id":"x","track":"daily","effective_from":"2025-06-01","salary_multiplier":5,"include":["tips"],"rate":0.05,"double_rate":0.10}`},
		{"unknown base", `{"id":"x","track":"daily","effective_from":"2025-06-01","salary_multiplier":5,"include":["service"],"base":"gross","rate":0.05,"double_rate":0.10}`},
	}
	for _, c := range cases {
		if _, err := f.ParseRule("tenant-1", c.json); err == nil {
			t.Errorf("%s: expected an error", c.name)
		}
	}
}

func TestPresetsRoundTrip(t *testing.T) {
	f := NewRuleFactory()

	rule, err := f.ParseRule("tenant-1", StandardMonthlyJSON("m-1", "2025-06-01T00:00:00Z", 5, 0.05, 0.10))
	if err != nil {
		t.Fatalf("parse preset: %v", err)
	}

	back := f.ToJSON(rule)
	again, err := f.FromJSON("tenant-1", back)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}

	if again.Track != rule.Track || !again.Rate.Equal(rule.Rate) || !again.SalaryMultiplier.Equal(rule.SalaryMultiplier) {
		t.Errorf("round trip diverged: %+v vs %+v", again, rule)
	}
	if again.Inclusion != rule.Inclusion {
		t.Errorf("inclusion diverged: %+v vs %+v", again.Inclusion, rule.Inclusion)
	}
}
