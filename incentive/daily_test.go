package incentive_test

import (
	"testing"
	"time"

	"github.com/salonkit/incentive-engine/incentive"
)

func TestDaily_TargetScalesWithMonthLength(t *testing.T) {
	// GIVEN: salary 30000, multiplier 5, a 30-day month
	// THEN: the daily target is 150000 / 30 = 5000

	staff := testStaff(30000)
	f := fact(date(2025, time.June, 10), 4000, 1500)
	rule := dailyRule("d-1", date(2025, time.June, 1), 0.05, 0.10)
	f.AppliedRule = rule.Snapshot()

	res := incentive.ComputeDaily(staff, f)
	if !res.Calculable() {
		t.Fatalf("expected a calculated result, got %s", res.Reason)
	}
	if !res.Target.Equal(money(5000)) {
		t.Errorf("expected target 5000.00, got %s", res.Target)
	}
	// Achieved 4000 + 1500 = 5500 >= 5000 -> 5500 * 0.05 = 275.00
	if !res.Incentive.Equal(money(275)) {
		t.Errorf("expected incentive 275.00, got %s", res.Incentive)
	}
	if !res.TargetMet {
		t.Error("5500 against 5000 should meet the target")
	}

	// February of a non-leap year: same salary, 28 days -> target 5357.14...
	feb := fact(date(2025, time.February, 10), 5300, 0)
	feb.AppliedRule = rule.Snapshot()
	febRes := incentive.ComputeDaily(staff, feb)
	if febRes.TargetMet {
		t.Error("5300 is below the 28-day target and should not pay out")
	}
	if !febRes.Incentive.IsZero() {
		t.Errorf("below target should earn nothing, got %s", febRes.Incentive)
	}
}

func TestDaily_DiscountShareReducesServiceOnly(t *testing.T) {
	// GIVEN: service 4000 carrying a 500 discount share, product 1500
	// THEN: achieved = (4000 - 500) + 1500 = 5000, exactly at target

	staff := testStaff(30000)
	f := fact(date(2025, time.June, 10), 4000, 1500)
	f.DiscountShare = money(500)
	rule := dailyRule("d-1", date(2025, time.June, 1), 0.05, 0.10)
	f.AppliedRule = rule.Snapshot()

	res := incentive.ComputeDaily(staff, f)
	if !res.Achieved.Equal(money(5000)) {
		t.Errorf("expected achieved 5000.00, got %s", res.Achieved)
	}
	if !res.TargetMet {
		t.Error("exactly at target must count as met")
	}
	if !res.Incentive.Equal(money(250)) {
		t.Errorf("expected 5000 * 0.05 = 250.00, got %s", res.Incentive)
	}
}

func TestDaily_MissingSalaryNotCalculable(t *testing.T) {
	f := fact(date(2025, time.June, 10), 9000, 0)
	rule := dailyRule("d-1", date(2025, time.June, 1), 0.05, 0.10)
	f.AppliedRule = rule.Snapshot()

	res := incentive.ComputeDaily(testStaff(0), f)
	if res.Calculable() {
		t.Fatal("zero salary must yield not-calculable, never a silent zero")
	}
	if res.Reason != incentive.ReasonMissingSalary {
		t.Errorf("expected missing_salary, got %s", res.Reason)
	}
}

func TestDaily_MissingSnapshotNotCalculable(t *testing.T) {
	// A fact synced while no daily rule was active carries no frozen rule.
	f := fact(date(2025, time.June, 10), 9000, 0)

	res := incentive.ComputeDaily(testStaff(30000), f)
	if res.Calculable() {
		t.Fatal("a fact without a frozen rule must be not-calculable")
	}
	if res.Reason != incentive.ReasonMissingRuleSnapshot {
		t.Errorf("expected missing_rule_snapshot, got %s", res.Reason)
	}
}

func TestDaily_ServiceOnlyBase(t *testing.T) {
	// GIVEN: a rule that counts service + product toward the target but
	//        pays the rate on net service alone
	// THEN: target check uses 5500, payout uses 3500

	staff := testStaff(30000)
	f := fact(date(2025, time.June, 10), 4000, 1500)
	f.DiscountShare = money(500)
	rule := dailyRule("d-1", date(2025, time.June, 1), 0.05, 0.10)
	rule.Base = incentive.BaseServiceOnly
	f.AppliedRule = rule.Snapshot()

	res := incentive.ComputeDaily(staff, f)
	if !res.Achieved.Equal(money(5000)) {
		t.Errorf("achieved should still include product: got %s", res.Achieved)
	}
	// Net service 3500 * 0.05 = 175.00
	if !res.Incentive.Equal(money(175)) {
		t.Errorf("expected 175.00 on the service-only base, got %s", res.Incentive)
	}
}

func TestDaily_ReviewBonusesCountTowardTarget(t *testing.T) {
	// GIVEN: named reviews worth 200 each and photo reviews worth 300 each
	// THEN: 2 named + 1 photo add 700 to the achieved value

	staff := testStaff(30000)
	f := fact(date(2025, time.June, 10), 4000, 300)
	f.ReviewsWithName = 2
	f.ReviewsWithPhoto = 1
	rule := dailyRule("d-1", date(2025, time.June, 1), 0.05, 0.10)
	rule.NameReviewBonus = money(200)
	rule.PhotoReviewBonus = money(300)
	f.AppliedRule = rule.Snapshot()

	res := incentive.ComputeDaily(staff, f)
	if !res.Achieved.Equal(money(5000)) {
		t.Errorf("expected 4000 + 300 + 700 = 5000, got %s", res.Achieved)
	}
	if !res.TargetMet {
		t.Error("review bonuses should push the day over target")
	}
}

func TestDaily_DoubleRateAtTwiceTarget(t *testing.T) {
	staff := testStaff(30000)
	f := fact(date(2025, time.June, 10), 10000, 0)
	rule := dailyRule("d-1", date(2025, time.June, 1), 0.05, 0.10)
	f.AppliedRule = rule.Snapshot()

	res := incentive.ComputeDaily(staff, f)
	// 10000 == 2 * 5000: the double rate applies at exactly twice target.
	if !res.Incentive.Equal(money(1000)) {
		t.Errorf("expected 10000 * 0.10 = 1000.00, got %s", res.Incentive)
	}
	if !res.AppliedRate.Equal(rate(0.10)) {
		t.Errorf("expected applied rate 0.10, got %s", res.AppliedRate)
	}
}
