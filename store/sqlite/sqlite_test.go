package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salonkit/incentive-engine/incentive"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStaffRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	staff := incentive.Staff{
		ID:       "staff-1",
		TenantID: "tenant-1",
		Name:     "Asha",
		Salary:   incentive.NewMoney(30000),
	}
	if err := s.SaveStaff(ctx, staff); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetStaff(ctx, "tenant-1", "staff-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Asha" || !got.Salary.Equal(incentive.NewMoney(30000)) {
		t.Errorf("round trip mismatch: %+v", got)
	}

	_, err = s.GetStaff(ctx, "tenant-1", "nobody")
	if !errors.Is(err, incentive.ErrStaffNotFound) {
		t.Errorf("expected ErrStaffNotFound, got %v", err)
	}

	// Upsert keeps the same row.
	staff.Salary = incentive.NewMoney(32000)
	if err := s.SaveStaff(ctx, staff); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	all, err := s.ListStaff(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || !all[0].Salary.Equal(incentive.NewMoney(32000)) {
		t.Errorf("upsert did not replace: %+v", all)
	}
}

func TestCorruptAmountColumnIsAnError(t *testing.T) {
	// GIVEN: a stored amount column holding a non-decimal value
	// THEN: reads fail loudly instead of returning a silent zero

	s := newTestStore(t)
	ctx := context.Background()

	staff := incentive.Staff{
		ID:       "staff-1",
		TenantID: "tenant-1",
		Name:     "Asha",
		Salary:   incentive.NewMoney(30000),
	}
	if err := s.SaveStaff(ctx, staff); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE staff SET salary = 'not-a-number' WHERE id = 'staff-1'"); err != nil {
		t.Fatalf("corrupt column: %v", err)
	}

	if _, err := s.GetStaff(ctx, "tenant-1", "staff-1"); err == nil {
		t.Error("GetStaff should fail on a corrupt salary column")
	}
	if _, err := s.ListStaff(ctx, "tenant-1"); err == nil {
		t.Error("ListStaff should fail on a corrupt salary column")
	}
}

func TestRuleVersionOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mk := func(id string, effective time.Time) incentive.Rule {
		return incentive.Rule{
			ID:               incentive.RuleID(id),
			TenantID:         "tenant-1",
			Track:            incentive.TrackMonthly,
			EffectiveFrom:    effective,
			SalaryMultiplier: decimal.NewFromInt(5),
			Rate:             decimal.NewFromFloat(0.05),
			DoubleRate:       decimal.NewFromFloat(0.10),
			Inclusion:        incentive.SalesInclusion{Service: true},
			Base:             incentive.BaseTotal,
		}
	}

	// Appended out of order.
	jun := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range []incentive.Rule{
		mk("r-3", jun.AddDate(0, 2, 0)),
		mk("r-1", jun),
		mk("r-2", jun.AddDate(0, 1, 0)),
	} {
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	versions, err := s.Versions(ctx, "tenant-1", incentive.TrackMonthly)
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	for i, want := range []incentive.RuleID{"r-1", "r-2", "r-3"} {
		if versions[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, versions[i].ID)
		}
	}
	if !versions[0].Rate.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("rate lost in serialization: %s", versions[0].Rate)
	}

	other, err := s.Versions(ctx, "tenant-1", incentive.TrackPackage)
	if err != nil {
		t.Fatalf("versions (package): %v", err)
	}
	if len(other) != 0 {
		t.Errorf("tracks must not share versions, got %d", len(other))
	}
}

func TestFactReplaceDayPreservesSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := incentive.NewDay(2025, time.June, 10)

	rule := incentive.Rule{
		ID:               "d-1",
		TenantID:         "tenant-1",
		Track:            incentive.TrackDaily,
		EffectiveFrom:    time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		SalaryMultiplier: decimal.NewFromInt(5),
		Rate:             decimal.NewFromFloat(0.05),
		DoubleRate:       decimal.NewFromFloat(0.10),
		Inclusion:        incentive.SalesInclusion{Service: true, Product: true},
		Base:             incentive.BaseTotal,
	}

	facts := []incentive.DailySalesFact{
		{
			StaffID:       "staff-1",
			TenantID:      "tenant-1",
			Date:          day,
			ServiceSale:   incentive.NewMoney(4000),
			ProductSale:   incentive.NewMoney(1500),
			DiscountShare: incentive.MustParseMoney("33.33"),
			AppliedRule:   rule.Snapshot(),
			SyncedAt:      day.EndOfDay(),
		},
		{
			StaffID:  "staff-2",
			TenantID: "tenant-1",
			Date:     day,
			SyncedAt: day.EndOfDay(),
		},
	}
	if err := s.ReplaceDay(ctx, "tenant-1", day, facts); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := s.FactsInRange(ctx, "tenant-1", "staff-1", day, day)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(got))
	}
	f := got[0]
	if f.AppliedRule == nil || f.AppliedRule.ID != "d-1" {
		t.Fatal("frozen snapshot lost in round trip")
	}
	if !f.AppliedRule.Rate.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("snapshot rate mangled: %s", f.AppliedRule.Rate)
	}
	if !f.DiscountShare.Equal(incentive.MustParseMoney("33.33")) {
		t.Errorf("discount share mangled: %s", f.DiscountShare)
	}
	if !f.NetServiceSale().Equal(incentive.MustParseMoney("3966.67")) {
		t.Errorf("net service: %s", f.NetServiceSale())
	}

	// staff-2 synced with no daily rule active: snapshot stays nil.
	got2, err := s.FactsInRange(ctx, "tenant-1", "staff-2", day, day)
	if err != nil {
		t.Fatalf("read staff-2: %v", err)
	}
	if len(got2) != 1 || got2[0].AppliedRule != nil {
		t.Error("nil snapshot must survive the round trip as nil")
	}

	// Re-sync replaces the day wholesale.
	if err := s.ReplaceDay(ctx, "tenant-1", day, facts[:1]); err != nil {
		t.Fatalf("re-replace: %v", err)
	}
	got2, err = s.FactsInRange(ctx, "tenant-1", "staff-2", day, day)
	if err != nil {
		t.Fatalf("re-read staff-2: %v", err)
	}
	if len(got2) != 0 {
		t.Error("re-sync must drop rows not in the new set")
	}
}

func TestPayoutLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := incentive.Payout{
		ID:        "p-1",
		StaffID:   "staff-1",
		TenantID:  "tenant-1",
		Amount:    incentive.NewMoney(3000),
		Reason:    "advance",
		Status:    incentive.PayoutPending,
		CreatedAt: time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC),
	}
	if err := s.CreatePayout(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err := s.PendingPayouts(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "p-1" {
		t.Fatalf("expected pending p-1, got %+v", pending)
	}

	decided, err := s.DecidePayout(ctx, "p-1", incentive.PayoutApproved, "manager")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != incentive.PayoutApproved || decided.DecidedBy != "manager" {
		t.Errorf("decision not recorded: %+v", decided)
	}
	if decided.DecidedAt.IsZero() {
		t.Error("decided_at must be set")
	}

	// A second decision must fail; the first one stands.
	_, err = s.DecidePayout(ctx, "p-1", incentive.PayoutRejected, "other")
	if !errors.Is(err, incentive.ErrPayoutDecided) {
		t.Errorf("expected ErrPayoutDecided, got %v", err)
	}

	_, err = s.GetPayout(ctx, "p-404")
	if !errors.Is(err, incentive.ErrPayoutNotFound) {
		t.Errorf("expected ErrPayoutNotFound, got %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("balance check failed")
	err := s.WithTx(ctx, func(tx incentive.PayoutStore) error {
		if err := tx.CreatePayout(ctx, incentive.Payout{
			ID: "p-1", StaffID: "staff-1", TenantID: "tenant-1",
			Amount: incentive.NewMoney(100), Status: incentive.PayoutPending,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	_, err = s.GetPayout(ctx, "p-1")
	if !errors.Is(err, incentive.ErrPayoutNotFound) {
		t.Error("rolled-back payout must not be visible")
	}
}

func TestInvoiceUpsertByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := incentive.NewDay(2025, time.June, 10)

	inv := incentive.Invoice{
		ID:             "inv-1",
		TenantID:       "tenant-1",
		Date:           day,
		ManualDiscount: incentive.NewMoney(100),
		LineItems: []incentive.InvoiceLineItem{
			{ItemType: incentive.ItemService, StaffID: "alice", FinalPrice: incentive.NewMoney(300)},
			{ItemType: incentive.ItemService, StaffID: "bob", FinalPrice: incentive.NewMoney(700)},
		},
	}
	if err := s.SaveInvoice(ctx, inv); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Correction drops bob's line.
	inv.LineItems = inv.LineItems[:1]
	if err := s.SaveInvoice(ctx, inv); err != nil {
		t.Fatalf("correct: %v", err)
	}

	got, err := s.InvoicesOn(ctx, "tenant-1", day)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(got))
	}
	if len(got[0].LineItems) != 1 || got[0].LineItems[0].StaffID != "alice" {
		t.Errorf("correction not applied: %+v", got[0].LineItems)
	}
	if !got[0].ManualDiscount.Equal(incentive.NewMoney(100)) {
		t.Errorf("discount mangled: %s", got[0].ManualDiscount)
	}
}
