package incentive_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonkit/incentive-engine/incentive"
	"github.com/salonkit/incentive-engine/incentive/store"
)

// newLedgerFixture seeds a month where the staff member has earned exactly
// 8000: a monthly rule at rate 0.05 and ten days of sales totalling 160000,
// crossing the 150000 target.
func newLedgerFixture(t *testing.T) (*incentive.PayoutLedger, incentive.Staff) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	require.NoError(t, mem.Append(ctx, monthlyRule("m-1", startOfMonthUTC(2025, time.June), 0.05, 0.10)))

	var facts []incentive.DailySalesFact
	for d := 1; d <= 10; d++ {
		facts = append(facts, fact(date(2025, time.June, d), 16000, 0))
	}
	for d := 1; d <= 10; d++ {
		require.NoError(t, mem.ReplaceDay(ctx, testTenant, date(2025, time.June, d), facts[d-1:d]))
	}

	ledger := incentive.NewPayoutLedger(mem, mem, incentive.NewAggregator(incentive.NewRuleResolver(mem)))
	ledger.Now = func() time.Time { return date(2025, time.June, 30).EndOfDay() }
	return ledger, testStaff(30000)
}

func TestLedger_AvailableBalance(t *testing.T) {
	ledger, staff := newLedgerFixture(t)
	ctx := context.Background()

	balance, err := ledger.AvailableBalance(ctx, staff, date(2025, time.June, 30))
	require.NoError(t, err)

	assert.True(t, balance.EarnedToDate.Equal(money(8000)), "earned: got %s", balance.EarnedToDate)
	assert.True(t, balance.Committed.IsZero())
	assert.True(t, balance.Available().Equal(money(8000)))
}

func TestLedger_PendingPayoutHoldsBalance(t *testing.T) {
	ledger, staff := newLedgerFixture(t)
	ctx := context.Background()

	payout, err := ledger.RequestPayout(ctx, staff, money(3000), "advance")
	require.NoError(t, err)
	assert.Equal(t, incentive.PayoutPending, payout.Status)

	balance, err := ledger.AvailableBalance(ctx, staff, date(2025, time.June, 30))
	require.NoError(t, err)
	assert.True(t, balance.Committed.Equal(money(3000)), "pending must hold balance")
	assert.True(t, balance.Available().Equal(money(5000)))
}

func TestLedger_InsufficientBalanceRejectedAtomically(t *testing.T) {
	ledger, staff := newLedgerFixture(t)
	ctx := context.Background()

	_, err := ledger.RequestPayout(ctx, staff, money(5000), "first")
	require.NoError(t, err)

	// 5000 already held; 4000 exceeds the remaining 3000.
	_, err = ledger.RequestPayout(ctx, staff, money(4000), "second")
	require.Error(t, err)
	assert.True(t, errors.Is(err, incentive.ErrInsufficientBalance))

	var ibe *incentive.InsufficientBalanceError
	require.True(t, errors.As(err, &ibe))
	assert.True(t, ibe.Available.Equal(money(3000)), "error should carry the real remainder, got %s", ibe.Available)
	assert.True(t, ibe.Requested.Equal(money(4000)))

	// The failed request must leave no record behind.
	balance, err := ledger.AvailableBalance(ctx, staff, date(2025, time.June, 30))
	require.NoError(t, err)
	assert.True(t, balance.Committed.Equal(money(5000)), "rejected request must not be recorded")
}

func TestLedger_ExactBalanceRequestSucceeds(t *testing.T) {
	ledger, staff := newLedgerFixture(t)
	ctx := context.Background()

	_, err := ledger.RequestPayout(ctx, staff, money(8000), "everything")
	require.NoError(t, err)

	balance, err := ledger.AvailableBalance(ctx, staff, date(2025, time.June, 30))
	require.NoError(t, err)
	assert.True(t, balance.Available().IsZero())

	// And nothing more.
	_, err = ledger.RequestPayout(ctx, staff, money(0.01), "one cent too far")
	assert.True(t, errors.Is(err, incentive.ErrInsufficientBalance))
}

func TestLedger_RejectionReleasesBalance(t *testing.T) {
	ledger, staff := newLedgerFixture(t)
	ctx := context.Background()

	payout, err := ledger.RequestPayout(ctx, staff, money(6000), "advance")
	require.NoError(t, err)

	rejected, err := ledger.RejectPayout(ctx, payout.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, incentive.PayoutRejected, rejected.Status)

	balance, err := ledger.AvailableBalance(ctx, staff, date(2025, time.June, 30))
	require.NoError(t, err)
	assert.True(t, balance.Available().Equal(money(8000)), "rejection must release the hold")
}

func TestLedger_ApprovalKeepsBalanceHeld(t *testing.T) {
	ledger, staff := newLedgerFixture(t)
	ctx := context.Background()

	payout, err := ledger.RequestPayout(ctx, staff, money(6000), "advance")
	require.NoError(t, err)

	approved, err := ledger.ApprovePayout(ctx, payout.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, incentive.PayoutApproved, approved.Status)
	assert.Equal(t, "manager", approved.DecidedBy)

	balance, err := ledger.AvailableBalance(ctx, staff, date(2025, time.June, 30))
	require.NoError(t, err)
	assert.True(t, balance.Available().Equal(money(2000)))
}

func TestLedger_DecidedPayoutCannotBeDecidedAgain(t *testing.T) {
	ledger, staff := newLedgerFixture(t)
	ctx := context.Background()

	payout, err := ledger.RequestPayout(ctx, staff, money(1000), "advance")
	require.NoError(t, err)

	_, err = ledger.ApprovePayout(ctx, payout.ID, "manager")
	require.NoError(t, err)

	_, err = ledger.RejectPayout(ctx, payout.ID, "manager")
	assert.True(t, errors.Is(err, incentive.ErrPayoutDecided))
}

func TestLedger_NonPositiveAmountRejected(t *testing.T) {
	ledger, staff := newLedgerFixture(t)
	ctx := context.Background()

	_, err := ledger.RequestPayout(ctx, staff, money(0), "zero")
	assert.True(t, errors.Is(err, incentive.ErrInvalidAmount))

	_, err = ledger.RequestPayout(ctx, staff, money(-50), "negative")
	assert.True(t, errors.Is(err, incentive.ErrInvalidAmount))
}
