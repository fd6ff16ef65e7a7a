/*
ledger.go - Earned-vs-claimed payout ledger

PURPOSE:
  Tracks how much of a staff member's earned incentives remain claimable:

    available = earnedToDate - sum(payouts with status approved or pending)

  Pending payouts hold balance until decided; rejected ones release it.

EARNED-TO-DATE:
  Recomputed from sales facts through the aggregator on every read. There
  is no cached balance column that can drift - the facts and the payout
  records are the only state.

CONCURRENCY:
  RequestPayout is the one operation that must be serialized per staff:
  it re-reads the committed total and writes the new pending record inside
  PayoutStore.WithTx. Everything else in the engine is a pure read.

APPROVAL:
  Approving or rejecting a payout is an approver's operation; the ledger
  records the transition but never auto-approves anything.

SEE ALSO:
  - aggregator.go: Supplies earned-to-date
  - store.go: PayoutStore.WithTx contract
*/
package incentive

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PayoutLedger computes claimable balances and records claim requests.
type PayoutLedger struct {
	Facts      SalesFactStore
	Payouts    PayoutStore
	Aggregator *Aggregator

	// Now is the clock used to stamp new payouts. Tests pin it.
	Now func() time.Time
}

func NewPayoutLedger(facts SalesFactStore, payouts PayoutStore, agg *Aggregator) *PayoutLedger {
	return &PayoutLedger{
		Facts:      facts,
		Payouts:    payouts,
		Aggregator: agg,
		Now:        time.Now,
	}
}

// AvailableBalance computes the earned-vs-claimed position as of a day.
func (l *PayoutLedger) AvailableBalance(ctx context.Context, staff Staff, asOf Day) (Balance, error) {
	earned, err := l.earnedToDate(ctx, staff, asOf)
	if err != nil {
		return Balance{}, err
	}

	records, err := l.Payouts.PayoutsByStaff(ctx, staff.TenantID, staff.ID)
	if err != nil {
		return Balance{}, err
	}

	committed := ZeroMoney()
	for _, p := range records {
		if p.Committed() {
			committed = committed.Add(p.Amount)
		}
	}

	return Balance{
		StaffID:      staff.ID,
		AsOf:         asOf,
		EarnedToDate: earned,
		Committed:    committed,
	}, nil
}

func (l *PayoutLedger) earnedToDate(ctx context.Context, staff Staff, asOf Day) (Money, error) {
	facts, err := l.Facts.AllFacts(ctx, staff.TenantID, staff.ID)
	if err != nil {
		return Money{}, err
	}
	if len(facts) == 0 {
		return ZeroMoney(), nil
	}

	// Start at the month of the earliest fact: the cumulative tracks need
	// whole months, and earlier days trivially contribute nothing.
	start := MonthOf(facts[0].Date).Start
	for _, f := range facts {
		if f.Date.Before(start) {
			start = MonthOf(f.Date).Start
		}
	}
	if asOf.Before(start) {
		return ZeroMoney(), nil
	}

	_, total, err := l.Aggregator.SumRange(ctx, staff, start, asOf, facts)
	if err != nil {
		return Money{}, err
	}
	return total, nil
}

// RequestPayout creates a pending payout after re-verifying, atomically,
// that the amount does not exceed the available balance. On rejection the
// returned error wraps ErrInsufficientBalance and carries the balance.
func (l *PayoutLedger) RequestPayout(ctx context.Context, staff Staff, amount Money, reason string) (*Payout, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	payout := Payout{
		ID:        PayoutID(uuid.NewString()),
		StaffID:   staff.ID,
		TenantID:  staff.TenantID,
		Amount:    amount,
		Reason:    reason,
		Status:    PayoutPending,
		CreatedAt: l.Now(),
	}

	// Earned-to-date only moves when sync rewrites facts, so it is safe to
	// compute outside the transaction. The quantity that races is the set
	// of committed payouts; that is re-read inside WithTx.
	earned, err := l.earnedToDate(ctx, staff, DayOf(l.Now()))
	if err != nil {
		return nil, err
	}

	err = l.Payouts.WithTx(ctx, func(s PayoutStore) error {
		records, err := s.PayoutsByStaff(ctx, staff.TenantID, staff.ID)
		if err != nil {
			return err
		}
		committed := ZeroMoney()
		for _, p := range records {
			if p.Committed() {
				committed = committed.Add(p.Amount)
			}
		}
		available := earned.Sub(committed)
		if amount.GreaterThan(available) {
			return &InsufficientBalanceError{
				StaffID:   staff.ID,
				Available: available,
				Requested: amount,
			}
		}
		return s.CreatePayout(ctx, payout)
	})
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// ApprovePayout records an approver's decision. The ledger never approves
// on its own.
func (l *PayoutLedger) ApprovePayout(ctx context.Context, id PayoutID, approvedBy string) (Payout, error) {
	return l.Payouts.DecidePayout(ctx, id, PayoutApproved, approvedBy)
}

// RejectPayout records a rejection, releasing the held balance.
func (l *PayoutLedger) RejectPayout(ctx context.Context, id PayoutID, rejectedBy string) (Payout, error) {
	return l.Payouts.DecidePayout(ctx, id, PayoutRejected, rejectedBy)
}
