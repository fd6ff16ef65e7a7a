/*
store.go - Persistence interfaces for the engine's collaborators

PURPOSE:
  Defines the boundary between the calculation engine and whatever stores
  the facts. The engine is a library: it consumes read-only projections of
  sales facts, invoices, and rule versions, and only ever writes payout
  records. Implementations can be SQLite, PostgreSQL, or in-memory.

OWNERSHIP:
  - Sales facts are owned by the sync process. ReplaceDay is the sync
    write path; the calculation side only reads.
  - Rule versions are append-only (see rule.go). No update, no delete.
  - Payout records transition pending -> approved/rejected exactly once.

ATOMICITY:
  PayoutStore.WithTx exists for one reason: requesting a payout must
  re-read the committed total and write the new pending record as one
  unit, or a lost update could let a staff member exceed their earned
  balance.

IMPLEMENTATIONS:
  - incentive/store/memory.go: In-memory for tests and development
  - store/sqlite/sqlite.go: Production SQLite

SEE ALSO:
  - ledger.go: PayoutLedger built on these interfaces
  - rule.go: RuleVersionStore
*/
package incentive

import "context"

// =============================================================================
// STAFF STORE
// =============================================================================

type StaffStore interface {
	SaveStaff(ctx context.Context, staff Staff) error

	// GetStaff returns ErrStaffNotFound when the id is unknown.
	GetStaff(ctx context.Context, tenant TenantID, id StaffID) (Staff, error)

	ListStaff(ctx context.Context, tenant TenantID) ([]Staff, error)
}

// =============================================================================
// SALES FACT STORE
// =============================================================================

type SalesFactStore interface {
	// ReplaceDay atomically replaces all facts for (tenant, day) with the
	// given set. This is the sync write path; re-syncing a day overwrites
	// it wholesale, frozen rule snapshots included.
	ReplaceDay(ctx context.Context, tenant TenantID, day Day, facts []DailySalesFact) error

	// FactsInRange returns one staff member's facts in [from, to],
	// ordered by date. Days without sales have no row.
	FactsInRange(ctx context.Context, tenant TenantID, staff StaffID, from, to Day) ([]DailySalesFact, error)

	// FactsOn returns every staff member's facts for (tenant, day).
	// Re-sync reads these to carry review counts forward.
	FactsOn(ctx context.Context, tenant TenantID, day Day) ([]DailySalesFact, error)

	// AllFacts returns a staff member's complete fact history, ordered by
	// date. Balance calculation needs the full earned-to-date window.
	AllFacts(ctx context.Context, tenant TenantID, staff StaffID) ([]DailySalesFact, error)
}

// =============================================================================
// INVOICE STORE - Read-mostly input for sync
// =============================================================================

type InvoiceStore interface {
	// SaveInvoice upserts by invoice ID. Corrections overwrite the
	// original record; re-sync then rebuilds the day's facts from it.
	SaveInvoice(ctx context.Context, inv Invoice) error

	// InvoicesOn returns all invoices for (tenant, day).
	InvoicesOn(ctx context.Context, tenant TenantID, day Day) ([]Invoice, error)
}

// =============================================================================
// PAYOUT STORE
// =============================================================================

type PayoutStore interface {
	CreatePayout(ctx context.Context, p Payout) error

	// GetPayout returns ErrPayoutNotFound when the id is unknown.
	GetPayout(ctx context.Context, id PayoutID) (Payout, error)

	// PayoutsByStaff returns all payout records for a staff member,
	// ordered by creation time.
	PayoutsByStaff(ctx context.Context, tenant TenantID, staff StaffID) ([]Payout, error)

	// PendingPayouts returns every pending payout for a tenant.
	PendingPayouts(ctx context.Context, tenant TenantID) ([]Payout, error)

	// DecidePayout moves a pending payout to approved or rejected.
	// Returns ErrPayoutDecided if it already left the pending state.
	DecidePayout(ctx context.Context, id PayoutID, status PayoutStatus, decidedBy string) (Payout, error)

	// WithTx executes fn atomically against a transactional view of the
	// store. If fn returns an error, nothing is committed.
	WithTx(ctx context.Context, fn func(PayoutStore) error) error
}
