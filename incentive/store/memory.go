// Package store provides in-memory implementations of the engine's
// persistence interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/salonkit/incentive-engine/incentive"
)

// =============================================================================
// MEMORY STORE - Implements every store interface in one struct
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	staff    map[staffKey]incentive.Staff
	rules    map[ruleKey][]incentive.Rule
	facts    map[factKey][]incentive.DailySalesFact
	invoices map[invoiceKey][]incentive.Invoice
	payouts  map[incentive.PayoutID]incentive.Payout
	// payoutOrder keeps creation order for deterministic listings.
	payoutOrder []incentive.PayoutID
}

type staffKey struct {
	Tenant incentive.TenantID
	Staff  incentive.StaffID
}

type ruleKey struct {
	Tenant incentive.TenantID
	Track  incentive.Track
}

type factKey struct {
	Tenant incentive.TenantID
	Staff  incentive.StaffID
}

type invoiceKey struct {
	Tenant incentive.TenantID
	Day    string
}

func NewMemory() *Memory {
	return &Memory{
		staff:    make(map[staffKey]incentive.Staff),
		rules:    make(map[ruleKey][]incentive.Rule),
		facts:    make(map[factKey][]incentive.DailySalesFact),
		invoices: make(map[invoiceKey][]incentive.Invoice),
		payouts:  make(map[incentive.PayoutID]incentive.Payout),
	}
}

// =============================================================================
// STAFF
// =============================================================================

func (m *Memory) SaveStaff(_ context.Context, s incentive.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[staffKey{s.TenantID, s.ID}] = s
	return nil
}

func (m *Memory) GetStaff(_ context.Context, tenant incentive.TenantID, id incentive.StaffID) (incentive.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.staff[staffKey{tenant, id}]
	if !ok {
		return incentive.Staff{}, incentive.ErrStaffNotFound
	}
	return s, nil
}

func (m *Memory) ListStaff(_ context.Context, tenant incentive.TenantID) ([]incentive.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []incentive.Staff
	for k, s := range m.staff {
		if k.Tenant == tenant {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// RULE VERSIONS - Append-only
// =============================================================================

func (m *Memory) Append(_ context.Context, rule incentive.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := ruleKey{rule.TenantID, rule.Track}
	m.rules[k] = append(m.rules[k], rule)
	return nil
}

func (m *Memory) Versions(_ context.Context, tenant incentive.TenantID, track incentive.Track) ([]incentive.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.rules[ruleKey{tenant, track}]
	out := make([]incentive.Rule, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.Before(out[j].EffectiveFrom)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// SALES FACTS - Owned by sync; ReplaceDay overwrites wholesale
// =============================================================================

func (m *Memory) ReplaceDay(_ context.Context, tenant incentive.TenantID, day incentive.Day, facts []incentive.DailySalesFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop the day's existing rows for every staff member, then insert.
	for k, rows := range m.facts {
		if k.Tenant != tenant {
			continue
		}
		kept := rows[:0]
		for _, f := range rows {
			if !f.Date.Equal(day) {
				kept = append(kept, f)
			}
		}
		m.facts[k] = kept
	}

	for _, f := range facts {
		k := factKey{tenant, f.StaffID}
		m.facts[k] = append(m.facts[k], f)
		sort.Slice(m.facts[k], func(i, j int) bool {
			return m.facts[k][i].Date.Before(m.facts[k][j].Date)
		})
	}
	return nil
}

func (m *Memory) FactsInRange(_ context.Context, tenant incentive.TenantID, staff incentive.StaffID, from, to incentive.Day) ([]incentive.DailySalesFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []incentive.DailySalesFact
	for _, f := range m.facts[factKey{tenant, staff}] {
		if f.Date.AfterOrEqual(from) && f.Date.BeforeOrEqual(to) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *Memory) FactsOn(_ context.Context, tenant incentive.TenantID, day incentive.Day) ([]incentive.DailySalesFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []incentive.DailySalesFact
	for k, rows := range m.facts {
		if k.Tenant != tenant {
			continue
		}
		for _, f := range rows {
			if f.Date.Equal(day) {
				out = append(out, f)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffID < out[j].StaffID })
	return out, nil
}

func (m *Memory) AllFacts(_ context.Context, tenant incentive.TenantID, staff incentive.StaffID) ([]incentive.DailySalesFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.facts[factKey{tenant, staff}]
	out := make([]incentive.DailySalesFact, len(src))
	copy(out, src)
	return out, nil
}

// =============================================================================
// INVOICES
// =============================================================================

func (m *Memory) SaveInvoice(_ context.Context, inv incentive.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := invoiceKey{inv.TenantID, inv.Date.String()}
	for i, existing := range m.invoices[k] {
		if existing.ID == inv.ID {
			m.invoices[k][i] = inv
			return nil
		}
	}
	m.invoices[k] = append(m.invoices[k], inv)
	return nil
}

func (m *Memory) InvoicesOn(_ context.Context, tenant incentive.TenantID, day incentive.Day) ([]incentive.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.invoices[invoiceKey{tenant, day.String()}]
	out := make([]incentive.Invoice, len(src))
	copy(out, src)
	return out, nil
}

// =============================================================================
// PAYOUTS
// =============================================================================

func (m *Memory) CreatePayout(_ context.Context, p incentive.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createPayoutLocked(p)
}

func (m *Memory) createPayoutLocked(p incentive.Payout) error {
	m.payouts[p.ID] = p
	m.payoutOrder = append(m.payoutOrder, p.ID)
	return nil
}

func (m *Memory) GetPayout(_ context.Context, id incentive.PayoutID) (incentive.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payouts[id]
	if !ok {
		return incentive.Payout{}, incentive.ErrPayoutNotFound
	}
	return p, nil
}

func (m *Memory) PayoutsByStaff(_ context.Context, tenant incentive.TenantID, staff incentive.StaffID) ([]incentive.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payoutsByStaffLocked(tenant, staff), nil
}

func (m *Memory) payoutsByStaffLocked(tenant incentive.TenantID, staff incentive.StaffID) []incentive.Payout {
	var out []incentive.Payout
	for _, id := range m.payoutOrder {
		p := m.payouts[id]
		if p.TenantID == tenant && p.StaffID == staff {
			out = append(out, p)
		}
	}
	return out
}

func (m *Memory) PendingPayouts(_ context.Context, tenant incentive.TenantID) ([]incentive.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []incentive.Payout
	for _, id := range m.payoutOrder {
		p := m.payouts[id]
		if p.TenantID == tenant && p.Status == incentive.PayoutPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) DecidePayout(_ context.Context, id incentive.PayoutID, status incentive.PayoutStatus, decidedBy string) (incentive.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok {
		return incentive.Payout{}, incentive.ErrPayoutNotFound
	}
	if p.Status != incentive.PayoutPending {
		return incentive.Payout{}, incentive.ErrPayoutDecided
	}
	p.Status = status
	p.DecidedBy = decidedBy
	p.DecidedAt = timeNow()
	m.payouts[id] = p
	return p, nil
}

// WithTx serializes the payout read-then-write under the store lock,
// rolling back on error.
func (m *Memory) WithTx(ctx context.Context, fn func(incentive.PayoutStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshotPayoutsLocked()
	if err := fn(&txView{parent: m}); err != nil {
		m.payouts = snapshot.payouts
		m.payoutOrder = snapshot.order
		return err
	}
	return nil
}

type payoutSnapshot struct {
	payouts map[incentive.PayoutID]incentive.Payout
	order   []incentive.PayoutID
}

func (m *Memory) snapshotPayoutsLocked() payoutSnapshot {
	payouts := make(map[incentive.PayoutID]incentive.Payout, len(m.payouts))
	for k, v := range m.payouts {
		payouts[k] = v
	}
	order := append([]incentive.PayoutID{}, m.payoutOrder...)
	return payoutSnapshot{payouts: payouts, order: order}
}

// txView operates on the parent's maps while the parent holds its lock.
type txView struct {
	parent *Memory
}

func (tv *txView) CreatePayout(_ context.Context, p incentive.Payout) error {
	return tv.parent.createPayoutLocked(p)
}

func (tv *txView) GetPayout(_ context.Context, id incentive.PayoutID) (incentive.Payout, error) {
	p, ok := tv.parent.payouts[id]
	if !ok {
		return incentive.Payout{}, incentive.ErrPayoutNotFound
	}
	return p, nil
}

func (tv *txView) PayoutsByStaff(_ context.Context, tenant incentive.TenantID, staff incentive.StaffID) ([]incentive.Payout, error) {
	return tv.parent.payoutsByStaffLocked(tenant, staff), nil
}

func (tv *txView) PendingPayouts(_ context.Context, tenant incentive.TenantID) ([]incentive.Payout, error) {
	var out []incentive.Payout
	for _, id := range tv.parent.payoutOrder {
		p := tv.parent.payouts[id]
		if p.TenantID == tenant && p.Status == incentive.PayoutPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (tv *txView) DecidePayout(_ context.Context, id incentive.PayoutID, status incentive.PayoutStatus, decidedBy string) (incentive.Payout, error) {
	p, ok := tv.parent.payouts[id]
	if !ok {
		return incentive.Payout{}, incentive.ErrPayoutNotFound
	}
	if p.Status != incentive.PayoutPending {
		return incentive.Payout{}, incentive.ErrPayoutDecided
	}
	p.Status = status
	p.DecidedBy = decidedBy
	p.DecidedAt = timeNow()
	tv.parent.payouts[id] = p
	return p, nil
}

func (tv *txView) WithTx(ctx context.Context, fn func(incentive.PayoutStore) error) error {
	return fn(tv)
}

func timeNow() time.Time { return time.Now().UTC() }

// Compile-time interface checks.
var (
	_ incentive.StaffStore       = (*Memory)(nil)
	_ incentive.RuleVersionStore = (*Memory)(nil)
	_ incentive.SalesFactStore   = (*Memory)(nil)
	_ incentive.InvoiceStore     = (*Memory)(nil)
	_ incentive.PayoutStore      = (*Memory)(nil)
	_ incentive.PayoutStore      = (*txView)(nil)
)
