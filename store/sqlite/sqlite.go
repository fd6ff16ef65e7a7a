/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (StaffStore, RuleVersionStore,
  SalesFactStore, InvoiceStore, PayoutStore) using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

APPEND-ONLY ENFORCEMENT:
  The rule_versions table is append-only:
  - No UPDATE statements
  - No DELETE statements
  - Corrections via a new version with a later (or equal) effective_from

FROZEN SNAPSHOTS:
  sales_facts.applied_rule_json stores the daily rule exactly as it was
  at sync time, JSON-serialized. Reads deserialize that column; they
  never join back to rule_versions. A NULL column means no daily rule
  was active when the day was synced.

KEY TABLES:
  staff:          Staff records with the salary the targets scale from
  rule_versions:  Immutable log of incentive rule versions
  sales_facts:    One row per (tenant, staff, day), rewritten by sync
  invoices:       Sync input; line items JSON-serialized per invoice
  payouts:        Claim records with pending/approved/rejected status

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/incentive.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := incentive.NewPayoutLedger(store, store, aggregator)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - incentive/store.go: Interface definitions
  - incentive/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/salonkit/incentive-engine/incentive"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Staff
	CREATE TABLE IF NOT EXISTS staff (
		tenant_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		salary TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (tenant_id, id)
	);

	-- Rule versions (append-only)
	CREATE TABLE IF NOT EXISTS rule_versions (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		track TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		rule_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Version resolution (hot path): all versions for a tenant+track,
	-- ordered by effective_from.
	CREATE INDEX IF NOT EXISTS idx_rule_versions_tenant_track
		ON rule_versions(tenant_id, track, effective_from);

	-- Sales facts (rewritten wholesale per day by sync)
	CREATE TABLE IF NOT EXISTS sales_facts (
		tenant_id TEXT NOT NULL,
		staff_id TEXT NOT NULL,
		date TEXT NOT NULL,
		service_sale TEXT NOT NULL,
		product_sale TEXT NOT NULL,
		package_sale TEXT NOT NULL,
		gift_card_sale TEXT NOT NULL,
		discount_share TEXT NOT NULL,
		reviews_with_name INTEGER NOT NULL DEFAULT 0,
		reviews_with_photo INTEGER NOT NULL DEFAULT 0,
		applied_rule_json TEXT,
		synced_at TEXT NOT NULL,
		PRIMARY KEY (tenant_id, staff_id, date)
	);

	-- Range reads per staff member (report and balance hot path)
	CREATE INDEX IF NOT EXISTS idx_sales_facts_staff_date
		ON sales_facts(tenant_id, staff_id, date);

	-- Day-wide delete on re-sync
	CREATE INDEX IF NOT EXISTS idx_sales_facts_tenant_date
		ON sales_facts(tenant_id, date);

	-- Invoices (sync input)
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		date TEXT NOT NULL,
		manual_discount TEXT NOT NULL,
		line_items_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_tenant_date
		ON invoices(tenant_id, date);

	-- Payouts
	CREATE TABLE IF NOT EXISTS payouts (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		staff_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		decided_at TEXT,
		decided_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_payouts_staff
		ON payouts(tenant_id, staff_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_payouts_status
		ON payouts(tenant_id, status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STAFF STORE
// =============================================================================

func (s *Store) SaveStaff(ctx context.Context, st incentive.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO staff (tenant_id, id, name, salary, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			name = excluded.name,
			salary = excluded.salary
	`

	_, err := s.db.ExecContext(ctx, query,
		st.TenantID, st.ID, st.Name, st.Salary.Value.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetStaff(ctx context.Context, tenant incentive.TenantID, id incentive.StaffID) (incentive.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st incentive.Staff
	var salary string

	err := s.db.QueryRowContext(ctx,
		"SELECT tenant_id, id, name, salary FROM staff WHERE tenant_id = ? AND id = ?",
		tenant, id,
	).Scan(&st.TenantID, &st.ID, &st.Name, &salary)

	if err == sql.ErrNoRows {
		return incentive.Staff{}, incentive.ErrStaffNotFound
	}
	if err != nil {
		return incentive.Staff{}, err
	}

	if st.Salary, err = incentive.ParseMoney(salary); err != nil {
		return incentive.Staff{}, fmt.Errorf("failed to parse staff salary: %w", err)
	}
	return st, nil
}

func (s *Store) ListStaff(ctx context.Context, tenant incentive.TenantID) ([]incentive.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT tenant_id, id, name, salary FROM staff WHERE tenant_id = ? ORDER BY name",
		tenant,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []incentive.Staff
	for rows.Next() {
		var st incentive.Staff
		var salary string
		if err := rows.Scan(&st.TenantID, &st.ID, &st.Name, &salary); err != nil {
			return nil, err
		}
		if st.Salary, err = incentive.ParseMoney(salary); err != nil {
			return nil, fmt.Errorf("failed to parse staff salary: %w", err)
		}
		staff = append(staff, st)
	}
	return staff, rows.Err()
}

// =============================================================================
// RULE VERSION STORE
// =============================================================================

// Append adds a rule version to the log. Stored versions are never
// updated or deleted.
func (s *Store) Append(ctx context.Context, rule incentive.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ruleJSON, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to serialize rule: %w", err)
	}

	query := `
		INSERT INTO rule_versions (id, tenant_id, track, effective_from, rule_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		rule.ID, rule.TenantID, rule.Track,
		rule.EffectiveFrom.UTC().Format(time.RFC3339),
		string(ruleJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append rule version: %w", err)
	}
	return nil
}

// Versions returns all versions for a tenant+track, ordered by
// effective_from ascending, ties by id ascending.
func (s *Store) Versions(ctx context.Context, tenant incentive.TenantID, track incentive.Track) ([]incentive.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_json FROM rule_versions
		WHERE tenant_id = ? AND track = ?
		ORDER BY effective_from ASC, id ASC
	`, tenant, track)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []incentive.Rule
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rule incentive.Rule
		if err := json.Unmarshal([]byte(raw), &rule); err != nil {
			return nil, fmt.Errorf("failed to deserialize rule version: %w", err)
		}
		versions = append(versions, rule)
	}
	return versions, rows.Err()
}

// =============================================================================
// SALES FACT STORE
// =============================================================================

// ReplaceDay deletes and rewrites all facts for (tenant, day) in one
// database transaction. Partial rewrites are never visible.
func (s *Store) ReplaceDay(ctx context.Context, tenant incentive.TenantID, day incentive.Day, facts []incentive.DailySalesFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sales_facts WHERE tenant_id = ? AND date = ?",
		tenant, day.String(),
	); err != nil {
		return fmt.Errorf("failed to clear day: %w", err)
	}

	query := `
		INSERT INTO sales_facts
		(tenant_id, staff_id, date, service_sale, product_sale, package_sale,
		 gift_card_sale, discount_share, reviews_with_name, reviews_with_photo,
		 applied_rule_json, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, f := range facts {
		var ruleJSON sql.NullString
		if f.AppliedRule != nil {
			raw, err := json.Marshal(f.AppliedRule)
			if err != nil {
				return fmt.Errorf("failed to serialize rule snapshot: %w", err)
			}
			ruleJSON = sql.NullString{String: string(raw), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, query,
			f.TenantID, f.StaffID, f.Date.String(),
			f.ServiceSale.Value.String(),
			f.ProductSale.Value.String(),
			f.PackageSale.Value.String(),
			f.GiftCardSale.Value.String(),
			f.DiscountShare.Value.String(),
			f.ReviewsWithName, f.ReviewsWithPhoto,
			ruleJSON,
			f.SyncedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to insert fact: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) FactsInRange(ctx context.Context, tenant incentive.TenantID, staff incentive.StaffID, from, to incentive.Day) ([]incentive.DailySalesFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT tenant_id, staff_id, date, service_sale, product_sale, package_sale,
		       gift_card_sale, discount_share, reviews_with_name, reviews_with_photo,
		       applied_rule_json, synced_at
		FROM sales_facts
		WHERE tenant_id = ? AND staff_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	return s.queryFacts(ctx, query, tenant, staff, from.String(), to.String())
}

func (s *Store) FactsOn(ctx context.Context, tenant incentive.TenantID, day incentive.Day) ([]incentive.DailySalesFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT tenant_id, staff_id, date, service_sale, product_sale, package_sale,
		       gift_card_sale, discount_share, reviews_with_name, reviews_with_photo,
		       applied_rule_json, synced_at
		FROM sales_facts
		WHERE tenant_id = ? AND date = ?
		ORDER BY staff_id ASC
	`
	return s.queryFacts(ctx, query, tenant, day.String())
}

func (s *Store) AllFacts(ctx context.Context, tenant incentive.TenantID, staff incentive.StaffID) ([]incentive.DailySalesFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT tenant_id, staff_id, date, service_sale, product_sale, package_sale,
		       gift_card_sale, discount_share, reviews_with_name, reviews_with_photo,
		       applied_rule_json, synced_at
		FROM sales_facts
		WHERE tenant_id = ? AND staff_id = ?
		ORDER BY date ASC
	`
	return s.queryFacts(ctx, query, tenant, staff)
}

func (s *Store) queryFacts(ctx context.Context, query string, args ...any) ([]incentive.DailySalesFact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer rows.Close()

	var facts []incentive.DailySalesFact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func scanFact(rows *sql.Rows) (incentive.DailySalesFact, error) {
	var (
		f        incentive.DailySalesFact
		date     string
		service  string
		product  string
		pkg      string
		giftCard string
		discount string
		ruleJSON sql.NullString
		syncedAt string
	)

	err := rows.Scan(
		&f.TenantID, &f.StaffID, &date,
		&service, &product, &pkg, &giftCard, &discount,
		&f.ReviewsWithName, &f.ReviewsWithPhoto,
		&ruleJSON, &syncedAt,
	)
	if err != nil {
		return f, fmt.Errorf("failed to scan fact: %w", err)
	}

	f.Date, err = incentive.ParseDay(date)
	if err != nil {
		return f, fmt.Errorf("failed to parse fact date: %w", err)
	}
	for _, col := range []struct {
		dst *incentive.Money
		raw string
	}{
		{&f.ServiceSale, service},
		{&f.ProductSale, product},
		{&f.PackageSale, pkg},
		{&f.GiftCardSale, giftCard},
		{&f.DiscountShare, discount},
	} {
		if *col.dst, err = incentive.ParseMoney(col.raw); err != nil {
			return f, fmt.Errorf("failed to parse fact amount: %w", err)
		}
	}
	f.SyncedAt, _ = time.Parse(time.RFC3339, syncedAt)

	if ruleJSON.Valid && ruleJSON.String != "" {
		var rule incentive.Rule
		if err := json.Unmarshal([]byte(ruleJSON.String), &rule); err != nil {
			return f, fmt.Errorf("failed to deserialize rule snapshot: %w", err)
		}
		f.AppliedRule = &rule
	}

	return f, nil
}

// =============================================================================
// INVOICE STORE
// =============================================================================

func (s *Store) SaveInvoice(ctx context.Context, inv incentive.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemsJSON, err := json.Marshal(inv.LineItems)
	if err != nil {
		return fmt.Errorf("failed to serialize line items: %w", err)
	}

	query := `
		INSERT INTO invoices (id, tenant_id, date, manual_discount, line_items_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			manual_discount = excluded.manual_discount,
			line_items_json = excluded.line_items_json
	`

	_, err = s.db.ExecContext(ctx, query,
		inv.ID, inv.TenantID, inv.Date.String(),
		inv.ManualDiscount.Value.String(),
		string(itemsJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) InvoicesOn(ctx context.Context, tenant incentive.TenantID, day incentive.Day) ([]incentive.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, date, manual_discount, line_items_json
		FROM invoices
		WHERE tenant_id = ? AND date = ?
		ORDER BY id
	`, tenant, day.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []incentive.Invoice
	for rows.Next() {
		var (
			inv       incentive.Invoice
			date      string
			discount  string
			itemsJSON string
		)
		if err := rows.Scan(&inv.ID, &inv.TenantID, &date, &discount, &itemsJSON); err != nil {
			return nil, err
		}
		inv.Date, err = incentive.ParseDay(date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse invoice date: %w", err)
		}
		if inv.ManualDiscount, err = incentive.ParseMoney(discount); err != nil {
			return nil, fmt.Errorf("failed to parse invoice discount: %w", err)
		}
		if err := json.Unmarshal([]byte(itemsJSON), &inv.LineItems); err != nil {
			return nil, fmt.Errorf("failed to deserialize line items: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// =============================================================================
// PAYOUT STORE
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) CreatePayout(ctx context.Context, p incentive.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return createPayout(ctx, s.db, p)
}

func createPayout(ctx context.Context, db execer, p incentive.Payout) error {
	query := `
		INSERT INTO payouts (id, tenant_id, staff_id, amount, reason, status, created_at, decided_at, decided_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var decidedAt sql.NullString
	if !p.DecidedAt.IsZero() {
		decidedAt = sql.NullString{String: p.DecidedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := db.ExecContext(ctx, query,
		p.ID, p.TenantID, p.StaffID,
		p.Amount.Value.String(), p.Reason, p.Status,
		p.CreatedAt.UTC().Format(time.RFC3339),
		decidedAt, nullString(p.DecidedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}
	return nil
}

func (s *Store) GetPayout(ctx context.Context, id incentive.PayoutID) (incentive.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getPayout(ctx, s.db, id)
}

func getPayout(ctx context.Context, db execer, id incentive.PayoutID) (incentive.Payout, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, tenant_id, staff_id, amount, reason, status, created_at, decided_at, decided_by
		FROM payouts WHERE id = ?
	`, id)

	p, err := scanPayoutRow(row)
	if err == sql.ErrNoRows {
		return incentive.Payout{}, incentive.ErrPayoutNotFound
	}
	if err != nil {
		return incentive.Payout{}, err
	}
	return p, nil
}

func (s *Store) PayoutsByStaff(ctx context.Context, tenant incentive.TenantID, staff incentive.StaffID) ([]incentive.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return payoutsByStaff(ctx, s.db, tenant, staff)
}

func payoutsByStaff(ctx context.Context, db execer, tenant incentive.TenantID, staff incentive.StaffID) ([]incentive.Payout, error) {
	return queryPayouts(ctx, db, `
		SELECT id, tenant_id, staff_id, amount, reason, status, created_at, decided_at, decided_by
		FROM payouts
		WHERE tenant_id = ? AND staff_id = ?
		ORDER BY created_at ASC, id ASC
	`, tenant, staff)
}

func (s *Store) PendingPayouts(ctx context.Context, tenant incentive.TenantID) ([]incentive.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryPayouts(ctx, s.db, `
		SELECT id, tenant_id, staff_id, amount, reason, status, created_at, decided_at, decided_by
		FROM payouts
		WHERE tenant_id = ? AND status = ?
		ORDER BY created_at ASC, id ASC
	`, tenant, incentive.PayoutPending)
}

func (s *Store) DecidePayout(ctx context.Context, id incentive.PayoutID, status incentive.PayoutStatus, decidedBy string) (incentive.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return decidePayout(ctx, s.db, id, status, decidedBy)
}

func decidePayout(ctx context.Context, db execer, id incentive.PayoutID, status incentive.PayoutStatus, decidedBy string) (incentive.Payout, error) {
	now := time.Now().UTC()

	// The WHERE status guard makes the pending -> decided transition
	// happen at most once even under concurrent deciders.
	res, err := db.ExecContext(ctx, `
		UPDATE payouts SET status = ?, decided_at = ?, decided_by = ?
		WHERE id = ? AND status = ?
	`, status, now.Format(time.RFC3339), decidedBy, id, incentive.PayoutPending)
	if err != nil {
		return incentive.Payout{}, fmt.Errorf("failed to decide payout: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return incentive.Payout{}, err
	}
	if affected == 0 {
		p, err := getPayout(ctx, db, id)
		if err != nil {
			return incentive.Payout{}, err
		}
		return incentive.Payout{}, fmt.Errorf("payout %s is already %s: %w", id, p.Status, incentive.ErrPayoutDecided)
	}

	return getPayout(ctx, db, id)
}

func queryPayouts(ctx context.Context, db execer, query string, args ...any) ([]incentive.Payout, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}
	defer rows.Close()

	var payouts []incentive.Payout
	for rows.Next() {
		p, err := scanPayoutRow(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayoutRow(row rowScanner) (incentive.Payout, error) {
	var (
		p         incentive.Payout
		amount    string
		reason    sql.NullString
		createdAt string
		decidedAt sql.NullString
		decidedBy sql.NullString
	)

	err := row.Scan(&p.ID, &p.TenantID, &p.StaffID, &amount, &reason, &p.Status, &createdAt, &decidedAt, &decidedBy)
	if err != nil {
		return p, err
	}

	if p.Amount, err = incentive.ParseMoney(amount); err != nil {
		return p, fmt.Errorf("failed to parse payout amount: %w", err)
	}
	p.Reason = reason.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if decidedAt.Valid {
		p.DecidedAt, _ = time.Parse(time.RFC3339, decidedAt.String)
	}
	p.DecidedBy = decidedBy.String
	return p, nil
}

// =============================================================================
// TRANSACTIONAL PAYOUT STORE
// =============================================================================

// WithTx executes fn within a database transaction. The store's write
// lock is held for the duration, so the read-check-write inside fn is
// atomic with respect to every other payout operation.
func (s *Store) WithTx(ctx context.Context, fn func(incentive.PayoutStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txPayoutStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txPayoutStore runs payout operations against an open transaction. The
// parent's lock is already held; methods must not re-acquire it.
type txPayoutStore struct {
	tx *sql.Tx
}

func (ts *txPayoutStore) CreatePayout(ctx context.Context, p incentive.Payout) error {
	return createPayout(ctx, ts.tx, p)
}

func (ts *txPayoutStore) GetPayout(ctx context.Context, id incentive.PayoutID) (incentive.Payout, error) {
	return getPayout(ctx, ts.tx, id)
}

func (ts *txPayoutStore) PayoutsByStaff(ctx context.Context, tenant incentive.TenantID, staff incentive.StaffID) ([]incentive.Payout, error) {
	return payoutsByStaff(ctx, ts.tx, tenant, staff)
}

func (ts *txPayoutStore) PendingPayouts(ctx context.Context, tenant incentive.TenantID) ([]incentive.Payout, error) {
	return queryPayouts(ctx, ts.tx, `
		SELECT id, tenant_id, staff_id, amount, reason, status, created_at, decided_at, decided_by
		FROM payouts
		WHERE tenant_id = ? AND status = ?
		ORDER BY created_at ASC, id ASC
	`, tenant, incentive.PayoutPending)
}

func (ts *txPayoutStore) DecidePayout(ctx context.Context, id incentive.PayoutID, status incentive.PayoutStatus, decidedBy string) (incentive.Payout, error) {
	return decidePayout(ctx, ts.tx, id, status, decidedBy)
}

func (ts *txPayoutStore) WithTx(ctx context.Context, fn func(incentive.PayoutStore) error) error {
	// Already inside a transaction.
	return fn(ts)
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Interface compliance checks
var (
	_ incentive.StaffStore       = (*Store)(nil)
	_ incentive.RuleVersionStore = (*Store)(nil)
	_ incentive.SalesFactStore   = (*Store)(nil)
	_ incentive.InvoiceStore     = (*Store)(nil)
	_ incentive.PayoutStore      = (*Store)(nil)
	_ incentive.PayoutStore      = (*txPayoutStore)(nil)
)
