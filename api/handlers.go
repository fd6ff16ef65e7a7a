/*
handlers.go - HTTP API handlers for the incentive engine

PURPOSE:
  Exposes the incentive calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Staff:
    GET    /api/staff                        List staff
    POST   /api/staff                        Create/update staff
    GET    /api/staff/{id}                   Get staff details
    GET    /api/staff/{id}/incentives        Per-day breakdowns for a range
    GET    /api/staff/{id}/incentives/summary Month summary per track
    GET    /api/staff/{id}/balance           Earned-vs-claimed balance
    GET    /api/staff/{id}/payouts           Payout history
    POST   /api/staff/{id}/payouts           Request a payout

  Payouts:
    GET    /api/payouts/pending              Pending payouts (approver view)
    POST   /api/payouts/{id}/approve         Approve a pending payout
    POST   /api/payouts/{id}/reject          Reject a pending payout

  Rules:
    GET    /api/rules?track=daily            Version log for a track
    POST   /api/rules                        Append a rule version

  Sync:
    POST   /api/invoices                     Save a sync input invoice
    POST   /api/sync/daily                   (Re)build a day's sales facts

TENANCY:
  The tenant comes from the X-Tenant-ID header; "default" when absent.
  Every store read and write is tenant-scoped.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Staff/payout not found
  - 409: Payout already decided
  - 422: Insufficient balance (carries the available figure)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salonkit/incentive-engine/factory"
	"github.com/salonkit/incentive-engine/incentive"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store bundles every persistence interface the API needs. Both the
// SQLite store and the in-memory store satisfy it.
type Store interface {
	incentive.StaffStore
	incentive.RuleVersionStore
	incentive.SalesFactStore
	incentive.InvoiceStore
	incentive.PayoutStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       Store
	Aggregator  *incentive.Aggregator
	Ledger      *incentive.PayoutLedger
	Sync        *incentive.Synchronizer
	RuleFactory *factory.RuleFactory
}

// NewHandler wires the engine on top of the given store.
func NewHandler(store Store) *Handler {
	resolver := incentive.NewRuleResolver(store)
	agg := incentive.NewAggregator(resolver)
	return &Handler{
		Store:       store,
		Aggregator:  agg,
		Ledger:      incentive.NewPayoutLedger(store, store, agg),
		Sync:        incentive.NewSynchronizer(store, store, resolver),
		RuleFactory: factory.NewRuleFactory(),
	}
}

func tenantFrom(r *http.Request) incentive.TenantID {
	if t := r.Header.Get("X-Tenant-ID"); t != "" {
		return incentive.TenantID(t)
	}
	return "default"
}

// =============================================================================
// STAFF HANDLERS
// =============================================================================

// ListStaff returns all staff for the tenant.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Store.ListStaff(r.Context(), tenantFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list staff", err)
		return
	}

	dtos := make([]StaffDTO, len(staff))
	for i, s := range staff {
		dtos[i] = toStaffDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStaff returns a single staff member.
func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	staff, ok := h.loadStaff(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStaffDTO(staff))
}

// CreateStaff creates or updates a staff member.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	salary, err := parseMoneyField(req.Salary)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid salary", err)
		return
	}
	if salary.IsNegative() {
		writeError(w, http.StatusBadRequest, "salary cannot be negative", nil)
		return
	}

	staff := incentive.Staff{
		ID:       incentive.StaffID(req.ID),
		TenantID: tenantFrom(r),
		Name:     req.Name,
		Salary:   salary,
	}
	if err := h.Store.SaveStaff(r.Context(), staff); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save staff", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStaffDTO(staff))
}

// =============================================================================
// INCENTIVE REPORT HANDLERS
// =============================================================================

// GetIncentives returns per-day breakdowns for ?from=...&to=... (defaults
// to the current month so far).
func (h *Handler) GetIncentives(w http.ResponseWriter, r *http.Request) {
	staff, ok := h.loadStaff(w, r)
	if !ok {
		return
	}

	today := incentive.Today()
	from := incentive.MonthOf(today).Start
	to := today
	var err error
	if q := r.URL.Query().Get("from"); q != "" {
		if from, err = incentive.ParseDay(q); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date", err)
			return
		}
	}
	if q := r.URL.Query().Get("to"); q != "" {
		if to, err = incentive.ParseDay(q); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date", err)
			return
		}
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not precede from", nil)
		return
	}

	// The cumulative tracks need facts from each month's start, not just
	// the requested window.
	facts, err := h.Store.FactsInRange(r.Context(), staff.TenantID, staff.ID,
		incentive.MonthOf(from).Start, incentive.MonthOf(to).End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load facts", err)
		return
	}

	breakdowns, total, err := h.Aggregator.SumRange(r.Context(), staff, from, to, facts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute incentives", err)
		return
	}

	days := make([]DayBreakdownDTO, len(breakdowns))
	for i, b := range breakdowns {
		days[i] = toDayBreakdownDTO(b)
	}
	writeJSON(w, http.StatusOK, IncentiveRangeResponse{
		StaffID: string(staff.ID),
		From:    from.String(),
		To:      to.String(),
		Days:    days,
		Total:   total.String(),
	})
}

// GetMonthSummary returns the per-track summary for ?month=YYYY-MM.
func (h *Handler) GetMonthSummary(w http.ResponseWriter, r *http.Request) {
	staff, ok := h.loadStaff(w, r)
	if !ok {
		return
	}

	monthStr := r.URL.Query().Get("month")
	if monthStr == "" {
		monthStr = incentive.Today().Time.Format("2006-01")
	}
	parsed, err := time.Parse("2006-01", monthStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month, want YYYY-MM", err)
		return
	}
	month := incentive.MonthPeriod(parsed.Year(), parsed.Month())

	facts, err := h.Store.FactsInRange(r.Context(), staff.TenantID, staff.ID, month.Start, month.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load facts", err)
		return
	}

	summaries, err := h.Aggregator.MonthSummary(r.Context(), staff, month, facts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute summary", err)
		return
	}

	tracks := make([]TrackSummaryDTO, 0, len(incentive.AllTracks))
	for _, track := range incentive.AllTracks {
		s := summaries[track]
		tracks = append(tracks, TrackSummaryDTO{
			Track:          string(track),
			TotalAchieved:  s.TotalAchieved.String(),
			TotalIncentive: s.TotalIncentive.String(),
			DaysCalculated: s.DaysCalculated,
		})
	}
	writeJSON(w, http.StatusOK, MonthSummaryResponse{
		StaffID: string(staff.ID),
		Month:   monthStr,
		Tracks:  tracks,
	})
}

// =============================================================================
// BALANCE AND PAYOUT HANDLERS
// =============================================================================

// GetBalance returns the earned-vs-claimed position as of today (or ?as_of=).
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	staff, ok := h.loadStaff(w, r)
	if !ok {
		return
	}

	asOf := incentive.Today()
	var err error
	if q := r.URL.Query().Get("as_of"); q != "" {
		if asOf, err = incentive.ParseDay(q); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
			return
		}
	}

	balance, err := h.Ledger.AvailableBalance(r.Context(), staff, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		StaffID:      string(balance.StaffID),
		AsOf:         balance.AsOf.String(),
		EarnedToDate: balance.EarnedToDate.String(),
		Committed:    balance.Committed.String(),
		Available:    balance.Available().String(),
	})
}

// ListPayouts returns a staff member's payout history.
func (h *Handler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	staff, ok := h.loadStaff(w, r)
	if !ok {
		return
	}

	payouts, err := h.Store.PayoutsByStaff(r.Context(), staff.TenantID, staff.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payouts", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayoutDTOs(payouts))
}

// RequestPayout claims part of the available balance.
func (h *Handler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	staff, ok := h.loadStaff(w, r)
	if !ok {
		return
	}

	var req RequestPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseMoneyField(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	payout, err := h.Ledger.RequestPayout(r.Context(), staff, amount, req.Reason)
	if err != nil {
		var ibe *incentive.InsufficientBalanceError
		switch {
		case errors.As(err, &ibe):
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "Insufficient balance",
				Code:    "insufficient_balance",
				Details: map[string]string{"available": ibe.Available.String(), "requested": ibe.Requested.String()},
			})
		case incentive.IsClientError(err):
			writeError(w, http.StatusBadRequest, "Invalid payout request", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to request payout", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, toPayoutDTO(*payout))
}

// ListPendingPayouts returns every pending payout for the tenant.
func (h *Handler) ListPendingPayouts(w http.ResponseWriter, r *http.Request) {
	payouts, err := h.Store.PendingPayouts(r.Context(), tenantFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending payouts", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayoutDTOs(payouts))
}

// ApprovePayout approves a pending payout.
func (h *Handler) ApprovePayout(w http.ResponseWriter, r *http.Request) {
	h.decidePayout(w, r, incentive.PayoutApproved)
}

// RejectPayout rejects a pending payout, releasing its hold.
func (h *Handler) RejectPayout(w http.ResponseWriter, r *http.Request) {
	h.decidePayout(w, r, incentive.PayoutRejected)
}

func (h *Handler) decidePayout(w http.ResponseWriter, r *http.Request, status incentive.PayoutStatus) {
	id := incentive.PayoutID(chi.URLParam(r, "id"))

	var req DecidePayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DecidedBy == "" {
		writeError(w, http.StatusBadRequest, "decided_by is required", nil)
		return
	}

	var (
		payout incentive.Payout
		err    error
	)
	if status == incentive.PayoutApproved {
		payout, err = h.Ledger.ApprovePayout(r.Context(), id, req.DecidedBy)
	} else {
		payout, err = h.Ledger.RejectPayout(r.Context(), id, req.DecidedBy)
	}
	if err != nil {
		switch {
		case incentive.IsNotFound(err):
			writeError(w, http.StatusNotFound, "Payout not found", nil)
		case errors.Is(err, incentive.ErrPayoutDecided):
			writeError(w, http.StatusConflict, "Payout already decided", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to decide payout", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toPayoutDTO(payout))
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// ListRules returns the version log for ?track=....
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	track := incentive.Track(r.URL.Query().Get("track"))
	if !track.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown or missing track", nil)
		return
	}

	versions, err := h.Store.Versions(r.Context(), tenantFrom(r), track)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rule versions", err)
		return
	}

	dtos := make([]RuleDTO, len(versions))
	for i, v := range versions {
		dtos[i] = RuleDTO{Config: h.RuleFactory.ToJSON(v)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRule appends a rule version to the log. Existing versions are
// never modified; corrections are new versions.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rule, err := h.RuleFactory.FromJSON(tenantFrom(r), req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule definition", err)
		return
	}

	if err := h.Store.Append(r.Context(), rule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to append rule version", err)
		return
	}
	writeJSON(w, http.StatusCreated, RuleDTO{Config: h.RuleFactory.ToJSON(rule)})
}

// =============================================================================
// SYNC HANDLERS
// =============================================================================

// SaveInvoice records a sync input invoice (upsert by id).
func (h *Handler) SaveInvoice(w http.ResponseWriter, r *http.Request) {
	var req SaveInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}
	day, err := incentive.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	discount, err := parseMoneyField(req.ManualDiscount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid manual_discount", err)
		return
	}

	inv := incentive.Invoice{
		ID:             incentive.InvoiceID(req.ID),
		TenantID:       tenantFrom(r),
		Date:           day,
		ManualDiscount: discount,
	}
	for _, item := range req.LineItems {
		itemType, err := parseItemType(item.ItemType)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid line item", err)
			return
		}
		price, err := parseMoneyField(item.FinalPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid line item price", err)
			return
		}
		itemDiscount, err := parseMoneyField(item.Discount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid line item discount", err)
			return
		}
		inv.LineItems = append(inv.LineItems, incentive.InvoiceLineItem{
			ItemType:   itemType,
			StaffID:    incentive.StaffID(item.StaffID),
			FinalPrice: price,
			Discount:   itemDiscount,
		})
	}

	if err := h.Store.SaveInvoice(r.Context(), inv); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save invoice", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

// SyncDay (re)builds the sales facts for one date from its invoices.
func (h *Handler) SyncDay(w http.ResponseWriter, r *http.Request) {
	var req SyncDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day, err := incentive.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	// An omitted reviews field carries stored counts forward; an empty
	// object clears them.
	var reviews map[incentive.StaffID]incentive.ReviewCounts
	if req.Reviews != nil {
		reviews = make(map[incentive.StaffID]incentive.ReviewCounts, len(req.Reviews))
		for id, counts := range req.Reviews {
			reviews[incentive.StaffID(id)] = incentive.ReviewCounts{
				WithName:  counts.WithName,
				WithPhoto: counts.WithPhoto,
			}
		}
	}

	facts, err := h.Sync.SyncDay(r.Context(), tenantFrom(r), day, reviews)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sync day", err)
		return
	}

	resp := SyncDayResponse{Date: day.String(), FactsWritten: len(facts)}
	for _, f := range facts {
		if f.AppliedRule != nil {
			resp.RuleFrozen = string(f.AppliedRule.ID)
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadStaff(w http.ResponseWriter, r *http.Request) (incentive.Staff, bool) {
	id := incentive.StaffID(chi.URLParam(r, "id"))
	staff, err := h.Store.GetStaff(r.Context(), tenantFrom(r), id)
	if errors.Is(err, incentive.ErrStaffNotFound) {
		writeError(w, http.StatusNotFound, "Staff not found", nil)
		return incentive.Staff{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load staff", err)
		return incentive.Staff{}, false
	}
	return staff, true
}

// parseMoneyField parses a decimal-string request field. An absent field
// decodes as "" and means zero.
func parseMoneyField(s string) (incentive.Money, error) {
	if s == "" {
		return incentive.ZeroMoney(), nil
	}
	return incentive.ParseMoney(s)
}

func parseItemType(s string) (incentive.LineItemType, error) {
	switch s {
	case "service":
		return incentive.ItemService, nil
	case "product":
		return incentive.ItemProduct, nil
	case "package":
		return incentive.ItemPackage, nil
	case "gift_card":
		return incentive.ItemGiftCard, nil
	case "fee":
		return incentive.ItemFee, nil
	default:
		return "", fmt.Errorf("unknown item type %q", s)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
