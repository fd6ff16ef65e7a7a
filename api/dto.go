/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  All monetary figures cross the wire as decimal strings ("275.00"),
  never floats. Clients doing arithmetic on them is their own risk.

CALCULABILITY:
  Track results always carry a status. "not_calculable" plus a reason
  means the figure does not exist for that day/track; it is NOT a zero
  and clients must render it distinctly.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rule.go: RuleJSON type
*/
package api

import (
	"time"

	"github.com/salonkit/incentive-engine/factory"
	"github.com/salonkit/incentive-engine/incentive"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// StaffDTO represents a staff member in API responses.
type StaffDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Salary string `json:"salary"`
}

// CreateStaffRequest is the request to create or update a staff member.
type CreateStaffRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Salary string `json:"salary"` // decimal string
}

// TrackResultDTO is one track's outcome for one day.
type TrackResultDTO struct {
	Track  string `json:"track"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`

	Target      string `json:"target,omitempty"`
	Achieved    string `json:"achieved,omitempty"`
	Incentive   string `json:"incentive,omitempty"`
	TargetMet   bool   `json:"target_met"`
	AppliedRate string `json:"applied_rate,omitempty"`
}

// DayBreakdownDTO is the full per-track picture for one day.
type DayBreakdownDTO struct {
	Date   string           `json:"date"`
	Tracks []TrackResultDTO `json:"tracks"`
	Total  string           `json:"total"`
}

// IncentiveRangeResponse is a date range of day breakdowns.
type IncentiveRangeResponse struct {
	StaffID string            `json:"staff_id"`
	From    string            `json:"from"`
	To      string            `json:"to"`
	Days    []DayBreakdownDTO `json:"days"`
	Total   string            `json:"total"`
}

// TrackSummaryDTO is a month-level rollup for one track.
type TrackSummaryDTO struct {
	Track          string `json:"track"`
	TotalAchieved  string `json:"total_achieved"`
	TotalIncentive string `json:"total_incentive"`
	DaysCalculated int    `json:"days_calculated"`
}

// MonthSummaryResponse is the per-track summary for one calendar month.
type MonthSummaryResponse struct {
	StaffID string            `json:"staff_id"`
	Month   string            `json:"month"` // YYYY-MM
	Tracks  []TrackSummaryDTO `json:"tracks"`
}

// BalanceDTO is the earned-vs-claimed position.
type BalanceDTO struct {
	StaffID      string `json:"staff_id"`
	AsOf         string `json:"as_of"`
	EarnedToDate string `json:"earned_to_date"`
	Committed    string `json:"committed"`
	Available    string `json:"available"`
}

// PayoutDTO represents a payout record.
type PayoutDTO struct {
	ID        string `json:"id"`
	StaffID   string `json:"staff_id"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	DecidedAt string `json:"decided_at,omitempty"`
	DecidedBy string `json:"decided_by,omitempty"`
}

// RequestPayoutRequest is the request to claim part of the balance.
type RequestPayoutRequest struct {
	Amount string `json:"amount"` // decimal string
	Reason string `json:"reason,omitempty"`
}

// DecidePayoutRequest carries the approver's identity.
type DecidePayoutRequest struct {
	DecidedBy string `json:"decided_by"`
}

// RuleDTO represents a rule version in API responses.
type RuleDTO struct {
	Config factory.RuleJSON `json:"config"`
}

// CreateRuleRequest is the request to append a rule version.
type CreateRuleRequest struct {
	Config factory.RuleJSON `json:"config"`
}

// SaveInvoiceRequest is the sync input for one invoice.
type SaveInvoiceRequest struct {
	ID             string               `json:"id"`
	Date           string               `json:"date"` // YYYY-MM-DD
	ManualDiscount string               `json:"manual_discount,omitempty"` // decimal string
	LineItems      []InvoiceLineItemDTO `json:"line_items"`
}

// InvoiceLineItemDTO is one invoice line. Amounts are decimal strings.
type InvoiceLineItemDTO struct {
	ItemType   string `json:"item_type"` // service, product, package, gift_card, fee
	StaffID    string `json:"staff_id,omitempty"`
	FinalPrice string `json:"final_price"`
	Discount   string `json:"discount,omitempty"`
}

// SyncDayRequest triggers fact (re)building for a date.
type SyncDayRequest struct {
	Date    string                    `json:"date"` // YYYY-MM-DD
	Reviews map[string]ReviewCountDTO `json:"reviews,omitempty"`
}

// ReviewCountDTO carries per-staff review figures.
type ReviewCountDTO struct {
	WithName  int `json:"with_name"`
	WithPhoto int `json:"with_photo"`
}

// SyncDayResponse reports what the sync wrote.
type SyncDayResponse struct {
	Date         string `json:"date"`
	FactsWritten int    `json:"facts_written"`
	RuleFrozen   string `json:"rule_frozen,omitempty"` // daily rule version id, if any
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTrackResultDTO(tr incentive.TrackResult) TrackResultDTO {
	dto := TrackResultDTO{
		Track:  string(tr.Track),
		Status: string(tr.Status),
		Reason: string(tr.Reason),
	}
	if tr.Status == incentive.StatusCalculated {
		dto.Target = tr.Target.String()
		dto.Achieved = tr.Achieved.String()
		dto.Incentive = tr.Incentive.String()
		dto.TargetMet = tr.TargetMet
		dto.AppliedRate = tr.AppliedRate.String()
	}
	return dto
}

func toDayBreakdownDTO(b incentive.DayBreakdown) DayBreakdownDTO {
	tracks := b.Tracks()
	dtos := make([]TrackResultDTO, len(tracks))
	for i, tr := range tracks {
		dtos[i] = toTrackResultDTO(tr)
	}
	return DayBreakdownDTO{
		Date:   b.Date.String(),
		Tracks: dtos,
		Total:  b.Total.String(),
	}
}

func toPayoutDTO(p incentive.Payout) PayoutDTO {
	dto := PayoutDTO{
		ID:        string(p.ID),
		StaffID:   string(p.StaffID),
		Amount:    p.Amount.String(),
		Reason:    p.Reason,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		DecidedBy: p.DecidedBy,
	}
	if !p.DecidedAt.IsZero() {
		dto.DecidedAt = p.DecidedAt.Format(time.RFC3339)
	}
	return dto
}

func toPayoutDTOs(payouts []incentive.Payout) []PayoutDTO {
	dtos := make([]PayoutDTO, len(payouts))
	for i, p := range payouts {
		dtos[i] = toPayoutDTO(p)
	}
	return dtos
}

func toStaffDTO(s incentive.Staff) StaffDTO {
	return StaffDTO{
		ID:     string(s.ID),
		Name:   s.Name,
		Salary: s.Salary.String(),
	}
}
