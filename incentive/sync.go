/*
sync.go - Sales fact synchronization

PURPOSE:
  Builds the per-staff DailySalesFact rows for a day from that day's
  invoices, redistributes invoice-level manual discounts, and freezes the
  currently-active daily rule snapshot onto each fact.

THIS IS THE ONLY WRITE PATH FOR FACTS.
  Re-syncing a day replaces it wholesale and re-freezes whatever daily
  rule is active at sync time. Reports read the stored snapshot and never
  re-resolve - that is the entire reproducibility contract.

NO RULE ACTIVE:
  When no daily rule exists yet, facts are written with a nil snapshot.
  The daily track then reports missing_rule_snapshot for those days; it
  does not fail the sync, and it must never be backfilled with a rule
  that was created later.

SEE ALSO:
  - discount.go: Redistribution applied here
  - daily.go: Consumer of the frozen snapshot
*/
package incentive

import (
	"context"
	"errors"
	"time"
)

// ReviewCounts carries the per-staff review figures for a day. Reviews are
// sourced outside the invoice stream, so sync receives them as input.
type ReviewCounts struct {
	WithName  int
	WithPhoto int
}

// Synchronizer (re)builds one day's sales facts from invoices.
type Synchronizer struct {
	Invoices InvoiceStore
	Facts    SalesFactStore
	Resolver *RuleResolver

	// Now is the snapshot resolution instant. Tests pin it.
	Now func() time.Time
}

func NewSynchronizer(invoices InvoiceStore, facts SalesFactStore, resolver *RuleResolver) *Synchronizer {
	return &Synchronizer{
		Invoices: invoices,
		Facts:    facts,
		Resolver: resolver,
		Now:      time.Now,
	}
}

// SyncDay aggregates the day's invoices into per-staff facts, applies
// discount redistribution, freezes the active daily rule, and replaces
// the day's stored facts. Returns the facts written.
func (s *Synchronizer) SyncDay(ctx context.Context, tenant TenantID, day Day, reviews map[StaffID]ReviewCounts) ([]DailySalesFact, error) {
	invoices, err := s.Invoices.InvoicesOn(ctx, tenant, day)
	if err != nil {
		return nil, err
	}

	// A nil reviews map means the caller has no review data (the nightly
	// scheduler, for one). Carry the stored counts forward so a re-sync
	// does not erase them. An empty non-nil map clears them on purpose.
	if reviews == nil {
		stored, err := s.Facts.FactsOn(ctx, tenant, day)
		if err != nil {
			return nil, err
		}
		for _, f := range stored {
			if f.ReviewsWithName > 0 || f.ReviewsWithPhoto > 0 {
				if reviews == nil {
					reviews = make(map[StaffID]ReviewCounts)
				}
				reviews[f.StaffID] = ReviewCounts{WithName: f.ReviewsWithName, WithPhoto: f.ReviewsWithPhoto}
			}
		}
	}

	syncedAt := s.Now()
	snapshot, err := s.resolveSnapshot(ctx, tenant, syncedAt)
	if err != nil {
		return nil, err
	}

	byStaff := make(map[StaffID]*DailySalesFact)
	fact := func(id StaffID) *DailySalesFact {
		f, ok := byStaff[id]
		if !ok {
			f = &DailySalesFact{
				StaffID:     id,
				TenantID:    tenant,
				Date:        day,
				AppliedRule: snapshot,
				SyncedAt:    syncedAt,
			}
			byStaff[id] = f
		}
		return f
	}

	for _, inv := range invoices {
		for _, item := range inv.LineItems {
			if item.StaffID == "" {
				continue
			}
			f := fact(item.StaffID)
			switch item.ItemType {
			case ItemService:
				f.ServiceSale = f.ServiceSale.Add(item.FinalPrice)
			case ItemProduct:
				f.ProductSale = f.ProductSale.Add(item.FinalPrice)
			case ItemPackage:
				f.PackageSale = f.PackageSale.Add(item.FinalPrice)
			case ItemGiftCard:
				f.GiftCardSale = f.GiftCardSale.Add(item.FinalPrice)
			}
			// Fees carry no staff attribution value.
		}
	}

	for staffID, share := range RedistributeDiscounts(invoices) {
		fact(staffID).DiscountShare = share
	}

	for staffID, counts := range reviews {
		f := fact(staffID)
		f.ReviewsWithName = counts.WithName
		f.ReviewsWithPhoto = counts.WithPhoto
	}

	facts := make([]DailySalesFact, 0, len(byStaff))
	for _, f := range byStaff {
		facts = append(facts, *f)
	}

	if err := s.Facts.ReplaceDay(ctx, tenant, day, facts); err != nil {
		return nil, err
	}
	return facts, nil
}

func (s *Synchronizer) resolveSnapshot(ctx context.Context, tenant TenantID, at time.Time) (*Rule, error) {
	rule, err := s.Resolver.Resolve(ctx, tenant, TrackDaily, at)
	if errors.Is(err, ErrNoActiveRule) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}
