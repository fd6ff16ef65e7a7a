/*
discount.go - Invoice-level discount redistribution

PURPOSE:
  Converts invoice-level manual discounts into per-staff discount shares,
  so the net service sale each staff member is measured on reflects the
  discounts their invoices carried.

ALLOCATION MODEL:
  Per invoice with a non-zero manual discount:
    totalServiceValue = sum of FinalPrice over ALL service line items,
                        including lines with no staff attribution
    staffShare        = discount * staffServiceValue / totalServiceValue

  Shares are summed per staff across all invoices of the day. Only service
  line items absorb manual discount; products and fees never do. An invoice
  whose service lines total zero is skipped - a discount with no service
  lines is an expected data shape, not an error.

CONSERVATION:
  Over invoices whose service lines are fully attributed, the per-staff
  shares sum back to the manual discount (shares are kept at full decimal
  precision; rounding happens only when an incentive amount is finally
  produced). The fraction of a discount falling on unattributed service
  lines is left unallocated. No staff member's share can exceed their own
  service-line value when the discount does not exceed the invoice's
  service total.

SEE ALSO:
  - types.go: DailySalesFact.NetServiceSale, where the share is subtracted
*/
package incentive

// RedistributeDiscounts spreads each invoice's manual discount across the
// staff on its service line items, proportional to their service value.
// Returns the summed share per staff over all invoices supplied (one day's
// worth, by convention).
func RedistributeDiscounts(invoices []Invoice) map[StaffID]Money {
	shares := make(map[StaffID]Money)

	for _, inv := range invoices {
		if !inv.ManualDiscount.IsPositive() {
			continue
		}

		// The denominator covers every service line, attributed or not.
		// The unattributed fraction of the discount stays unallocated,
		// which keeps each staff share capped by their own service value.
		totalService := ZeroMoney()
		perStaff := make(map[StaffID]Money)
		for _, item := range inv.LineItems {
			if item.ItemType != ItemService {
				continue
			}
			totalService = totalService.Add(item.FinalPrice)
			if item.StaffID == "" {
				continue
			}
			perStaff[item.StaffID] = perStaff[item.StaffID].Add(item.FinalPrice)
		}

		// Division guard: no service value means the discount is not
		// attributable to anyone.
		if !totalService.IsPositive() {
			continue
		}

		for staffID, staffService := range perStaff {
			share := inv.ManualDiscount.Mul(staffService.Value).Div(totalService.Value)
			shares[staffID] = shares[staffID].Add(share)
		}
	}

	return shares
}
