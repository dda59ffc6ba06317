// Package planner computes the cheapest split of a shopping list across
// merchants, trading item-level price wins against per-merchant shipping
// costs and free-shipping thresholds.
package planner

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dusk-indust/shopsplit/internal/offer"
)

// PlannedItem is one item placed with a merchant.
type PlannedItem struct {
	ItemRequestID string          `json:"itemRequestId"`
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
}

// MerchantOrder is the slice of the plan placed with a single merchant.
type MerchantOrder struct {
	MerchantID string          `json:"merchantId"`
	Items      []PlannedItem   `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Total      decimal.Decimal `json:"total"`
}

// Plan is the optimizer's output: per-merchant orders plus totals. Immutable
// once returned.
type Plan struct {
	Orders map[string]MerchantOrder `json:"orders"`

	// Unfulfillable items are excluded from all totals.
	Unfulfillable []string `json:"unfulfillable,omitempty"`

	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingTotal decimal.Decimal `json:"shippingTotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`

	// SavingsVsGreedy is how much the consolidation pass saved over the
	// naive cheapest-item-wins assignment. Never negative.
	SavingsVsGreedy decimal.Decimal `json:"savingsVsGreedy"`

	// SavingsVsSingle is how much the plan saves over the best merchant
	// that could fulfill everything alone. Zero when no single merchant can.
	SavingsVsSingle decimal.Decimal `json:"savingsVsSingle"`
}

// MerchantIDs returns the plan's merchants in sorted order.
func (p Plan) MerchantIDs() []string {
	ids := make([]string, 0, len(p.Orders))
	for id := range p.Orders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// assignment maps item request ID to the chosen offer.
type assignment map[string]offer.Offer

// merchantTerms is the shipping cost and threshold for one merchant, pulled
// from its offers (consistent across a merchant's offers by construction).
type merchantTerms struct {
	shippingCost decimal.Decimal
	threshold    decimal.Decimal
}

// Optimize computes a plan for the matrix. It starts from the greedy
// cheapest-offer-per-item assignment, then repeatedly applies the single
// best strictly-improving one-item reassignment until none remains or the
// iteration cap (fulfillable items times candidate merchants) is reached.
// A single-merchant assignment is also evaluated and wins if strictly
// cheaper. Deterministic: iteration follows matrix order, ties keep the
// earlier candidate, and no clock or randomness is involved.
func Optimize(m offer.Matrix) Plan {
	terms := collectTerms(m)

	fulfillable := make([]string, 0, len(m.ItemIDs))
	for _, id := range m.ItemIDs {
		if len(m.Offers[id]) > 0 {
			fulfillable = append(fulfillable, id)
		}
	}

	if len(fulfillable) == 0 {
		return Plan{
			Orders:        map[string]MerchantOrder{},
			Unfulfillable: append([]string(nil), m.Unfulfillable...),
		}
	}

	// Greedy baseline: best offer per item in matrix order.
	assign := make(assignment, len(fulfillable))
	for _, id := range fulfillable {
		assign[id] = m.Offers[id][0]
	}
	greedyTotal := grandTotal(assign, terms)

	// Consolidation: best single-item move per round, strictly improving.
	maxRounds := len(fulfillable) * len(m.MerchantIDs())
	for round := 0; round < maxRounds; round++ {
		current := grandTotal(assign, terms)

		bestDelta := decimal.Zero
		bestItem := ""
		var bestOffer offer.Offer

		for _, id := range fulfillable {
			assigned := assign[id]
			for _, candidate := range m.Offers[id] {
				if candidate.MerchantID == assigned.MerchantID && candidate.ProductID == assigned.ProductID {
					continue
				}
				assign[id] = candidate
				delta := grandTotal(assign, terms).Sub(current)
				assign[id] = assigned

				if delta.LessThan(bestDelta) {
					bestDelta = delta
					bestItem = id
					bestOffer = candidate
				}
			}
		}

		if bestItem == "" {
			break
		}
		assign[bestItem] = bestOffer
	}

	// Single-merchant baseline: the cheapest merchant that can take the
	// whole list. Adopted only when strictly cheaper than the split.
	singleAssign, singleTotal, haveSingle := bestSingleMerchant(m, fulfillable, terms)
	final := grandTotal(assign, terms)
	if haveSingle && singleTotal.LessThan(final) {
		assign = singleAssign
		final = singleTotal
	}

	plan := buildPlan(m, fulfillable, assign, terms)
	plan.SavingsVsGreedy = greedyTotal.Sub(plan.GrandTotal)
	if haveSingle && singleTotal.GreaterThan(plan.GrandTotal) {
		plan.SavingsVsSingle = singleTotal.Sub(plan.GrandTotal)
	}
	return plan
}

// collectTerms extracts each merchant's shipping terms from the matrix.
func collectTerms(m offer.Matrix) map[string]merchantTerms {
	terms := make(map[string]merchantTerms)
	for _, offers := range m.Offers {
		for _, o := range offers {
			if _, ok := terms[o.MerchantID]; !ok {
				terms[o.MerchantID] = merchantTerms{
					shippingCost: o.ShippingCost,
					threshold:    o.FreeShippingThreshold,
				}
			}
		}
	}
	return terms
}

// shippingFor returns the shipping charge for a merchant order subtotal.
func shippingFor(t merchantTerms, subtotal decimal.Decimal) decimal.Decimal {
	if t.threshold.IsPositive() && subtotal.GreaterThanOrEqual(t.threshold) {
		return decimal.Zero
	}
	return t.shippingCost
}

// grandTotal computes items plus per-merchant shipping for an assignment.
func grandTotal(assign assignment, terms map[string]merchantTerms) decimal.Decimal {
	subtotals := make(map[string]decimal.Decimal, len(terms))
	total := decimal.Zero
	for _, o := range assign {
		subtotals[o.MerchantID] = subtotals[o.MerchantID].Add(o.UnitPrice)
		total = total.Add(o.UnitPrice)
	}
	for merchantID, subtotal := range subtotals {
		total = total.Add(shippingFor(terms[merchantID], subtotal))
	}
	return total
}

// bestSingleMerchant finds the cheapest merchant able to fulfill every item
// alone, using that merchant's best offer per item. Reports false when no
// merchant covers the full list.
func bestSingleMerchant(m offer.Matrix, fulfillable []string, terms map[string]merchantTerms) (assignment, decimal.Decimal, bool) {
	var bestAssign assignment
	var bestTotal decimal.Decimal
	found := false

	for _, merchantID := range m.MerchantIDs() {
		assign := make(assignment, len(fulfillable))
		covered := true
		for _, id := range fulfillable {
			picked := false
			for _, o := range m.Offers[id] {
				if o.MerchantID == merchantID {
					assign[id] = o // offers are sorted, first match is best
					picked = true
					break
				}
			}
			if !picked {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}

		total := grandTotal(assign, terms)
		if !found || total.LessThan(bestTotal) {
			bestAssign = assign
			bestTotal = total
			found = true
		}
	}
	return bestAssign, bestTotal, found
}

// buildPlan materializes an assignment into per-merchant orders and totals.
func buildPlan(m offer.Matrix, fulfillable []string, assign assignment, terms map[string]merchantTerms) Plan {
	orders := make(map[string]MerchantOrder)
	for _, id := range fulfillable {
		o := assign[id]
		mo := orders[o.MerchantID]
		mo.MerchantID = o.MerchantID
		mo.Items = append(mo.Items, PlannedItem{
			ItemRequestID: id,
			ProductID:     o.ProductID,
			ProductName:   o.ProductName,
			UnitPrice:     o.UnitPrice,
		})
		mo.Subtotal = mo.Subtotal.Add(o.UnitPrice)
		orders[o.MerchantID] = mo
	}

	plan := Plan{
		Orders:        orders,
		Unfulfillable: append([]string(nil), m.Unfulfillable...),
	}
	for merchantID, mo := range orders {
		mo.Shipping = shippingFor(terms[merchantID], mo.Subtotal)
		mo.Total = mo.Subtotal.Add(mo.Shipping)
		orders[merchantID] = mo

		plan.Subtotal = plan.Subtotal.Add(mo.Subtotal)
		plan.ShippingTotal = plan.ShippingTotal.Add(mo.Shipping)
	}
	plan.GrandTotal = plan.Subtotal.Add(plan.ShippingTotal)
	return plan
}
