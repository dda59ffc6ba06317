package planner

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/shopsplit/internal/intent"
	"github.com/dusk-indust/shopsplit/internal/offer"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// demoMatrix reproduces the keyboard-and-hub storefront constants used in
// the demo catalogs.
func demoMatrix() offer.Matrix {
	items := []intent.ItemRequest{
		{ID: "item-1", Query: "keyboard"},
		{ID: "item-2", Query: "hub"},
	}
	tz := func(price string) offer.Offer {
		return offer.Offer{MerchantID: "techzone", UnitPrice: d(price), ShippingCost: d("5.99"), FreeShippingThreshold: d("150"), InStock: true}
	}
	hg := func(price string) offer.Offer {
		return offer.Offer{MerchantID: "homegoods", UnitPrice: d(price), ShippingCost: d("4.99"), FreeShippingThreshold: d("40"), InStock: true}
	}
	mm := func(price string) offer.Offer {
		return offer.Offer{MerchantID: "megamart", UnitPrice: d(price), ShippingCost: d("8.99"), FreeShippingThreshold: d("50"), InStock: true}
	}

	kb1, kb2, kb3 := tz("79"), hg("89"), mm("69")
	kb1.ItemRequestID, kb1.ProductID = "item-1", "tz-kb"
	kb2.ItemRequestID, kb2.ProductID = "item-1", "hg-kb"
	kb3.ItemRequestID, kb3.ProductID = "item-1", "mm-kb"

	hub1, hub2, hub3 := tz("45"), hg("34"), mm("39")
	hub1.ItemRequestID, hub1.ProductID = "item-2", "tz-hub"
	hub2.ItemRequestID, hub2.ProductID = "item-2", "hg-hub"
	hub3.ItemRequestID, hub3.ProductID = "item-2", "mm-hub"

	return offer.BuildMatrix(items, map[string][]offer.Offer{
		"item-1": {kb1, kb2, kb3},
		"item-2": {hub1, hub2, hub3},
	})
}

func TestOptimize_KeyboardAndHubScenario(t *testing.T) {
	plan := Optimize(demoMatrix())

	require.Len(t, plan.Orders, 2)

	mm := plan.Orders["megamart"]
	require.Len(t, mm.Items, 1)
	assert.Equal(t, "item-1", mm.Items[0].ItemRequestID)
	assert.True(t, mm.Subtotal.Equal(d("69")), "megamart subtotal %s", mm.Subtotal)
	assert.True(t, mm.Shipping.IsZero(), "megamart ships free above $50, got %s", mm.Shipping)

	hg := plan.Orders["homegoods"]
	require.Len(t, hg.Items, 1)
	assert.Equal(t, "item-2", hg.Items[0].ItemRequestID)
	assert.True(t, hg.Shipping.Equal(d("4.99")), "homegoods shipping %s", hg.Shipping)

	assert.True(t, plan.GrandTotal.Equal(d("107.99")), "grand total %s", plan.GrandTotal)

	// The split beats the best single merchant (all-MegaMart at $108).
	assert.True(t, plan.SavingsVsSingle.Equal(d("0.01")), "savings vs single %s", plan.SavingsVsSingle)
}

func TestOptimize_ConsolidationBeatsGreedy(t *testing.T) {
	// Greedy spreads item-1 and item-2 across two merchants, paying
	// shipping twice. Pulling item-2 over to alpha costs $1 more on the
	// item but saves a full $12 shipping charge. item-3 pins a third
	// merchant so no single merchant can take the whole list.
	items := []intent.ItemRequest{
		{ID: "item-1"}, {ID: "item-2"}, {ID: "item-3"},
	}
	mk := func(item, merchant, price, ship string) offer.Offer {
		return offer.Offer{
			ItemRequestID: item, MerchantID: merchant, ProductID: merchant + "-" + item,
			UnitPrice: d(price), ShippingCost: d(ship), InStock: true,
		}
	}
	m := offer.BuildMatrix(items, map[string][]offer.Offer{
		"item-1": {mk("item-1", "alpha", "50", "12"), mk("item-1", "beta", "51", "12")},
		"item-2": {mk("item-2", "beta", "50", "12"), mk("item-2", "alpha", "51", "12")},
		"item-3": {mk("item-3", "gamma", "10", "1")},
	})

	plan := Optimize(m)

	// Greedy: 50 + 50 + 10 + (12+12+1) = 135. Consolidated: 50 + 51 + 10
	// + (12+1) = 124.
	assert.True(t, plan.GrandTotal.Equal(d("124")), "grand total %s", plan.GrandTotal)
	assert.True(t, plan.SavingsVsGreedy.Equal(d("11")), "savings vs greedy %s", plan.SavingsVsGreedy)
	require.Len(t, plan.Orders["alpha"].Items, 2)
	require.Len(t, plan.Orders["gamma"].Items, 1)
}

func TestOptimize_SingleMerchantWinsWhenSplitIsDearer(t *testing.T) {
	// Item prices barely differ but every extra merchant costs $15 in
	// shipping, so one order from beta is cheapest.
	items := []intent.ItemRequest{{ID: "item-1"}, {ID: "item-2"}}
	mk := func(item, merchant, price string) offer.Offer {
		return offer.Offer{
			ItemRequestID: item, MerchantID: merchant, ProductID: merchant + "-" + item,
			UnitPrice: d(price), ShippingCost: d("15"), InStock: true,
		}
	}
	m := offer.BuildMatrix(items, map[string][]offer.Offer{
		"item-1": {mk("item-1", "alpha", "20"), mk("item-1", "beta", "21")},
		"item-2": {mk("item-2", "beta", "30"), mk("item-2", "alpha", "31")},
	})

	plan := Optimize(m)

	require.Len(t, plan.Orders, 1)
	assert.Contains(t, plan.Orders, "beta")
	// beta: 21 + 30 + 15 = 66 vs greedy 20 + 30 + 30 = 80.
	assert.True(t, plan.GrandTotal.Equal(d("66")), "grand total %s", plan.GrandTotal)
}

func TestOptimize_UnfulfillableExcludedFromTotals(t *testing.T) {
	items := []intent.ItemRequest{{ID: "item-1"}, {ID: "item-2"}}
	m := offer.BuildMatrix(items, map[string][]offer.Offer{
		"item-1": {{
			ItemRequestID: "item-1", MerchantID: "alpha", ProductID: "a-1",
			UnitPrice: d("10"), ShippingCost: d("3"), InStock: true,
		}},
	})

	plan := Optimize(m)

	assert.Equal(t, []string{"item-2"}, plan.Unfulfillable)
	assert.True(t, plan.GrandTotal.Equal(d("13")), "grand total %s", plan.GrandTotal)
}

func TestOptimize_EmptyMatrix(t *testing.T) {
	m := offer.BuildMatrix([]intent.ItemRequest{{ID: "item-1"}}, nil)
	plan := Optimize(m)

	assert.Empty(t, plan.Orders)
	assert.Equal(t, []string{"item-1"}, plan.Unfulfillable)
	assert.True(t, plan.GrandTotal.IsZero())
}

func TestOptimize_Deterministic(t *testing.T) {
	m := randomMatrix(t, 12345)

	a := Optimize(m)
	b := Optimize(m)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("plans differ between runs (-first +second):\n%s", diff)
	}
}

func TestOptimize_NeverWorseThanGreedy(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		m := randomMatrix(t, seed)
		plan := Optimize(m)

		terms := collectTerms(m)
		greedy := make(assignment)
		for _, id := range m.ItemIDs {
			if offers := m.Offers[id]; len(offers) > 0 {
				greedy[id] = offers[0]
			}
		}
		greedyTotal := grandTotal(greedy, terms)

		assert.True(t, plan.GrandTotal.LessThanOrEqual(greedyTotal),
			"seed %d: plan %s worse than greedy %s", seed, plan.GrandTotal, greedyTotal)
		assertCoverage(t, m, plan, seed)
	}
}

// assertCoverage checks every item appears exactly once: either assigned to
// exactly one merchant order or listed as unfulfillable.
func assertCoverage(t *testing.T, m offer.Matrix, plan Plan, seed uint64) {
	t.Helper()

	placed := make(map[string]int)
	for _, mo := range plan.Orders {
		for _, it := range mo.Items {
			placed[it.ItemRequestID]++
		}
	}
	unfulfillable := make(map[string]bool)
	for _, id := range plan.Unfulfillable {
		unfulfillable[id] = true
	}

	for _, id := range m.ItemIDs {
		if unfulfillable[id] {
			assert.Zero(t, placed[id], "seed %d: item %s both placed and unfulfillable", seed, id)
		} else {
			assert.Equal(t, 1, placed[id], "seed %d: item %s placed %d times", seed, id, placed[id])
		}
	}
}

// randomMatrix builds a seeded random matrix: 2-6 items, 2-4 merchants, each
// merchant offering each item with 70% probability.
func randomMatrix(t *testing.T, seed uint64) offer.Matrix {
	t.Helper()
	faker := gofakeit.New(seed)

	merchantCount := faker.IntRange(2, 4)
	type merchant struct {
		id        string
		ship      decimal.Decimal
		threshold decimal.Decimal
	}
	merchants := make([]merchant, merchantCount)
	for i := range merchants {
		m := merchant{
			id:   fmt.Sprintf("merchant-%d", i+1),
			ship: decimal.NewFromFloat(faker.Price(2, 12)).Round(2),
		}
		if faker.Bool() {
			m.threshold = decimal.NewFromFloat(faker.Price(40, 150)).Round(2)
		}
		merchants[i] = m
	}

	itemCount := faker.IntRange(2, 6)
	items := make([]intent.ItemRequest, itemCount)
	offersByItem := make(map[string][]offer.Offer)
	for i := range items {
		id := fmt.Sprintf("item-%d", i+1)
		items[i] = intent.ItemRequest{ID: id, Query: faker.ProductName()}
		for _, m := range merchants {
			if faker.IntRange(1, 10) > 7 {
				continue
			}
			offersByItem[id] = append(offersByItem[id], offer.Offer{
				ItemRequestID:         id,
				MerchantID:            m.id,
				ProductID:             m.id + "-" + id,
				UnitPrice:             decimal.NewFromFloat(faker.Price(5, 100)).Round(2),
				ShippingCost:          m.ship,
				FreeShippingThreshold: m.threshold,
				Rating:                float64(faker.IntRange(10, 50)) / 10,
				InStock:               faker.IntRange(1, 10) > 1,
			})
		}
	}

	return offer.BuildMatrix(items, offersByItem)
}
