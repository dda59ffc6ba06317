package offer

import (
	"sort"

	"github.com/dusk-indust/shopsplit/internal/intent"
)

// Matrix is the comparison matrix: for every requested item, the viable
// offers in best-first order. Built once per session and treated as immutable
// afterwards.
type Matrix struct {
	// ItemIDs preserves the request order of the items.
	ItemIDs []string `json:"itemIds"`

	// Offers maps item request ID to its viable offers, ordered by unit
	// price ascending, rating descending, merchant ID ascending.
	Offers map[string][]Offer `json:"offers"`

	// Unfulfillable lists items with no viable offer, in request order.
	Unfulfillable []string `json:"unfulfillable,omitempty"`
}

// MerchantIDs returns the sorted set of merchants appearing anywhere in the
// matrix.
func (m Matrix) MerchantIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, offers := range m.Offers {
		for _, o := range offers {
			if !seen[o.MerchantID] {
				seen[o.MerchantID] = true
				ids = append(ids, o.MerchantID)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// BuildMatrix assembles the comparison matrix from raw per-item offers.
// Out-of-stock offers are dropped, then each item's constraints (price cap,
// merchant exclusions) are applied, then survivors are sorted. Items left
// with no offers are recorded as unfulfillable. Pure: no I/O, no clock, no
// randomness.
func BuildMatrix(items []intent.ItemRequest, offersByItem map[string][]Offer) Matrix {
	m := Matrix{
		ItemIDs: make([]string, 0, len(items)),
		Offers:  make(map[string][]Offer, len(items)),
	}

	for _, item := range items {
		m.ItemIDs = append(m.ItemIDs, item.ID)

		var viable []Offer
		for _, o := range offersByItem[item.ID] {
			if !o.InStock {
				continue
			}
			if item.MaxPrice != nil && o.UnitPrice.GreaterThan(*item.MaxPrice) {
				continue
			}
			if excluded(item.ExcludeMerchants, o.MerchantID) {
				continue
			}
			viable = append(viable, o)
		}

		if len(viable) == 0 {
			m.Unfulfillable = append(m.Unfulfillable, item.ID)
			continue
		}

		sort.SliceStable(viable, func(i, j int) bool {
			return less(viable[i], viable[j])
		})
		m.Offers[item.ID] = viable
	}

	return m
}

func excluded(merchants []string, id string) bool {
	for _, m := range merchants {
		if m == id {
			return true
		}
	}
	return false
}
