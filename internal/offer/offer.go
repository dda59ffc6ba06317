// Package offer models what merchants can sell for each requested item and
// builds the comparison matrix the optimizer runs on.
package offer

import (
	"github.com/shopspring/decimal"
)

// Offer is one merchant's bid to fulfill one item request.
type Offer struct {
	MerchantID    string `json:"merchantId"`
	ItemRequestID string `json:"itemRequestId"`
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`

	UnitPrice decimal.Decimal `json:"unitPrice"`

	// ShippingCost is the merchant's flat standard shipping cost, charged at
	// most once per merchant order.
	ShippingCost decimal.Decimal `json:"shippingCost"`

	// FreeShippingThreshold waives ShippingCost when a merchant order's
	// subtotal reaches it. Zero means the merchant never ships free.
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`

	Rating  float64 `json:"rating"`
	InStock bool    `json:"inStock"`
}

// less orders offers by unit price ascending, then rating descending, then
// merchant ID ascending, then product ID ascending. Total order, so sorting
// is deterministic.
func less(a, b Offer) bool {
	if !a.UnitPrice.Equal(b.UnitPrice) {
		return a.UnitPrice.LessThan(b.UnitPrice)
	}
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if a.MerchantID != b.MerchantID {
		return a.MerchantID < b.MerchantID
	}
	return a.ProductID < b.ProductID
}
