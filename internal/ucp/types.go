// Package ucp implements the merchant-facing Universal Commerce Protocol:
// manifest discovery, catalog search, and the two-step checkout session
// lifecycle, as JSON over HTTP.
package ucp

import (
	"github.com/shopspring/decimal"
)

// WellKnownPath is where a UCP merchant publishes its manifest.
const WellKnownPath = "/.well-known/ucp"

// Capability names a merchant can advertise in its manifest.
const (
	CapabilityCatalog  = "catalog"
	CapabilityCheckout = "checkout"
)

// Manifest is the wire form of a merchant's /.well-known/ucp document.
type Manifest struct {
	UCPVersion   string            `json:"ucp_version"`
	MerchantID   string            `json:"merchant_id"`
	MerchantName string            `json:"merchant_name"`
	Capabilities []string          `json:"capabilities"`
	Endpoints    map[string]string `json:"endpoints,omitempty"`
	Metadata     ManifestMetadata  `json:"metadata"`
}

// ManifestMetadata carries the merchant-level commerce terms the optimizer
// needs: the flat standard shipping cost and the free-shipping threshold.
type ManifestMetadata struct {
	Currency              string          `json:"currency"`
	StandardShippingCost  decimal.Decimal `json:"standard_shipping_cost"`
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
}

// MerchantCapability is a discovered merchant: its manifest plus the base URL
// it was discovered at.
type MerchantCapability struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	BaseURL               string          `json:"baseUrl"`
	Capabilities          []string        `json:"capabilities"`
	Currency              string          `json:"currency"`
	ShippingCost          decimal.Decimal `json:"shippingCost"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
}

// Supports reports whether the merchant advertises the named capability.
func (m MerchantCapability) Supports(capability string) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Product is one catalog entry returned by a merchant search.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Rating      float64         `json:"rating"`
	InStock     bool            `json:"in_stock"`
	Stock       int             `json:"stock"`
}

// searchResponse is the wire envelope of the catalog search endpoint.
type searchResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// LineItem is one (product, quantity) pair in a checkout session request.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// createCheckoutRequest is the wire form of the checkout session creation call.
type createCheckoutRequest struct {
	LineItems []LineItem `json:"line_items"`
}

// CheckoutSession is an open checkout at one merchant, returned by
// CreateCheckout and consumed by CompleteCheckout.
type CheckoutSession struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// OrderConfirmation is the terminal result of completing a checkout session.
type OrderConfirmation struct {
	OrderID string          `json:"order_id"`
	Status  string          `json:"status"`
	Total   decimal.Decimal `json:"total"`
}

// Checkout session statuses a merchant reports.
const (
	CheckoutStatusOpen      = "open"
	CheckoutStatusCompleted = "completed"
)
