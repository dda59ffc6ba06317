package mcptools

// --- MCP Tool Types for the shopsplit server mode (--serve-mcp) ---
// These tools let an MCP client drive shopping sessions with structured
// calls instead of raw HTTP.

// ShopInput is the input for the shop MCP tool.
type ShopInput struct {
	Query string `json:"query" jsonschema:"free-form shopping query, e.g. 'a mechanical keyboard and a usb-c hub'"`
}

// MerchantOrderSummary is one merchant's slice of an optimization plan.
type MerchantOrderSummary struct {
	MerchantID string   `json:"merchantId"`
	Items      []string `json:"items"`
	Subtotal   string   `json:"subtotal"`
	Shipping   string   `json:"shipping"`
	Total      string   `json:"total"`
}

// ShopOutput is the result of the shop MCP tool: the session parked at the
// confirmation gate, or its failure.
type ShopOutput struct {
	SessionID     string                 `json:"sessionId"`
	State         string                 `json:"state"`
	GrandTotal    string                 `json:"grandTotal,omitempty"`
	Orders        []MerchantOrderSummary `json:"orders,omitempty"`
	Unfulfillable []string               `json:"unfulfillable,omitempty"`
	FailureReason string                 `json:"failureReason,omitempty"`
}

// GetSessionInput is the input for the get_session MCP tool.
type GetSessionInput struct {
	SessionID string `json:"sessionId" jsonschema:"shopping session ID"`
}

// GetSessionOutput is the result of the get_session MCP tool.
type GetSessionOutput struct {
	SessionID     string `json:"sessionId"`
	Query         string `json:"query"`
	State         string `json:"state"`
	Seq           uint64 `json:"seq"`
	GrandTotal    string `json:"grandTotal,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

// ConfirmOrderInput is the input for the confirm_order MCP tool.
type ConfirmOrderInput struct {
	SessionID string `json:"sessionId" jsonschema:"session awaiting confirmation"`
}

// CheckoutOutcomeSummary is one merchant's checkout result.
type CheckoutOutcomeSummary struct {
	MerchantID     string `json:"merchantId"`
	Status         string `json:"status"`
	OrderReference string `json:"orderReference,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ConfirmOrderOutput is the result of the confirm_order MCP tool.
type ConfirmOrderOutput struct {
	SessionID     string                   `json:"sessionId"`
	State         string                   `json:"state"`
	OverallStatus string                   `json:"overallStatus,omitempty"`
	TotalCharged  string                   `json:"totalCharged,omitempty"`
	Outcomes      []CheckoutOutcomeSummary `json:"outcomes,omitempty"`
}

// CancelOrderInput is the input for the cancel_order MCP tool.
type CancelOrderInput struct {
	SessionID string `json:"sessionId" jsonschema:"session awaiting confirmation"`
}

// CancelOrderOutput is the result of the cancel_order MCP tool.
type CancelOrderOutput struct {
	SessionID string `json:"sessionId"`
	State     string `json:"state"`
}

// ComparePricesInput is the input for the compare_prices MCP tool.
type ComparePricesInput struct {
	SessionID string `json:"sessionId" jsonschema:"session whose comparison matrix to read"`
}

// OfferSummary is one merchant's offer for one requested item.
type OfferSummary struct {
	MerchantID  string  `json:"merchantId"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	UnitPrice   string  `json:"unitPrice"`
	Shipping    string  `json:"shipping"`
	Rating      float64 `json:"rating"`
}

// ItemComparison is the ranked offer list for one item.
type ItemComparison struct {
	ItemID string         `json:"itemId"`
	Query  string         `json:"query"`
	Offers []OfferSummary `json:"offers"`
}

// ComparePricesOutput is the result of the compare_prices MCP tool.
type ComparePricesOutput struct {
	SessionID     string           `json:"sessionId"`
	Items         []ItemComparison `json:"items"`
	Unfulfillable []string         `json:"unfulfillable,omitempty"`
}

// DiscoverMerchantsInput is the input for the discover_merchants MCP tool.
type DiscoverMerchantsInput struct {
	URLs []string `json:"urls,omitempty" jsonschema:"merchant base URLs to probe (default: the configured set)"`
}

// MerchantSummary is one discovered merchant.
type MerchantSummary struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	ShippingCost          string `json:"shippingCost"`
	FreeShippingThreshold string `json:"freeShippingThreshold"`
}

// DiscoverMerchantsOutput is the result of the discover_merchants MCP tool.
type DiscoverMerchantsOutput struct {
	Merchants []MerchantSummary `json:"merchants"`
}

// TrackOrdersInput is the input for the track_orders MCP tool.
type TrackOrdersInput struct {
	SessionID string `json:"sessionId,omitempty" jsonschema:"limit to one session (default: all completed orders)"`
}

// UnifiedOrderSummary is the aggregated result of one session's checkout.
type UnifiedOrderSummary struct {
	SessionID     string                   `json:"sessionId"`
	OverallStatus string                   `json:"overallStatus"`
	TotalCharged  string                   `json:"totalCharged"`
	Outcomes      []CheckoutOutcomeSummary `json:"outcomes"`
}

// TrackOrdersOutput is the result of the track_orders MCP tool.
type TrackOrdersOutput struct {
	Orders []UnifiedOrderSummary `json:"orders"`
}
