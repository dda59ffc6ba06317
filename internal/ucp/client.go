package ucp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is the merchant capability set the pipeline depends on. Retry policy
// belongs to callers; the client reports each failure exactly once.
type Client interface {
	// Discover fetches the UCP manifest published at baseURL.
	Discover(ctx context.Context, baseURL string) (*MerchantCapability, error)

	// SearchProducts queries the merchant's catalog.
	SearchProducts(ctx context.Context, merchant MerchantCapability, query string, limit int) ([]Product, error)

	// CreateCheckout opens a checkout session for the given line items.
	CreateCheckout(ctx context.Context, merchant MerchantCapability, items []LineItem) (*CheckoutSession, error)

	// CompleteCheckout finalizes an open checkout session into an order.
	CompleteCheckout(ctx context.Context, merchant MerchantCapability, checkoutID string) (*OrderConfirmation, error)
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client over plain HTTP/JSON.
type HTTPClient struct {
	http *http.Client
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// NewHTTPClient creates a UCP HTTP client with a 30s default timeout.
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover fetches and validates the merchant manifest at baseURL.
func (c *HTTPClient) Discover(ctx context.Context, baseURL string) (*MerchantCapability, error) {
	base := strings.TrimRight(baseURL, "/")
	u := base + WellKnownPath

	var m Manifest
	if err := c.get(ctx, "discover", "", u, &m); err != nil {
		return nil, err
	}
	if m.MerchantID == "" {
		return nil, &Error{Op: "discover", URL: u, Err: fmt.Errorf("manifest missing merchant_id")}
	}

	return &MerchantCapability{
		ID:                    m.MerchantID,
		Name:                  m.MerchantName,
		BaseURL:               base,
		Capabilities:          m.Capabilities,
		Currency:              m.Metadata.Currency,
		ShippingCost:          m.Metadata.StandardShippingCost,
		FreeShippingThreshold: m.Metadata.FreeShippingThreshold,
	}, nil
}

// SearchProducts queries the merchant catalog endpoint. A limit <= 0 leaves
// the page size to the merchant.
func (c *HTTPClient) SearchProducts(ctx context.Context, merchant MerchantCapability, query string, limit int) ([]Product, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u := merchant.BaseURL + "/api/v1/catalog/products?" + q.Encode()

	var resp searchResponse
	if err := c.get(ctx, "search", merchant.ID, u, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// CreateCheckout opens a checkout session at the merchant.
func (c *HTTPClient) CreateCheckout(ctx context.Context, merchant MerchantCapability, items []LineItem) (*CheckoutSession, error) {
	u := merchant.BaseURL + "/api/v1/checkout/sessions"

	var session CheckoutSession
	if err := c.post(ctx, "create_checkout", merchant.ID, u, createCheckoutRequest{LineItems: items}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CompleteCheckout finalizes the checkout session into a merchant order.
func (c *HTTPClient) CompleteCheckout(ctx context.Context, merchant MerchantCapability, checkoutID string) (*OrderConfirmation, error) {
	u := merchant.BaseURL + "/api/v1/checkout/sessions/" + url.PathEscape(checkoutID) + "/complete"

	var conf OrderConfirmation
	if err := c.post(ctx, "complete_checkout", merchant.ID, u, nil, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// get performs a GET request and decodes the JSON response into result.
func (c *HTTPClient) get(ctx context.Context, op, merchantID, u string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &Error{Op: op, MerchantID: merchantID, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	return c.do(op, merchantID, req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *HTTPClient) post(ctx context.Context, op, merchantID, u string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, MerchantID: merchantID, URL: u, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, reader)
	if err != nil {
		return &Error{Op: op, MerchantID: merchantID, URL: u, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(op, merchantID, req, result)
}

// do executes the request, maps non-2xx statuses to *Error, and decodes the
// response body into result.
func (c *HTTPClient) do(op, merchantID string, req *http.Request, result any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, MerchantID: merchantID, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{
			Op:         op,
			MerchantID: merchantID,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &Error{Op: op, MerchantID: merchantID, URL: req.URL.String(), Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}
