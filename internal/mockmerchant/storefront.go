// Package mockmerchant serves the UCP merchant protocol over net/http for
// demos and tests: manifest, catalog search, and the checkout session
// lifecycle, backed by an in-memory catalog.
package mockmerchant

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dusk-indust/shopsplit/internal/ucp"
)

// Storefront is one in-memory UCP merchant.
type Storefront struct {
	id        string
	name      string
	shipping  decimal.Decimal
	threshold decimal.Decimal
	products  []ucp.Product

	mu        sync.Mutex
	sessions  map[string]*checkoutSession
	failCode  int // when non-zero, checkout creation fails with this status
	failCount int // remaining number of injected failures; -1 means forever
}

type checkoutSession struct {
	ucp.CheckoutSession
	items []ucp.LineItem
}

// New creates a storefront with the given shipping terms and catalog.
func New(id, name string, shipping, threshold decimal.Decimal, products []ucp.Product) *Storefront {
	return &Storefront{
		id:        id,
		name:      name,
		shipping:  shipping,
		threshold: threshold,
		products:  products,
		sessions:  make(map[string]*checkoutSession),
	}
}

// ID returns the merchant ID.
func (s *Storefront) ID() string { return s.id }

// FailCheckouts makes the next n checkout creations fail with the given HTTP
// status. n < 0 means fail until cleared.
func (s *Storefront) FailCheckouts(status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCode = status
	s.failCount = n
}

// Orders returns the completed checkout sessions, for test assertions.
func (s *Storefront) Orders() []ucp.CheckoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ucp.CheckoutSession
	for _, cs := range s.sessions {
		if cs.Status == ucp.CheckoutStatusCompleted {
			out = append(out, cs.CheckoutSession)
		}
	}
	return out
}

// Handler returns the storefront's HTTP handler.
func (s *Storefront) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+ucp.WellKnownPath, s.handleManifest)
	mux.HandleFunc("GET /api/v1/catalog/products", s.handleSearch)
	mux.HandleFunc("POST /api/v1/checkout/sessions", s.handleCreateCheckout)
	mux.HandleFunc("POST /api/v1/checkout/sessions/{id}/complete", s.handleCompleteCheckout)
	return mux
}

func (s *Storefront) handleManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ucp.Manifest{
		UCPVersion:   "1.0",
		MerchantID:   s.id,
		MerchantName: s.name,
		Capabilities: []string{ucp.CapabilityCatalog, ucp.CapabilityCheckout},
		Metadata: ucp.ManifestMetadata{
			Currency:              "USD",
			StandardShippingCost:  s.shipping,
			FreeShippingThreshold: s.threshold,
		},
	})
}

func (s *Storefront) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	var matched []ucp.Product
	for _, p := range s.products {
		if matches(query, p) {
			matched = append(matched, p)
			if limit > 0 && len(matched) >= limit {
				break
			}
		}
	}
	if matched == nil {
		matched = []ucp.Product{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"products": matched,
		"total":    len(matched),
	})
}

func (s *Storefront) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.failCode != 0 && s.failCount != 0 {
		code := s.failCode
		if s.failCount > 0 {
			s.failCount--
		}
		s.mu.Unlock()
		http.Error(w, "injected checkout failure", code)
		return
	}
	s.mu.Unlock()

	var req struct {
		LineItems []ucp.LineItem `json:"line_items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.LineItems) == 0 {
		http.Error(w, "no line items", http.StatusBadRequest)
		return
	}

	subtotal := decimal.Zero
	for _, li := range req.LineItems {
		p, ok := s.product(li.ProductID)
		if !ok {
			http.Error(w, "unknown product "+li.ProductID, http.StatusNotFound)
			return
		}
		if !p.InStock {
			http.Error(w, "product out of stock: "+li.ProductID, http.StatusConflict)
			return
		}
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
	}

	shipping := s.shipping
	if s.threshold.IsPositive() && subtotal.GreaterThanOrEqual(s.threshold) {
		shipping = decimal.Zero
	}

	cs := &checkoutSession{
		CheckoutSession: ucp.CheckoutSession{
			ID:       uuid.NewString(),
			Status:   ucp.CheckoutStatusOpen,
			Subtotal: subtotal,
			Shipping: shipping,
			Total:    subtotal.Add(shipping),
		},
		items: req.LineItems,
	}

	s.mu.Lock()
	s.sessions[cs.ID] = cs
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, cs.CheckoutSession)
}

func (s *Storefront) handleCompleteCheckout(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sessions[id]
	if !ok {
		http.Error(w, "checkout session not found", http.StatusNotFound)
		return
	}
	if cs.Status != ucp.CheckoutStatusOpen {
		http.Error(w, "checkout session not open", http.StatusConflict)
		return
	}
	cs.Status = ucp.CheckoutStatusCompleted

	writeJSON(w, http.StatusOK, ucp.OrderConfirmation{
		OrderID: "ord-" + uuid.NewString()[:8],
		Status:  ucp.CheckoutStatusCompleted,
		Total:   cs.Total,
	})
}

func (s *Storefront) product(id string) (ucp.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return ucp.Product{}, false
}

// matches reports whether any query token of three or more characters
// appears in the product name.
func matches(query string, p ucp.Product) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	haystack := strings.ToLower(p.Name)
	for _, token := range strings.Fields(query) {
		if len(token) < 3 {
			continue
		}
		if strings.Contains(haystack, token) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
