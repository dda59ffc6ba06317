// Package orchestrator drives a shopping session through its phases:
// planning, merchant discovery, catalog search, comparison, optimization,
// the human confirmation gate, and checkout.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dusk-indust/shopsplit/internal/checkout"
	"github.com/dusk-indust/shopsplit/internal/intent"
	"github.com/dusk-indust/shopsplit/internal/session"
	"github.com/dusk-indust/shopsplit/internal/ucp"
)

// Config holds the engine's operational settings.
type Config struct {
	// MerchantURLs are the base URLs probed during discovery.
	MerchantURLs []string

	DiscoveryTimeout time.Duration
	SearchTimeout    time.Duration
	CheckoutTimeout  time.Duration

	// MaxResultsPerMerchant caps catalog search results per merchant per item.
	MaxResultsPerMerchant int
}

// defaults fills zero-valued timeouts.
func (c *Config) defaults() {
	if c.DiscoveryTimeout <= 0 {
		c.DiscoveryTimeout = 10 * time.Second
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 30 * time.Second
	}
	if c.CheckoutTimeout <= 0 {
		c.CheckoutTimeout = 60 * time.Second
	}
	if c.MaxResultsPerMerchant <= 0 {
		c.MaxResultsPerMerchant = 10
	}
}

// Engine owns the session store, the progress hub, the merchant registry,
// and the checkout coordinator. Safe for concurrent use.
type Engine struct {
	cfg         Config
	parser      intent.Parser
	client      ucp.Client
	store       *session.Store
	hub         *session.Hub
	coordinator *checkout.Coordinator
	logger      *slog.Logger

	mu        sync.RWMutex
	merchants map[string]ucp.MerchantCapability
}

// New creates an Engine. parser and client must be non-nil.
func New(cfg Config, parser intent.Parser, client ucp.Client, logger *slog.Logger) *Engine {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:       cfg,
		parser:    parser,
		client:    client,
		store:     session.NewStore(),
		hub:       session.NewHub(),
		logger:    logger,
		merchants: make(map[string]ucp.MerchantCapability),
	}
	e.coordinator = checkout.NewCoordinator(
		&merchantClient{engine: e},
		checkout.WithTimeout(cfg.CheckoutTimeout),
		checkout.WithLogger(logger),
		checkout.WithProgress(e.onCheckoutProgress),
	)
	return e
}

// StartSession creates a session for the query and runs its pipeline in the
// background up to the confirmation gate. The pipeline is detached from the
// caller's cancellation; each remote call carries its own timeout.
func (e *Engine) StartSession(ctx context.Context, query string) (*session.Session, error) {
	sess := session.New(query)
	if err := e.store.Create(sess); err != nil {
		return nil, err
	}
	e.logger.Info("session started", "session_id", sess.ID, "query", query)

	go e.run(context.WithoutCancel(ctx), sess.ID)
	return sess, nil
}

// Session returns a copy of the session.
func (e *Engine) Session(id string) (*session.Session, error) {
	return e.store.Get(id)
}

// Sessions returns all sessions in creation order.
func (e *Engine) Sessions() []*session.Session {
	return e.store.List("")
}

// Orders returns the unified orders of all sessions that completed checkout.
func (e *Engine) Orders() []*checkout.UnifiedOrder {
	var orders []*checkout.UnifiedOrder
	for _, sess := range e.store.List("") {
		if sess.Order != nil {
			orders = append(orders, sess.Order)
		}
	}
	return orders
}

// Order returns the unified order for a session, or session.ErrNotFound.
func (e *Engine) Order(sessionID string) (*checkout.UnifiedOrder, error) {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Order == nil {
		return nil, fmt.Errorf("%w: no order for session %q", session.ErrNotFound, sessionID)
	}
	return sess.Order, nil
}

// Subscribe attaches to a session's progress feed with history replay.
func (e *Engine) Subscribe(sessionID string) (<-chan session.Event, func()) {
	return e.hub.Subscribe(sessionID)
}

// Merchants returns the registry of discovered merchants, sorted by ID.
func (e *Engine) Merchants() []ucp.MerchantCapability {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]ucp.MerchantCapability, 0, len(e.merchants))
	for _, m := range e.merchants {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Merchant looks up a discovered merchant by ID.
func (e *Engine) Merchant(id string) (ucp.MerchantCapability, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.merchants[id]
	return m, ok
}

// DiscoverMerchants probes the given base URLs in parallel and registers
// every merchant that responds with a valid manifest. Failed probes are
// skipped, not fatal.
func (e *Engine) DiscoverMerchants(ctx context.Context, urls []string) []ucp.MerchantCapability {
	discovered := e.discover(ctx, urls)

	e.mu.Lock()
	for _, m := range discovered {
		e.merchants[m.ID] = m
	}
	e.mu.Unlock()

	return discovered
}

// emit publishes a progress event and mirrors its sequence number onto the
// session.
func (e *Engine) emit(sessionID, name string, data map[string]any) {
	ev := e.hub.Publish(sessionID, name, data)
	_ = e.store.Update(sessionID, func(s *session.Session) error {
		s.Seq = ev.Seq
		return nil
	})
}

// fail moves the session to failed with the given reason and ends its feed.
func (e *Engine) fail(sessionID, reason string) {
	err := e.store.Update(sessionID, func(s *session.Session) error {
		if s.State.Terminal() {
			return fmt.Errorf("%w: session already %s", session.ErrStateConflict, s.State)
		}
		s.State = session.StateFailed
		s.FailureReason = reason
		return nil
	})
	if err != nil {
		e.logger.Warn("could not fail session", "session_id", sessionID, "error", err)
		return
	}
	e.logger.Warn("session failed", "session_id", sessionID, "reason", reason)
	e.emit(sessionID, session.EventError, map[string]any{"reason": reason})
}

// onCheckoutProgress forwards coordinator progress into the session feed.
func (e *Engine) onCheckoutProgress(ev checkout.ProgressEvent) {
	data := map[string]any{
		"merchant_id": ev.MerchantID,
		"step":        ev.Step,
	}
	if ev.Message != "" {
		data["message"] = ev.Message
	}
	e.emit(ev.SessionID, session.EventCheckoutProgress, data)
}
