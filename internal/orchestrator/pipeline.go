package orchestrator

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/shopsplit/internal/intent"
	"github.com/dusk-indust/shopsplit/internal/offer"
	"github.com/dusk-indust/shopsplit/internal/planner"
	"github.com/dusk-indust/shopsplit/internal/session"
	"github.com/dusk-indust/shopsplit/internal/ucp"
)

// run executes the pipeline from planning up to the confirmation gate. Each
// phase transitions the session, does its work, and emits progress; any
// fatal condition fails the session and stops.
func (e *Engine) run(ctx context.Context, sessionID string) {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		e.logger.Error("pipeline started for unknown session", "session_id", sessionID)
		return
	}

	// Planning: parse the query into item requests.
	e.emit(sessionID, session.EventPlanning, map[string]any{"query": sess.Query})
	items, err := e.parser.Parse(sess.Query)
	if err != nil {
		e.fail(sessionID, err.Error())
		return
	}
	if err := e.store.Update(sessionID, func(s *session.Session) error {
		s.Items = items
		return nil
	}); err != nil {
		return
	}

	// Discovery: probe merchant URLs in parallel.
	if err := e.store.Transition(sessionID, session.StateDiscovering); err != nil {
		return
	}
	merchants := e.DiscoverMerchants(ctx, e.cfg.MerchantURLs)
	if len(merchants) == 0 {
		e.fail(sessionID, "no merchants reachable")
		return
	}
	merchantIDs := make([]string, len(merchants))
	for i, m := range merchants {
		merchantIDs[i] = m.ID
	}
	if err := e.store.Update(sessionID, func(s *session.Session) error {
		s.Merchants = merchants
		return nil
	}); err != nil {
		return
	}
	e.emit(sessionID, session.EventMerchantsDiscovered, map[string]any{
		"count":     len(merchants),
		"merchants": merchantIDs,
	})

	// Search: query every merchant's catalog for every item.
	if err := e.store.Transition(sessionID, session.StateSearching); err != nil {
		return
	}
	e.emit(sessionID, session.EventSearching, map[string]any{"items": len(items)})
	offersByItem := e.search(ctx, merchants, items)
	found := 0
	for _, offers := range offersByItem {
		found += len(offers)
	}
	e.emit(sessionID, session.EventProductsFound, map[string]any{"count": found})

	// Comparison: rank offers per item.
	if err := e.store.Transition(sessionID, session.StateComparing); err != nil {
		return
	}
	e.emit(sessionID, session.EventComparing, nil)
	matrix := offer.BuildMatrix(items, offersByItem)
	if err := e.store.Update(sessionID, func(s *session.Session) error {
		s.Matrix = &matrix
		return nil
	}); err != nil {
		return
	}
	e.emit(sessionID, session.EventComparisonReady, map[string]any{
		"unfulfillable": matrix.Unfulfillable,
	})
	if len(matrix.Unfulfillable) == len(items) {
		e.fail(sessionID, "no fulfillable items: "+strings.Join(matrix.Unfulfillable, ", "))
		return
	}

	// Optimization: compute the split-order plan.
	if err := e.store.Transition(sessionID, session.StateOptimizing); err != nil {
		return
	}
	e.emit(sessionID, session.EventOptimizing, nil)
	plan := planner.Optimize(matrix)
	if err := e.store.Update(sessionID, func(s *session.Session) error {
		s.Plan = &plan
		return nil
	}); err != nil {
		return
	}
	e.emit(sessionID, session.EventOptimizationReady, map[string]any{
		"grand_total":       plan.GrandTotal.StringFixed(2),
		"merchants":         plan.MerchantIDs(),
		"savings_vs_single": plan.SavingsVsSingle.StringFixed(2),
	})

	// Confirmation gate: park until an external confirm or cancel arrives.
	if err := e.store.Transition(sessionID, session.StateAwaitingConfirmation); err != nil {
		return
	}
	e.emit(sessionID, session.EventAwaitingConfirmation, map[string]any{
		"grand_total": plan.GrandTotal.StringFixed(2),
	})
	e.logger.Info("awaiting confirmation",
		"session_id", sessionID, "grand_total", plan.GrandTotal.StringFixed(2))
}

// discover probes base URLs in parallel, each with its own timeout. Failures
// are absorbed per slot so one unreachable merchant never hides another.
func (e *Engine) discover(ctx context.Context, urls []string) []ucp.MerchantCapability {
	results := make([]*ucp.MerchantCapability, len(urls))
	var g errgroup.Group
	for i, url := range urls {
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(ctx, e.cfg.DiscoveryTimeout)
			defer cancel()

			m, err := e.client.Discover(dctx, url)
			if err != nil {
				e.logger.Warn("merchant discovery failed", "url", url, "error", err)
				return nil
			}
			results[i] = m
			return nil
		})
	}
	g.Wait()

	var merchants []ucp.MerchantCapability
	for _, m := range results {
		if m != nil {
			merchants = append(merchants, *m)
		}
	}
	return merchants
}

// search fans out one task per merchant, each searching the catalog for all
// items. Results are keyed by item request; a failed merchant contributes
// nothing but never blocks the others.
func (e *Engine) search(ctx context.Context, merchants []ucp.MerchantCapability, items []intent.ItemRequest) map[string][]offer.Offer {
	perMerchant := make([]map[string][]offer.Offer, len(merchants))
	var g errgroup.Group
	for i, merchant := range merchants {
		g.Go(func() error {
			if !merchant.Supports(ucp.CapabilityCatalog) {
				return nil
			}
			found := make(map[string][]offer.Offer)
			for _, item := range items {
				sctx, cancel := context.WithTimeout(ctx, e.cfg.SearchTimeout)
				products, err := e.client.SearchProducts(sctx, merchant, item.Query, e.cfg.MaxResultsPerMerchant)
				cancel()
				if err != nil {
					e.logger.Warn("catalog search failed",
						"merchant_id", merchant.ID, "item", item.ID, "error", err)
					continue
				}
				for _, p := range products {
					found[item.ID] = append(found[item.ID], offer.Offer{
						MerchantID:            merchant.ID,
						ItemRequestID:         item.ID,
						ProductID:             p.ID,
						ProductName:           p.Name,
						UnitPrice:             p.Price,
						ShippingCost:          merchant.ShippingCost,
						FreeShippingThreshold: merchant.FreeShippingThreshold,
						Rating:                p.Rating,
						InStock:               p.InStock,
					})
				}
			}
			perMerchant[i] = found
			return nil
		})
	}
	g.Wait()

	offersByItem := make(map[string][]offer.Offer)
	for _, found := range perMerchant {
		for itemID, offers := range found {
			offersByItem[itemID] = append(offersByItem[itemID], offers...)
		}
	}
	return offersByItem
}
