package mcptools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/shopsplit/internal/checkout"
	"github.com/dusk-indust/shopsplit/internal/orchestrator"
	"github.com/dusk-indust/shopsplit/internal/planner"
	"github.com/dusk-indust/shopsplit/internal/session"
)

// ShopService handles MCP tool calls for the shopsplit server mode.
// It wraps the workflow engine to run sessions and query their state.
type ShopService struct {
	engine *orchestrator.Engine

	// waitTimeout bounds how long shop and confirm_order wait for the
	// pipeline to settle.
	waitTimeout time.Duration
}

// NewShopService creates a ShopService around the engine.
func NewShopService(engine *orchestrator.Engine) *ShopService {
	return &ShopService{
		engine:      engine,
		waitTimeout: 2 * time.Minute,
	}
}

// Shop starts a shopping session and waits until it reaches the
// confirmation gate (or fails), then returns the optimization plan.
func (s *ShopService) Shop(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ShopInput,
) (*mcp.CallToolResult, ShopOutput, error) {
	if input.Query == "" {
		return nil, ShopOutput{}, fmt.Errorf("query is required")
	}

	sess, err := s.engine.StartSession(ctx, input.Query)
	if err != nil {
		return nil, ShopOutput{}, err
	}

	sess, err = s.waitFor(ctx, sess.ID, session.StateAwaitingConfirmation)
	if err != nil {
		return nil, ShopOutput{}, err
	}

	out := ShopOutput{
		SessionID:     sess.ID,
		State:         string(sess.State),
		FailureReason: sess.FailureReason,
	}
	if sess.Plan != nil {
		out.GrandTotal = sess.Plan.GrandTotal.StringFixed(2)
		out.Orders = orderSummaries(*sess.Plan)
		out.Unfulfillable = sess.Plan.Unfulfillable
	}
	return nil, out, nil
}

// GetSession reports a session's current state.
func (s *ShopService) GetSession(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetSessionInput,
) (*mcp.CallToolResult, GetSessionOutput, error) {
	sess, err := s.engine.Session(input.SessionID)
	if err != nil {
		return nil, GetSessionOutput{}, err
	}

	out := GetSessionOutput{
		SessionID:     sess.ID,
		Query:         sess.Query,
		State:         string(sess.State),
		Seq:           sess.Seq,
		FailureReason: sess.FailureReason,
	}
	if sess.Plan != nil {
		out.GrandTotal = sess.Plan.GrandTotal.StringFixed(2)
	}
	return nil, out, nil
}

// ConfirmOrder passes the confirmation gate, waits for checkout to finish,
// and returns the unified order.
func (s *ShopService) ConfirmOrder(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConfirmOrderInput,
) (*mcp.CallToolResult, ConfirmOrderOutput, error) {
	if err := s.engine.Confirm(ctx, input.SessionID); err != nil {
		return nil, ConfirmOrderOutput{}, err
	}

	sess, err := s.waitFor(ctx, input.SessionID, session.StateCompleted)
	if err != nil {
		return nil, ConfirmOrderOutput{}, err
	}

	out := ConfirmOrderOutput{
		SessionID: sess.ID,
		State:     string(sess.State),
	}
	if sess.Order != nil {
		out.OverallStatus = string(sess.Order.OverallStatus)
		out.TotalCharged = sess.Order.TotalCharged.StringFixed(2)
		out.Outcomes = outcomeSummaries(sess.Order)
	}
	return nil, out, nil
}

// CancelOrder abandons a session sitting at the confirmation gate.
func (s *ShopService) CancelOrder(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CancelOrderInput,
) (*mcp.CallToolResult, CancelOrderOutput, error) {
	if err := s.engine.Cancel(ctx, input.SessionID); err != nil {
		return nil, CancelOrderOutput{}, err
	}
	return nil, CancelOrderOutput{
		SessionID: input.SessionID,
		State:     string(session.StateCancelled),
	}, nil
}

// ComparePrices returns the session's comparison matrix.
func (s *ShopService) ComparePrices(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ComparePricesInput,
) (*mcp.CallToolResult, ComparePricesOutput, error) {
	sess, err := s.engine.Session(input.SessionID)
	if err != nil {
		return nil, ComparePricesOutput{}, err
	}
	if sess.Matrix == nil {
		return nil, ComparePricesOutput{}, fmt.Errorf("session %s has no comparison yet (state %s)", sess.ID, sess.State)
	}

	queries := make(map[string]string, len(sess.Items))
	for _, item := range sess.Items {
		queries[item.ID] = item.Query
	}

	out := ComparePricesOutput{
		SessionID:     sess.ID,
		Unfulfillable: sess.Matrix.Unfulfillable,
	}
	for _, itemID := range sess.Matrix.ItemIDs {
		offers := sess.Matrix.Offers[itemID]
		if len(offers) == 0 {
			continue
		}
		ic := ItemComparison{ItemID: itemID, Query: queries[itemID]}
		for _, o := range offers {
			ic.Offers = append(ic.Offers, OfferSummary{
				MerchantID:  o.MerchantID,
				ProductID:   o.ProductID,
				ProductName: o.ProductName,
				UnitPrice:   o.UnitPrice.StringFixed(2),
				Shipping:    o.ShippingCost.StringFixed(2),
				Rating:      o.Rating,
			})
		}
		out.Items = append(out.Items, ic)
	}
	return nil, out, nil
}

// DiscoverMerchants probes merchant URLs and returns what answered.
func (s *ShopService) DiscoverMerchants(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DiscoverMerchantsInput,
) (*mcp.CallToolResult, DiscoverMerchantsOutput, error) {
	var out DiscoverMerchantsOutput

	merchants := s.engine.Merchants()
	if len(input.URLs) > 0 {
		merchants = s.engine.DiscoverMerchants(ctx, input.URLs)
	}
	for _, m := range merchants {
		out.Merchants = append(out.Merchants, MerchantSummary{
			ID:                    m.ID,
			Name:                  m.Name,
			ShippingCost:          m.ShippingCost.StringFixed(2),
			FreeShippingThreshold: m.FreeShippingThreshold.StringFixed(2),
		})
	}
	return nil, out, nil
}

// TrackOrders lists completed unified orders, optionally for one session.
func (s *ShopService) TrackOrders(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input TrackOrdersInput,
) (*mcp.CallToolResult, TrackOrdersOutput, error) {
	var out TrackOrdersOutput

	if input.SessionID != "" {
		order, err := s.engine.Order(input.SessionID)
		if err != nil {
			return nil, out, err
		}
		out.Orders = append(out.Orders, unifiedSummary(order))
		return nil, out, nil
	}

	for _, order := range s.engine.Orders() {
		out.Orders = append(out.Orders, unifiedSummary(order))
	}
	return nil, out, nil
}

// waitFor blocks until the session reaches want or any terminal state.
func (s *ShopService) waitFor(ctx context.Context, sessionID string, want session.State) (*session.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()

	events, unsubscribe := s.engine.Subscribe(sessionID)
	defer unsubscribe()

	for {
		sess, err := s.engine.Session(sessionID)
		if err != nil {
			return nil, err
		}
		if sess.State == want || sess.State.Terminal() {
			return sess, nil
		}

		select {
		case _, ok := <-events:
			if !ok {
				return s.engine.Session(sessionID)
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for session %s to reach %s", sessionID, want)
		}
	}
}

func orderSummaries(plan planner.Plan) []MerchantOrderSummary {
	var out []MerchantOrderSummary
	for _, merchantID := range plan.MerchantIDs() {
		mo := plan.Orders[merchantID]
		summary := MerchantOrderSummary{
			MerchantID: merchantID,
			Subtotal:   mo.Subtotal.StringFixed(2),
			Shipping:   mo.Shipping.StringFixed(2),
			Total:      mo.Total.StringFixed(2),
		}
		for _, item := range mo.Items {
			summary.Items = append(summary.Items, item.ProductName)
		}
		out = append(out, summary)
	}
	return out
}

func outcomeSummaries(order *checkout.UnifiedOrder) []CheckoutOutcomeSummary {
	merchantIDs := make([]string, 0, len(order.Outcomes))
	for id := range order.Outcomes {
		merchantIDs = append(merchantIDs, id)
	}
	sort.Strings(merchantIDs)

	var out []CheckoutOutcomeSummary
	for _, id := range merchantIDs {
		o := order.Outcomes[id]
		out = append(out, CheckoutOutcomeSummary{
			MerchantID:     o.MerchantID,
			Status:         string(o.Status),
			OrderReference: o.OrderReference,
			Error:          o.Err,
		})
	}
	return out
}

func unifiedSummary(order *checkout.UnifiedOrder) UnifiedOrderSummary {
	return UnifiedOrderSummary{
		SessionID:     order.SessionID,
		OverallStatus: string(order.OverallStatus),
		TotalCharged:  order.TotalCharged.StringFixed(2),
		Outcomes:      outcomeSummaries(order),
	}
}
