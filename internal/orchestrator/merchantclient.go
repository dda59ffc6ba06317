package orchestrator

import (
	"context"
	"fmt"

	"github.com/dusk-indust/shopsplit/internal/checkout"
	"github.com/dusk-indust/shopsplit/internal/planner"
	"github.com/dusk-indust/shopsplit/internal/ucp"
)

// Compile-time interface check.
var _ checkout.Client = (*merchantClient)(nil)

// merchantClient adapts the UCP client to the coordinator's single-call
// contract: create the checkout session, then complete it, and hand back the
// merchant's order ID as the order reference.
type merchantClient struct {
	engine *Engine
}

func (mc *merchantClient) CreateCheckoutSession(ctx context.Context, merchantID string, items []planner.PlannedItem) (string, error) {
	merchant, ok := mc.engine.Merchant(merchantID)
	if !ok {
		return "", fmt.Errorf("orchestrator: merchant %q not in registry", merchantID)
	}

	lineItems := make([]ucp.LineItem, len(items))
	for i, item := range items {
		lineItems[i] = ucp.LineItem{ProductID: item.ProductID, Quantity: 1}
	}

	cs, err := mc.engine.client.CreateCheckout(ctx, merchant, lineItems)
	if err != nil {
		return "", err
	}
	conf, err := mc.engine.client.CompleteCheckout(ctx, merchant, cs.ID)
	if err != nil {
		return "", err
	}
	return conf.OrderID, nil
}
