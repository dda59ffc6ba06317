package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/shopsplit/internal/orchestrator"
)

// version is stamped at build time.
var version = "dev"

// NewShopsplitMCPServer creates an MCP server with the shopping tools
// registered: shop, get_session, confirm_order, cancel_order,
// compare_prices, discover_merchants, and track_orders.
func NewShopsplitMCPServer(engine *orchestrator.Engine) *mcp.Server {
	svc := NewShopService(engine)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "shopsplit",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "shop",
		Description: "Start a shopping session for a free-form query and wait for the optimized split-order plan. The plan is not purchased until confirm_order.",
	}, svc.Shop)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_session",
		Description: "Get the current state of a shopping session.",
	}, svc.GetSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "confirm_order",
		Description: "Confirm a session's plan and execute checkout at every planned merchant. Returns the unified order, including partial failures.",
	}, svc.ConfirmOrder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel_order",
		Description: "Cancel a session that is awaiting confirmation. Nothing is purchased.",
	}, svc.CancelOrder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_prices",
		Description: "Show the per-item price comparison across merchants for a session.",
	}, svc.ComparePrices)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "discover_merchants",
		Description: "List known merchants, or probe additional merchant base URLs for UCP manifests.",
	}, svc.DiscoverMerchants)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "track_orders",
		Description: "List completed unified orders, optionally for one session.",
	}, svc.TrackOrders)

	return server
}

// RunShopsplitMCPServerStdio runs the MCP server on stdio transport,
// blocking until stdin is closed or the context is cancelled.
func RunShopsplitMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
