package mcptools

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/shopsplit/internal/intent"
	"github.com/dusk-indust/shopsplit/internal/mockmerchant"
	"github.com/dusk-indust/shopsplit/internal/orchestrator"
	"github.com/dusk-indust/shopsplit/internal/session"
	"github.com/dusk-indust/shopsplit/internal/ucp"
)

func newService(t *testing.T) *ShopService {
	t.Helper()

	var urls []string
	for _, store := range mockmerchant.DemoStorefronts() {
		srv := httptest.NewServer(store.Handler())
		t.Cleanup(srv.Close)
		urls = append(urls, srv.URL)
	}

	engine := orchestrator.New(
		orchestrator.Config{
			MerchantURLs:     urls,
			DiscoveryTimeout: 2 * time.Second,
			SearchTimeout:    2 * time.Second,
			CheckoutTimeout:  2 * time.Second,
		},
		intent.NewKeywordParser(),
		ucp.NewHTTPClient(ucp.WithTimeout(2*time.Second)),
		slog.New(slog.DiscardHandler),
	)
	return NewShopService(engine)
}

func TestShopService_ShopReturnsPlan(t *testing.T) {
	svc := newService(t)

	_, out, err := svc.Shop(context.Background(), nil, ShopInput{
		Query: "a mechanical keyboard and a usb-c hub",
	})
	require.NoError(t, err)

	assert.Equal(t, string(session.StateAwaitingConfirmation), out.State)
	assert.Equal(t, "107.99", out.GrandTotal)
	require.Len(t, out.Orders, 2)
	assert.Equal(t, "homegoods", out.Orders[0].MerchantID)
	assert.Equal(t, "megamart", out.Orders[1].MerchantID)
}

func TestShopService_ShopRequiresQuery(t *testing.T) {
	svc := newService(t)

	_, _, err := svc.Shop(context.Background(), nil, ShopInput{})
	assert.Error(t, err)
}

func TestShopService_ShopReportsFailure(t *testing.T) {
	svc := newService(t)

	_, out, err := svc.Shop(context.Background(), nil, ShopInput{Query: "submarine"})
	require.NoError(t, err)
	assert.Equal(t, string(session.StateFailed), out.State)
	assert.NotEmpty(t, out.FailureReason)
}

func TestShopService_ConfirmAndTrack(t *testing.T) {
	svc := newService(t)

	_, shopOut, err := svc.Shop(context.Background(), nil, ShopInput{Query: "keyboard and usb-c hub"})
	require.NoError(t, err)

	_, confirmOut, err := svc.ConfirmOrder(context.Background(), nil, ConfirmOrderInput{
		SessionID: shopOut.SessionID,
	})
	require.NoError(t, err)

	assert.Equal(t, string(session.StateCompleted), confirmOut.State)
	assert.Equal(t, "complete", confirmOut.OverallStatus)
	assert.Equal(t, "107.99", confirmOut.TotalCharged)
	require.Len(t, confirmOut.Outcomes, 2)
	assert.NotEmpty(t, confirmOut.Outcomes[0].OrderReference)

	_, trackOut, err := svc.TrackOrders(context.Background(), nil, TrackOrdersInput{})
	require.NoError(t, err)
	require.Len(t, trackOut.Orders, 1)
	assert.Equal(t, shopOut.SessionID, trackOut.Orders[0].SessionID)
}

func TestShopService_CancelOrder(t *testing.T) {
	svc := newService(t)

	_, shopOut, err := svc.Shop(context.Background(), nil, ShopInput{Query: "keyboard"})
	require.NoError(t, err)

	_, cancelOut, err := svc.CancelOrder(context.Background(), nil, CancelOrderInput{
		SessionID: shopOut.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(session.StateCancelled), cancelOut.State)

	// Cancelling again surfaces the duplicate action to the MCP client.
	_, _, err = svc.CancelOrder(context.Background(), nil, CancelOrderInput{
		SessionID: shopOut.SessionID,
	})
	assert.ErrorIs(t, err, session.ErrDuplicateAction)
}

func TestShopService_ComparePrices(t *testing.T) {
	svc := newService(t)

	_, shopOut, err := svc.Shop(context.Background(), nil, ShopInput{Query: "mechanical keyboard"})
	require.NoError(t, err)

	_, out, err := svc.ComparePrices(context.Background(), nil, ComparePricesInput{
		SessionID: shopOut.SessionID,
	})
	require.NoError(t, err)

	require.Len(t, out.Items, 1)
	assert.Equal(t, "mechanical keyboard", out.Items[0].Query)
	require.NotEmpty(t, out.Items[0].Offers)
	assert.Equal(t, "megamart", out.Items[0].Offers[0].MerchantID, "cheapest offer ranks first")
	assert.Equal(t, "69.00", out.Items[0].Offers[0].UnitPrice)
}

func TestShopService_DiscoverMerchants(t *testing.T) {
	svc := newService(t)

	_, shopOut, err := svc.Shop(context.Background(), nil, ShopInput{Query: "keyboard"})
	require.NoError(t, err)
	require.NotEmpty(t, shopOut.SessionID)

	_, out, err := svc.DiscoverMerchants(context.Background(), nil, DiscoverMerchantsInput{})
	require.NoError(t, err)
	require.Len(t, out.Merchants, 3)
	assert.Equal(t, "homegoods", out.Merchants[0].ID)
	assert.Equal(t, "4.99", out.Merchants[0].ShippingCost)
}

func TestShopService_GetSessionUnknown(t *testing.T) {
	svc := newService(t)

	_, _, err := svc.GetSession(context.Background(), nil, GetSessionInput{SessionID: "nope"})
	assert.ErrorIs(t, err, session.ErrNotFound)
}
