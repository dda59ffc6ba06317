package httpapi

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
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

// startAPI wires storefronts, engine, and API server together and returns
// the API base URL.
func startAPI(t *testing.T) string {
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

	api := httptest.NewServer(NewServer(engine, slog.New(slog.DiscardHandler)).Handler())
	t.Cleanup(api.Close)
	return api.URL
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// startShopping creates a session and waits for the confirmation gate.
func startShopping(t *testing.T, base, query string) string {
	t.Helper()

	resp := postJSON(t, base+"/api/v1/shop", map[string]string{"query": query})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var sess session.Session
	decode(t, resp, &sess)
	require.NotEmpty(t, sess.ID)

	require.Eventually(t, func() bool {
		r, err := http.Get(base + "/api/v1/shop/" + sess.ID)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		var got session.Session
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			return false
		}
		return got.State == session.StateAwaitingConfirmation
	}, 5*time.Second, 20*time.Millisecond)

	return sess.ID
}

func TestServer_Health(t *testing.T) {
	base := startAPI(t)

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_StartSessionValidation(t *testing.T) {
	base := startAPI(t)

	resp := postJSON(t, base+"/api/v1/shop", map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_SessionNotFound(t *testing.T) {
	base := startAPI(t)

	resp, err := http.Get(base + "/api/v1/shop/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ConfirmFlow(t *testing.T) {
	base := startAPI(t)
	id := startShopping(t, base, "keyboard and usb-c hub")

	resp := postJSON(t, base+"/api/v1/shop/"+id+"/confirm", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var sess session.Session
	decode(t, resp, &sess)
	assert.Equal(t, session.StateCheckingOut, sess.State)

	// Second confirm is a duplicate action.
	resp = postJSON(t, base+"/api/v1/shop/"+id+"/confirm", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.Eventually(t, func() bool {
		r, err := http.Get(base + "/api/v1/orders/" + id)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		io.Copy(io.Discard, r.Body)
		return r.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	var listing struct {
		Orders []json.RawMessage `json:"orders"`
	}
	r, err := http.Get(base + "/api/v1/orders")
	require.NoError(t, err)
	decode(t, r, &listing)
	assert.Len(t, listing.Orders, 1)
}

func TestServer_CancelMapsStateConflicts(t *testing.T) {
	base := startAPI(t)
	id := startShopping(t, base, "keyboard")

	resp := postJSON(t, base+"/api/v1/shop/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sess session.Session
	decode(t, resp, &sess)
	assert.Equal(t, session.StateCancelled, sess.State)

	// A second cancel conflicts.
	resp = postJSON(t, base+"/api/v1/shop/"+id+"/cancel", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_Merchants(t *testing.T) {
	base := startAPI(t)
	startShopping(t, base, "keyboard")

	var listing struct {
		Merchants []ucp.MerchantCapability `json:"merchants"`
	}
	resp, err := http.Get(base + "/api/v1/merchants")
	require.NoError(t, err)
	decode(t, resp, &listing)
	require.Len(t, listing.Merchants, 3)
	assert.Equal(t, "homegoods", listing.Merchants[0].ID)
}

func TestServer_DiscoverValidation(t *testing.T) {
	base := startAPI(t)

	resp := postJSON(t, base+"/api/v1/merchants/discover", map[string]any{"urls": []string{}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_OrderNotFound(t *testing.T) {
	base := startAPI(t)

	resp, err := http.Get(base + "/api/v1/orders/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_StreamReplaysAndTerminates(t *testing.T) {
	base := startAPI(t)
	id := startShopping(t, base, "keyboard")

	resp := postJSON(t, base+"/api/v1/shop/"+id+"/cancel", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The feed is terminal, so the stream replays history and closes.
	r, err := http.Get(base + "/api/v1/shop/" + id + "/stream")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, "text/event-stream", r.Header.Get("Content-Type"))

	var events []session.Event
	scanner := bufio.NewScanner(r.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev session.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}

	require.NotEmpty(t, events)
	assert.Equal(t, session.EventPlanning, events[0].Event)
	assert.Equal(t, session.EventCancelled, events[len(events)-1].Event)
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Seq, "replay must preserve sequence numbers")
	}
}

func TestServer_StreamUnknownSession(t *testing.T) {
	base := startAPI(t)

	r, err := http.Get(base + "/api/v1/shop/nope/stream")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}
