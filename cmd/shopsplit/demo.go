package main

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/dusk-indust/shopsplit/internal/mockmerchant"
)

// startDemoMerchants serves the built-in demo storefronts on loopback ports
// and returns their base URLs plus a shutdown func.
func startDemoMerchants(logger *slog.Logger) ([]string, func(), error) {
	var (
		urls    []string
		servers []*http.Server
	)

	shutdown := func() {
		for _, srv := range servers {
			srv.Close()
		}
	}

	for _, store := range mockmerchant.DemoStorefronts() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			shutdown()
			return nil, nil, err
		}

		srv := &http.Server{Handler: store.Handler()}
		go srv.Serve(ln)
		servers = append(servers, srv)

		url := "http://" + ln.Addr().String()
		urls = append(urls, url)
		logger.Info("demo storefront up", "merchant_id", store.ID(), "url", url)
	}

	return urls, shutdown, nil
}
