// Package metrics exposes Prometheus counters for wallet and order activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradedash_ticks_total", Help: "Mock price ticks emitted"},
		[]string{"symbol"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradedash_orders_total", Help: "Mock orders by outcome"},
		[]string{"symbol", "side", "outcome"},
	)
	WalletConnectTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradedash_wallet_connect_total", Help: "Wallet connect attempts by result"},
		[]string{"result"},
	)
	WalletRefreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tradedash_wallet_refresh_total", Help: "Wallet resynchronizations attempted"},
	)
	WalletErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradedash_wallet_errors_total", Help: "Wallet provider failures by kind"},
		[]string{"kind"},
	)
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradedash_provider_requests_total", Help: "JSON-RPC requests served by the wallet daemon"},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, OrdersTotal, WalletConnectTotal, WalletRefreshTotal, WalletErrorsTotal, ProviderRequestsTotal)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
