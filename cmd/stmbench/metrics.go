package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	stm "github.com/tiancaiamao/wbetl"
)

// serveMetrics wires the engine's commit/abort/extend/rollover counters
// into a private registry and exposes them on addr, grounded on
// agilira-balios/examples/otel-prometheus's promhttp.Handler wiring
// (minus the OTel layer: a single Prometheus client is enough for one
// process's own counters, see SPEC_FULL.md's dropped-dependency notes).
func serveMetrics(addr string) (stop func(), err error) {
	reg := prometheus.NewRegistry()
	if err := stm.EnableMetrics(reg); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		_ = server.ListenAndServe()
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}
