package stm

import (
	"sync/atomic"

	"github.com/agilira/go-timecache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tiancaiamao/wbetl/metrics"
)

// metricsGlobal is nil-safe: until EnableMetrics is called, every hook
// below is a no-op, so a host program that never asks for metrics pays
// nothing on the commit/abort hot path beyond one nil check.
var metricsGlobal = &metricsHook{}

// lastCommitUnixNano backs the "last_commit_unix_ns" get_stats field
// (§6, SPEC_FULL.md §3). It uses go-timecache's cached clock rather than
// time.Now(), the same role that cache plays for agilira-balios's
// TimeProvider — this is purely observational bookkeeping, never the
// logical clock that orders transactions (§4.1 stays a plain counter).
var lastCommitUnixNano atomic.Int64

type metricsHook struct {
	reg *metrics.Registry
}

// EnableMetrics switches on Prometheus counters for commits, aborts (by
// reason), extends, and clock rollovers, registering them with reg
// (typically prometheus.DefaultRegisterer, or a private registry in
// tests) — grounded on agilira-balios/examples/otel-prometheus's
// pattern of an optional, explicitly-wired metrics backend.
func EnableMetrics(reg prometheus.Registerer) error {
	r := metrics.New()
	if err := r.Register(reg); err != nil {
		return err
	}
	metricsGlobal.reg = r
	return nil
}

func (m *metricsHook) commit() {
	lastCommitUnixNano.Store(timecache.CachedTimeNano())
	if m.reg == nil {
		return
	}
	m.reg.Commits.Inc()
}

func (m *metricsHook) extend() {
	if m.reg == nil {
		return
	}
	m.reg.Extends.Inc()
}

func (m *metricsHook) rollover() {
	if m.reg == nil {
		return
	}
	m.reg.Rollovers.Inc()
}

func (m *metricsHook) abort(reason Reason) {
	if m.reg == nil {
		return
	}
	m.reg.Aborts.WithLabelValues(reason.String()).Inc()
}
