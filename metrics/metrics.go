// Package metrics exposes the WBETL engine's commit/abort/extend/
// rollover counters as Prometheus collectors, grounded on how
// agilira-balios/examples/otel-prometheus wires a metrics backend into
// balios: optional, nil-safe, and never on by default.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every counter the engine reports. Construct one with
// New and register it with whatever prometheus.Registerer the host
// program uses (prometheus.DefaultRegisterer, or a private one for
// tests).
type Registry struct {
	Commits   prometheus.Counter
	Aborts    *prometheus.CounterVec
	Extends   prometheus.Counter
	Rollovers prometheus.Counter
}

// New builds a Registry with the engine's standard metric names. It is
// not registered with anything until Register is called.
func New() *Registry {
	return &Registry{
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stm_commits_total",
			Help: "Total number of committed transactions.",
		}),
		Aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stm_aborts_total",
			Help: "Total number of aborted transactions, by reason.",
		}, []string{"reason"}),
		Extends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stm_extends_total",
			Help: "Total number of successful read-set extensions.",
		}),
		Rollovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stm_rollovers_total",
			Help: "Total number of global clock rollovers.",
		}),
	}
}

// Register registers every collector in r with reg.
func (r *Registry) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{r.Commits, r.Aborts, r.Extends, r.Rollovers} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
