// Package metrics holds the Prometheus counters of a search run and the
// periodic throughput reporter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for a search run. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry        *prometheus.Registry
	Candidates      prometheus.Counter
	Pairs           prometheus.Counter
	Matches         prometheus.Counter
	PersistFailures prometheus.Counter
	KeysPerSecond   prometheus.Gauge
}

// New creates the metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Candidates: factory.NewCounter(prometheus.CounterOpts{
			Name: "oniongen_candidates_total",
			Help: "Total number of candidate keys whose address was tested",
		}),
		Pairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "oniongen_prime_pairs_total",
			Help: "Total number of prime pairs swept",
		}),
		Matches: factory.NewCounter(prometheus.CounterOpts{
			Name: "oniongen_matches_total",
			Help: "Total number of addresses that matched the dictionary",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "oniongen_persist_failures_total",
			Help: "Total number of matches that could not be stored",
		}),
		KeysPerSecond: factory.NewGauge(prometheus.GaugeOpts{
			Name: "oniongen_keys_per_second",
			Help: "Average candidate throughput since the run started",
		}),
	}
}

// ObservePair records a swept pair and the candidates it produced.
func (m *Metrics) ObservePair(candidates int) {
	if m == nil {
		return
	}
	m.Pairs.Inc()
	m.Candidates.Add(float64(candidates))
}

// IncMatches increments the match counter by 1.
func (m *Metrics) IncMatches() {
	if m == nil {
		return
	}
	m.Matches.Inc()
}

// IncPersistFailures increments the persistence failure counter by 1.
func (m *Metrics) IncPersistFailures() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// SetRate records the current throughput.
func (m *Metrics) SetRate(keysPerSecond float64) {
	if m == nil {
		return
	}
	m.KeysPerSecond.Set(keysPerSecond)
}

// WriteTextfile writes the registry in the text exposition format to path,
// for pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
