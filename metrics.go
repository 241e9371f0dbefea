package vcdtrace

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds decoding counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Changes   prometheus.Counter
	Untracked prometheus.Counter
	Cycles    prometheus.Counter
	Entries   *prometheus.CounterVec
}

// NewMetrics creates decoding counters and registers them with reg. If reg
// is nil the counters are not registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Changes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vcdtrace",
			Name:      "value_changes_total",
			Help:      "Number of value changes decoded.",
		}),
		Untracked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vcdtrace",
			Name:      "untracked_changes_total",
			Help:      "Number of value changes for undeclared identifiers.",
		}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vcdtrace",
			Name:      "cycles_total",
			Help:      "Number of cycles flushed.",
		}),
		Entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vcdtrace",
			Name:      "entries_total",
			Help:      "Number of trace entries emitted, by kind.",
		}, []string{"kind"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Changes, m.Untracked, m.Cycles, m.Entries} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register metrics")
		}
	}
	return m, nil
}

func (m *Metrics) change(tracked bool) {
	if m == nil {
		return
	}
	m.Changes.Inc()
	if !tracked {
		m.Untracked.Inc()
	}
}

func (m *Metrics) cycle() {
	if m != nil {
		m.Cycles.Inc()
	}
}

func (m *Metrics) entry(k EntryKind) {
	if m != nil {
		m.Entries.WithLabelValues(k.String()).Inc()
	}
}
