package listing

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts listing fetch outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Fetches  *prometheus.CounterVec
	Sessions prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listing_fetches_total",
			Help: "Listing fetches by outcome (success, error, stale).",
		}, []string{"result"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "listing_sessions",
			Help: "Open listing sessions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Fetches, m.Sessions)
	}
	return m
}

func (m *Metrics) fetch(result string) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(result).Inc()
}

func (m *Metrics) sessions(delta float64) {
	if m == nil {
		return
	}
	m.Sessions.Add(delta)
}
