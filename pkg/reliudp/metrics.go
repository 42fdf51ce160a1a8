package reliudp

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the Director's Prometheus instrumentation, labeled by
// remote peer address. The core only ever increments or sets these;
// registering the collector and serving /metrics is the caller's
// concern (see cmd/reliudp-chat).
type Metrics struct {
	sent          *prometheus.CounterVec
	received      *prometheus.CounterVec
	retransmitted *prometheus.CounterVec
	abandoned     *prometheus.CounterVec
	pendingCount  prometheus.Gauge
}

// NewMetrics builds an unregistered Metrics instance; register its
// Collectors() with a prometheus.Registerer before scraping.
func NewMetrics() *Metrics {
	return &Metrics{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliudp",
			Name:      "packets_sent_total",
			Help:      "Full packets handed to the send queue, including retransmissions.",
		}, []string{"peer"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliudp",
			Name:      "packets_received_total",
			Help:      "Full packets decoded off the receive queue.",
		}, []string{"peer"}),
		retransmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliudp",
			Name:      "packets_retransmitted_total",
			Help:      "Pending entries that expired and were resent.",
		}, []string{"peer"}),
		abandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliudp",
			Name:      "packets_abandoned_total",
			Help:      "Pending entries dropped after reaching MAX_RESEND_ATTEMPTS.",
		}, []string{"peer"}),
		pendingCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reliudp",
			Name:      "pending_table_size",
			Help:      "Current number of outstanding unacknowledged entries across all peers.",
		}),
	}
}

// Collectors returns every metric for bulk registration, e.g.
// `for _, c := range m.Collectors() { registerer.MustRegister(c) }`.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.sent, m.received, m.retransmitted, m.abandoned, m.pendingCount}
}

func (m *Metrics) ObserveSent(addr PeerAddr)          { m.sent.WithLabelValues(addr.String()).Inc() }
func (m *Metrics) ObserveReceived(addr PeerAddr)      { m.received.WithLabelValues(addr.String()).Inc() }
func (m *Metrics) ObserveRetransmitted(addr PeerAddr) { m.retransmitted.WithLabelValues(addr.String()).Inc() }
func (m *Metrics) ObserveAbandoned(addr PeerAddr)     { m.abandoned.WithLabelValues(addr.String()).Inc() }
func (m *Metrics) SetPendingCount(n int)              { m.pendingCount.Set(float64(n)) }
