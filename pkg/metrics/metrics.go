package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "eventhub"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"
)

// Labels holds constant labels applied to all metrics.
// These distinguish several senders scraped by the same Prometheus.
type Labels struct {
	Namespace   string // Event Hubs namespace (e.g., "contoso")
	Transport   string // "amqp" or "kafka"
	Environment string // Deployment environment (e.g., "production", "staging")
}

// toPrometheusLabels converts Labels to prometheus.Labels map.
// Only non-empty labels are included to avoid empty label values.
func (l Labels) toPrometheusLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	if l.Namespace != "" {
		labels["namespace"] = l.Namespace
	}
	if l.Transport != "" {
		labels["transport"] = l.Transport
	}
	if l.Environment != "" {
		labels["environment"] = l.Environment
	}
	return labels
}

type Metrics struct {
	messagesSent     *prometheus.CounterVec // by status, keyed
	sendDuration     prometheus.Histogram
	connections      *prometheus.CounterVec // by status
	sessionOpen      prometheus.Gauge
	messagesReceived prometheus.Counter
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
// For metrics with constant labels, use NewWithLabels instead.
func New(reg prometheus.Registerer) (*Metrics, error) {
	return NewWithLabels(reg, Labels{})
}

// NewWithLabels creates a new Metrics instance with constant labels applied to all metrics.
func NewWithLabels(reg prometheus.Registerer, labels Labels) (*Metrics, error) {
	promLabels := labels.toPrometheusLabels()
	if len(promLabels) > 0 {
		reg = prometheus.WrapRegistererWith(promLabels, reg)
	}

	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_sent_total",
			Help:      "Total messages sent by status and whether a partition key was attached",
		}, []string{"status", "keyed"}),
		sendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "send_duration_seconds",
			Help:      "Time from send to broker disposition",
			// 5ms to 30s; sends to a remote namespace are dominated by network round trips.
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_total",
			Help:      "Connection attempts by status",
		}, []string{"status"}),
		sessionOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "session_open",
			Help:      "1 while a session is open, 0 otherwise",
		}),
		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_received_total",
			Help:      "Total messages received and accepted",
		}),
	}

	err := errors.Join(
		reg.Register(m.messagesSent),
		reg.Register(m.sendDuration),
		reg.Register(m.connections),
		reg.Register(m.sessionOpen),
		reg.Register(m.messagesReceived),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordSend records the outcome of one send.
func (m *Metrics) RecordSend(keyed bool, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(status(err), strconv.FormatBool(keyed)).Inc()
	m.sendDuration.Observe(durationSeconds)
}

// RecordConnection records a connection attempt.
func (m *Metrics) RecordConnection(err error) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(status(err)).Inc()
}

// SetSessionOpen updates the session gauge.
func (m *Metrics) SetSessionOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.sessionOpen.Set(1)
		return
	}
	m.sessionOpen.Set(0)
}

// IncMessagesReceived counts one received and accepted message.
func (m *Metrics) IncMessagesReceived() {
	if m == nil {
		return
	}
	m.messagesReceived.Inc()
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
