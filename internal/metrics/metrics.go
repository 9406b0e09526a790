// Package metrics counts codec traffic per message shape and direction.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the codec collectors. It satisfies stream.Observer.
type Metrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) (*Metrics, error) {
	labels := []string{"shape", "direction"}
	m := &Metrics{
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flatproto",
				Subsystem: "codec",
				Name:      "messages_total",
				Help:      "Messages encoded or decoded successfully.",
			},
			labels,
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flatproto",
				Subsystem: "codec",
				Name:      "bytes_total",
				Help:      "Wire bytes produced by encoding or consumed by decoding.",
			},
			labels,
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flatproto",
				Subsystem: "codec",
				Name:      "errors_total",
				Help:      "Messages that failed to encode or decode.",
			},
			labels,
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.messages, m.bytes, m.errors} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// ObserveMessage records one message. size is the wire length.
func (m *Metrics) ObserveMessage(shape, direction string, size int, err error) {
	if err != nil {
		m.errors.WithLabelValues(shape, direction).Inc()
		return
	}
	m.messages.WithLabelValues(shape, direction).Inc()
	m.bytes.WithLabelValues(shape, direction).Add(float64(size))
}
