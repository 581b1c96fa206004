// Package status exposes health, stats and Prometheus metrics over HTTP.
package status

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	messages          *prometheus.CounterVec
	inference         *prometheus.HistogramVec
	inferenceFailures *prometheus.CounterVec
	proactiveSent     prometheus.Counter
	commands          *prometheus.CounterVec

	commandCount atomic.Int64
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compagnon_messages_total",
			Help: "Incoming messages by pipeline outcome",
		}, []string{"outcome"}),
		inference: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "compagnon_inference_seconds",
			Help:    "Inference latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 180, 300},
		}, []string{"complexity"}),
		inferenceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compagnon_inference_failures_total",
			Help: "Failed inference calls by kind",
		}, []string{"kind"}),
		proactiveSent: f.NewCounter(prometheus.CounterOpts{
			Name: "compagnon_proactive_sent_total",
			Help: "Proactive messages sent",
		}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compagnon_commands_total",
			Help: "Commands run by name",
		}, []string{"command"}),
	}
}

// Registry returns the registry served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Message(outcome string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Inference(complex bool, d time.Duration) {
	if m == nil {
		return
	}
	label := "simple"
	if complex {
		label = "complex"
	}
	m.inference.WithLabelValues(label).Observe(d.Seconds())
}

func (m *Metrics) InferenceFailure(kind string) {
	if m == nil {
		return
	}
	m.inferenceFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ProactiveSent() {
	if m == nil {
		return
	}
	m.proactiveSent.Inc()
}

func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
	m.commandCount.Add(1)
}

// Commands returns how many commands ran since start.
func (m *Metrics) Commands() int64 {
	if m == nil {
		return 0
	}
	return m.commandCount.Load()
}
