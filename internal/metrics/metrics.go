// Package metrics holds the Prometheus collectors for the logger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the logger.
type Metrics struct {
	SamplesTotal   prometheus.Counter
	SamplesDropped prometheus.Counter

	BlocksWritten prometheus.Counter
	BytesWritten  prometheus.Counter
	WriteFailures prometheus.Counter
	BlockWriteDur prometheus.Histogram

	// Retries by operation: mount, open, close.
	Retries *prometheus.CounterVec

	Sessions      prometheus.Counter
	ButtonEdges   *prometheus.CounterVec // labels: result=accepted|debounced
	BufferUsed    prometheus.Gauge
	BufferPercent prometheus.Gauge
	StorageFree   prometheus.Gauge
	Running       prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers and returns all metrics on reg. A nil reg uses a fresh
// registry, which keeps tests independent of each other.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		SamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evlogger_samples_total",
			Help: "Samples pushed into the ring buffer",
		}),
		SamplesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evlogger_samples_dropped_total",
			Help: "Samples dropped because the ring buffer was full",
		}),
		BlocksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evlogger_blocks_written_total",
			Help: "Blocks written to storage",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evlogger_bytes_written_total",
			Help: "Bytes written to storage",
		}),
		WriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evlogger_write_failures_total",
			Help: "Block writes that failed and were dropped",
		}),
		BlockWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evlogger_block_write_duration_seconds",
			Help:    "Storage block write latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evlogger_storage_retries_total",
			Help: "Storage operations retried after failure",
		}, []string{"op"}),
		Sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evlogger_sessions_total",
			Help: "Logging sessions opened",
		}),
		ButtonEdges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evlogger_button_edges_total",
			Help: "Button edges seen, by debounce result",
		}, []string{"result"}),
		BufferUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evlogger_buffer_used_bytes",
			Help: "Bytes waiting in the ring buffer",
		}),
		BufferPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evlogger_buffer_used_percent",
			Help: "Ring buffer occupancy",
		}),
		StorageFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evlogger_storage_free_bytes",
			Help: "Free space on the logging volume",
		}),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evlogger_running",
			Help: "1 while a logging session is running",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.SamplesTotal, m.SamplesDropped,
		m.BlocksWritten, m.BytesWritten, m.WriteFailures, m.BlockWriteDur,
		m.Retries, m.Sessions, m.ButtonEdges,
		m.BufferUsed, m.BufferPercent, m.StorageFree, m.Running,
	)
	return m
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
