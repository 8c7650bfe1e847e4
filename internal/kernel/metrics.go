package kernel

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the tick orchestrator for scraping.
type Metrics struct {
	TicksTotal          prometheus.Counter
	TickDuration        prometheus.Histogram
	ToolCallsTotal      *prometheus.CounterVec
	CircuitBreakerTrips prometheus.Counter
	ModeGauge           *prometheus.GaugeVec
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// NewMetrics returns the process-wide kernel Metrics, registering its
// collectors on first call.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			TicksTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "aios_kernel_ticks_total",
				Help: "Total number of completed ticks across all sessions",
			}),
			TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "aios_kernel_tick_duration_seconds",
				Help:    "Wall-clock duration of a single tick",
				Buckets: prometheus.DefBuckets,
			}),
			ToolCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "aios_kernel_tool_calls_total",
				Help: "Total tool dispatch attempts by outcome",
			}, []string{"outcome"}),
			CircuitBreakerTrips: promauto.NewCounter(prometheus.CounterOpts{
				Name: "aios_kernel_circuit_breaker_trips_total",
				Help: "Total number of times a session's circuit breaker tripped",
			}),
			ModeGauge: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "aios_kernel_sessions_in_mode",
				Help: "Current number of sessions last observed in each operating mode",
			}, []string{"mode"}),
		}
	})
	return metricsInstance
}

func (m *Metrics) observeMode(mode string) {
	if m == nil || m.ModeGauge == nil {
		return
	}
	m.ModeGauge.WithLabelValues(mode).Inc()
}
