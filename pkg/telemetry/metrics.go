package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Brew outcome label values.
const (
	BrewStatusSuccess = "success"
	BrewStatusFailed  = "failed"
)

// Metrics provides Prometheus metrics for a machine.
// A nil *Metrics and a disabled one are both no-ops.
type Metrics struct {
	config MetricsConfig

	// Brew metrics
	brews        *prometheus.CounterVec
	brewDuration *prometheus.HistogramVec

	// Reservoir metrics
	reservoirLevel    *prometheus.GaugeVec
	reservoirCapacity *prometheus.GaugeVec
	refills           *prometheus.CounterVec

	// Machine metrics
	poweredOn prometheus.Gauge

	// Error metrics
	errorsByCode *prometheus.CounterVec

	registry *prometheus.Registry
	server   *http.Server
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		brews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "brews_total",
				Help:      "Total number of brew requests by product and outcome",
			},
			[]string{"product", "status"},
		),
		brewDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "brew_duration_seconds",
				Help:      "Duration of brew requests in seconds",
				Buckets:   buckets,
			},
			[]string{"product"},
		),

		reservoirLevel: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reservoir_level",
				Help:      "Current amount held by each reservoir",
			},
			[]string{"resource"},
		),
		reservoirCapacity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reservoir_capacity",
				Help:      "Capacity of each reservoir",
			},
			[]string{"resource"},
		),
		refills: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refills_total",
				Help:      "Total number of reservoir refills",
			},
			[]string{"resource"},
		),

		poweredOn: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "powered_on",
				Help:      "Machine power state (1=on, 0=off)",
			},
		),

		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),
	}

	registry.MustRegister(
		m.brews,
		m.brewDuration,
		m.reservoirLevel,
		m.reservoirCapacity,
		m.refills,
		m.poweredOn,
		m.errorsByCode,
	)

	return m, nil
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// RecordBrew records a brew request with its outcome and duration.
func (m *Metrics) RecordBrew(product, status string, duration time.Duration) {
	if !m.enabled() {
		return
	}
	m.brews.WithLabelValues(product, status).Inc()
	m.brewDuration.WithLabelValues(product).Observe(duration.Seconds())
}

// SetReservoir sets the level and capacity gauges for a reservoir.
func (m *Metrics) SetReservoir(resource string, level, capacity int) {
	if !m.enabled() {
		return
	}
	m.reservoirLevel.WithLabelValues(resource).Set(float64(level))
	m.reservoirCapacity.WithLabelValues(resource).Set(float64(capacity))
}

// RecordRefill increments the refill counter for a reservoir.
func (m *Metrics) RecordRefill(resource string) {
	if !m.enabled() {
		return
	}
	m.refills.WithLabelValues(resource).Inc()
}

// SetPoweredOn sets the power state gauge.
func (m *Metrics) SetPoweredOn(on bool) {
	if !m.enabled() {
		return
	}
	value := 0.0
	if on {
		value = 1.0
	}
	m.poweredOn.Set(value)
}

// RecordError records an error by code.
func (m *Metrics) RecordError(code string) {
	if !m.enabled() || code == "" {
		return
	}
	m.errorsByCode.WithLabelValues(code).Inc()
}

// Registry returns the registry backing the metrics, or nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Brews returns the brew counter series for product and status.
// The series accessors below must only be called on enabled metrics.
func (m *Metrics) Brews(product, status string) prometheus.Counter {
	return m.brews.WithLabelValues(product, status)
}

// ReservoirLevel returns the level gauge for a reservoir.
func (m *Metrics) ReservoirLevel(resource string) prometheus.Gauge {
	return m.reservoirLevel.WithLabelValues(resource)
}

// ReservoirCapacity returns the capacity gauge for a reservoir.
func (m *Metrics) ReservoirCapacity(resource string) prometheus.Gauge {
	return m.reservoirCapacity.WithLabelValues(resource)
}

// Refills returns the refill counter for a reservoir.
func (m *Metrics) Refills(resource string) prometheus.Counter {
	return m.refills.WithLabelValues(resource)
}

// PoweredOn returns the power state gauge.
func (m *Metrics) PoweredOn() prometheus.Gauge {
	return m.poweredOn
}

// ErrorsByCode returns the error counter for code.
func (m *Metrics) ErrorsByCode(code string) prometheus.Counter {
	return m.errorsByCode.WithLabelValues(code)
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.enabled() {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	m.server = &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// Log error but don't fail the application
			log.Error().Err(err).Str("address", m.config.ListenAddress).Msg("Metrics server error")
		}
	}()

	return nil
}

// Shutdown stops the metrics server if it was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
