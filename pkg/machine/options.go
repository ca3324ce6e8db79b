package machine

import (
	"github.com/rs/zerolog"

	"github.com/openfroyo/barista/pkg/telemetry"
)

// Option configures a Machine.
type Option func(*Machine)

// WithName sets the name reported in logs, spans, metrics and events.
func WithName(name string) Option {
	return func(m *Machine) {
		if name != "" {
			m.name = name
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithMetrics sets the Prometheus metrics sink.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Machine) {
		m.metrics = metrics
	}
}

// WithTracer sets the tracer used for brew and refill spans.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(m *Machine) {
		m.tracer = tracer
	}
}

// WithEvents sets the event publisher.
func WithEvents(events *telemetry.EventPublisher) Option {
	return func(m *Machine) {
		m.events = events
	}
}

// WithTelemetry wires every component of tel into the machine.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(m *Machine) {
		if tel == nil {
			return
		}
		if tel.Logger != nil {
			m.logger = tel.Logger.NewComponentLogger("machine").Zerolog()
		}
		m.metrics = tel.Metrics
		m.tracer = tel.Tracer
		m.events = tel.Events
	}
}
