// Package telemetry provides observability instrumentation for barista machines.
//
// It integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus) and event publishing. Every component
// is optional: a nil or disabled Metrics, Tracer or EventPublisher is a no-op,
// so the machine package can call them unconditionally.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	cfg.Metrics.Enabled = true
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	if err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
//
//	m, err := machine.New(water, beans, milk, machine.WithTelemetry(tel))
//
// # Structured Logging
//
//	logger := tel.Logger.NewComponentLogger("events").WithMachine("kitchen")
//	logger.WithProduct("LATTE").Warn("Brew rejected")
//
// Levels are process-wide (SetLevel) so they can be changed while other
// goroutines log.
//
// # Tracing
//
// Each brew is one "machine.brew" span carrying the machine name and product;
// rejected brews end with an Error status and an error.code attribute.
// Supported exporters: "otlp" (gRPC), "stdout" and "none".
//
// # Metrics
//
// Exposed under the configured namespace (default "barista"):
//
//   - barista_brews_total{product,status}
//   - barista_brew_duration_seconds{product}
//   - barista_reservoir_level{resource}
//   - barista_reservoir_capacity{resource}
//   - barista_refills_total{resource}
//   - barista_powered_on
//   - barista_errors_by_code_total{code}
//
// # Events
//
// brew.completed, brew.rejected, power.changed and reservoir.refilled events
// are delivered to subscribers in publish order, either inline or from a
// single background goroutine when EnableAsync is set.
//
//	tel.Events.Subscribe(func(e telemetry.Event) {
//	    fmt.Println(e.Type, e.Message)
//	}, telemetry.FilterByLevel(telemetry.EventLevelWarning))
package telemetry
