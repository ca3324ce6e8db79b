// Package config loads, validates and watches the YAML configuration of a
// barista machine.
//
// # File format
//
//	machine:
//	  name: kitchen
//	  power_on: false
//	reservoirs:
//	  water: { capacity: 2000 }
//	  beans: { capacity: 500 }
//	  milk:  { capacity: 1000 }
//	telemetry:
//	  logging: { level: info, format: console, output: stderr }
//	  metrics: { enabled: false, listen_address: ":9090", path: /metrics }
//
// Every key is optional; missing keys keep the values from Default. Unknown
// keys are an error. Struct constraints are checked with
// github.com/go-playground/validator and the telemetry section with
// telemetry.Config.Validate.
//
// # Usage
//
//	cfg, err := config.Load("barista.yaml")
//	if err != nil {
//	    return err
//	}
//	m, err := cfg.NewMachine(machine.WithLogger(logger))
//
// # Watching
//
// Watcher uses fsnotify to reload the file after it changes. Bursts of
// writes are debounced, and a file that fails to load is logged and ignored.
package config
