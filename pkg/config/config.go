package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/barista/pkg/machine"
	"github.com/openfroyo/barista/pkg/reservoir"
	"github.com/openfroyo/barista/pkg/telemetry"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "barista.yaml"

// Default reservoir capacities.
const (
	DefaultWaterCapacity = 2000
	DefaultBeansCapacity = 500
	DefaultMilkCapacity  = 1000
)

// Config is the on-disk configuration of a machine.
type Config struct {
	Machine    MachineConfig    `yaml:"machine"`
	Reservoirs ReservoirsConfig `yaml:"reservoirs"`
	Telemetry  telemetry.Config `yaml:"telemetry"`
}

// MachineConfig holds identity and start-up state.
type MachineConfig struct {
	// Name identifies the machine in logs, spans, metrics and events.
	Name string `yaml:"name" validate:"required,max=64"`

	// PowerOn turns the machine on right after construction.
	PowerOn bool `yaml:"power_on"`
}

// ReservoirsConfig sizes the three reservoirs.
type ReservoirsConfig struct {
	Water ReservoirConfig `yaml:"water"`
	Beans ReservoirConfig `yaml:"beans"`
	Milk  ReservoirConfig `yaml:"milk"`
}

// ReservoirConfig sizes one reservoir. Reservoirs always start full.
type ReservoirConfig struct {
	Capacity int `yaml:"capacity" validate:"gt=0"`
}

// For returns the reservoir config of the given kind.
func (r ReservoirsConfig) For(kind reservoir.Kind) (ReservoirConfig, error) {
	switch kind {
	case reservoir.Water:
		return r.Water, nil
	case reservoir.Beans:
		return r.Beans, nil
	case reservoir.Milk:
		return r.Milk, nil
	default:
		return ReservoirConfig{}, fmt.Errorf("%w: %s", reservoir.ErrUnknownKind, kind)
	}
}

var validate = validator.New()

// Default returns a valid configuration for a powered-off machine.
func Default() *Config {
	return &Config{
		Machine: MachineConfig{
			Name: machine.DefaultName,
		},
		Reservoirs: ReservoirsConfig{
			Water: ReservoirConfig{Capacity: DefaultWaterCapacity},
			Beans: ReservoirConfig{Capacity: DefaultBeansCapacity},
			Milk:  ReservoirConfig{Capacity: DefaultMilkCapacity},
		},
		Telemetry: *telemetry.DefaultConfig(),
	}
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and the telemetry section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Write validates cfg and writes it to path, creating parent directories.
func Write(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// TelemetryConfig returns a copy of the telemetry section.
func (c *Config) TelemetryConfig() *telemetry.Config {
	tc := c.Telemetry
	if tc.ServiceName == "" {
		tc.ServiceName = "barista"
	}
	return &tc
}

// NewMachine builds full reservoirs and a machine from the config.
// The machine is powered on when Machine.PowerOn is set.
func (c *Config) NewMachine(opts ...machine.Option) (*machine.Machine, error) {
	var built [3]*reservoir.Reservoir
	for i, kind := range reservoir.Kinds() {
		rc, err := c.Reservoirs.For(kind)
		if err != nil {
			return nil, err
		}
		r, err := reservoir.New(kind, rc.Capacity)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s reservoir: %w", kind, err)
		}
		built[i] = r
	}

	opts = append([]machine.Option{machine.WithName(c.Machine.Name)}, opts...)
	m, err := machine.New(built[0], built[1], built[2], opts...)
	if err != nil {
		return nil, err
	}

	if c.Machine.PowerOn {
		m.PowerOn()
	}
	return m, nil
}
