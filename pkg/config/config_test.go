package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/barista/pkg/machine"
	"github.com/openfroyo/barista/pkg/recipe"
	"github.com/openfroyo/barista/pkg/reservoir"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, machine.DefaultName, cfg.Machine.Name)
	assert.False(t, cfg.Machine.PowerOn)
	assert.Equal(t, DefaultWaterCapacity, cfg.Reservoirs.Water.Capacity)
	assert.Equal(t, DefaultBeansCapacity, cfg.Reservoirs.Beans.Capacity)
	assert.Equal(t, DefaultMilkCapacity, cfg.Reservoirs.Milk.Capacity)
	assert.False(t, cfg.Telemetry.Metrics.Enabled)
}

func TestParse(t *testing.T) {
	data := []byte(`
machine:
  name: kitchen
  power_on: true
reservoirs:
  water: { capacity: 300 }
  milk: { capacity: 50 }
telemetry:
  logging: { level: debug, format: json }
  events: { flush_interval: 250ms }
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "kitchen", cfg.Machine.Name)
	assert.True(t, cfg.Machine.PowerOn)
	assert.Equal(t, 300, cfg.Reservoirs.Water.Capacity)
	assert.Equal(t, DefaultBeansCapacity, cfg.Reservoirs.Beans.Capacity, "unset keys keep defaults")
	assert.Equal(t, 50, cfg.Reservoirs.Milk.Capacity)
	assert.Equal(t, "debug", cfg.Telemetry.Logging.Level)
	assert.Equal(t, "json", cfg.Telemetry.Logging.Format)
	assert.Equal(t, "stderr", cfg.Telemetry.Logging.Output)
	assert.Equal(t, 250*time.Millisecond, cfg.Telemetry.Events.FlushInterval)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "zero capacity",
			data:    "reservoirs:\n  beans: { capacity: 0 }\n",
			wantErr: "reservoirs.beans.capacity must be greater than 0",
		},
		{
			name:    "negative capacity",
			data:    "reservoirs:\n  milk: { capacity: -5 }\n",
			wantErr: "reservoirs.milk.capacity must be greater than 0, got -5",
		},
		{
			name:    "empty name",
			data:    "machine:\n  name: \"\"\n",
			wantErr: "machine.name is required",
		},
		{
			name:    "unknown key",
			data:    "machine:\n  colour: red\n",
			wantErr: "field colour not found",
		},
		{
			name:    "unsupported tracing option",
			data:    "telemetry:\n  tracing: { max_export_batch_size: 64 }\n",
			wantErr: "field max_export_batch_size not found",
		},
		{
			name:    "bad log level",
			data:    "telemetry:\n  logging: { level: loud }\n",
			wantErr: "invalid log level",
		},
		{
			name:    "malformed yaml",
			data:    "machine: [",
			wantErr: "failed to parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultPath)

	cfg := Default()
	cfg.Machine.Name = "office"
	cfg.Machine.PowerOn = true
	cfg.Reservoirs.Milk.Capacity = 750
	cfg.Telemetry.Metrics.Enabled = true

	require.NoError(t, Write(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWrite_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)

	cfg := Default()
	cfg.Reservoirs.Water.Capacity = 0

	require.Error(t, Write(path, cfg))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTelemetryConfig_IsACopy(t *testing.T) {
	cfg := Default()
	tc := cfg.TelemetryConfig()
	tc.Logging.Level = "error"

	assert.Equal(t, "info", cfg.Telemetry.Logging.Level)
	assert.Equal(t, "barista", tc.ServiceName)
}

func TestNewMachine(t *testing.T) {
	cfg := Default()
	cfg.Machine.Name = "kitchen"
	cfg.Reservoirs.Water.Capacity = 300
	cfg.Reservoirs.Beans.Capacity = 50
	cfg.Reservoirs.Milk.Capacity = 200

	m, err := cfg.NewMachine()
	require.NoError(t, err)
	assert.Equal(t, "kitchen", m.Name())
	assert.False(t, m.IsPoweredOn())

	water, err := m.Reservoir(reservoir.Water)
	require.NoError(t, err)
	assert.Equal(t, 300, water.Level, "reservoirs start full")
	assert.Equal(t, 300, water.Capacity)

	cfg.Machine.PowerOn = true
	m, err = cfg.NewMachine()
	require.NoError(t, err)
	assert.True(t, m.IsPoweredOn())

	msg, err := m.Brew(context.Background(), recipe.Coffee)
	require.NoError(t, err)
	assert.Equal(t, "Your coffee is ready!", msg)
}

func TestNewMachine_InvalidCapacity(t *testing.T) {
	cfg := Default()
	cfg.Reservoirs.Beans.Capacity = 0

	_, err := cfg.NewMachine()
	assert.ErrorIs(t, err, reservoir.ErrInvalidCapacity)
}

func TestReservoirsFor_UnknownKind(t *testing.T) {
	_, err := Default().Reservoirs.For(reservoir.UnknownKind)
	assert.ErrorIs(t, err, reservoir.ErrUnknownKind)
}

// replaceFile swaps in new content by rename, the way most editors save.
func replaceFile(t *testing.T, path string, data []byte) {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "swap.yaml")
	require.NoError(t, os.WriteFile(tmp, data, 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, Write(path, Default()))

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, zerolog.Nop(), func(cfg *Config) error {
		reloaded <- cfg
		return nil
	})
	w.Delay = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })

	// An invalid file is ignored.
	replaceFile(t, path, []byte("reservoirs:\n  water: { capacity: 0 }\n"))
	time.Sleep(200 * time.Millisecond)
	select {
	case cfg := <-reloaded:
		t.Fatalf("unexpected reload: %+v", cfg)
	default:
	}

	updated := Default()
	updated.Telemetry.Logging.Level = "debug"
	data, err := updated.Marshal()
	require.NoError(t, err)
	replaceFile(t, path, data)

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "debug", cfg.Telemetry.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, Write(path, Default()))

	w := NewWatcher(path, zerolog.Nop(), func(*Config) error { return nil })
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "absent", DefaultPath), zerolog.Nop(), func(*Config) error { return nil })
	assert.Error(t, w.Start(context.Background()))
}
