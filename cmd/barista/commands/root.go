package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/barista/pkg/config"
	"github.com/openfroyo/barista/pkg/machine"
	"github.com/openfroyo/barista/pkg/telemetry"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "barista",
		Short: "Barista - a coffee machine with reservoirs, recipes and a brew counter",
		Long: `Barista simulates a coffee machine that brews six products from water,
bean and milk reservoirs.

Features:
  - Power gating: nothing brews while the machine is off
  - All-or-nothing brewing with per-product counters
  - YAML configuration with live reload
  - Prometheus metrics, OpenTelemetry traces and structured logs`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newRecipesCommand())
	rootCmd.AddCommand(newBrewCommand())
	rootCmd.AddCommand(newSessionCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newInitCommand())

	return rootCmd
}

// resolveConfigPath returns the explicit --config path, the default path if
// such a file exists, or "" to use built-in defaults.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.DefaultPath
	}
	return ""
}

// loadConfig loads the config selected by resolveConfigPath and applies
// --verbose.
func loadConfig() (*config.Config, string, error) {
	path := resolveConfigPath()

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	log.Debug().Str("config", path).Msg("Configuration loaded")
	return cfg, path, nil
}

// buildMachine wires telemetry from cfg into a new machine. The returned
// shutdown func flushes telemetry and must always be called.
func buildMachine(cfg *config.Config) (*machine.Machine, *telemetry.Telemetry, func(), error) {
	tel, err := telemetry.NewTelemetry(cfg.TelemetryConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	shutdown := func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}

	m, err := cfg.NewMachine(machine.WithTelemetry(tel))
	if err != nil {
		shutdown()
		return nil, nil, nil, err
	}
	return m, tel, shutdown, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userMessage returns the message of a machine error, or the full error.
func userMessage(err error) string {
	var merr *machine.Error
	if errors.As(err, &merr) {
		return merr.Message
	}
	return err.Error()
}
