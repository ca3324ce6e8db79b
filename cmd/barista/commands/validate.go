package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/barista/pkg/config"
)

type validateResult struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file.

This command checks:
  - YAML syntax and unknown keys
  - Machine name and positive reservoir capacities
  - Telemetry settings (log level and format, exporter, sampling rate)`,
		Example: `  # Validate ./barista.yaml
  barista validate

  # Validate a specific file
  barista validate /etc/barista/kitchen.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				path = config.DefaultPath
			}

			log.Debug().Str("path", path).Msg("Validating configuration")

			cfg, err := config.Load(path)
			out := cmd.OutOrStdout()

			if jsonOutput {
				result := validateResult{Path: path, Valid: err == nil}
				if err != nil {
					result.Error = err.Error()
				}
				if werr := writeJSON(out, result); werr != nil {
					return werr
				}
				return err
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(out, "✓ %s is valid\n", path)
			fmt.Fprintf(out, "  machine:    %s (power on: %t)\n", cfg.Machine.Name, cfg.Machine.PowerOn)
			fmt.Fprintf(out, "  reservoirs: water %dml, beans %dg, milk %dml\n",
				cfg.Reservoirs.Water.Capacity, cfg.Reservoirs.Beans.Capacity, cfg.Reservoirs.Milk.Capacity)
			return nil
		},
	}

	return cmd
}
