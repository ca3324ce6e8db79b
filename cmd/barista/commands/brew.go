package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/barista/pkg/console"
	"github.com/openfroyo/barista/pkg/machine"
	"github.com/openfroyo/barista/pkg/recipe"
)

type brewResult struct {
	Product recipe.Product  `json:"product"`
	Message string          `json:"message,omitempty"`
	Error   *machine.Error  `json:"error,omitempty"`
	Status  *machine.Status `json:"status,omitempty"`
}

func newBrewCommand() *cobra.Command {
	var showStatus bool

	cmd := &cobra.Command{
		Use:   "brew PRODUCT...",
		Short: "Brew one or more products",
		Long: `Build a machine from the configuration, power it on and brew each product
in order. Brewing stops at the first refused product.

Products: COFFEE, ESPRESSO, DOUBLE_ESPRESSO, LATTE, CAPPUCCINO, MACCHIATO
(case-insensitive; dashes and spaces work too).`,
		Example: `  # Brew two products with the default reservoirs
  barista brew latte double-espresso

  # Show the reservoir levels afterwards
  barista brew --status cappuccino cappuccino`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products := make([]recipe.Product, 0, len(args))
			for _, arg := range args {
				p, err := recipe.Parse(arg)
				if err != nil {
					return err
				}
				products = append(products, p)
			}

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			m, _, shutdown, err := buildMachine(cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			m.PowerOn()

			out := cmd.OutOrStdout()
			results := make([]brewResult, 0, len(products))
			var brewErr error
			for _, p := range products {
				msg, err := m.Brew(cmd.Context(), p)
				result := brewResult{Product: p, Message: msg}
				if err != nil {
					var merr *machine.Error
					if errors.As(err, &merr) {
						result.Error = merr
					}
					brewErr = fmt.Errorf("brew %s: %w", p, err)
				}
				results = append(results, result)

				if !jsonOutput {
					if err != nil {
						fmt.Fprintf(out, "error: %s\n", userMessage(err))
					} else {
						fmt.Fprintln(out, msg)
					}
				}
				if err != nil {
					break
				}
			}

			log.Debug().Int("requested", len(products)).Int("attempted", len(results)).Msg("Brewing finished")

			if jsonOutput {
				if showStatus {
					status := m.Status()
					results[len(results)-1].Status = &status
				}
				if err := writeJSON(out, results); err != nil {
					return err
				}
			} else if showStatus {
				fmt.Fprintln(out)
				if err := console.WriteStatus(out, m.Status()); err != nil {
					return err
				}
			}

			return brewErr
		},
	}

	cmd.Flags().BoolVar(&showStatus, "status", false, "print machine status after brewing")

	return cmd
}
