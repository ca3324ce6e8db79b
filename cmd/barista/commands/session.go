package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/barista/pkg/config"
	"github.com/openfroyo/barista/pkg/console"
	"github.com/openfroyo/barista/pkg/telemetry"
)

func newSessionCommand() *cobra.Command {
	var (
		metrics bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start an interactive console",
		Long: `Start an interactive console that drives one machine.

The machine starts powered off unless machine.power_on is set in the
configuration. Type "help" inside the session for the command list.

With --watch the configuration file is watched and a changed log level is
applied without restarting. Reservoir sizes only take effect on the next
session.`,
		Example: `  # Start a session with the default configuration
  barista session

  # Expose Prometheus metrics and follow config changes
  barista session --metrics --watch -c barista.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if metrics {
				cfg.Telemetry.Metrics.Enabled = true
			}

			m, tel, shutdown, err := buildMachine(cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			if metrics {
				if err := tel.StartMetricsServer(); err != nil {
					return fmt.Errorf("failed to start metrics server: %w", err)
				}
				log.Info().
					Str("address", cfg.Telemetry.Metrics.ListenAddress).
					Str("path", cfg.Telemetry.Metrics.Path).
					Msg("Serving metrics")
			}

			if watch {
				if path == "" {
					return fmt.Errorf("--watch needs a config file; create one with \"barista init\"")
				}
				watcher := config.NewWatcher(path, log.Logger, func(next *config.Config) error {
					level := next.Telemetry.Logging.Level
					if verbose {
						level = "debug"
					}
					telemetry.SetLevel(level)
					log.Info().Str("level", level).Msg("Applied log level")
					return nil
				})
				if err := watcher.Start(ctx); err != nil {
					return err
				}
				defer func() {
					if err := watcher.Stop(); err != nil {
						log.Warn().Err(err).Msg("Failed to stop config watcher")
					}
				}()
			}

			logWarningEvents(tel.Events, tel.Logger.NewComponentLogger("events").WithMachine(m.Name()))

			logger := tel.Logger.NewComponentLogger("console").Zerolog()
			session := console.New(m, cmd.InOrStdin(), cmd.OutOrStdout(), console.WithLogger(logger))
			return session.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&metrics, "metrics", false, "serve Prometheus metrics while the session runs")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the log level when the config file changes")

	return cmd
}

// logWarningEvents logs every event of warning level or above, such as a
// rejected brew, through logger.
func logWarningEvents(events *telemetry.EventPublisher, logger *telemetry.Logger) {
	events.Subscribe(func(e telemetry.Event) {
		l := logger.WithField("event_id", e.ID).WithField("event_type", e.Type)
		if e.Product != "" {
			l = l.WithProduct(e.Product)
		}
		if e.Resource != "" {
			l = l.WithResource(e.Resource)
		}
		if code, ok := e.Data["code"]; ok {
			l = l.WithField("code", code)
		}
		l.Warn(e.Message)
	}, telemetry.FilterByLevel(telemetry.EventLevelWarning))
}
