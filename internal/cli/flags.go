package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/spf13/cobra"
)

// BusFlags holds the broker overrides shared by every command that connects.
type BusFlags struct {
	Broker   string
	ClientID string
	Timeout  string
}

// AddBusFlags registers --broker, --client-id, and --timeout on a command.
func AddBusFlags(cmd *cobra.Command, flags *BusFlags) {
	cmd.Flags().StringVar(&flags.Broker, "broker", "", "MQTT broker URL (e.g., tcp://localhost:1883)")
	cmd.Flags().StringVar(&flags.ClientID, "client-id", "", "MQTT client ID")
	cmd.Flags().StringVar(&flags.Timeout, "timeout", "", "connect and call timeout (e.g., 5s, 500ms)")
}

// PlotFlags holds the dashboard-only overrides.
type PlotFlags struct {
	Retention float64
	Quality   int
	LogFile   string
}

// AddPlotFlags registers --retention, --quality, and --log-file on a command.
func AddPlotFlags(cmd *cobra.Command, flags *PlotFlags) {
	cmd.Flags().Float64Var(&flags.Retention, "retention", 0, "seconds of history per plot")
	cmd.Flags().IntVar(&flags.Quality, "quality", 0, "color quality: 0 mono, 1 ANSI, 2 true color")
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "file that receives logs while the dashboard runs")
}

// ParseTimeout parses a timeout flag. Returns zero duration if the flag is empty.
func ParseTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid timeout", flag),
			"Try something like 5s, 2m, or 500ms.")
	}
	if d <= 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Timeout must be positive, got %s", flag),
			"Try something like 5s, 2m, or 500ms.")
	}
	return d, nil
}

// loadConfig reads the config file, applies the flags that were set on cmd,
// and validates the result. Either flag set may be nil.
func loadConfig(cmd *cobra.Command, bus *BusFlags, plot *PlotFlags) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(cmd, cfg, bus, plot); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config, bus *BusFlags, plot *PlotFlags) error {
	changed := cmd.Flags().Changed

	if bus != nil {
		if changed("broker") {
			cfg.Bus.Broker = bus.Broker
		}
		if changed("client-id") {
			cfg.Bus.ClientID = bus.ClientID
		}
		if changed("timeout") {
			d, err := ParseTimeout(bus.Timeout)
			if err != nil {
				return err
			}
			cfg.Bus.ConnectTimeout = d
			cfg.Bus.CallTimeout = d
		}
	}

	if plot != nil {
		if changed("retention") {
			cfg.Plot.RetentionSecs = plot.Retention
		}
		if changed("quality") {
			cfg.Plot.Quality = plot.Quality
		}
		if changed("log-file") {
			cfg.LogFile = plot.LogFile
		}
	}
	return nil
}

// sessionID derives a unique client ID for a helper command so it can share
// the broker with a running dashboard.
func sessionID(clientID, role string) string {
	return fmt.Sprintf("%s-%s-%s", clientID, role, uuid.NewString()[:8])
}
