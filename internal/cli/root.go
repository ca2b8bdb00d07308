package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rileyhilliard/statemon/internal/bus"
	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/rileyhilliard/statemon/internal/ui"
	"github.com/rileyhilliard/statemon/internal/util"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	noColor bool
)

// Dashboard flags
var (
	dashBusFlags  BusFlags
	dashPlotFlags PlotFlags
)

// dialBus connects to the broker. Tests swap it for an in-memory bus.
var dialBus = func(ctx context.Context, cfg config.BusConfig, log logger.Logger) (bus.Bus, error) {
	return bus.Dial(ctx, cfg, log)
}

var rootCmd = &cobra.Command{
	Use:   "statemon",
	Short: "Live terminal plots of state-estimator output",
	Long: `statemon watches an MQTT bus for state estimators and plots their
odometry, orientation, and IMU bias estimates as they arrive.

Estimators are discovered automatically. Use the arrow keys (or j/k) to move
between them and r to reset the one in focus.

Examples:
  statemon
  statemon --broker tcp://robot.local:1883
  statemon --retention 30 --quality 1`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColors()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, &dashBusFlags, &dashPlotFlags)
		if err != nil {
			return err
		}
		return dashboardCommand(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .statemon.yaml, then ~/.config/statemon/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	AddBusFlags(rootCmd, &dashBusFlags)
	AddPlotFlags(rootCmd, &dashPlotFlags)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if isUnknownCommandError(err) {
			err = unknownCommandError(err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// unknownCommandError rewrites a cobra usage error with a suggestion.
func unknownCommandError(err error) error {
	word := extractUnknownCommand(err)

	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	suggestion := "Run 'statemon --help' to see available commands"
	if similar := util.SuggestSimilar(word, names, 3); len(similar) > 0 {
		suggestion = fmt.Sprintf("Did you mean %s?", util.JoinOrNone(similar))
	}
	return errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown command or flag %q", word),
		suggestion)
}

// isUnknownCommandError reports whether err came from cobra rejecting the
// command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the offending word out of a cobra error such as
// `unknown command "foo" for "statemon"`.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return strings.TrimSpace(strings.TrimPrefix(msg, "unknown flag:"))
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return msg[start+1:]
	}
	return msg[start+1 : start+1+end]
}
