package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/rileyhilliard/statemon/internal/nodes"
	"github.com/rileyhilliard/statemon/internal/ui"
	"github.com/spf13/cobra"
)

var (
	resetBusFlags BusFlags
	resetVariant  string
)

// resetCmd resets one estimator without starting the dashboard
var resetCmd = &cobra.Command{
	Use:   "reset <base>",
	Short: "Reset an estimator",
	Long: `Send a single reset request to the estimator rooted at <base> and
report the outcome.

The base is the node name shown on the dashboard and by 'statemon topics',
e.g. "robot/" for a filter publishing robot/swf/local_odometry.

Examples:
  statemon reset robot/
  statemon reset uav/ --variant msf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, &resetBusFlags, nil)
		if err != nil {
			return err
		}
		variant, err := nodes.ParseVariant(resetVariant)
		if err != nil {
			return err
		}
		return resetCommand(cmd.Context(), cfg, variant, args[0], cmd.OutOrStdout())
	},
}

func init() {
	AddBusFlags(resetCmd, &resetBusFlags)
	resetCmd.Flags().StringVar(&resetVariant, "variant", "swf", "estimator variant: swf, rovio, or msf")
	rootCmd.AddCommand(resetCmd)
}

func resetCommand(ctx context.Context, cfg *config.Config, variant nodes.Variant, base string, out io.Writer) error {
	cfg.Bus.ClientID = sessionID(cfg.Bus.ClientID, "reset")

	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	n := nodes.New(variant, base, cfg.Plot.Retention())

	callCtx, cancel := context.WithTimeout(ctx, cfg.Bus.CallTimeout)
	defer cancel()

	if err := n.Reset(callCtx, b, logger.Noop()); err != nil {
		return errors.WrapWithCode(err, errors.ErrReset,
			fmt.Sprintf("Reset of %s failed", base),
			fmt.Sprintf("Check that %s is served, e.g. with 'statemon topics --all'", n.ResetService()))
	}

	fmt.Fprintf(out, "%s Reset %s (%s)\n", ui.SymbolSuccess, base, variant)
	return nil
}
