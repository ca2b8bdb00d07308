package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/rileyhilliard/statemon/internal/nodes"
	"github.com/rileyhilliard/statemon/internal/sim"
	"github.com/rileyhilliard/statemon/internal/ui"
	"github.com/spf13/cobra"
)

var (
	simBusFlags BusFlags
	simPrefix   string
	simVariant  string
	simRate     float64
)

// simulateCmd publishes a synthetic estimator for trying the dashboard out
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish a synthetic estimator",
	Long: `Publish the output streams of a fake estimator and answer its reset
service, so the dashboard can be tried without a robot.

Run several at once with different prefixes to see focus cycling.

Examples:
  statemon simulate
  statemon simulate --prefix uav/ --variant msf
  statemon simulate --prefix rover/ --variant rovio --rate 100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, &simBusFlags, nil)
		if err != nil {
			return err
		}
		variant, err := nodes.ParseVariant(simVariant)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return simulateCommand(ctx, cfg, sim.Options{
			Prefix:  simPrefix,
			Variant: variant,
			Rate:    simRate,
		}, cmd.OutOrStdout())
	},
}

func init() {
	AddBusFlags(simulateCmd, &simBusFlags)
	simulateCmd.Flags().StringVar(&simPrefix, "prefix", "sim/", "topic prefix of the simulated node")
	simulateCmd.Flags().StringVar(&simVariant, "variant", "swf", "estimator variant: swf, rovio, or msf")
	simulateCmd.Flags().Float64Var(&simRate, "rate", sim.DefaultRate, "messages per second on each stream")
	rootCmd.AddCommand(simulateCmd)
}

func simulateCommand(ctx context.Context, cfg *config.Config, opts sim.Options, out io.Writer) error {
	cfg.Bus.ClientID = sessionID(cfg.Bus.ClientID, "sim")

	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	opts.Log = logger.NewEnvLogger("[sim]")
	est := sim.New(b, opts)
	if err := est.Serve(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Publishing %s as %s at %.0f Hz\n", ui.SymbolProgress, est.Base(), opts.Variant, opts.Rate)
	fmt.Fprintf(out, "  reset service: %s\n", est.ResetService())
	fmt.Fprintln(out, "  press ctrl+c to stop")

	if err := est.Run(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Stopped after %d resets\n", ui.SymbolComplete, est.Resets())
	return nil
}
