package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/statemon/internal/bus"
	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/nodes"
	"github.com/rileyhilliard/statemon/internal/plotters"
	"github.com/rileyhilliard/statemon/internal/snapshot"
	"github.com/rileyhilliard/statemon/internal/ui"
	"github.com/rileyhilliard/statemon/internal/util"
	"github.com/spf13/cobra"
)

// DefaultSnapshotDuration is how long snapshot records by default.
const DefaultSnapshotDuration = 5 * time.Second

var (
	snapBusFlags BusFlags
	snapVariant  string
	snapDuration string
	snapOut      string
)

// snapshotCmd records one estimator and writes its plots to a PNG
var snapshotCmd = &cobra.Command{
	Use:   "snapshot <base>",
	Short: "Record an estimator and save its plots as PNG",
	Long: `Subscribe to the estimator rooted at <base> for a while, then write its
plots to a PNG image using the dashboard layout.

Examples:
  statemon snapshot robot/
  statemon snapshot uav/ --variant msf --duration 10s --out uav.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, &snapBusFlags, nil)
		if err != nil {
			return err
		}
		variant, err := nodes.ParseVariant(snapVariant)
		if err != nil {
			return err
		}
		duration := DefaultSnapshotDuration
		if cmd.Flags().Changed("duration") {
			if duration, err = ParseTimeout(snapDuration); err != nil {
				return err
			}
		}
		path := snapOut
		if path == "" {
			path = snapshotFileName(args[0])
		}
		return snapshotCommand(cmd.Context(), cfg, variant, args[0], duration, path, cmd.OutOrStdout())
	},
}

func init() {
	AddBusFlags(snapshotCmd, &snapBusFlags)
	snapshotCmd.Flags().StringVar(&snapVariant, "variant", "swf", "estimator variant: swf, rovio, or msf")
	snapshotCmd.Flags().StringVar(&snapDuration, "duration", "", "how long to record (default 5s)")
	snapshotCmd.Flags().StringVarP(&snapOut, "out", "o", "", "output file (default: derived from <base>)")
	rootCmd.AddCommand(snapshotCmd)
}

func snapshotCommand(ctx context.Context, cfg *config.Config, variant nodes.Variant, base string, duration time.Duration, path string, out io.Writer) error {
	cfg.Bus.ClientID = sessionID(cfg.Bus.ClientID, "snapshot")

	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	n := nodes.New(variant, base, cfg.Plot.Retention())

	// Deliveries arrive on the bus goroutine.
	var mu sync.Mutex
	var received, bad int
	err = n.Subscribe(b, func(p *plotters.Plotter, m bus.Message) {
		mu.Lock()
		defer mu.Unlock()
		if err := p.Handle(m.Payload); err != nil {
			bad++
			return
		}
		received++
	})
	if err != nil {
		return err
	}

	spinner := ui.NewSpinner(fmt.Sprintf("Recording %s for %s", base, duration))
	spinner.Start()
	select {
	case <-ctx.Done():
		spinner.Skip()
	case <-time.After(duration):
		spinner.Success()
	}

	mu.Lock()
	defer mu.Unlock()

	if received == 0 {
		return errors.New(errors.ErrBus,
			fmt.Sprintf("No messages from %s (%s) in %s", base, variant, duration),
			"Check the node name and variant with 'statemon topics'")
	}
	if err := snapshot.Save(path, n, snapshot.Options{}); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Wrote %s from %d %s\n", ui.SymbolSuccess, path,
		received, util.Pluralize(received, "message", "messages"))
	if bad > 0 {
		fmt.Fprintf(out, "  %d undecodable %s skipped\n", bad, util.Pluralize(bad, "message", "messages"))
	}
	return nil
}

// snapshotFileName turns a node base such as "robot/rovio/" into
// "robot_rovio.png".
func snapshotFileName(base string) string {
	name := strings.Trim(base, "/")
	if name == "" {
		name = "statemon"
	}
	return strings.ReplaceAll(name, "/", "_") + ".png"
}
