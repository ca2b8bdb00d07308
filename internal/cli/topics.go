package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/dashboard"
	"github.com/rileyhilliard/statemon/internal/nodes"
	"github.com/rileyhilliard/statemon/internal/ui"
	"github.com/rileyhilliard/statemon/internal/util"
	"github.com/spf13/cobra"
)

// DefaultTopicsWait is how long topics listens before reporting.
const DefaultTopicsWait = 2 * time.Second

var (
	topicsBusFlags BusFlags
	topicsWait     string
	topicsAll      bool
)

// topicsCmd scans the bus once and prints the estimators it finds
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List estimators visible on the bus",
	Long: `Listen on the bus for a short while, then print every estimator node
that would appear on the dashboard.

Examples:
  statemon topics
  statemon topics --wait 5s
  statemon topics --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, &topicsBusFlags, nil)
		if err != nil {
			return err
		}
		wait := DefaultTopicsWait
		if cmd.Flags().Changed("wait") {
			if wait, err = ParseTimeout(topicsWait); err != nil {
				return err
			}
		}
		return topicsCommand(cmd.Context(), cfg, wait, topicsAll, cmd.OutOrStdout())
	},
}

func init() {
	AddBusFlags(topicsCmd, &topicsBusFlags)
	topicsCmd.Flags().StringVar(&topicsWait, "wait", "", "how long to listen before reporting (default 2s)")
	topicsCmd.Flags().BoolVar(&topicsAll, "all", false, "also list every topic seen")
	rootCmd.AddCommand(topicsCmd)
}

func topicsCommand(ctx context.Context, cfg *config.Config, wait time.Duration, all bool, out io.Writer) error {
	cfg.Bus.ClientID = sessionID(cfg.Bus.ClientID, "topics")

	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if wait > 0 {
		spinner := ui.NewSpinner(fmt.Sprintf("Listening for %s", wait))
		spinner.Start()
		select {
		case <-ctx.Done():
			spinner.Skip()
		case <-time.After(wait):
			spinner.Success()
		}
	}

	topics := b.Topics()
	reg := discoverNodes(topics, cfg.Plot.Retention())

	fmt.Fprintln(out)
	if reg.Len() == 0 {
		fmt.Fprintf(out, "%s No estimators found on %s\n", ui.SymbolPending, cfg.Bus.Broker)
	} else {
		fmt.Fprintf(out, "%s Found %d %s\n\n", ui.SymbolSuccess, reg.Len(), util.Pluralize(reg.Len(), "estimator", "estimators"))
		fmt.Fprintln(out, renderNodeTable(reg, topics))
	}
	if all {
		fmt.Fprintln(out, renderTopicTable(topics))
	}
	return nil
}

// discoverNodes runs one discovery pass over topics.
func discoverNodes(topics []string, retention time.Duration) *dashboard.Registry {
	reg := dashboard.NewRegistry()
	for _, topic := range topics {
		if variant, base, ok := nodes.Match(topic); ok {
			reg.Register(nodes.New(variant, base, retention))
		}
	}
	return reg
}

func renderNodeTable(reg *dashboard.Registry, topics []string) string {
	seen := make(map[string]bool, len(topics))
	for _, t := range topics {
		seen[t] = true
	}

	rows := make([][]string, 0, reg.Len())
	services := make([]string, 0, reg.Len())
	for _, name := range reg.Names() {
		n, _ := reg.Get(name)
		live := 0
		for _, t := range n.Topics() {
			if seen[t] {
				live++
			}
		}
		services = append(services, n.ResetService())
		rows = append(rows, []string{
			name,
			n.Variant().String(),
			fmt.Sprintf("%d/%d", live, len(n.Topics())),
			n.ResetService(),
		})
	}

	return ui.RenderSimpleTable([]ui.TableColumn{
		{Title: "NODE", Width: widest(reg.Names(), 12)},
		{Title: "VARIANT", Width: 16},
		{Title: "STREAMS", Width: 8},
		{Title: "RESET SERVICE", Width: widest(services, 16)},
	}, rows)
}

func renderTopicTable(topics []string) string {
	rows := make([][]string, len(topics))
	for i, t := range topics {
		node := "-"
		if _, base, ok := nodes.Match(t); ok {
			node = base
		}
		rows[i] = []string{t, node}
	}
	return ui.RenderSimpleTable([]ui.TableColumn{
		{Title: "TOPIC", Width: widest(topics, 24)},
		{Title: "NODE", Width: 24},
	}, rows)
}

// widest returns a column width that fits every value, at least floor.
func widest(values []string, floor int) int {
	w := floor
	for _, v := range values {
		if len(v)+2 > w {
			w = len(v) + 2
		}
	}
	return w
}
