package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/rileyhilliard/statemon/internal/ui"
	"github.com/spf13/cobra"
)

var (
	initBrokerFlag     string
	initForce          bool
	initGlobal         bool
	initNonInteractive bool
)

// initCmd creates a new .statemon.yaml configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .statemon.yaml configuration",
	Long: `Create a statemon configuration file with sensible defaults.

Asks for the broker address, checks that it answers, and writes
.statemon.yaml in the current directory (or the global config with --global).

Examples:
  statemon init
  statemon init --broker tcp://robot.local:1883
  statemon init --global --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(".", config.ConfigFileName)
		if initGlobal {
			home, err := os.UserHomeDir()
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					"Cannot find your home directory",
					"Run without --global to write .statemon.yaml here")
			}
			path = filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile)
		}
		return Init(cmd.Context(), InitOptions{
			Path:           path,
			Broker:         initBrokerFlag,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive,
			Out:            cmd.OutOrStdout(),
		})
	},
}

func init() {
	initCmd.Flags().StringVar(&initBrokerFlag, "broker", "", "MQTT broker URL")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/statemon/config.yaml")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "skip prompts and use flags or defaults")
	rootCmd.AddCommand(initCmd)
}

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string    // Where to write the config
	Broker         string    // Pre-specified broker URL
	Overwrite      bool      // Overwrite existing config without asking
	NonInteractive bool      // Skip prompts, use defaults
	Out            io.Writer // Defaults to stdout
}

// Init creates a new configuration file.
func Init(ctx context.Context, opts InitOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Path == "" {
		opts.Path = filepath.Join(".", config.ConfigFileName)
	}

	if _, err := os.Stat(opts.Path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", opts.Path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", opts.Path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(opts.Out, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if opts.Broker != "" {
		cfg.Bus.Broker = opts.Broker
	}

	if !opts.NonInteractive {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("MQTT broker").
					Description("Where your estimators publish").
					Placeholder(cfg.Bus.Broker).
					Value(&cfg.Bus.Broker).
					Validate(validateBrokerInput),
				huh.NewInput().
					Title("Client ID").
					Description("Must be unique among the broker's clients").
					Value(&cfg.Bus.ClientID).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("client ID is required")
						}
						return nil
					}),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or use --non-interactive")
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if err := probeBroker(ctx, cfg, opts.Out); err != nil {
		if opts.NonInteractive {
			return err
		}

		fmt.Fprintf(opts.Out, "\n%s %s\n\n", ui.SymbolFail, errors.Summary(err))
		var saveAnyway bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Save config anyway? (You can start the broker later)").
					Value(&saveAnyway),
			),
		)
		if formErr := form.Run(); formErr != nil || !saveAnyway {
			return err
		}
	}

	if err := config.Save(opts.Path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(opts.Out, "%s Created %s\n\n", ui.SymbolSuccess, opts.Path)
	fmt.Fprintln(opts.Out, "Next steps:")
	fmt.Fprintln(opts.Out, "  statemon topics    - List estimators on the bus")
	fmt.Fprintln(opts.Out, "  statemon simulate  - Publish a fake estimator")
	fmt.Fprintln(opts.Out, "  statemon           - Open the dashboard")
	return nil
}

// probeBroker connects once to check the broker answers.
func probeBroker(ctx context.Context, cfg *config.Config, out io.Writer) error {
	spinner := ui.NewSpinner("Testing connection to " + cfg.Bus.Broker)
	spinner.SetOutput(out)
	spinner.Start()

	probe := cfg.Bus
	probe.ClientID = sessionID(cfg.Bus.ClientID, "init")

	dialCtx, cancel := context.WithTimeout(ctx, probe.ConnectTimeout)
	defer cancel()

	b, err := dialBus(dialCtx, probe, logger.Noop())
	if err != nil {
		spinner.Fail()
		return err
	}
	b.Close()
	spinner.Success()
	return nil
}

func validateBrokerInput(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("broker is required")
	}
	if !strings.Contains(s, "://") {
		return fmt.Errorf("include a scheme, e.g. tcp://%s", s)
	}
	return nil
}
