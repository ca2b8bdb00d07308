package cli

import (
	"context"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/statemon/internal/bus"
	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/dashboard"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/rileyhilliard/statemon/internal/surface"
	"github.com/rileyhilliard/statemon/internal/ui"
)

// dashboardCommand runs the live dashboard until the user quits.
func dashboardCommand(ctx context.Context, cfg *config.Config) error {
	// The display check comes first: without a terminal nothing else matters.
	surf, err := surface.New(surface.Options{
		Quality: cfg.Plot.Quality,
		Padding: cfg.Plot.Padding,
		Output:  os.Stdout,
	})
	if err != nil {
		return err
	}

	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	// From here on the program owns the terminal.
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "statemon")
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot open log file "+cfg.LogFile,
				"Pass --log-file with a writable path")
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	model := dashboard.NewModel(dashboard.Options{
		Bus:     b,
		Surface: surf,
		Config:  cfg,
		Log:     logger.NewEnvLogger("[dashboard]"),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// connect dials the broker behind a spinner.
func connect(ctx context.Context, cfg *config.Config) (bus.Bus, error) {
	spinner := ui.NewSpinner("Connecting to " + cfg.Bus.Broker)
	spinner.Start()

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Bus.ConnectTimeout)
	defer cancel()

	b, err := dialBus(dialCtx, cfg.Bus, logger.NewEnvLogger("[bus]"))
	if err != nil {
		spinner.Fail()
		return nil, err
	}
	spinner.Success()
	return b, nil
}
