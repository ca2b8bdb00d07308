package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/statemon/internal/errors"
)

// MinRefreshInterval is the shortest draw or scan interval accepted.
const MinRefreshInterval = 10 * time.Millisecond

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but statemon only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade statemon or regenerate the file with 'statemon init --force'")
	}

	checks := []func(*Config) error{
		func(c *Config) error { return validateBus(c.Bus) },
		func(c *Config) error { return validatePlot(c.Plot) },
		func(c *Config) error { return validateRefresh(c.Refresh) },
		func(c *Config) error { return validateKeys(c.Keys) },
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Invalid configuration",
				"Fix the value in your .statemon.yaml or the matching flag")
		}
	}
	return nil
}

func validateBus(bus BusConfig) error {
	if strings.TrimSpace(bus.Broker) == "" {
		return fmt.Errorf("bus.broker is empty - set it to something like tcp://localhost:1883")
	}
	if !strings.Contains(bus.Broker, "://") {
		return fmt.Errorf("bus.broker '%s' needs a scheme, e.g. tcp://%s", bus.Broker, bus.Broker)
	}
	if strings.TrimSpace(bus.ClientID) == "" {
		return fmt.Errorf("bus.client_id is empty")
	}
	if bus.ConnectTimeout <= 0 {
		return fmt.Errorf("bus.connect_timeout must be positive (got %v)", bus.ConnectTimeout)
	}
	if bus.CallTimeout <= 0 {
		return fmt.Errorf("bus.call_timeout must be positive (got %v)", bus.CallTimeout)
	}
	if bus.DiscoveryFilter == "" {
		return fmt.Errorf("bus.discovery_filter is empty - use '#' to see every topic")
	}
	return nil
}

func validatePlot(plot PlotConfig) error {
	if plot.RetentionSecs <= 0 {
		return fmt.Errorf("plot.retention_secs must be greater than 0 (got %g)", plot.RetentionSecs)
	}
	if plot.Quality < 0 {
		return fmt.Errorf("plot.quality can't be negative (got %d)", plot.Quality)
	}
	if plot.Padding < 0 {
		return fmt.Errorf("plot.padding can't be negative (got %d)", plot.Padding)
	}
	return nil
}

func validateRefresh(r RefreshConfig) error {
	if r.DrawInterval < MinRefreshInterval {
		return fmt.Errorf("refresh.draw_interval %v is below the %v minimum", r.DrawInterval, MinRefreshInterval)
	}
	if r.ScanInterval < MinRefreshInterval {
		return fmt.Errorf("refresh.scan_interval %v is below the %v minimum", r.ScanInterval, MinRefreshInterval)
	}
	return nil
}

func validateKeys(k KeysConfig) error {
	groups := []struct {
		name string
		keys []string
	}{
		{"keys.next", k.Next},
		{"keys.prev", k.Prev},
		{"keys.reset", k.Reset},
	}

	owner := make(map[string]string)
	for _, g := range groups {
		if len(g.keys) == 0 {
			return fmt.Errorf("%s needs at least one key", g.name)
		}
		for _, key := range g.keys {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("%s has an empty entry", g.name)
			}
			if prev, ok := owner[key]; ok {
				return fmt.Errorf("key '%s' is bound to both %s and %s", key, prev, g.name)
			}
			owner[key] = g.name
		}
	}
	return nil
}
