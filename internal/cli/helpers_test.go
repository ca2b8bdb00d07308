package cli

import (
	"context"
	"testing"

	"github.com/rileyhilliard/statemon/internal/bus"
	"github.com/rileyhilliard/statemon/internal/bus/bustest"
	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/logger"
)

// useBus routes every dial in the test to b. A nil b makes dialing fail
// with dialErr.
func useBus(t *testing.T, b *bustest.Bus, dialErr error) *[]config.BusConfig {
	t.Helper()
	var dialed []config.BusConfig

	original := dialBus
	dialBus = func(_ context.Context, cfg config.BusConfig, _ logger.Logger) (bus.Bus, error) {
		dialed = append(dialed, cfg)
		if b == nil {
			return nil, dialErr
		}
		return b, nil
	}
	t.Cleanup(func() { dialBus = original })
	return &dialed
}
