// Package nodes models one monitored estimator: which streams it publishes,
// how they are laid out on the plot grid, and how to reset it.
package nodes

import (
	"context"
	"time"

	"github.com/rileyhilliard/statemon/internal/bus"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/rileyhilliard/statemon/internal/msgs"
	"github.com/rileyhilliard/statemon/internal/plot"
	"github.com/rileyhilliard/statemon/internal/plotters"
)

// Grid cells used by every node layout.
const (
	CellPosition        = 1
	CellLinearVelocity  = 2
	CellAccelBias       = 3
	CellOrientation     = 5
	CellAngularVelocity = 6
	CellGyroBias        = 7
)

var odometryCells = plotters.OdometryCells{
	Position:        CellPosition,
	LinearVelocity:  CellLinearVelocity,
	Orientation:     CellOrientation,
	AngularVelocity: CellAngularVelocity,
}

// Node is one estimator and the plotters for its streams.
type Node struct {
	name    string
	variant Variant
	streams []*plotters.Plotter
	live    map[string]bool

	resetService string
	resetRequest interface{}
}

// New builds the node for variant rooted at base.
func New(variant Variant, base string, retention time.Duration) *Node {
	n := &Node{name: base, variant: variant, live: make(map[string]bool)}

	switch variant {
	case GenericFilter:
		n.streams = []*plotters.Plotter{
			plotters.NewOdometry(base+"swf/local_odometry", retention, odometryCells),
			plotters.NewPoint(base+"swf/linear_acceleration_biases", plotters.TitleLinearAccelBias, CellAccelBias, retention),
			plotters.NewPoint(base+"swf/angular_velocity_biases", plotters.TitleAngularVelBias, CellGyroBias, retention),
		}
		n.resetService = base + "reset"
		n.resetRequest = msgs.Empty{}
	case AlternateFilter:
		n.streams = []*plotters.Plotter{
			plotters.NewOdometry(base+"odometry", retention, odometryCells),
			plotters.NewImuBias(base+"imu_biases", retention, CellAccelBias, CellGyroBias),
		}
		n.resetService = base + "reset"
		n.resetRequest = msgs.Empty{}
	case FusionFilter:
		n.streams = []*plotters.Plotter{
			plotters.NewOdometry(base+"msf_core/odometry", retention, odometryCells),
			plotters.NewStateVector(base+"msf_core/state_out", retention, CellAccelBias, CellGyroBias),
		}
		n.resetService = base + "msf_updates/pose_sensor/initialize_msf_scale"
		n.resetRequest = msgs.InitScaleRequest{Scale: 1.0}
	}
	return n
}

// Name returns the node's base name.
func (n *Node) Name() string { return n.name }

func (n *Node) Variant() Variant { return n.variant }

func (n *Node) Streams() []*plotters.Plotter { return n.streams }

// Topics returns every topic the node subscribes to.
func (n *Node) Topics() []string {
	out := make([]string, len(n.streams))
	for i, s := range n.streams {
		out[i] = s.Topic()
	}
	return out
}

// SubPlots returns every sub-plot across all streams.
func (n *Node) SubPlots() []*plot.SubPlot {
	var out []*plot.SubPlot
	for _, s := range n.streams {
		out = append(out, s.SubPlots()...)
	}
	return out
}

// ResetService returns the service a reset request goes to.
func (n *Node) ResetService() string { return n.resetService }

// Subscribe routes deliveries for each stream into its plotter through
// deliver, which decides where and when Handle runs. Streams that are
// already subscribed are skipped, so a failed call can be retried.
func (n *Node) Subscribe(b bus.Bus, deliver func(*plotters.Plotter, bus.Message)) error {
	for _, s := range n.streams {
		if n.live[s.Topic()] {
			continue
		}
		s := s
		if err := b.Subscribe(s.Topic(), func(m bus.Message) { deliver(s, m) }); err != nil {
			return errors.WrapWithCode(err, errors.ErrBus,
				"Cannot subscribe to "+s.Topic()+" for "+n.name, "")
		}
		n.live[s.Topic()] = true
	}
	return nil
}

// Reset asks the estimator to reinitialise. The outcome is logged; the error
// is returned for callers that want to report it further.
func (n *Node) Reset(ctx context.Context, caller bus.Caller, log logger.Logger) error {
	var err error
	switch n.variant {
	case FusionFilter:
		var resp msgs.InitScaleResponse
		err = caller.Call(ctx, n.resetService, n.resetRequest, &resp)
		if err == nil && resp.Result != "" {
			log.Debug("%s replied: %s", n.resetService, resp.Result)
		}
	default:
		err = caller.Call(ctx, n.resetService, n.resetRequest, nil)
	}

	if err != nil {
		log.Error("Failed to reset %s (%s): %s", n.name, n.variant, errors.Summary(err))
		return err
	}
	log.Info("Reset %s (%s)", n.name, n.variant)
	return nil
}
