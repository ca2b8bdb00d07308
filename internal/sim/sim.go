// Package sim publishes a synthetic estimator on the bus. It drives a body
// around a circle, reports slowly converging IMU biases, and answers the
// estimator's reset service by restarting the trajectory.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rileyhilliard/statemon/internal/bus"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/rileyhilliard/statemon/internal/msgs"
	"github.com/rileyhilliard/statemon/internal/nodes"
	"github.com/rileyhilliard/statemon/internal/plotters"
)

// Trajectory parameters.
const (
	radius      = 2.0 // m
	angularRate = 0.5 // rad/s around the circle
	bobRate     = 0.2 // rad/s of the vertical bob
	bobHeight   = 0.5 // m
	biasSettle  = 5.0 // s time constant of bias convergence
	stateLen    = 25  // entries in the published fusion state vector
)

var (
	accelBias = msgs.Vector3{X: 0.05, Y: -0.02, Z: 0.1}
	gyroBias  = msgs.Vector3{X: 0.001, Y: 0.002, Z: -0.001}
)

// DefaultRate is the publish rate in Hz when none is given.
const DefaultRate = 50.0

// Options configures an Estimator.
type Options struct {
	// Prefix is the topic namespace, e.g. "robot/".
	Prefix  string
	Variant nodes.Variant
	// Rate is messages per second on each stream.
	Rate float64
	Log  logger.Logger
}

// Estimator is a fake state estimator of one variant.
type Estimator struct {
	bus  bus.Bus
	opts Options
	node *nodes.Node

	mu     sync.Mutex
	origin time.Time
	resets int
	seq    uint32
}

// New creates an estimator that publishes on b.
func New(b bus.Bus, opts Options) *Estimator {
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	if opts.Log == nil {
		opts.Log = logger.Noop()
	}
	base := nodes.BaseFor(opts.Variant, opts.Prefix)
	return &Estimator{
		bus:  b,
		opts: opts,
		node: nodes.New(opts.Variant, base, time.Second),
	}
}

// Base returns the node base the estimator publishes under.
func (e *Estimator) Base() string { return e.node.Name() }

// Topics returns the published topics.
func (e *Estimator) Topics() []string { return e.node.Topics() }

// ResetService returns the service the estimator answers.
func (e *Estimator) ResetService() string { return e.node.ResetService() }

// Resets returns how many reset requests have been served.
func (e *Estimator) Resets() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resets
}

// Serve registers the reset service.
func (e *Estimator) Serve() error {
	return e.bus.Serve(e.ResetService(), e.handleReset)
}

func (e *Estimator) handleReset(body json.RawMessage) (interface{}, error) {
	var resp interface{} = msgs.Empty{}
	if e.opts.Variant == nodes.FusionFilter {
		var req msgs.InitScaleRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrDecode, "Malformed scale request", "")
		}
		if req.Scale <= 0 {
			return nil, fmt.Errorf("scale must be positive, got %g", req.Scale)
		}
		resp = msgs.InitScaleResponse{Result: fmt.Sprintf("Initialized scale to %.2f", req.Scale)}
	}

	e.mu.Lock()
	e.origin = time.Time{}
	e.resets++
	e.mu.Unlock()

	e.opts.Log.Info("%s reset", e.Base())
	return resp, nil
}

// Run publishes at the configured rate until ctx ends.
func (e *Estimator) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / e.opts.Rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := e.Step(now); err != nil {
				e.opts.Log.Warn("%s", errors.Summary(err))
			}
		}
	}
}

// Step publishes one message on every stream, stamped now.
func (e *Estimator) Step(now time.Time) error {
	e.mu.Lock()
	if e.origin.IsZero() {
		e.origin = now
	}
	t := now.Sub(e.origin).Seconds()
	e.seq++
	header := msgs.Header{
		Seq:     e.seq,
		Stamp:   msgs.TimeFromSeconds(float64(now.UnixNano()) * 1e-9),
		FrameID: "world",
	}
	e.mu.Unlock()

	for _, s := range e.node.Streams() {
		msg := e.message(s, header, t)
		data, err := json.Marshal(msg)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrDecode, "Cannot encode "+s.Topic(), "")
		}
		if err := e.bus.Publish(s.Topic(), data); err != nil {
			return err
		}
	}
	return nil
}

func (e *Estimator) message(s *plotters.Plotter, h msgs.Header, t float64) interface{} {
	settle := 1 - math.Exp(-t/biasSettle)
	ab := scale(accelBias, settle)
	gb := scale(gyroBias, settle)

	switch s.Kind() {
	case plotters.KindOdometry:
		return odometry(h, t)
	case plotters.KindPoint:
		v := gb
		if s.SubPlots()[0].Title == plotters.TitleLinearAccelBias {
			v = ab
		}
		return msgs.PointStamped{Header: h, Point: msgs.Point(v)}
	case plotters.KindImuBias:
		return msgs.Imu{
			Header:             h,
			Orientation:        msgs.Quaternion{W: 1},
			AngularVelocity:    gb,
			LinearAcceleration: ab,
		}
	case plotters.KindStateVector:
		data := make([]float64, stateLen)
		odom := odometry(h, t)
		p, v, q := odom.Pose.Pose.Position, odom.Twist.Twist.Linear, odom.Pose.Pose.Orientation
		copy(data, []float64{p.X, p.Y, p.Z, v.X, v.Y, v.Z, q.W, q.X, q.Y, q.Z,
			gb.X, gb.Y, gb.Z, ab.X, ab.Y, ab.Z, 1.0})
		return msgs.DoubleArrayStamped{Header: h, Data: data}
	}
	return msgs.Empty{}
}

func odometry(h msgs.Header, t float64) msgs.Odometry {
	theta := angularRate * t

	var m msgs.Odometry
	m.Header = h
	m.ChildFrameID = "body"
	m.Pose.Pose.Position = msgs.Point{
		X: radius * math.Cos(theta),
		Y: radius * math.Sin(theta),
		Z: bobHeight * math.Sin(bobRate*t),
	}
	m.Pose.Pose.Orientation = msgs.QuaternionFromRPY(0, 0, theta+math.Pi/2)
	m.Twist.Twist.Linear = msgs.Vector3{
		X: -radius * angularRate * math.Sin(theta),
		Y: radius * angularRate * math.Cos(theta),
		Z: bobHeight * bobRate * math.Cos(bobRate*t),
	}
	m.Twist.Twist.Angular = msgs.Vector3{Z: angularRate}
	return m
}

func scale(v msgs.Vector3, k float64) msgs.Vector3 {
	return msgs.Vector3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}
