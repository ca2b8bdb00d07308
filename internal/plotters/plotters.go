// Package plotters turns typed messages from one bus topic into points on
// the sub-plots that display them.
package plotters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/msgs"
	"github.com/rileyhilliard/statemon/internal/plot"
)

// Kind is the message type a Plotter decodes.
type Kind int

const (
	KindOdometry Kind = iota
	KindPoint
	KindPose
	KindTransform
	KindImu
	KindImuBias
	KindStateVector
)

func (k Kind) String() string {
	switch k {
	case KindOdometry:
		return "odometry"
	case KindPoint:
		return "point"
	case KindPose:
		return "pose"
	case KindTransform:
		return "transform"
	case KindImu:
		return "imu"
	case KindImuBias:
		return "imu-bias"
	case KindStateVector:
		return "state-vector"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sub-plot titles.
const (
	TitlePosition        = "Position (m)"
	TitleLinearVelocity  = "Linear Velocity (m/s)"
	TitleOrientation     = "Orientation (rad)"
	TitleAngularVelocity = "Angular Velocity (rad/s)"
	TitleLinearAccel     = "Linear Acceleration (m/s^2)"
	TitleLinearAccelBias = "Linear Acceleration Bias (m/s^2)"
	TitleAngularVelBias  = "Angular Velocity Bias (rad/s)"
)

var (
	xyz = []string{"x", "y", "z"}
	rpy = []string{"roll", "pitch", "yaw"}
)

// State vector offsets of the fusion filter's published state.
const (
	stateGyroBias  = 10
	stateAccelBias = 13
	stateMinLen    = 16
)

// Plotter feeds one topic into its sub-plots.
type Plotter struct {
	kind  Kind
	topic string
	plots []*plot.SubPlot
}

// Topic returns the topic the plotter consumes.
func (p *Plotter) Topic() string { return p.topic }

// Kind returns the decoded message type.
func (p *Plotter) Kind() Kind { return p.kind }

// SubPlots returns the plotter's sub-plots in construction order.
func (p *Plotter) SubPlots() []*plot.SubPlot { return p.plots }

// Handle decodes one message and appends a point to every sub-plot.
func (p *Plotter) Handle(payload []byte) error {
	decode, ok := decoders[p.kind]
	if !ok {
		return errors.New(errors.ErrDecode,
			fmt.Sprintf("No decoder for %s on %s", p.kind, p.topic), "")
	}
	if err := decode(payload, p.plots); err != nil {
		return errors.WrapWithCode(err, errors.ErrDecode,
			fmt.Sprintf("Cannot decode %s message on %s", p.kind, p.topic), "")
	}
	return nil
}

// OdometryCells places the four odometry sub-plots.
type OdometryCells struct {
	Position        int
	LinearVelocity  int
	Orientation     int
	AngularVelocity int
}

// NewOdometry plots position, linear velocity, orientation and angular velocity.
func NewOdometry(topic string, retention time.Duration, cells OdometryCells) *Plotter {
	return &Plotter{
		kind:  KindOdometry,
		topic: topic,
		plots: []*plot.SubPlot{
			plot.New(TitlePosition, cells.Position, retention, xyz...),
			plot.New(TitleLinearVelocity, cells.LinearVelocity, retention, xyz...),
			plot.New(TitleOrientation, cells.Orientation, retention, rpy...),
			plot.New(TitleAngularVelocity, cells.AngularVelocity, retention, xyz...),
		},
	}
}

// NewPoint plots one 3-vector under title.
func NewPoint(topic, title string, cell int, retention time.Duration) *Plotter {
	return &Plotter{
		kind:  KindPoint,
		topic: topic,
		plots: []*plot.SubPlot{plot.New(title, cell, retention, xyz...)},
	}
}

// NewPose plots position and orientation of a stamped pose.
func NewPose(topic string, retention time.Duration, positionCell, orientationCell int) *Plotter {
	return &Plotter{
		kind:  KindPose,
		topic: topic,
		plots: []*plot.SubPlot{
			plot.New(TitlePosition, positionCell, retention, xyz...),
			plot.New(TitleOrientation, orientationCell, retention, rpy...),
		},
	}
}

// NewTransform plots translation and rotation of a stamped transform.
func NewTransform(topic string, retention time.Duration, positionCell, orientationCell int) *Plotter {
	return &Plotter{
		kind:  KindTransform,
		topic: topic,
		plots: []*plot.SubPlot{
			plot.New(TitlePosition, positionCell, retention, xyz...),
			plot.New(TitleOrientation, orientationCell, retention, rpy...),
		},
	}
}

// NewImu plots linear acceleration, orientation and angular velocity.
func NewImu(topic string, retention time.Duration, accelCell, orientationCell, angularCell int) *Plotter {
	return &Plotter{
		kind:  KindImu,
		topic: topic,
		plots: []*plot.SubPlot{
			plot.New(TitleLinearAccel, accelCell, retention, xyz...),
			plot.New(TitleOrientation, orientationCell, retention, rpy...),
			plot.New(TitleAngularVelocity, angularCell, retention, xyz...),
		},
	}
}

// NewImuBias plots the bias estimates carried in an IMU-shaped message.
func NewImuBias(topic string, retention time.Duration, accelBiasCell, gyroBiasCell int) *Plotter {
	return &Plotter{
		kind:  KindImuBias,
		topic: topic,
		plots: []*plot.SubPlot{
			plot.New(TitleLinearAccelBias, accelBiasCell, retention, xyz...),
			plot.New(TitleAngularVelBias, gyroBiasCell, retention, xyz...),
		},
	}
}

// NewStateVector plots the bias entries of a fusion filter state vector.
func NewStateVector(topic string, retention time.Duration, accelBiasCell, gyroBiasCell int) *Plotter {
	return &Plotter{
		kind:  KindStateVector,
		topic: topic,
		plots: []*plot.SubPlot{
			plot.New(TitleLinearAccelBias, accelBiasCell, retention, xyz...),
			plot.New(TitleAngularVelBias, gyroBiasCell, retention, xyz...),
		},
	}
}

type decodeFunc func(payload []byte, plots []*plot.SubPlot) error

var decoders = map[Kind]decodeFunc{
	KindOdometry: func(payload []byte, plots []*plot.SubPlot) error {
		var m msgs.Odometry
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		t := m.Header.Stamp.Seconds()
		pose, twist := m.Pose.Pose, m.Twist.Twist
		appendPoint(plots[0], t, pose.Position)
		appendVector(plots[1], t, twist.Linear)
		appendRPY(plots[2], t, pose.Orientation)
		appendVector(plots[3], t, twist.Angular)
		return nil
	},
	KindPoint: func(payload []byte, plots []*plot.SubPlot) error {
		var m msgs.PointStamped
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		appendPoint(plots[0], m.Header.Stamp.Seconds(), m.Point)
		return nil
	},
	KindPose: func(payload []byte, plots []*plot.SubPlot) error {
		var m msgs.PoseStamped
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		t := m.Header.Stamp.Seconds()
		appendPoint(plots[0], t, m.Pose.Position)
		appendRPY(plots[1], t, m.Pose.Orientation)
		return nil
	},
	KindTransform: func(payload []byte, plots []*plot.SubPlot) error {
		var m msgs.TransformStamped
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		t := m.Header.Stamp.Seconds()
		appendVector(plots[0], t, m.Transform.Translation)
		appendRPY(plots[1], t, m.Transform.Rotation)
		return nil
	},
	KindImu: func(payload []byte, plots []*plot.SubPlot) error {
		var m msgs.Imu
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		t := m.Header.Stamp.Seconds()
		appendVector(plots[0], t, m.LinearAcceleration)
		appendRPY(plots[1], t, m.Orientation)
		appendVector(plots[2], t, m.AngularVelocity)
		return nil
	},
	KindImuBias: func(payload []byte, plots []*plot.SubPlot) error {
		var m msgs.Imu
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		t := m.Header.Stamp.Seconds()
		appendVector(plots[0], t, m.LinearAcceleration)
		appendVector(plots[1], t, m.AngularVelocity)
		return nil
	},
	KindStateVector: func(payload []byte, plots []*plot.SubPlot) error {
		var m msgs.DoubleArrayStamped
		if err := json.Unmarshal(payload, &m); err != nil {
			return err
		}
		if len(m.Data) < stateMinLen {
			return fmt.Errorf("state vector has %d entries, need at least %d", len(m.Data), stateMinLen)
		}
		t := m.Header.Stamp.Seconds()
		d := m.Data
		plots[0].Append(t, d[stateAccelBias], d[stateAccelBias+1], d[stateAccelBias+2])
		plots[1].Append(t, d[stateGyroBias], d[stateGyroBias+1], d[stateGyroBias+2])
		return nil
	},
}

func appendPoint(p *plot.SubPlot, t float64, v msgs.Point) {
	p.Append(t, v.X, v.Y, v.Z)
}

func appendVector(p *plot.SubPlot, t float64, v msgs.Vector3) {
	p.Append(t, v.X, v.Y, v.Z)
}

func appendRPY(p *plot.SubPlot, t float64, q msgs.Quaternion) {
	roll, pitch, yaw := q.RPY()
	p.Append(t, roll, pitch, yaw)
}
