package msgs

import "math"

// Time is a stamp split into whole seconds and nanoseconds.
type Time struct {
	Secs  int64 `json:"secs"`
	Nsecs int64 `json:"nsecs"`
}

// Seconds returns the stamp as floating point seconds.
func (t Time) Seconds() float64 {
	return float64(t.Secs) + float64(t.Nsecs)*1e-9
}

// TimeFromSeconds splits s into a Time.
func TimeFromSeconds(s float64) Time {
	secs := math.Floor(s)
	return Time{Secs: int64(secs), Nsecs: int64(math.Round((s - secs) * 1e9))}
}

// Header carries the stamp and frame of a message.
type Header struct {
	Seq     uint32 `json:"seq,omitempty"`
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id,omitempty"`
}

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

type Pose struct {
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

type PoseWithCovariance struct {
	Pose       Pose      `json:"pose"`
	Covariance []float64 `json:"covariance,omitempty"`
}

type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

type TwistWithCovariance struct {
	Twist      Twist     `json:"twist"`
	Covariance []float64 `json:"covariance,omitempty"`
}

type Transform struct {
	Translation Vector3    `json:"translation"`
	Rotation    Quaternion `json:"rotation"`
}

// Odometry is position, orientation and velocity of a body.
type Odometry struct {
	Header       Header              `json:"header"`
	ChildFrameID string              `json:"child_frame_id,omitempty"`
	Pose         PoseWithCovariance  `json:"pose"`
	Twist        TwistWithCovariance `json:"twist"`
}

type PointStamped struct {
	Header Header `json:"header"`
	Point  Point  `json:"point"`
}

type PoseStamped struct {
	Header Header `json:"header"`
	Pose   Pose   `json:"pose"`
}

type TransformStamped struct {
	Header       Header    `json:"header"`
	ChildFrameID string    `json:"child_frame_id,omitempty"`
	Transform    Transform `json:"transform"`
}

// Imu is one inertial measurement. Some estimators reuse this shape to
// publish their bias estimates.
type Imu struct {
	Header             Header     `json:"header"`
	Orientation        Quaternion `json:"orientation"`
	AngularVelocity    Vector3    `json:"angular_velocity"`
	LinearAcceleration Vector3    `json:"linear_acceleration"`
}

// DoubleArrayStamped is a flat state vector with a stamp.
type DoubleArrayStamped struct {
	Header Header    `json:"header"`
	Data   []float64 `json:"data"`
}

// Empty is the request and response of a no-argument service.
type Empty struct{}

// InitScaleRequest asks a fusion filter to reinitialise with the given scale.
type InitScaleRequest struct {
	Scale float64 `json:"scale"`
}

type InitScaleResponse struct {
	Result string `json:"result"`
}
