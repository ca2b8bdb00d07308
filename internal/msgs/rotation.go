package msgs

import "math"

// RPY converts the quaternion to roll, pitch and yaw in radians (fixed-axis
// X-Y-Z). The quaternion does not need to be normalised; a zero quaternion
// yields zero angles.
func (q Quaternion) RPY() (roll, pitch, yaw float64) {
	d := q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
	if d == 0 {
		return 0, 0, 0
	}
	s := 2.0 / d

	xs, ys, zs := q.X*s, q.Y*s, q.Z*s
	wx, wy, wz := q.W*xs, q.W*ys, q.W*zs
	xx, xy, xz := q.X*xs, q.X*ys, q.X*zs
	yy, yz, zz := q.Y*ys, q.Y*zs, q.Z*zs

	r00 := 1.0 - (yy + zz)
	r01 := xy - wz
	r02 := xz + wy
	r10 := xy + wz
	r20 := xz - wy
	r21 := yz + wx
	r22 := 1.0 - (xx + yy)

	// Gimbal lock: pitch is +-90 degrees and yaw is folded into roll.
	if math.Abs(r20) >= 1 {
		if r20 < 0 {
			return math.Atan2(r01, r02), math.Pi / 2, 0
		}
		return math.Atan2(-r01, -r02), -math.Pi / 2, 0
	}

	pitch = -math.Asin(r20)
	c := math.Cos(pitch)
	roll = math.Atan2(r21/c, r22/c)
	yaw = math.Atan2(r10/c, r00/c)
	return roll, pitch, yaw
}

// QuaternionFromRPY builds a unit quaternion from roll, pitch and yaw.
func QuaternionFromRPY(roll, pitch, yaw float64) Quaternion {
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)

	return Quaternion{
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
		W: cr*cp*cy + sr*sp*sy,
	}
}
