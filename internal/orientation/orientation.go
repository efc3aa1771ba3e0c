package orientation

import (
	"math"

	"github.com/relabs-tech/inertial_decoder/internal/imu"
)

// Pose is the canonical representation of orientation for your app.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that can provide poses over time.
type Source interface {
	Next() (Pose, error)
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is set to 0; the decoded streams carry no magnetometer.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// FromSample is the tilt pose of a decoded IMU sample.
func FromSample(s imu.Sample) Pose {
	return ComputePoseFromAccel(s.Ax, s.Ay, s.Az)
}

// GravityFromPose is the accelerometer reading, in units of g, of a sensor
// at rest in pose p. It inverts ComputePoseFromAccel.
func GravityFromPose(p Pose) (ax, ay, az float64) {
	roll := p.Roll * math.Pi / 180.0
	pitch := p.Pitch * math.Pi / 180.0
	return -math.Sin(pitch), math.Cos(pitch) * math.Sin(roll), math.Cos(pitch) * math.Cos(roll)
}
