package game

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// The world is Y-up. Yaw is measured in degrees around +Y, with a yaw of zero facing +X and a yaw
// of 90 facing +Z.

// SafeNormal returns v normalized, or the zero vector if v is too short to be normalized.
func SafeNormal(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-6 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

// Flatten removes the vertical component of v.
func Flatten(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v.X(), 0, v.Z()}
}

// AngleBetween returns the angle between a and b in degrees, in the range [0, 180]. Neither vector
// needs to be normalized. A zero vector is treated as perpendicular to everything.
func AngleBetween(a, b mgl32.Vec3) float32 {
	dot := mgl32.Clamp(SafeNormal(a).Dot(SafeNormal(b)), -1, 1)
	return mgl32.RadToDeg(math32.Acos(dot))
}

// ForwardVector returns the horizontal unit vector a character with the given yaw faces.
func ForwardVector(yaw float32) mgl32.Vec3 {
	rad := mgl32.DegToRad(yaw)
	return mgl32.Vec3{math32.Cos(rad), 0, math32.Sin(rad)}
}

// RightVector returns the horizontal unit vector to the right of a character with the given yaw.
func RightVector(yaw float32) mgl32.Vec3 {
	rad := mgl32.DegToRad(yaw)
	return mgl32.Vec3{-math32.Sin(rad), 0, math32.Cos(rad)}
}

// YawFromVector returns the yaw that faces along the horizontal part of v.
func YawFromVector(v mgl32.Vec3) float32 {
	return mgl32.RadToDeg(math32.Atan2(v.Z(), v.X()))
}

// DirectionVector returns a unit direction vector from the given yaw and pitch values. A positive
// pitch looks up.
func DirectionVector(yaw, pitch float32) mgl32.Vec3 {
	pitchRad := mgl32.DegToRad(pitch)
	m := math32.Cos(pitchRad)
	f := ForwardVector(yaw)
	return mgl32.Vec3{f.X() * m, math32.Sin(pitchRad), f.Z() * m}
}

// NormalizeAngle maps any angle in degrees into the range (-180, 180].
func NormalizeAngle(angle float32) float32 {
	angle = math32.Mod(angle, 360)
	if angle > 180 {
		angle -= 360
	} else if angle <= -180 {
		angle += 360
	}
	return angle
}

// RotateTowards turns current toward target by at most rate*dt degrees, taking the shortest way
// around. The result is normalized.
func RotateTowards(current, target, dt, rate float32) float32 {
	delta := NormalizeAngle(target - current)
	step := rate * dt
	if step <= 0 || math32.Abs(delta) <= step {
		return NormalizeAngle(target)
	}
	if delta < 0 {
		step = -step
	}
	return NormalizeAngle(current + step)
}

// MoveTowards moves current toward target by at most step, never passing it.
func MoveTowards(current, target, step float32) float32 {
	delta := target - current
	if math32.Abs(delta) <= step {
		return target
	}
	if delta < 0 {
		return current - step
	}
	return current + step
}

// Round32 will round a float32 to a given precision.
func Round32(val float32, precision int) float32 {
	pwr := math32.Pow(10, float32(precision))
	return math32.Round(val*pwr) / pwr
}

// RoundVec32 will round a 32-bit vector to a given precision.
func RoundVec32(v mgl32.Vec3, p int) mgl32.Vec3 {
	return mgl32.Vec3{Round32(v.X(), p), Round32(v.Y(), p), Round32(v.Z(), p)}
}

// Float32ApproxEq determines whether two floating point numbers are close enough to each other
// by a threshold of 1e-5.
func Float32ApproxEq(a, b float32) bool {
	return math32.Abs(a-b) <= 1e-5
}

// Vec3ApproxEq determines whether two vectors are within tolerance of each other on every axis.
func Vec3ApproxEq(a, b mgl32.Vec3, tolerance float32) bool {
	return math32.Abs(a[0]-b[0]) <= tolerance && math32.Abs(a[1]-b[1]) <= tolerance && math32.Abs(a[2]-b[2]) <= tolerance
}

// IsFiniteVec3 returns false if any component of v is NaN or infinite.
func IsFiniteVec3(v mgl32.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}
