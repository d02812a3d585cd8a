package game

import "time"

const (
	// TicksPerSecond is the fixed simulation rate of the server and of client prediction.
	TicksPerSecond = 60
	TickDuration   = time.Second / TicksPerSecond
	// DeltaTime is the duration of one tick in seconds.
	DeltaTime = float32(1) / TicksPerSecond
)

const (
	CapsuleRadius     = float32(42)
	CapsuleHalfHeight = float32(96)

	Gravity      = float32(-980)
	JumpVelocity = float32(420)

	// CoverRotationRate is how fast, in degrees per second, a character in cover turns to face it.
	CoverRotationRate = float32(640)
	// OrientRotationRate is the turn rate used while the character orients to its movement.
	OrientRotationRate = float32(540)

	// HeadroomOffset is how far above the character's center the crouch probe starts.
	HeadroomOffset = float32(20)
	// EdgeAdjustScale widens the edge probes used to decide whether a character may peek.
	EdgeAdjustScale = float32(1.25)
	// AimPitchBias is added to the control pitch when deriving the aim pitch.
	AimPitchBias = float32(10)
)
