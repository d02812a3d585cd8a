package player

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/world"
)

// MovementEngine integrates the movement of a character. Position and rotation of the character
// are owned by the engine.
type MovementEngine interface {
	// SetMaxSpeed sets the speed the character walks at with full input.
	SetMaxSpeed(speed float32)
	MaxSpeed() float32
	// AddMovementInput queues movement along direction, scaled by scale, for the next step. Forced
	// input is applied even if it exceeds unit length.
	AddMovementInput(direction mgl32.Vec3, scale float32, force bool)
	// LastInputVector returns the movement input consumed by the last step.
	LastInputVector() mgl32.Vec3
	SetOrientRotationToMovement(enabled bool)
	OrientRotationToMovement() bool
	// ConstrainToPlane restricts movement to the plane with the given normal while enabled.
	ConstrainToPlane(enabled bool, normal mgl32.Vec3)
	PlaneConstrained() bool
	Location() mgl32.Vec3
	SetLocation(pos mgl32.Vec3)
	// Yaw returns the rotation of the character around the vertical axis, in degrees.
	Yaw() float32
	SetYaw(yaw float32)
	// IsWalking returns true if the character is on the ground.
	IsWalking() bool
	Jump()
}

// Prober answers ray queries against the world.
type Prober interface {
	Probe(origin, direction mgl32.Vec3, maxDistance float32, filter world.Filter) (world.Hit, bool)
}
