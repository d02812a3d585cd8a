package player

import (
	"github.com/scavenger-game/scavenger/game"
)

// Camera holds the values the camera rig of a character follows. The rig itself is not simulated.
type Camera struct {
	ArmLength, TargetArmLength         float32
	LateralOffset, TargetLateralOffset float32
	// StoredArmLength is the arm length restored when aiming stops.
	StoredArmLength float32
}

// updateCamera moves the arm length and lateral offset towards their targets at a constant rate.
func (c *Character) updateCamera() {
	targetOffset := c.camera.TargetLateralOffset
	if c.state.PoppedOut {
		targetOffset *= 2
	}
	c.camera.ArmLength = game.MoveTowards(c.camera.ArmLength, c.camera.TargetArmLength, c.conf.CameraTrackSpeed)
	c.camera.LateralOffset = game.MoveTowards(c.camera.LateralOffset, targetOffset, c.conf.CameraTrackSpeed)
}
