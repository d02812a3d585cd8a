package player

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scavenger-game/scavenger/game"
	"github.com/scavenger-game/scavenger/world"
)

// updateAim derives the aim pitch and yaw from the control rotation, finds what is under the
// crosshair and sends the aim to the authority.
func (c *Character) updateAim() {
	s := &c.state
	s.AimPitch = game.NormalizeAngle(c.controlPitch) + game.AimPitchBias
	if s.PoppedOut {
		s.AimYaw = game.NormalizeAngle(c.controlYaw - c.engine.Yaw())
	} else {
		s.AimYaw = 0
	}
	c.acquireTarget()

	c.server.SetAimPitch(s.AimPitch)
	c.server.SetAimYaw(s.AimYaw)
}

// acquireTarget finds the point under the crosshair. Static geometry gives the default target,
// while a character under the crosshair overrides it.
func (c *Character) acquireTarget() {
	s := &c.state
	dir := game.SafeNormal(c.crosshairDirection)
	if dir == (mgl32.Vec3{}) {
		return
	}
	s.AimTarget = c.crosshairOrigin.Add(dir.Mul(c.conf.AimDistance))
	s.AimTargetPawn = ""

	if hit, ok := c.prober.Probe(c.crosshairOrigin, dir, c.conf.AimDistance, world.Filter{Channels: world.ChannelWorldStatic, Ignore: c.id}); ok {
		s.AimTarget = hit.Point
	}
	if hit, ok := c.prober.Probe(c.crosshairOrigin, dir, c.conf.AimDistance, world.Filter{Channels: world.ChannelPawn, Ignore: c.id}); ok {
		s.AimTarget = hit.Point
		s.AimTargetPawn = hit.ObjectID
	}
}

// localStartAim starts aiming on the controlled copy. In cover this pops the character out past an
// adjusted edge, or does nothing if there is none.
func (c *Character) localStartAim() {
	s := &c.state
	if s.Running || s.Dashing {
		return
	}

	if s.InCover() {
		switch {
		case s.EdgeAdjustedLeft:
			c.camera.TargetLateralOffset = -c.conf.AimOffsetAmount
			s.CoverFacingRight = false
		case s.EdgeAdjustedRight:
			c.camera.TargetLateralOffset = c.conf.AimOffsetAmount
			s.CoverFacingRight = true
		default:
			return
		}
		s.PoppedOut = true
		c.server.SetCoverState(s.CoverFacingRight, true)
	} else {
		c.camera.TargetLateralOffset = c.conf.AimOffsetAmount
		c.engine.SetOrientRotationToMovement(false)
		s.UseControllerYaw = true
	}
	c.camera.TargetArmLength = c.conf.AimZoomDistance

	if s.PoppedOut {
		c.server.AdjustLocation(c.engine.Location())
	}
	c.server.StartAim()
}

// localStopAim stops aiming on the controlled copy, cancelling any pop-out.
func (c *Character) localStopAim() {
	s := &c.state
	s.PoppedOut = false
	c.server.SetCoverState(s.CoverFacingRight, false)

	c.camera.TargetArmLength = c.camera.StoredArmLength
	c.camera.TargetLateralOffset = 0
	if !s.InCover() {
		c.engine.SetOrientRotationToMovement(true)
		s.UseControllerYaw = false
	}
	c.server.StopAim()
}

func (c *Character) startAim() {
	s := &c.state
	if s.Running || s.Dashing {
		return
	}
	if !s.InCover() {
		c.engine.SetOrientRotationToMovement(false)
		s.UseControllerYaw = true
	}
	s.IsAiming = true
}

func (c *Character) stopAim() {
	s := &c.state
	if !s.InCover() {
		c.engine.SetOrientRotationToMovement(true)
		s.UseControllerYaw = false
	}
	s.IsAiming = false
	s.PoppedOut = false
}
