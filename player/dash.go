package player

import (
	"github.com/scavenger-game/scavenger/game"
)

// startDash dashes the character out of cover, sideways in the direction it is facing.
func (c *Character) startDash() {
	s := &c.state
	if !s.InCover() || s.Dashing || s.DashCooldownTimer < c.conf.DashCooldown {
		return
	}
	c.exitCover()

	c.engine.SetYaw(game.YawFromVector(s.CoverDirection))
	dir := game.RightVector(c.engine.Yaw())
	if !s.CoverFacingRight {
		dir = dir.Mul(-1)
	}

	s.Dashing = true
	s.DashTimer = 0
	s.DashDirection = dir
	c.setWalkSpeed(c.conf.DashSpeed)
	c.debug("dash started", "dir", game.RoundVec32(dir, 3))
}

// stopDash ends the dash and starts its cooldown.
func (c *Character) stopDash() {
	s := &c.state
	s.Dashing = false
	s.DashTimer = 0
	s.DashCooldownTimer = 0
	c.setWalkSpeed(c.conf.WalkSpeed)
	c.debug("dash stopped", "pos", game.RoundVec32(c.engine.Location(), 2))

	if !s.InCover() {
		if s.RunKeyPressed {
			c.startRun()
		} else {
			c.startWalk()
		}
	}
}

// tickDash moves a dashing character, or counts down the dash cooldown. Only the authority ends a
// dash.
func (c *Character) tickDash() {
	s := &c.state
	if !s.Dashing {
		if s.DashCooldownTimer < c.conf.DashCooldown {
			s.DashCooldownTimer++
		}
		return
	}

	if c.authority {
		if s.DashTimer >= c.conf.DashDuration {
			c.stopDash()
			return
		}
		s.DashTimer++
	}
	c.engine.AddMovementInput(s.DashDirection, c.conf.DashForce, true)
}
